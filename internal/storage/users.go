package storage

import (
	"context"
	"errors"
	"fmt"

	"wantok/backend/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CreateUser inserts a new account. Duplicate emails map to ErrAlreadyExists when the
// connection was opened with TranslateError.
func (s *Service) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.DB.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	log.Info().Str("user_id", user.ID).Msg("user created")
	return nil
}

func (s *Service) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Service) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *Service) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (s *Service) UpdateUser(ctx context.Context, user *models.User) error {
	return s.DB.WithContext(ctx).Save(user).Error
}

// AddTokens credits amount and returns the new balance.
func (s *Service) AddTokens(ctx context.Context, userID string, amount int) (int, error) {
	res := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("tokens", gorm.Expr("tokens + ?", amount))
	if res.Error != nil {
		return 0, fmt.Errorf("add tokens: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, ErrNotFound
	}
	return s.tokenBalance(ctx, userID)
}

// DeductTokens debits amount only if the balance covers it.
func (s *Service) DeductTokens(ctx context.Context, userID string, amount int) (int, error) {
	res := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND tokens >= ?", userID, amount).
		UpdateColumn("tokens", gorm.Expr("tokens - ?", amount))
	if res.Error != nil {
		return 0, fmt.Errorf("deduct tokens: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetUserByID(ctx, userID); err != nil {
			return 0, err
		}
		return 0, ErrInsufficientTokens
	}
	return s.tokenBalance(ctx, userID)
}

func (s *Service) SetTokens(ctx context.Context, userID string, tokens int) error {
	res := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("tokens", tokens)
	if res.Error != nil {
		return fmt.Errorf("set tokens: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) tokenBalance(ctx context.Context, userID string) (int, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("read token balance: %w", err)
	}
	return user.Tokens, nil
}
