package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wantok/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const banKeyPrefix = "ban:"

func (s *Service) CreateReport(ctx context.Context, report *models.Report) error {
	if report.Status == "" {
		report.Status = models.ReportPending
	}
	if err := s.DB.WithContext(ctx).Create(report).Error; err != nil {
		log.Error().Err(err).Str("reported_user_id", report.ReportedUserID).Msg("failed to save report")
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// GetReports returns reports newest first. An empty status returns every report.
func (s *Service) GetReports(ctx context.Context, status models.ReportStatus) ([]models.Report, error) {
	var reports []models.Report
	q := s.DB.WithContext(ctx).Order("created_at desc")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

func (s *Service) UpdateReportStatus(ctx context.Context, id uint, status models.ReportStatus, resolvedBy string) error {
	now := time.Now()
	res := s.DB.WithContext(ctx).Model(&models.Report{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"resolved_by": resolvedBy,
			"resolved_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("update report: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) CreateSuspension(ctx context.Context, suspension *models.Suspension) error {
	if err := s.DB.WithContext(ctx).Create(suspension).Error; err != nil {
		return fmt.Errorf("create suspension: %w", err)
	}
	return nil
}

// GetActiveSuspension returns the newest suspension still in force, or nil.
func (s *Service) GetActiveSuspension(ctx context.Context, userID string, now time.Time) (*models.Suspension, error) {
	var suspension models.Suspension
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("suspension_type = ? OR expires_at > ?", models.SuspensionPermanent, now).
		Order("created_at desc").
		First(&suspension).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active suspension: %w", err)
	}
	return &suspension, nil
}

func (s *Service) ListActiveSuspensions(ctx context.Context, now time.Time) ([]models.Suspension, error) {
	var suspensions []models.Suspension
	err := s.DB.WithContext(ctx).
		Where("suspension_type = ? OR expires_at > ?", models.SuspensionPermanent, now).
		Order("created_at desc").
		Find(&suspensions).Error
	if err != nil {
		return nil, fmt.Errorf("list suspensions: %w", err)
	}
	return suspensions, nil
}

// DeleteSuspensions lifts every suspension of userID.
func (s *Service) DeleteSuspensions(ctx context.Context, userID string) (int64, error) {
	res := s.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Suspension{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete suspensions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Service) DeleteExpiredSuspensions(ctx context.Context, now time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).
		Where("suspension_type = ? AND expires_at <= ?", models.SuspensionTemporary, now).
		Delete(&models.Suspension{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired suspensions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// CacheBan marks userID as banned in redis. A zero ttl never expires.
func (s *Service) CacheBan(ctx context.Context, userID string, ttl time.Duration) error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Set(ctx, banKeyPrefix+userID, "active", ttl).Err()
}

func (s *Service) ClearBan(ctx context.Context, userID string) error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Del(ctx, banKeyPrefix+userID).Err()
}

// IsUserBanned checks the redis ban cache only.
func (s *Service) IsUserBanned(ctx context.Context, userID string) (bool, error) {
	if s.Redis == nil {
		return false, nil
	}
	status, err := s.Redis.Get(ctx, banKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return status != "", nil
}
