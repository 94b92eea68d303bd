package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wantok/backend/internal/models"
	"wantok/backend/internal/storage"

	"github.com/rs/zerolog/log"
)

// UserStore is the part of storage the authenticator reads.
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetActiveSuspension(ctx context.Context, userID string, now time.Time) (*models.Suspension, error)
	IsUserBanned(ctx context.Context, userID string) (bool, error)
}

// ConnectionAuthenticator turns a bearer token into the profile a chat connection runs with.
type ConnectionAuthenticator struct {
	JWT   *JWTService
	Store UserStore
}

func NewConnectionAuthenticator(jwtSvc *JWTService, store UserStore) *ConnectionAuthenticator {
	return &ConnectionAuthenticator{JWT: jwtSvc, Store: store}
}

func (a *ConnectionAuthenticator) AuthenticateConnection(ctx context.Context, creds models.Credentials) (*models.Profile, error) {
	claims, err := a.JWT.Validate(creds.Token)
	if err != nil {
		return nil, err
	}

	user, err := a.Store.GetUserByID(ctx, claims.Subject)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	suspended, err := a.isSuspended(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if suspended {
		return nil, ErrAccountSuspended
	}

	p := user.Profile()
	return &p, nil
}

// isSuspended consults the redis ban cache first and falls back to the database.
func (a *ConnectionAuthenticator) isSuspended(ctx context.Context, userID string) (bool, error) {
	banned, err := a.Store.IsUserBanned(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("ban cache unavailable, checking database")
	}
	if banned {
		return true, nil
	}

	suspension, err := a.Store.GetActiveSuspension(ctx, userID, time.Now())
	if err != nil {
		return false, fmt.Errorf("check suspension: %w", err)
	}
	return suspension != nil, nil
}
