// Package moderation handles user reports and the suspensions that follow
// automated or manual violation findings.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wantok/backend/internal/models"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidReport = errors.New("reported user and reason are required")
	ErrInvalidStatus = errors.New("report status must be resolved or dismissed")
	ErrMissingUser   = errors.New("user id is required")
)

// Store is the persistence the moderation service needs.
type Store interface {
	CreateReport(ctx context.Context, report *models.Report) error
	GetReports(ctx context.Context, status models.ReportStatus) ([]models.Report, error)
	UpdateReportStatus(ctx context.Context, id uint, status models.ReportStatus, resolvedBy string) error

	CreateSuspension(ctx context.Context, suspension *models.Suspension) error
	GetActiveSuspension(ctx context.Context, userID string, now time.Time) (*models.Suspension, error)
	ListActiveSuspensions(ctx context.Context, now time.Time) ([]models.Suspension, error)
	DeleteSuspensions(ctx context.Context, userID string) (int64, error)
	DeleteExpiredSuspensions(ctx context.Context, now time.Time) (int64, error)

	CacheBan(ctx context.Context, userID string, ttl time.Duration) error
	ClearBan(ctx context.Context, userID string) error
	PublishKick(ctx context.Context, cmd models.KickCommand) error
}

// Notifier alerts human moderators. Failures are logged, never returned.
type Notifier interface {
	NotifyReport(ctx context.Context, report models.Report) error
	NotifySuspension(ctx context.Context, suspension models.Suspension) error
}

// Kicker disconnects a user's connection on this instance. It is implemented by
// chathub.ManagerService.
type Kicker interface {
	Kick(cmd models.KickCommand) bool
}

// Service handles the business logic for reports and suspensions.
// Kicker may be nil when no chat hub runs in the process (admin CLI).
type Service struct {
	Store    Store
	Notifier Notifier
	Kicker   Kicker
	now      func() time.Time
}

// NewService creates a new moderation service. notifier may be nil.
func NewService(store Store, notifier Notifier) *Service {
	return &Service{Store: store, Notifier: notifier, now: time.Now}
}

// Violation is an automated or manual finding against a user.
type Violation struct {
	UserID    string
	Username  string
	Reason    string
	CreatedBy string
}

// LogReport records a complaint about a chat partner and alerts moderators.
func (s *Service) LogReport(ctx context.Context, report *models.Report) error {
	if strings.TrimSpace(report.ReportedUserID) == "" || strings.TrimSpace(report.Reason) == "" {
		return ErrInvalidReport
	}
	report.Status = models.ReportPending

	if err := s.Store.CreateReport(ctx, report); err != nil {
		return err
	}

	log.Info().
		Uint("report_id", report.ID).
		Str("reporter_id", report.ReporterID).
		Str("reported_user_id", report.ReportedUserID).
		Msg("report logged")

	if s.Notifier != nil {
		if err := s.Notifier.NotifyReport(ctx, *report); err != nil {
			log.Warn().Err(err).Uint("report_id", report.ID).Msg("failed to notify moderators")
		}
	}
	return nil
}

// HandleViolation suspends the user according to the severity of the reason, caches the
// ban, drops the user's connection on this instance and asks every other instance to do
// the same.
func (s *Service) HandleViolation(ctx context.Context, v Violation) (*models.Suspension, error) {
	if strings.TrimSpace(v.UserID) == "" {
		return nil, ErrMissingUser
	}

	kind, duration := ClassifyViolation(v.Reason)
	now := s.now()
	suspension := &models.Suspension{
		UserID:         v.UserID,
		Username:       v.Username,
		Reason:         v.Reason,
		SuspensionType: kind,
		CreatedBy:      v.CreatedBy,
	}
	if kind == models.SuspensionTemporary {
		suspension.ExpiresAt = pq.NullTime{Time: now.Add(duration), Valid: true}
	}

	if err := s.Store.CreateSuspension(ctx, suspension); err != nil {
		return nil, err
	}

	if err := s.Store.CacheBan(ctx, v.UserID, duration); err != nil {
		log.Warn().Err(err).Str("user_id", v.UserID).Msg("failed to cache ban")
	}

	cmd := models.KickCommand{
		UserID:         v.UserID,
		Reason:         v.Reason,
		SuspensionType: kind,
		ExpiresAt:      suspension.Expiry(),
	}
	if s.Kicker != nil && s.Kicker.Kick(cmd) {
		log.Info().Str("user_id", v.UserID).Msg("local connection kicked")
	}
	if err := s.Store.PublishKick(ctx, cmd); err != nil {
		log.Error().Err(err).Str("user_id", v.UserID).Msg("failed to publish kick")
	}

	log.Warn().
		Str("user_id", v.UserID).
		Str("suspension_type", string(kind)).
		Dur("duration", duration).
		Msg("user suspended")

	if s.Notifier != nil {
		if err := s.Notifier.NotifySuspension(ctx, *suspension); err != nil {
			log.Warn().Err(err).Str("user_id", v.UserID).Msg("failed to notify moderators")
		}
	}
	return suspension, nil
}

// CheckSuspension returns the suspension currently in force for userID, or nil.
func (s *Service) CheckSuspension(ctx context.Context, userID string) (*models.Suspension, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	return s.Store.GetActiveSuspension(ctx, userID, s.now())
}

// Unban lifts every suspension of userID and clears the ban cache.
func (s *Service) Unban(ctx context.Context, userID string) (int64, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, ErrMissingUser
	}
	n, err := s.Store.DeleteSuspensions(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := s.Store.ClearBan(ctx, userID); err != nil {
		return n, fmt.Errorf("clear ban cache: %w", err)
	}
	log.Info().Str("user_id", userID).Int64("suspensions", n).Msg("user unbanned")
	return n, nil
}

// Reports lists reports with the given status; an empty status lists all of them.
func (s *Service) Reports(ctx context.Context, status models.ReportStatus) ([]models.Report, error) {
	return s.Store.GetReports(ctx, status)
}

// PendingReports lists reports still waiting for a moderator.
func (s *Service) PendingReports(ctx context.Context) ([]models.Report, error) {
	return s.Store.GetReports(ctx, models.ReportPending)
}

func (s *Service) ResolveReport(ctx context.Context, id uint, status models.ReportStatus, resolvedBy string) error {
	if status != models.ReportResolved && status != models.ReportDismissed {
		return ErrInvalidStatus
	}
	return s.Store.UpdateReportStatus(ctx, id, status, resolvedBy)
}

func (s *Service) ListSuspensions(ctx context.Context) ([]models.Suspension, error) {
	return s.Store.ListActiveSuspensions(ctx, s.now())
}

// SweepExpired deletes temporary suspensions whose expiry has passed.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.Store.DeleteExpiredSuspensions(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Info().Int64("suspensions", n).Msg("expired suspensions removed")
	}
	return n, nil
}
