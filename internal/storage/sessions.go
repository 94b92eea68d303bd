package storage

import (
	"context"
	"fmt"
	"time"

	"wantok/backend/internal/models"

	"github.com/rs/zerolog/log"
)

func (s *Service) SessionStarted(ctx context.Context, session models.ChatSession) error {
	if err := s.DB.WithContext(ctx).Create(&session).Error; err != nil {
		return fmt.Errorf("save session %s: %w", session.SessionID, err)
	}
	return nil
}

func (s *Service) SessionEnded(ctx context.Context, sessionID, reason string, endedAt time.Time) error {
	err := s.DB.WithContext(ctx).Model(&models.ChatSession{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"is_active":  false,
			"ended_at":   endedAt,
			"end_reason": reason,
		}).Error
	if err != nil {
		return fmt.Errorf("close session %s: %w", sessionID, err)
	}
	return nil
}

// CloseActiveSessions ends every session still marked active. Pairings live only in memory,
// so after a restart none of them can still be running.
func (s *Service) CloseActiveSessions(ctx context.Context, reason string) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.ChatSession{}).
		Where("is_active = ?", true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"ended_at":   time.Now(),
			"end_reason": reason,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("close active sessions: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		log.Info().Int64("sessions", res.RowsAffected).Str("reason", reason).Msg("closed orphaned sessions")
	}
	return res.RowsAffected, nil
}
