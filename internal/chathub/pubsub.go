package chathub

import (
	"context"
	"encoding/json"

	"wantok/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ListenForKicks applies moderation kicks published on the shared channel until ctx is done
// or the subscription closes. Every instance receives every kick; only the one serving the
// user acts on it.
func (m *ManagerService) ListenForKicks(ctx context.Context, messages <-chan *redis.Message) {
	log.Info().Msg("listening for moderation kicks")
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				log.Warn().Msg("kick subscription closed")
				return
			}

			var cmd models.KickCommand
			if err := json.Unmarshal([]byte(msg.Payload), &cmd); err != nil {
				log.Error().Err(err).Str("channel", msg.Channel).Msg("invalid kick command")
				continue
			}
			if cmd.UserID == "" {
				continue
			}
			if m.Kick(cmd) {
				log.Info().Str("user_id", cmd.UserID).Msg("applied moderation kick")
			}
		}
	}
}
