package storage

import (
	"context"
	"encoding/json"

	"wantok/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// KickChannel carries moderation kicks to every backend instance.
const KickChannel = "moderation:kick"

func (s *Service) PublishKick(ctx context.Context, cmd models.KickCommand) error {
	if s.Redis == nil {
		return nil
	}
	payload, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	return s.Redis.Publish(ctx, KickChannel, string(payload)).Err()
}

func (s *Service) SubscribeKicks(ctx context.Context) *redis.PubSub {
	return s.Redis.Subscribe(ctx, KickChannel)
}
