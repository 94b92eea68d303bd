package moderation

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

// ScheduleSweep registers a periodic expired-suspension sweep on s.
// Overlapping runs are skipped.
func ScheduleSweep(s gocron.Scheduler, svc *Service, every time.Duration) (gocron.Job, error) {
	return s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), every)
			defer cancel()
			if _, err := svc.SweepExpired(ctx); err != nil {
				log.Error().Err(err).Msg("suspension sweep failed")
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
}
