package events

import (
	"context"
	"errors"
	"time"

	"wantok/backend/internal/models"
)

// Recorder receives session lifecycle changes.
type Recorder interface {
	SessionStarted(ctx context.Context, session models.ChatSession) error
	SessionEnded(ctx context.Context, sessionID, reason string, endedAt time.Time) error
}

// Fanout delivers every change to each recorder, even if an earlier one fails.
type Fanout []Recorder

// NewFanout drops nil recorders.
func NewFanout(recorders ...Recorder) Fanout {
	var f Fanout
	for _, r := range recorders {
		if r != nil {
			f = append(f, r)
		}
	}
	return f
}

func (f Fanout) SessionStarted(ctx context.Context, session models.ChatSession) error {
	var errs []error
	for _, r := range f {
		errs = append(errs, r.SessionStarted(ctx, session))
	}
	return errors.Join(errs...)
}

func (f Fanout) SessionEnded(ctx context.Context, sessionID, reason string, endedAt time.Time) error {
	var errs []error
	for _, r := range f {
		errs = append(errs, r.SessionEnded(ctx, sessionID, reason, endedAt))
	}
	return errors.Join(errs...)
}
