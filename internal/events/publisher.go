// Package events streams chat session lifecycle records to kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wantok/backend/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

const (
	TypeSessionStarted = "session.started"
	TypeSessionEnded   = "session.ended"
)

// Writer is the part of kafka.Writer the publisher uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// SessionEvent is the JSON value written for every lifecycle change.
type SessionEvent struct {
	Type       string     `json:"type"`
	SessionID  string     `json:"sessionId"`
	Initiator  string     `json:"initiator,omitempty"`
	Responder  string     `json:"responder,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	OccurredAt time.Time  `json:"occurredAt"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
}

// Publisher writes session events keyed by session ID, so both records of a session land
// on the same partition.
type Publisher struct {
	writer Writer
}

func NewPublisher(w Writer) *Publisher {
	return &Publisher{writer: w}
}

// NewKafkaPublisher builds a publisher on a kafka.Writer. It returns nil when no brokers
// are configured.
func NewKafkaPublisher(brokers []string, topic string) *Publisher {
	if len(brokers) == 0 || topic == "" {
		log.Info().Msg("session event stream disabled")
		return nil
	}
	return NewPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           10 * time.Second,
		AllowAutoTopicCreation: true,
	})
}

func (p *Publisher) SessionStarted(ctx context.Context, s models.ChatSession) error {
	started := s.StartedAt
	return p.publish(ctx, SessionEvent{
		Type:       TypeSessionStarted,
		SessionID:  s.SessionID,
		Initiator:  s.User1ID,
		Responder:  s.User2ID,
		OccurredAt: s.StartedAt,
		StartedAt:  &started,
	})
}

func (p *Publisher) SessionEnded(ctx context.Context, sessionID, reason string, endedAt time.Time) error {
	return p.publish(ctx, SessionEvent{
		Type:       TypeSessionEnded,
		SessionID:  sessionID,
		Reason:     reason,
		OccurredAt: endedAt,
	})
}

func (p *Publisher) publish(ctx context.Context, ev SessionEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.SessionID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
