package chathub

import (
	"time"

	"wantok/backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Reasons recorded when a session ends.
const (
	ReasonEndChat    = "end_chat"
	ReasonSkip       = "skip"
	ReasonDisconnect = "disconnect"
	ReasonReplaced   = "replaced"
	ReasonSuspended  = "suspended"
)

// pairLocked links a waiting connection with the requester that found it.
// The waiting side becomes the WebRTC initiator.
func (m *ManagerService) pairLocked(waiting, requester *Connection) {
	now := m.now()
	sessionID := uuid.NewString()

	waiting.Partner, requester.Partner = requester.ID, waiting.ID
	waiting.SessionID, requester.SessionID = sessionID, sessionID
	waiting.PairedAt, requester.PairedAt = now, now
	m.setStatusLocked(waiting, models.StatusChatting)
	m.setStatusLocked(requester, models.StatusChatting)

	m.sendLocked(requester, models.ServerEvent{
		Type:    models.EventPaired,
		Payload: models.PairedPayload{Initiator: false, PartnerInfo: waiting.Profile.PartnerInfo()},
	})
	m.sendLocked(waiting, models.ServerEvent{
		Type:    models.EventPaired,
		Payload: models.PairedPayload{Initiator: true, PartnerInfo: requester.Profile.PartnerInfo()},
	})

	m.Metrics.PairFormed()
	m.recordLocked(sessionEvent{
		started: true,
		session: models.ChatSession{
			SessionID: sessionID,
			User1ID:   waiting.userID(),
			User2ID:   requester.userID(),
			IsActive:  true,
			StartedAt: now,
		},
	})

	log.Info().
		Str("session_id", sessionID).
		Str("initiator", waiting.userID()).
		Str("responder", requester.userID()).
		Msg("session started")
}

// endSessionLocked ends c's session, if any, and takes c out of the queue.
// The partner is notified exactly once and returns to online. When removing is set,
// c is about to leave the arena and keeps its status.
func (m *ManagerService) endSessionLocked(c *Connection, reason string, removing bool) {
	if c.Partner != "" {
		now := m.now()
		if p, ok := m.conns[c.Partner]; ok && p.Partner == c.ID {
			p.Partner, p.SessionID, p.PairedAt = "", "", time.Time{}
			m.setStatusLocked(p, models.StatusOnline)
			m.sendLocked(p, models.ServerEvent{Type: models.EventPartnerDisconnected})
		}

		m.Metrics.SessionEnded(reason, now.Sub(c.PairedAt).Seconds())
		m.recordLocked(sessionEvent{sessionID: c.SessionID, reason: reason, at: now})

		log.Info().
			Str("session_id", c.SessionID).
			Str("user_id", c.userID()).
			Str("reason", reason).
			Msg("session ended")

		c.Partner, c.SessionID, c.PairedAt = "", "", time.Time{}
	}

	m.queue.Remove(c.ID)
	if c.authenticated() && !removing {
		m.setStatusLocked(c, models.StatusOnline)
	}
}
