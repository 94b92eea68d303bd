package chathub

import (
	"encoding/json"

	"wantok/backend/internal/models"

	"github.com/rs/zerolog/log"
)

// Relay forwards a signaling or text payload to connID's current partner, untouched.
// Without a partner the message is dropped and Relay reports false.
func (m *ManagerService) Relay(connID, msgType string, payload json.RawMessage) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.conns[connID]
	if !ok || c.Partner == "" {
		log.Debug().Str("conn_id", connID).Str("type", msgType).Msg("relay dropped, no partner")
		return false
	}
	p, ok := m.conns[c.Partner]
	if !ok {
		return false
	}

	ev := models.ServerEvent{Type: msgType}
	if len(payload) > 0 {
		ev.Payload = payload
	}
	m.sendLocked(p, ev)
	m.Metrics.MessageRelayed(msgType)
	return true
}
