package chathub

import (
	"context"
	"encoding/json"
	"errors"

	"wantok/backend/internal/models"

	"github.com/rs/zerolog/log"
)

type coder interface {
	Code() string
}

// HandleRequest routes one decoded client request to the matching hub operation.
func (m *ManagerService) HandleRequest(ctx context.Context, connID string, req models.ClientRequest) {
	switch {
	case req.Type == models.RequestAuthenticate:
		m.handleAuthenticate(ctx, connID, req.Payload)

	case req.Type == models.RequestFindPartner:
		var filters models.Filters
		if len(req.Payload) > 0 {
			if err := json.Unmarshal(req.Payload, &filters); err != nil {
				m.SendError(connID, CodeBadRequest, "Invalid search filters")
				return
			}
		}
		_ = m.FindPartner(connID, filters)

	case req.Type == models.RequestEndChat:
		m.EndChat(connID)

	case req.Type == models.RequestSkip:
		_ = m.Skip(connID)

	case req.Type == models.RequestOnlineUsers:
		m.SendSnapshot(connID)

	case models.IsRelayType(req.Type):
		m.Relay(connID, req.Type, req.Payload)

	default:
		log.Debug().Str("conn_id", connID).Str("type", req.Type).Msg("unknown request type")
		m.SendError(connID, CodeBadRequest, "Unknown request type")
	}
}

// handleAuthenticate verifies credentials outside the hub lock, then binds the profile.
func (m *ManagerService) handleAuthenticate(ctx context.Context, connID string, payload json.RawMessage) {
	if m.Authenticator == nil {
		m.SendError(connID, CodeAuthUnavailable, "Authentication is not available")
		return
	}

	var creds models.Credentials
	if err := json.Unmarshal(payload, &creds); err != nil || creds.Token == "" {
		m.SendError(connID, CodeBadRequest, "Missing token")
		return
	}

	profile, err := m.Authenticator.AuthenticateConnection(ctx, creds)
	if err != nil {
		code := CodeAuthFailed
		var c coder
		if errors.As(err, &c) {
			code = c.Code()
		}
		log.Info().Err(err).Str("conn_id", connID).Str("code", code).Msg("authentication rejected")
		m.SendError(connID, code, err.Error())
		return
	}

	if err := m.Authenticate(connID, *profile); err != nil {
		log.Debug().Err(err).Str("conn_id", connID).Msg("authenticated connection already gone")
	}
}
