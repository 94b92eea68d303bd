package chathub

import (
	"time"

	"wantok/backend/internal/models"
)

// Connection is the hub's record of one live socket. Connections live in the hub's arena
// and refer to their partner by ID only.
type Connection struct {
	ID        string
	Profile   *models.Profile
	Filters   models.Filters
	Status    models.Status
	Partner   string
	SessionID string
	PairedAt  time.Time

	client Client
}

func (c *Connection) authenticated() bool { return c.Profile != nil }

func (c *Connection) userID() string {
	if c.Profile == nil {
		return ""
	}
	return c.Profile.UserID
}

// ConnectionState is a copy of a connection's matchmaking state.
type ConnectionState struct {
	UserID    string
	Status    models.Status
	Partner   string
	SessionID string
	Filters   models.Filters
	InQueue   bool
}
