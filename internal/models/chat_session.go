package models

import "time"

// ChatSession records one pairing between two users.
// The live pairing is held in memory by the hub; this row is written after the fact.
type ChatSession struct {
	// SessionID is the identifier assigned by the hub when the pair was formed.
	SessionID string `gorm:"primaryKey"`
	// User1ID is the user who was already waiting (the initiator).
	User1ID string `gorm:"index"`
	// User2ID is the user whose search completed the pair.
	User2ID string `gorm:"index"`
	// IsActive is true until either side ends the session or disconnects.
	IsActive  bool `gorm:"index"`
	StartedAt time.Time
	EndedAt   *time.Time
	// EndReason is one of "end_chat", "skip", "disconnect", "replaced", "suspended", "server_restart".
	EndReason string
}
