package models

import (
	"time"

	"github.com/lib/pq"
)

type SuspensionType string

const (
	SuspensionPermanent SuspensionType = "permanent"
	SuspensionTemporary SuspensionType = "temporary"
)

// Suspension blocks a user from authenticating a chat connection.
// A permanent suspension has an invalid ExpiresAt.
type Suspension struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UserID         string         `gorm:"index;not null" json:"userId"`
	Username       string         `json:"username"`
	Reason         string         `gorm:"type:text" json:"reason"`
	SuspensionType SuspensionType `json:"suspensionType"`
	ExpiresAt      pq.NullTime    `json:"-"`
	CreatedBy      string         `json:"createdBy"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// IsActive reports whether the suspension still applies at now.
func (s *Suspension) IsActive(now time.Time) bool {
	if s == nil {
		return false
	}
	if s.SuspensionType == SuspensionPermanent || !s.ExpiresAt.Valid {
		return true
	}
	return now.Before(s.ExpiresAt.Time)
}

// Expiry returns the expiry time, or nil for permanent suspensions.
func (s *Suspension) Expiry() *time.Time {
	if s == nil || !s.ExpiresAt.Valid {
		return nil
	}
	t := s.ExpiresAt.Time
	return &t
}
