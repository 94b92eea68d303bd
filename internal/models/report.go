package models

import "time"

type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportResolved  ReportStatus = "resolved"
	ReportDismissed ReportStatus = "dismissed"
)

// Report is a user-submitted complaint about a chat partner.
type Report struct {
	ID               uint         `gorm:"primaryKey" json:"id"`
	ReporterID       string       `gorm:"index" json:"reporterId"`
	ReportedUserID   string       `gorm:"index;not null" json:"reportedUserId"`
	ReportedUsername string       `json:"reportedUsername"`
	Reason           string       `gorm:"type:text" json:"reason"`
	Status           ReportStatus `gorm:"index" json:"status"`
	ResolvedBy       string       `json:"resolvedBy,omitempty"`
	ResolvedAt       *time.Time   `json:"resolvedAt,omitempty"`
	CreatedAt        time.Time    `json:"createdAt"`
}
