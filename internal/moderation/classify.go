package moderation

import (
	"strings"
	"time"

	"wantok/backend/internal/config"
	"wantok/backend/internal/models"
)

// ClassifyViolation maps a violation reason to its penalty. Permanent suspensions have a
// zero duration.
func ClassifyViolation(reason string) (models.SuspensionType, time.Duration) {
	r := strings.ToLower(reason)

	for _, kw := range config.PermanentViolationKeywords {
		if strings.Contains(r, kw) {
			return models.SuspensionPermanent, 0
		}
	}
	for _, kw := range config.WeekViolationKeywords {
		if strings.Contains(r, kw) {
			return models.SuspensionTemporary, config.WeaponDrugSuspension
		}
	}
	return models.SuspensionTemporary, config.DefaultSuspension
}
