package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"wantok/backend/internal/models"
	"wantok/backend/internal/moderation"
	"wantok/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type logReportRequest struct {
	ReportedUserID   string `json:"reportedUserId"`
	ReportedUsername string `json:"reportedUsername"`
	Reason           string `json:"reason"`
}

type violationRequest struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Reason   string `json:"reason"`
	Source   string `json:"source"`
}

type userIDRequest struct {
	UserID string `json:"userId"`
}

type resolveRequest struct {
	Status     models.ReportStatus `json:"status"`
	ResolvedBy string              `json:"resolvedBy"`
}

// suspensionView is the API shape of a suspension.
type suspensionView struct {
	ID             uint                  `json:"id"`
	UserID         string                `json:"userId"`
	Username       string                `json:"username"`
	Reason         string                `json:"reason"`
	SuspensionType models.SuspensionType `json:"suspensionType"`
	SuspendedAt    time.Time             `json:"suspendedAt"`
	ExpiresAt      *time.Time            `json:"expiresAt"`
	CreatedBy      string                `json:"createdBy"`
}

func viewOf(s models.Suspension) suspensionView {
	return suspensionView{
		ID:             s.ID,
		UserID:         s.UserID,
		Username:       s.Username,
		Reason:         s.Reason,
		SuspensionType: s.SuspensionType,
		SuspendedAt:    s.CreatedAt,
		ExpiresAt:      s.Expiry(),
		CreatedBy:      s.CreatedBy,
	}
}

func (h *Handler) LogReport(c *gin.Context) {
	var req logReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	report := &models.Report{
		ReporterID:       c.GetString(ctxUserID),
		ReportedUserID:   req.ReportedUserID,
		ReportedUsername: req.ReportedUsername,
		Reason:           req.Reason,
	}
	if err := h.Moderation.LogReport(c.Request.Context(), report); err != nil {
		if errors.Is(err, moderation.ErrInvalidReport) {
			fail(c, http.StatusBadRequest, "Reported user and reason are required")
			return
		}
		log.Error().Err(err).Msg("log report")
		fail(c, http.StatusInternalServerError, "Failed to log report")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reportId": report.ID})
}

// ModerationViolation suspends a user after an automated or confirmed finding.
// A user may only report a violation against their own account; admins may target
// anyone and name the source recorded on the suspension.
func (h *Handler) ModerationViolation(c *gin.Context) {
	var req violationRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" || req.Reason == "" {
		fail(c, http.StatusBadRequest, "User and reason are required")
		return
	}

	admin := c.GetBool(ctxAdmin)
	if !admin && req.UserID != c.GetString(ctxUserID) {
		fail(c, http.StatusForbidden, "You can only report violations on your own account")
		return
	}

	createdBy := "system"
	if admin && req.Source != "" {
		createdBy = req.Source
	}
	username := req.Username
	if username == "" {
		username = req.UserID
	}

	suspension, err := h.Moderation.HandleViolation(c.Request.Context(), moderation.Violation{
		UserID:    req.UserID,
		Username:  username,
		Reason:    req.Reason,
		CreatedBy: createdBy,
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", req.UserID).Msg("handle violation")
		fail(c, http.StatusInternalServerError, "Failed to process violation")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"suspended":      true,
		"suspensionType": suspension.SuspensionType,
		"expiresAt":      suspension.Expiry(),
	})
}

func (h *Handler) CheckSuspension(c *gin.Context) {
	var req userIDRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		fail(c, http.StatusBadRequest, "userId is required")
		return
	}

	s, err := h.Moderation.CheckSuspension(c.Request.Context(), req.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", req.UserID).Msg("check suspension")
		fail(c, http.StatusInternalServerError, "Failed to check suspension")
		return
	}
	if s == nil {
		c.JSON(http.StatusOK, gin.H{"suspended": false})
		return
	}

	v := viewOf(*s)
	c.JSON(http.StatusOK, gin.H{
		"suspended":      true,
		"suspensionType": v.SuspensionType,
		"reason":         v.Reason,
		"suspendedAt":    v.SuspendedAt,
		"expiresAt":      v.ExpiresAt,
	})
}

func (h *Handler) AdminReports(c *gin.Context) {
	status := models.ReportStatus(c.DefaultQuery("status", string(models.ReportPending)))
	if status == "all" {
		status = ""
	}

	reports, err := h.Moderation.Reports(c.Request.Context(), status)
	if err != nil {
		log.Error().Err(err).Msg("list reports")
		fail(c, http.StatusInternalServerError, "Failed to get reports")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reports": reports})
}

func (h *Handler) AdminResolveReport(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid report id")
		return
	}
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ResolvedBy == "" {
		req.ResolvedBy = "admin"
	}

	err = h.Moderation.ResolveReport(c.Request.Context(), uint(id), req.Status, req.ResolvedBy)
	switch {
	case errors.Is(err, moderation.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, "Status must be resolved or dismissed")
	case errors.Is(err, storage.ErrNotFound):
		fail(c, http.StatusNotFound, "Report not found")
	case err != nil:
		log.Error().Err(err).Uint64("report_id", id).Msg("resolve report")
		fail(c, http.StatusInternalServerError, "Failed to resolve report")
	default:
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func (h *Handler) AdminSuspensions(c *gin.Context) {
	suspensions, err := h.Moderation.ListSuspensions(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("list suspensions")
		fail(c, http.StatusInternalServerError, "Failed to get suspensions")
		return
	}

	kind := models.SuspensionType(c.Query("type"))
	views := make([]suspensionView, 0, len(suspensions))
	for _, s := range suspensions {
		if kind != "" && s.SuspensionType != kind {
			continue
		}
		views = append(views, viewOf(s))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "suspensions": views})
}

func (h *Handler) AdminUnban(c *gin.Context) {
	var req userIDRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		fail(c, http.StatusBadRequest, "userId is required")
		return
	}

	if _, err := h.Moderation.Unban(c.Request.Context(), req.UserID); err != nil {
		log.Error().Err(err).Str("user_id", req.UserID).Msg("unban")
		fail(c, http.StatusInternalServerError, "Failed to unban user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User unbanned successfully"})
}
