package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func (h *Handler) OnlineCount(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"count": h.Hub.OnlineCount()})
}

func (h *Handler) AdminOnlineUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "connections": h.Hub.Snapshot()})
}

// AdminStats summarizes accounts, live presence and the moderation backlog.
func (h *Handler) AdminStats(c *gin.Context) {
	ctx := c.Request.Context()

	users, err := h.Users.CountUsers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("count users")
		fail(c, http.StatusInternalServerError, "Failed to get stats")
		return
	}
	pending, err := h.Moderation.PendingReports(ctx)
	if err != nil {
		log.Error().Err(err).Msg("pending reports")
		fail(c, http.StatusInternalServerError, "Failed to get stats")
		return
	}
	suspensions, err := h.Moderation.ListSuspensions(ctx)
	if err != nil {
		log.Error().Err(err).Msg("list suspensions")
		fail(c, http.StatusInternalServerError, "Failed to get stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats": gin.H{
			"totalUsers":        users,
			"onlineUsers":       h.Hub.OnlineCount(),
			"pendingReports":    len(pending),
			"activeSuspensions": len(suspensions),
		},
	})
}
