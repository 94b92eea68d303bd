package handler

import (
	"encoding/json"

	"wantok/backend/internal/chathub"
	"wantok/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ServeWebSocket upgrades the request and hands the connection to the hub.
// A token query parameter authenticates the connection right away; otherwise the
// client sends an authenticate request.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("client_ip", c.ClientIP()).Msg("websocket upgrade failed")
		return
	}

	client := chathub.NewWebSocketClient(h.Hub, conn, h.opts.SendBuffer)
	h.Hub.Attach(client)

	if token := c.Query("token"); token != "" {
		payload, _ := json.Marshal(models.Credentials{Token: token})
		h.Hub.HandleRequest(c.Request.Context(), client.GetConnID(), models.ClientRequest{
			Type:    models.RequestAuthenticate,
			Payload: payload,
		})
	}

	client.Run()
}
