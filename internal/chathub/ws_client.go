package chathub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"wantok/backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// SDP offers routinely exceed a few kilobytes.
	maxMessageSize = 64 * 1024
)

// WebSocketClient implements Client over a gorilla websocket.
type WebSocketClient struct {
	ConnID string
	Conn   *websocket.Conn
	Hub    *ManagerService
	Send   chan models.ServerEvent

	quit      chan struct{}
	closeOnce sync.Once
}

func NewWebSocketClient(hub *ManagerService, conn *websocket.Conn, bufferSize int) *WebSocketClient {
	return &WebSocketClient{
		ConnID: uuid.NewString(),
		Conn:   conn,
		Hub:    hub,
		Send:   make(chan models.ServerEvent, bufferSize),
		quit:   make(chan struct{}),
	}
}

func (c *WebSocketClient) GetConnID() string {
	return c.ConnID
}

func (c *WebSocketClient) GetSendChannel() chan<- models.ServerEvent {
	return c.Send
}

// Run starts the pumps. The hub must already know the client through Attach.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close makes the write pump flush what is buffered and close the socket.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() { close(c.quit) })
}

func (c *WebSocketClient) readPump() {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		c.Hub.Disconnect(c.ConnID)
		c.Close()
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("conn_id", c.ConnID).Msg("websocket read failed")
			}
			return
		}

		var req models.ClientRequest
		if err := json.Unmarshal(message, &req); err != nil {
			log.Debug().Err(err).Str("conn_id", c.ConnID).Msg("malformed client message")
			c.Hub.SendError(c.ConnID, CodeBadRequest, "Malformed message")
			continue
		}

		c.Hub.HandleRequest(ctx, c.ConnID, req)
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case ev := <-c.Send:
			if err := c.write(ev); err != nil {
				return
			}

		case <-c.quit:
			for {
				select {
				case ev := <-c.Send:
					if err := c.write(ev); err != nil {
						return
					}
				default:
					c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
					c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// write sends one event per text frame.
func (c *WebSocketClient) write(ev models.ServerEvent) error {
	c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.Conn.WriteJSON(ev); err != nil {
		log.Debug().Err(err).Str("conn_id", c.ConnID).Str("event", ev.Type).Msg("websocket write failed")
		return err
	}
	return nil
}
