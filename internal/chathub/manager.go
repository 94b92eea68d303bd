package chathub

import (
	"context"
	"sync"
	"time"

	"wantok/backend/internal/models"
	"wantok/backend/internal/observability"

	"github.com/rs/zerolog/log"
)

const sessionEventBuffer = 256

// Authenticator resolves the credentials presented on a connection to a profile.
// Errors carrying a Code() are reported to the client with that code.
type Authenticator interface {
	AuthenticateConnection(ctx context.Context, creds models.Credentials) (*models.Profile, error)
}

// SessionRecorder persists session lifecycle. It is called from Run, never under the hub lock.
type SessionRecorder interface {
	SessionStarted(ctx context.Context, session models.ChatSession) error
	SessionEnded(ctx context.Context, sessionID, reason string, endedAt time.Time) error
}

type sessionEvent struct {
	started   bool
	session   models.ChatSession
	sessionID string
	reason    string
	at        time.Time
}

// ManagerService owns every live connection, the presence registry and the waiting queue.
// Each public operation takes the single mutex for its whole duration, so the effects of
// one operation are never observed half-applied by another.
type ManagerService struct {
	mu       sync.Mutex
	conns    map[string]*Connection
	registry *Registry
	queue    *WaitingQueue

	Authenticator Authenticator
	Metrics       *observability.Metrics

	recorder  SessionRecorder
	sessionCh chan sessionEvent
	now       func() time.Time
}

func NewManagerService(auth Authenticator, recorder SessionRecorder, metrics *observability.Metrics) *ManagerService {
	return &ManagerService{
		conns:         make(map[string]*Connection),
		registry:      NewRegistry(),
		queue:         NewWaitingQueue(),
		Authenticator: auth,
		Metrics:       metrics,
		recorder:      recorder,
		sessionCh:     make(chan sessionEvent, sessionEventBuffer),
		now:           time.Now,
	}
}

// Run forwards session lifecycle to the recorder until ctx is done.
func (m *ManagerService) Run(ctx context.Context) {
	log.Info().Msg("chat hub started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("chat hub stopped")
			return
		case ev := <-m.sessionCh:
			m.record(ctx, ev)
		}
	}
}

func (m *ManagerService) record(ctx context.Context, ev sessionEvent) {
	var err error
	if ev.started {
		err = m.recorder.SessionStarted(ctx, ev.session)
	} else {
		err = m.recorder.SessionEnded(ctx, ev.sessionID, ev.reason, ev.at)
	}
	if err != nil {
		log.Error().Err(err).Bool("started", ev.started).Msg("failed to record session")
	}
}

func (m *ManagerService) recordLocked(ev sessionEvent) {
	if m.recorder == nil {
		return
	}
	select {
	case m.sessionCh <- ev:
	default:
		id := ev.sessionID
		if ev.started {
			id = ev.session.SessionID
		}
		log.Warn().Str("session_id", id).Msg("session recorder backlog full, dropping event")
	}
}

// Attach tracks a freshly opened connection. It stays out of presence until it authenticates.
func (m *ManagerService) Attach(client Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := client.GetConnID()
	m.conns[id] = &Connection{ID: id, Status: models.StatusOnline, client: client}
	m.updateGaugesLocked()

	log.Debug().Str("conn_id", id).Msg("connection attached")
}

// Authenticate binds profile to connID and publishes the user as online.
// A live connection already serving the same user is superseded and closed.
func (m *ManagerService) Authenticate(connID string, profile models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.conns[connID]
	if !ok {
		return ErrConnectionClosed
	}

	if c.authenticated() {
		m.endSessionLocked(c, ReasonReplaced, false)
		if c.Profile.UserID != profile.UserID {
			m.registry.Remove(c.ID)
		}
	}

	if prev, ok := m.registry.Lookup(profile.UserID); ok && prev.ConnID != c.ID {
		if old, ok := m.conns[prev.ConnID]; ok {
			m.sendLocked(old, errorEvent(CodeSessionReplaced, "Signed in from another connection"))
			m.endSessionLocked(old, ReasonReplaced, true)
			delete(m.conns, old.ID)
			go old.client.Close()

			log.Info().Str("user_id", profile.UserID).Str("old_conn_id", old.ID).Str("conn_id", c.ID).Msg("connection superseded")
		}
	}

	p := profile
	c.Profile = &p
	c.Filters = models.Filters{}.Normalize()
	c.Status = models.StatusOnline
	m.registry.Register(c.ID, p)

	m.sendLocked(c, models.ServerEvent{Type: models.EventAuthenticated, Payload: p})
	m.broadcastLocked()

	log.Info().Str("conn_id", c.ID).Str("user_id", p.UserID).Msg("connection authenticated")
	return nil
}

// FindPartner pairs connID with the oldest compatible waiting connection or queues it.
func (m *ManagerService) FindPartner(connID string, filters models.Filters) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.conns[connID]
	if !ok {
		return ErrConnectionClosed
	}
	if !c.authenticated() {
		m.sendLocked(c, errorEvent(CodeNotAuthenticated, "Please log in to use chat"))
		return ErrNotAuthenticated
	}

	m.findPartnerLocked(c, filters)
	m.broadcastLocked()
	return nil
}

// EndChat ends the caller's session, or stops its search. The caller returns to online.
func (m *ManagerService) EndChat(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.conns[connID]
	if !ok || !c.authenticated() {
		return
	}

	m.endSessionLocked(c, ReasonEndChat, false)
	m.broadcastLocked()
}

// Skip ends the current session and immediately searches again with the last filters.
func (m *ManagerService) Skip(connID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.conns[connID]
	if !ok {
		return ErrConnectionClosed
	}
	if !c.authenticated() {
		m.sendLocked(c, errorEvent(CodeNotAuthenticated, "Please log in to use chat"))
		return ErrNotAuthenticated
	}

	filters := c.Filters
	m.endSessionLocked(c, ReasonSkip, false)
	m.findPartnerLocked(c, filters)
	m.broadcastLocked()
	return nil
}

// Disconnect removes connID from every structure. Calling it again is a no-op.
func (m *ManagerService) Disconnect(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.conns[connID]
	if !ok {
		return
	}
	m.removeLocked(c, ReasonDisconnect)

	log.Debug().Str("conn_id", connID).Str("user_id", c.userID()).Msg("connection detached")
}

// Kick disconnects the live connection of userID after telling it why.
// It reports whether this instance was serving the user.
func (m *ManagerService) Kick(cmd models.KickCommand) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.registry.Lookup(cmd.UserID)
	if !ok {
		return false
	}
	c, ok := m.conns[entry.ConnID]
	if !ok {
		return false
	}

	m.sendLocked(c, models.ServerEvent{
		Type: models.EventAccountSuspended,
		Payload: models.SuspendedPayload{
			Reason:         cmd.Reason,
			SuspensionType: cmd.SuspensionType,
			ExpiresAt:      cmd.ExpiresAt,
		},
	})
	m.removeLocked(c, ReasonSuspended)
	go c.client.Close()

	log.Warn().Str("user_id", cmd.UserID).Str("reason", cmd.Reason).Msg("connection kicked")
	return true
}

// CloseAll closes every tracked client. Their pumps report back through Disconnect.
func (m *ManagerService) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.conns {
		go c.client.Close()
	}
}

// SendError pushes an error event to connID, if it is still tracked.
func (m *ManagerService) SendError(connID, code, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.conns[connID]; ok {
		m.sendLocked(c, errorEvent(code, message))
	}
}

// State returns a copy of connID's matchmaking state.
func (m *ManagerService) State(connID string) (ConnectionState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.conns[connID]
	if !ok {
		return ConnectionState{}, false
	}
	return ConnectionState{
		UserID:    c.userID(),
		Status:    c.Status,
		Partner:   c.Partner,
		SessionID: c.SessionID,
		Filters:   c.Filters,
		InQueue:   m.queue.Contains(c.ID),
	}, true
}

// QueuedConnIDs returns the waiting queue, oldest first.
func (m *ManagerService) QueuedConnIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.ConnIDs()
}

func (m *ManagerService) removeLocked(c *Connection, reason string) {
	m.endSessionLocked(c, reason, true)
	delete(m.conns, c.ID)
	if c.authenticated() && m.registry.Remove(c.ID) {
		m.broadcastLocked()
		return
	}
	m.updateGaugesLocked()
}

func (m *ManagerService) setStatusLocked(c *Connection, status models.Status) {
	c.Status = status
	if c.authenticated() {
		if e, ok := m.registry.Lookup(c.Profile.UserID); ok && e.ConnID == c.ID {
			m.registry.SetStatus(c.Profile.UserID, status)
		}
	}
}

// sendLocked never blocks: a client whose buffer is full is closed and will be cleaned
// up by its own Disconnect.
func (m *ManagerService) sendLocked(c *Connection, ev models.ServerEvent) {
	select {
	case c.client.GetSendChannel() <- ev:
	default:
		m.Metrics.EventDropped()
		log.Warn().Str("conn_id", c.ID).Str("event", ev.Type).Msg("send buffer full, closing client")
		go c.client.Close()
	}
}

func (m *ManagerService) updateGaugesLocked() {
	m.Metrics.SetConnections(len(m.conns))
	m.Metrics.SetOnlineUsers(m.registry.Len())
	m.Metrics.SetWaiting(m.queue.Len())
}

func errorEvent(code, message string) models.ServerEvent {
	return models.ServerEvent{
		Type:    models.EventError,
		Payload: models.ErrorPayload{Code: code, Message: message},
	}
}
