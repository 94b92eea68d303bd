package chathub

import "wantok/backend/internal/models"

// broadcastLocked sends the current presence snapshot to every attached connection.
func (m *ManagerService) broadcastLocked() {
	ev := models.ServerEvent{
		Type:    models.EventOnlineUsersUpdate,
		Payload: models.OnlineUsersPayload{Connections: m.registry.Snapshot()},
	}
	for _, c := range m.conns {
		m.sendLocked(c, ev)
	}
	m.updateGaugesLocked()
}

// SendSnapshot sends the presence snapshot to connID only.
func (m *ManagerService) SendSnapshot(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.conns[connID]
	if !ok {
		return
	}
	m.sendLocked(c, models.ServerEvent{
		Type:    models.EventOnlineUsersUpdate,
		Payload: models.OnlineUsersPayload{Connections: m.registry.Snapshot()},
	})
}

// OnlineCount is the number of authenticated users with a live connection.
func (m *ManagerService) OnlineCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.Len()
}

// Snapshot returns the presence list in insertion order.
func (m *ManagerService) Snapshot() []models.ConnectionSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registry.Snapshot()
}
