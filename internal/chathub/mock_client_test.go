package chathub_test

import (
	"sync"
	"sync/atomic"

	"wantok/backend/internal/chathub"
	"wantok/backend/internal/models"
)

// MockClient buffers everything the hub sends so tests can inspect it.
type MockClient struct {
	connID string
	send   chan models.ServerEvent
	closed atomic.Int32

	mu       sync.Mutex
	received []models.ServerEvent
}

func newMockClient(connID string) *MockClient {
	return &MockClient{connID: connID, send: make(chan models.ServerEvent, 1024)}
}

func newMockClientWithBuffer(connID string, size int) *MockClient {
	return &MockClient{connID: connID, send: make(chan models.ServerEvent, size)}
}

func (c *MockClient) GetConnID() string                         { return c.connID }
func (c *MockClient) GetSendChannel() chan<- models.ServerEvent { return c.send }
func (c *MockClient) Run()                                      {}
func (c *MockClient) Close()                                    { c.closed.Add(1) }

func (c *MockClient) drain() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		select {
		case ev := <-c.send:
			c.received = append(c.received, ev)
		default:
			return
		}
	}
}

// events returns every event received so far, excluding presence updates.
func (c *MockClient) events() []models.ServerEvent {
	c.drain()
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.ServerEvent
	for _, ev := range c.received {
		if ev.Type != models.EventOnlineUsersUpdate {
			out = append(out, ev)
		}
	}
	return out
}

func (c *MockClient) count(eventType string) int {
	c.drain()
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, ev := range c.received {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}

// last returns the most recent event of eventType.
func (c *MockClient) last(eventType string) (models.ServerEvent, bool) {
	c.drain()
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.received) - 1; i >= 0; i-- {
		if c.received[i].Type == eventType {
			return c.received[i], true
		}
	}
	return models.ServerEvent{}, false
}

func (c *MockClient) reset() {
	c.drain()
	c.mu.Lock()
	c.received = nil
	c.mu.Unlock()
}

func (c *MockClient) closeCount() int { return int(c.closed.Load()) }

// connect attaches a client and authenticates it with profile.
func connect(hub *chathub.ManagerService, connID string, profile models.Profile) *MockClient {
	c := newMockClient(connID)
	hub.Attach(c)
	if err := hub.Authenticate(connID, profile); err != nil {
		panic(err)
	}
	return c
}

func profile(userID, gender, country string) models.Profile {
	return models.Profile{UserID: userID, FullName: userID, Username: userID, Gender: gender, Country: country, Age: 25}
}

var anyFilters = models.Filters{GenderFilter: models.FilterAny, CountryFilter: models.FilterAny}
