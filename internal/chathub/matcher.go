package chathub

import (
	"wantok/backend/internal/models"

	"github.com/rs/zerolog/log"
)

// Seeker is a profile together with the filters it is searching with.
type Seeker struct {
	Profile models.Profile
	Filters models.Filters
}

// Compatible reports whether a and b may be paired: each side's filters must accept
// the other's profile. The relation is symmetric.
func Compatible(a, b Seeker) bool {
	return a.Filters.Normalize().Accepts(b.Profile) && b.Filters.Normalize().Accepts(a.Profile)
}

// findPartnerLocked pairs c with the oldest compatible waiting connection, or queues c.
// Caller must hold m.mu and c must be authenticated.
func (m *ManagerService) findPartnerLocked(c *Connection, filters models.Filters) {
	filters = filters.Normalize()

	if c.Status == models.StatusChatting {
		m.endSessionLocked(c, ReasonSkip, false)
	}
	m.queue.Remove(c.ID)
	c.Filters = filters

	me := Seeker{Profile: *c.Profile, Filters: filters}
	idx := m.queue.FindFirst(func(e queueEntry) bool {
		if e.UserID == c.Profile.UserID {
			return false
		}
		cand, ok := m.conns[e.ConnID]
		if !ok || !cand.authenticated() {
			return false
		}
		return Compatible(me, Seeker{Profile: *cand.Profile, Filters: e.Filters})
	})

	if idx >= 0 {
		e := m.queue.removeAt(idx)
		m.pairLocked(m.conns[e.ConnID], c)
		return
	}

	m.queue.Push(queueEntry{
		ConnID:     c.ID,
		UserID:     c.Profile.UserID,
		Filters:    filters,
		EnqueuedAt: m.now(),
	})
	m.setStatusLocked(c, models.StatusWaiting)
	m.sendLocked(c, models.ServerEvent{Type: models.EventWaiting})

	log.Debug().
		Str("conn_id", c.ID).
		Str("user_id", c.Profile.UserID).
		Str("gender_filter", filters.GenderFilter).
		Str("country_filter", filters.CountryFilter).
		Int("queue_len", m.queue.Len()).
		Msg("connection queued")
}
