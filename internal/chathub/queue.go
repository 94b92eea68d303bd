package chathub

import (
	"time"

	"wantok/backend/internal/models"
)

type queueEntry struct {
	ConnID     string
	UserID     string
	Filters    models.Filters
	EnqueuedAt time.Time
}

// WaitingQueue holds searching connections in arrival order. Entries are never reordered;
// matching scans from the oldest entry, which makes a search O(queue length).
// It is not safe for concurrent use; the ManagerService serializes access.
type WaitingQueue struct {
	entries []queueEntry
}

func NewWaitingQueue() *WaitingQueue {
	return &WaitingQueue{}
}

// Push appends e at the tail, first dropping any entry for the same connection or user.
func (q *WaitingQueue) Push(e queueEntry) {
	kept := q.entries[:0]
	for _, existing := range q.entries {
		if existing.ConnID == e.ConnID || existing.UserID == e.UserID {
			continue
		}
		kept = append(kept, existing)
	}
	q.entries = append(kept, e)
}

// Remove drops the entry for connID and reports whether it was queued.
func (q *WaitingQueue) Remove(connID string) bool {
	for i, e := range q.entries {
		if e.ConnID == connID {
			q.removeAt(i)
			return true
		}
	}
	return false
}

func (q *WaitingQueue) Contains(connID string) bool {
	for _, e := range q.entries {
		if e.ConnID == connID {
			return true
		}
	}
	return false
}

// FindFirst returns the index of the oldest entry accepted by match, or -1.
func (q *WaitingQueue) FindFirst(match func(queueEntry) bool) int {
	for i, e := range q.entries {
		if match(e) {
			return i
		}
	}
	return -1
}

func (q *WaitingQueue) removeAt(i int) queueEntry {
	e := q.entries[i]
	q.entries = append(q.entries[:i], q.entries[i+1:]...)
	return e
}

func (q *WaitingQueue) Len() int { return len(q.entries) }

// ConnIDs returns the queued connection IDs, oldest first.
func (q *WaitingQueue) ConnIDs() []string {
	out := make([]string, len(q.entries))
	for i, e := range q.entries {
		out[i] = e.ConnID
	}
	return out
}
