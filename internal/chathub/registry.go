package chathub

import "wantok/backend/internal/models"

// RegistryEntry is one authenticated user and the connection currently serving them.
type RegistryEntry struct {
	UserID  string
	ConnID  string
	Profile models.Profile
	Status  models.Status
}

// Registry tracks authenticated users in insertion order.
// It is not safe for concurrent use; the ManagerService serializes access.
type Registry struct {
	entries map[string]*RegistryEntry
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*RegistryEntry)}
}

// Register records connID as the live connection of profile.UserID with status online.
// On reconnect the entry keeps its position and previousConnID is the replaced connection.
func (r *Registry) Register(connID string, profile models.Profile) (previousConnID string) {
	if e, ok := r.entries[profile.UserID]; ok {
		previousConnID = e.ConnID
		e.ConnID = connID
		e.Profile = profile
		e.Status = models.StatusOnline
		return previousConnID
	}

	r.entries[profile.UserID] = &RegistryEntry{
		UserID:  profile.UserID,
		ConnID:  connID,
		Profile: profile,
		Status:  models.StatusOnline,
	}
	r.order = append(r.order, profile.UserID)
	return ""
}

// Remove deletes the entry currently served by connID. It reports whether anything was removed.
func (r *Registry) Remove(connID string) bool {
	for i, userID := range r.order {
		if r.entries[userID].ConnID != connID {
			continue
		}
		delete(r.entries, userID)
		r.order = append(r.order[:i], r.order[i+1:]...)
		return true
	}
	return false
}

func (r *Registry) SetStatus(userID string, status models.Status) {
	if e, ok := r.entries[userID]; ok {
		e.Status = status
	}
}

func (r *Registry) Lookup(userID string) (RegistryEntry, bool) {
	e, ok := r.entries[userID]
	if !ok {
		return RegistryEntry{}, false
	}
	return *e, true
}

func (r *Registry) Len() int { return len(r.order) }

// Snapshot returns the presence list in insertion order.
func (r *Registry) Snapshot() []models.ConnectionSummary {
	out := make([]models.ConnectionSummary, 0, len(r.order))
	for _, userID := range r.order {
		e := r.entries[userID]
		out = append(out, models.ConnectionSummary{
			ID:       e.UserID,
			SocketID: e.ConnID,
			FullName: e.Profile.FullName,
			Username: e.Profile.Username,
			Gender:   e.Profile.Gender,
			Country:  e.Profile.Country,
			Status:   e.Status,
		})
	}
	return out
}
