package repository

import (
	"sort"
	"sync"
	"time"

	"chat-coordinator/models"
)

type UserRepository interface {
	// Bind creates the identity if needed, attaches connID and marks it online.
	// It returns the updated record and the connection it replaced, if any.
	Bind(id, username, connID string, at time.Time) (models.User, string)
	// Unbind marks the identity offline, but only while connID is still its
	// bound connection.
	Unbind(id, connID string, at time.Time) (models.User, bool)
	FindByID(id string) (models.User, error)
	ListOnline() []models.User
}

type InMemoryUserRepo struct {
	mu   sync.RWMutex
	byID map[string]*models.User
}

func NewInMemoryUserRepo() *InMemoryUserRepo {
	return &InMemoryUserRepo{
		byID: make(map[string]*models.User),
	}
}

func (r *InMemoryUserRepo) Bind(id, username, connID string, at time.Time) (models.User, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		u = &models.User{ID: id}
		r.byID[id] = u
	}
	prev := u.ConnID
	if prev == connID {
		prev = ""
	}
	u.Username = username
	u.ConnID = connID
	u.Online = true
	u.LastSeen = at
	return *u, prev
}

func (r *InMemoryUserRepo) Unbind(id, connID string, at time.Time) (models.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok || u.ConnID != connID {
		return models.User{}, false
	}
	u.ConnID = ""
	u.Online = false
	u.LastSeen = at
	return *u, true
}

func (r *InMemoryUserRepo) FindByID(id string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return *u, nil
}

// ListOnline is ordered by username, then id.
func (r *InMemoryUserRepo) ListOnline() []models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]models.User, 0, len(r.byID))
	for _, u := range r.byID {
		if u.Online {
			users = append(users, *u)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Username != users[j].Username {
			return users[i].Username < users[j].Username
		}
		return users[i].ID < users[j].ID
	})
	return users
}
