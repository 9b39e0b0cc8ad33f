package repository

import (
	"sort"
	"sync"
	"time"

	"chat-coordinator/models"
)

// TypingRepository holds at most one live entry per (room, user). Every
// method is atomic with respect to the others.
type TypingRepository interface {
	// Insert stores e unless an entry for its key exists; it reports whether it did.
	Insert(e models.TypingEntry) bool
	Delete(roomID, userID string) (models.TypingEntry, bool)
	DeleteByUser(userID string) []models.TypingEntry
	// DeleteOlderThan removes entries last refreshed strictly before cutoff.
	DeleteOlderThan(cutoff time.Time) []models.TypingEntry
}

type InMemoryTypingRepo struct {
	mu      sync.Mutex
	entries map[string]models.TypingEntry
}

func NewInMemoryTypingRepo() *InMemoryTypingRepo {
	return &InMemoryTypingRepo{
		entries: make(map[string]models.TypingEntry),
	}
}

func (r *InMemoryTypingRepo) Insert(e models.TypingEntry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := e.Key()
	if _, ok := r.entries[key]; ok {
		return false
	}
	r.entries[key] = e
	return true
}

func (r *InMemoryTypingRepo) Delete(roomID, userID string) (models.TypingEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := models.TypingKey(roomID, userID)
	e, ok := r.entries[key]
	if ok {
		delete(r.entries, key)
	}
	return e, ok
}

func (r *InMemoryTypingRepo) DeleteByUser(userID string) []models.TypingEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.TypingEntry
	for key, e := range r.entries {
		if e.UserID == userID {
			delete(r.entries, key)
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out
}

func (r *InMemoryTypingRepo) DeleteOlderThan(cutoff time.Time) []models.TypingEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.TypingEntry
	for key, e := range r.entries {
		if e.UpdatedAt.Before(cutoff) {
			delete(r.entries, key)
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out
}

func sortEntries(entries []models.TypingEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].RoomID != entries[j].RoomID {
			return entries[i].RoomID < entries[j].RoomID
		}
		return entries[i].UserID < entries[j].UserID
	})
}
