package repository

import (
	"sort"
	"sync"

	"chat-coordinator/models"
)

type MembershipRepository interface {
	AddMember(roomID, userID string) bool
	// MoveMember removes userID from every room except keep and target, then
	// adds it to target. It returns the rooms left, sorted.
	MoveMember(userID, target, keep string) []string
	// RemoveFromAll returns the rooms userID was removed from, sorted.
	RemoveFromAll(userID string) []string
	GetRoomMembers(roomID string) []string
	Snapshot() map[string][]string
}

// InMemoryMembershipRepo keeps one insertion-ordered member set per room.
type InMemoryMembershipRepo struct {
	mu     sync.RWMutex
	byRoom map[string]*models.OrderedSet
}

func NewInMemoryMembershipRepo() *InMemoryMembershipRepo {
	return &InMemoryMembershipRepo{
		byRoom: make(map[string]*models.OrderedSet),
	}
}

func (r *InMemoryMembershipRepo) AddMember(roomID, userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.add(roomID, userID)
}

func (r *InMemoryMembershipRepo) add(roomID, userID string) bool {
	set, ok := r.byRoom[roomID]
	if !ok {
		set = models.NewOrderedSet()
		r.byRoom[roomID] = set
	}
	return set.Add(userID)
}

func (r *InMemoryMembershipRepo) MoveMember(userID, target, keep string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var left []string
	for roomID, set := range r.byRoom {
		if roomID == keep || roomID == target {
			continue
		}
		if set.Remove(userID) {
			left = append(left, roomID)
		}
	}
	r.add(target, userID)
	sort.Strings(left)
	return left
}

func (r *InMemoryMembershipRepo) RemoveFromAll(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var left []string
	for roomID, set := range r.byRoom {
		if set.Remove(userID) {
			left = append(left, roomID)
		}
	}
	sort.Strings(left)
	return left
}

func (r *InMemoryMembershipRepo) GetRoomMembers(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.byRoom[roomID]
	if !ok {
		return nil
	}
	return set.Items()
}

func (r *InMemoryMembershipRepo) Snapshot() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]string, len(r.byRoom))
	for roomID, set := range r.byRoom {
		out[roomID] = set.Items()
	}
	return out
}
