package repository

import (
	"sync"
	"time"

	"chat-coordinator/models"
)

type ChatRepository interface {
	// GetOrCreate returns the room, creating it with the given name if missing.
	GetOrCreate(id, name string) (models.ChatRoom, bool)
	FindByID(id string) (models.ChatRoom, error)
	List() []models.ChatRoom
}

type InMemoryChatRepo struct {
	mu    sync.RWMutex
	data  map[string]*models.ChatRoom
	order []string
	now   func() time.Time
}

func NewInMemoryChatRepo() *InMemoryChatRepo {
	return &InMemoryChatRepo{
		data: make(map[string]*models.ChatRoom),
		now:  time.Now,
	}
}

func (r *InMemoryChatRepo) GetOrCreate(id, name string) (models.ChatRoom, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if room, ok := r.data[id]; ok {
		return *room, false
	}
	room := &models.ChatRoom{
		ID:        id,
		Name:      name,
		CreatedAt: r.now(),
	}
	r.data[id] = room
	r.order = append(r.order, id)
	return *room, true
}

func (r *InMemoryChatRepo) FindByID(id string) (models.ChatRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.data[id]
	if !ok {
		return models.ChatRoom{}, ErrNotFound
	}
	return *room, nil
}

// List returns rooms in creation order.
func (r *InMemoryChatRepo) List() []models.ChatRoom {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]models.ChatRoom, 0, len(r.order))
	for _, id := range r.order {
		rooms = append(rooms, *r.data[id])
	}
	return rooms
}
