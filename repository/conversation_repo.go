package repository

import (
	"sync"
	"time"

	"chat-coordinator/models"
)

type ConversationRepository interface {
	GetOrCreate(a, b string) (models.Conversation, bool)
}

type InMemoryConversationRepo struct {
	mu   sync.RWMutex
	data map[string]*models.Conversation
	now  func() time.Time
}

func NewInMemoryConversationRepo() *InMemoryConversationRepo {
	return &InMemoryConversationRepo{
		data: make(map[string]*models.Conversation),
		now:  time.Now,
	}
}

func (r *InMemoryConversationRepo) GetOrCreate(a, b string) (models.Conversation, bool) {
	key := models.ConversationKey(a, b)

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.data[key]; ok {
		return *c, false
	}
	if b < a {
		a, b = b, a
	}
	c := &models.Conversation{
		ID:           key,
		Participants: [2]string{a, b},
		CreatedAt:    r.now(),
	}
	r.data[key] = c
	return *c, true
}
