package repository

import (
	"errors"
	"sync"

	"chat-coordinator/models"
)

// MessageRepository stores messages per owner. Rooms and conversations each
// get their own instance, so an owner id from one can never resolve in the
// other. Retention is unbounded; reads serve a trailing window.
type MessageRepository interface {
	Save(owner string, msg *models.Message) (models.MessageView, error)
	ListByOwner(owner string, limit int) []models.MessageView
	ToggleReaction(owner, messageID, emoji, userID string) (models.ReactionSnapshot, error)
	MarkRead(owner, messageID, userID string) ([]string, error)
}

type InMemoryMessageRepo struct {
	mu      sync.RWMutex
	byOwner map[string][]*models.Message
	byID    map[string]*models.Message // owner + id
}

func NewInMemoryMessageRepo() *InMemoryMessageRepo {
	return &InMemoryMessageRepo{
		byOwner: make(map[string][]*models.Message),
		byID:    make(map[string]*models.Message),
	}
}

func messageKey(owner, id string) string {
	return owner + "/" + id
}

func (r *InMemoryMessageRepo) Save(owner string, msg *models.Message) (models.MessageView, error) {
	if msg == nil {
		return models.MessageView{}, errors.New("nil message")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := messageKey(owner, msg.ID)
	if _, dup := r.byID[key]; dup {
		return models.MessageView{}, errors.New("duplicate message id")
	}
	r.byOwner[owner] = append(r.byOwner[owner], msg)
	r.byID[key] = msg
	return msg.View(), nil
}

// ListByOwner returns the last limit messages in insertion order; limit <= 0 means all.
func (r *InMemoryMessageRepo) ListByOwner(owner string, limit int) []models.MessageView {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msgs := r.byOwner[owner]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]models.MessageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.View())
	}
	return out
}

func (r *InMemoryMessageRepo) ToggleReaction(owner, messageID, emoji, userID string) (models.ReactionSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byID[messageKey(owner, messageID)]
	if !ok {
		return nil, ErrNotFound
	}
	return m.ToggleReaction(emoji, userID), nil
}

func (r *InMemoryMessageRepo) MarkRead(owner, messageID, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byID[messageKey(owner, messageID)]
	if !ok {
		return nil, ErrNotFound
	}
	m.ReadBy.Add(userID)
	return m.ReadBy.Items(), nil
}
