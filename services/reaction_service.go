package services

import (
	"fmt"
	"strings"

	"chat-coordinator/models"
	"chat-coordinator/repository"
)

// ReactionService toggles emoji reactions on room messages.
type ReactionService struct {
	msgs  repository.MessageRepository
	chats repository.ChatRepository
}

func NewReactionService(mr repository.MessageRepository, cr repository.ChatRepository) *ReactionService {
	return &ReactionService{msgs: mr, chats: cr}
}

// Toggle adds userID as a reactor for emoji, or removes it if already there,
// and returns the pruned snapshot for the whole message.
func (s *ReactionService) Toggle(userID, roomID, messageID, emoji string) (models.ReactionSnapshot, error) {
	if strings.TrimSpace(emoji) == "" {
		return nil, ErrInvalidReaction
	}
	if _, err := s.chats.FindByID(roomID); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	snap, err := s.msgs.ToggleReaction(roomID, messageID, emoji, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMessageNotFound, messageID)
	}
	return snap, nil
}
