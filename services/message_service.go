package services

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"chat-coordinator/config"
	"chat-coordinator/models"
	"chat-coordinator/repository"

	"github.com/google/uuid"
)

type MessageService struct {
	msgs        repository.MessageRepository
	chats       repository.ChatRepository
	memberships repository.MembershipRepository
	users       repository.UserRepository
	maxLength   int
	now         func() time.Time
	log         *slog.Logger
}

func NewMessageService(mr repository.MessageRepository, cr repository.ChatRepository, mem repository.MembershipRepository, ur repository.UserRepository, cfg *config.Config, log *slog.Logger) *MessageService {
	return &MessageService{
		msgs:        mr,
		chats:       cr,
		memberships: mem,
		users:       ur,
		maxLength:   cfg.MaxMessageLength,
		now:         time.Now,
		log:         log.With("component", "messages"),
	}
}

// PostMessage appends a message to roomID and returns it for broadcast.
func (s *MessageService) PostMessage(sender models.Sender, roomID, content string, typ models.MessageType, fileURL string) (models.MessageView, error) {
	if _, err := s.chats.FindByID(roomID); err != nil {
		return models.MessageView{}, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	if typ == "" {
		typ = models.MessageText
	}
	if !typ.Valid() {
		return models.MessageView{}, fmt.Errorf("%w: %q", ErrInvalidMessageType, typ)
	}
	if err := validateContent(content, fileURL, s.maxLength); err != nil {
		return models.MessageView{}, err
	}

	msg := models.NewMessage(uuid.NewString(), content, sender, typ, fileURL, s.now())
	saved, err := s.msgs.Save(roomID, msg)
	if err != nil {
		return models.MessageView{}, err
	}

	for _, id := range s.memberships.GetRoomMembers(roomID) {
		if id == sender.ID {
			continue
		}
		if u, err := s.users.FindByID(id); err == nil && !u.Online {
			s.log.Debug("offline member missed message", "room_id", roomID, "user_id", id, "username", u.Username)
		}
	}
	return saved, nil
}

// MarkRead records userID as a reader and returns the full reader list.
func (s *MessageService) MarkRead(userID, roomID, messageID string) ([]string, error) {
	if _, err := s.chats.FindByID(roomID); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	readers, err := s.msgs.MarkRead(roomID, messageID, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMessageNotFound, messageID)
	}
	return readers, nil
}

func (s *MessageService) List(roomID string, limit int) ([]models.MessageView, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	if _, err := s.chats.FindByID(roomID); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	return s.msgs.ListByOwner(roomID, limit), nil
}

// validateContent allows empty text only when a file reference is attached.
func validateContent(content, fileURL string, maxLength int) error {
	if strings.TrimSpace(content) == "" && fileURL == "" {
		return ErrEmptyMessage
	}
	if maxLength > 0 && utf8.RuneCountInString(content) > maxLength {
		return fmt.Errorf("%w (max %d characters)", ErrMessageTooLong, maxLength)
	}
	return nil
}
