package services

import (
	"fmt"
	"log/slog"
	"time"

	"chat-coordinator/config"
	"chat-coordinator/models"
	"chat-coordinator/repository"

	"github.com/google/uuid"
)

// ConversationService routes private messages into per-pair histories. The
// history store must not be the one rooms write to: room ids are chosen by
// clients and could otherwise name a conversation.
type ConversationService struct {
	convos       repository.ConversationRepository
	history      repository.MessageRepository
	users        repository.UserRepository
	maxLength    int
	historyLimit int
	now          func() time.Time
	log          *slog.Logger
}

func NewConversationService(cr repository.ConversationRepository, history repository.MessageRepository, ur repository.UserRepository, cfg *config.Config, log *slog.Logger) *ConversationService {
	return &ConversationService{
		convos:       cr,
		history:      history,
		users:        ur,
		maxLength:    cfg.MaxMessageLength,
		historyLimit: cfg.HistoryLimit,
		now:          time.Now,
		log:          log.With("component", "conversations"),
	}
}

// PrivateDelivery says where a private message has to go.
type PrivateDelivery struct {
	Message models.MessageView
	// RecipientConn is empty when the recipient is offline; that copy is dropped.
	RecipientConn string
}

func (s *ConversationService) SendPrivate(from models.Sender, toID, content string) (PrivateDelivery, error) {
	recipient, err := s.users.FindByID(toID)
	if err != nil {
		return PrivateDelivery{}, fmt.Errorf("%w: %s", ErrRecipientNotFound, toID)
	}
	if err := validateContent(content, "", s.maxLength); err != nil {
		return PrivateDelivery{}, err
	}

	convo, _ := s.convos.GetOrCreate(from.ID, toID)
	msg := models.NewMessage(uuid.NewString(), content, from, models.MessageText, "", s.now())
	saved, err := s.history.Save(convo.ID, msg)
	if err != nil {
		return PrivateDelivery{}, err
	}

	d := PrivateDelivery{Message: saved}
	if recipient.Online {
		d.RecipientConn = recipient.ConnID
	} else {
		s.log.Debug("recipient offline, private message stored only", "from", from.ID, "to", toID)
	}
	return d, nil
}

// FetchHistory returns the trailing window of the conversation between the
// two identities, creating an empty conversation on first access.
func (s *ConversationService) FetchHistory(userID, otherID string) []models.MessageView {
	convo, _ := s.convos.GetOrCreate(userID, otherID)
	return s.history.ListByOwner(convo.ID, s.historyLimit)
}
