package services

import (
	"log/slog"
	"strings"

	"chat-coordinator/config"
	"chat-coordinator/models"
	"chat-coordinator/repository"
)

const defaultRoomName = "General"

// RoomService is the room registry: room existence, membership and the
// trailing history window served on join.
type RoomService struct {
	chats        repository.ChatRepository
	memberships  repository.MembershipRepository
	messages     repository.MessageRepository
	users        repository.UserRepository
	historyLimit int
	log          *slog.Logger
}

func NewRoomService(cr repository.ChatRepository, mr repository.MembershipRepository, msgs repository.MessageRepository, ur repository.UserRepository, cfg *config.Config, log *slog.Logger) *RoomService {
	s := &RoomService{
		chats:        cr,
		memberships:  mr,
		messages:     msgs,
		users:        ur,
		historyLimit: cfg.HistoryLimit,
		log:          log.With("component", "rooms"),
	}
	if _, created := cr.GetOrCreate(models.DefaultRoomID, defaultRoomName); created {
		s.log.Info("created default room", "room_id", models.DefaultRoomID)
	}
	return s
}

type JoinResult struct {
	Room    models.ChatRoom
	Created bool
	// Left lists the rooms the user was removed from to make the move.
	Left    []string
	History []models.MessageView
}

// JoinRoom moves userID into roomID, creating the room on first use. The user
// leaves every other room except the default one.
func (s *RoomService) JoinRoom(userID, roomID string) (JoinResult, error) {
	if strings.TrimSpace(roomID) == "" {
		return JoinResult{}, ErrInvalidRoomID
	}

	room, created := s.chats.GetOrCreate(roomID, roomID)
	if created {
		s.log.Info("room created", "room_id", roomID, "by", userID)
	}
	left := s.memberships.MoveMember(userID, roomID, models.DefaultRoomID)

	return JoinResult{
		Room:    room,
		Created: created,
		Left:    left,
		History: s.messages.ListByOwner(roomID, s.historyLimit),
	}, nil
}

// EnterDefault enrolls userID in the default room without leaving others.
func (s *RoomService) EnterDefault(userID string) JoinResult {
	room, _ := s.chats.GetOrCreate(models.DefaultRoomID, defaultRoomName)
	s.memberships.AddMember(models.DefaultRoomID, userID)
	return JoinResult{
		Room:    room,
		History: s.messages.ListByOwner(models.DefaultRoomID, s.historyLimit),
	}
}

// LeaveAll removes userID from every room, the default one included.
func (s *RoomService) LeaveAll(userID string) []string {
	return s.memberships.RemoveFromAll(userID)
}

func (s *RoomService) Members(roomID string) []string {
	return s.memberships.GetRoomMembers(roomID)
}

// ListRooms returns every room with its members resolved to user records.
func (s *RoomService) ListRooms() []models.RoomSnapshot {
	rooms := s.chats.List()
	members := s.memberships.Snapshot()

	out := make([]models.RoomSnapshot, 0, len(rooms))
	for _, room := range rooms {
		users := make([]models.User, 0, len(members[room.ID]))
		for _, id := range members[room.ID] {
			if u, err := s.users.FindByID(id); err == nil {
				users = append(users, u)
			}
		}
		out = append(out, models.RoomSnapshot{ID: room.ID, Name: room.Name, Users: users})
	}
	return out
}
