package services

import (
	"context"
	"log/slog"
	"time"

	"chat-coordinator/config"
	"chat-coordinator/models"
	"chat-coordinator/repository"
)

// TypingService tracks ephemeral typing entries per (room, user) and expires
// them after a fixed TTL.
//
// A repeated start while an entry is live neither notifies nor refreshes the
// entry, so a long typing burst can expire before the user stops.
type TypingService struct {
	repo     repository.TypingRepository
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	log      *slog.Logger
}

func NewTypingService(repo repository.TypingRepository, cfg *config.Config, log *slog.Logger) *TypingService {
	return &TypingService{
		repo:     repo,
		ttl:      cfg.TypingTTL,
		interval: cfg.TypingSweepInterval,
		now:      time.Now,
		log:      log.With("component", "typing"),
	}
}

// Start reports whether a new entry was created; only then should the room be notified.
func (s *TypingService) Start(roomID string, user models.Sender) bool {
	return s.repo.Insert(models.TypingEntry{
		RoomID:    roomID,
		UserID:    user.ID,
		Username:  user.Username,
		UpdatedAt: s.now(),
	})
}

// Stop reports whether a live entry was removed.
func (s *TypingService) Stop(roomID, userID string) (models.TypingEntry, bool) {
	return s.repo.Delete(roomID, userID)
}

func (s *TypingService) StopAll(userID string) []models.TypingEntry {
	return s.repo.DeleteByUser(userID)
}

// Sweep removes every entry older than the TTL and returns them.
func (s *TypingService) Sweep() []models.TypingEntry {
	return s.repo.DeleteOlderThan(s.now().Add(-s.ttl))
}

// Run calls tick on a fixed period until ctx is done. tick is expected to
// call Sweep on whatever goroutine serializes client events, so an expiry
// cannot interleave with a fresh start for the same entry.
func (s *TypingService) Run(ctx context.Context, tick func()) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("typing sweep started", "ttl", s.ttl, "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("typing sweep stopped")
			return
		case <-ticker.C:
			s.runTick(tick)
		}
	}
}

func (s *TypingService) runTick(tick func()) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("typing sweep tick panicked", "panic", r)
		}
	}()
	tick()
}
