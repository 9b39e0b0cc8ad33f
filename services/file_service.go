package services

import (
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"chat-coordinator/repository"

	"github.com/google/uuid"
)

// FileRef is what a client attaches to a file or image message.
type FileRef struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
	URL          string `json:"url"`
}

// FileService stores uploads out-of-band; the messaging core only ever sees
// the returned URL.
type FileService struct {
	store     repository.FileStore
	urlPrefix string
	now       func() time.Time
	log       *slog.Logger
}

func NewFileService(store repository.FileStore, urlPrefix string, log *slog.Logger) *FileService {
	return &FileService{
		store:     store,
		urlPrefix: urlPrefix,
		now:       time.Now,
		log:       log.With("component", "files"),
	}
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (s *FileService) Upload(originalName string, r io.Reader) (FileRef, error) {
	base := filepath.Base(filepath.Clean("/" + originalName))
	safe := unsafeName.ReplaceAllString(base, "_")
	if safe == "" || safe == "." || safe == "/" || safe == "_" {
		safe = "upload"
	}
	stored := strconv.FormatInt(s.now().UnixMilli(), 10) + "-" + uuid.NewString()[:8] + "-" + safe

	n, err := s.store.Put(stored, r)
	if err != nil {
		return FileRef{}, fmt.Errorf("store upload: %w", err)
	}
	s.log.Info("file uploaded", "filename", stored, "size", n)
	return FileRef{
		Filename:     stored,
		OriginalName: originalName,
		Size:         n,
		URL:          path.Join(s.urlPrefix, stored),
	}, nil
}
