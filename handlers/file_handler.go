package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"chat-coordinator/repository"
	"chat-coordinator/services"

	"github.com/gorilla/mux"
)

// FileHandler is the out-of-band upload path. Messages only ever carry the
// URL it returns.
type FileHandler struct {
	files   *services.FileService
	store   repository.FileStore
	maxSize int64
	log     *slog.Logger
}

func NewFileHandler(files *services.FileService, store repository.FileStore, maxSize int64, log *slog.Logger) *FileHandler {
	return &FileHandler{files: files, store: store, maxSize: maxSize, log: log.With("component", "uploads")}
}

// Upload accepts a multipart form with a single "file" field.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxSize > 0 {
		if r.ContentLength > h.maxSize {
			respondWithError(w, "File too large", "Upload exceeds the size limit", http.StatusRequestEntityTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxSize)
	}
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithError(w, "File too large", "Upload exceeds the size limit", http.StatusRequestEntityTooLarge)
			return
		}
		respondWithError(w, "Invalid form", "Expected multipart/form-data", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, "Missing file", "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ref, err := h.files.Upload(header.Filename, file)
	if err != nil {
		h.log.Error("upload failed", "filename", header.Filename, "error", err)
		respondWithError(w, "Upload failed", "Could not store file", http.StatusInternalServerError)
		return
	}
	respondWithJSON(w, http.StatusOK, ref)
}

// Serve streams a stored upload. GET /uploads/{name}
func (h *FileHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	f, err := h.store.Open(name)
	if errors.Is(err, repository.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.log.Error("open upload", "filename", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, name, info.ModTime(), f)
}
