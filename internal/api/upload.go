package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/answerdesk/answerdesk/internal/docstore"
)

// handleUpload accepts multipart markdown files, writes them into the
// document store, and rebuilds the index so the new content is
// immediately searchable.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			s.logger.Debug("cleanup multipart form", "error", err)
		}
	}()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		s.writeError(w, http.StatusBadRequest, "no files provided")
		return
	}

	var stored []string
	for _, fh := range files {
		name := filepath.Base(fh.Filename)
		data, err := readPart(fh)
		if err != nil {
			s.logger.Warn("read uploaded file", "file", name, "error", err)
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unreadable file %q", name))
			return
		}
		if err := s.store.Write(name, data); err != nil {
			if errors.Is(err, docstore.ErrInvalidName) {
				s.writeError(w, http.StatusBadRequest, fmt.Sprintf("only .md files are accepted, got %q", name))
				return
			}
			s.logger.Error("store uploaded file", "file", name, "error", err)
			s.writeError(w, http.StatusInternalServerError, "failed to store file")
			return
		}
		stored = append(stored, name)
	}

	if !s.retriever.Reindex() {
		s.logger.Error("reindex after upload failed")
		s.writeError(w, http.StatusInternalServerError, "files stored but reindex failed")
		return
	}

	s.logger.Info("documents uploaded", "files", stored)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("uploaded %d file(s)", len(stored)),
		"files":   stored,
	})
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open part: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read part: %w", err)
	}
	return data, nil
}
