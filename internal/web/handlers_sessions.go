package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/JonMunkholm/tabledit/internal/core"
)

// multipartMemory is how much of an upload ParseMultipartForm keeps in memory.
const multipartMemory = 32 << 20

// formOverhead allows for multipart boundaries and headers around the file.
const formOverhead = 1 << 20

// handleHealth reports liveness and current load.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, struct {
		Status string `json:"status"`
		core.ServiceStatus
	}{"ok", s.service.Status()})
}

// handleOpenSession parses an uploaded CSV or Excel file into a new session.
func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize+formOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, s.cfg.Upload.MaxFileSize))
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrNoFile, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, core.ErrNoFile)
		return
	}
	defer file.Close()

	ctx := WithRequestMetadata(r.Context(), r)
	info, err := s.service.Open(ctx, header.Filename, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, info)
}

// handleListSessions lists open sessions, oldest first.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.service.List())
}

// handleViewSession returns session info and one page of rows.
func (s *Server) handleViewSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	offset := parseIntParam(r, "offset", 0)
	limit := parseIntParam(r, "limit", core.DefaultPageSize)

	view, err := s.service.View(r.Context(), id, offset, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// handleCloseSession discards a session.
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Close(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	render.NoContent(w, r)
}
