package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/JonMunkholm/tabledit/internal/core"
	"github.com/JonMunkholm/tabledit/internal/editor"
)

// respondView answers a successful operation with the first page of the
// updated table.
func (s *Server) respondView(w http.ResponseWriter, r *http.Request, id string) {
	view, err := s.service.View(r.Context(), id, 0, core.DefaultPageSize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// operation wraps a service call: errors become error responses, success
// returns the updated view.
func (s *Server) operation(w http.ResponseWriter, r *http.Request, run func(id string) (core.SessionInfo, error)) {
	id := chi.URLParam(r, "sessionID")
	if _, err := run(id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondView(w, r, id)
}

func (s *Server) handleRemoveDuplicates(w http.ResponseWriter, r *http.Request) {
	s.operation(w, r, func(id string) (core.SessionInfo, error) {
		return s.service.RemoveDuplicates(r.Context(), id)
	})
}

func (s *Server) handleRemoveEmptyRows(w http.ResponseWriter, r *http.Request) {
	s.operation(w, r, func(id string) (core.SessionInfo, error) {
		return s.service.RemoveEmptyRows(r.Context(), id)
	})
}

// handleApplyRules takes a JSON array of {column, condition, value}.
func (s *Server) handleApplyRules(w http.ResponseWriter, r *http.Request) {
	s.operation(w, r, func(id string) (core.SessionInfo, error) {
		body, err := readBody(w, r)
		if err != nil {
			return core.SessionInfo{}, err
		}
		rules, err := editor.ParseRules(body)
		if err != nil {
			return core.SessionInfo{}, err
		}
		return s.service.ApplyRules(r.Context(), id, rules)
	})
}

// handleRows takes a JSON array of add and delete operations.
func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	s.operation(w, r, func(id string) (core.SessionInfo, error) {
		body, err := readBody(w, r)
		if err != nil {
			return core.SessionInfo{}, err
		}
		ops, err := editor.ParseRowOperations(body)
		if err != nil {
			return core.SessionInfo{}, err
		}
		return s.service.AddOrDeleteRows(r.Context(), id, ops)
	})
}

// handleSort takes {column, ascending}; ascending defaults to true.
func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	s.operation(w, r, func(id string) (core.SessionInfo, error) {
		var req sortRequest
		if err := decodeRequest(w, r, &req); err != nil {
			return core.SessionInfo{}, err
		}
		ascending := req.Ascending == nil || *req.Ascending
		return s.service.SortData(r.Context(), id, req.Column, ascending)
	})
}

// handleRenameColumns takes a JSON object of old name to new name.
func (s *Server) handleRenameColumns(w http.ResponseWriter, r *http.Request) {
	s.operation(w, r, func(id string) (core.SessionInfo, error) {
		body, err := readBody(w, r)
		if err != nil {
			return core.SessionInfo{}, err
		}
		mapping, err := editor.ParseColumnMapping(body)
		if err != nil {
			return core.SessionInfo{}, err
		}
		return s.service.RenameColumns(r.Context(), id, mapping)
	})
}

// handleFillMissing takes {method, value}.
func (s *Server) handleFillMissing(w http.ResponseWriter, r *http.Request) {
	s.operation(w, r, func(id string) (core.SessionInfo, error) {
		var req fillRequest
		if err := decodeRequest(w, r, &req); err != nil {
			return core.SessionInfo{}, err
		}
		return s.service.FillMissingValues(r.Context(), id, req.Method, req.Value)
	})
}
