package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/JonMunkholm/tabledit/internal/chart"
	"github.com/JonMunkholm/tabledit/internal/core"
	"github.com/JonMunkholm/tabledit/internal/editor"
	"github.com/JonMunkholm/tabledit/internal/logging"
	"github.com/JonMunkholm/tabledit/internal/table"
)

// Download names and content types.
const (
	logFileName     = "modification_log.csv"
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// handleChart renders a chart of the current table as SVG, or as the chart
// model with ?format=json.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	var req chartRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	c, err := s.service.CreateChart(r.Context(), id, chart.Kind(req.ChartType), req.XColumn, req.YColumn)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "json" {
		render.JSON(w, r, c)
		return
	}

	var buf bytes.Buffer
	if err := chart.Render(r.Context(), &buf, c); err != nil {
		s.respondError(w, r, fmt.Errorf("render chart: %w", err))
		return
	}
	w.Header().Set("Content-Type", chart.ContentType)
	w.Write(buf.Bytes())
}

// handleLog returns the modification log as JSON, or CSV with ?format=csv.
func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.Log(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") != "csv" {
		render.JSON(w, r, entries)
		return
	}

	var buf bytes.Buffer
	if err := editor.WriteLogCSV(&buf, entries); err != nil {
		s.respondError(w, r, fmt.Errorf("write log: %w", err))
		return
	}
	download(w, logFileName, contentTypeCSV, buf.Bytes())
}

// handleExport downloads the current table as modified_file.csv or, with
// ?format=xlsx, modified_file.xlsx.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := parseFormat(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	id := chi.URLParam(r, "sessionID")
	var buf bytes.Buffer
	if err := s.service.Export(r.Context(), id, format, &buf); err != nil {
		s.respondError(w, r, err)
		return
	}

	contentType := contentTypeCSV
	if format == table.FormatXLSX {
		contentType = contentTypeXLSX
	}
	download(w, core.ExportFileName(format), contentType, buf.Bytes())
	logging.FromContext(r.Context()).Debug("export sent", "session_id", id, "bytes", buf.Len())
}

// download writes body as an attachment.
func download(w http.ResponseWriter, fileName, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Write(body)
}
