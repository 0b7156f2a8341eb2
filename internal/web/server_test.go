package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/tabledit/internal/config"
	"github.com/JonMunkholm/tabledit/internal/core"
	"github.com/JonMunkholm/tabledit/internal/editor"
	"github.com/JonMunkholm/tabledit/internal/table"
)

func postFile(t *testing.T, h http.Handler, fileName, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartFile(fileName, content)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"session not found", core.ErrSessionNotFound, http.StatusNotFound},
		{"too many sessions", core.ErrTooManySessions, http.StatusServiceUnavailable},
		{"too many uploads", fmt.Errorf("wait: %w", core.ErrTooManyUploads), http.StatusServiceUnavailable},
		{"file too large", core.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"no file", core.ErrNoFile, http.StatusBadRequest},
		{"invalid request", fmt.Errorf("%w: column is required", errInvalidRequest), http.StatusBadRequest},
		{"unsupported format", table.ErrUnsupportedFormat, http.StatusBadRequest},
		{"parse error", &editor.ParseError{Input: "rules", Err: errors.New("malformed json")}, http.StatusBadRequest},
		{"operation error", &editor.OperationError{Op: editor.ActionSortData, Err: table.ErrColumnNotFound}, http.StatusUnprocessableEntity},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestRespondError_HidesInternalDetail(t *testing.T) {
	s := newTestServer(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	s.respondError(rec, req, errors.New("dial tcp 10.0.0.3:5432: refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "ERR000", resp.Code)
	assert.NotContains(t, resp.Error, "10.0.0.3")
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestServer(testConfig()).Router()

	rec := postFile(t, h, "a.csv", "A\n1\n")
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("healthz", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ok", body["status"])
		assert.EqualValues(t, 1, body["sessions"])
		assert.EqualValues(t, 10, body["max_sessions"])
	})

	t.Run("metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "tabledit_sessions_open 1")
		assert.Contains(t, rec.Body.String(), `tabledit_uploads_total{outcome="ok"} 1`)
	})

	t.Run("security headers", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
		assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'none'")
	})
}

func TestOpenSession_Errors(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxFileSize = 64
	cfg.Session.MaxSessions = 1

	tests := []struct {
		name     string
		fileName string
		content  string
		status   int
		code     string
	}{
		{"unsupported type", "notes.txt", "A\n1\n", http.StatusBadRequest, "FILE006"},
		{"empty file", "empty.csv", "", http.StatusBadRequest, "FILE005"},
		{"too large", "big.csv", "A\n" + strings.Repeat("1234567890\n", 10), http.StatusRequestEntityTooLarge, "FILE001"},
		{"broken excel", "broken.xlsx", "not a zip", http.StatusBadRequest, "FILE003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(cfg).Router()
			rec := postFile(t, h, tt.fileName, tt.content)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}

	t.Run("no file part", func(t *testing.T) {
		h := newTestServer(cfg).Router()
		req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader("x=1"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "FILE004", decodeError(t, rec).Code)
	})

	t.Run("too many sessions", func(t *testing.T) {
		h := newTestServer(cfg).Router()
		require.Equal(t, http.StatusCreated, postFile(t, h, "a.csv", "A\n1\n").Code)

		rec := postFile(t, h, "b.csv", "A\n2\n")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "SES002", decodeError(t, rec).Code)
	})
}

func TestExportXLSX(t *testing.T) {
	h := newTestServer(testConfig()).Router()

	rec := postFile(t, h, "people.csv", peopleCSV)
	require.Equal(t, http.StatusCreated, rec.Code)
	var info core.SessionInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+info.ID+"/export?format=xlsx", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="modified_file.xlsx"`, rec.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Name", "Age", "City"}, rows[0])
	assert.Equal(t, []string{"Ann", "31", "Oslo"}, rows[1])
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}}
	h := newTestServer(cfg).Router()

	t.Run("missing key", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
		req.Header.Set("X-API-Key", "secret")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("health stays open", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestUploadRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, UploadLimit: 1}
	h := newTestServer(cfg).Router()

	require.Equal(t, http.StatusCreated, postFile(t, h, "a.csv", "A\n1\n").Code)

	rec := postFile(t, h, "b.csv", "A\n2\n")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE001", decodeError(t, rec).Code)
}
