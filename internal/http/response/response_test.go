package response

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/scentlog/scentlog-server/internal/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()

	Success(w, map[string]string{"status": "healthy"}, discardLogger())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	var result map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, float64(Version), result["v"])
	assert.Equal(t, true, result["success"])
	assert.Contains(t, result, "data")
	assert.NotContains(t, result, "error")
}

func TestJSON_ErrorStatusIsNotSuccess(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusNotFound, nil, discardLogger())

	var result Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.Success)
}

func TestError_DomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", domainerrors.NotFound("perfume not found"), http.StatusNotFound, "NOT_FOUND"},
		{"rate limited", domainerrors.RateLimited("slow down"), http.StatusTooManyRequests, "RATE_LIMITED"},
		{"still referenced", domainerrors.StillReferenced("brand in use", 3), http.StatusConflict, "STILL_REFERENCED"},
		{"plain error", errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			Error(w, tt.err, discardLogger())

			assert.Equal(t, tt.wantStatus, w.Code)

			var result ErrorEnvelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
			assert.Equal(t, Version, result.Version)
			assert.False(t, result.Success)
			assert.Equal(t, tt.wantCode, result.Code)
		})
	}
}

func TestError_HidesInternalMessage(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, errors.New("secret path /var/db"), discardLogger())
	assert.NotContains(t, w.Body.String(), "/var/db")
}

func TestError_CarriesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, domainerrors.StillReferenced("tag in use", 2), nil)

	var result map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	details, ok := result["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), details["usage_count"])
}

func TestHelpers(t *testing.T) {
	w := httptest.NewRecorder()
	NotFound(w, "no route", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	TooManyRequests(w, "later", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
