package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	JSON(rec, http.StatusCreated, map[string]bool{"running": true})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, true, decode(t, rec)["running"])
}

func TestJSON_NilBody(t *testing.T) {
	rec := httptest.NewRecorder()

	JSON(rec, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()

	Error(rec, http.StatusConflict, errors.New("already running"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already running", decode(t, rec)["error"])
}

func TestSafeError(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		err      error
		wantMsg  string
		wantCode int
	}{
		{"validation message passes", http.StatusBadRequest, errors.New("channel_id is required"), "channel_id is required", http.StatusBadRequest},
		{"invalid category passes", http.StatusBadRequest, fmt.Errorf("invalid category: %q", "maps"), `invalid category: "maps"`, http.StatusBadRequest},
		{"internal details hidden", http.StatusBadRequest, errors.New("pq: relation does not exist"), "internal server error", http.StatusBadRequest},
		{"5xx always hidden", http.StatusInternalServerError, errors.New("guild not found"), "internal server error", http.StatusInternalServerError},
		{"app error uses user message", http.StatusInternalServerError, NewAppError(http.StatusBadGateway, "discord unavailable", errors.New("503 from api")), "discord unavailable", http.StatusBadGateway},
		{"wrapped app error", http.StatusInternalServerError, fmt.Errorf("purge: %w", NewAppError(http.StatusConflict, "purge in progress", nil)), "purge in progress", http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			SafeError(rec, tt.code, tt.err)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantMsg, decode(t, rec)["error"])
		})
	}
}

func TestSafeError_Nil(t *testing.T) {
	rec := httptest.NewRecorder()

	SafeError(rec, http.StatusBadRequest, nil)

	assert.Empty(t, rec.Body.String())
}

func TestAppError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewAppError(http.StatusBadGateway, "upstream failed", cause)

	assert.Equal(t, "connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "upstream failed", NewAppError(http.StatusBadGateway, "upstream failed", nil).Error())
}
