package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/smbwire/pkg/dissect"
)

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	return resp
}

func TestLiveness_ReturnsOK(t *testing.T) {
	w := httptest.NewRecorder()
	NewHealthHandler(nil).Liveness(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, map[string]any{"service": "smbwire"}, resp.Data)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestReadiness_NoDissector_Returns503(t *testing.T) {
	w := httptest.NewRecorder()
	NewHealthHandler(nil).Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "dissector not initialized", resp.Error)
}

func TestReadiness_Ready(t *testing.T) {
	d := dissect.New(dissect.Config{MaxDepth: 4}, nil)
	w := httptest.NewRecorder()
	NewHealthHandler(d).Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "healthy", resp.Status)
	data := resp.Data.(map[string]any)
	assert.EqualValues(t, 4, data["max_depth"])
	assert.Greater(t, data["schemas"], float64(10))
}
