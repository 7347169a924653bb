package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// Response is the envelope of every API response.
type Response struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Headers are gone; all that is left is a best effort.
		http.Error(w, `{"status":"error","error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

func respond(status string, data any, errMsg string) Response {
	return Response{Status: status, Timestamp: time.Now().UTC(), Data: data, Error: errMsg}
}

func healthyResponse(data any) Response { return respond("healthy", data, "") }

func unhealthyResponse(errMsg string) Response { return respond("unhealthy", nil, errMsg) }

func okResponse(data any) Response { return respond("ok", data, "") }

// errorResponse carries data as well so a failed dissection can still
// report the layers decoded before the failure.
func errorResponse(errMsg string, data any) Response { return respond("error", data, errMsg) }

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse(msg, nil))
}
