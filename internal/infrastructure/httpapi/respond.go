package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
)

type errorResponse struct {
	Error     string   `json:"error"`
	Missing   []string `json:"missing,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message, RequestID: requestIDFromContext(r.Context())})
}

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, 32<<20))
	return decoder.Decode(out)
}
