package models

import (
	"encoding/json"
	"net/http"
)

// Error kinds reported in ErrorResponse.Error
const (
	ErrKindInvalidMessage = "invalid_message"
	ErrKindAuthFailure    = "auth_failure"
	ErrKindRemoteQuery    = "remote_query_failure"
	ErrKindChatFailure    = "chat_failure"
	ErrKindUnavailable    = "unavailable"
	ErrKindInternal       = "internal"
)

type ErrorResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
}

func WriteError(w http.ResponseWriter, code int, message string) {
	WriteKindError(w, code, "", message)
}

// WriteKindError writes an error envelope tagged with a machine-readable kind.
func WriteKindError(w http.ResponseWriter, code int, kind, message string) {
	WriteJSON(w, code, ErrorResponse{
		Status:  "error",
		Error:   kind,
		Message: message,
		Code:    code,
	})
}

// WriteJSON encodes v without HTML escaping; query text contains '>' and
// reads better unescaped.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}
