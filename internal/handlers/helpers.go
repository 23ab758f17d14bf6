package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/taskdeck/taskdeck-api/internal/grouptree"
	"github.com/taskdeck/taskdeck-api/internal/store"
)

// respondJSON sends a JSON success envelope
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondJSONError sends an error JSON envelope with a sanitized message
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if len(message) > 200 {
		message = message[:200] + "..."
	}

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondMutationError maps engine and store errors onto the response
// taxonomy: not-found 404, type-mismatch 400, persistence 500.
func respondMutationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, grouptree.ErrParentNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, grouptree.ErrTypeMismatch):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, store.ErrPersistence):
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to persist data")
	default:
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Operation failed")
	}
}

// readBody drains the request body, translating the request-size cap into a
// 413-worthy error message.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return nil, false
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Failed to read request body")
		return nil, false
	}
	return body, true
}

// decodeSingleOrArray decodes a body that is either a single object or an
// array of objects, normalizing to a slice.
func decodeSingleOrArray[T any](body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var many []T
		if err := json.Unmarshal(trimmed, &many); err != nil {
			return nil, err
		}
		return many, nil
	}
	var one T
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return nil, err
	}
	return []T{one}, nil
}
