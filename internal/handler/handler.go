// Package handler provides the HTTP handlers of the ads and user services.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/adboard/adboard/internal/handler/dto"
)

// Error titles.
const (
	TitleAds     = "Ads error"
	TitleUser    = "User error"
	TitleGeneral = "General error"
)

// Handler serves the fallback responses of a domain service.
type Handler struct {
	title string
}

// New creates a Handler whose 4xx errors carry title.
func New(title string) *Handler {
	return &Handler{title: title}
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, h.title, "NOT_FOUND", "resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, h.title, "METHOD_NOT_ALLOWED", "method not allowed")
}

// TooLarge rejects a request whose declared body exceeds the size limit.
func (h *Handler) TooLarge(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusRequestEntityTooLarge, h.title, "REQUEST_TOO_LARGE", "request body too large")
}

// Panic renders the 500 written after a recovered panic.
func (h *Handler) Panic(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusInternalServerError, TitleGeneral, "INTERNAL_ERROR", "an internal error occurred")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, title, code, detail string) {
	writeJSON(w, status, dto.ErrorResponse{Title: title, Detail: detail, Code: code})
}

func writeMessage(w http.ResponseWriter, status int, msg dto.MessageResponse) {
	writeJSON(w, status, msg)
}
