package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/adboard/adboard/internal/peer"
	"github.com/adboard/adboard/internal/service"
)

// errInvalidID is returned for path and query ids that are not positive integers.
var errInvalidID = errors.New("id must be a positive integer")

// handleServiceError maps service errors to HTTP responses. A missing
// reference and a peer that rejected the check both answer 404; an
// unreachable peer and a failed cascade answer 500.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, title string, err error) {
	switch {
	case errors.Is(err, service.ErrCascadeFailed):
		logger.ErrorContext(r.Context(), "cascade_failed", "error", err)
		writeError(w, http.StatusInternalServerError, TitleGeneral, "CASCADE_FAILED", err.Error())
	case errors.Is(err, peer.ErrPeerUnavailable):
		logger.ErrorContext(r.Context(), "peer_unavailable", "error", err)
		writeError(w, http.StatusInternalServerError, TitleGeneral, "PEER_UNAVAILABLE", err.Error())
	case errors.Is(err, service.ErrAdNotFound):
		writeError(w, http.StatusNotFound, title, "AD_NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, title, "USER_NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrNoAdsForUser):
		writeError(w, http.StatusNotFound, title, "NO_ADS_FOR_USER", err.Error())
	case errors.Is(err, peer.ErrPeerRejected):
		writeError(w, http.StatusNotFound, title, "PEER_REJECTED", err.Error())
	case errors.Is(err, service.ErrInvalidPrice):
		writeError(w, http.StatusBadRequest, title, "INVALID_PRICE", err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, title, "INVALID_INPUT", err.Error())
	case errors.Is(err, errInvalidID):
		writeError(w, http.StatusBadRequest, title, "INVALID_ID", err.Error())
	default:
		logger.ErrorContext(r.Context(), "internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, TitleGeneral, "INTERNAL_ERROR", "an internal error occurred")
	}
}

func writeInvalidJSON(w http.ResponseWriter, title string) {
	writeError(w, http.StatusBadRequest, title, "INVALID_JSON", "invalid request body")
}

// parseID parses a positive int64 id.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}
