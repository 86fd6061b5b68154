package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adboard/adboard/internal/handler/dto"
	"github.com/adboard/adboard/internal/service"
)

// AdHandler handles ad endpoints.
type AdHandler struct {
	svc    *service.AdService
	logger *slog.Logger
}

// NewAdHandler creates a new AdHandler.
func NewAdHandler(svc *service.AdService, logger *slog.Logger) *AdHandler {
	return &AdHandler{svc: svc, logger: logger}
}

// List handles GET /ads.
func (h *AdHandler) List(w http.ResponseWriter, r *http.Request) {
	ads, err := h.svc.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToAdResponses(ads))
}

// Get handles GET /ads/{id}.
func (h *AdHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ad, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToAdResponse(ad))
}

// ListByUser handles GET /ads/by-user?userId=.
func (h *AdHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r.URL.Query().Get("userId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ads, err := h.svc.ListByUser(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToAdResponses(ads))
}

// Create handles POST /ads.
func (h *AdHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w, TitleAds)
		return
	}

	ad, err := h.svc.Create(r.Context(), service.CreateAdInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		UserID:      req.UserID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeMessage(w, http.StatusCreated, dto.MessageResponse{
		Message: fmt.Sprintf("ad %d created", ad.ID),
		ID:      &ad.ID,
	})
}

// Update handles PUT /ads. The target id travels in the body.
func (h *AdHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateAdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w, TitleAds)
		return
	}
	if req.ID <= 0 {
		h.fail(w, r, errInvalidID)
		return
	}

	ad, err := h.svc.Update(r.Context(), service.UpdateAdInput{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		UserID:      req.UserID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, dto.MessageResponse{Message: fmt.Sprintf("ad %d updated", ad.ID)})
}

// Delete handles DELETE /ads/{id}.
func (h *AdHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, dto.MessageResponse{Message: fmt.Sprintf("ad %d deleted", id)})
}

// DeleteByUser handles DELETE /ads/by-user?userId=.
func (h *AdHandler) DeleteByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r.URL.Query().Get("userId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	n, err := h.svc.DeleteAllByUser(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, dto.MessageResponse{
		Message: fmt.Sprintf("deleted %d ads of user %d", n, userID),
		Count:   &n,
	})
}

func (h *AdHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	handleServiceError(w, r, h.logger, TitleAds, err)
}
