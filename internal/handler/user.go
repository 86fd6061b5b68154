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

// UserHandler handles user endpoints.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// List handles GET /users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToUserResponses(users))
}

// Get handles GET /users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// Ads handles GET /users/ads?id=. The ads are relayed as the ads service
// rendered them.
func (h *UserHandler) Ads(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.URL.Query().Get("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ads, err := h.svc.AdsByUser(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ads)
}

// Create handles POST /users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w, TitleUser)
		return
	}

	user, err := h.svc.Create(r.Context(), service.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeMessage(w, http.StatusCreated, dto.MessageResponse{
		Message: fmt.Sprintf("user %d created", user.ID),
		ID:      &user.ID,
	})
}

// Update handles PUT /users. The target id travels in the body.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidJSON(w, TitleUser)
		return
	}
	if req.ID <= 0 {
		h.fail(w, r, errInvalidID)
		return
	}

	user, err := h.svc.Update(r.Context(), service.UpdateUserInput{
		ID:       req.ID,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, dto.MessageResponse{Message: fmt.Sprintf("user %d updated", user.ID)})
}

// Delete handles DELETE /users?id=, cascading to the user's ads first.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.URL.Query().Get("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, dto.MessageResponse{Message: fmt.Sprintf("user %d and their ads deleted", id)})
}

func (h *UserHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	handleServiceError(w, r, h.logger, TitleUser, err)
}
