package handlers

import (
	"net/http"

	"github.com/dvloznov/budget-insights/internal/api/middleware"
	"github.com/dvloznov/budget-insights/internal/domain"
	"github.com/dvloznov/budget-insights/internal/store"
)

// UsersHandler handles profile endpoints.
type UsersHandler struct {
	users store.UserRepository
	clock Clock
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(users store.UserRepository, clock Clock) *UsersHandler {
	return &UsersHandler{users: users, clock: clock}
}

// GetProfile handles GET /api/users/{userID}/profile
func (h *UsersHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, r := userID(r)

	profile, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "Failed to load profile")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/users/{userID}/profile. Only fields present
// in the body change; the profile is created on first write.
func (h *UsersHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, r := userID(r)

	var patch domain.ProfilePatch
	if err := decodeJSON(r, &patch); err != nil {
		writeServiceError(w, r, err, "Invalid profile")
		return
	}

	profile, err := store.UpdateProfile(r.Context(), h.users, id, patch, h.clock.Now())
	if err != nil {
		writeServiceError(w, r, err, "Failed to update profile")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, profile)
}
