package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/nanogen/studio/internal/services"
	"github.com/nanogen/studio/types"
)

// AdminHandler serves the user management dashboard.
type AdminHandler struct {
	users *services.UserService
}

func NewAdminHandler(users *services.UserService) *AdminHandler {
	return &AdminHandler{users: users}
}

// AdminRouter registers admin routes behind the admin role.
func AdminRouter(r chi.Router, users *services.UserService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewAdminHandler(users)

	r.Use(authMiddleware, RequireRole(types.RoleAdmin))
	r.Get("/stats", handler.Stats)
	r.Route("/users", func(r chi.Router) {
		r.Get("/", handler.ListUsers)
		r.Route("/{username}", func(r chi.Router) {
			r.Delete("/", handler.DeleteUser)
			r.Post("/toggle-status", handler.ToggleStatus)
		})
	})
}

// ListUsers filters by ?q= on username or email.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users := h.users.Search(r.Context(), r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, types.Views(users))
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.users.Stats(r.Context()))
}

// ToggleStatus suspends or restores an account and returns the collection.
func (h *AdminHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	username, ok := usernameParam(w, r)
	if !ok {
		return
	}

	users, err := h.users.ToggleStatus(r.Context(), username)
	if err != nil {
		writeServiceError(w, err, "failed to update user")
		return
	}
	writeJSON(w, http.StatusOK, types.Views(users))
}

// DeleteUser removes an account and returns the collection.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	username, ok := usernameParam(w, r)
	if !ok {
		return
	}

	users, err := h.users.Delete(r.Context(), username)
	if err != nil {
		writeServiceError(w, err, "failed to delete user")
		return
	}
	writeJSON(w, http.StatusOK, types.Views(users))
}

func usernameParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	username := strings.TrimSpace(chi.URLParam(r, "username"))
	if username == "" {
		writeError(w, http.StatusBadRequest, "invalid username")
		return "", false
	}
	return username, true
}
