package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nanogen/studio/internal/services"
	"github.com/nanogen/studio/types"
)

type SubscriptionHandler struct {
	subscriptions *services.SubscriptionService
}

func NewSubscriptionHandler(subscriptions *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions}
}

// SubscriptionRouter registers plan routes. Plans are public; checkout
// needs a user session.
func SubscriptionRouter(r chi.Router, subscriptions *services.SubscriptionService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewSubscriptionHandler(subscriptions)

	r.Get("/plans", handler.Plans)
	r.With(authMiddleware, RequireRole(types.RoleUser)).Post("/checkout", handler.Checkout)
}

type CheckoutRequest struct {
	Plan   types.Subscription `json:"plan"`
	Method string             `json:"method"`
}

func (h *SubscriptionHandler) Plans(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.subscriptions.Plans())
}

func (h *SubscriptionHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	session, err := sessionFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CheckoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.subscriptions.Checkout(r.Context(), session.Username, req.Plan, req.Method)
	if err != nil {
		writeServiceError(w, err, "checkout failed")
		return
	}
	writeJSON(w, http.StatusOK, user.View())
}
