package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kiosk/internal/api"
	"kiosk/internal/invite"
)

// InviteHandler exposes invite accept/decline decisions.
type InviteHandler struct {
	gate   *invite.Gate
	logger *slog.Logger
}

// NewInviteHandler creates a handler.
func NewInviteHandler(gate *invite.Gate, logger *slog.Logger) *InviteHandler {
	return &InviteHandler{gate: gate, logger: logger}
}

// Accept handles POST /invites/{appID}/accept. An unsigned publisher
// agreement yields the agreement-required outcome instead of an accept.
func (h *InviteHandler) Accept(w http.ResponseWriter, r *http.Request) {
	appID := chi.URLParam(r, "appID")

	outcome, err := h.gate.Accept(r.Context(), appID)
	if err != nil {
		h.writeDecisionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"outcome": string(outcome)})
}

// Decline handles POST /invites/{appID}/decline.
func (h *InviteHandler) Decline(w http.ResponseWriter, r *http.Request) {
	appID := chi.URLParam(r, "appID")

	if err := h.gate.Decline(r.Context(), appID); err != nil {
		h.writeDecisionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"outcome": "declined"})
}

func (h *InviteHandler) writeDecisionError(w http.ResponseWriter, err error) {
	if errors.Is(err, invite.ErrNotAuthenticated) {
		writeError(w, http.StatusUnauthorized, "not-logged-in")
		return
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		writeError(w, apiErr.StatusCode, apiErr.Code)
		return
	}

	h.logger.Error("invite decision failed", "error", err)
	writeError(w, http.StatusBadGateway, "network-error")
}
