package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"kiosk/internal/api"
	"kiosk/internal/session"
)

// sessionBackend is the slice of the API client the session surface needs.
type sessionBackend interface {
	CurrentUser(ctx context.Context) (*session.UserRecord, error)
	Logout(ctx context.Context) error
}

// SessionHandler exposes the session state machine to the embedding UI.
type SessionHandler struct {
	backend  sessionBackend
	sessions *session.Store
	logger   *slog.Logger
}

// NewSessionHandler creates a handler.
func NewSessionHandler(backend sessionBackend, sessions *session.Store, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{backend: backend, sessions: sessions, logger: logger}
}

type sessionStatePayload struct {
	Loading bool                `json:"loading"`
	User    *session.UserRecord `json:"user,omitempty"`
}

func statePayload(state session.State) sessionStatePayload {
	return sessionStatePayload{Loading: state.Loading, User: state.Info}
}

// State handles GET /session.
func (h *SessionHandler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statePayload(h.sessions.State()))
}

// Refresh handles POST /session/refresh: re-sync from the server and
// return whatever state the machine settled in. A transport failure is
// reported but the state in the body is still the truth the UI should
// render, stale info included.
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Refresh(r.Context(), h.backend); err != nil {
		h.logger.Warn("session refresh failed", "error", err)
		writeJSON(w, http.StatusBadGateway, statePayload(h.sessions.State()))
		return
	}
	writeJSON(w, http.StatusOK, statePayload(h.sessions.State()))
}

// Logout handles POST /logout. The reducer only transitions once the
// backend confirms; a transport failure must not guess a logout.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.Logout(r.Context()); err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			writeError(w, apiErr.StatusCode, apiErr.Code)
			return
		}
		h.logger.Error("logout failed", "error", err)
		writeError(w, http.StatusBadGateway, "network-error")
		return
	}

	h.sessions.Dispatch(session.Action{Type: session.ActionLogout})
	writeJSON(w, http.StatusOK, statePayload(h.sessions.State()))
}
