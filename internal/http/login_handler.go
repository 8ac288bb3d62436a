package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kiosk/internal/api"
	"kiosk/internal/login"
)

// LoginHandler exposes the login round trip: start of flow and the
// provider callback.
type LoginHandler struct {
	starter      *login.Starter
	orchestrator *login.Orchestrator
	siteURL      string
	logger       *slog.Logger
}

// NewLoginHandler creates a handler.
func NewLoginHandler(starter *login.Starter, orchestrator *login.Orchestrator, siteURL string, logger *slog.Logger) *LoginHandler {
	return &LoginHandler{starter: starter, orchestrator: orchestrator, siteURL: siteURL, logger: logger}
}

// Start handles GET /login/{service}/start?returnTo=...: persist the
// caller's destination and bounce to the provider consent screen.
func (h *LoginHandler) Start(w http.ResponseWriter, r *http.Request) {
	service := chi.URLParam(r, "service")
	returnTo := r.URL.Query().Get("returnTo")

	consentURL, err := h.starter.BeginLogin(r.Context(), service, returnTo)
	if err != nil {
		h.logger.Warn("login start rejected", "service", service, "error", err)
		writeError(w, http.StatusBadRequest, "unknown-service")
		return
	}

	http.Redirect(w, r, consentURL, http.StatusSeeOther)
}

// Callback handles GET /login/{service}/callback?code=...&state=...:
// the provider's redirect back. The orchestrator owns validation, the
// single-submission guard and the post-login destination; when it has
// already navigated, the response is done.
func (h *LoginHandler) Callback(w http.ResponseWriter, r *http.Request) {
	params := login.CallbackParams{
		Service: chi.URLParam(r, "service"),
		Code:    r.URL.Query().Get("code"),
		State:   r.URL.Query().Get("state"),
	}
	routeLocale := r.URL.Query().Get("locale")

	nav := newRedirectNavigator(w, r, h.siteURL)
	err := h.orchestrator.CompleteLogin(r.Context(), nav, params, routeLocale)
	if err == nil || nav.fired {
		return
	}

	switch {
	case errors.Is(err, login.ErrSubmissionInFlight):
		// Re-rendered callback racing the first submission.
		w.WriteHeader(http.StatusAccepted)
	default:
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			writeError(w, http.StatusBadRequest, apiErr.Code)
			return
		}
		h.logger.Error("login callback failed", "error", err)
		writeError(w, http.StatusBadGateway, "network-error")
	}
}
