// Package http is the agent's loopback surface: the embedding UI and
// external launchers talk to the orchestrators through it.
package http

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"kiosk/internal/config"
)

// Handlers bundles the route handlers the router wires up.
type Handlers struct {
	Session  *SessionHandler
	Login    *LoginHandler
	Purchase *PurchaseHandler
	Invite   *InviteHandler
}

// NewRouter wires the agent routes and middleware using chi. CORS
// admits the site origin with credentials so the storefront UI can
// drive the agent from the browser.
func NewRouter(cfg config.Config, h Handlers, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.SiteURL},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(newSlogMiddleware(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"environment": cfg.Environment,
		})
	})

	r.Get("/session", h.Session.State)
	r.Post("/session/refresh", h.Session.Refresh)
	r.Post("/logout", h.Session.Logout)

	r.Route("/login/{service}", func(r chi.Router) {
		r.Get("/start", h.Login.Start)
		r.Get("/callback", h.Login.Callback)
	})

	r.Get("/purchase", h.Purchase.Run)

	r.Route("/invites/{appID}", func(r chi.Router) {
		r.Post("/accept", h.Invite.Accept)
		r.Post("/decline", h.Invite.Decline)
	})

	r.NotFound(http.NotFoundHandler().ServeHTTP)

	return r
}
