package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kiosk/internal/api"
	"kiosk/internal/config"
	transporthttp "kiosk/internal/http"
	"kiosk/internal/invite"
	"kiosk/internal/login"
	"kiosk/internal/platform/database"
	"kiosk/internal/platform/logging"
	"kiosk/internal/platform/migrate"
	"kiosk/internal/purchase"
	"kiosk/internal/redirect"
	"kiosk/internal/session"
	"kiosk/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)

	db, err := database.NewSQLite(ctx, cfg.StateDBPath)
	if err != nil {
		logger.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := migrate.Apply(ctx, db, logger); err != nil {
		logger.Error("failed to migrate state database", "error", err)
		os.Exit(1)
	}

	state := storage.NewStateStore(storage.NewSQLiteStore(db))

	backend, err := api.NewClient(cfg.BackendURL, nil)
	if err != nil {
		logger.Error("failed to build backend client", "error", err)
		os.Exit(1)
	}

	validator, err := redirect.NewValidator(cfg.SiteURL, cfg.ExternalRedirects)
	if err != nil {
		logger.Error("invalid redirect configuration", "error", err)
		os.Exit(1)
	}

	starter, err := login.NewStarter(ctx, state, providerConfigs(cfg.Providers))
	if err != nil {
		logger.Error("failed to configure login providers", "error", err)
		os.Exit(1)
	}

	sessions := session.NewStore()
	loginOrchestrator := login.NewOrchestrator(backend, sessions, state, validator, logger)
	purchaseOrchestrator := purchase.NewOrchestrator(backend, state, validator, nil, logger)
	inviteGate := invite.NewGate(backend, sessions, logger)

	router := transporthttp.NewRouter(cfg, transporthttp.Handlers{
		Session:  transporthttp.NewSessionHandler(backend, sessions, logger),
		Login:    transporthttp.NewLoginHandler(starter, loginOrchestrator, cfg.SiteURL, logger),
		Purchase: transporthttp.NewPurchaseHandler(purchaseOrchestrator, cfg.SiteURL, logger),
		Invite:   transporthttp.NewInviteHandler(inviteGate, logger),
	}, logger)

	// Warm the session from the server; failure leaves the machine
	// interrupted and the next refresh re-syncs.
	go func() {
		if err := sessions.Refresh(ctx, backend); err != nil {
			logger.Warn("initial session refresh failed", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}

	go func() {
		logger.Info("kiosk agent listening", "addr", srv.Addr, "backend", cfg.BackendURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func providerConfigs(providers []config.Provider) []login.ProviderConfig {
	configs := make([]login.ProviderConfig, 0, len(providers))
	for _, p := range providers {
		configs = append(configs, login.ProviderConfig{
			Method:       p.Method,
			ClientID:     p.ClientID,
			RedirectURL:  p.RedirectURL,
			Scopes:       p.Scopes,
			AuthorizeURL: p.AuthorizeURL,
			TokenURL:     p.TokenURL,
			Issuer:       p.Issuer,
		})
	}
	return configs
}
