// Package login completes third-party OAuth round trips against the
// storefront backend and leaves the session in a terminal state before
// navigating to the right destination.
package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"kiosk/internal/api"
	"kiosk/internal/redirect"
	"kiosk/internal/session"
	"kiosk/internal/storage"
)

const (
	homeRoute           = "/"
	purchaseResumeRoute = "/purchase"
)

var (
	// ErrInvalidCallback marks a forged or incomplete callback: unknown
	// service, or missing code/state. No submission happens; the only
	// side effect is a safe navigation home.
	ErrInvalidCallback = errors.New("invalid login callback")
	// ErrSubmissionInFlight is returned when a second trigger arrives
	// while a submission is outstanding. Callers treat it as a no-op.
	ErrSubmissionInFlight = errors.New("login submission already in flight")
)

// Navigator dispatches the user to a site path. Implementations range
// from an HTTP redirect to a recorded target in tests.
type Navigator interface {
	Navigate(path string)
}

// Backend is the slice of the API client the orchestrator needs.
type Backend interface {
	LoginProviders(ctx context.Context) ([]api.LoginProvider, error)
	SubmitLoginCallback(ctx context.Context, service, code, state string) error
	CurrentUser(ctx context.Context) (*session.UserRecord, error)
}

// CallbackParams are the query values a provider redirect carries.
// They are ephemeral and never persisted.
type CallbackParams struct {
	Service string
	Code    string
	State   string
}

func (p CallbackParams) complete() bool {
	return p.Code != "" && p.State != ""
}

// Orchestrator drives one login attempt at a time from provider
// callback to settled session plus navigation.
type Orchestrator struct {
	backend   Backend
	sessions  *session.Store
	state     *storage.StateStore
	validator *redirect.Validator
	logger    *slog.Logger

	submitting atomic.Bool
}

// NewOrchestrator wires a login orchestrator.
func NewOrchestrator(backend Backend, sessions *session.Store, state *storage.StateStore, validator *redirect.Validator, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		backend:   backend,
		sessions:  sessions,
		state:     state,
		validator: validator,
		logger:    logger,
	}
}

// CompleteLogin validates the callback, reconciles the stored locale,
// submits the code/state pair, refreshes the session and navigates.
//
// At most one submission runs at a time; a concurrent call returns
// ErrSubmissionInFlight without touching anything. The callback surface
// may fire repeatedly while a network call settles, so the guard is
// owned here rather than left to callers.
func (o *Orchestrator) CompleteLogin(ctx context.Context, nav Navigator, params CallbackParams, routeLocale string) error {
	if !o.submitting.CompareAndSwap(false, true) {
		return ErrSubmissionInFlight
	}
	defer o.submitting.Store(false)

	logger := o.logger.With("attempt", uuid.NewString(), "service", params.Service)

	// A locale mismatch with no OAuth params is a navigation artifact,
	// not a flow restart. Redirecting home under the stored locale here
	// avoids racing a submission that another render already started.
	if !params.complete() {
		if stored, ok, err := o.state.Locale(ctx); err == nil && ok && routeLocale != "" && stored != routeLocale {
			logger.Info("locale mismatch on incomplete callback, redirecting home", "stored", stored, "route", routeLocale)
			nav.Navigate("/" + stored)
			return nil
		}

		logger.Warn("login callback missing code or state")
		nav.Navigate(homeRoute)
		return ErrInvalidCallback
	}

	known, err := o.serviceAdvertised(ctx, params.Service)
	if err != nil {
		o.sessions.Dispatch(session.Action{Type: session.ActionInterrupt})
		return fmt.Errorf("fetch login providers: %w", err)
	}
	if !known {
		logger.Warn("login callback for unknown service")
		nav.Navigate(homeRoute)
		return ErrInvalidCallback
	}

	o.sessions.Dispatch(session.Action{Type: session.ActionLoading})

	if err := o.backend.SubmitLoginCallback(ctx, params.Service, params.Code, params.State); err != nil {
		o.sessions.Dispatch(session.Action{Type: session.ActionInterrupt})

		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			logger.Warn("login rejected by server", "code", apiErr.Code)
			return apiErr
		}
		logger.Error("login submission failed", "error", err)
		return fmt.Errorf("submit login callback: %w", err)
	}

	if err := o.sessions.Refresh(ctx, o.backend); err != nil {
		// The login itself succeeded; the next refresh re-syncs.
		logger.Error("post-login session refresh failed", "error", err)
	}

	o.navigateAfterLogin(ctx, nav, logger)
	return nil
}

// navigateAfterLogin resolves the post-login destination. Exactly one
// branch runs: a pending transaction wins and is left intact for the
// purchase flow to consume, then a validated return target, then home.
func (o *Orchestrator) navigateAfterLogin(ctx context.Context, nav Navigator, logger *slog.Logger) {
	if txn, err := o.state.PendingTransaction(ctx); err == nil && txn != nil {
		nav.Navigate(purchaseResumeRoute)
		return
	} else if err != nil {
		logger.Error("read pending transaction", "error", err)
	}

	target, ok, err := o.state.ReturnTarget(ctx)
	if err != nil {
		logger.Error("read return target", "error", err)
	}
	if ok {
		// Consumed exactly once, whether or not it validates; a forged
		// value must not survive for a later attempt.
		if err := o.state.ClearReturnTarget(ctx); err != nil {
			logger.Error("clear return target", "error", err)
		}
		if o.validator.PermittedReturn(target) {
			nav.Navigate(target)
			return
		}
		logger.Warn("discarding off-origin return target")
	}

	nav.Navigate(homeRoute)
}

func (o *Orchestrator) serviceAdvertised(ctx context.Context, service string) (bool, error) {
	if service == "" {
		return false, nil
	}

	providers, err := o.backend.LoginProviders(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range providers {
		if p.Method == service {
			return true, nil
		}
	}
	return false, nil
}
