// Package invite decides how a developer-invite decision proceeds: an
// accept is routed through the publisher agreement when the user has
// not signed it yet, a decline never is.
package invite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"kiosk/internal/session"
)

// ErrNotAuthenticated is returned when an invite decision is attempted
// without a settled, authenticated session.
var ErrNotAuthenticated = errors.New("invite decision requires an authenticated session")

// Outcome is the result of an accept attempt.
type Outcome string

const (
	// OutcomeAccepted means the invite was accepted on the backend.
	OutcomeAccepted Outcome = "accepted"
	// OutcomeAgreementRequired means the user must accept the publisher
	// agreement first; no accept call was issued.
	OutcomeAgreementRequired Outcome = "agreement-required"
)

// Backend is the slice of the API client the gate needs.
type Backend interface {
	AcceptInvite(ctx context.Context, appID string) error
	DeclineInvite(ctx context.Context, appID string) error
	CurrentUser(ctx context.Context) (*session.UserRecord, error)
}

// Gate arbitrates invite decisions for the current session.
type Gate struct {
	backend  Backend
	sessions *session.Store
	logger   *slog.Logger
}

// NewGate wires an invite gate.
func NewGate(backend Backend, sessions *session.Store, logger *slog.Logger) *Gate {
	return &Gate{backend: backend, sessions: sessions, logger: logger}
}

// Accept accepts the invite for appID. When the user has not yet
// accepted the publisher agreement the call is withheld and
// OutcomeAgreementRequired tells the caller to divert through the
// agreement step first. On success the session is refreshed so
// permission-derived UI updates without a full reload.
func (g *Gate) Accept(ctx context.Context, appID string) (Outcome, error) {
	state := g.sessions.State()
	if !state.Authenticated() {
		return "", ErrNotAuthenticated
	}

	if !state.Info.AcceptedPublisherAgreement() {
		return OutcomeAgreementRequired, nil
	}

	if err := g.backend.AcceptInvite(ctx, appID); err != nil {
		return "", fmt.Errorf("accept invite: %w", err)
	}

	if err := g.sessions.Refresh(ctx, g.backend); err != nil {
		g.logger.Error("session refresh after invite accept failed", "error", err)
	}
	return OutcomeAccepted, nil
}

// Decline declines the invite for appID. Declining never requires the
// publisher agreement. On success the session is refreshed.
func (g *Gate) Decline(ctx context.Context, appID string) error {
	state := g.sessions.State()
	if !state.Authenticated() {
		return ErrNotAuthenticated
	}

	if err := g.backend.DeclineInvite(ctx, appID); err != nil {
		return fmt.Errorf("decline invite: %w", err)
	}

	if err := g.sessions.Refresh(ctx, g.backend); err != nil {
		g.logger.Error("session refresh after invite decline failed", "error", err)
	}
	return nil
}
