package invite

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"kiosk/internal/session"
)

type backendStub struct {
	acceptInvite  func(ctx context.Context, appID string) error
	declineInvite func(ctx context.Context, appID string) error
	currentUser   func(ctx context.Context) (*session.UserRecord, error)

	accepts  int
	declines int
	fetches  int
}

func (b *backendStub) AcceptInvite(ctx context.Context, appID string) error {
	b.accepts++
	if b.acceptInvite != nil {
		return b.acceptInvite(ctx, appID)
	}
	return nil
}

func (b *backendStub) DeclineInvite(ctx context.Context, appID string) error {
	b.declines++
	if b.declineInvite != nil {
		return b.declineInvite(ctx, appID)
	}
	return nil
}

func (b *backendStub) CurrentUser(ctx context.Context) (*session.UserRecord, error) {
	b.fetches++
	if b.currentUser != nil {
		return b.currentUser(ctx)
	}
	return &session.UserRecord{DisplayName: "Jo"}, nil
}

func newTestGate(user *session.UserRecord) (*Gate, *session.Store, *backendStub) {
	backend := &backendStub{}
	sessions := session.NewStore()
	if user != nil {
		sessions.Dispatch(session.Action{Type: session.ActionLogin, Info: user})
	} else {
		sessions.Dispatch(session.Action{Type: session.ActionLogout})
	}
	return NewGate(backend, sessions, slog.New(slog.DiscardHandler)), sessions, backend
}

func signedUser() *session.UserRecord {
	signed := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return &session.UserRecord{DisplayName: "Jo", AcceptedPublisherAgreementAt: &signed}
}

func TestAcceptRequiresSession(t *testing.T) {
	gate, _, backend := newTestGate(nil)

	if _, err := gate.Accept(context.Background(), "org.a.A"); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if backend.accepts != 0 {
		t.Fatal("no accept call may be issued without a session")
	}
}

func TestAcceptWithoutAgreementIsWithheld(t *testing.T) {
	gate, _, backend := newTestGate(&session.UserRecord{DisplayName: "Jo"})

	outcome, err := gate.Accept(context.Background(), "org.a.A")
	if err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}
	if outcome != OutcomeAgreementRequired {
		t.Fatalf("expected agreement-required outcome, got %q", outcome)
	}
	if backend.accepts != 0 {
		t.Fatal("accept call must be withheld until the agreement is signed")
	}
}

func TestAcceptWithAgreementRefreshesSession(t *testing.T) {
	gate, _, backend := newTestGate(signedUser())

	outcome, err := gate.Accept(context.Background(), "org.a.A")
	if err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}
	if outcome != OutcomeAccepted {
		t.Fatalf("expected accepted outcome, got %q", outcome)
	}
	if backend.accepts != 1 {
		t.Fatalf("expected one accept call, got %d", backend.accepts)
	}
	if backend.fetches != 1 {
		t.Fatalf("expected a session refresh after accept, got %d fetches", backend.fetches)
	}
}

func TestAcceptFailureDoesNotRefresh(t *testing.T) {
	gate, _, backend := newTestGate(signedUser())
	backend.acceptInvite = func(ctx context.Context, appID string) error {
		return errors.New("boom")
	}

	if _, err := gate.Accept(context.Background(), "org.a.A"); err == nil {
		t.Fatal("expected error from failed accept")
	}
	if backend.fetches != 0 {
		t.Fatal("failed accept must not trigger a refresh")
	}
}

func TestDeclineNeverRequiresAgreement(t *testing.T) {
	gate, _, backend := newTestGate(&session.UserRecord{DisplayName: "Jo"})

	if err := gate.Decline(context.Background(), "org.a.A"); err != nil {
		t.Fatalf("Decline returned error: %v", err)
	}
	if backend.declines != 1 {
		t.Fatalf("expected one decline call, got %d", backend.declines)
	}
	if backend.fetches != 1 {
		t.Fatalf("expected a session refresh after decline, got %d fetches", backend.fetches)
	}
}

func TestDeclineRequiresSession(t *testing.T) {
	gate, _, backend := newTestGate(nil)

	if err := gate.Decline(context.Background(), "org.a.A"); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if backend.declines != 0 {
		t.Fatal("no decline call may be issued without a session")
	}
}
