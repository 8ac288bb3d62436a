// Package purchase coordinates a purchase/donation transaction across
// page reloads, an optional login round trip and the hand-off of a
// one-time token to an external launcher.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kiosk/internal/api"
	"kiosk/internal/redirect"
	"kiosk/internal/storage"
)

const (
	loginRoute    = "/login"
	checkoutRoute = "/purchase/checkout"
	finishedRoute = "/purchase/finished"
)

var (
	// ErrNoTransactionContext marks a flow entered with neither query
	// input nor a persisted pending transaction. Terminal; the user must
	// restart from the original deep link.
	ErrNoTransactionContext = errors.New("no transaction context")
	// ErrRedirectNotPermitted marks a transaction redirect target
	// outside the allowlist. Terminal, and checked before any network
	// call: the issued token would be delivered to that URL.
	ErrRedirectNotPermitted = errors.New("transaction redirect target not permitted")
)

// Navigator dispatches the user to a site path.
type Navigator interface {
	Navigate(path string)
}

// Backend is the slice of the API client the orchestrator needs.
type Backend interface {
	CheckPurchases(ctx context.Context, appRefs []string) error
	GenerateUpdateToken(ctx context.Context) (string, error)
}

// Request is the transaction entry point as read from query
// parameters. Both fields must be present to count; a partial request
// falls back to the persisted pending transaction.
type Request struct {
	Redirect string
	Refs     []string
}

func (r Request) complete() bool {
	return r.Redirect != "" && len(r.Refs) > 0
}

// ParseRefs splits the semicolon-separated refs query value into an
// ordered app-id list.
func ParseRefs(value string) []string {
	split := strings.Split(value, ";")
	refs := make([]string, 0, len(split))
	for _, ref := range split {
		if trimmed := strings.TrimSpace(ref); trimmed != "" {
			refs = append(refs, trimmed)
		}
	}
	return refs
}

// Orchestrator drives one transaction run: entitlement check, token
// issuance and delivery to the launcher named by the redirect target.
type Orchestrator struct {
	backend   Backend
	state     *storage.StateStore
	validator *redirect.Validator
	delivery  *http.Client
	logger    *slog.Logger
}

// NewOrchestrator wires a purchase orchestrator. delivery is the client
// used for the outbound token hand-off; nil gets a default with a
// request timeout.
func NewOrchestrator(backend Backend, state *storage.StateStore, validator *redirect.Validator, delivery *http.Client, logger *slog.Logger) *Orchestrator {
	if delivery == nil {
		delivery = &http.Client{Timeout: 15 * time.Second}
	}
	return &Orchestrator{
		backend:   backend,
		state:     state,
		validator: validator,
		delivery:  delivery,
		logger:    logger,
	}
}

// Run executes the transaction flow. Query input wins when complete;
// otherwise the flow resumes from the persisted pending transaction so
// a reload after a failed delivery reuses the original app ids rather
// than re-deriving them from a URL the browser has already left.
func (o *Orchestrator) Run(ctx context.Context, nav Navigator, req Request) error {
	redirectTarget, appIDs, err := o.acquireInput(ctx, req)
	if err != nil {
		return err
	}

	if !o.validator.PermittedExternalRedirect(redirectTarget) {
		o.logger.Warn("rejecting transaction redirect target", "target", redirectTarget)
		return ErrRedirectNotPermitted
	}

	if err := o.backend.CheckPurchases(ctx, appIDs); err != nil {
		return o.handleEntitlementFailure(ctx, nav, redirectTarget, appIDs, err)
	}

	token, err := o.backend.GenerateUpdateToken(ctx)
	if err != nil {
		return fmt.Errorf("generate update token: %w", err)
	}

	if err := o.deliverToken(ctx, redirectTarget, token); err != nil {
		// The pending transaction stays put so the user can retry
		// instead of silently losing their purchase context.
		o.logger.Error("token delivery failed", "error", err)
		return fmt.Errorf("deliver token: %w", err)
	}

	if err := o.state.ClearPendingTransaction(ctx); err != nil {
		o.logger.Error("clear pending transaction", "error", err)
	}
	nav.Navigate(finishedRoute)
	return nil
}

// acquireInput picks the transaction context: query input if complete,
// else the persisted record, else a terminal failure.
func (o *Orchestrator) acquireInput(ctx context.Context, req Request) (string, []string, error) {
	if req.complete() {
		return req.Redirect, req.Refs, nil
	}

	txn, err := o.state.PendingTransaction(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("read pending transaction: %w", err)
	}
	if txn == nil {
		return "", nil, ErrNoTransactionContext
	}
	return txn.RedirectTarget, txn.AppIDs, nil
}

// handleEntitlementFailure persists the transaction and diverts the
// user for the two resumable verdicts; anything else surfaces raw.
func (o *Orchestrator) handleEntitlementFailure(ctx context.Context, nav Navigator, redirectTarget string, appIDs []string, err error) error {
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("check purchases: %w", err)
	}

	switch apiErr.Code {
	case api.CodeNotLoggedIn:
		txn := storage.PendingTransaction{
			RedirectTarget: redirectTarget,
			AppIDs:         appIDs,
			MissingAppIDs:  []string{},
		}
		if err := o.state.SavePendingTransaction(ctx, txn); err != nil {
			return fmt.Errorf("save pending transaction: %w", err)
		}
		nav.Navigate(loginRoute)
		return nil

	case api.CodePurchaseNecessary:
		txn := storage.PendingTransaction{
			RedirectTarget: redirectTarget,
			AppIDs:         appIDs,
			MissingAppIDs:  apiErr.MissingAppIDs,
		}
		if err := o.state.SavePendingTransaction(ctx, txn); err != nil {
			return fmt.Errorf("save pending transaction: %w", err)
		}
		nav.Navigate(checkoutRoute)
		return nil

	default:
		return apiErr
	}
}

// deliverToken hands the token to the launcher:
// GET {redirect}success?token={token}. A non-2xx answer counts as a
// failed delivery.
func (o *Orchestrator) deliverToken(ctx context.Context, redirectTarget, token string) error {
	target := redirectTarget + "success?token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create delivery request: %w", err)
	}

	resp, err := o.delivery.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("launcher returned status %d", resp.StatusCode)
	}
	return nil
}
