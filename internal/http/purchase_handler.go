package http

import (
	"errors"
	"log/slog"
	"net/http"

	"kiosk/internal/api"
	"kiosk/internal/purchase"
)

// PurchaseHandler enters or resumes the transaction flow.
type PurchaseHandler struct {
	orchestrator *purchase.Orchestrator
	siteURL      string
	logger       *slog.Logger
}

// NewPurchaseHandler creates a handler.
func NewPurchaseHandler(orchestrator *purchase.Orchestrator, siteURL string, logger *slog.Logger) *PurchaseHandler {
	return &PurchaseHandler{orchestrator: orchestrator, siteURL: siteURL, logger: logger}
}

// Run handles GET /purchase?return=...&refs=a;b. With both query
// values present this is the deep-link entry point; without them the
// flow resumes from the persisted pending transaction.
func (h *PurchaseHandler) Run(w http.ResponseWriter, r *http.Request) {
	req := purchase.Request{
		Redirect: r.URL.Query().Get("return"),
		Refs:     purchase.ParseRefs(r.URL.Query().Get("refs")),
	}

	nav := newRedirectNavigator(w, r, h.siteURL)
	err := h.orchestrator.Run(r.Context(), nav, req)
	if err == nil || nav.fired {
		return
	}

	switch {
	case errors.Is(err, purchase.ErrNoTransactionContext):
		writeError(w, http.StatusBadRequest, "no-transaction-context")
	case errors.Is(err, purchase.ErrRedirectNotPermitted):
		writeError(w, http.StatusBadRequest, "redirect-not-permitted")
	default:
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			writeError(w, http.StatusBadRequest, apiErr.Code)
			return
		}
		h.logger.Error("purchase flow failed", "error", err)
		writeError(w, http.StatusBadGateway, "network-error")
	}
}
