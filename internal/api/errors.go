package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Error codes the orchestrators branch on. Every other code is passed
// through to the UI verbatim as a localization key.
const (
	CodeNotLoggedIn       = "not_logged_in"
	CodePurchaseNecessary = "purchase_necessary"
)

const missingAppIDsHeader = "Missing-Appids"

// APIError is a structured business error reported by the backend. The
// Code is the server's own vocabulary, never reinterpreted locally, so
// the UI can localize it directly.
type APIError struct {
	StatusCode    int
	Code          string
	MissingAppIDs []string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error %q (status %d)", e.Code, e.StatusCode)
}

// decodeAPIError reads a non-2xx response into an *APIError. The body
// may carry the code under "error" (auth endpoints) or "detail"
// (purchase endpoints); an unreadable body yields an empty code.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	if raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16)); err == nil {
		var payload struct {
			Error  string `json:"error"`
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(raw, &payload); err == nil {
			apiErr.Code = payload.Error
			if apiErr.Code == "" {
				apiErr.Code = payload.Detail
			}
		}
	}

	if header := resp.Header.Get(missingAppIDsHeader); header != "" {
		apiErr.MissingAppIDs = splitAppIDs(header)
	}

	return apiErr
}

// splitAppIDs parses the missing-appids header, accepting both the
// semicolon encoding and a comma-separated list.
func splitAppIDs(value string) []string {
	split := strings.FieldsFunc(value, func(r rune) bool {
		return r == ';' || r == ','
	})

	ids := make([]string, 0, len(split))
	for _, id := range split {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}
