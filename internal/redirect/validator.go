// Package redirect decides whether externally supplied URLs are safe
// navigation targets. Both checks fail closed: malformed input is
// rejected, never raised as an error.
package redirect

import (
	"net/url"
	"strings"
)

// Validator validates redirect candidates against the site's own origin
// and a fixed allowlist of external transaction targets.
type Validator struct {
	origin   *url.URL
	external []*url.URL
}

// NewValidator builds a Validator for the given site origin and the
// explicit external patterns the transaction flow may hand a token to.
// Each pattern names an exact scheme, host and port; nothing else about
// the candidate URL is considered.
func NewValidator(siteOrigin string, externalPatterns []string) (*Validator, error) {
	origin, err := url.Parse(siteOrigin)
	if err != nil {
		return nil, err
	}

	external := make([]*url.URL, 0, len(externalPatterns))
	for _, pattern := range externalPatterns {
		parsed, err := url.Parse(pattern)
		if err != nil {
			return nil, err
		}
		external = append(external, parsed)
	}

	return &Validator{origin: origin, external: external}, nil
}

// PermittedReturn reports whether candidate is safe to use as a
// post-login "resume where you left off" target. The candidate is
// resolved relative to the site origin; only same-origin results pass,
// so relative paths are permitted and absolute foreign URLs are not.
func (v *Validator) PermittedReturn(candidate string) bool {
	if candidate == "" {
		return false
	}

	// Catch percent-encoded attempts at protocol-relative URLs.
	decoded, err := url.QueryUnescape(candidate)
	if err != nil {
		return false
	}
	if strings.HasPrefix(decoded, "//") {
		return false
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return false
	}

	resolved := v.origin.ResolveReference(parsed)
	return resolved.Scheme == v.origin.Scheme && resolved.Host == v.origin.Host
}

// PermittedExternalRedirect reports whether candidate matches one of
// the configured external patterns. Origin equality with the site is
// deliberately insufficient here: the transaction flow's target is
// supplied by a third-party launcher and the issued token is delivered
// to it, so only the explicit allowlist passes.
func (v *Validator) PermittedExternalRedirect(candidate string) bool {
	if candidate == "" {
		return false
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return false
	}

	for _, pattern := range v.external {
		if parsed.Scheme == pattern.Scheme && parsed.Host == pattern.Host {
			return true
		}
	}
	return false
}
