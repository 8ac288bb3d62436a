package login

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"kiosk/internal/storage"
)

// ProviderConfig describes one identity provider the agent can start a
// login against. Endpoints come either from a static authorize/token
// URL pair or from OIDC discovery when Issuer is set.
type ProviderConfig struct {
	Method       string
	ClientID     string
	RedirectURL  string
	Scopes       []string
	AuthorizeURL string
	TokenURL     string
	Issuer       string
}

// Starter begins login round trips: it persists the caller's return
// target, then hands back the provider consent URL to navigate to.
type Starter struct {
	state   *storage.StateStore
	configs map[string]oauth2.Config
}

// NewStarter resolves endpoints for each configured provider. Issuer
// discovery happens once, at construction.
func NewStarter(ctx context.Context, state *storage.StateStore, providers []ProviderConfig) (*Starter, error) {
	configs := make(map[string]oauth2.Config, len(providers))
	for _, p := range providers {
		endpoint := oauth2.Endpoint{AuthURL: p.AuthorizeURL, TokenURL: p.TokenURL}
		if p.Issuer != "" {
			discovered, err := oidc.NewProvider(ctx, p.Issuer)
			if err != nil {
				return nil, fmt.Errorf("discover %s endpoints: %w", p.Method, err)
			}
			endpoint = discovered.Endpoint()
		}

		configs[p.Method] = oauth2.Config{
			ClientID:    p.ClientID,
			RedirectURL: p.RedirectURL,
			Endpoint:    endpoint,
			Scopes:      p.Scopes,
		}
	}

	return &Starter{state: state, configs: configs}, nil
}

// BeginLogin saves returnTo as the post-login destination and returns
// the consent URL for the given service. returnTo may be empty when the
// user started from the home page.
func (s *Starter) BeginLogin(ctx context.Context, service, returnTo string) (string, error) {
	config, ok := s.configs[service]
	if !ok {
		return "", fmt.Errorf("unknown login service %q", service)
	}

	state, err := generateState()
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}

	if returnTo != "" {
		if err := s.state.SaveReturnTarget(ctx, returnTo); err != nil {
			return "", fmt.Errorf("save return target: %w", err)
		}
	}

	return config.AuthCodeURL(state), nil
}

// generateState returns a cryptographically random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
