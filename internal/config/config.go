package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Provider configures one identity provider the agent can start a
// login against. Endpoints come from AuthorizeURL/TokenURL or, when
// Issuer is set, from OIDC discovery.
type Provider struct {
	Method       string
	ClientID     string
	RedirectURL  string
	Scopes       []string
	AuthorizeURL string
	TokenURL     string
	Issuer       string
}

// Config aggregates runtime configuration for the kiosk agent.
type Config struct {
	Environment       string
	HTTPPort          int
	SiteURL           string
	BackendURL        string
	StateDBPath       string
	LogLevel          string
	ExternalRedirects []string
	Providers         []Provider
}

// Load reads configuration from environment variables with sensible
// defaults for local development.
func Load() (Config, error) {
	cfg := Config{
		Environment:       getEnv("APP_ENV", "development"),
		SiteURL:           strings.TrimSuffix(getEnv("SITE_URL", "http://localhost:3000"), "/"),
		BackendURL:        strings.TrimSuffix(getEnv("BACKEND_URL", "http://localhost:8000"), "/"),
		StateDBPath:       getEnv("STATE_DB_PATH", "kiosk.db"),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", "info")),
		ExternalRedirects: parseCSV(getEnv("EXTERNAL_REDIRECTS", "http://localhost:5000/")),
	}

	portValue := getEnv("PORT", getEnv("HTTP_PORT", "8600"))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return Config{}, fmt.Errorf("invalid port %q: %w", portValue, err)
	}
	cfg.HTTPPort = port

	for _, raw := range []string{cfg.SiteURL, cfg.BackendURL} {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return Config{}, fmt.Errorf("invalid base URL %q", raw)
		}
	}

	providers, err := loadProviders(cfg.SiteURL)
	if err != nil {
		return Config{}, err
	}
	cfg.Providers = providers

	return cfg, nil
}

// HTTPAddress returns the address the loopback server should bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf("127.0.0.1:%d", c.HTTPPort)
}

// IsDevelopment reports whether the agent runs in development mode.
func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

// loadProviders reads LOGIN_PROVIDERS (comma-separated methods) and the
// per-provider LOGIN_<METHOD>_* variables.
func loadProviders(siteURL string) ([]Provider, error) {
	methods := parseCSV(getEnv("LOGIN_PROVIDERS", ""))
	providers := make([]Provider, 0, len(methods))

	for _, method := range methods {
		prefix := "LOGIN_" + strings.ToUpper(method) + "_"
		provider := Provider{
			Method:       method,
			ClientID:     getEnv(prefix+"CLIENT_ID", ""),
			RedirectURL:  getEnv(prefix+"REDIRECT_URL", siteURL+"/login/"+method),
			Scopes:       parseCSV(getEnv(prefix+"SCOPES", "")),
			AuthorizeURL: getEnv(prefix+"AUTHORIZE_URL", ""),
			TokenURL:     getEnv(prefix+"TOKEN_URL", ""),
			Issuer:       getEnv(prefix+"ISSUER", ""),
		}

		if provider.ClientID == "" {
			return nil, fmt.Errorf("%sCLIENT_ID is required", prefix)
		}
		if provider.AuthorizeURL == "" && provider.Issuer == "" {
			return nil, fmt.Errorf("%sAUTHORIZE_URL or %sISSUER is required", prefix, prefix)
		}

		providers = append(providers, provider)
	}

	return providers, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
