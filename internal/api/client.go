// Package api is the HTTP client for the storefront backend. Every
// call sends credentials via the client's cookie jar; the backend is
// the authority on who is logged in and what they own.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"kiosk/internal/session"
)

// LoginProvider is an identity provider advertised by the backend.
type LoginProvider struct {
	Method string `json:"method"`
	Name   string `json:"name"`
}

// Client calls the storefront backend.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient constructs a Client for the given backend base URL. When
// client is nil a cookie-jar-backed client with a request timeout is
// built, so session cookies set by the backend are retained.
func NewClient(baseURL string, client *http.Client) (*Client, error) {
	if client == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("cookie jar: %w", err)
		}
		client = &http.Client{Jar: jar, Timeout: 15 * time.Second}
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}, nil
}

// CurrentUser fetches the authoritative user record. A 204 means no
// session and yields (nil, nil); any status other than 200 or 204 is
// reported as an error so callers treat it as a transport failure.
func (c *Client) CurrentUser(ctx context.Context) (*session.UserRecord, error) {
	resp, err := c.do(ctx, http.MethodGet, "/auth/userinfo", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil, nil
	case http.StatusOK:
		var record session.UserRecord
		if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
			return nil, fmt.Errorf("decode user record: %w", err)
		}
		return &record, nil
	default:
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}
}

// LoginProviders fetches the providers the backend accepts logins from.
func (c *Client) LoginProviders(ctx context.Context) ([]LoginProvider, error) {
	resp, err := c.do(ctx, http.MethodGet, "/auth/login", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login providers returned status %d", resp.StatusCode)
	}

	var providers []LoginProvider
	if err := json.NewDecoder(resp.Body).Decode(&providers); err != nil {
		return nil, fmt.Errorf("decode login providers: %w", err)
	}
	return providers, nil
}

// SubmitLoginCallback posts the OAuth code/state pair to the
// provider-specific callback endpoint. The success body is ignored;
// the session is refreshed separately.
func (c *Client) SubmitLoginCallback(ctx context.Context, service, code, state string) error {
	body := map[string]string{"code": code, "state": state}
	resp, err := c.do(ctx, http.MethodPost, "/auth/login/"+url.PathEscape(service), body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	return nil
}

// Logout ends the backend session.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "/auth/logout", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	return nil
}

// AcceptInvite accepts a developer invite for the given app.
func (c *Client) AcceptInvite(ctx context.Context, appID string) error {
	return c.postInviteDecision(ctx, appID, "accept")
}

// DeclineInvite declines a developer invite for the given app.
func (c *Client) DeclineInvite(ctx context.Context, appID string) error {
	return c.postInviteDecision(ctx, appID, "decline")
}

func (c *Client) postInviteDecision(ctx context.Context, appID, decision string) error {
	resp, err := c.do(ctx, http.MethodPost, "/invites/"+url.PathEscape(appID)+"/"+decision, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	return nil
}

// CheckPurchases asks the backend whether the user is entitled to every
// app ref in the given order. A nil error means fully entitled; the
// not-logged-in and purchase-necessary verdicts come back as *APIError.
func (c *Client) CheckPurchases(ctx context.Context, appRefs []string) error {
	resp, err := c.do(ctx, http.MethodPost, "/purchases/check-purchases", appRefs)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	return nil
}

// GenerateUpdateToken issues a one-time download/update token for the
// current user.
func (c *Client) GenerateUpdateToken(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/purchases/generate-update-token", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", decodeAPIError(resp)
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if payload.Token == "" {
		return "", fmt.Errorf("token response was empty")
	}
	return payload.Token, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s %s: %w", method, path, err)
	}
	return resp, nil
}
