package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, server.Client())
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

func TestCurrentUserNoContentMeansAnonymous(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/auth/userinfo" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	record, err := client.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser returned error: %v", err)
	}
	if record != nil {
		t.Fatalf("expected nil record for 204, got %+v", record)
	}
}

func TestCurrentUserDecodesRecord(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"displayname":   "Jo",
			"permissions":   []string{"moderation"},
			"dev_app_ids":   []string{"org.a.A"},
			"owned_app_ids": []string{"org.b.B"},
		})
	}))

	record, err := client.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser returned error: %v", err)
	}
	if record == nil || record.DisplayName != "Jo" {
		t.Fatalf("unexpected record %+v", record)
	}
	if len(record.DevAppIDs) != 1 || record.DevAppIDs[0] != "org.a.A" {
		t.Fatalf("dev app ids not decoded: %+v", record.DevAppIDs)
	}
}

func TestCurrentUserErrorOnOtherStatus(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	if _, err := client.CurrentUser(context.Background()); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestSubmitLoginCallbackPassesServerCodeThrough(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login/github" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["code"] != "c1" || body["state"] != "s1" {
			t.Errorf("unexpected body %v", body)
		}
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_state"})
	}))

	err := client.SubmitLoginCallback(context.Background(), "github", "c1", "s1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Code != "invalid_state" {
		t.Fatalf("server code must pass through verbatim, got %q", apiErr.Code)
	}
}

func TestCheckPurchasesEntitled(t *testing.T) {
	var got []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/purchases/check-purchases" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))

	if err := client.CheckPurchases(context.Background(), []string{"org.a.A", "org.b.B"}); err != nil {
		t.Fatalf("CheckPurchases returned error: %v", err)
	}
	if len(got) != 2 || got[0] != "org.a.A" || got[1] != "org.b.B" {
		t.Fatalf("app refs not sent in order: %v", got)
	}
}

func TestCheckPurchasesNotLoggedIn(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "not_logged_in"})
	}))

	err := client.CheckPurchases(context.Background(), []string{"org.a.A"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Code != CodeNotLoggedIn {
		t.Fatalf("unexpected code %q", apiErr.Code)
	}
}

func TestCheckPurchasesPurchaseNecessaryCarriesMissingIDs(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Missing-Appids", "org.b.B;org.c.C")
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "purchase_necessary"})
	}))

	err := client.CheckPurchases(context.Background(), []string{"org.a.A", "org.b.B", "org.c.C"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Code != CodePurchaseNecessary {
		t.Fatalf("unexpected code %q", apiErr.Code)
	}
	if len(apiErr.MissingAppIDs) != 2 || apiErr.MissingAppIDs[0] != "org.b.B" || apiErr.MissingAppIDs[1] != "org.c.C" {
		t.Fatalf("missing app ids not parsed: %v", apiErr.MissingAppIDs)
	}
}

func TestGenerateUpdateToken(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/purchases/generate-update-token" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
	}))

	token, err := client.GenerateUpdateToken(context.Background())
	if err != nil {
		t.Fatalf("GenerateUpdateToken returned error: %v", err)
	}
	if token != "tok-1" {
		t.Fatalf("unexpected token %q", token)
	}
}

func TestLoginProviders(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]string{
			{"method": "github", "name": "GitHub"},
			{"method": "gitlab", "name": "GitLab"},
		})
	}))

	providers, err := client.LoginProviders(context.Background())
	if err != nil {
		t.Fatalf("LoginProviders returned error: %v", err)
	}
	if len(providers) != 2 || providers[0].Method != "github" {
		t.Fatalf("unexpected providers %+v", providers)
	}
}

func TestSplitAppIDs(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"org.a.A;org.b.B", []string{"org.a.A", "org.b.B"}},
		{"org.a.A, org.b.B", []string{"org.a.A", "org.b.B"}},
		{"org.a.A", []string{"org.a.A"}},
		{";;", nil},
	}

	for _, tc := range tests {
		got := splitAppIDs(tc.in)
		if len(got) != len(tc.want) {
			t.Errorf("splitAppIDs(%q) = %v, want %v", tc.in, got, tc.want)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("splitAppIDs(%q) = %v, want %v", tc.in, got, tc.want)
			}
		}
	}
}
