package integration

import (
	"net/http"
	"strings"
	"testing"
)

func TestHealthEndpoint(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/healthz", "")

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	body := readBody(t, resp)
	if !strings.Contains(body, "ok") {
		t.Errorf("body = %q, want to contain 'ok'", body)
	}
}

func TestHealthEndpointIgnoresBadCredentials(t *testing.T) {
	// Excluded paths never consult the schemes, so garbage is fine.
	resp := getURL(t, testEnv.BaseURL()+"/healthz", "Basic !!!")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 with bad auth, got %d", resp.StatusCode)
	}
}

func TestStatusEndpoint(t *testing.T) {
	for _, path := range []string{"/api/v1/status", "/api/v1/status/"} {
		var body map[string]string
		resp := getURL(t, testEnv.BaseURL()+path, "")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, resp.StatusCode)
		}
		decodeJSON(t, resp, &body)
		if body["status"] != "OK" {
			t.Errorf("%s: status = %q, want OK", path, body["status"])
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	// Generate at least one auth attempt.
	getURL(t, testEnv.BaseURL()+"/api/v1/users/me", basicAuth(bobEmail, bobPassword)).Body.Close()

	resp := getURL(t, testEnv.BaseURL()+"/metrics", "")
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	for _, name := range []string{"basicgate_requests_total", "basicgate_auth_attempts_total"} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}
