package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"roomfit/internal/gateway"
	"roomfit/internal/http/handlers"
)

// Without a backend the catalog is empty and writes explain why.
func TestUnconfiguredBackendDegrades(t *testing.T) {
	app, _ := newApp(t, handlers.Backends{Gateway: gateway.NewStub()})

	resp, body := do(t, app, jsonReq("GET", "/api/v1/products", "", nil))
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"count":0`) {
		t.Fatalf("list: expected empty catalog, got %d %s", resp.StatusCode, body)
	}

	resp, body = do(t, app, jsonReq("POST", "/api/v1/auth/login", "", map[string]any{"email": "alice@roomfit.test", "password": "Passw0rd!"}))
	if resp.StatusCode != http.StatusServiceUnavailable || !strings.Contains(string(body), "backend not configured") {
		t.Fatalf("login: expected 503, got %d %s", resp.StatusCode, body)
	}

	resp, _ = do(t, app, jsonReq("GET", "/api/v1/products/velvet-sofa", "", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("detail: expected 404, got %d", resp.StatusCode)
	}
}
