package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"roomfit/internal/domain"
	"roomfit/internal/gateway"
	"roomfit/internal/http/handlers"
)

// countingCarts records every call that reaches the backing cart table.
type countingCarts struct {
	gateway.Carts
	calls atomic.Int32
}

func (c *countingCarts) UpsertCartItem(ctx context.Context, userID, productID string, delta int) error {
	c.calls.Add(1)
	return c.Carts.UpsertCartItem(ctx, userID, productID, delta)
}

func (c *countingCarts) CartLines(ctx context.Context, userID string) ([]domain.CartLine, error) {
	c.calls.Add(1)
	return c.Carts.CartLines(ctx, userID)
}

func TestCartRedirectsAnonymousWithoutFetch(t *testing.T) {
	gw := newGateway(t)
	carts := &countingCarts{Carts: gw.Carts}
	gw.Carts = carts
	app, _ := newApp(t, handlers.Backends{Gateway: gw})

	for _, req := range []*http.Request{
		httptest.NewRequest("GET", "/cart", nil),
		jsonReq("GET", "/api/v1/cart", "", nil),
		jsonReq("POST", "/api/v1/cart", "", map[string]any{"product_id": "velvet-sofa", "quantity": 1}),
		jsonReq("POST", "/api/v1/cart/checkout", "", nil),
	} {
		resp, _ := do(t, app, req)
		if resp.StatusCode != http.StatusFound {
			t.Fatalf("%s %s: expected redirect, got %d", req.Method, req.URL.Path, resp.StatusCode)
		}
		if loc := resp.Header.Get("Location"); loc != "/login" {
			t.Fatalf("%s %s: redirect to %q, want /login", req.Method, req.URL.Path, loc)
		}
	}
	if n := carts.calls.Load(); n != 0 {
		t.Fatalf("cart backend called %d times for anonymous requests", n)
	}
}

func TestCartRejectsForgedToken(t *testing.T) {
	app, _ := newApp(t, handlers.Backends{Gateway: newGateway(t)})
	resp, _ := do(t, app, jsonReq("GET", "/api/v1/cart", "not-a-jwt", nil))
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected redirect for bad token, got %d", resp.StatusCode)
	}
}

func TestAdminGuard(t *testing.T) {
	app, d := newApp(t, handlers.Backends{Gateway: newGateway(t)})

	// Anonymous -> login
	resp, _ := do(t, app, jsonReq("GET", "/api/v1/admin/products", "", nil))
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("anonymous: expected redirect, got %d", resp.StatusCode)
	}

	// Customer -> 403 with the privileges message
	var entries []logEntry
	var body []byte
	entries = captureLogs(t, func() {
		resp, body = do(t, app, jsonReq("GET", "/api/v1/admin/products", signIn(t, d, "alice@roomfit.test"), nil))
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("customer: expected 403, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "You do not have admin privileges") {
		t.Fatalf("customer: unexpected body %s", body)
	}
	if e, ok := findLog(entries, "access.denied.admin"); !ok || e.Level != "warn" {
		t.Fatalf("expected access.denied.admin warning, got %+v", entries)
	}

	// Admin -> 200
	resp, _ = do(t, app, jsonReq("GET", "/api/v1/admin/products", signIn(t, d, "admin@roomfit.test"), nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d", resp.StatusCode)
	}
}
