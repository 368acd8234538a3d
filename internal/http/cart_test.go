package handlers_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"roomfit/internal/domain"
	"roomfit/internal/http/handlers"
)

type cartBody struct {
	Items []domain.CartLine `json:"items"`
	Count int               `json:"count"`
	Total float64           `json:"total"`
}

func TestCartFlowAndCheckout(t *testing.T) {
	app, d := newApp(t, handlers.Backends{Gateway: newGateway(t)})
	tok := signIn(t, d, "alice@roomfit.test")

	add := func(qty int) cartBody {
		t.Helper()
		resp, body := do(t, app, jsonReq("POST", "/api/v1/cart", tok, map[string]any{"product_id": "lounge-chair", "quantity": qty}))
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("add: expected 201, got %d body=%s", resp.StatusCode, body)
		}
		var v cartBody
		decode(t, body, &v)
		return v
	}
	add(1)
	if v := add(2); len(v.Items) != 1 || v.Count != 3 {
		t.Fatalf("second add should merge into one line of 3, got %+v", v)
	}

	var cart cartBody
	_, body := do(t, app, jsonReq("GET", "/api/v1/cart", tok, nil))
	decode(t, body, &cart)
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 3 || cart.Total != 3*42000 {
		t.Fatalf("unexpected server cart: %s", body)
	}
	item := cart.Items[0].ID

	step := func(path string) cartBody {
		t.Helper()
		resp, body := do(t, app, jsonReq("POST", fmt.Sprintf("/api/v1/cart/%s/%s", item, path), tok, nil))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d body=%s", path, resp.StatusCode, body)
		}
		var v cartBody
		decode(t, body, &v)
		return v
	}
	if v := step("increment"); v.Items[0].Quantity != 4 {
		t.Fatalf("increment: got %+v", v)
	}

	_, body = do(t, app, jsonReq("PATCH", "/api/v1/cart/"+item, tok, map[string]any{"quantity": 0}))
	decode(t, body, &cart)
	if cart.Items[0].Quantity != 4 {
		t.Fatalf("quantity 0 must be ignored, got %s", body)
	}
	_, body = do(t, app, jsonReq("PATCH", "/api/v1/cart/"+item, tok, map[string]any{"quantity": 1}))
	decode(t, body, &cart)
	if cart.Items[0].Quantity != 1 {
		t.Fatalf("set quantity: got %s", body)
	}
	if v := step("decrement"); v.Items[0].Quantity != 1 {
		t.Fatalf("decrement at 1 must stay at 1, got %+v", v)
	}

	resp, body := do(t, app, jsonReq("POST", "/api/v1/cart/checkout", tok, nil))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("checkout: expected 201, got %d body=%s", resp.StatusCode, body)
	}
	var placed struct {
		Order domain.Order       `json:"order"`
		Items []domain.OrderItem `json:"items"`
	}
	decode(t, body, &placed)
	if placed.Order.Status != "pending" || placed.Order.TotalAmount != 42000 || len(placed.Items) != 1 {
		t.Fatalf("unexpected order: %s", body)
	}

	resp, body = do(t, app, jsonReq("POST", "/api/v1/cart/checkout", tok, nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty checkout: expected 400, got %d", resp.StatusCode)
	}
	if want := "Add items to cart before checkout"; !strings.Contains(string(body), want) {
		t.Fatalf("empty checkout message missing: %s", body)
	}

	var hist struct {
		Orders []struct {
			ID    string             `json:"id"`
			Items []domain.OrderItem `json:"items"`
		} `json:"orders"`
	}
	_, body = do(t, app, jsonReq("GET", "/api/v1/orders", tok, nil))
	decode(t, body, &hist)
	if len(hist.Orders) != 1 || hist.Orders[0].ID != placed.Order.ID {
		t.Fatalf("unexpected history: %s", body)
	}
	if items := hist.Orders[0].Items; len(items) != 1 || items[0].ProductID != "lounge-chair" || items[0].Quantity != 1 {
		t.Fatalf("history should carry line items: %s", body)
	}
}

func TestCartRemoveAndForeignItem(t *testing.T) {
	app, d := newApp(t, handlers.Backends{Gateway: newGateway(t)})
	alice := signIn(t, d, "alice@roomfit.test")
	admin := signIn(t, d, "admin@roomfit.test")

	do(t, app, jsonReq("POST", "/api/v1/cart", alice, map[string]any{"product_id": "oak-dining-table"}))
	var cart cartBody
	_, body := do(t, app, jsonReq("GET", "/api/v1/cart", alice, nil))
	decode(t, body, &cart)
	item := cart.Items[0].ID

	// Another user cannot touch alice's item.
	resp, _ := do(t, app, jsonReq("DELETE", "/api/v1/cart/"+item, admin, nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign delete: expected 404, got %d", resp.StatusCode)
	}

	resp, body = do(t, app, jsonReq("DELETE", "/api/v1/cart/"+item, alice, nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", resp.StatusCode)
	}
	decode(t, body, &cart)
	if len(cart.Items) != 0 {
		t.Fatalf("cart should be empty: %s", body)
	}

	resp, _ = do(t, app, jsonReq("POST", "/api/v1/cart", alice, map[string]any{"product_id": "no-such-product"}))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown product: expected 404, got %d", resp.StatusCode)
	}
}

func TestSignOutDropsCartMirror(t *testing.T) {
	app, d := newApp(t, handlers.Backends{Gateway: newGateway(t)})
	tok := signIn(t, d, "alice@roomfit.test")

	do(t, app, jsonReq("POST", "/api/v1/cart", tok, map[string]any{"product_id": "velvet-sofa", "quantity": 2}))
	if n := d.Cart.Count("u-alice"); n != 2 {
		t.Fatalf("mirror count = %d, want 2", n)
	}
	resp, _ := do(t, app, jsonReq("POST", "/api/v1/auth/logout", tok, nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", resp.StatusCode)
	}
	if n := d.Cart.Count("u-alice"); n != 0 {
		t.Fatalf("mirror should be dropped on sign-out, count = %d", n)
	}
	resp, _ = do(t, app, jsonReq("GET", "/api/v1/cart", tok, nil))
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("token must be dead after logout, got %d", resp.StatusCode)
	}
}

func TestCartQuantityCappedAtStock(t *testing.T) {
	gw := newGateway(t)
	app, d := newApp(t, handlers.Backends{Gateway: gw})
	tok := signIn(t, d, "alice@roomfit.test")

	// velvet-sofa is seeded with 4 in stock
	resp, body := do(t, app, jsonReq("POST", "/api/v1/cart", tok, map[string]any{"product_id": "velvet-sofa", "quantity": 50}))
	if resp.StatusCode != http.StatusConflict || !strings.Contains(string(body), "only 4 left") {
		t.Fatalf("over-stock add: expected 409 with stock message, got %d body=%s", resp.StatusCode, body)
	}

	entries := captureLogs(t, func() {
		resp, body = do(t, app, jsonReq("POST", "/api/v1/cart", tok, map[string]any{"product_id": "velvet-sofa", "quantity": 4}))
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add at stock: expected 201, got %d body=%s", resp.StatusCode, body)
	}
	if e, ok := findLog(entries, "cart.add"); !ok || e.Status != http.StatusCreated {
		t.Fatalf("cart.add should log status 201, got %+v (found=%v)", e, ok)
	}

	var cart cartBody
	_, body = do(t, app, jsonReq("GET", "/api/v1/cart", tok, nil))
	decode(t, body, &cart)
	item := cart.Items[0].ID

	resp, body = do(t, app, jsonReq("POST", "/api/v1/cart/"+item+"/increment", tok, nil))
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("increment past stock: expected 409, got %d body=%s", resp.StatusCode, body)
	}
	resp, _ = do(t, app, jsonReq("PATCH", "/api/v1/cart/"+item, tok, map[string]any{"quantity": 9}))
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("set past stock: expected 409, got %d", resp.StatusCode)
	}
	if n := d.Cart.Count("u-alice"); n != 4 {
		t.Fatalf("cart should stay at 4, got %d", n)
	}

	resp, body = do(t, app, jsonReq("POST", "/api/v1/cart/checkout", tok, nil))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("checkout at stock: expected 201, got %d body=%s", resp.StatusCode, body)
	}

	// stock is now 0
	resp, body = do(t, app, jsonReq("POST", "/api/v1/cart", tok, map[string]any{"product_id": "velvet-sofa", "quantity": 1}))
	if resp.StatusCode != http.StatusConflict || !strings.Contains(string(body), "out of stock") {
		t.Fatalf("sold-out add: expected 409 out of stock, got %d body=%s", resp.StatusCode, body)
	}
}
