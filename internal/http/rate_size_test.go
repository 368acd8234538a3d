package handlers_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"roomfit/internal/http/handlers"
)

func TestAvailabilityRateLimit(t *testing.T) {
	app, _ := newApp(t, handlers.Backends{Gateway: newGateway(t)})

	var entries []logEntry
	entries = captureLogs(t, func() {
		for i := 0; i < 16; i++ {
			resp, _ := do(t, app, jsonReq("GET", "/api/v1/products/velvet-sofa/availability", "", nil))
			if i < 15 && resp.StatusCode != http.StatusOK {
				t.Fatalf("request %d: expected 200, got %d", i, resp.StatusCode)
			}
			if i == 15 && resp.StatusCode != http.StatusTooManyRequests {
				t.Fatalf("expected 429 after limit, got %d", resp.StatusCode)
			}
		}
	})
	if _, ok := findLog(entries, "rate.availability.hit"); !ok {
		t.Fatal("rate limit hit not logged")
	}
}

func TestAnalyzeRateLimit(t *testing.T) {
	app, _ := newApp(t, handlers.Backends{Gateway: newGateway(t)})
	for i := 0; i < 11; i++ {
		resp, _ := do(t, app, jsonReq("POST", "/api/v1/analyze/colors", "", map[string]any{"image": pngData}))
		if i < 10 && resp.StatusCode == http.StatusTooManyRequests {
			t.Fatalf("hit rate limit too early at %d", i)
		}
		if i == 10 && resp.StatusCode != http.StatusTooManyRequests {
			t.Fatalf("expected 429 after limit, got %d", resp.StatusCode)
		}
	}
}

// Oversized POST rejected with 413
func TestBodySizeLimit(t *testing.T) {
	app, _ := newApp(t, handlers.Backends{Gateway: newGateway(t)})

	oversize := bytes.Repeat([]byte("A"), (1<<20)+10)
	req := httptest.NewRequest("POST", "/api/v1/analyze", bytes.NewReader(oversize))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	// Fiber returns an error instead of a response when body too large; treat that as pass
	if err != nil {
		if strings.Contains(err.Error(), "body size exceeds") || strings.Contains(err.Error(), "too large") {
			return
		}
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 413 for oversize, got %d body=%s", resp.StatusCode, string(body))
	}
}
