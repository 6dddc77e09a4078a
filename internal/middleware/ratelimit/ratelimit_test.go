package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, perWindow int) (*Limiter, *time.Time) {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: perWindow})
	t.Cleanup(rl.Stop)
	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }
	return rl, &clock
}

func TestLimiterFixedWindow(t *testing.T) {
	rl, clock := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.1.1.1") {
			t.Fatalf("request %d rejected within limit", i+1)
		}
		*clock = clock.Add(time.Second)
	}
	if rl.Allow("1.1.1.1") {
		t.Fatal("fourth request in the window allowed")
	}
	if !rl.Allow("2.2.2.2") {
		t.Fatal("other client limited")
	}
	if got := rl.RetryAfter("1.1.1.1"); got != 57*time.Second {
		t.Errorf("RetryAfter = %v, want 57s", got)
	}

	*clock = clock.Add(57 * time.Second)
	if !rl.Allow("1.1.1.1") {
		t.Fatal("request after window reset rejected")
	}
	if rl.ActiveClients() != 2 {
		t.Errorf("ActiveClients = %d", rl.ActiveClients())
	}

	*clock = clock.Add(3 * time.Minute)
	rl.cleanupStaleEntries()
	if rl.ActiveClients() != 0 {
		t.Errorf("ActiveClients after cleanup = %d", rl.ActiveClients())
	}
}

func TestLimiterSteadyTrafficStillLimited(t *testing.T) {
	rl, clock := newTestLimiter(t, 5)

	rejected := 0
	for i := 0; i < 20; i++ {
		if !rl.Allow("1.1.1.1") {
			rejected++
		}
		*clock = clock.Add(2 * time.Second)
	}
	if rejected != 15 {
		t.Fatalf("rejected %d of 20 requests in one window, want 15", rejected)
	}
}

func TestMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 1)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	limited := 0
	h := rl.Middleware(
		func(*http.Request) string { return "9.9.9.9" },
		MutatingMethods,
		func(w http.ResponseWriter, r *http.Request) {
			limited++
			w.WriteHeader(http.StatusTooManyRequests)
		},
	)(ok)

	tests := []struct {
		method string
		want   int
	}{
		{http.MethodPost, http.StatusNoContent},
		{http.MethodGet, http.StatusNoContent},
		{http.MethodGet, http.StatusNoContent},
		{http.MethodDelete, http.StatusTooManyRequests},
	}
	for i, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, "/api/renda", nil))
		if rec.Code != tt.want {
			t.Fatalf("request %d (%s): status %d, want %d", i, tt.method, rec.Code, tt.want)
		}
		if tt.want == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "60" {
			t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
		}
	}
	if limited != 1 {
		t.Errorf("onLimit called %d times", limited)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(Config{})
	rl.Stop()
	rl.Stop()
}
