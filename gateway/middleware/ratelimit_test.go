package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{
		"bank": {RatePerSecond: 1, Burst: 1},
	}, nil)
	handler := limiter.Middleware("bank")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/bank/params", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", res.Code)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be rate limited, got %d", res.Code)
	}
}

func TestRateLimiterSeparatesRoutesAndClients(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{
		"bank":  {RatePerSecond: 1, Burst: 1},
		"chain": {RatePerSecond: 1, Burst: 1},
	}, nil)
	bankHandler := limiter.Middleware("bank")(okHandler())
	chainHandler := limiter.Middleware("chain")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/bank/params", nil)
	req.Header.Set("X-API-Key", "tenant-A")
	for name, handler := range map[string]http.Handler{"bank": bankHandler, "chain": chainHandler} {
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		if res.Code != http.StatusOK {
			t.Fatalf("expected %s request to succeed, got %d", name, res.Code)
		}
	}

	other := httptest.NewRequest(http.MethodGet, "/v1/bank/params", nil)
	other.Header.Set("X-API-Key", "tenant-B")
	res := httptest.NewRecorder()
	bankHandler.ServeHTTP(res, other)
	if res.Code != http.StatusOK {
		t.Fatalf("expected second tenant to have its own bucket, got %d", res.Code)
	}
}

func TestRateLimiterEvictsIdleVisitors(t *testing.T) {
	limiter := NewRateLimiter(map[string]RateLimit{"bank": {RatePerSecond: 1, Burst: 1}}, nil)
	now := time.Unix(1_700_000_000, 0)
	limiter.clockNow = func() time.Time { return now }

	limiter.obtainLimiter("bank|a", RateLimit{RatePerSecond: 1, Burst: 1})
	if len(limiter.visitors) != 1 {
		t.Fatalf("expected one visitor, got %d", len(limiter.visitors))
	}
	now = now.Add(visitorTTL + time.Second)
	limiter.obtainLimiter("bank|b", RateLimit{RatePerSecond: 1, Burst: 1})
	if _, ok := limiter.visitors["bank|a"]; ok {
		t.Fatalf("expected idle visitor to be evicted")
	}
}

func TestUnlimitedKeyPassesThrough(t *testing.T) {
	limiter := NewRateLimiter(nil, nil)
	handler := limiter.Middleware("bank")(okHandler())
	for i := 0; i < 3; i++ {
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
		if res.Code != http.StatusOK {
			t.Fatalf("expected pass-through, got %d", res.Code)
		}
	}
}
