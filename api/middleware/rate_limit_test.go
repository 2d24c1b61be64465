package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgerrors "github.com/cosmicpe/auctionhouse-backend/pkg/errors"
)

type fakeRateStore struct {
	counts map[string]int64
	err    error
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{counts: make(map[string]int64)}
}

func (s *fakeRateStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if s.err != nil {
		return false, 0, s.err
	}
	s.counts[scope]++
	return s.counts[scope] <= limit, s.counts[scope], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	store := newFakeRateStore()
	policy := NewRateLimitPolicy("write", time.Minute, 2)
	handler := RateLimit(policy, store, nil)(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", nil)
		req.RemoteAddr = "1.2.3.4:5678"
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if i < 2 {
			if rec.Code != http.StatusOK {
				t.Fatalf("expected success before limit, got %d", rec.Code)
			}
			continue
		}
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}
		var payload struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode error: %v", err)
		}
		if payload.Error.Code != string(pkgerrors.CodeRateLimit) {
			t.Fatalf("unexpected code: %s", payload.Error.Code)
		}
	}
}

func TestRateLimitCountsClientsSeparately(t *testing.T) {
	store := newFakeRateStore()
	policy := NewRateLimitPolicy("write", time.Minute, 1)
	handler := RateLimit(policy, store, nil)(okHandler())

	for _, addr := range []string{"1.2.3.4:1111", "5.6.7.8:2222"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", addr, rec.Code)
		}
	}
}

func TestRateLimitPrefersForwardedFor(t *testing.T) {
	store := newFakeRateStore()
	policy := NewRateLimitPolicy("write", time.Minute, 1)
	handler := RateLimit(policy, store, nil)(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", nil)
		req.RemoteAddr = "10.0.0.1:999"
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if i == 0 && rec.Code != http.StatusOK {
			t.Fatalf("expected first request allowed, got %d", rec.Code)
		}
		if i == 1 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429 for repeated forwarded ip, got %d", rec.Code)
		}
	}
	if _, ok := store.counts["write:203.0.113.7"]; !ok {
		t.Fatalf("expected forwarded ip scope, got %v", store.counts)
	}
}

func TestRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	store := newFakeRateStore()
	policy := NewRateLimitPolicy("write", time.Minute, 0)
	handler := RateLimit(policy, store, nil)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", nil)
	req.RemoteAddr = "1.2.3.4:5678"
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected passthrough, got %d", rec.Code)
	}
	if len(store.counts) != 0 {
		t.Fatalf("expected no counting, got %v", store.counts)
	}
}

func TestRateLimitStoreErrorRejects(t *testing.T) {
	store := newFakeRateStore()
	store.err = errors.New("redis down")
	policy := NewRateLimitPolicy("write", time.Minute, 1)
	handler := RateLimit(policy, store, nil)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", nil)
	req.RemoteAddr = "1.2.3.4:5678"
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
