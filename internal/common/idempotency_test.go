package common

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
)

func idemTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestIdemMiddlewareBlocksReplay(t *testing.T) {
	idem := Idem{R: idemTestClient(t), TTL: time.Minute}
	calls := 0
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	first := httptest.NewRequest(http.MethodPost, "/api/v1/payments/initiate", nil)
	first.Header.Set("Idempotency-Key", "attempt-1")
	rr1 := httptest.NewRecorder()
	handler.ServeHTTP(rr1, first)
	if rr1.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rr1.Code)
	}

	replay := httptest.NewRequest(http.MethodPost, "/api/v1/payments/initiate", nil)
	replay.Header.Set("Idempotency-Key", "attempt-1")
	rr2 := httptest.NewRecorder()
	handler.ServeHTTP(rr2, replay)
	if rr2.Code != http.StatusConflict {
		t.Fatalf("expected 409 on replay got %d", rr2.Code)
	}
	if calls != 1 {
		t.Fatalf("handler should run once, ran %d times", calls)
	}
}

func TestIdemMiddlewareDistinctKeys(t *testing.T) {
	idem := Idem{R: idemTestClient(t), TTL: time.Minute}
	calls := 0
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	for _, key := range []string{"attempt-1", "attempt-2"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
		req.Header.Set("Idempotency-Key", key)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusCreated {
			t.Fatalf("key %q: expected 201 got %d", key, rr.Code)
		}
	}
	if calls != 2 {
		t.Fatalf("expected two handler runs, got %d", calls)
	}
}

func TestIdemMiddlewareNoKeyPassesThrough(t *testing.T) {
	idem := Idem{R: idemTestClient(t), TTL: time.Minute}
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected pass-through 200 got %d", rr.Code)
		}
	}
}
