package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	values map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	return s.values[key], nil
}

func (s *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := s.values[key]; ok {
		return false, nil
	}
	s.values[key] = value.(string)
	return true, nil
}

func (s *memoryStore) IdempotencyKey(scope, id string) string {
	return "gk:idempotency:" + scope + ":" + id
}

func (s *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"order_number":"GK-20260831-ABC123"}}`))
	}))

	userID := uuid.New()
	do := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "key-1")
		req = req.WithContext(WithUser(req.Context(), userID, "retailer", ""))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	first := do(`{"items":[{"product_id":"p","quantity":2}]}`)
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", first.Code)
	}
	if calls != 1 {
		t.Fatalf("expected one handler call, got %d", calls)
	}

	replay := do(`{"items":[{"product_id":"p","quantity":2}]}`)
	if replay.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d", replay.Code)
	}
	if calls != 1 {
		t.Fatalf("replay must not hit the handler, calls=%d", calls)
	}
	if replay.Body.String() != first.Body.String() {
		t.Fatalf("replayed body differs: %q vs %q", replay.Body.String(), first.Body.String())
	}

	conflicting := do(`{"items":[{"product_id":"p","quantity":9}]}`)
	if conflicting.Code != http.StatusConflict {
		t.Fatalf("expected 409 for reused key with new body, got %d", conflicting.Code)
	}
}

func TestIdempotencySkipsUnmatchedRoutes(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Idempotency-Key", "key-1")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if calls != 2 {
		t.Fatalf("GET must bypass idempotency capture, calls=%d", calls)
	}
	if len(store.values) != 0 {
		t.Fatalf("nothing should be stored for unmatched routes")
	}
}
