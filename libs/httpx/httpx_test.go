package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestChainOrderAndActor(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	var gotActor, gotRequestID string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotActor = ActorFromContext(r.Context())
		gotRequestID = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}), WithRequestID, WithActor, mark("a"), mark("b"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ActorHeader, " user-1 ")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("unexpected middleware order %v", order)
	}
	if gotActor != "user-1" {
		t.Fatalf("expected trimmed actor, got %q", gotActor)
	}
	if gotRequestID == "" || rec.Header().Get(RequestIDHeader) != gotRequestID {
		t.Fatalf("request id not propagated: ctx=%q header=%q", gotRequestID, rec.Header().Get(RequestIDHeader))
	}
}

func TestRequireActor(t *testing.T) {
	h := RequireActor(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	call := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := call("10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, code)
		}
	}
	if code := call("10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
	if code := call("10.0.0.2:1234"); code != http.StatusOK {
		t.Fatalf("other client should not be limited, got %d", code)
	}
}
