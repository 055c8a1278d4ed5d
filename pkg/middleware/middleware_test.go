package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ebooking/pkg/logger"
	"ebooking/pkg/model"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
}

// ────────────────────────────────────────────────
// Authentication
// ────────────────────────────────────────────────

func TestAuthenticate(t *testing.T) {
	log := logger.Discard()
	auth := NewAuthenticator("test-secret", "ebooking")
	other := NewAuthenticator("another-secret", "ebooking")

	valid, err := auth.Issue(model.Principal{UserID: "u-1", Name: "Alice", Role: model.RoleAdmin}, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	expired, _ := auth.Issue(model.Principal{UserID: "u-1"}, -time.Minute)
	forged, _ := other.Issue(model.Principal{UserID: "u-1"}, time.Hour)

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
	}{
		{"valid token", "/api/v1/bookings/my", "Bearer " + valid, http.StatusOK},
		{"lowercase scheme", "/api/v1/bookings/my", "bearer " + valid, http.StatusOK},
		{"missing header", "/api/v1/bookings/my", "", http.StatusUnauthorized},
		{"no scheme", "/api/v1/bookings/my", valid, http.StatusUnauthorized},
		{"expired", "/api/v1/bookings/my", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong secret", "/api/v1/bookings/my", "Bearer " + forged, http.StatusUnauthorized},
		{"public path", "/api/v1/payments/success", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen model.Principal
			h := Authenticate(auth, log, "/api/v1/payments/success")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = PrincipalFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if tt.wantStatus == http.StatusOK && tt.header != "" {
				if seen.UserID != "u-1" || !seen.IsAdmin() || seen.Name != "Alice" {
					t.Errorf("principal = %+v", seen)
				}
			}
		})
	}
}

func TestParse_UnknownRoleFallsBackToUser(t *testing.T) {
	auth := NewAuthenticator("s", "")
	tok, _ := auth.Issue(model.Principal{UserID: "u-2", Role: "ROOT"}, time.Hour)

	p, err := auth.Parse("Bearer " + tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Role != model.RoleUser {
		t.Errorf("role = %s, want USER", p.Role)
	}
}

func TestRequireAdmin(t *testing.T) {
	if _, err := RequireAdmin(context.Background()); err == nil {
		t.Error("expected unauthorized without principal")
	}
	ctx := WithPrincipal(context.Background(), model.Principal{UserID: "u", Role: model.RoleUser})
	if _, err := RequireAdmin(ctx); err == nil || !strings.Contains(err.Error(), "FORBIDDEN") {
		t.Errorf("expected forbidden, got %v", err)
	}
	ctx = WithPrincipal(context.Background(), model.Principal{UserID: "a", Role: model.RoleAdmin})
	if _, err := RequireAdmin(ctx); err != nil {
		t.Errorf("admin rejected: %v", err)
	}
}

// ────────────────────────────────────────────────
// Rate limiting
// ────────────────────────────────────────────────

func TestRateLimit_PerCaller(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour, 2, logger.Discard())
	defer rl.Stop()
	h := RateLimit(rl)(okHandler())

	call := func(userID string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/my", nil)
		req = req.WithContext(WithPrincipal(req.Context(), model.Principal{UserID: userID}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	if call("alice") != http.StatusOK || call("alice") != http.StatusOK {
		t.Fatal("burst should be allowed")
	}
	if got := call("alice"); got != http.StatusTooManyRequests {
		t.Errorf("third call = %d, want 429", got)
	}
	if got := call("bob"); got != http.StatusOK {
		t.Errorf("other caller = %d, want 200", got)
	}
}

// ────────────────────────────────────────────────
// Idempotency
// ────────────────────────────────────────────────

func TestIdempotency_ReplaysSuccessfulResponse(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	var calls int32
	h := Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]int32{"call": n})
	}))

	send := func(user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(`{}`))
		req.Header.Set(IdempotencyHeader, "key-1")
		req = req.WithContext(WithPrincipal(req.Context(), model.Principal{UserID: user}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	first := send("alice")
	second := send("alice")
	if first.Body.String() != second.Body.String() {
		t.Errorf("replayed body differs: %s vs %s", first.Body.String(), second.Body.String())
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Error("replay header missing")
	}
	send("bob")
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("handler calls = %d, want 2", calls)
	}
}

// ────────────────────────────────────────────────
// Recovery, content type, timeout
// ────────────────────────────────────────────────

func TestRecovery_ReturnsInternalError(t *testing.T) {
	h := Recovery(logger.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "boom") {
		t.Error("panic value leaked to client")
	}
}

func TestContentTypeValidation(t *testing.T) {
	h := ContentTypeValidation(logger.Discard())(okHandler())

	tests := []struct {
		name        string
		method      string
		body        string
		contentType string
		want        int
	}{
		{"json post", http.MethodPost, `{}`, "application/json; charset=utf-8", http.StatusOK},
		{"text post", http.MethodPost, `{}`, "text/plain", http.StatusUnsupportedMediaType},
		{"bodyless put", http.MethodPut, "", "", http.StatusOK},
		{"get", http.MethodGet, "", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body == "" {
				req = httptest.NewRequest(tt.method, "/", nil)
			} else {
				req = httptest.NewRequest(tt.method, "/", strings.NewReader(tt.body))
			}
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestRequestTimeout(t *testing.T) {
	h := RequestTimeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", rr.Code)
	}
}

func TestRequestLogging_PropagatesRequestID(t *testing.T) {
	const id = "6f1c2c1e-8d8b-4b7c-9f59-0c1b7c1f3a10"
	var seen string
	h := RequestLogging(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, id)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if seen != id || rr.Header().Get(RequestIDHeader) != id {
		t.Errorf("request id not propagated: ctx=%q header=%q", seen, rr.Header().Get(RequestIDHeader))
	}
}
