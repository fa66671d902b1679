package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Kuroukai/Kuroukai-api/internal/clientip"
	"github.com/Kuroukai/Kuroukai-api/internal/session"
)

// ---------------------------------------------------------------------------
// RequestID middleware tests
// ---------------------------------------------------------------------------

func TestRequestIDGeneratesUUID(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestID(r.Context()) == "" {
			t.Error("expected non-empty request ID in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	respID := rr.Header().Get("X-Request-ID")
	if respID == "" {
		t.Error("expected X-Request-ID in response header")
	}
	if len(respID) != 36 {
		t.Errorf("expected UUID-length request ID, got %q (len=%d)", respID, len(respID))
	}
}

func TestRequestIDPreservesClientID(t *testing.T) {
	clientID := "my-custom-trace-id-123"

	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := GetRequestID(r.Context()); id != clientID {
			t.Errorf("expected context ID %q, got %q", clientID, id)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", clientID)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if respID := rr.Header().Get("X-Request-ID"); respID != clientID {
		t.Errorf("expected response X-Request-ID %q, got %q", clientID, respID)
	}
}

// ---------------------------------------------------------------------------
// ClientIP middleware tests
// ---------------------------------------------------------------------------

func TestClientIPResolvesHeaders(t *testing.T) {
	handler := ClientIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := GetClientIP(r.Context()); ip != "203.0.113.5" {
			t.Errorf("expected resolved IP %q, got %q", "203.0.113.5", ip)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	req.RemoteAddr = "10.0.0.2:4444"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
}

func TestGetClientIPEmptyContext(t *testing.T) {
	if ip := GetClientIP(context.Background()); ip != clientip.Unknown {
		t.Errorf("expected %q for missing middleware, got %q", clientip.Unknown, ip)
	}
}

// ---------------------------------------------------------------------------
// SessionAuth middleware tests
// ---------------------------------------------------------------------------

func newSessionStore(t *testing.T) *session.Store {
	t.Helper()
	return session.NewStore(session.Config{
		Username: "admin",
		Password: "secret",
		TTL:      time.Hour,
	})
}

func TestSessionAuthMissingCookie(t *testing.T) {
	sessions := newSessionStore(t)

	handler := SessionAuth(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached without a session cookie")
	}))

	req := httptest.NewRequest("GET", "/admin", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Authentication required") {
		t.Errorf("unexpected body: %s", rr.Body.String())
	}
}

func TestSessionAuthValidToken(t *testing.T) {
	sessions := newSessionStore(t)
	token, err := sessions.Authenticate("admin", "secret", "203.0.113.5", "test")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	reached := false
	handler := SessionAuth(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		sess, ok := GetSession(r.Context())
		if !ok {
			t.Fatal("expected session in context")
		}
		if sess.IP != "203.0.113.5" {
			t.Errorf("session ip: got %q, want %q", sess.IP, "203.0.113.5")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if !reached {
		t.Error("handler was not reached with a valid session")
	}
}

func TestSessionAuthUnknownToken(t *testing.T) {
	sessions := newSessionStore(t)

	handler := SessionAuth(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached with an unknown token")
	}))

	req := httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "bogus"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
}

func TestGetSessionEmptyContext(t *testing.T) {
	if _, ok := GetSession(context.Background()); ok {
		t.Error("expected no session in empty context")
	}
}
