package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/Kuroukai/Kuroukai-api/internal/model"
	"github.com/Kuroukai/Kuroukai-api/internal/session"
)

// SessionKey is the context key for the authenticated admin session.
const SessionKey contextKey = "admin_session"

// SessionCookieName is the cookie carrying the admin session token.
const SessionCookieName = "kuroukai_session"

// SessionAuth validates the admin session cookie against the session store.
// A missing, unknown, or expired token yields a 401 JSON error; expired
// tokens are evicted by the store as a side effect of the check. On success
// the session snapshot is attached to the request context.
func SessionAuth(sessions *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if c, err := r.Cookie(SessionCookieName); err == nil {
				token = c.Value
			}

			sess, err := sessions.RequireAuth(token)
			if err != nil {
				msg := "Authentication required"
				if errors.Is(err, session.ErrSessionExpired) {
					msg = "Session expired"
				}
				writeAuthError(w, msg)
				return
			}

			ctx := context.WithValue(r.Context(), SessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession extracts the authenticated session from the context. The
// second return is false for unauthenticated requests.
func GetSession(ctx context.Context) (model.AdminSession, bool) {
	sess, ok := ctx.Value(SessionKey).(model.AdminSession)
	return sess, ok
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	// Manually construct JSON to avoid an import cycle with the handler package.
	w.Write([]byte(`{"error":{"code":401,"message":"` + message + `"}}`))
}
