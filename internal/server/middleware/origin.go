package middleware

import (
	"context"
	"net/http"

	"github.com/Kuroukai/Kuroukai-api/internal/clientip"
)

// ClientIPKey is the context key for the resolved client origin.
const ClientIPKey contextKey = "client_ip"

// ClientIP resolves the request's client origin from proxy headers and the
// peer address and stores it in the request context. The resolved value is
// used for session attribution and audit logging only, never for access
// control.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientip.Resolve(r.Header, r.RemoteAddr, false)
		ctx := context.WithValue(r.Context(), ClientIPKey, ip)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClientIP extracts the resolved client origin from the context. Returns
// the unknown sentinel if the middleware did not run.
func GetClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ClientIPKey).(string); ok {
		return ip
	}
	return clientip.Unknown
}
