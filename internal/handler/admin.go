package handler

import (
	"log/slog"
	"net/http"

	"github.com/Kuroukai/Kuroukai-api/internal/clientip"
	"github.com/Kuroukai/Kuroukai-api/internal/model"
	"github.com/Kuroukai/Kuroukai-api/internal/server/middleware"
	"github.com/Kuroukai/Kuroukai-api/internal/session"
)

// AdminHandler exposes the operator session surface: login, logout,
// session introspection and bulk clearing.
type AdminHandler struct {
	sessions *session.Store
	logger   *slog.Logger
	dev      bool
}

// NewAdminHandler creates an AdminHandler. In dev mode the session cookie
// is set without the Secure flag so it works over plain HTTP.
func NewAdminHandler(sessions *session.Store, logger *slog.Logger, dev bool) *AdminHandler {
	return &AdminHandler{
		sessions: sessions,
		logger:   logger,
		dev:      dev,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates the operator and sets the session cookie: HTTP-only,
// SameSite=Strict, Secure outside dev mode, max age equal to the session
// TTL. Failed attempts are logged with the resolved origin for audit.
// POST /api/v1/admin/session
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	ip := middleware.GetClientIP(r.Context())
	token, err := h.sessions.Authenticate(req.Username, req.Password, ip, r.UserAgent())
	if err != nil {
		h.logger.Warn("admin login failed",
			"username", req.Username,
			"client_ip", ip,
		)
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	http.SetCookie(w, h.sessionCookie(token, int(h.sessions.TTL().Seconds())))
	h.logger.Info("admin login", "client_ip", ip)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"expires_in": int(h.sessions.TTL().Seconds()),
	})
}

// Logout removes the current session and clears the cookie. It always
// succeeds: logging out an unknown or already-removed token reaches the
// same end state.
// DELETE /api/v1/admin/session
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(middleware.SessionCookieName); err == nil {
		h.sessions.Logout(c.Value)
	}

	http.SetCookie(w, h.sessionCookie("", -1))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// CurrentSession returns the authenticated session's own record.
// GET /api/v1/admin/session
func (h *AdminHandler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.GetSession(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// ListSessions returns snapshots of all stored sessions. Entries that are
// logically expired but not yet evicted are included; eviction only happens
// on an authenticated-access attempt.
// GET /api/v1/admin/sessions
func (h *AdminHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	list := h.sessions.List()

	resource := make([]interface{}, len(list))
	for i := range list {
		resource[i] = list[i]
	}
	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: resource,
		Meta:     &model.ResponseMeta{Count: len(list)},
	})
}

// ClearSessions removes every session, including the caller's own.
// DELETE /api/v1/admin/sessions
func (h *AdminHandler) ClearSessions(w http.ResponseWriter, r *http.Request) {
	n := h.sessions.ClearAll()
	writeJSON(w, http.StatusOK, map[string]int{"cleared": n})
}

// Origin is the diagnostic endpoint returning both the public-preferred
// and first-valid origin resolutions for the current request.
// GET /api/v1/admin/origin
func (h *AdminHandler) Origin(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, clientip.Inspect(r.Header, r.RemoteAddr))
}

func (h *AdminHandler) sessionCookie(token string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   !h.dev,
	}
}
