package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/Kuroukai/Kuroukai-api/internal/handler"
	"github.com/Kuroukai/Kuroukai-api/internal/keys"
	"github.com/Kuroukai/Kuroukai-api/internal/openapi"
	"github.com/Kuroukai/Kuroukai-api/internal/server/middleware"
	"github.com/Kuroukai/Kuroukai-api/internal/session"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	Dev             bool
	LoginRateLimit  int // login attempts per minute per IP
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		LoginRateLimit:  10,
	}
}

// Server is the top-level HTTP server. It owns the chi router, the key
// service, and the session store.
type Server struct {
	cfg        Config
	router     chi.Router
	keySvc     *keys.Service
	sessions   *session.Store
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Server, wires up all routes and middleware, and returns it
// ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, keySvc *keys.Service, sessions *session.Store, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		keySvc:   keySvc,
		sessions: sessions,
		logger:   logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.ClientIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/openapi.json", openapi.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		keyHandler := handler.NewKeyHandler(s.keySvc)

		r.Route("/keys", func(r chi.Router) {
			r.Post("/", keyHandler.CreateKey)
			r.Get("/", keyHandler.ListKeys)
			r.Get("/{keyID}", keyHandler.GetKey)
			r.Get("/{keyID}/validate", keyHandler.ValidateKey)
			r.Post("/{keyID}/revoke", keyHandler.RevokeKey)
			r.Delete("/{keyID}", keyHandler.DeleteKey)
		})

		r.Route("/admin", func(r chi.Router) {
			adminHandler := handler.NewAdminHandler(s.sessions, s.logger, s.cfg.Dev)

			// Login is rate limited per resolved client IP. The session store
			// itself performs no rate limiting; that is this layer's job.
			r.Group(func(r chi.Router) {
				r.Use(httprate.Limit(s.cfg.LoginRateLimit, time.Minute,
					httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
						return middleware.GetClientIP(r.Context()), nil
					}),
				))
				r.Post("/session", adminHandler.Login)
			})

			// Logout is self-authenticated: it only needs the cookie.
			r.Delete("/session", adminHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.SessionAuth(s.sessions))

				r.Get("/session", adminHandler.CurrentSession)
				r.Get("/sessions", adminHandler.ListSessions)
				r.Delete("/sessions", adminHandler.ClearSessions)
				r.Get("/origin", adminHandler.Origin)
			})
		})
	})

	s.router = r
}

// Router returns the configured chi router, used by tests to serve requests
// without binding a socket.
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// ListenAndServe starts the HTTP server and blocks until SIGINT or SIGTERM,
// then shuts down gracefully within the configured timeout.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
