// Package server assembles the HTTP router and runs the listener.
package server

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/VCDN-2025-INSY7314/pulsevote/internal/audit"
	audithandler "github.com/VCDN-2025-INSY7314/pulsevote/internal/audit/handler"
	authhandler "github.com/VCDN-2025-INSY7314/pulsevote/internal/auth/handler"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/config"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/devreset"
	orghandler "github.com/VCDN-2025-INSY7314/pulsevote/internal/organisation/handler"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/platform/rbac"
	pollhandler "github.com/VCDN-2025-INSY7314/pulsevote/internal/poll/handler"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/security"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/server/middleware"
)

// Deps carries everything the router needs.
type Deps struct {
	Config  *config.Config
	DB      *sql.DB
	Tokens  *security.TokenProvider
	Authz   *rbac.Authorizer
	Auditor audit.AuditLogger

	Auth  *authhandler.Handler
	Orgs  *orghandler.Handler
	Polls *pollhandler.Handler
	Audit *audithandler.Handler
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New builds the router with the full middleware chain and returns a server
// ready to Start.
func New(deps Deps, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Authenticate(deps.Tokens))
	r.Use(middleware.Audit(deps.Auditor))

	r.Get("/health", healthHandler(deps.DB, deps.Authz))

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(auth chi.Router) {
			auth.Use(httprate.LimitByIP(deps.Config.AuthRateLimit, deps.Config.AuthRateWindowDuration()))
			deps.Auth.Routes(auth)
		})
		api.Route("/organisations", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			deps.Orgs.Routes(r)
		})
		api.Route("/polls", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			deps.Polls.Routes(r)
		})
		api.Route("/audit", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			deps.Audit.Routes(r)
		})
	})

	if deps.Config.AllowReset {
		reset := devreset.NewHandler(deps.DB, logger)
		r.Post("/reset", reset.Reset)
		logger.Warn("reset endpoint enabled")
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         deps.Config.HTTPAddr,
			Handler:      otelhttp.NewHandler(r, "pulsevote"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  2 * time.Minute,
		},
		logger: logger,
	}
}

// Start blocks serving requests until Shutdown is called or the listener fails.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func healthHandler(db *sql.DB, authz *rbac.Authorizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			middleware.Error(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
		if err := authz.HealthCheck(ctx); err != nil {
			middleware.Error(w, http.StatusServiceUnavailable, "authorizer unavailable")
			return
		}
		middleware.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
