package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VCDN-2025-INSY7314/pulsevote/internal/audit"
	audithandler "github.com/VCDN-2025-INSY7314/pulsevote/internal/audit/handler"
	auditrepo "github.com/VCDN-2025-INSY7314/pulsevote/internal/audit/repository"
	authhandler "github.com/VCDN-2025-INSY7314/pulsevote/internal/auth/handler"
	authservice "github.com/VCDN-2025-INSY7314/pulsevote/internal/auth/service"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/config"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/db"
	orghandler "github.com/VCDN-2025-INSY7314/pulsevote/internal/organisation/handler"
	orgrepo "github.com/VCDN-2025-INSY7314/pulsevote/internal/organisation/repository"
	orgservice "github.com/VCDN-2025-INSY7314/pulsevote/internal/organisation/service"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/platform/rbac"
	pollhandler "github.com/VCDN-2025-INSY7314/pulsevote/internal/poll/handler"
	pollrepo "github.com/VCDN-2025-INSY7314/pulsevote/internal/poll/repository"
	pollservice "github.com/VCDN-2025-INSY7314/pulsevote/internal/poll/service"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/security"
	"github.com/VCDN-2025-INSY7314/pulsevote/internal/server"
	otelsetup "github.com/VCDN-2025-INSY7314/pulsevote/internal/telemetry/otel"
	userrepo "github.com/VCDN-2025-INSY7314/pulsevote/internal/user/repository"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		logger.Error("config", "error", "JWT_SECRET is not set")
		os.Exit(1)
	}

	ctx := context.Background()

	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, "pulsevote")
	if err != nil {
		logger.Error("telemetry", "error", err)
		os.Exit(1)
	}
	providers.SetGlobal()

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error("db", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	authz, err := rbac.NewAuthorizer()
	if err != nil {
		logger.Error("rbac", "error", err)
		os.Exit(1)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := security.NewTokenProvider([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL())

	users := userrepo.NewPostgresRepository(conn)
	orgs := orgrepo.NewPostgresRepository(conn)
	polls := pollrepo.NewPostgresRepository(conn)
	audits := auditrepo.NewPostgresRepository(conn)

	authSvc := authservice.NewAuthService(users, hasher, tokens)
	orgSvc := orgservice.NewService(orgs)
	pollSvc := pollservice.NewService(polls, orgs)

	srv := server.New(server.Deps{
		Config:  cfg,
		DB:      conn,
		Tokens:  tokens,
		Authz:   authz,
		Auditor: audit.NewLogger(audits),
		Auth:    authhandler.NewHandler(authSvc, authz),
		Orgs:    orghandler.NewHandler(orgSvc, authz),
		Polls:   pollhandler.NewHandler(pollSvc, authz),
		Audit:   audithandler.NewHandler(audits, authz),
	}, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("serve", "error", err)
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown", "error", err)
	}
	logger.Info("server stopped")
}
