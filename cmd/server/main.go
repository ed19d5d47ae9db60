// Haulbase - Freight Transportation Management API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/haulbase

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/tomtom215/haulbase/docs" // swagger document
	"github.com/tomtom215/haulbase/internal/api"
	"github.com/tomtom215/haulbase/internal/audit"
	"github.com/tomtom215/haulbase/internal/auth"
	"github.com/tomtom215/haulbase/internal/authz"
	"github.com/tomtom215/haulbase/internal/config"
	"github.com/tomtom215/haulbase/internal/database"
	"github.com/tomtom215/haulbase/internal/documents"
	"github.com/tomtom215/haulbase/internal/events"
	"github.com/tomtom215/haulbase/internal/fmcsa"
	"github.com/tomtom215/haulbase/internal/loadboard"
	"github.com/tomtom215/haulbase/internal/logging"
	"github.com/tomtom215/haulbase/internal/metrics"
	"github.com/tomtom215/haulbase/internal/outbox"
	"github.com/tomtom215/haulbase/internal/supervisor"
	"github.com/tomtom215/haulbase/internal/supervisor/services"
	ws "github.com/tomtom215/haulbase/internal/websocket"
	"github.com/tomtom215/haulbase/internal/workflow"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Haulbase stopped with an error")
	}
}

//nolint:gocyclo // sequential startup wiring
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Service:   "haulbase",
		Version:   version,
	})
	api.Version = version
	started := time.Now()
	metrics.SetAppInfo(version)

	logging.Info().
		Str("version", version).
		Str("db_path", cfg.Database.Path).
		Str("auth_mode", cfg.Security.AuthMode).
		Str("events", cfg.Events.Transport).
		Msg("Starting Haulbase")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === STORAGE ===

	db, err := database.New(&cfg.Database, cfg.Equipment.TableNames)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	if cfg.Database.SeedMockData {
		if err := db.SeedMockData(ctx, cfg.Security.DefaultTenant); err != nil {
			return fmt.Errorf("seed mock data: %w", err)
		}
	}

	blobs, err := documents.OpenBlobStore(cfg.Documents.BlobPath)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}
	defer func() {
		if err := blobs.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing blob store")
		}
	}()

	auditStore := audit.NewDuckDBStore(db.Conn())
	if err := auditStore.CreateTable(ctx); err != nil {
		return fmt.Errorf("create audit table: %w", err)
	}
	auditLogger := audit.NewLogger(auditStore, 1000)
	auditCleanup := audit.NewCleanup(auditStore, cfg.Audit.RetentionDays, cfg.Audit.CleanupInterval)

	// === EVENTS ===

	bus, err := events.NewBus(cfg.Events)
	if err != nil {
		return fmt.Errorf("create event bus: %w", err)
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	box, err := outbox.Open(cfg.Events.OutboxPath, bus, outbox.Config{
		MaxAttempts: cfg.Events.OutboxMaxAttempts,
		EntryTTL:    cfg.Events.OutboxEntryTTL,
	})
	if err != nil {
		return fmt.Errorf("open event outbox: %w", err)
	}
	defer func() {
		if err := box.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event outbox")
		}
	}()

	wsHub := ws.NewHub()
	board := loadboard.NewService(db, box)
	engine := workflow.NewEngine(db, box)

	for name, subscribe := range map[string]func(events.Registrar) error{
		"websocket": wsHub.Subscribe,
		"audit":     auditLogger.Subscribe,
		"workflow":  engine.Subscribe,
	} {
		if err := subscribe(bus); err != nil {
			return fmt.Errorf("subscribe %s: %w", name, err)
		}
	}

	// === SECURITY ===

	enforcer, err := authz.NewEnforcer(authz.EnforcerConfigFrom(&cfg.Security.Casbin))
	if err != nil {
		return fmt.Errorf("create enforcer: %w", err)
	}
	defer enforcer.Close()
	authzService := authz.NewService(db, enforcer)
	if err := authzService.Bootstrap(ctx); err != nil {
		return fmt.Errorf("load roles: %w", err)
	}

	mode := auth.AuthMode(cfg.Security.AuthMode)
	var jwtManager *auth.JWTManager
	if mode == auth.AuthModeJWT {
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			return fmt.Errorf("create JWT manager: %w", err)
		}
	}
	var adminManager *auth.BasicAuthManager
	if cfg.Security.AdminUsername != "" {
		adminManager, err = auth.NewBasicAuthManager(cfg.Security.AdminUsername, cfg.Security.AdminPassword)
		if err != nil {
			return fmt.Errorf("configure admin credentials: %w", err)
		}
	}
	lockout := auth.NewLockout(auth.DefaultLockoutConfig())
	authService := auth.NewService(db, adminManager, jwtManager, lockout, cfg.Security.DefaultTenant)

	switch mode {
	case auth.AuthModeNone:
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: Authentication is DISABLED (AUTH_MODE=none)")
		logging.Warn().Msg("  Every request acts as an admin of the X-Tenant-ID tenant.")
		logging.Warn().Msg("  Use this only for local development and CI.")
		logging.Warn().Msg("============================================================")
	case auth.AuthModeBasic:
		logging.Warn().Msg("Basic Auth sends credentials with each request. Use HTTPS in production!")
	}
	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS_ORIGINS=* lets any website call the API with user credentials")
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED")
	}

	var encryptor *config.CredentialEncryptor
	if cfg.Security.JWTSecret != "" {
		encryptor, err = config.NewCredentialEncryptor(cfg.Security.JWTSecret)
		if err != nil {
			return fmt.Errorf("create credential encryptor: %w", err)
		}
	} else {
		logging.Warn().Msg("No JWT_SECRET set: integration settings cannot be stored")
	}

	// === HTTP ===

	handler := api.NewHandler(api.Dependencies{
		Config:    cfg,
		DB:        db,
		Auth:      authService,
		Authz:     authzService,
		Board:     board,
		Workflows: engine,
		Documents: documents.NewService(db, blobs, cfg.Documents.MaxUploadBytes),
		FMCSA:     fmcsa.NewClient(&cfg.FMCSA, nil),
		Audit:     auditLogger,
		Hub:       wsHub,
		Bus:       bus,
		Outbox:    box,
		Encryptor: encryptor,
	})
	authMiddleware := auth.NewMiddleware(mode, authService, jwtManager)
	if mode == auth.AuthModeOIDC {
		verifier, err := auth.NewOIDCVerifier(ctx, &cfg.Security.OIDC, nil)
		if err != nil {
			return fmt.Errorf("configure OIDC: %w", err)
		}
		authMiddleware.WithOIDC(verifier, auth.ClaimMapping{
			RoleClaim:      cfg.Security.OIDC.RoleClaim,
			TenantClaim:    cfg.Security.OIDC.TenantClaim,
			UsernameClaims: cfg.Security.OIDC.UsernameClaims,
			DefaultRole:    cfg.Security.Casbin.DefaultRole,
		})
	}

	router := api.NewRouter(handler,
		authMiddleware,
		authz.NewMiddleware(authzService),
		auditLogger,
		api.NewChiMiddleware(api.ChiMiddlewareConfigFrom(&cfg.Security)),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	// === SUPERVISOR TREE ===

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	tree.AddDataService(auditLogger)
	tree.AddDataService(auditCleanup)
	tree.AddDataService(blobs)
	tree.AddDataService(handler.Cache())
	tree.AddDataService(lockout)
	tree.AddDataService(services.NewTickerService("uptime", 15*time.Second,
		func(context.Context) { metrics.UpdateUptime(started) }))

	tree.AddMessagingService(bus)
	tree.AddMessagingService(box)
	tree.AddMessagingService(wsHub)

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second,
		services.WithBeforeShutdown(handler.BeginDrain)))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	errCh := tree.ServeBackground(ctx)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, stopping services...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
		stop()
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	logging.Info().Msg("Haulbase stopped gracefully")
	return nil
}
