package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/roledash/internal/config"
	"github.com/JonMunkholm/roledash/internal/core"
	_ "github.com/JonMunkholm/roledash/internal/core/views" // Register all views
	"github.com/JonMunkholm/roledash/internal/export"
	"github.com/JonMunkholm/roledash/internal/logging"
	"github.com/JonMunkholm/roledash/internal/roles"
	"github.com/JonMunkholm/roledash/internal/state"
	"github.com/JonMunkholm/roledash/internal/upstream"
	"github.com/JonMunkholm/roledash/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"upstream", cfg.Upstream.BaseURL,
		"database", cfg.Database.Enabled(),
		"pdf_enabled", cfg.Export.PDFEnabled,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	catalog, err := roles.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		slog.Error("failed to load role catalog", "path", cfg.Catalog.Path, "error", err)
		os.Exit(1)
	}

	api, err := upstream.New(cfg.Upstream.BaseURL, cfg.Upstream.Timeout)
	if err != nil {
		slog.Error("failed to create upstream client", "error", err)
		os.Exit(1)
	}

	// Sessions and audit entries live in PostgreSQL when configured and in
	// memory otherwise. Audit entries always reach the log as well.
	var sessions state.Store = state.NewMemoryStore()
	audit := core.MultiAuditSink{core.SlogAuditSink{}}

	if cfg.Database.Enabled() {
		pool, err := connectDatabase(ctx, &cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pgSessions := state.NewPostgresStore(pool)
		if err := pgSessions.EnsureSchema(ctx); err != nil {
			slog.Error("failed to create session schema", "error", err)
			os.Exit(1)
		}
		pgAudit := core.NewPostgresAuditSink(pool)
		if err := pgAudit.EnsureSchema(ctx); err != nil {
			slog.Error("failed to create audit schema", "error", err)
			os.Exit(1)
		}
		sessions = pgSessions
		audit = append(audit, pgAudit)
	} else {
		slog.Warn("DATABASE_URL not set, sessions are kept in memory")
	}

	var pdf export.PDFRenderer
	if cfg.Export.PDFEnabled {
		pdf = export.NewChromeRenderer(cfg.Export.PDFTimeout)
	}
	renders := core.NewRenderLimiter(cfg.Export.MaxConcurrentPDF, cfg.Export.MaxWait)

	service, err := core.NewService(core.ServiceConfig{
		API:      api,
		Catalog:  catalog,
		Exporter: export.New(pdf, cfg.Export.Title),
		Renders:  renders,
		Audit:    audit,
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	// A catalog file is authoritative; otherwise ask upstream for the
	// current role permissions and keep the embedded ones on failure.
	if cfg.Catalog.Path == "" && cfg.Upstream.SyncRoles {
		if err := service.SyncPermissions(ctx); err != nil {
			slog.Warn("role permission sync failed, using embedded catalog", "error", err)
		}
	}

	slog.Info("views registered", "count", core.ViewCount())
	for _, def := range core.AllViews() {
		slog.Debug("view", "key", def.Info.Key, "title", def.Info.Title)
	}

	server := web.NewServer(service, sessions, cfg)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	go core.StartSessionSweeper(jobCtx, sessions, core.SweepConfig{
		TTL:      cfg.Session.TTL,
		Interval: cfg.Session.SweepInterval,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for in-flight PDF renders (with timeout)
		if st := renders.Status(); st.Active > 0 {
			slog.Info("waiting for exports to complete", "active", st.Active)
			if err := renders.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("exports did not complete in time", "error", err)
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// connectDatabase opens and verifies the connection pool.
func connectDatabase(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}

	// Apply pool configuration from config
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
