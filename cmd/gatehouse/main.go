package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/gatehouse/pkg/api"
	"github.com/platinummonkey/gatehouse/pkg/audit"
	"github.com/platinummonkey/gatehouse/pkg/config"
	"github.com/platinummonkey/gatehouse/pkg/observability"
	"github.com/platinummonkey/gatehouse/pkg/password"
	"github.com/platinummonkey/gatehouse/pkg/roles"
	"github.com/platinummonkey/gatehouse/pkg/session"
	"github.com/platinummonkey/gatehouse/pkg/storage"
	"github.com/platinummonkey/gatehouse/pkg/users"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gatehouse: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.WithFields(map[string]interface{}{
		"driver":          cfg.Storage.Driver,
		"session_backend": cfg.Storage.SessionBackend,
		"port":            cfg.Server.Port,
	}).Info("Starting gatehouse")

	ctx := context.Background()

	// Database
	db, err := storage.OpenDB(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	if err := users.RunMigrations(ctx, db, users.Dialect(cfg.Storage.Driver)); err != nil {
		db.Close()
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("Database ready")

	// Session store
	var (
		sessionStore session.Store
		memoryStore  *session.MemoryStore
		redisClient  *redis.Client
	)
	switch cfg.Storage.SessionBackend {
	case storage.SessionBackendRedis:
		redisClient, err = storage.NewRedisClient(ctx, cfg.Storage)
		if err != nil {
			db.Close()
			return fmt.Errorf("connecting to redis: %w", err)
		}
		sessionStore = session.NewRedisStore(redisClient, cfg.Storage.SessionTTL)
		logger.Info("Session backend: redis")
	default:
		memoryStore, err = session.NewMemoryStore(cfg.Storage.MemoryCapacity, cfg.Storage.SessionTTL)
		if err != nil {
			db.Close()
			return fmt.Errorf("creating memory session store: %w", err)
		}
		sessionStore = memoryStore
		logger.Info("Session backend: memory")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	// Tracing
	tracerProvider, err := observability.InitTracing(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		db.Close()
		return fmt.Errorf("initializing tracing: %w", err)
	}

	// Audit trail
	auditor, err := buildAuditLogger(cfg.Audit, db)
	if err != nil {
		db.Close()
		return fmt.Errorf("initializing audit trail: %w", err)
	}

	// Domain services
	userStore := users.NewSQLStore(db)
	roleStore := roles.NewSQLStore(db)
	userService := users.NewService(userStore, roleStore, password.NewDefaultVerifier())
	sessionManager := session.NewManager(sessionStore, cfg.Session.CookieName, cfg.Session.SecureCookie)

	server := api.NewServer(api.Options{
		Users:     userService,
		UserStore: userStore,
		Roles:     roles.NewResolver(roleStore),
		Sessions:  sessionManager,
		Logger:    logger,
		Metrics:   metrics,
		Auditor:   auditor,
		Tracing:   tracerProvider != nil,
		Debug:     cfg.Server.DebugEndpoints,
	})

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics on a separate listener so probes stay off the
	// public port
	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(db, redisClient))
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:        net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler:     healthMux,
		ReadTimeout: 10 * time.Second,
	}

	// Background jobs
	scheduler := cron.New()
	if memoryStore != nil {
		if _, err := scheduler.AddFunc("@every 1m", func() {
			swept := memoryStore.Sweep()
			if swept > 0 {
				logger.WithField("count", swept).Debug("Swept expired sessions")
			}
			if metrics != nil {
				metrics.SessionsSweptTotal.Add(float64(swept))
			}
		}); err != nil {
			db.Close()
			return fmt.Errorf("scheduling session sweep: %w", err)
		}
	}
	if metrics != nil {
		if _, err := scheduler.AddFunc("@every 15s", func() {
			metrics.UpdateDBStats(db)
		}); err != nil {
			db.Close()
			return fmt.Errorf("scheduling db stats refresh: %w", err)
		}
	}
	scheduler.Start()

	shutdown := observability.NewShutdownManager(logger, apiServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return db.Close()
	})
	if redisClient != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return redisClient.Close()
		})
	}
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return auditor.Close()
	})
	if tracerProvider != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return tracerProvider.Shutdown(ctx)
		})
	}
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		stopped := scheduler.Stop()
		select {
		case <-stopped.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", apiServer.Addr).Info("API server listening")
		if err := apiServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("Health server listening")
		if err := healthServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(shutdown.WaitForShutdown)

	return g.Wait()
}

// buildAuditLogger assembles the configured audit sinks. With everything
// disabled the events are dropped.
func buildAuditLogger(cfg config.AuditConfig, db *sql.DB) (audit.Logger, error) {
	var sinks []audit.Logger
	if cfg.FilePath != "" {
		fl, err := audit.NewFileLogger(cfg.FilePath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, fl)
	}
	if cfg.DBEnabled {
		sinks = append(sinks, audit.NewDBLogger(db))
	}
	switch len(sinks) {
	case 0:
		return audit.NopLogger{}, nil
	case 1:
		return sinks[0], nil
	default:
		return audit.NewMultiLogger(sinks...), nil
	}
}
