// Package main is the entrypoint for the muckamuck API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/jrigden/muckamuck/internal/auth"
	"github.com/jrigden/muckamuck/internal/cache"
	"github.com/jrigden/muckamuck/internal/config"
	"github.com/jrigden/muckamuck/internal/handler"
	"github.com/jrigden/muckamuck/internal/metrics"
	"github.com/jrigden/muckamuck/internal/repository"
	"github.com/jrigden/muckamuck/internal/retry"
	"github.com/jrigden/muckamuck/internal/server"
	"github.com/jrigden/muckamuck/internal/service"
	"github.com/jrigden/muckamuck/internal/snapshot"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Schema first, then the pool
	if err := repository.Migrate(ctx, cfg.DatabaseURL); err != nil {
		logger.Error(
			"failed to migrate database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error(
			"failed to connect to database",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Redis is optional; without it snapshot locks are process-local.
	var (
		cacheClient *cache.Cache
		locker      cache.Locker
		cacheHealth handler.HealthChecker
	)
	if cfg.HasRedis() {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			repo.Close()
			os.Exit(1)
		}
		locker = cache.NewRedisLocker(cacheClient, cfg.ExportLockTTL, logger)
		cacheHealth = cacheClient
		logger.Info("connected to Redis")
	} else {
		locker = cache.NewLocalLocker()
		logger.Warn("REDIS_URL not set, using in-process snapshot locks")
	}

	// Snapshot output tree
	resolver, err := snapshot.NewResolver(cfg.OutputDirectory)
	if err != nil {
		logger.Error("invalid output directory", "error", err)
		os.Exit(1)
	}
	if err := snapshot.EnsureDir(resolver.Root()); err != nil {
		logger.Error("failed to prepare output directory", "root", resolver.Root(), "error", err)
		os.Exit(1)
	}

	// Initialize services
	metricsRecorder := metrics.NewPrometheus()
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.ExportRetryAttempts

	writer := snapshot.NewWriter(resolver, logger, metricsRecorder)
	userService := service.NewUserService(repo, auth.NewArgon2Hasher(auth.DefaultParams()), metricsRecorder)
	siteService := service.NewSiteService(repo, metricsRecorder)
	exportService := service.NewExportService(repo, writer, locker, retryCfg, logger)

	// Initialize handlers
	routes := server.Routes{
		Root:      handler.New(),
		Health:    handler.NewHealthHandler(repo, cacheHealth, handler.OutputDirChecker(resolver.Root())),
		Users:     handler.NewUserHandler(userService, siteService, exportService, logger),
		Sites:     handler.NewSiteHandler(siteService, exportService, logger),
		Snapshots: handler.NewSnapshotHandler(exportService, logger),
		Metrics:   metricsRecorder.Handler(),
	}

	r := server.NewRouter(routes, server.RouterConfig{
		Logger:             logger,
		IsDevelopment:      cfg.IsDevelopment(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	})

	// Create and run server
	srv := server.New(r, server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	srv.OnShutdown("postgres", func(ctx context.Context) error {
		repo.Close()
		return nil
	})
	if cacheClient != nil {
		srv.OnShutdown("redis", func(ctx context.Context) error {
			return cacheClient.Close()
		})
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"output_directory", resolver.Root(),
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger builds the process logger on stdout and installs it as the slog
// default.
func initLogger(cfg *config.Config) *slog.Logger {
	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)
	return logger
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
