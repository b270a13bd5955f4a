// Package main is a one-shot snapshot exporter. It writes the snapshot of one
// entity, or of every stored entity, and exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jrigden/muckamuck/internal/cache"
	"github.com/jrigden/muckamuck/internal/config"
	"github.com/jrigden/muckamuck/internal/metrics"
	"github.com/jrigden/muckamuck/internal/model"
	"github.com/jrigden/muckamuck/internal/repository"
	"github.com/jrigden/muckamuck/internal/retry"
	"github.com/jrigden/muckamuck/internal/service"
	"github.com/jrigden/muckamuck/internal/snapshot"
)

func main() {
	var (
		kind = flag.String("kind", "all", "Entity kind to export: user, site or all")
		uuid = flag.String("uuid", "", "Entity UUID (required unless -kind=all)")
	)
	flag.Parse()

	if err := validateFlags(*kind, *uuid); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Logs go to stderr; the exporter has no stdout output.
	logger := cfg.NewLogger(os.Stderr).With("component", "export")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, model.Kind(*kind), *uuid); err != nil {
		logger.Error("export failed", "error", err, "stage", snapshot.StageOf(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, kind model.Kind, uuid string) error {
	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer repo.Close()

	// Share the server's lock namespace when Redis is available.
	var locker cache.Locker = cache.NewLocalLocker()
	if cfg.HasRedis() {
		c, err := cache.New(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer c.Close()
		locker = cache.NewRedisLocker(c, cfg.ExportLockTTL, logger)
	}

	resolver, err := snapshot.NewResolver(cfg.OutputDirectory)
	if err != nil {
		return err
	}
	if err := snapshot.EnsureDir(resolver.Root()); err != nil {
		return err
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.ExportRetryAttempts

	writer := snapshot.NewWriter(resolver, logger, metrics.NewNoop())
	export := service.NewExportService(repo, writer, locker, retryCfg, logger)

	if kind == "all" {
		summary, err := export.ExportAll(ctx)
		if err != nil {
			return err
		}
		logger.Info("export complete",
			"run_id", summary.RunID,
			"users", summary.Users,
			"sites", summary.Sites,
			"changed", summary.Changed,
			"duration", summary.Duration,
		)
		return nil
	}

	res, err := export.Export(ctx, kind, uuid)
	if err != nil {
		return err
	}
	logger.Info("snapshot written",
		"kind", res.Kind,
		"uuid", res.UUID,
		"path", res.Path,
		"changed", res.Changed,
	)
	return nil
}

func validateFlags(kind, uuid string) error {
	switch {
	case kind == "all":
		if uuid != "" {
			return fmt.Errorf("-uuid cannot be combined with -kind=all")
		}
		return nil
	case !model.Kind(kind).IsValid():
		return fmt.Errorf("invalid kind %q; use user, site or all", kind)
	case uuid == "":
		return fmt.Errorf("-uuid is required for -kind=%s", kind)
	}
	return nil
}
