package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jrigden/muckamuck/internal/cache"
	"github.com/jrigden/muckamuck/internal/identity"
	"github.com/jrigden/muckamuck/internal/model"
	"github.com/jrigden/muckamuck/internal/repository"
	"github.com/jrigden/muckamuck/internal/retry"
	"github.com/jrigden/muckamuck/internal/snapshot"
)

// ExportService loads entities from the store and writes their snapshots.
// Writes for the same entity are serialized through the locker; transient
// filesystem failures are retried.
type ExportService struct {
	store  Store
	writer *snapshot.Writer
	locker cache.Locker
	retry  *retry.Config
	logger *slog.Logger
}

// NewExportService creates a new ExportService. A nil locker falls back to an
// in-process lock.
func NewExportService(store Store, writer *snapshot.Writer, locker cache.Locker, retryCfg *retry.Config, logger *slog.Logger) *ExportService {
	if locker == nil {
		locker = cache.NewLocalLocker()
	}
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg := *retryCfg
	cfg.ShouldRetry = snapshot.IsRetryable

	return &ExportService{
		store:  store,
		writer: writer,
		locker: locker,
		retry:  &cfg,
		logger: logger.With("component", "service.export"),
	}
}

// ExportSummary describes an ExportAll run.
type ExportSummary struct {
	RunID    string
	Users    int
	Sites    int
	Changed  int
	Duration time.Duration
}

// Export loads one entity through the store and writes its snapshot. A site
// whose owner cannot be loaded fails at the lookup stage with
// snapshot.ErrReference.
func (s *ExportService) Export(ctx context.Context, kind model.Kind, uuid string) (*snapshot.Result, error) {
	e, err := s.store.Get(ctx, kind, uuid)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrSiteNotFound):
			return nil, ErrSiteNotFound
		case errors.Is(err, repository.ErrUnknownKind):
			return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
		}
		return nil, fmt.Errorf("failed to get %s: %w", kind, err)
	}

	if site, ok := e.(model.Site); ok {
		if err := s.checkOwner(ctx, site); err != nil {
			return nil, err
		}
	}

	return s.write(ctx, e)
}

// ExportUser writes the snapshot of a user.
func (s *ExportService) ExportUser(ctx context.Context, uuid string) (*snapshot.Result, error) {
	return s.Export(ctx, model.KindUser, uuid)
}

// ExportSite writes the snapshot of a site.
func (s *ExportService) ExportSite(ctx context.Context, uuid string) (*snapshot.Result, error) {
	return s.Export(ctx, model.KindSite, uuid)
}

func (s *ExportService) checkOwner(ctx context.Context, site model.Site) error {
	_, err := s.store.GetUserByUUID(ctx, site.OwnerUUID)
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrUserNotFound) {
		return snapshot.NewError(snapshot.StageLookup, model.KindSite, site.UUID,
			fmt.Errorf("%w: owner %q", ErrOwnerNotFound, site.OwnerUUID))
	}
	return fmt.Errorf("failed to get site owner: %w", err)
}

// ExportAll writes every user and then every site. It stops at the first
// failure and returns the summary of what was written so far.
func (s *ExportService) ExportAll(ctx context.Context) (*ExportSummary, error) {
	start := time.Now()
	summary := &ExportSummary{RunID: identity.NewRunID()}
	logger := s.logger.With("run_id", summary.RunID)

	logger.Info("export started")

	fail := func(err error) (*ExportSummary, error) {
		summary.Duration = time.Since(start)
		logger.Error("export aborted",
			slog.Int("users", summary.Users),
			slog.Int("sites", summary.Sites),
			slog.String("error", err.Error()),
		)
		return summary, err
	}

	users, err := s.store.ListUserUUIDs(ctx)
	if err != nil {
		return fail(fmt.Errorf("failed to list users: %w", err))
	}
	for _, uuid := range users {
		res, err := s.ExportUser(ctx, uuid)
		if err != nil {
			return fail(err)
		}
		summary.Users++
		if res.Changed {
			summary.Changed++
		}
	}

	sites, err := s.store.ListSiteUUIDs(ctx)
	if err != nil {
		return fail(fmt.Errorf("failed to list sites: %w", err))
	}
	for _, uuid := range sites {
		res, err := s.ExportSite(ctx, uuid)
		if err != nil {
			return fail(err)
		}
		summary.Sites++
		if res.Changed {
			summary.Changed++
		}
	}

	summary.Duration = time.Since(start)
	logger.Info("export finished",
		slog.Int("users", summary.Users),
		slog.Int("sites", summary.Sites),
		slog.Int("changed", summary.Changed),
		slog.Duration("duration", summary.Duration),
	)
	return summary, nil
}

// write takes the entity's lock and runs the writer, retrying transient
// failures. The entity is passed by value so the store's copy is never
// touched.
func (s *ExportService) write(ctx context.Context, e model.Entity) (*snapshot.Result, error) {
	key := cache.SnapshotLockKey(string(e.Kind()), e.ID())
	unlock, err := s.locker.Lock(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", key, err)
	}
	defer unlock()

	op := fmt.Sprintf("snapshot %s %s", e.Kind(), e.ID())
	return retry.Do(ctx, s.retry, s.logger, op, func(context.Context) (*snapshot.Result, error) {
		return s.writer.WriteSnapshot(e)
	})
}
