package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/swing/internal/adapters/repository/factory"
	"github.com/okian/swing/internal/adapters/source"
	"github.com/okian/swing/internal/config"
	"github.com/okian/swing/internal/domain/artifactcache"
	"github.com/okian/swing/pkg/logger"
)

// FromConfig opens the configured store and file event source and builds a
// Service over them. The returned close function releases the store.
func FromConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, func() error, error) {
	profiles, err := config.LoadSports(cfg.SportsFile)
	if err != nil {
		return nil, nil, err
	}
	store, err := factory.Open(ctx, cfg.StoreDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}

	files := source.NewFile(cfg.SourceDir)
	cache := artifactcache.NewInMemory[[]string](
		artifactcache.WithTTL(time.Duration(cfg.CacheTTLSec)*time.Second),
		artifactcache.WithMaxSize(cfg.CacheSize),
	)

	base := []Option{
		WithProfiles(profiles),
		WithDefaultSport(cfg.DefaultSport),
		WithLister(source.NewCachedLister(files, cache)),
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithBatchTimeout(time.Duration(cfg.BatchTimeoutSec) * time.Second),
	}
	svc := New(store, files, append(base, opts...)...)
	svc.logger.Debug(ctx, "service configured",
		logger.String("store", config.StoreScheme(cfg.StoreDSN)),
		logger.String("source_dir", files.Dir()),
		logger.Int("sports", len(profiles)),
		logger.Int("workers", svc.workerCount))
	return svc, store.Close, nil
}
