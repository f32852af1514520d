package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alfredjeanlab/flags/internal/config"
	"github.com/alfredjeanlab/flags/internal/events"
	"github.com/alfredjeanlab/flags/internal/flags"
	"github.com/alfredjeanlab/flags/internal/registry"
	"github.com/alfredjeanlab/flags/internal/store"
	"github.com/alfredjeanlab/flags/internal/store/breaker"
	"github.com/alfredjeanlab/flags/internal/store/memory"
	"github.com/alfredjeanlab/flags/internal/store/natskv"
	"github.com/alfredjeanlab/flags/internal/store/postgres"
	"github.com/alfredjeanlab/flags/internal/store/sqlite"
)

// stack is everything behind the façade: the backend, the registry over it,
// the event publisher and the façade itself.
type stack struct {
	store     store.Store
	registry  *registry.Registry
	publisher events.Publisher
	service   *flags.Service
	logger    *slog.Logger
}

// openStore connects to the backend selected by cfg.Store.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store {
	case config.StorePostgres:
		return postgres.New(ctx, cfg.DatabaseURL)
	case config.StoreSQLite:
		return sqlite.Open(ctx, cfg.SQLitePath, sqlite.DefaultBusyTimeout)
	case config.StoreNATS:
		return natskv.Open(ctx, cfg.KVURL, cfg.KVBucket)
	case config.StoreMemory:
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}

// buildStack opens the configured store and assembles the registry and
// façade on top of it. actor names the writer in change events.
func buildStack(ctx context.Context, cfg *config.Config, logger *slog.Logger, actor string) (*stack, error) {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	logger.Info("store opened", "kind", cfg.Store)

	var publisher events.Publisher
	if cfg.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			st.Close()
			return nil, err
		}
		publisher = pub
		logger.Info("events enabled", "nats_url", cfg.NATSURL)
	} else {
		publisher = &events.NoopPublisher{}
		logger.Debug("events disabled (FLAGS_NATS_URL not set)")
	}

	guarded := breaker.Wrap(st, breaker.Settings{
		Failures: cfg.BreakerFailures,
		Cooldown: cfg.BreakerCooldown,
		Logger:   logger,
	})
	reg := registry.New(guarded,
		registry.WithCache(cfg.CacheSize, cfg.CacheTTL),
		registry.WithPublisher(publisher),
		registry.WithLogger(logger),
		registry.WithTimeout(cfg.StoreTimeout),
		registry.WithActor(actor),
	)

	return &stack{
		store:     guarded,
		registry:  reg,
		publisher: publisher,
		service:   flags.New(reg, logger),
		logger:    logger,
	}, nil
}

// Close releases the publisher and the store.
func (s *stack) Close() error {
	if err := s.publisher.Close(); err != nil {
		s.logger.Error("error closing publisher", "err", err)
	}
	return s.store.Close()
}

// quietLogger is used by --transport local, where the CLI output is the
// interface and only warnings belong on stderr.
func quietLogger(cfg *config.Config) *slog.Logger {
	if cfg.LogLevel == "debug" {
		return cfg.Logger(os.Stderr)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}
