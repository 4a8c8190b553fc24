package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/bookkeeping_engine/internal/core/ports"
	portsrepo "github.com/SscSPs/bookkeeping_engine/internal/core/ports/repositories"
	"github.com/SscSPs/bookkeeping_engine/internal/core/services"
	"github.com/SscSPs/bookkeeping_engine/internal/integrity"
	"github.com/SscSPs/bookkeeping_engine/internal/observability"
	"github.com/SscSPs/bookkeeping_engine/internal/platform/config"
	"github.com/SscSPs/bookkeeping_engine/internal/repositories/database/bolt"
	"github.com/SscSPs/bookkeeping_engine/internal/repositories/database/memory"
	mongostore "github.com/SscSPs/bookkeeping_engine/internal/repositories/database/mongo"
	"github.com/SscSPs/bookkeeping_engine/internal/repositories/database/pgsql"
	"github.com/SscSPs/bookkeeping_engine/pkg/database"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// runtime is the process-wide wiring: the store, the optional Redis side
// channel and the book container built on top of them.
type runtime struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     portsrepo.Store
	registry  *prometheus.Registry
	redis     *redis.Client
	warnings  *integrity.RedisReporter
	container *services.Container

	closers []func()
}

// openRuntime wires the store and side channels described by cfg. On error
// everything opened so far is closed again.
func openRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*runtime, error) {
	rt := &runtime{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	if err := rt.open(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *runtime) open(ctx context.Context) (err error) {
	cfg, logger := rt.cfg, rt.logger
	if rt.store, err = rt.openStore(ctx); err != nil {
		return err
	}

	reporters := integrity.Multi{&integrity.LogReporter{Logger: logger}}
	if cfg.RedisAddr != "" {
		rt.redis, err = database.NewRedisClient(ctx, cfg.RedisAddr, cfg.EnableDBCheck)
		if err != nil {
			return err
		}
		rt.closers = append(rt.closers, func() { _ = rt.redis.Close() })

		queue := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		rt.closers = append(rt.closers, func() { _ = queue.Close() })

		rt.warnings = integrity.NewRedisReporter(rt.redis, cfg.IntegrityKey)
		reporters = append(reporters, rt.warnings, integrity.NewQueueReporter(queue))
	}

	rt.container = services.NewContainer(rt.store,
		services.WithLogger(logger),
		services.WithMaxAccountPath(cfg.MaxAccountPath),
		services.WithPrecision(cfg.Precision),
		services.WithMetrics(observability.NewMetrics(rt.registry)),
		services.WithIntegrityReporter(ports.IntegrityReporter(reporters)),
	)
	return nil
}

func (rt *runtime) openStore(ctx context.Context) (portsrepo.Store, error) {
	cfg := rt.cfg
	switch cfg.Store {
	case config.StoreMemory:
		return memory.New(), nil

	case config.StoreBolt:
		s, err := bolt.Open(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() {
			if cerr := s.Close(); cerr != nil {
				rt.logger.Error("Error closing bolt store", slog.String("error", cerr.Error()))
			}
		})
		return s, nil

	case config.StoreMongo:
		client, err := database.NewMongoClient(ctx, cfg.MongoURI, cfg.EnableDBCheck)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() { database.CloseMongoClient(context.Background(), client) })

		s := mongostore.New(client, cfg.MongoDatabase)
		if err := s.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		if cfg.MongoTransactions {
			return mongostore.NewTransactional(s), nil
		}
		return s, nil

	case config.StorePgSQL:
		if err := pgsql.Migrate(cfg.DatabaseURL, rt.logger); err != nil {
			return nil, err
		}
		pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() { database.ClosePgxPool(pool) })
		return pgsql.NewJournalRepository(pool), nil

	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// book opens the named book over the runtime's store.
func (rt *runtime) book(name string) (*services.Book, error) {
	return rt.container.Book(name)
}

// Close releases everything opened by openRuntime, last opened first.
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}
