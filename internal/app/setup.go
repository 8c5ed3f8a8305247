package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/oddsarb/engine/internal/bookie"
	"github.com/oddsarb/engine/internal/currency"
	"github.com/oddsarb/engine/internal/gamblers/demo"
	"github.com/oddsarb/engine/internal/ingestion"
	"github.com/oddsarb/engine/internal/resolver"
	"github.com/oddsarb/engine/internal/storage"
	"github.com/oddsarb/engine/internal/table"
	"github.com/oddsarb/engine/pkg/cache"
	"github.com/oddsarb/engine/pkg/config"
	"github.com/oddsarb/engine/pkg/healthprobe"
	"github.com/oddsarb/engine/pkg/httpserver"
)

// resolveQueueBuffer bounds how many distinct offer-keys the resolver can
// have queued before the ingestion loop starts dropping them (see
// ingestion.ResolveQueue's non-blocking-send doc comment).
const resolveQueueBuffer = 256

// New creates a new application instance, wiring one Bookie (and ingestion
// goroutine) per configured account, a Resolver draining their combined
// resolve queue, and the configured audit store.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	dedupe, err := setupDedupeCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup dedupe cache: %w", err)
	}

	store, err := setupStore(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup store: %w", err)
	}

	tbl := table.New(cfg.TableCapacity)

	bookies, err := setupBookies(cfg, logger, opts)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup bookies: %w", err)
	}

	resolveQueue := make(ingestion.ResolveQueue, resolveQueueBuffer)

	resolverSvc := resolver.New(resolver.Config{
		MinProfit:    cfg.MinProfit,
		MaxProfit:    cfg.MaxProfit,
		BaseStake:    currency.FromFloat(cfg.BaseStake),
		MaxStake:     currency.FromFloat(cfg.MaxStake),
		CheckTimeout: cfg.CheckTimeout,
	}, tbl, store, dedupe, logger)

	httpServer := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Table:         tbl,
		Store:         store,
		HistorySize:   cfg.HistorySize,
		ComboCount:    cfg.ComboCount,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		table:         tbl,
		dedupe:        dedupe,
		resolveQueue:  resolveQueue,
		resolverSvc:   resolverSvc,
		store:         store,
		bookies:       bookies,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupDedupeCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 100000,
		MaxCost:     10000,
		BufferItems: 64,
		Logger:      logger,
	})
}

func setupStore(cfg *config.Config, logger *zap.Logger) (storage.Store, error) {
	if cfg.StorageMode == "postgres" {
		pgStore, err := storage.NewPostgresStore(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres store: %w", err)
		}
		return pgStore, nil
	}

	return storage.NewConsoleStore(logger), nil
}

// setupBookies constructs one Bookie (and its demo Gambler adapter) per
// configured account. opts.SingleHost, if set, restricts this to the one
// matching account — useful for debugging a single source in isolation.
func setupBookies(cfg *config.Config, logger *zap.Logger, opts *Options) ([]*bookie.Bookie, error) {
	var bookies []*bookie.Bookie

	for _, acct := range cfg.Accounts {
		if opts.SingleHost != "" && acct.Host != opts.SingleHost {
			continue
		}

		adapter := demo.New(demo.Config{
			URL:            acct.Host,
			DialTimeout:    10 * time.Second,
			RequestTimeout: cfg.CheckTimeout,
			Logger:         logger.Named(acct.Host),
		})

		bookies = append(bookies, bookie.New(acct.Host, acct.Username, acct.Password, adapter, currency.Zero))
	}

	if len(bookies) == 0 {
		return nil, fmt.Errorf("no bookie accounts configured (single-host filter %q matched none)", opts.SingleHost)
	}

	return bookies, nil
}
