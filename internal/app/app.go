package app

import (
	"context"
	"sync"

	"github.com/oddsarb/engine/internal/bookie"
	"github.com/oddsarb/engine/internal/ingestion"
	"github.com/oddsarb/engine/internal/resolver"
	"github.com/oddsarb/engine/internal/storage"
	"github.com/oddsarb/engine/internal/table"
	"github.com/oddsarb/engine/pkg/cache"
	"github.com/oddsarb/engine/pkg/config"
	"github.com/oddsarb/engine/pkg/healthprobe"
	"github.com/oddsarb/engine/pkg/httpserver"
	"go.uber.org/zap"
)

// App is the main application orchestrator: it owns the match table, one
// ingestion goroutine per configured bookie, the resolver, and the audit
// store, and wires them together for the process's lifetime.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server

	table        *table.Table
	dedupe       cache.Cache
	resolveQueue ingestion.ResolveQueue
	resolverSvc  *resolver.Resolver
	store        storage.Store
	bookies      []*bookie.Bookie

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Options holds application options.
type Options struct {
	// SingleHost restricts ingestion to one configured bookmaker account,
	// by host — useful when debugging a single source in isolation.
	SingleHost string
}
