package app

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/oddsarb/engine/internal/bookie"
	"github.com/oddsarb/engine/internal/ingestion"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.Int("accounts", len(a.bookies)),
		zap.String("storage-mode", a.cfg.StorageMode),
		zap.String("log-level", a.cfg.LogLevel))

	a.startComponents()

	a.healthChecker.SetReady(true)

	a.logger.Info("application-ready", zap.String("http-addr", ":"+a.cfg.HTTPPort))

	return a.waitForShutdown()
}

func (a *App) startComponents() {
	a.wg.Add(1)
	go a.runHTTPServer()

	// Give the HTTP server a moment to bind before the rest of the
	// pipeline starts producing traffic it might want to report on.
	time.Sleep(100 * time.Millisecond)

	a.wg.Add(1)
	go a.runResolver()

	for _, b := range a.bookies {
		a.wg.Add(1)
		go a.runBookie(b)
	}
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runResolver() {
	defer a.wg.Done()
	a.resolverSvc.Run(a.ctx, a.resolveQueue)
}

func (a *App) runBookie(b *bookie.Bookie) {
	defer a.wg.Done()
	ingestion.RunGambler(a.ctx, b, a.table, a.resolveQueue, a.cfg.RetryDelay, a.logger.Named(b.Host))
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
