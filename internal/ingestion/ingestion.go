// Package ingestion drives each configured Bookie through its lifecycle,
// feeding the match table and waking the resolver whenever a market grows
// to two or more offers.
package ingestion

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/oddsarb/engine/internal/bookie"
	"github.com/oddsarb/engine/internal/market"
	"github.com/oddsarb/engine/internal/table"
)

// ResolveQueue is the channel the resolver drains offer-keys from. A
// non-blocking send drops the key (and bumps a metric) when the resolver
// can't keep up, matching the rest of this codebase's non-blocking-channel
// idiom for backpressure.
type ResolveQueue chan market.Offer

// RunGambler drives a single Bookie for the lifetime of ctx: it repeatedly
// authorizes, checks balance, and runs the long-lived Watch call, running
// degradation on every exit (including a recovered panic) and backing off
// with doubling delay between attempts. The first attempt never waits.
func RunGambler(ctx context.Context, b *bookie.Bookie, tbl *table.Table, resolve ResolveQueue, retryDelay time.Duration, logger *zap.Logger) {
	delay := time.Duration(0)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if delay > 0 {
			b.SetSleeping(time.Now().Add(delay))
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}

		attemptsTotal.WithLabelValues(b.Host).Inc()
		err := attempt(ctx, b, tbl, resolve, logger)
		degrade(b, tbl, logger)

		if err != nil {
			logger.Warn("bookie watch exited", zap.String("host", b.Host), zap.Error(err))
		}

		if delay == 0 {
			delay = retryDelay
		} else {
			delay *= 2
		}
	}
}

// attempt runs one authorize/check-balance/watch cycle, converting any
// panic into a returned error so the caller's degradation always runs.
func attempt(ctx context.Context, b *bookie.Bookie, tbl *table.Table, resolve ResolveQueue, logger *zap.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("terminated due to panic", zap.String("host", b.Host), zap.Any("panic", r))
			err = fmt.Errorf("panic in runGambler for %s: %v", b.Host, r)
		}
	}()

	b.SetStage(bookie.Preparing)

	user, pass := b.Credentials()
	if authErr := b.Gambler.Authorize(ctx, user, pass); authErr != nil {
		return fmt.Errorf("authorize: %w", authErr)
	}

	bal, balErr := b.Gambler.CheckBalance(ctx)
	if balErr != nil {
		return fmt.Errorf("check balance: %w", balErr)
	}
	b.SetBalance(bal)

	b.SetStage(bookie.Running)

	return b.Gambler.Watch(ctx, func(offer market.Offer, upsert bool) {
		marked := table.MarkedOffer{Bookie: b, Offer: offer}

		if !upsert {
			tbl.RemoveOffer(marked)
			offerEventsTotal.WithLabelValues(b.Host, "remove").Inc()
			return
		}

		offerEventsTotal.WithLabelValues(b.Host, "upsert").Inc()

		n, ok := tbl.UpdateOffer(marked)
		if !ok || n < 2 {
			return
		}

		select {
		case resolve <- offer:
		default:
			resolveDroppedTotal.WithLabelValues(b.Host).Inc()
			logger.Warn("resolve queue full, dropping offer key", zap.String("host", b.Host))
		}
	})
}

// degrade transitions b to Aborted and removes every offer it currently
// believes is active from the table, releasing the table of any stale
// entries from this source.
func degrade(b *bookie.Bookie, tbl *table.Table, logger *zap.Logger) {
	b.SetStage(bookie.Aborted)

	for _, offer := range b.Gambler.Drain() {
		tbl.RemoveOffer(table.MarkedOffer{Bookie: b, Offer: offer})
	}

	degradationsTotal.WithLabelValues(b.Host).Inc()
	logger.Info("bookie degraded", zap.String("host", b.Host))
}
