// Package resolver drains offer-keys enqueued by the ingestion loop,
// realizes a market into a priced arbitrage opportunity, and hands
// profitable ones off to the placement protocol.
package resolver

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/oddsarb/engine/internal/bookie"
	"github.com/oddsarb/engine/internal/currency"
	"github.com/oddsarb/engine/internal/market"
	"github.com/oddsarb/engine/internal/matcher"
	"github.com/oddsarb/engine/internal/opportunity"
	"github.com/oddsarb/engine/internal/placement"
	"github.com/oddsarb/engine/internal/table"
	"github.com/oddsarb/engine/pkg/cache"
)

// dedupeTTL bounds how long a market badge's content-hash is remembered so
// a burst of updates to the same market within one tick doesn't re-run
// collation and the audit store's contains-check once per update.
const dedupeTTL = 2 * time.Second

// Config bundles the resolver's tunables, sourced from pkg/config.
type Config struct {
	MinProfit    float64
	MaxProfit    float64
	BaseStake    currency.Currency
	MaxStake     currency.Currency
	CheckTimeout time.Duration
}

// Resolver drains the offer-key channel handed to Run by the ingestion side.
type Resolver struct {
	cfg    Config
	table  *table.Table
	store  placement.AuditStore
	dedupe cache.Cache
	logger *zap.Logger
}

// New builds a Resolver. dedupe may be nil, in which case deduping is
// skipped (every key is resolved fresh).
func New(cfg Config, tbl *table.Table, store placement.AuditStore, dedupe cache.Cache, logger *zap.Logger) *Resolver {
	return &Resolver{cfg: cfg, table: tbl, store: store, dedupe: dedupe, logger: logger}
}

// Run drains keys until ctx is canceled or the channel is closed.
func (r *Resolver) Run(ctx context.Context, keys <-chan market.Offer) {
	for {
		select {
		case <-ctx.Done():
			return
		case key, ok := <-keys:
			if !ok {
				return
			}
			r.resolve(ctx, key)
		}
	}
}

func (r *Resolver) resolve(ctx context.Context, key market.Offer) {
	dedupeKey := strconv.FormatUint(market.ContentHash(matcher.RoundDate(key.Date), key.Game, key.Kind, len(key.Outcomes)), 36)

	if r.dedupe != nil {
		if _, hit := r.dedupe.Get(dedupeKey); hit {
			cacheHitsTotal.Inc()
			return
		}
		r.dedupe.Set(dedupeKey, struct{}{}, dedupeTTL)
	}

	guard, found := r.table.GetMarket(key)
	if !found {
		resolutionsTotal.WithLabelValues("absent").Inc()
		return
	}

	entries := append([]table.MarkedOffer(nil), guard.Market()...)
	badge := guard.Badge()
	guard.Release()

	if len(entries) < 2 {
		resolutionsTotal.WithLabelValues("thin").Inc()
		return
	}

	for _, m := range entries {
		b, ok := m.Bookie.(*bookie.Bookie)
		if ok && b.Stage() != bookie.Running {
			resolutionsTotal.WithLabelValues("bookie-not-running").Inc()
			r.logger.Warn("skipping market with non-running bookie", zap.String("host", b.Host))
			return
		}
	}

	etalon := badge.Outcomes
	rows := make([][]market.Outcome, len(entries))
	for i, m := range entries {
		rows[i] = matcher.CollateOutcomes(etalon, m.Offer.Outcomes)
	}

	columns := len(etalon)
	best := make([]float64, columns)
	bestRow := make([]int, columns)
	for c := 0; c < columns; c++ {
		best[c] = rows[0][c].Coef
		bestRow[c] = 0
		for i := 1; i < len(rows); i++ {
			if rows[i][c].Coef > best[c] {
				best[c] = rows[i][c].Coef
				bestRow[c] = i
			}
		}
	}

	margin := opportunity.Margin(best)
	marginGauge.Set(margin)

	if margin >= 1 {
		resolutionsTotal.WithLabelValues("no-arbitrage").Inc()
		return
	}

	result := opportunity.FindBest(opportunity.Unbiased, best)

	minProfit, maxProfit := result.Profits[0], result.Profits[0]
	for _, p := range result.Profits {
		if p < minProfit {
			minProfit = p
		}
		if p > maxProfit {
			maxProfit = p
		}
	}

	switch {
	case maxProfit > r.cfg.MaxProfit:
		resolutionsTotal.WithLabelValues("suspicious").Inc()
		r.logger.Warn("suspiciously high profit, skipping", zap.Float64("profit", maxProfit))
		return
	case minProfit < r.cfg.MinProfit:
		resolutionsTotal.WithLabelValues("too-small").Inc()
		return
	}

	pairs := make([]placement.Pair, columns)
	for c := 0; c < columns; c++ {
		m := entries[bestRow[c]]
		b, ok := m.Bookie.(*bookie.Bookie)
		if !ok {
			resolutionsTotal.WithLabelValues("bad-bookie-ref").Inc()
			return
		}

		if alreadyBet(ctx, r.store, b.Host, m.Offer.OID) {
			resolutionsTotal.WithLabelValues("already-bet").Inc()
			return
		}

		pairs[c] = placement.Pair{
			Bookie:  b,
			Offer:   m.Offer,
			Outcome: rows[bestRow[c]][c],
			Rate:    result.Rates[c],
		}
	}

	resolutionsTotal.WithLabelValues("placing").Inc()
	if err := placement.Place(ctx, pairs, r.cfg.BaseStake, r.cfg.MaxStake, r.cfg.CheckTimeout, r.store, r.logger); err != nil {
		r.logger.Warn("placement failed", zap.Error(err))
	}
}

// containsChecker is the minimal audit-store capability the resolver needs
// beyond placement.AuditStore; a concrete Store implements both.
type containsChecker interface {
	Contains(ctx context.Context, host string, oid market.OID) (bool, error)
}

func alreadyBet(ctx context.Context, store placement.AuditStore, host string, oid market.OID) bool {
	cc, ok := store.(containsChecker)
	if !ok {
		return false
	}
	exists, err := cc.Contains(ctx, host, oid)
	return err == nil && exists
}
