// Package placement coordinates simultaneous bet placement across the
// bookmakers involved in an arbitrage opportunity, using a reusable
// barrier so that either every bookmaker confirms or the whole attempt
// aborts without a partial hold surviving.
package placement

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oddsarb/engine/internal/bookie"
	"github.com/oddsarb/engine/internal/currency"
	"github.com/oddsarb/engine/internal/market"
)

// Pair is one leg of a candidate arbitrage: a specific bookie, the offer it
// is advertising, the outcome selected within that offer, and its Unbiased
// stake rate.
type Pair struct {
	Bookie  *bookie.Bookie
	Offer   market.Offer
	Outcome market.Outcome
	Rate    float64
}

// Bet is a single leg of a persisted Combo.
type Bet struct {
	Host    string
	OID     market.OID
	Title   *string // nil means the outcome was the draw
	Expiry  uint32
	Coef    float64
	Stake   currency.Currency
	Profit  float64
	Placed  bool
}

// Combo is the audit record of one coordinated placement attempt.
type Combo struct {
	ID   uuid.UUID
	Date uint32
	Kind market.Kind
	Bets []Bet
}

// AuditStore is the subset of the audit store the placement protocol needs:
// recording a Combo before any bet is placed, and marking legs as placed
// once PlaceBet succeeds.
type AuditStore interface {
	Save(ctx context.Context, combo Combo) error
	MarkAsPlaced(ctx context.Context, host string, oid market.OID, title *string) error
}

// distribute computes each pair's stake from its Unbiased rate: the column
// with the smallest rate gets exactly BaseStake, and every other column is
// scaled proportionally. It returns an error if any computed stake would
// exceed maxStake or exceed that bookie's current balance.
func distribute(pairs []Pair, baseStake, maxStake currency.Currency) ([]currency.Currency, error) {
	base := pairs[0].Rate
	for _, p := range pairs {
		if p.Rate < base {
			base = p.Rate
		}
	}

	stakes := make([]currency.Currency, len(pairs))
	for i, p := range pairs {
		stake := baseStake.Mul(p.Rate / base)
		if stake > maxStake {
			return nil, errStakeTooLarge(p.Bookie.Host, stake, maxStake)
		}
		if stake > p.Bookie.Balance() {
			return nil, errInsufficientBalance(p.Bookie.Host, stake, p.Bookie.Balance())
		}
		stakes[i] = stake
	}

	return stakes, nil
}

// Place validates and then coordinates placement of a 2-or-3-leg arbitrage.
// It never partially holds: the full validation pass runs before any hold
// is taken, and holds are only released as each worker's deferred guard
// finishes (success or abort).
func Place(ctx context.Context, pairs []Pair, baseStake, maxStake currency.Currency, checkTimeout time.Duration, store AuditStore, logger *zap.Logger) error {
	stakes, err := distribute(pairs, baseStake, maxStake)
	if err != nil {
		rejectedTotal.Inc()
		return err
	}

	for i, p := range pairs {
		if !p.Bookie.Hold(stakes[i]) {
			for j := 0; j < i; j++ {
				pairs[j].Bookie.Release(stakes[j])
			}
			rejectedTotal.Inc()
			return errInsufficientBalance(p.Bookie.Host, stakes[i], p.Bookie.Balance())
		}
	}

	return commit(ctx, pairs, stakes, checkTimeout, store, logger)
}

func commit(ctx context.Context, pairs []Pair, stakes []currency.Currency, checkTimeout time.Duration, store AuditStore, logger *zap.Logger) error {
	n := len(pairs)
	barrier := NewBarrier(n + 1)

	done := make([]bool, n)
	combo := Combo{ID: uuid.New(), Kind: market.Series}

	for i := range pairs {
		combo.Bets = append(combo.Bets, toBet(pairs[i], stakes[i]))
	}
	combo.Date = pairs[0].Offer.Date

	var wg sync.WaitGroup
	wg.Add(n)
	for i := range pairs {
		go func(i int) {
			defer wg.Done()
			defer func() {
				if !done[i] {
					pairs[i].Bookie.Release(stakes[i])
				}
			}()
			worker(ctx, pairs[i], stakes[i], barrier, checkTimeout, done, i, logger)
		}(i)
	}

	placedAttemptsTotal.Inc()

	firstSync := barrier.WaitTimeout(checkTimeout)
	secondSync := barrier.WaitTimeout(checkTimeout)

	if !firstSync || !secondSync {
		abortedTotal.Inc()
		wg.Wait()
		return errAbortedSync()
	}

	if err := store.Save(ctx, combo); err != nil {
		logger.Error("failed to persist combo", zap.Error(err), zap.String("combo", combo.ID.String()))
	}

	barrier.Wait()
	wg.Wait()

	for i := range pairs {
		if done[i] {
			title := combo.Bets[i].Title
			if err := store.MarkAsPlaced(ctx, pairs[i].Bookie.Host, pairs[i].Offer.OID, title); err != nil {
				logger.Error("failed to mark bet placed", zap.Error(err), zap.String("host", pairs[i].Bookie.Host))
			}
		}
	}

	return nil
}

// worker implements the per-pair glance/check/sync/glance/sync/wait/place
// sequence. A failed glance or check aborts this worker immediately,
// without calling WaitTimeout again — it never rejoins the size-(N+1)
// barrier. Since the barrier only releases once every party has arrived,
// one worker dropping out forces the orchestrator's own WaitTimeout calls
// in commit() to time out, which aborts the whole combo: no Combo is ever
// saved and every leg's hold is released. This is the mechanism that
// enforces all-or-nothing placement across every leg.
func worker(ctx context.Context, p Pair, stake currency.Currency, barrier *Barrier, checkTimeout time.Duration, done []bool, idx int, logger *zap.Logger) {
	accepted := p.Bookie.Gambler.GlanceOffer(ctx, p.Offer)
	if accepted {
		result := p.Bookie.Gambler.CheckOffer(ctx, p.Offer, p.Outcome, stake)
		accepted = result != nil && *result
	}
	if !accepted {
		return
	}

	if !barrier.WaitTimeout(checkTimeout) {
		return
	}

	if !p.Bookie.Gambler.GlanceOffer(ctx, p.Offer) {
		return
	}

	if !barrier.WaitTimeout(checkTimeout) {
		return
	}

	barrier.Wait()

	if p.Bookie.Gambler.PlaceBet(ctx, p.Offer, p.Outcome, stake) {
		done[idx] = true
		placedLegsTotal.Inc()
	} else {
		logger.Warn("place_bet returned false", zap.String("host", p.Bookie.Host))
	}
}

func toBet(p Pair, stake currency.Currency) Bet {
	var title *string
	if !p.Outcome.IsDraw() {
		t := p.Outcome.Title
		title = &t
	}
	return Bet{
		Host:   p.Bookie.Host,
		OID:    p.Offer.OID,
		Title:  title,
		Expiry: p.Offer.Date,
		Coef:   p.Outcome.Coef,
		Stake:  stake,
		Profit: p.Rate*p.Outcome.Coef - 1,
	}
}
