// Package gambler defines the contract every bookmaker-specific adapter
// must satisfy to be driven by the ingestion loop, plus the error taxonomy
// those adapters report through.
package gambler

import (
	"context"

	"github.com/oddsarb/engine/internal/currency"
	"github.com/oddsarb/engine/internal/market"
)

// Gambler is a single bookmaker source. Implementations are expected to be
// long-lived and are driven entirely from the ingestion loop's runGambler
// goroutine; a Gambler need not be safe for concurrent use by more than one
// such goroutine, but GlanceOffer/CheckOffer/PlaceBet are invoked
// concurrently from placement workers and must tolerate that.
type Gambler interface {
	// Authorize establishes a session against the source.
	Authorize(ctx context.Context, user, pass string) error

	// CheckBalance fetches the current account balance.
	CheckBalance(ctx context.Context) (currency.Currency, error)

	// Watch is a long-lived call: it invokes cb for every offer event until
	// it returns due to an unrecoverable error, context cancellation, or a
	// remote disconnect.
	Watch(ctx context.Context, cb func(market.Offer, bool)) error

	// GlanceOffer is a cheap re-read: it reports whether offer still exists
	// at acceptable odds.
	GlanceOffer(ctx context.Context, offer market.Offer) bool

	// CheckOffer asks the bookmaker to verify that outcome at stake would
	// currently be accepted. nil means unknown (inconclusive).
	CheckOffer(ctx context.Context, offer market.Offer, outcome market.Outcome, stake currency.Currency) *bool

	// PlaceBet attempts to place the bet and reports whether it succeeded.
	PlaceBet(ctx context.Context, offer market.Offer, outcome market.Outcome, stake currency.Currency) bool

	// Drain enumerates offers this source currently believes are active,
	// used by degradation to know what to remove from the table.
	Drain() []market.Offer
}
