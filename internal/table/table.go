// Package table implements the concurrent match table: a fixed array of
// mutex-guarded shards grouping semantically-equivalent Offers from
// different bookmakers into markets.
package table

import (
	"sync"

	"github.com/oddsarb/engine/internal/market"
	"github.com/oddsarb/engine/internal/matcher"
)

// MarkedOffer tags an Offer with the identity of its originating Bookie.
// Bookie identity is compared with ==, so callers should pass a stable,
// comparable value (typically a *bookie.Bookie pointer) — the table package
// itself has no notion of what a Bookie is.
type MarkedOffer struct {
	Bookie any
	Offer  market.Offer
}

// Bucket groups every currently-live MarkedOffer believed to describe the
// same real event. Badge is the first offer inserted; later offers are
// compared against it via the fuzzy matcher.
type Bucket struct {
	Badge  market.Offer
	Market []MarkedOffer
}

type shard struct {
	mu      sync.Mutex
	buckets []*Bucket
}

// Table is a fixed-capacity array of shards. Placement into a shard is by
// the offer's content-hash over (rounded date, game, kind, outcome count).
type Table struct {
	shards []*shard
}

// New builds a Table with the given shard count. A non-positive capacity is
// clamped to 1.
func New(capacity int) *Table {
	if capacity < 1 {
		capacity = 1
	}
	t := &Table{shards: make([]*shard, capacity)}
	for i := range t.shards {
		t.shards[i] = &shard{}
	}
	return t
}

func (t *Table) shardFor(o market.Offer) *shard {
	h := market.ContentHash(matcher.RoundDate(o.Date), o.Game, o.Kind, len(o.Outcomes))
	return t.shards[h%uint64(len(t.shards))]
}

// sameEventDifferentDimension reports whether badge and offer describe the
// same rounded-date/game/kind slot but disagree on outcome count — a
// scrape-glitch case that must be rejected rather than silently spawning a
// second, dimension-mismatched bucket for the same event.
func sameEventDifferentDimension(badge, offer market.Offer) bool {
	if matcher.RoundDate(badge.Date) != matcher.RoundDate(offer.Date) {
		return false
	}
	if badge.Game != offer.Game || badge.Kind != offer.Kind {
		return false
	}
	return len(badge.Outcomes) != len(offer.Outcomes)
}

// UpdateOffer inserts or replaces marked in its matching bucket, creating a
// new bucket when no existing bucket's badge fuzzy-matches. It returns the
// resulting market length and false when the update was rejected for an
// outcome-count mismatch against an existing bucket for the same event.
func (t *Table) UpdateOffer(marked MarkedOffer) (int, bool) {
	s := t.shardFor(marked.Offer)
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.buckets {
		if sameEventDifferentDimension(b.Badge, marked.Offer) {
			rejectedDimensionTotal.Inc()
			return 0, false
		}

		if len(b.Badge.Outcomes) != len(marked.Offer.Outcomes) {
			continue
		}
		if !matcher.CompareOffers(marked.Offer, b.Badge) {
			continue
		}

		for i, m := range b.Market {
			if m.Bookie == marked.Bookie {
				b.Market[i] = marked
				updatesTotal.WithLabelValues("replaced").Inc()
				return len(b.Market), true
			}
		}

		b.Market = append(b.Market, marked)
		updatesTotal.WithLabelValues("appended").Inc()
		return len(b.Market), true
	}

	s.buckets = append(s.buckets, &Bucket{
		Badge:  marked.Offer,
		Market: []MarkedOffer{marked},
	})
	bucketsTotal.Inc()
	updatesTotal.WithLabelValues("created").Inc()
	return 1, true
}

// RemoveOffer deletes the entry matching both marked.Bookie and the offer's
// OID, deleting the owning bucket if it becomes empty.
func (t *Table) RemoveOffer(marked MarkedOffer) {
	s := t.shardFor(marked.Offer)
	s.mu.Lock()
	defer s.mu.Unlock()

	for bi, b := range s.buckets {
		idx := -1
		for i, m := range b.Market {
			if m.Bookie == marked.Bookie && m.Offer.OID == marked.Offer.OID {
				idx = i
				break
			}
		}
		if idx == -1 {
			continue
		}

		b.Market = append(b.Market[:idx], b.Market[idx+1:]...)
		removalsTotal.Inc()

		if len(b.Market) == 0 {
			s.buckets = append(s.buckets[:bi], s.buckets[bi+1:]...)
			bucketsTotal.Dec()
		}
		return
	}
}

// MarketGuard is a read guard bound to the shard holding a single Bucket.
// The shard stays locked until Release is called.
type MarketGuard struct {
	shard  *shard
	bucket *Bucket
}

// Market returns the bucket's current MarkedOffers.
func (g *MarketGuard) Market() []MarkedOffer { return g.bucket.Market }

// Badge returns the bucket's reference offer.
func (g *MarketGuard) Badge() market.Offer { return g.bucket.Badge }

// Release unlocks the underlying shard. Callers must call this exactly
// once per successful GetMarket.
func (g *MarketGuard) Release() { g.shard.mu.Unlock() }

// GetMarket returns a guard bound to the bucket matching offer, or false if
// none exists.
func (t *Table) GetMarket(offer market.Offer) (*MarketGuard, bool) {
	s := t.shardFor(offer)
	s.mu.Lock()

	for _, b := range s.buckets {
		if len(b.Badge.Outcomes) != len(offer.Outcomes) {
			continue
		}
		if !matcher.CompareOffers(offer, b.Badge) {
			continue
		}
		return &MarketGuard{shard: s, bucket: b}, true
	}

	s.mu.Unlock()
	return nil, false
}

// Iter calls fn once per bucket, in shard-major order. Each shard is locked
// for the duration of its own buckets' calls and released before moving to
// the next shard.
func (t *Table) Iter(fn func(*Bucket)) {
	for _, s := range t.shards {
		s.mu.Lock()
		for _, b := range s.buckets {
			fn(b)
		}
		s.mu.Unlock()
	}
}
