package resolver

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oddsarb/engine/internal/bookie"
	"github.com/oddsarb/engine/internal/currency"
	"github.com/oddsarb/engine/internal/market"
	"github.com/oddsarb/engine/internal/placement"
	"github.com/oddsarb/engine/internal/table"
)

type okGambler struct{}

func (okGambler) Authorize(ctx context.Context, user, pass string) error { return nil }
func (okGambler) CheckBalance(ctx context.Context) (currency.Currency, error) {
	return currency.FromFloat(100), nil
}
func (okGambler) Watch(ctx context.Context, cb func(market.Offer, bool)) error { return nil }
func (okGambler) GlanceOffer(ctx context.Context, offer market.Offer) bool     { return true }
func (okGambler) CheckOffer(ctx context.Context, offer market.Offer, outcome market.Outcome, stake currency.Currency) *bool {
	ok := true
	return &ok
}
func (okGambler) PlaceBet(ctx context.Context, offer market.Offer, outcome market.Outcome, stake currency.Currency) bool {
	return true
}
func (okGambler) Drain() []market.Offer { return nil }

type fakeStore struct {
	mu     sync.Mutex
	saved  []placement.Combo
	placed int
	seen   map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{seen: map[string]bool{}}
}

func (s *fakeStore) Save(ctx context.Context, combo placement.Combo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, combo)
	return nil
}

func (s *fakeStore) MarkAsPlaced(ctx context.Context, host string, oid market.OID, title *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placed++
	return nil
}

func (s *fakeStore) Contains(ctx context.Context, host string, oid market.OID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return false, nil
}

func baseCfg() Config {
	return Config{
		MinProfit:    0.0,
		MaxProfit:    1.0,
		BaseStake:    currency.FromFloat(1),
		MaxStake:     currency.FromFloat(100),
		CheckTimeout: 200 * time.Millisecond,
	}
}

func TestResolveSkipsThinMarket(t *testing.T) {
	tbl := table.New(2)
	logger := zaptest.NewLogger(t)
	store := newFakeStore()
	r := New(baseCfg(), tbl, store, nil, logger)

	offer := market.Offer{OID: 1, Date: 1000, Game: market.GameFootball, Kind: market.Series, Outcomes: []market.Outcome{{Title: "X", Coef: 2.0}, {Title: "Y", Coef: 2.0}}}
	bk := bookie.New("book1", "u", "p", okGambler{}, currency.FromFloat(50))
	_, ok := tbl.UpdateOffer(table.MarkedOffer{Bookie: bk, Offer: offer})
	require.True(t, ok)

	r.resolve(context.Background(), offer)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Empty(t, store.saved)
}

func TestResolvePlacesArbitrageAcrossTwoBookies(t *testing.T) {
	tbl := table.New(2)
	logger := zaptest.NewLogger(t)
	store := newFakeStore()
	r := New(baseCfg(), tbl, store, nil, logger)

	outcomesA := []market.Outcome{{Title: "Home", Coef: 2.3}, {Title: "Away", Coef: 1.5}}
	outcomesB := []market.Outcome{{Title: "Home", Coef: 1.4}, {Title: "Away", Coef: 3.3}}

	offerA := market.Offer{OID: 1, Date: 1000, Game: market.GameFootball, Kind: market.Series, Outcomes: outcomesA}
	offerB := market.Offer{OID: 2, Date: 1000, Game: market.GameFootball, Kind: market.Series, Outcomes: outcomesB}

	bk1 := bookie.New("book1", "u", "p", okGambler{}, currency.FromFloat(50))
	bk2 := bookie.New("book2", "u", "p", okGambler{}, currency.FromFloat(50))
	bk1.SetStage(bookie.Running)
	bk2.SetStage(bookie.Running)

	_, ok := tbl.UpdateOffer(table.MarkedOffer{Bookie: bk1, Offer: offerA})
	require.True(t, ok)
	_, ok = tbl.UpdateOffer(table.MarkedOffer{Bookie: bk2, Offer: offerB})
	require.True(t, ok)

	// margin = 1/2.3 + 1/3.3 ~= 0.7378 < 1, so this is a genuine arbitrage
	r.resolve(context.Background(), offerA)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Len(t, store.saved, 1)
	assert.Equal(t, 2, store.placed)
}

func TestResolveSkipsNonRunningBookie(t *testing.T) {
	tbl := table.New(2)
	logger := zaptest.NewLogger(t)
	store := newFakeStore()
	r := New(baseCfg(), tbl, store, nil, logger)

	outcomesA := []market.Outcome{{Title: "Home", Coef: 2.3}, {Title: "Away", Coef: 1.5}}
	outcomesB := []market.Outcome{{Title: "Home", Coef: 1.4}, {Title: "Away", Coef: 3.3}}

	offerA := market.Offer{OID: 1, Date: 1000, Game: market.GameFootball, Kind: market.Series, Outcomes: outcomesA}
	offerB := market.Offer{OID: 2, Date: 1000, Game: market.GameFootball, Kind: market.Series, Outcomes: outcomesB}

	bk1 := bookie.New("book1", "u", "p", okGambler{}, currency.FromFloat(50))
	bk2 := bookie.New("book2", "u", "p", okGambler{}, currency.FromFloat(50))
	bk1.SetStage(bookie.Running)
	// bk2 is left in its initial stage, simulating a bookie mid-degradation.

	_, ok := tbl.UpdateOffer(table.MarkedOffer{Bookie: bk1, Offer: offerA})
	require.True(t, ok)
	_, ok = tbl.UpdateOffer(table.MarkedOffer{Bookie: bk2, Offer: offerB})
	require.True(t, ok)

	r.resolve(context.Background(), offerA)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Empty(t, store.saved)
}

func TestRunDrainsUntilContextCanceled(t *testing.T) {
	tbl := table.New(2)
	logger := zaptest.NewLogger(t)
	store := newFakeStore()
	r := New(baseCfg(), tbl, store, nil, logger)

	keys := make(chan market.Offer, 1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Run(ctx, keys)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
