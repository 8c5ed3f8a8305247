package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/oddsarb/engine/internal/bookie"
	"github.com/oddsarb/engine/internal/currency"
	"github.com/oddsarb/engine/internal/gamblers/demo"
	"github.com/oddsarb/engine/internal/ingestion"
	"github.com/oddsarb/engine/internal/resolver"
	"github.com/oddsarb/engine/internal/storage"
	"github.com/oddsarb/engine/internal/table"
)

// wireFrame mirrors internal/gamblers/demo's unexported wire envelope just
// closely enough to drive it from the other side of the socket. It is a
// black-box fixture, not a copy of the adapter's internals: only the JSON
// shape has to match.
type wireFrame struct {
	Type  string `json:"type"`
	ReqID string `json:"req_id,omitempty"`

	OID      uint64        `json:"oid,omitempty"`
	Date     uint32        `json:"date,omitempty"`
	Game     string        `json:"game,omitempty"`
	Kind     string        `json:"kind,omitempty"`
	Outcomes []wireOutcome `json:"outcomes,omitempty"`
	Upsert   bool          `json:"upsert,omitempty"`

	OK      bool  `json:"ok,omitempty"`
	Balance int64 `json:"balance,omitempty"`
}

type wireOutcome struct {
	Title string  `json:"title"`
	Coef  float64 `json:"coef"`
}

// bookieFixture is a minimal scripted bookmaker: it authorizes and reports
// balance like a real one, then pushes a single offer and rubber-stamps
// every glance/check/place request that follows, so the full
// ingestion -> table -> resolver -> placement pipeline runs against a real
// WebSocket connection exactly as it would in production.
type bookieFixture struct {
	t      *testing.T
	offer  wireFrame
	connCh chan *websocket.Conn
}

func newBookieFixture(t *testing.T, offer wireFrame) (*httptest.Server, *bookieFixture) {
	t.Helper()
	fx := &bookieFixture{t: t, offer: offer, connCh: make(chan *websocket.Conn, 1)}
	var upgrader websocket.Upgrader
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		fx.connCh <- conn
		fx.serve(conn)
	}))
	return srv, fx
}

func (fx *bookieFixture) serve(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var f wireFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			return
		}

		switch f.Type {
		case "auth":
			_ = conn.WriteJSON(wireFrame{Type: "reply", ReqID: f.ReqID, OK: true})
		case "balance":
			_ = conn.WriteJSON(wireFrame{Type: "reply", ReqID: f.ReqID, OK: true, Balance: 1_000_000})
			_ = conn.WriteJSON(fx.offer)
		case "glance", "check", "place":
			_ = conn.WriteJSON(wireFrame{Type: "reply", ReqID: f.ReqID, OK: true})
		}
	}
}

func wsURLOf(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

// TestArbitragePipelineEndToEnd drives two scripted bookmakers with crossed
// odds through the real ingestion, table, resolver and placement machinery
// and asserts the resulting combo lands in the audit store.
func TestArbitragePipelineEndToEnd(t *testing.T) {
	const (
		game = "Home vs Away"
		kind = "1x2"
		date = uint32(1_800_000)
	)

	srvA, _ := newBookieFixture(t, wireFrame{
		Type: "offer", OID: 1, Date: date, Game: game, Kind: kind, Upsert: true,
		Outcomes: []wireOutcome{{Title: "Home", Coef: 2.10}, {Title: "Away", Coef: 1.50}},
	})
	defer srvA.Close()

	srvB, _ := newBookieFixture(t, wireFrame{
		Type: "offer", OID: 2, Date: date, Game: game, Kind: kind, Upsert: true,
		Outcomes: []wireOutcome{{Title: "Home", Coef: 1.50}, {Title: "Away", Coef: 2.10}},
	})
	defer srvB.Close()

	logger := zaptest.NewLogger(t)

	gamblerA := demo.New(demo.Config{URL: wsURLOf(srvA.URL), DialTimeout: 2 * time.Second, RequestTimeout: 2 * time.Second, Logger: logger.Named("a")})
	gamblerB := demo.New(demo.Config{URL: wsURLOf(srvB.URL), DialTimeout: 2 * time.Second, RequestTimeout: 2 * time.Second, Logger: logger.Named("b")})

	bookieA := bookie.New("book-a", "u", "p", gamblerA, currency.FromFloat(10_000))
	bookieB := bookie.New("book-b", "u", "p", gamblerB, currency.FromFloat(10_000))

	tbl := table.New(8)
	store := storage.NewConsoleStore(logger)
	resolveQueue := make(ingestion.ResolveQueue, 16)

	resolverSvc := resolver.New(resolver.Config{
		MinProfit:    0,
		MaxProfit:    10,
		BaseStake:    currency.FromFloat(10),
		MaxStake:     currency.FromFloat(1000),
		CheckTimeout: 2 * time.Second,
	}, tbl, store, nil, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); resolverSvc.Run(ctx, resolveQueue) }()
	go func() { defer wg.Done(); ingestion.RunGambler(ctx, bookieA, tbl, resolveQueue, time.Second, logger.Named("a")) }()
	go func() { defer wg.Done(); ingestion.RunGambler(ctx, bookieB, tbl, resolveQueue, time.Second, logger.Named("b")) }()

	require.Eventually(t, func() bool {
		combos, err := store.LoadRecent(ctx, 10)
		return err == nil && len(combos) > 0
	}, 5*time.Second, 50*time.Millisecond, "expected an arbitrage combo to be saved")

	combos, err := store.LoadRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, combos, 1)
	require.Len(t, combos[0].Bets, 2)

	hosts := map[string]bool{}
	for _, bet := range combos[0].Bets {
		hosts[bet.Host] = true
	}
	require.True(t, hosts["book-a"])
	require.True(t, hosts["book-b"])

	cancel()
	wg.Wait()
}
