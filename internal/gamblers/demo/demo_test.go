package demo

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

	"github.com/oddsarb/engine/internal/currency"
	"github.com/oddsarb/engine/internal/market"
)

// fixtureServer is a minimal echo-style WebSocket peer used to exercise the
// Gambler adapter end-to-end without a real bookmaker.
type fixtureServer struct {
	t        *testing.T
	upgrader websocket.Upgrader
	mu       sync.Mutex
	conn     *websocket.Conn
}

func newFixtureServer(t *testing.T) (*httptest.Server, *fixtureServer) {
	t.Helper()
	fs := &fixtureServer{t: t}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := fs.upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		fs.mu.Lock()
		fs.conn = conn
		fs.mu.Unlock()
	}))
	return srv, fs
}

func (fs *fixtureServer) waitConn(t *testing.T) *websocket.Conn {
	t.Helper()
	require.Eventually(t, func() bool {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		return fs.conn != nil
	}, 2*time.Second, 10*time.Millisecond)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.conn
}

func (fs *fixtureServer) readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var f frame
	require.NoError(t, json.Unmarshal(raw, &f))
	return f
}

func (fs *fixtureServer) sendFrame(t *testing.T, conn *websocket.Conn, f frame) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(f))
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func newTestGamblerT(t *testing.T, url string) *Gambler {
	t.Helper()
	return New(Config{
		URL:            url,
		DialTimeout:    2 * time.Second,
		RequestTimeout: 2 * time.Second,
		Logger:         zaptest.NewLogger(t),
	})
}

func TestAuthorizeSucceeds(t *testing.T) {
	srv, fs := newFixtureServer(t)
	defer srv.Close()

	g := newTestGamblerT(t, wsURL(srv.URL))

	done := make(chan error, 1)
	go func() { done <- g.Authorize(context.Background(), "alice", "secret") }()

	conn := fs.waitConn(t)
	req := fs.readFrame(t, conn)
	require.Equal(t, frameAuth, req.Type)
	require.Equal(t, "alice", req.User)
	fs.sendFrame(t, conn, frame{Type: frameReply, ReqID: req.ReqID, OK: true})

	require.NoError(t, <-done)
}

func TestAuthorizeRejected(t *testing.T) {
	srv, fs := newFixtureServer(t)
	defer srv.Close()

	g := newTestGamblerT(t, wsURL(srv.URL))

	done := make(chan error, 1)
	go func() { done <- g.Authorize(context.Background(), "alice", "wrong") }()

	conn := fs.waitConn(t)
	req := fs.readFrame(t, conn)
	fs.sendFrame(t, conn, frame{Type: frameReply, ReqID: req.ReqID, OK: false, Error: "bad credentials"})

	err := <-done
	require.Error(t, err)
}

func TestCheckBalance(t *testing.T) {
	srv, fs := newFixtureServer(t)
	defer srv.Close()

	g := newTestGamblerT(t, wsURL(srv.URL))
	require.NoError(t, authorizeOK(t, g, fs))

	done := make(chan struct {
		bal currency.Currency
		err error
	}, 1)
	go func() {
		bal, err := g.CheckBalance(context.Background())
		done <- struct {
			bal currency.Currency
			err error
		}{bal, err}
	}()

	conn := fs.conn
	req := fs.readFrame(t, conn)
	require.Equal(t, frameBalance, req.Type)
	fs.sendFrame(t, conn, frame{Type: frameReply, ReqID: req.ReqID, OK: true, Balance: 150000})

	result := <-done
	require.NoError(t, result.err)
	require.Equal(t, currency.FromFloat(1500.00), result.bal)
}

// authorizeOK drives a full auth handshake and returns once it completes,
// leaving fs.conn populated for further exchanges.
func authorizeOK(t *testing.T, g *Gambler, fs *fixtureServer) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- g.Authorize(context.Background(), "alice", "secret") }()

	conn := fs.waitConn(t)
	req := fs.readFrame(t, conn)
	fs.sendFrame(t, conn, frame{Type: frameReply, ReqID: req.ReqID, OK: true})
	return <-done
}

func TestWatchDispatchesOfferEvents(t *testing.T) {
	srv, fs := newFixtureServer(t)
	defer srv.Close()

	g := newTestGamblerT(t, wsURL(srv.URL))
	require.NoError(t, authorizeOK(t, g, fs))

	events := make(chan market.Offer, 4)
	upserts := make(chan bool, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = g.Watch(ctx, func(o market.Offer, upsert bool) {
			events <- o
			upserts <- upsert
		})
	}()

	fs.sendFrame(t, fs.conn, frame{
		Type: frameOffer,
		OID:  42,
		Game: "Home vs Away",
		Kind: "1x2",
		Outcomes: []wireOutcome{
			{Title: "Home", Coef: 2.1},
			{Title: "Away", Coef: 3.4},
		},
		Upsert: true,
	})

	select {
	case o := <-events:
		require.Equal(t, market.OID(42), o.OID)
		require.Len(t, o.Outcomes, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for offer dispatch")
	}
	require.True(t, <-upserts)

	active := g.Drain()
	require.Len(t, active, 1)
	require.Equal(t, market.OID(42), active[0].OID)
}

func TestGlanceCheckAndPlaceRoundtripWhileWatching(t *testing.T) {
	srv, fs := newFixtureServer(t)
	defer srv.Close()

	g := newTestGamblerT(t, wsURL(srv.URL))
	require.NoError(t, authorizeOK(t, g, fs))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = g.Watch(ctx, func(market.Offer, bool) {}) }()

	offer := market.Offer{OID: 7}
	outcome := market.Outcome{Title: "Home", Coef: 2.0}

	// Respond to whatever frame type arrives next, matching on ReqID.
	respond := func(t *testing.T, ok bool, unknown bool) {
		t.Helper()
		req := fs.readFrame(t, fs.conn)
		fs.sendFrame(t, fs.conn, frame{Type: frameReply, ReqID: req.ReqID, OK: ok, Unknown: unknown})
	}

	glanceDone := make(chan bool, 1)
	go func() { glanceDone <- g.GlanceOffer(ctx, offer) }()
	respond(t, true, false)
	require.True(t, <-glanceDone)

	checkDone := make(chan *bool, 1)
	go func() { checkDone <- g.CheckOffer(ctx, offer, outcome, currency.FromFloat(10)) }()
	respond(t, false, true)
	result := <-checkDone
	require.Nil(t, result)

	placeDone := make(chan bool, 1)
	go func() { placeDone <- g.PlaceBet(ctx, offer, outcome, currency.FromFloat(10)) }()
	respond(t, true, false)
	require.True(t, <-placeDone)
}

func TestPlaceBetTimesOut(t *testing.T) {
	srv, fs := newFixtureServer(t)
	defer srv.Close()

	g := New(Config{URL: wsURL(srv.URL), DialTimeout: 2 * time.Second, RequestTimeout: 30 * time.Millisecond, Logger: zaptest.NewLogger(t)})
	require.NoError(t, authorizeOK(t, g, fs))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = g.Watch(ctx, func(market.Offer, bool) {}) }()

	ok := g.PlaceBet(ctx, market.Offer{OID: 1}, market.Outcome{Title: "Home", Coef: 2.0}, currency.FromFloat(10))
	require.False(t, ok)
}
