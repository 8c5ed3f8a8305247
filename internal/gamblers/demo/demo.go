// Package demo implements a minimal WebSocket-based Gambler adapter. It is
// the one concrete, testable Gambler bundled with the engine — real
// bookmaker integrations are external collaborators per the spec, but the
// ingestion loop and placement protocol need at least one adapter that
// actually speaks the Gambler contract end-to-end.
//
// Wire protocol: every frame is a single JSON object (see wire.go). The
// server pushes unsolicited "offer" frames for odds updates; every other
// client request (auth, balance, glance, check, place) is answered with a
// "reply" frame carrying the same req_id.
package demo

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/oddsarb/engine/internal/currency"
	"github.com/oddsarb/engine/internal/gambler"
	"github.com/oddsarb/engine/internal/market"
)

// Config configures a Gambler instance.
type Config struct {
	URL            string
	DialTimeout    time.Duration
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

// Gambler is a WebSocket-backed gambler.Gambler implementation.
type Gambler struct {
	url            string
	dialTimeout    time.Duration
	requestTimeout time.Duration
	logger         *zap.Logger

	writeMu sync.Mutex
	conn    *websocket.Conn

	pendingMu sync.Mutex
	pending   map[string]chan frame

	activeMu sync.Mutex
	active   map[uint64]market.Offer

	reqCounter atomic.Uint64
}

// New builds a Gambler. It does not dial until Authorize is called.
func New(cfg Config) *Gambler {
	return &Gambler{
		url:            cfg.URL,
		dialTimeout:    cfg.DialTimeout,
		requestTimeout: cfg.RequestTimeout,
		logger:         cfg.Logger,
		pending:        make(map[string]chan frame),
		active:         make(map[uint64]market.Offer),
	}
}

// Authorize dials the WebSocket endpoint and performs the auth handshake.
// Like CheckBalance, it reads from the connection before Watch starts its
// dispatch loop, so it reads its own reply synchronously.
func (g *Gambler) Authorize(ctx context.Context, user, pass string) error {
	dialer := websocket.Dialer{HandshakeTimeout: g.dialTimeout}
	conn, _, err := dialer.DialContext(ctx, g.url, nil)
	if err != nil {
		dialsFailedTotal.Inc()
		return gambler.NewNetworkError(fmt.Errorf("dial: %w", err))
	}
	g.conn = conn

	reply, err := g.roundtripBeforeWatch(frame{Type: frameAuth, User: user, Pass: pass})
	if err != nil {
		return err
	}
	if !reply.OK {
		return gambler.NewStatusError(0, fmt.Errorf("auth rejected: %s", reply.Error))
	}

	authorizeTotal.Inc()
	return nil
}

// CheckBalance requests the account balance. Like Authorize, it runs before
// Watch's dispatch loop starts, so it is also a synchronous round-trip.
func (g *Gambler) CheckBalance(ctx context.Context) (currency.Currency, error) {
	reply, err := g.roundtripBeforeWatch(frame{Type: frameBalance})
	if err != nil {
		return currency.Zero, err
	}
	if !reply.OK {
		return currency.Zero, gambler.NewStatusError(0, fmt.Errorf("balance check rejected: %s", reply.Error))
	}
	return currency.Currency(reply.Balance), nil
}

// roundtripBeforeWatch writes req and blocks on a direct ReadMessage. Only
// valid before Watch starts its own read loop.
func (g *Gambler) roundtripBeforeWatch(req frame) (frame, error) {
	if req.ReqID == "" {
		req.ReqID = g.nextReqID()
	}
	if err := g.writeFrame(req); err != nil {
		return frame{}, gambler.NewNetworkError(err)
	}

	_, raw, err := g.conn.ReadMessage()
	if err != nil {
		return frame{}, gambler.NewNetworkError(fmt.Errorf("read reply: %w", err))
	}

	var reply frame
	if err := json.Unmarshal(raw, &reply); err != nil {
		return frame{}, gambler.NewUnexpectedError(fmt.Errorf("decode reply: %w", err))
	}
	return reply, nil
}

func (g *Gambler) nextReqID() string {
	return uuid.New().String()
}

func (g *Gambler) writeFrame(f frame) error {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	return g.conn.WriteJSON(f)
}

// Watch runs the dispatch loop: it reads every frame from the connection,
// routing unsolicited "offer" frames to cb and every other frame to the
// pending request awaiting that req_id. It returns when ctx is canceled or
// the connection fails.
func (g *Gambler) Watch(ctx context.Context, cb func(market.Offer, bool)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, raw, err := g.conn.ReadMessage()
		if err != nil {
			return gambler.NewNetworkError(fmt.Errorf("read: %w", err))
		}

		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			g.logger.Warn("undecodable frame dropped", zap.Error(err))
			continue
		}

		if f.Type == frameOffer {
			g.dispatchOffer(f, cb)
			continue
		}

		g.deliverReply(f)
	}
}

func (g *Gambler) dispatchOffer(f frame, cb func(market.Offer, bool)) {
	outcomes := make([]market.Outcome, len(f.Outcomes))
	for i, o := range f.Outcomes {
		outcomes[i] = market.Outcome{Title: o.Title, Coef: o.Coef}
	}
	offer := market.Offer{
		OID:      market.OID(f.OID),
		Date:     f.Date,
		Game:     market.Game(f.Game),
		Kind:     market.Kind(f.Kind),
		Outcomes: outcomes,
	}

	g.activeMu.Lock()
	if f.Upsert {
		g.active[f.OID] = offer
	} else {
		delete(g.active, f.OID)
	}
	g.activeMu.Unlock()

	offerEventsTotal.WithLabelValues(eventKind(f.Upsert)).Inc()
	cb(offer, f.Upsert)
}

func eventKind(upsert bool) string {
	if upsert {
		return "upsert"
	}
	return "remove"
}

func (g *Gambler) deliverReply(f frame) {
	g.pendingMu.Lock()
	ch, ok := g.pending[f.ReqID]
	if ok {
		delete(g.pending, f.ReqID)
	}
	g.pendingMu.Unlock()

	if !ok {
		return
	}
	ch <- f
}

// roundtrip is used by GlanceOffer/CheckOffer/PlaceBet, all called
// concurrently while Watch's dispatch loop owns the connection's reads.
func (g *Gambler) roundtrip(ctx context.Context, req frame) (frame, error) {
	req.ReqID = g.nextReqID()

	ch := make(chan frame, 1)
	g.pendingMu.Lock()
	g.pending[req.ReqID] = ch
	g.pendingMu.Unlock()

	if err := g.writeFrame(req); err != nil {
		g.pendingMu.Lock()
		delete(g.pending, req.ReqID)
		g.pendingMu.Unlock()
		return frame{}, gambler.NewNetworkError(err)
	}

	timeout := time.NewTimer(g.requestTimeout)
	defer timeout.Stop()

	select {
	case reply := <-ch:
		return reply, nil
	case <-timeout.C:
		g.pendingMu.Lock()
		delete(g.pending, req.ReqID)
		g.pendingMu.Unlock()
		return frame{}, gambler.NewNetworkError(fmt.Errorf("request %s timed out", req.Type))
	case <-ctx.Done():
		g.pendingMu.Lock()
		delete(g.pending, req.ReqID)
		g.pendingMu.Unlock()
		return frame{}, ctx.Err()
	}
}

// GlanceOffer cheaply re-reads an offer's continued existence.
func (g *Gambler) GlanceOffer(ctx context.Context, offer market.Offer) bool {
	reply, err := g.roundtrip(ctx, frame{Type: frameGlance, OID: uint64(offer.OID)})
	if err != nil {
		g.logger.Warn("glance_offer failed", zap.Error(err))
		return false
	}
	return reply.OK
}

// CheckOffer verifies a bet would currently be accepted. A nil result means
// the response was inconclusive.
func (g *Gambler) CheckOffer(ctx context.Context, offer market.Offer, outcome market.Outcome, stake currency.Currency) *bool {
	reply, err := g.roundtrip(ctx, frame{
		Type:    frameCheck,
		OID:     uint64(offer.OID),
		Outcome: &wireOutcome{Title: outcome.Title, Coef: outcome.Coef},
		Stake:   int64(stake),
	})
	if err != nil {
		g.logger.Warn("check_offer failed", zap.Error(err))
		return nil
	}
	if reply.Unknown {
		return nil
	}
	ok := reply.OK
	return &ok
}

// PlaceBet attempts to place the bet.
func (g *Gambler) PlaceBet(ctx context.Context, offer market.Offer, outcome market.Outcome, stake currency.Currency) bool {
	reply, err := g.roundtrip(ctx, frame{
		Type:    framePlace,
		OID:     uint64(offer.OID),
		Outcome: &wireOutcome{Title: outcome.Title, Coef: outcome.Coef},
		Stake:   int64(stake),
	})
	if err != nil {
		g.logger.Warn("place_bet failed", zap.Error(err))
		return false
	}
	return reply.OK
}

// Drain enumerates the offers this adapter currently believes are active.
func (g *Gambler) Drain() []market.Offer {
	g.activeMu.Lock()
	defer g.activeMu.Unlock()

	offers := make([]market.Offer, 0, len(g.active))
	for _, o := range g.active {
		offers = append(offers, o)
	}
	return offers
}

var _ gambler.Gambler = (*Gambler)(nil)
