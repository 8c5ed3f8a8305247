package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/oddsarb/engine/internal/bookie"
	"github.com/oddsarb/engine/internal/storage"
	"github.com/oddsarb/engine/internal/table"
)

// SnapshotHandler serves a read-only operator view of the match table and
// recently attempted combos. It does not implement the dashboard UI itself
// (out of scope, §1) — just the JSON a dashboard would poll.
type SnapshotHandler struct {
	table      *table.Table
	store      storage.Store
	comboCount int
	logger     *zap.Logger
}

// NewSnapshotHandler builds a SnapshotHandler. store may be nil, in which
// case HandleCombos always reports an empty list.
func NewSnapshotHandler(tbl *table.Table, store storage.Store, comboCount int, logger *zap.Logger) *SnapshotHandler {
	return &SnapshotHandler{table: tbl, store: store, comboCount: comboCount, logger: logger}
}

// OutcomeView is one priced outcome within a MarketView.
type OutcomeView struct {
	Title string  `json:"title"`
	Coef  float64 `json:"coef"`
}

// OfferView is one bookmaker's current quote within a MarketView.
type OfferView struct {
	Host     string        `json:"host"`
	OID      uint64        `json:"oid"`
	Outcomes []OutcomeView `json:"outcomes"`
}

// MarketView is one bucket of the match table: a badge event with every
// bookmaker currently quoting it.
type MarketView struct {
	Game    string      `json:"game"`
	Kind    string      `json:"kind"`
	Date    uint32      `json:"date"`
	Offers  []OfferView `json:"offers"`
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleMarkets serves GET /api/markets: every currently-tracked bucket
// with two or more live quotes.
func (h *SnapshotHandler) HandleMarkets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var views []MarketView
	h.table.Iter(func(b *table.Bucket) {
		if len(b.Market) < 2 {
			return
		}

		offers := make([]OfferView, 0, len(b.Market))
		for _, m := range b.Market {
			outcomes := make([]OutcomeView, 0, len(m.Offer.Outcomes))
			for _, o := range m.Offer.Outcomes {
				outcomes = append(outcomes, OutcomeView{Title: o.Title, Coef: o.Coef})
			}

			offers = append(offers, OfferView{
				Host:     hostOf(m.Bookie),
				OID:      uint64(m.Offer.OID),
				Outcomes: outcomes,
			})
		}

		views = append(views, MarketView{
			Game:   string(b.Badge.Game),
			Kind:   string(b.Badge.Kind),
			Date:   b.Badge.Date,
			Offers: offers,
		})
	})

	h.writeJSON(w, views)
}

// hostOf extracts the Host identity label from a MarkedOffer's Bookie. The
// table package stores it as `any` to stay bookie-agnostic; the app layer
// always populates it with a *bookie.Bookie.
func hostOf(b any) string {
	if bk, ok := b.(*bookie.Bookie); ok {
		return bk.Host
	}
	return "unknown"
}

// HandleCombos serves GET /api/combos: the most recently attempted combos,
// bounded by the configured ComboCount.
func (h *SnapshotHandler) HandleCombos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.store == nil {
		h.writeJSON(w, []any{})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	combos, err := h.store.LoadRecent(ctx, h.comboCount)
	if err != nil {
		h.logger.Error("load-recent-combos-failed", zap.Error(err))
		h.writeError(w, "failed to load recent combos", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, combos)
}

func (h *SnapshotHandler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

func (h *SnapshotHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message}); err != nil {
		h.logger.Error("failed-to-encode-error-response", zap.Error(err))
	}
}
