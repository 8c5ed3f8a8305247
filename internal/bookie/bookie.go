// Package bookie models a single configured bookmaker source: its
// lifecycle state machine, its atomically-accounted balance, and the
// Gambler adapter driving it.
package bookie

import (
	"sync/atomic"
	"time"

	"github.com/oddsarb/engine/internal/currency"
	"github.com/oddsarb/engine/internal/gambler"
)

// Stage is the bookie lifecycle state.
type Stage int32

const (
	// Initial is the state a freshly-constructed Bookie starts in.
	Initial Stage = iota
	// Preparing covers authorize + balance-check, before the watch loop starts.
	Preparing
	// Running means Watch is actively streaming offer events.
	Running
	// Aborted means Watch exited abnormally; degradation is in progress or done.
	Aborted
	// Sleeping means the bookie is waiting out a retry backoff before re-entering Preparing.
	Sleeping
)

func (s Stage) String() string {
	switch s {
	case Initial:
		return "initial"
	case Preparing:
		return "preparing"
	case Running:
		return "running"
	case Aborted:
		return "aborted"
	case Sleeping:
		return "sleeping"
	default:
		return "unknown"
	}
}

// Bookie is a process-wide singleton per configured source: one goroutine
// in the ingestion loop drives it for the process's whole lifetime.
type Bookie struct {
	Host     string
	user     string
	pass     string
	Gambler  gambler.Gambler

	balance atomic.Int64 // cents
	stage   atomic.Int32
	wakeAt  atomic.Int64 // unix nanos, valid only while Stage() == Sleeping
}

// New constructs a Bookie in Initial stage with the given starting balance.
func New(host, user, pass string, g gambler.Gambler, startingBalance currency.Currency) *Bookie {
	b := &Bookie{Host: host, user: user, pass: pass, Gambler: g}
	b.balance.Store(int64(startingBalance))
	b.stage.Store(int32(Initial))
	return b
}

// Credentials returns the configured account credentials.
func (b *Bookie) Credentials() (user, pass string) { return b.user, b.pass }

// Stage returns the current lifecycle stage.
func (b *Bookie) Stage() Stage { return Stage(b.stage.Load()) }

// SetStage transitions to s, incrementing the per-destination metric.
func (b *Bookie) SetStage(s Stage) {
	b.stage.Store(int32(s))
	stageTransitionsTotal.WithLabelValues(b.Host, s.String()).Inc()
}

// SetSleeping transitions to Sleeping and records when the bookie should
// next attempt Preparing.
func (b *Bookie) SetSleeping(wakeAt time.Time) {
	b.wakeAt.Store(wakeAt.UnixNano())
	b.SetStage(Sleeping)
}

// WakeAt returns the timestamp recorded by the most recent SetSleeping.
func (b *Bookie) WakeAt() time.Time {
	return time.Unix(0, b.wakeAt.Load())
}

// Balance returns the current hold-adjusted balance.
func (b *Bookie) Balance() currency.Currency {
	return currency.Currency(b.balance.Load())
}

// SetBalance overwrites the balance, e.g. after a fresh CheckBalance.
func (b *Bookie) SetBalance(c currency.Currency) {
	b.balance.Store(int64(c))
	balance.WithLabelValues(b.Host).Set(c.Float())
}

// Hold atomically subtracts amount from the balance if and only if the
// balance would remain non-negative, reporting whether the hold succeeded.
func (b *Bookie) Hold(amount currency.Currency) bool {
	for {
		cur := b.balance.Load()
		next := cur - int64(amount)
		if next < 0 {
			holdsRejectedTotal.WithLabelValues(b.Host).Inc()
			return false
		}
		if b.balance.CompareAndSwap(cur, next) {
			balance.WithLabelValues(b.Host).Set(currency.Currency(next).Float())
			return true
		}
	}
}

// Release atomically adds amount back to the balance, undoing a prior Hold.
func (b *Bookie) Release(amount currency.Currency) {
	next := b.balance.Add(int64(amount))
	balance.WithLabelValues(b.Host).Set(currency.Currency(next).Float())
}
