// Package storage persists placement combos to an audit store, the
// system's single external collaborator outside the in-memory engine.
package storage

import (
	"context"

	"github.com/oddsarb/engine/internal/market"
	"github.com/oddsarb/engine/internal/placement"
)

// Store is the full audit-store surface: placement.AuditStore's Save and
// MarkAsPlaced, plus the dedupe check the resolver needs before invoking
// placement, plus LoadRecent for operator inspection.
type Store interface {
	// Contains reports whether a bet already exists for this (host, oid)
	// pair, regardless of whether it was ultimately placed.
	Contains(ctx context.Context, host string, oid market.OID) (bool, error)

	// Save persists a newly-attempted Combo before any bet is placed.
	Save(ctx context.Context, combo placement.Combo) error

	// MarkAsPlaced updates the matching bet row once PlaceBet succeeds.
	MarkAsPlaced(ctx context.Context, host string, oid market.OID, title *string) error

	// LoadRecent returns up to n recent combos, newest first; each
	// implementation documents what "newest" is ordered by.
	LoadRecent(ctx context.Context, n int) ([]placement.Combo, error)

	// Close releases any resources held by the store.
	Close() error
}
