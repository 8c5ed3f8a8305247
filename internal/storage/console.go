package storage

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/oddsarb/engine/internal/market"
	"github.com/oddsarb/engine/internal/placement"
)

// ConsoleStore implements Store by pretty-printing combos to console and
// keeping them in memory, for local/dry runs where no Postgres is wired up.
type ConsoleStore struct {
	mu     sync.Mutex
	combos []placement.Combo
	placed map[string]bool
	logger *zap.Logger
}

// NewConsoleStore creates a new console-backed Store.
func NewConsoleStore(logger *zap.Logger) *ConsoleStore {
	logger.Info("console-store-initialized")
	return &ConsoleStore{
		placed: make(map[string]bool),
		logger: logger,
	}
}

func betKey(host string, oid market.OID) string {
	return fmt.Sprintf("%s#%d", host, oid)
}

// Contains reports whether any persisted combo has a bet for (host, oid).
func (c *ConsoleStore) Contains(ctx context.Context, host string, oid market.OID) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, combo := range c.combos {
		for _, bet := range combo.Bets {
			if bet.Host == host && bet.OID == oid {
				return true, nil
			}
		}
	}
	return false, nil
}

// Save pretty-prints combo to console and appends it to the in-memory log.
func (c *ConsoleStore) Save(ctx context.Context, combo placement.Combo) error {
	c.mu.Lock()
	c.combos = append(c.combos, combo)
	c.mu.Unlock()

	fmt.Println("\n" + "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("ARBITRAGE COMBO DETECTED\n")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("ID:   %s\n", combo.ID)
	fmt.Printf("Kind: %s\n", combo.Kind)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("LEGS (%d)\n", len(combo.Bets))
	for _, bet := range combo.Bets {
		title := "(draw)"
		if bet.Title != nil {
			title = *bet.Title
		}
		fmt.Printf("  %-12s %-20s @ %.2f  stake %s  profit %.4f\n", bet.Host, title, bet.Coef, bet.Stake, bet.Profit)
	}
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	return nil
}

// MarkAsPlaced records that the bet matching (host, oid) was successfully
// placed (placement is never undone). Contains does not consult this record;
// it looks only at saved combos.
func (c *ConsoleStore) MarkAsPlaced(ctx context.Context, host string, oid market.OID, title *string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.placed[betKey(host, oid)] = true
	c.logger.Info("bet-marked-placed", zap.String("host", host), zap.Uint64("oid", uint64(oid)))
	return nil
}

// LoadRecent returns the n most recently saved combos, in reverse save order.
func (c *ConsoleStore) LoadRecent(ctx context.Context, n int) ([]placement.Combo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n > len(c.combos) {
		n = len(c.combos)
	}
	out := make([]placement.Combo, n)
	for i := 0; i < n; i++ {
		out[i] = c.combos[len(c.combos)-1-i]
	}
	return out, nil
}

// Close is a no-op for console storage.
func (c *ConsoleStore) Close() error {
	c.logger.Info("closing-console-store")
	return nil
}
