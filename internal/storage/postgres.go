package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/oddsarb/engine/internal/currency"
	"github.com/oddsarb/engine/internal/market"
	"github.com/oddsarb/engine/internal/placement"
)

// PostgresStore implements Store using PostgreSQL, against the schema
// described in SPEC_FULL.md §6, plus two columns it adds: bet(host, id,
// title, expiry, coef, stake, profit, placed) with PK (host, id), and
// combo(combo_id, date, kind, bet_1, bet_2, bet_3), whose bet_N columns hold
// "host#id" references (see betID) to up to three bet rows.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStore creates a new PostgreSQL-backed Store.
func NewPostgresStore(cfg *PostgresConfig) (*PostgresStore, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-store-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStore{db: db, logger: cfg.Logger}, nil
}

// Contains reports whether a bet row already exists for (host, oid).
func (p *PostgresStore) Contains(ctx context.Context, host string, oid market.OID) (bool, error) {
	var exists bool
	err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM bet WHERE host = $1 AND id = $2)`,
		host, uint64(oid),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check bet existence: %w", err)
	}
	return exists, nil
}

// Save inserts every leg of combo as a bet row, then the combo row
// referencing them, inside a single transaction.
func (p *PostgresStore) Save(ctx context.Context, combo placement.Combo) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	betIDs := make([]interface{}, 3)
	for i, bet := range combo.Bets {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bet (host, id, title, expiry, coef, stake, profit)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (host, id) DO NOTHING
		`, bet.Host, uint64(bet.OID), bet.Title, bet.Expiry, bet.Coef, int64(bet.Stake), bet.Profit)
		if err != nil {
			return fmt.Errorf("insert bet %s#%d: %w", bet.Host, bet.OID, err)
		}
		betIDs[i] = betID(bet)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO combo (combo_id, date, kind, bet_1, bet_2, bet_3)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, combo.ID, combo.Date, combo.Kind, betIDs[0], betIDs[1], betIDs[2])
	if err != nil {
		return fmt.Errorf("insert combo: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit combo: %w", err)
	}

	p.logger.Debug("combo-stored",
		zap.String("combo-id", combo.ID.String()),
		zap.Int("leg-count", len(combo.Bets)))

	return nil
}

// betID renders a composite (host, id) reference as a single string so it
// fits combo's bet_N columns without a surrogate key join.
func betID(bet placement.Bet) string {
	return fmt.Sprintf("%s#%d", bet.Host, bet.OID)
}

// MarkAsPlaced flips a bet row's placed flag.
func (p *PostgresStore) MarkAsPlaced(ctx context.Context, host string, oid market.OID, title *string) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE bet SET placed = true WHERE host = $1 AND id = $2`,
		host, uint64(oid),
	)
	if err != nil {
		return fmt.Errorf("mark bet placed: %w", err)
	}

	p.logger.Debug("bet-marked-placed", zap.String("host", host), zap.Uint64("oid", uint64(oid)))
	return nil
}

// LoadRecent returns the n combos with the latest combo date, latest first,
// with their legs loaded back from the bet table. Insertion order is not
// recorded, so it plays no part in the ordering.
func (p *PostgresStore) LoadRecent(ctx context.Context, n int) ([]placement.Combo, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT combo_id, date, kind, bet_1, bet_2, bet_3 FROM combo ORDER BY date DESC LIMIT $1`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent combos: %w", err)
	}
	defer rows.Close()

	var combos []placement.Combo
	for rows.Next() {
		var combo placement.Combo
		var legs [3]sql.NullString
		if err := rows.Scan(&combo.ID, &combo.Date, &combo.Kind, &legs[0], &legs[1], &legs[2]); err != nil {
			return nil, fmt.Errorf("scan combo row: %w", err)
		}

		for _, leg := range legs {
			if !leg.Valid {
				continue
			}
			bet, err := p.loadBet(ctx, leg.String)
			if err != nil {
				return nil, err
			}
			combo.Bets = append(combo.Bets, bet)
		}
		combos = append(combos, combo)
	}

	return combos, rows.Err()
}

func (p *PostgresStore) loadBet(ctx context.Context, ref string) (placement.Bet, error) {
	var bet placement.Bet
	var oid uint64
	var stake int64
	err := p.db.QueryRowContext(ctx,
		`SELECT host, id, title, expiry, coef, stake, profit FROM bet WHERE host || '#' || id = $1`,
		ref,
	).Scan(&bet.Host, &oid, &bet.Title, &bet.Expiry, &bet.Coef, &stake, &bet.Profit)
	if err != nil {
		return placement.Bet{}, fmt.Errorf("load bet %s: %w", ref, err)
	}
	bet.OID = market.OID(oid)
	bet.Stake = currency.Currency(stake)
	return bet, nil
}

// Close closes the database connection.
func (p *PostgresStore) Close() error {
	p.logger.Info("closing-postgres-store")
	return p.db.Close()
}
