package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/pitviper/backend/internal/contracts"
)

const holdingsSchema = `
	CREATE SCHEMA IF NOT EXISTS portfolio;
	CREATE TABLE IF NOT EXISTS portfolio.holdings (
		holding_date DATE NOT NULL,
		asset_id     TEXT NOT NULL,
		asset_type   TEXT NOT NULL,
		quantity     DOUBLE PRECISION NOT NULL DEFAULT 0,
		cost_basis   DOUBLE PRECISION NOT NULL DEFAULT 0,
		source       TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS holdings_date_idx ON portfolio.holdings (holding_date);
`

// Repository handles holdings persistence in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new portfolio repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the holdings table if needed.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, holdingsSchema); err != nil {
		return fmt.Errorf("failed to create holdings schema: %w", err)
	}
	return nil
}

// SaveHoldings replaces the holdings stored for a date.
func (r *Repository) SaveHoldings(ctx context.Context, date time.Time, holdings []contracts.HoldingRecord) error {
	// Begin transaction
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Delete existing holdings for the date
	_, err = tx.Exec(ctx, "DELETE FROM portfolio.holdings WHERE holding_date = $1", date)
	if err != nil {
		return fmt.Errorf("failed to delete old holdings: %w", err)
	}

	query := `
		INSERT INTO portfolio.holdings (
			holding_date, asset_id, asset_type, quantity, cost_basis, source
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	batch := &pgx.Batch{}
	for _, h := range holdings {
		batch.Queue(query, date, h.AssetID, string(h.AssetType), h.Quantity, h.CostBasis, h.Source)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert holdings: %w", err)
	}

	// Commit transaction
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetHoldings retrieves the holdings stored for a date.
func (r *Repository) GetHoldings(ctx context.Context, date time.Time) ([]contracts.HoldingRecord, error) {
	query := `
		SELECT asset_id, asset_type, quantity, cost_basis, source
		FROM portfolio.holdings
		WHERE holding_date = $1
		ORDER BY asset_type, asset_id
	`
	return r.queryHoldings(ctx, query, date)
}

// Load implements contracts.HoldingsProvider with the most recent snapshot.
func (r *Repository) Load(ctx context.Context) (*contracts.PortfolioSnapshot, error) {
	query := `
		SELECT asset_id, asset_type, quantity, cost_basis, source
		FROM portfolio.holdings
		WHERE holding_date = (SELECT MAX(holding_date) FROM portfolio.holdings)
		ORDER BY asset_type, asset_id
	`
	holdings, err := r.queryHoldings(ctx, query)
	if err != nil {
		return nil, err
	}
	return &contracts.PortfolioSnapshot{Holdings: holdings, Source: SourceDatabase}, nil
}

func (r *Repository) queryHoldings(ctx context.Context, query string, args ...any) ([]contracts.HoldingRecord, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	holdings := make([]contracts.HoldingRecord, 0)
	for rows.Next() {
		var h contracts.HoldingRecord
		var assetType string
		if err := rows.Scan(&h.AssetID, &assetType, &h.Quantity, &h.CostBasis, &h.Source); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		h.AssetType = contracts.AssetType(assetType)
		holdings = append(holdings, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return holdings, nil
}
