package selection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/pitviper/backend/internal/contracts"
)

const recommendationsSchema = `
	CREATE SCHEMA IF NOT EXISTS selection;
	CREATE TABLE IF NOT EXISTS selection.recommendations (
		run_id           TEXT NOT NULL,
		rec_date         DATE NOT NULL,
		rank             INTEGER NOT NULL,
		asset_id         TEXT NOT NULL,
		asset_type       TEXT NOT NULL,
		composite_score  DOUBLE PRECISION NOT NULL,
		close            DOUBLE PRECISION NOT NULL,
		momentum_proxy   DOUBLE PRECISION NOT NULL,
		volatility_proxy DOUBLE PRECISION NOT NULL,
		liquidity_score  DOUBLE PRECISION NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (rec_date, rank)
	);
`

// ErrNoRecommendations is returned when no run was stored for a date.
var ErrNoRecommendations = errors.New("no recommendations stored")

// Repository handles recommendation persistence
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new selection repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the recommendations table if needed.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, recommendationsSchema); err != nil {
		return fmt.Errorf("failed to create recommendations schema: %w", err)
	}
	return nil
}

// SaveRecommendations replaces the top-N list stored for a date.
// Rank is the 1-based position in recs.
func (r *Repository) SaveRecommendations(ctx context.Context, runID string, date time.Time, recs []contracts.Recommendation) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "DELETE FROM selection.recommendations WHERE rec_date = $1", date)
	if err != nil {
		return fmt.Errorf("failed to delete old recommendations: %w", err)
	}

	query := `
		INSERT INTO selection.recommendations (
			run_id, rec_date, rank, asset_id, asset_type, composite_score,
			close, momentum_proxy, volatility_proxy, liquidity_score
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for i, rec := range recs {
		_, err := tx.Exec(ctx, query,
			runID, date, i+1, rec.AssetID, string(rec.AssetType), rec.CompositeScore,
			rec.Close, rec.MomentumProxy, rec.VolatilityProxy, rec.LiquidityScore,
		)
		if err != nil {
			return fmt.Errorf("failed to insert recommendation %s: %w", rec.AssetID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetRecommendations returns the stored list for a date in rank order.
func (r *Repository) GetRecommendations(ctx context.Context, date time.Time, limit int) ([]contracts.Recommendation, error) {
	query := `
		SELECT asset_id, asset_type, composite_score,
			close, momentum_proxy, volatility_proxy, liquidity_score
		FROM selection.recommendations
		WHERE rec_date = $1
		ORDER BY rank ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, date, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	results := make([]contracts.Recommendation, 0)
	for rows.Next() {
		var (
			rec       contracts.Recommendation
			assetType string
		)
		err := rows.Scan(
			&rec.AssetID, &assetType, &rec.CompositeScore,
			&rec.Close, &rec.MomentumProxy, &rec.VolatilityProxy, &rec.LiquidityScore,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec.AssetType = contracts.AssetType(assetType)
		results = append(results, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoRecommendations, date.Format("2006-01-02"))
	}

	return results, nil
}

// LatestDate returns the most recent date with stored recommendations.
func (r *Repository) LatestDate(ctx context.Context) (time.Time, error) {
	var date *time.Time
	err := r.pool.QueryRow(ctx, "SELECT MAX(rec_date) FROM selection.recommendations").Scan(&date)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && date == nil) {
		return time.Time{}, ErrNoRecommendations
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query latest date: %w", err)
	}
	return *date, nil
}
