package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/internal/selection"
)

const runsSchema = `
	CREATE SCHEMA IF NOT EXISTS advice;
	CREATE TABLE IF NOT EXISTS advice.runs (
		run_id            TEXT PRIMARY KEY,
		run_date          DATE NOT NULL,
		strategy_hash     TEXT NOT NULL DEFAULT '',
		provider          TEXT NOT NULL,
		summary           TEXT NOT NULL,
		assets_considered INTEGER NOT NULL,
		packet            JSONB NOT NULL,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS runs_created_idx ON advice.runs (created_at DESC);
`

// ErrNoPacket is returned when no run has been stored yet.
var ErrNoPacket = errors.New("no advice packet stored")

// PostgresRepository stores each run's packet and its recommendations.
type PostgresRepository struct {
	pool *pgxpool.Pool
	recs *selection.Repository
}

var _ contracts.PacketSink = (*PostgresRepository)(nil)

// NewPostgresRepository creates a run repository over pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool, recs: selection.NewRepository(pool)}
}

// Name implements contracts.PacketSink.
func (r *PostgresRepository) Name() string {
	return "postgres"
}

// EnsureSchema creates the run and recommendation tables.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, runsSchema); err != nil {
		return fmt.Errorf("failed to create runs schema: %w", err)
	}
	return r.recs.EnsureSchema(ctx)
}

// Save upserts the packet by run id and replaces the day's recommendations.
func (r *PostgresRepository) Save(ctx context.Context, packet *contracts.AdvicePacket) error {
	body, err := json.Marshal(packet)
	if err != nil {
		return fmt.Errorf("failed to marshal packet: %w", err)
	}

	date := runDate(packet)
	query := `
		INSERT INTO advice.runs (
			run_id, run_date, strategy_hash, provider, summary, assets_considered, packet
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (run_id) DO UPDATE SET
			packet = EXCLUDED.packet,
			summary = EXCLUDED.summary,
			created_at = NOW()
	`
	_, err = r.pool.Exec(ctx, query,
		packet.RunID, date, packet.StrategyHash, packet.Advice.Provider,
		packet.Advice.Summary, packet.MarketOverview.AssetsConsidered, body,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", packet.RunID, err)
	}

	return r.recs.SaveRecommendations(ctx, packet.RunID, date, packet.Recommendations.Top)
}

// LatestPacket returns the most recently stored packet.
func (r *PostgresRepository) LatestPacket(ctx context.Context) (*contracts.AdvicePacket, error) {
	var body []byte
	err := r.pool.QueryRow(ctx,
		"SELECT packet FROM advice.runs ORDER BY created_at DESC LIMIT 1",
	).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoPacket
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest packet: %w", err)
	}

	var packet contracts.AdvicePacket
	if err := json.Unmarshal(body, &packet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal packet: %w", err)
	}
	return &packet, nil
}

func runDate(packet *contracts.AdvicePacket) time.Time {
	t := packet.MarketOverview.GeneratedAt
	if t.IsZero() {
		t = time.Now()
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
