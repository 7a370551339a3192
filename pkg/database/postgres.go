package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wonny/pitviper/backend/pkg/config"
)

// ErrNotConfigured is returned by New when DATABASE_URL is empty.
var ErrNotConfigured = errors.New("DATABASE_URL is not set")

const pingTimeout = 5 * time.Second

// DB wraps the pgxpool.Pool shared by the run, recommendation and holdings repositories.
type DB struct {
	Pool *pgxpool.Pool
}

// New opens the pool and verifies it with a ping.
func New(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the pool. Safe on nil.
func (db *DB) Close() {
	if db != nil && db.Pool != nil {
		db.Pool.Close()
	}
}

// HealthStatus is the database part of GET /health.
type HealthStatus struct {
	Healthy  bool          `json:"healthy"`
	Latency  time.Duration `json:"latency"`
	Error    string        `json:"error,omitempty"`
	Acquired int32         `json:"acquired_conns"`
	Idle     int32         `json:"idle_conns"`
	Total    int32         `json:"total_conns"`
	MaxConns int32         `json:"max_conns"`
}

// HealthCheck pings the pool and reports its connection counts.
func (db *DB) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	start := time.Now()
	err := db.Pool.Ping(pingCtx)

	stat := db.Pool.Stat()
	status := &HealthStatus{
		Latency:  time.Since(start),
		Acquired: stat.AcquiredConns(),
		Idle:     stat.IdleConns(),
		Total:    stat.TotalConns(),
		MaxConns: stat.MaxConns(),
	}
	if err != nil {
		status.Error = err.Error()
		return status, fmt.Errorf("database unhealthy: %w", err)
	}
	status.Healthy = true
	return status, nil
}
