package s0_data

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/pkg/logger"
	"github.com/wonny/pitviper/backend/pkg/metrics"
)

// ErrNoData is reported when a fetch succeeds but returns no rows.
var ErrNoData = errors.New("ingestion produced no data")

// FetchFunc is a zero-argument fetch with its inputs already bound.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// SafeCall runs fetch and substitutes a copy of fallback when it fails,
// panics, or returns nothing. It never returns an error.
func SafeCall[T any](ctx context.Context, log *logger.Logger, fetch FetchFunc[T], fallback []T) ([]T, bool) {
	rows, err := callRecovering(ctx, fetch)
	if err == nil && len(rows) == 0 {
		err = ErrNoData
	}
	if err != nil {
		log.WithError(err).Warn("Falling back to offline data for ingestion")
		return slices.Clone(fallback), true
	}
	return rows, false
}

func callRecovering[T any](ctx context.Context, fetch FetchFunc[T]) (rows []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("fetch panicked: %v", r)
		}
	}()
	if fetch == nil {
		return nil, errors.New("no fetch configured")
	}
	return fetch(ctx)
}

// ClassSpec binds one asset class to its provider call and fallback generator.
type ClassSpec struct {
	AssetType contracts.AssetType
	Provider  string // reported as the source when live data is served
	Symbols   []string
	Fetch     FetchFunc[contracts.RawRow]
	Fallback  func(symbols []string, now time.Time) []contracts.RawRow
}

// Adapter is the resilience boundary shared by every asset class.
type Adapter struct {
	logger  *logger.Logger
	metrics *metrics.Recorder
	now     func() time.Time
}

// NewAdapter creates an Adapter. rec may be nil.
func NewAdapter(log *logger.Logger, rec *metrics.Recorder) *Adapter {
	return &Adapter{
		logger:  log.Module("s0_adapter"),
		metrics: rec,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// FetchWithFallback runs one class spec through SafeCall and reports provenance.
func (a *Adapter) FetchWithFallback(ctx context.Context, spec ClassSpec) contracts.SourceResult {
	now := a.now()
	log := a.logger.WithFields(map[string]interface{}{
		"asset_type": spec.AssetType,
		"provider":   spec.Provider,
		"symbols":    len(spec.Symbols),
	})

	var fallback []contracts.RawRow
	if spec.Fallback != nil {
		fallback = spec.Fallback(spec.Symbols, now)
	}

	rows, usedFallback := SafeCall(ctx, log, spec.Fetch, fallback)

	source := spec.Provider
	if usedFallback {
		source = contracts.SourceMock
	}
	a.metrics.SourceFetched(string(spec.AssetType), source, usedFallback)
	log.WithFields(map[string]interface{}{
		"source": source,
		"count":  len(rows),
	}).Info("Source collected")

	return contracts.SourceResult{
		AssetType: spec.AssetType,
		Rows:      rows,
		Metadata: contracts.SourceMetadata{
			AssetType:    spec.AssetType,
			Source:       source,
			Count:        len(rows),
			UsedFallback: usedFallback,
			FetchedAt:    now,
		},
	}
}
