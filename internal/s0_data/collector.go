package s0_data

import (
	"context"
	"sync"
	"time"

	"github.com/wonny/pitviper/backend/internal/contracts"
	"github.com/wonny/pitviper/backend/pkg/logger"
)

// Collector runs every asset class through the adapter (S0).
type Collector struct {
	adapter  *Adapter
	specs    []ClassSpec
	parallel bool
	logger   *logger.Logger
}

// NewCollector creates a Collector over the given class specs.
// With parallel set, the fetches run concurrently; results keep spec order.
func NewCollector(adapter *Adapter, specs []ClassSpec, parallel bool, log *logger.Logger) *Collector {
	return &Collector{
		adapter:  adapter,
		specs:    specs,
		parallel: parallel,
		logger:   log.Module("collector"),
	}
}

// Collect returns one SourceResult per spec, in spec order.
func (c *Collector) Collect(ctx context.Context) []contracts.SourceResult {
	start := time.Now()
	results := make([]contracts.SourceResult, len(c.specs))

	if c.parallel {
		var wg sync.WaitGroup
		for i, spec := range c.specs {
			wg.Add(1)
			go func(i int, spec ClassSpec) {
				defer wg.Done()
				results[i] = c.adapter.FetchWithFallback(ctx, spec)
			}(i, spec)
		}
		wg.Wait()
	} else {
		for i, spec := range c.specs {
			results[i] = c.adapter.FetchWithFallback(ctx, spec)
		}
	}

	fallbacks := 0
	rows := 0
	for _, r := range results {
		rows += r.Metadata.Count
		if r.Metadata.UsedFallback {
			fallbacks++
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"classes":   len(results),
		"fallbacks": fallbacks,
		"rows":      rows,
		"parallel":  c.parallel,
		"duration":  time.Since(start).String(),
	}).Info("Source collection completed")

	return results
}

// Specs returns the configured class specs.
func (c *Collector) Specs() []ClassSpec {
	return c.specs
}
