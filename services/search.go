package services

import (
	"context"
	"time"

	"autovalor/metrics"
	"autovalor/models"
	"autovalor/utils"
)

// Adapter fetches and extracts one source. Fetch never panics and reports
// source-level failures through Batch.Err.
type Adapter interface {
	Source() models.Source
	Fetch(ctx context.Context, opts models.SearchOptions) models.Batch
}

// RateResolver yields the exchange rate for one run. It always returns a
// positive value.
type RateResolver interface {
	Resolve(ctx context.Context) float64
}

// Result is everything a search run produced.
type Result struct {
	Cars       []*models.Car
	DollarRate float64
	Batches    []models.Batch
	Duration   time.Duration
}

// Searcher fans a query out to the enabled adapters, waits for all of them
// and runs the engine over their combined output.
type Searcher struct {
	adapters    []Adapter
	rates       RateResolver
	engine      *Engine
	logger      *utils.Logger
	maxWorkers  int
	rateLimitMs int
}

// NewSearcher creates a Searcher. Batches are aggregated in adapter order.
func NewSearcher(adapters []Adapter, rates RateResolver, engine *Engine, logger *utils.Logger, maxWorkers, rateLimitMs int) *Searcher {
	return &Searcher{
		adapters:    adapters,
		rates:       rates,
		engine:      engine,
		logger:      logger,
		maxWorkers:  maxWorkers,
		rateLimitMs: rateLimitMs,
	}
}

// Adapter returns the registered adapter for source, if any.
func (s *Searcher) Adapter(source models.Source) (Adapter, bool) {
	for _, a := range s.adapters {
		if a.Source() == source {
			return a, true
		}
	}
	return nil, false
}

// Search runs one complete search. Scoring starts only after every enabled
// source has finished.
func (s *Searcher) Search(ctx context.Context, opts models.SearchOptions) *Result {
	start := time.Now()

	var enabled []Adapter
	for _, a := range s.adapters {
		if opts.Includes(a.Source()) {
			enabled = append(enabled, a)
		}
	}
	s.logger.Info("[search] Query %q across %d source(s), %d page(s)", opts.Query, len(enabled), opts.Pages)

	batches := make([]models.Batch, len(enabled))
	var dollarRate float64

	pool := utils.NewWorkerPool(s.maxWorkers, s.rateLimitMs)
	pool.Submit(ctx, func(ctx context.Context) {
		dollarRate = s.rates.Resolve(ctx)
	})
	for i, a := range enabled {
		pool.Submit(ctx, func(ctx context.Context) {
			batches[i] = a.Fetch(ctx, opts)
			if batches[i].Source == "" {
				batches[i].Source = a.Source()
			}
		})
	}
	pool.Wait()

	cars := s.engine.Run(batches, dollarRate)

	res := &Result{
		Cars:       cars,
		DollarRate: dollarRate,
		Batches:    batches,
		Duration:   time.Since(start),
	}
	metrics.RecordSearch(res.Duration)
	s.logger.Info("[search] %d cars scored in %s (rate %.2f)", len(cars), res.Duration.Round(time.Millisecond), dollarRate)
	return res
}

// FilterByUSD keeps the cars whose USD price lies in [minUSD, maxUSD]. A
// non-positive bound is ignored. Filtering does not change scores.
func FilterByUSD(cars []*models.Car, minUSD, maxUSD int64) []*models.Car {
	if minUSD <= 0 && maxUSD <= 0 {
		return cars
	}
	out := make([]*models.Car, 0, len(cars))
	for _, c := range cars {
		if minUSD > 0 && c.PriceUSD < minUSD {
			continue
		}
		if maxUSD > 0 && c.PriceUSD > maxUSD {
			continue
		}
		out = append(out, c)
	}
	return out
}
