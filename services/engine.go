package services

import (
	"fmt"

	"autovalor/metrics"
	"autovalor/models"
	"autovalor/rate"
	"autovalor/scraper"
)

// Engine turns extracted batches into scored canonical cars. It performs no
// I/O and reports partial failures to its Observer instead of returning them.
type Engine struct {
	observer Observer
}

// NewEngine creates an Engine. A nil observer discards events.
func NewEngine(observer Observer) *Engine {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Engine{observer: observer}
}

// Run normalizes and aggregates every successful item in batch order, then
// scores the whole collection. A non-positive rate is replaced by
// rate.FallbackRate.
func (e *Engine) Run(batches []models.Batch, r float64) []*models.Car {
	if r <= 0 {
		e.observer.Observe(Event{
			Kind: EventRateUnavailable,
			Item: -1,
			Err:  fmt.Errorf("%w: got %v", rate.ErrRateUnavailable, r),
		})
		r = rate.FallbackRate
	}

	agg := NewAggregator()
	for _, batch := range batches {
		if batch.Err != nil {
			metrics.SourceErrorsTotal.WithLabelValues(string(batch.Source)).Inc()
			e.observer.Observe(Event{Kind: EventSourceUnavailable, Source: batch.Source, Item: -1, Err: batch.Err})
		}

		for _, item := range batch.Items {
			if item.Err != nil || item.Car == nil {
				err := item.Err
				if err == nil {
					err = fmt.Errorf("%w: empty result", scraper.ErrItemExtraction)
				}
				metrics.ItemFailuresTotal.WithLabelValues(string(batch.Source)).Inc()
				e.observer.Observe(Event{Kind: EventItemFailed, Source: batch.Source, Item: item.Index, Err: err})
				continue
			}

			for _, ferr := range item.Car.FieldErrors {
				metrics.FieldFailuresTotal.WithLabelValues(string(batch.Source)).Inc()
				e.observer.Observe(Event{Kind: EventFieldDefaulted, Source: batch.Source, Item: item.Index, Err: ferr})
			}

			local, usd := Normalize(item.Car.Price, item.Car.IsUSD, r)
			agg.Append(batch.Source, item.Car, local, usd)
			metrics.ItemsExtractedTotal.WithLabelValues(string(batch.Source)).Inc()
		}
	}

	cars := agg.Cars()
	Score(cars)
	return cars
}
