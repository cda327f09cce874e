// Package rate resolves the ARS per USD exchange rate used for one run.
package rate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"autovalor/metrics"
	"autovalor/utils"
)

const (
	DefaultURL = "https://api.bluelytics.com.ar/v2/latest"

	// FallbackRate is used whenever the live rate cannot be obtained.
	FallbackRate = 1285.0
)

var ErrRateUnavailable = errors.New("exchange rate unavailable")

type latestResponse struct {
	Blue *struct {
		ValueAvg *float64 `json:"value_avg"`
	} `json:"blue"`
}

// Resolver fetches the blue-market average rate.
type Resolver struct {
	url    string
	client *resty.Client
	logger *utils.Logger
}

// NewResolver creates a Resolver. An empty url uses DefaultURL.
func NewResolver(url string, timeout time.Duration, logger *utils.Logger) *Resolver {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Resolver{
		url:    url,
		client: resty.New().SetTimeout(timeout).SetHeader("Accept", "application/json"),
		logger: logger,
	}
}

// Resolve always returns a positive rate. Failures are logged and replaced
// by FallbackRate.
func (r *Resolver) Resolve(ctx context.Context) float64 {
	value, err := r.Fetch(ctx)
	if err != nil {
		metrics.RateFallbacksTotal.Inc()
		r.logger.Warn("[rate] %v, using fallback %.2f", err, FallbackRate)
		return FallbackRate
	}
	r.logger.Info("[rate] Dollar rate: %.2f", value)
	return value
}

// Fetch returns the live rate or an error wrapping ErrRateUnavailable.
func (r *Resolver) Fetch(ctx context.Context) (float64, error) {
	resp, err := r.client.R().SetContext(ctx).Get(r.url)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("%w: status %d", ErrRateUnavailable, resp.StatusCode())
	}

	var body latestResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return 0, fmt.Errorf("%w: malformed response: %v", ErrRateUnavailable, err)
	}
	if body.Blue == nil || body.Blue.ValueAvg == nil {
		return 0, fmt.Errorf("%w: missing blue.value_avg", ErrRateUnavailable)
	}
	if *body.Blue.ValueAvg <= 0 {
		return 0, fmt.Errorf("%w: non-positive rate %v", ErrRateUnavailable, *body.Blue.ValueAvg)
	}
	return *body.Blue.ValueAvg, nil
}
