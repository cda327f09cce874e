// Package kavak adapts the Kavak catalog JSON API.
package kavak

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"autovalor/models"
	"autovalor/scraper"
	"autovalor/utils"
)

const DefaultAPIURL = "https://www.kavak.com/api/ar/catalog/search"

// Config controls the catalog requests.
type Config struct {
	APIURL  string
	Timeout time.Duration
}

// Scraper queries the catalog API and keeps the items whose name contains
// the search phrase.
type Scraper struct {
	cfg       Config
	client    *resty.Client
	logger    *utils.Logger
	extractor *Extractor
}

// New creates a catalog Scraper using DefaultMagnitudePolicy.
func New(cfg Config, logger *utils.Logger) *Scraper {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Scraper{
		cfg:       cfg,
		client:    resty.New().SetTimeout(cfg.Timeout).SetHeader("Accept", "application/json"),
		logger:    logger,
		extractor: &Extractor{Policy: DefaultMagnitudePolicy},
	}
}

// WithPolicy overrides the currency magnitude policy.
func (s *Scraper) WithPolicy(p MagnitudePolicy) *Scraper {
	s.extractor.Policy = p
	return s
}

// Source implements services.Adapter.
func (s *Scraper) Source() models.Source { return models.SourceKavak }

// Fetch requests up to opts.Pages catalog pages, stopping at the first empty one.
func (s *Scraper) Fetch(ctx context.Context, opts models.SearchOptions) models.Batch {
	batch := models.Batch{Source: s.Source()}
	var pageErrs []error

	pages := opts.Pages
	if pages < 1 {
		pages = 1
	}

	for page := 0; page < pages; page++ {
		raw, err := s.fetchPage(ctx, opts.Query, page)
		if err != nil {
			s.logger.Warn("[kavak] Page %d skipped: %v", page, err)
			pageErrs = append(pageErrs, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if len(raw) == 0 {
			break
		}

		for _, item := range raw {
			if obj, ok := item.(map[string]any); ok && !Matches(obj, opts.Query) {
				continue
			}
			idx := len(batch.Items)
			batch.Items = append(batch.Items, scraper.SafeExtract(idx, func() (*models.RawCar, error) {
				return s.extractor.Extract(item)
			}))
		}
	}

	if len(pageErrs) > 0 {
		batch.Err = errors.Join(pageErrs...)
	}
	s.logger.Info("[kavak] Collected %d matching items", len(batch.Items))
	return batch
}

func (s *Scraper) fetchPage(ctx context.Context, query string, page int) ([]any, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query": query,
			"page":  strconv.Itoa(page),
		}).
		Get(s.cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("%w: kavak page %d: %v", scraper.ErrSourceUnavailable, page, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: kavak page %d: status %d", scraper.ErrSourceUnavailable, page, resp.StatusCode())
	}

	return decodeItems(resp.Body())
}

// decodeItems accepts either a bare array or an object wrapping the list
// under "results", "items" or "data".
func decodeItems(body []byte) ([]any, error) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: kavak: malformed response: %v", scraper.ErrSourceUnavailable, err)
	}

	switch v := payload.(type) {
	case []any:
		return v, nil
	case map[string]any:
		for _, key := range []string{"results", "items", "data"} {
			if list, ok := v[key].([]any); ok {
				return list, nil
			}
		}
		return nil, nil
	}
	return nil, fmt.Errorf("%w: kavak: unexpected response shape %T", scraper.ErrSourceUnavailable, payload)
}
