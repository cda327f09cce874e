// Package mercadolibre adapts MercadoLibre search result pages.
package mercadolibre

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly"

	"autovalor/models"
	"autovalor/scraper"
	"autovalor/utils"
)

const (
	DefaultBaseURL = "https://listado.mercadolibre.com.ar"
	// PageSize is the offset step between result pages.
	PageSize  = 48
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Config controls how result pages are fetched.
type Config struct {
	BaseURL string
	Timeout time.Duration
	DelayMs int
	// Retry re-attempts a failed page. Nil means a single attempt.
	Retry *utils.RetryConfig
}

// Scraper fetches MercadoLibre result pages and extracts every item on them.
type Scraper struct {
	cfg       Config
	logger    *utils.Logger
	extractor *Extractor
}

// New creates a ready-to-use MercadoLibre Scraper.
func New(cfg Config, logger *utils.Logger) *Scraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Scraper{cfg: cfg, logger: logger, extractor: NewExtractor()}
}

// Source implements services.Adapter.
func (s *Scraper) Source() models.Source { return models.SourceMercadoLibre }

// SearchSlug joins the query words with dashes, the way listing URLs expect.
func SearchSlug(query string) string {
	return strings.Join(strings.Fields(query), "-")
}

// PageURL is the result page for a zero-based page number.
func (s *Scraper) PageURL(query string, page int) string {
	return fmt.Sprintf("%s/%s_Desde_%d", strings.TrimSuffix(s.cfg.BaseURL, "/"), SearchSlug(query), page*PageSize)
}

// Fetch walks pages sequentially. A failing page is recorded on the batch and
// skipped; the remaining pages are still fetched.
func (s *Scraper) Fetch(ctx context.Context, opts models.SearchOptions) models.Batch {
	batch := models.Batch{Source: s.Source()}
	var pageErrs []error

	for page := 0; page < opts.Pages; page++ {
		if err := ctx.Err(); err != nil {
			pageErrs = append(pageErrs, fmt.Errorf("%w: %s: %v", scraper.ErrSourceUnavailable, s.Source(), err))
			break
		}

		items, err := s.fetchWithRetry(ctx, opts.Query, page, len(batch.Items))
		if err != nil {
			s.logger.Warn("[mercadolibre] Page %d skipped: %v", page, err)
			pageErrs = append(pageErrs, err)
			continue
		}
		s.logger.Debug("[mercadolibre] Page %d: %d items", page, len(items))
		batch.Items = append(batch.Items, items...)

		if page+1 < opts.Pages && s.cfg.DelayMs > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(time.Duration(s.cfg.DelayMs) * time.Millisecond):
			}
		}
	}

	if len(pageErrs) > 0 {
		batch.Err = errors.Join(pageErrs...)
	}
	s.logger.Info("[mercadolibre] Collected %d items over %d pages", len(batch.Items), opts.Pages)
	return batch
}

func (s *Scraper) fetchWithRetry(ctx context.Context, query string, page, firstIndex int) ([]models.ItemResult, error) {
	if s.cfg.Retry == nil {
		return s.FetchPage(ctx, query, page, firstIndex)
	}
	var items []models.ItemResult
	err := s.cfg.Retry.Do(ctx, fmt.Sprintf("mercadolibre page %d", page), func(ctx context.Context) error {
		var err error
		items, err = s.FetchPage(ctx, query, page, firstIndex)
		return err
	})
	return items, err
}

// FetchPage fetches one result page; item indexes start at firstIndex.
func (s *Scraper) FetchPage(ctx context.Context, query string, page, firstIndex int) ([]models.ItemResult, error) {
	pageURL := s.PageURL(query, page)

	c := colly.NewCollector(colly.UserAgent(userAgent))
	c.SetRequestTimeout(s.cfg.Timeout)

	var items []models.ItemResult
	var failure error

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	c.OnHTML("html", func(e *colly.HTMLElement) {
		for _, selector := range ItemSelectors {
			found := e.DOM.Find(selector)
			if found.Length() == 0 {
				continue
			}
			found.Each(func(i int, item models.HTMLItem) {
				idx := firstIndex + len(items)
				items = append(items, scraper.SafeExtract(idx, func() (*models.RawCar, error) {
					return s.extractor.Extract(item)
				}))
			})
			return
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		failure = fmt.Errorf("%w: %s page %d (status %d): %v",
			scraper.ErrSourceUnavailable, s.Source(), page, r.StatusCode, err)
	})

	if err := c.Visit(pageURL); err != nil && failure == nil {
		failure = fmt.Errorf("%w: %s page %d: %v", scraper.ErrSourceUnavailable, s.Source(), page, err)
	}
	if failure != nil {
		return nil, failure
	}
	return items, nil
}
