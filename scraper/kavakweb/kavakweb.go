// Package kavakweb adapts the Kavak used-car listing pages, which render
// their cards client-side.
package kavakweb

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"autovalor/models"
	"autovalor/scraper"
	"autovalor/utils"
)

const DefaultBaseURL = "https://www.kavak.com/ar/usados"

// Scraper renders one listing page and extracts its cards.
type Scraper struct {
	baseURL  string
	renderer Renderer
	logger   *utils.Logger
}

// New creates a Scraper. An empty baseURL uses DefaultBaseURL.
func New(baseURL string, renderer Renderer, logger *utils.Logger) *Scraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Scraper{baseURL: strings.TrimSuffix(baseURL, "/"), renderer: renderer, logger: logger}
}

// Source implements services.Adapter.
func (s *Scraper) Source() models.Source { return models.SourceKavakWeb }

// PageURL is the listing page for query: lowercased, spaces replaced by dashes.
func (s *Scraper) PageURL(query string) string {
	return s.baseURL + "/" + strings.ReplaceAll(strings.ToLower(strings.TrimSpace(query)), " ", "-")
}

// Fetch ignores opts.Pages: the listing renders as a single page.
func (s *Scraper) Fetch(ctx context.Context, opts models.SearchOptions) models.Batch {
	batch := models.Batch{Source: s.Source()}
	pageURL := s.PageURL(opts.Query)

	html, err := s.renderer.Render(ctx, pageURL)
	if err != nil {
		batch.Err = fmt.Errorf("%w: kavak-web %s: %v", scraper.ErrSourceUnavailable, pageURL, err)
		s.logger.Warn("[kavak-web] %v", batch.Err)
		return batch
	}

	batch.Items, batch.Err = ParseCards(html)
	s.logger.Info("[kavak-web] Found %d cards", len(batch.Items))
	return batch
}

// ParseCards extracts every card found in a rendered page.
func ParseCards(html string) ([]models.ItemResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: kavak-web: parse page: %v", scraper.ErrSourceUnavailable, err)
	}

	var items []models.ItemResult
	for _, selector := range CardSelectors {
		cards := doc.Find(selector)
		if cards.Length() == 0 {
			continue
		}
		cards.Each(func(i int, card *goquery.Selection) {
			items = append(items, scraper.SafeExtract(i, func() (*models.RawCar, error) {
				return Extract(card)
			}))
		})
		break
	}
	return items, nil
}
