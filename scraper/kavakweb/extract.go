package kavakweb

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"autovalor/models"
	"autovalor/scraper"
)

const (
	Origin          = "https://www.kavak.com"
	Homepage        = "https://www.kavak.com/ar"
	DefaultLocation = "Buenos Aires"
)

// CardSelectors are tried in order to find the listing cards on a page.
var CardSelectors = []string{
	`a[class*="card-product_cardProduct__"]`,
	`div[class*="card-product_cardProduct__"]`,
}

// kmSubtitleRegexp captures the kilometre figure in a card subtitle.
var kmSubtitleRegexp = regexp.MustCompile(`(?i)(\d{1,3}(?:\.\d{3})*)\s*km`)

var (
	titleChain = scraper.Chain[*goquery.Selection, string]{
		scraper.FirstText(`h3[class*="card-product_cardProduct__title"]`),
		scraper.FirstText(`[class*="cardProduct__title"]`),
	}
	priceChain = scraper.Chain[*goquery.Selection, string]{
		scraper.FirstText(`span[class*="amount_uki-amount__large__price"]`),
		scraper.FirstText(`[class*="amount__price"]`),
	}
	subtitleChain = scraper.Chain[*goquery.Selection, string]{
		scraper.FirstText(`p[class*="card-product_cardProduct__subtitle"]`),
		scraper.FirstText(`[class*="cardProduct__subtitle"]`),
	}
)

// Extract turns one card into a RawCar. Cards without a title are not
// listings and fail extraction.
func Extract(card models.HTMLItem) (*models.RawCar, error) {
	title, ok := titleChain.Resolve(card)
	if !ok {
		return nil, fmt.Errorf("%w: card without title", scraper.ErrItemExtraction)
	}

	car := &models.RawCar{
		Title:    title,
		Image:    scraper.ResolveImage(card.Find("img"), models.PlaceholderImage),
		URL:      cardURL(card),
		Location: scraper.StrPtr(DefaultLocation),
	}

	if text, ok := priceChain.Resolve(card); ok {
		price, err := scraper.ParseAmount(text)
		if err != nil {
			car.FieldErrors = append(car.FieldErrors, err)
		}
		car.Price = price
	} else {
		car.FieldErrors = append(car.FieldErrors, fmt.Errorf("%w: price: no price element", scraper.ErrFieldParse))
	}

	if subtitle, ok := subtitleChain.Resolve(card); ok {
		for _, part := range strings.Split(subtitle, "•") {
			if part = strings.TrimSpace(part); part != "" {
				car.Attributes = append(car.Attributes, part)
			}
		}
		if year, ok := scraper.ParseYear(subtitle); ok {
			car.Year = scraper.IntPtr(year)
		}
		if km, ok := mileage(subtitle); ok {
			car.Km = scraper.IntPtr(km)
		}
	}

	return car, nil
}

func mileage(subtitle string) (int, bool) {
	if m := kmSubtitleRegexp.FindStringSubmatch(subtitle); len(m) == 2 {
		if km, ok := scraper.ParseMileage(m[0]); ok {
			return km, true
		}
	}
	return scraper.ParseMileage(subtitle)
}

// cardURL uses the card's own href when the card is the anchor, otherwise
// the first nested anchor.
func cardURL(card *goquery.Selection) string {
	if href, ok := card.Attr("href"); ok && strings.TrimSpace(href) != "" {
		return scraper.ResolveHref(href, Origin, Homepage)
	}
	return scraper.FirstHref(card, Origin, Homepage)
}
