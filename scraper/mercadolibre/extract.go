package mercadolibre

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"autovalor/models"
	"autovalor/scraper"
)

const (
	Origin   = "https://www.mercadolibre.com.ar"
	Homepage = "https://www.mercadolibre.com.ar"
)

// ItemSelectors are tried in order; the first one matching anything on the
// page defines the listing items.
var ItemSelectors = []string{
	"li.ui-search-layout__item",
	"div.ui-search-result",
	".ui-search-result",
}

// priceMarkup names one generation of the price component.
type priceMarkup struct {
	container string
	symbol    string
	fraction  string
}

var priceMarkups = []priceMarkup{
	{"span.andes-money-amount", "span.andes-money-amount__currency-symbol", "span.andes-money-amount__fraction"},
	{".price-tag", ".price-tag-symbol", ".price-tag-fraction"},
}

var (
	titleChain = scraper.Chain[*goquery.Selection, string]{
		scraper.FirstAttr("img", "alt"),
		scraper.FirstText("h2.ui-search-item__title"),
		scraper.FirstText("h3.poly-component__title-wrapper"),
		scraper.FirstText(".poly-component__title"),
	}

	locationChain = scraper.Chain[*goquery.Selection, string]{
		scraper.FirstText("span.poly-component__location"),
		scraper.FirstText("span.ui-search-item__location"),
	}

	attributesChain = scraper.Chain[*goquery.Selection, *goquery.Selection]{
		scraper.FirstMatch("ul.poly-attributes_list"),
		scraper.FirstMatch("ul.poly-component__attributes-list"),
		scraper.FirstMatch("ul.ui-search-item__attributes"),
	}
)

// Extractor turns one MercadoLibre result item into a RawCar.
type Extractor struct {
	Now func() time.Time
}

// NewExtractor returns an Extractor using the wall clock.
func NewExtractor() *Extractor {
	return &Extractor{Now: time.Now}
}

// Extract never fails on a missing field; each one takes its default.
func (e *Extractor) Extract(item models.HTMLItem) (*models.RawCar, error) {
	if item == nil || item.Length() == 0 {
		return nil, fmt.Errorf("%w: empty item", scraper.ErrItemExtraction)
	}

	car := &models.RawCar{
		Title: titleChain.ResolveOr(item, models.UnknownTitle),
		Image: scraper.ResolveImage(item.Find("img"), models.PlaceholderImage),
		URL:   scraper.FirstHref(item, Origin, Homepage),
	}

	price, isUSD, err := parsePrice(item)
	if err != nil {
		car.FieldErrors = append(car.FieldErrors, err)
	}
	car.Price, car.IsUSD = price, isUSD

	if loc, ok := locationChain.Resolve(item); ok {
		car.Location = scraper.StrPtr(loc)
	}

	e.extractAttributes(item, car)

	if date, ok := e.publishDate(item); ok {
		car.PublishDate = scraper.StrPtr(date)
	}

	return car, nil
}

// parsePrice reads the first price component. A missing or unparsable
// fraction yields 0 in local currency.
func parsePrice(item *goquery.Selection) (int64, bool, error) {
	for _, m := range priceMarkups {
		container := item.Find(m.container).First()
		if container.Length() == 0 {
			continue
		}

		fraction := container.Find(m.fraction).First()
		if fraction.Length() == 0 {
			return 0, false, fmt.Errorf("%w: price: no fraction in %s", scraper.ErrFieldParse, m.container)
		}

		isUSD := false
		if symbol := container.Find(m.symbol).First(); symbol.Length() > 0 {
			isUSD = scraper.IsForeignCurrency(strings.TrimSpace(symbol.Text()))
		}

		price, err := scraper.ParseAmount(fraction.Text())
		if err != nil {
			return 0, false, err
		}
		return price, isUSD, nil
	}
	return 0, false, fmt.Errorf("%w: price: no price container", scraper.ErrFieldParse)
}

func (e *Extractor) extractAttributes(item *goquery.Selection, car *models.RawCar) {
	list, ok := attributesChain.Resolve(item)
	if !ok {
		return
	}

	list.Find("li").Each(func(_ int, li *goquery.Selection) {
		text := scraper.NormaliseText(li.Text())
		if text == "" {
			return
		}
		car.Attributes = append(car.Attributes, text)

		if car.Km == nil && strings.Contains(strings.ToLower(text), "km") {
			if km, ok := scraper.ParseMileage(text); ok {
				car.Km = scraper.IntPtr(km)
			} else {
				car.FieldErrors = append(car.FieldErrors,
					fmt.Errorf("%w: km: %q", scraper.ErrFieldParse, text))
			}
		}
		if car.Year == nil {
			if year, ok := scraper.ParseYear(text); ok {
				car.Year = scraper.IntPtr(year)
			}
		}
	})
}

func (e *Extractor) publishDate(item *goquery.Selection) (string, bool) {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	return scraper.ParsePublishDate(item.Text(), now())
}
