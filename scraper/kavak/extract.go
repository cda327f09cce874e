package kavak

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"autovalor/models"
	"autovalor/scraper"
)

const (
	Origin          = "https://www.kavak.com"
	Homepage        = "https://www.kavak.com/ar"
	DefaultLocation = "Buenos Aires"

	// LocalPriceThreshold is the magnitude above which a catalog price is
	// taken to be in pesos already.
	LocalPriceThreshold = 1_000_000
)

// MagnitudePolicy reports whether a raw catalog price is already expressed
// in local currency. The API does not say which currency it uses.
type MagnitudePolicy func(raw int64) bool

// DefaultMagnitudePolicy treats anything above LocalPriceThreshold as pesos
// and everything else as dollars.
func DefaultMagnitudePolicy(raw int64) bool {
	return raw > LocalPriceThreshold
}

// Matches reports whether query is contained, case-insensitively and as one
// phrase, in the item's "brand model version".
func Matches(item models.JSONItem, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(fullName(item)), query)
}

func fullName(item models.JSONItem) string {
	parts := make([]string, 0, 3)
	for _, key := range []string{"brand", "model", "version"} {
		if v, ok := stringField(key)(item); ok {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func stringField(key string) scraper.Strategy[models.JSONItem, string] {
	return func(item models.JSONItem) (string, bool) {
		s, ok := item[key].(string)
		s = scraper.NormaliseText(s)
		return s, ok && s != ""
	}
}

func numberField(key string) scraper.Strategy[models.JSONItem, int64] {
	return func(item models.JSONItem) (int64, bool) {
		switch v := item[key].(type) {
		case float64:
			if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, false
			}
			return int64(math.Round(v)), true
		case json.Number:
			f, err := v.Float64()
			if err != nil || f < 0 {
				return 0, false
			}
			return int64(math.Round(f)), true
		case string:
			n, err := scraper.ParseAmount(v)
			return n, err == nil
		}
		return 0, false
	}
}

func firstImage(key string) scraper.Strategy[models.JSONItem, string] {
	return func(item models.JSONItem) (string, bool) {
		list, ok := item[key].([]any)
		if !ok || len(list) == 0 {
			return "", false
		}
		switch v := list[0].(type) {
		case string:
			return v, v != "" && !strings.HasPrefix(v, "data:")
		case map[string]any:
			return stringField("url")(v)
		}
		return "", false
	}
}

func publishedAt(key string) scraper.Strategy[models.JSONItem, string] {
	return func(item models.JSONItem) (string, bool) {
		s, ok := item[key].(string)
		if !ok {
			return "", false
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return "", false
		}
		return t.Format(time.DateOnly), true
	}
}

func nonInline(s scraper.Strategy[models.JSONItem, string]) scraper.Strategy[models.JSONItem, string] {
	return func(item models.JSONItem) (string, bool) {
		v, ok := s(item)
		return v, ok && !strings.HasPrefix(v, "data:")
	}
}

var (
	titleChain = scraper.Chain[models.JSONItem, string]{
		stringField("name"),
		stringField("title"),
		func(item models.JSONItem) (string, bool) {
			name := fullName(item)
			return name, name != ""
		},
	}
	priceChain = scraper.Chain[models.JSONItem, int64]{
		numberField("price"),
		numberField("priceAmount"),
		numberField("salePrice"),
	}
	kmChain = scraper.Chain[models.JSONItem, int64]{
		numberField("km"),
		numberField("mileage"),
		numberField("kilometers"),
	}
	yearChain = scraper.Chain[models.JSONItem, int64]{
		numberField("year"),
		numberField("modelYear"),
	}
	locationChain = scraper.Chain[models.JSONItem, string]{
		stringField("city"),
		stringField("location"),
		stringField("region"),
	}
	imageChain = scraper.Chain[models.JSONItem, string]{
		nonInline(stringField("image")),
		nonInline(stringField("mainImage")),
		nonInline(stringField("imageUrl")),
		firstImage("images"),
	}
	urlChain = scraper.Chain[models.JSONItem, string]{
		stringField("url"),
		stringField("permalink"),
		func(item models.JSONItem) (string, bool) {
			slug, ok := stringField("slug")(item)
			return "/ar/usado/" + strings.TrimPrefix(slug, "/"), ok
		},
	}
	publishChain = scraper.Chain[models.JSONItem, string]{
		publishedAt("publishedAt"),
		publishedAt("createdAt"),
	}
)

// Extractor turns one catalog object into a RawCar.
type Extractor struct {
	Policy MagnitudePolicy
}

// Extract reads every field independently; only a non-object item fails.
func (e *Extractor) Extract(raw any) (*models.RawCar, error) {
	item, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: catalog item is %T, not an object", scraper.ErrItemExtraction, raw)
	}

	policy := e.Policy
	if policy == nil {
		policy = DefaultMagnitudePolicy
	}

	car := &models.RawCar{
		Title:    titleChain.ResolveOr(item, models.UnknownTitle),
		Image:    imageChain.ResolveOr(item, models.PlaceholderImage),
		URL:      scraper.ResolveHref(urlChain.ResolveOr(item, ""), Origin, Homepage),
		Location: scraper.StrPtr(locationChain.ResolveOr(item, DefaultLocation)),
	}

	if price, ok := priceChain.Resolve(item); ok {
		car.Price = price
		car.IsUSD = !policy(price)
	} else {
		car.FieldErrors = append(car.FieldErrors, fmt.Errorf("%w: price: %v", scraper.ErrFieldParse, item["price"]))
	}

	if km, ok := kmChain.Resolve(item); ok && km <= math.MaxInt32 {
		car.Km = scraper.IntPtr(int(km))
	}
	if year, ok := yearChain.Resolve(item); ok {
		if y, ok := scraper.ParseYear(strconv.FormatInt(year, 10)); ok {
			car.Year = scraper.IntPtr(y)
		}
	}
	if date, ok := publishChain.Resolve(item); ok {
		car.PublishDate = scraper.StrPtr(date)
	}

	return car, nil
}
