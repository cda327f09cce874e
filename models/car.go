package models

import "github.com/PuerkitoBio/goquery"

// Source tags which adapter produced a record.
type Source string

const (
	SourceMercadoLibre Source = "mercadolibre"
	SourceKavak        Source = "kavak"
	SourceKavakWeb     Source = "kavak-web"
)

// PriceScore is the relative price-quality label, ordered from best to worst value.
type PriceScore string

const (
	ScoreMuyBueno PriceScore = "muy-bueno"
	ScoreBueno    PriceScore = "bueno"
	ScoreRegular  PriceScore = "regular"
	ScoreMalo     PriceScore = "malo"
	ScoreMuyMalo  PriceScore = "muy-malo"
)

// Scores lists every label in ascending order (best value first).
var Scores = []PriceScore{ScoreMuyBueno, ScoreBueno, ScoreRegular, ScoreMalo, ScoreMuyMalo}

// Rank returns the position of s in Scores, or -1 for an unknown label.
func (s PriceScore) Rank() int {
	for i, v := range Scores {
		if v == s {
			return i
		}
	}
	return -1
}

const (
	CurrencyARS = "ARS"
	CurrencyUSD = "USD"

	UnknownTitle       = "N/A"
	UnknownPublishDate = "desconocido"
	PlaceholderImage   = "https://upload.wikimedia.org/wikipedia/commons/thumb/a/ac/No_image_available.svg/480px-No_image_available.svg.png"
)

// HTMLItem is one listing subtree from a marketplace page.
type HTMLItem = *goquery.Selection

// JSONItem is one listing object decoded from a vendor API response.
type JSONItem = map[string]any

// RawCar is the best-effort partial record pulled out of one source item.
// Every field is independently optional.
type RawCar struct {
	Title       string  `json:"title"`
	Price       int64   `json:"price"`
	IsUSD       bool    `json:"isUSD"`
	Km          *int    `json:"km,omitempty"`
	Year        *int    `json:"year,omitempty"`
	Location    *string `json:"location,omitempty"`
	PublishDate *string `json:"publishDate,omitempty"`
	Image       string  `json:"image"`
	URL         string  `json:"url"`

	// Attributes keeps the raw attribute lines the fields were parsed from.
	Attributes []string `json:"attributes,omitempty"`

	// FieldErrors records fields that fell back to their default.
	FieldErrors []error `json:"-"`
}

// ItemResult is the outcome of extracting one source item.
type ItemResult struct {
	Index int
	Car   *RawCar
	Err   error
}

// Batch is everything one source adapter produced during a run. Err is set
// when the source (or some of its pages) could not be fetched; Items still
// holds whatever was collected.
type Batch struct {
	Source Source
	Items  []ItemResult
	Err    error
}

// Car is the canonical, scored listing returned to callers.
type Car struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Price       int64      `json:"price"`
	PriceUSD    int64      `json:"priceUSD"`
	Currency    string     `json:"currency"`
	Year        *int       `json:"year"`
	Km          *int       `json:"km"`
	Location    *string    `json:"location"`
	Image       string     `json:"image"`
	URL         string     `json:"url"`
	PublishDate string     `json:"publishDate"`
	Source      Source     `json:"source"`
	PriceScore  PriceScore `json:"priceScore"`
}

// SearchOptions selects which sources a run queries and how deep.
type SearchOptions struct {
	Query           string
	Pages           int
	IncludeML       bool
	IncludeKavak    bool
	IncludeKavakWeb bool
}

// Includes reports whether source is enabled for the run.
func (o SearchOptions) Includes(source Source) bool {
	switch source {
	case SourceMercadoLibre:
		return o.IncludeML
	case SourceKavak:
		return o.IncludeKavak
	case SourceKavakWeb:
		return o.IncludeKavakWeb
	}
	return false
}
