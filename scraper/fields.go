package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var (
	// kmNearMarkerRegexp captures a digit run (with separators) right before "km".
	kmNearMarkerRegexp = regexp.MustCompile(`(?i)(\d[\d.,]*)\s*km\b`)
	// firstDigitsRegexp captures the first digit run (with separators) anywhere.
	firstDigitsRegexp = regexp.MustCompile(`\d[\d.,]*`)
	// yearRegexp captures standalone 19xx/20xx tokens.
	yearRegexp = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	// daysAgoRegexp captures the day count of a "Publicado hace N días" phrase.
	daysAgoRegexp = regexp.MustCompile(`(?i)hace\s+(\d+)\s*d[ií]as?`)
)

const (
	MinYear = 1950
	MaxYear = 2025
)

// NormaliseText strips leading/trailing whitespace and collapses internal whitespace.
func NormaliseText(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// ParseAmount parses a price fragment such as "15.500", "1,250,000" or
// "$ 25.000.000", dropping currency signs and every separator.
func ParseAmount(text string) (int64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '.' || r == ',' || r == '$' || unicode.IsSpace(r):
			return -1
		}
		return r
	}, text)
	if cleaned == "" {
		return 0, fmt.Errorf("%w: price: empty amount", ErrFieldParse)
	}
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: price: %q", ErrFieldParse, text)
	}
	return n, nil
}

// IsForeignCurrency reports whether a currency-symbol fragment denotes USD.
func IsForeignCurrency(symbol string) bool {
	return strings.Contains(strings.ToUpper(symbol), "US")
}

// ParseMileage extracts a kilometre count from a line such as "65.000 Km".
// The line must mention the km marker.
func ParseMileage(text string) (int, bool) {
	if !strings.Contains(strings.ToLower(text), "km") {
		return 0, false
	}
	return mileageChain.Resolve(text)
}

var mileageChain = Chain[string, int]{
	func(text string) (int, bool) { return digitsFrom(kmNearMarkerRegexp.FindStringSubmatch(text), 1) },
	func(text string) (int, bool) { return digitsFrom(firstDigitsRegexp.FindStringSubmatch(text), 0) },
}

func digitsFrom(match []string, group int) (int, bool) {
	if len(match) <= group {
		return 0, false
	}
	digits := strings.NewReplacer(".", "", ",", "").Replace(match[group])
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ParseYear returns the first plausible model year in text within [MinYear, MaxYear].
func ParseYear(text string) (int, bool) {
	for _, tok := range yearRegexp.FindAllString(text, -1) {
		year, err := strconv.Atoi(tok)
		if err == nil && year >= MinYear && year <= MaxYear {
			return year, true
		}
	}
	return 0, false
}

// ParsePublishDate turns "Publicado hace N días" into the ISO date N days before now.
func ParsePublishDate(text string, now time.Time) (string, bool) {
	if !strings.Contains(strings.ToLower(text), "publicado hace") {
		return "", false
	}
	match := daysAgoRegexp.FindStringSubmatch(text)
	if len(match) < 2 {
		return "", false
	}
	days, err := strconv.Atoi(match[1])
	if err != nil {
		return "", false
	}
	return now.AddDate(0, 0, -days).Format(time.DateOnly), true
}

func isInlineImage(src string) bool {
	return strings.HasPrefix(strings.TrimSpace(src), "data:")
}

func attrImage(name string) Strategy[*goquery.Selection, string] {
	return func(img *goquery.Selection) (string, bool) {
		v := strings.TrimSpace(img.AttrOr(name, ""))
		if v == "" || isInlineImage(v) {
			return "", false
		}
		return v, true
	}
}

func srcsetImage(name string) Strategy[*goquery.Selection, string] {
	return func(img *goquery.Selection) (string, bool) {
		parts := strings.Split(img.AttrOr(name, ""), ",")
		last := strings.Fields(parts[len(parts)-1])
		if len(last) == 0 || isInlineImage(last[0]) {
			return "", false
		}
		return last[0], true
	}
}

// ImageChain resolves an <img> element to a fetchable URL.
var ImageChain = Chain[*goquery.Selection, string]{
	attrImage("src"),
	attrImage("data-src"),
	srcsetImage("data-srcset"),
	srcsetImage("srcset"),
}

// ResolveImage returns the best image URL for img, or placeholder.
func ResolveImage(img *goquery.Selection, placeholder string) string {
	if img == nil || img.Length() == 0 {
		return placeholder
	}
	return ImageChain.ResolveOr(img.First(), placeholder)
}

// ResolveHref makes a site-relative href absolute against origin. An empty
// href resolves to home.
func ResolveHref(href, origin, home string) string {
	href = strings.TrimSpace(href)
	switch {
	case href == "":
		return home
	case strings.HasPrefix(href, "/"):
		return strings.TrimSuffix(origin, "/") + href
	default:
		return href
	}
}

// FirstHref resolves the first anchor with an href inside item.
func FirstHref(item *goquery.Selection, origin, home string) string {
	href, _ := item.Find("a[href]").First().Attr("href")
	return ResolveHref(href, origin, home)
}

// FirstText returns a strategy yielding the first non-empty text among the
// elements matched by selector.
func FirstText(selector string) Strategy[*goquery.Selection, string] {
	return func(item *goquery.Selection) (string, bool) {
		var out string
		item.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			out = NormaliseText(s.Text())
			return out == ""
		})
		return out, out != ""
	}
}

// FirstAttr returns a strategy yielding attribute attr of the first element
// matched by selector, when non-empty.
func FirstAttr(selector, attr string) Strategy[*goquery.Selection, string] {
	return func(item *goquery.Selection) (string, bool) {
		v := NormaliseText(item.Find(selector).First().AttrOr(attr, ""))
		return v, v != ""
	}
}

// FirstMatch returns a strategy yielding the first element matched by selector.
func FirstMatch(selector string) Strategy[*goquery.Selection, *goquery.Selection] {
	return func(item *goquery.Selection) (*goquery.Selection, bool) {
		sel := item.Find(selector).First()
		return sel, sel.Length() > 0
	}
}

// IntPtr and StrPtr build optional field values.
func IntPtr(v int) *int { return &v }

func StrPtr(v string) *string { return &v }
