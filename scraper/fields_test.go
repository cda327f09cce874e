package scraper

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autovalor/models"
)

func TestChainFirstMatchWins(t *testing.T) {
	var calls []string
	step := func(name string, ok bool) Strategy[string, string] {
		return func(string) (string, bool) {
			calls = append(calls, name)
			return name, ok
		}
	}

	c := Chain[string, string]{step("a", false), step("b", true), step("c", true)}
	got, ok := c.Resolve("")

	assert.True(t, ok)
	assert.Equal(t, "b", got)
	assert.Equal(t, []string{"a", "b"}, calls, "strategies after the winner must not run")
	assert.Equal(t, "fallback", Chain[string, string]{step("x", false)}.ResolveOr("", "fallback"))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"15.500", 15500, false},
		{"1,250,000", 1250000, false},
		{"$ 25.000.000", 25000000, false},
		{" 9800 ", 9800, false},
		{"", 0, true},
		{"consultar", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseAmount(tt.raw)
		if tt.wantErr {
			if !errors.Is(err, ErrFieldParse) {
				t.Errorf("ParseAmount(%q): want ErrFieldParse, got %v", tt.raw, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseAmount(%q) = %d, %v; want %d", tt.raw, got, err, tt.want)
		}
	}
}

func TestIsForeignCurrency(t *testing.T) {
	assert.True(t, IsForeignCurrency("US$"))
	assert.True(t, IsForeignCurrency("USD"))
	assert.False(t, IsForeignCurrency("$"))
	assert.False(t, IsForeignCurrency(""))
}

func TestParseMileage(t *testing.T) {
	tests := []struct {
		raw  string
		want int
		ok   bool
	}{
		{"85.000 Km", 85000, true},
		{"2017 | 120.000 km", 120000, true},
		{"20000 km", 20000, true},
		{"0 km", 0, true},
		{"Km: 45.300", 45300, true},
		{"Kilometraje a consultar", 0, false},
		{"2019", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseMileage(tt.raw)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseMileage(%q) = %d, %v; want %d, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		raw  string
		want int
		ok   bool
	}{
		{"2019", 2019, true},
		{"Modelo 1950", 1950, true},
		{"2025 | 10.000 km", 2025, true},
		{"1949", 0, false},
		{"2026", 0, false},
		{"20000 km", 0, false},
		{"1930 o 2001", 2001, true},
	}

	for _, tt := range tests {
		got, ok := ParseYear(tt.raw)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseYear(%q) = %d, %v; want %d, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParsePublishDate(t *testing.T) {
	now := time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC)

	got, ok := ParsePublishDate("Publicado hace 5 días", now)
	require.True(t, ok)
	assert.Equal(t, "2024-12-28", got)

	got, ok = ParsePublishDate("publicado hace 1 día", now)
	require.True(t, ok)
	assert.Equal(t, "2025-01-01", got)

	_, ok = ParsePublishDate("Publicado hace 3 horas", now)
	assert.False(t, ok)

	_, ok = ParsePublishDate("hace 3 días", now)
	assert.False(t, ok, "the phrase must say it was published")
}

func TestResolveImage(t *testing.T) {
	img := func(attrs string) *goquery.Selection {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader("<img " + attrs + ">"))
		require.NoError(t, err)
		return doc.Find("img")
	}

	assert.Equal(t, "https://a/1.jpg", ResolveImage(img(`src="https://a/1.jpg" data-src="https://a/2.jpg"`), "ph"))
	assert.Equal(t, "https://a/2.jpg", ResolveImage(img(`src="data:image/gif;base64,AA" data-src="https://a/2.jpg"`), "ph"))
	assert.Equal(t, "https://a/big.jpg", ResolveImage(img(`src="data:image/gif;base64,AA" data-srcset="https://a/small.jpg 1x, https://a/big.jpg 2x"`), "ph"))
	assert.Equal(t, "ph", ResolveImage(img(`src="data:image/gif;base64,AA"`), "ph"))
	assert.Equal(t, "ph", ResolveImage(img(`data-srcset=""`), "ph"))
	assert.Equal(t, "ph", ResolveImage(nil, "ph"))
	assert.Equal(t, models.PlaceholderImage, ResolveImage(&goquery.Selection{}, models.PlaceholderImage))
}

func TestResolveHref(t *testing.T) {
	const origin, home = "https://www.site.test", "https://www.site.test"

	assert.Equal(t, "https://www.site.test/MLA-1", ResolveHref("/MLA-1", origin, home))
	assert.Equal(t, "https://other.test/x", ResolveHref("https://other.test/x", origin, home))
	assert.Equal(t, home, ResolveHref("  ", origin, home))
}

func TestSafeExtractRecoversPanics(t *testing.T) {
	res := SafeExtract(7, func() (*models.RawCar, error) {
		var sel *goquery.Selection
		_ = sel.Nodes[0]
		return nil, nil
	})

	assert.Equal(t, 7, res.Index)
	assert.Nil(t, res.Car)
	assert.ErrorIs(t, res.Err, ErrItemExtraction)
}

func TestSafeExtractPassesThrough(t *testing.T) {
	want := &models.RawCar{Title: "ok"}
	res := SafeExtract(1, func() (*models.RawCar, error) { return want, nil })
	require.NoError(t, res.Err)
	assert.Same(t, want, res.Car)
}
