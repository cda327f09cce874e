package kavak

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autovalor/models"
	"autovalor/scraper"
	"autovalor/utils"
)

func decode(t *testing.T, raw string) models.JSONItem {
	t.Helper()
	var item models.JSONItem
	require.NoError(t, json.Unmarshal([]byte(raw), &item))
	return item
}

func TestDefaultMagnitudePolicy(t *testing.T) {
	assert.True(t, DefaultMagnitudePolicy(1_500_000), "large prices are already pesos")
	assert.False(t, DefaultMagnitudePolicy(15_000), "small prices are dollars")
	assert.False(t, DefaultMagnitudePolicy(LocalPriceThreshold), "threshold itself is still dollars")
	assert.True(t, DefaultMagnitudePolicy(LocalPriceThreshold+1))
}

func TestMatchesWholePhrase(t *testing.T) {
	item := decode(t, `{"brand":"Volkswagen","model":"Gol Trend","version":"1.6 Highline"}`)

	assert.True(t, Matches(item, "gol trend"))
	assert.True(t, Matches(item, "VOLKSWAGEN GOL"))
	assert.True(t, Matches(item, "trend 1.6"))
	assert.True(t, Matches(item, ""))
	assert.False(t, Matches(item, "gol highline"), "tokens are not matched independently")
	assert.False(t, Matches(item, "amarok"))
}

func TestExtractCatalogItem(t *testing.T) {
	e := &Extractor{}
	car, err := e.Extract(decode(t, `{
		"brand":"Toyota","model":"Etios","version":"1.5 XLS",
		"year":2018,"km":64000,"price":15000,
		"city":"Córdoba","images":[{"url":"https://img.kavak.test/etios.jpg"}],
		"slug":"toyota-etios-2018","publishedAt":"2025-02-01T10:00:00Z"
	}`))
	require.NoError(t, err)

	assert.Equal(t, "Toyota Etios 1.5 XLS", car.Title)
	assert.Equal(t, int64(15000), car.Price)
	assert.True(t, car.IsUSD)
	assert.Equal(t, 64000, *car.Km)
	assert.Equal(t, 2018, *car.Year)
	assert.Equal(t, "Córdoba", *car.Location)
	assert.Equal(t, "https://img.kavak.test/etios.jpg", car.Image)
	assert.Equal(t, "https://www.kavak.com/ar/usado/toyota-etios-2018", car.URL)
	assert.Equal(t, "2025-02-01", *car.PublishDate)
}

func TestExtractLargePriceIsLocal(t *testing.T) {
	car, err := (&Extractor{}).Extract(decode(t, `{"name":"Fiat Cronos","price":"18.500.000"}`))
	require.NoError(t, err)

	assert.Equal(t, int64(18500000), car.Price)
	assert.False(t, car.IsUSD)
	assert.Equal(t, DefaultLocation, *car.Location)
	assert.Equal(t, models.PlaceholderImage, car.Image)
	assert.Equal(t, Homepage, car.URL)
	assert.Nil(t, car.Km)
	assert.Nil(t, car.PublishDate)
}

func TestExtractCustomPolicy(t *testing.T) {
	alwaysLocal := func(int64) bool { return true }
	car, err := (&Extractor{Policy: alwaysLocal}).Extract(decode(t, `{"name":"x","price":15000}`))
	require.NoError(t, err)
	assert.False(t, car.IsUSD)
}

func TestExtractRejectsNonObject(t *testing.T) {
	_, err := (&Extractor{}).Extract("not an object")
	assert.ErrorIs(t, err, scraper.ErrItemExtraction)
}

func TestExtractMissingPriceRecordsFieldError(t *testing.T) {
	car, err := (&Extractor{}).Extract(decode(t, `{"name":"x","year":1901}`))
	require.NoError(t, err)
	assert.Equal(t, int64(0), car.Price)
	assert.Nil(t, car.Year, "implausible years are dropped")
	require.Len(t, car.FieldErrors, 1)
	assert.ErrorIs(t, car.FieldErrors[0], scraper.ErrFieldParse)
}

func TestFetchFiltersByQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") != "0" {
			_, _ = w.Write([]byte(`{"results":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"results":[
			{"brand":"Volkswagen","model":"Gol Trend","version":"1.6","price":9000,"km":80000},
			{"brand":"Ford","model":"Ka","version":"1.5","price":8000},
			"garbage",
			{"brand":"Volkswagen","model":"Gol Trend","version":"Pack I","price":14000000}
		]}`))
	}))
	defer srv.Close()

	s := New(Config{APIURL: srv.URL, Timeout: 2 * time.Second}, utils.NewNopLogger())
	batch := s.Fetch(context.Background(), models.SearchOptions{Query: "gol trend", Pages: 3})

	require.NoError(t, batch.Err)
	require.Len(t, batch.Items, 3)
	assert.True(t, batch.Items[0].Car.IsUSD)
	assert.ErrorIs(t, batch.Items[1].Err, scraper.ErrItemExtraction)
	assert.False(t, batch.Items[2].Car.IsUSD)
	assert.Equal(t, 2, batch.Items[2].Index)
}

func TestFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	s := New(Config{APIURL: srv.URL}, utils.NewNopLogger())
	batch := s.Fetch(context.Background(), models.SearchOptions{Query: "gol", Pages: 2})

	assert.Empty(t, batch.Items)
	assert.ErrorIs(t, batch.Err, scraper.ErrSourceUnavailable)
}
