package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autovalor/models"
)

func TestAggregatorAssignsSequentialIDs(t *testing.T) {
	agg := NewAggregator()
	a := agg.Append(models.SourceMercadoLibre, &models.RawCar{Title: "A"}, 1, 1)
	b := agg.Append(models.SourceKavak, &models.RawCar{Title: "B"}, 2, 2)
	c := agg.Append(models.SourceMercadoLibre, &models.RawCar{Title: "C"}, 3, 3)

	assert.Equal(t, []int{1, 2, 3}, []int{a.ID, b.ID, c.ID})
	assert.Equal(t, 3, agg.Len())
	assert.Equal(t, []*models.Car{a, b, c}, agg.Cars())
}

func TestAggregatorDefaults(t *testing.T) {
	car := NewAggregator().Append(models.SourceKavakWeb, &models.RawCar{Title: "  "}, -5, 0)

	assert.Equal(t, models.UnknownTitle, car.Title)
	assert.Equal(t, models.PlaceholderImage, car.Image)
	assert.Equal(t, models.UnknownPublishDate, car.PublishDate)
	assert.Equal(t, models.CurrencyARS, car.Currency)
	assert.Equal(t, models.ScoreRegular, car.PriceScore)
	assert.Equal(t, int64(0), car.Price)
	assert.Equal(t, models.SourceKavakWeb, car.Source)
}

func TestAggregatorKeepsRawFields(t *testing.T) {
	year, mileage := 2019, 85_000
	loc, date := "Capital Federal", "2025-03-07"
	raw := &models.RawCar{
		Title:       "Volkswagen Gol",
		IsUSD:       true,
		Year:        &year,
		Km:          &mileage,
		Location:    &loc,
		PublishDate: &date,
		Image:       "https://img.test/gol.jpg",
		URL:         "https://www.mercadolibre.com.ar/MLA-1",
	}

	car := NewAggregator().Append(models.SourceMercadoLibre, raw, 19_917_500, 15_500)
	require.NotNil(t, car.Year)
	assert.Equal(t, 2019, *car.Year)
	assert.Equal(t, 85_000, *car.Km)
	assert.Equal(t, loc, *car.Location)
	assert.Equal(t, date, car.PublishDate)
	assert.Equal(t, models.CurrencyUSD, car.Currency)
	assert.Equal(t, int64(19_917_500), car.Price)
	assert.Equal(t, int64(15_500), car.PriceUSD)
	assert.Equal(t, raw.URL, car.URL)
}

func TestAggregatorCarsNeverNil(t *testing.T) {
	assert.NotNil(t, NewAggregator().Cars())
}
