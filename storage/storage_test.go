package storage

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autovalor/models"
)

func sampleCars() []*models.Car {
	year, km := 2019, 85000
	loc := "Capital Federal"
	return []*models.Car{
		{
			ID: 1, Source: models.SourceMercadoLibre, Title: "Gol, Trend", Price: 19917500, PriceUSD: 15500,
			Currency: models.CurrencyUSD, Year: &year, Km: &km, Location: &loc,
			PublishDate: "2025-03-07", PriceScore: models.ScoreBueno,
			URL: "https://www.mercadolibre.com.ar/MLA-1", Image: "https://img.test/1.jpg",
		},
		{
			ID: 2, Source: models.SourceKavak, Title: "Etios", Price: 0, PriceUSD: 0,
			Currency: models.CurrencyARS, PublishDate: models.UnknownPublishDate, PriceScore: models.ScoreRegular,
			URL: "https://www.kavak.com/ar", Image: models.PlaceholderImage,
		},
	}
}

func TestCSVWriterRows(t *testing.T) {
	var buf bytes.Buffer
	w, err := newCSVWriter(&buf, nil)
	require.NoError(t, err)
	require.NoError(t, w.Write(sampleCars()))
	require.NoError(t, w.Close())

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{
		"1", "mercadolibre", "Gol, Trend", "19917500", "15500", "USD", "2019", "85000",
		"Capital Federal", "2025-03-07", "bueno", "https://www.mercadolibre.com.ar/MLA-1", "https://img.test/1.jpg",
	}, records[1])
	assert.Equal(t, "", records[2][6], "missing year is blank")
	assert.Equal(t, "", records[2][8], "missing location is blank")
}

func TestNewCSVWriterCreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "cars.csv")
	w, err := NewCSVWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(sampleCars()[:1]))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestInsertStatement(t *testing.T) {
	query, args := insertStatement(sampleCars())

	assert.Contains(t, query, "($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)")
	assert.Contains(t, query, "($14,")
	assert.Contains(t, query, ",$26)")
	require.Len(t, args, 26)
	assert.Equal(t, 1, args[0])
	assert.Equal(t, "mercadolibre", args[1])
	assert.True(t, nullInt(sampleCars()[0].Year).Valid)
	assert.False(t, nullInt(nil).Valid)
	assert.False(t, nullString(nil).Valid)
}
