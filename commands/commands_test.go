package commands

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autovalor/models"
	"autovalor/storage"
)

type memWriter struct {
	got    []*models.Car
	closed bool
	err    error
}

func (m *memWriter) Write(cars []*models.Car) error {
	m.got = cars
	return m.err
}

func (m *memWriter) Close() error {
	m.closed = true
	return nil
}

func TestPrintTable(t *testing.T) {
	year := 2019
	var buf bytes.Buffer
	printTable(&buf, []*models.Car{
		{ID: 1, Source: models.SourceKavak, Title: "Toyota Etios", Year: &year, Price: 19_275_000, PriceUSD: 15_000, PriceScore: models.ScoreBueno},
	})

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, "PRICE USD")
	assert.Contains(t, out, "Toyota Etios")
	assert.Contains(t, out, "19275000")
	assert.Contains(t, out, "bueno")
	assert.Equal(t, 1, strings.Count(out, "kavak"))
}

func TestWriteCarsClosesOnError(t *testing.T) {
	w := &memWriter{err: errors.New("disk full")}
	err := writeCars([]*models.Car{{ID: 1}}, func() (storage.CarWriter, error) { return w, nil })

	assert.EqualError(t, err, "disk full")
	assert.True(t, w.closed)
	assert.Len(t, w.got, 1)
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "Gol", shorten("Gol", 5))
	assert.Equal(t, "Volk…", shorten("Volkswagen", 5))
}

func TestRootRegistersCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "search", "rate", "report"} {
		assert.True(t, names[want], want)
	}
}
