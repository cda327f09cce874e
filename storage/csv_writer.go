package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"autovalor/models"
)

var csvHeader = []string{
	"id", "source", "title", "price", "price_usd", "currency", "year", "km",
	"location", "publish_date", "price_score", "url", "image",
}

// CSVWriter writes scored cars to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	closer io.Closer
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w, err := newCSVWriter(f, f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return w, nil
}

func newCSVWriter(out io.Writer, closer io.Closer) (*CSVWriter, error) {
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()
	return &CSVWriter{closer: closer, writer: w}, nil
}

// Write appends one row per car.
func (c *CSVWriter) Write(cars []*models.Car) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, car := range cars {
		row := []string{
			strconv.Itoa(car.ID),
			string(car.Source),
			car.Title,
			strconv.FormatInt(car.Price, 10),
			strconv.FormatInt(car.PriceUSD, 10),
			car.Currency,
			optionalInt(car.Year),
			optionalInt(car.Km),
			optionalString(car.Location),
			car.PublishDate,
			string(car.PriceScore),
			car.URL,
			car.Image,
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	if c.closer == nil {
		return c.writer.Error()
	}
	return c.closer.Close()
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optionalString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
