package mercadolibre

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autovalor/models"
	"autovalor/scraper"
	"autovalor/utils"
)

func TestSearchSlug(t *testing.T) {
	assert.Equal(t, "gol-trend-1.6", SearchSlug("  gol   trend 1.6 "))
	assert.Equal(t, "", SearchSlug("   "))
}

func TestPageURL(t *testing.T) {
	s := New(Config{}, utils.NewNopLogger())
	assert.Equal(t, "https://listado.mercadolibre.com.ar/gol-trend_Desde_0", s.PageURL("gol trend", 0))
	assert.Equal(t, "https://listado.mercadolibre.com.ar/gol-trend_Desde_96", s.PageURL("gol trend", 2))
}

func TestFetchSkipsFailingPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "_Desde_0"):
			fmt.Fprintf(w, "<html><body><ol>%s%s</ol></body></html>", polyItem, legacyItem)
		case strings.HasSuffix(r.URL.Path, "_Desde_48"):
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			fmt.Fprintf(w, "<html><body><ol>%s</ol></body></html>", legacyItem)
		}
	}))
	defer srv.Close()

	s := New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second}, utils.NewNopLogger())
	batch := s.Fetch(context.Background(), models.SearchOptions{Query: "gol trend", Pages: 3})

	assert.Equal(t, models.SourceMercadoLibre, batch.Source)
	require.Len(t, batch.Items, 3)
	for i, item := range batch.Items {
		assert.Equal(t, i, item.Index)
		require.NoError(t, item.Err)
	}
	assert.Equal(t, "Volkswagen Gol Trend 1.6 Highline", batch.Items[0].Car.Title)
	assert.Equal(t, "Ford Ka 1.5 SE", batch.Items[2].Car.Title)
	assert.ErrorIs(t, batch.Err, scraper.ErrSourceUnavailable)
}

func TestFetchRetriesPage(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprintf(w, "<html><body><ol>%s</ol></body></html>", legacyItem)
	}))
	defer srv.Close()

	s := New(Config{
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
		Retry:   &utils.RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond},
	}, utils.NewNopLogger())
	batch := s.Fetch(context.Background(), models.SearchOptions{Query: "ka", Pages: 1})

	require.NoError(t, batch.Err)
	require.Len(t, batch.Items, 1)
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchUnreachableSource(t *testing.T) {
	s := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, utils.NewNopLogger())
	batch := s.Fetch(context.Background(), models.SearchOptions{Query: "gol", Pages: 1})

	assert.Empty(t, batch.Items)
	assert.ErrorIs(t, batch.Err, scraper.ErrSourceUnavailable)
}
