package rate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autovalor/utils"
)

func serve(t *testing.T, status int, body string) *Resolver {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewResolver(srv.URL, 2*time.Second, utils.NewNopLogger())
}

func TestResolveLiveRate(t *testing.T) {
	r := serve(t, http.StatusOK, `{"oficial":{"value_avg":900},"blue":{"value_avg":1190.5,"value_sell":1200}}`)

	got, err := r.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1190.5, got)
	assert.Equal(t, 1190.5, r.Resolve(context.Background()))
}

func TestResolveFallsBack(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"blue":{"value_avg":1100}}`},
		{"malformed json", http.StatusOK, `{"blue":`},
		{"missing blue", http.StatusOK, `{"oficial":{"value_avg":900}}`},
		{"missing value", http.StatusOK, `{"blue":{"value_sell":1200}}`},
		{"zero value", http.StatusOK, `{"blue":{"value_avg":0}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := serve(t, tt.status, tt.body)

			_, err := r.Fetch(context.Background())
			assert.ErrorIs(t, err, ErrRateUnavailable)
			assert.Equal(t, FallbackRate, r.Resolve(context.Background()))
		})
	}
}

func TestResolveUnreachable(t *testing.T) {
	r := NewResolver("http://127.0.0.1:1", time.Second, utils.NewNopLogger())
	assert.Equal(t, 1285.0, r.Resolve(context.Background()))
}
