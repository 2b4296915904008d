package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchPiUSD(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "pi-network", r.URL.Query().Get("ids"))
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))
		assert.Equal(t, "demo-key", r.URL.Query().Get("x_cg_demo_api_key"))
		_, _ = w.Write([]byte(`{"pi-network":{"usd":0.4821}}`))
	}))
	defer srv.Close()

	price, err := NewClient(srv.URL, "demo-key", time.Second).FetchPiUSD(context.Background())
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("0.4821")))
}

func TestFetchPiUSD_Failures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"missing coin": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		},
		"zero price": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"pi-network":{"usd":0}}`))
		},
		"garbage": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		},
	}

	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			_, err := NewClient(srv.URL, "", time.Second).FetchPiUSD(context.Background())
			assert.Error(t, err)
		})
	}
}
