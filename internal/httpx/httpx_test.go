package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedact(t *testing.T) {
	cases := map[string]string{
		"https://fcsapi.com/api-v3/forex/latest?access_key=s3cr3t&symbol=XAU%2FUSD": "https://fcsapi.com/api-v3/forex/latest?access_key=REDACTED&symbol=XAU%2FUSD",
		"https://www.alphavantage.co/query?apikey=s3cr3t&function=FX_DAILY":         "https://www.alphavantage.co/query?apikey=REDACTED&function=FX_DAILY",
		"https://api.coinbase.com/v2/prices/XAU-USD/spot":                           "https://api.coinbase.com/v2/prices/XAU-USD/spot",
		"::not a url": "::not a url",
	}
	for in, want := range cases {
		require.Equal(t, want, Redact(in))
	}
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"price": 2701.33}`))
	}))
	defer srv.Close()

	var out struct {
		Price float64 `json:"price"`
	}
	require.NoError(t, New(0).GetJSON(t.Context(), srv.URL, &out))
	require.Equal(t, 2701.33, out.Price)
}

func TestGetJSON_ErrorsHideCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/denied":
			http.Error(w, "invalid key", http.StatusForbidden)
		default:
			_, _ = w.Write([]byte(`<html>`))
		}
	}))
	defer srv.Close()
	c := New(0)
	var out map[string]any

	err := c.GetJSON(t.Context(), srv.URL+"/denied?apikey=s3cr3t", &out)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusForbidden, se.Code)
	require.NotContains(t, err.Error(), "s3cr3t")

	err = c.GetJSON(t.Context(), srv.URL+"/html?access_key=s3cr3t", &out)
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	require.NotContains(t, err.Error(), "s3cr3t")

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	err = c.GetJSON(ctx, srv.URL+"/?token=s3cr3t", &out)
	require.ErrorIs(t, err, context.Canceled)
	require.NotContains(t, err.Error(), "s3cr3t")
}
