package fcs

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goldfeed/internal/provider"
)

const latestBody = `{"status": true, "code": 200, "msg": "Successfully", "response": [
	{"id": "1984", "o": "2688.10", "h": "2710.40", "l": "2681.00", "c": "2701.33",
	 "ch": "+13.23", "cp": "+0.49%", "price": "2701.33", "chg": "+13.23", "chp": "+0.49%",
	 "t": "1748874000", "s": "XAU/USD", "tm": "2025-06-02 14:20:00"}]}`

const historyBody = `{"status": true, "response": [
	{"o": "2650.00", "h": "2660.00", "l": "2640.00", "c": "2655.50", "t": "1748736000", "tm": "2025-06-01 00:00:00", "date": "2025-06-01 00:00:00"},
	{"o": "2600.00", "h": "2610.00", "l": "2590.00", "c": "2601.25", "t": "1748563200", "tm": "2025-05-30 00:00:00", "date": "2025-05-30 00:00:00"},
	{"c": "n/a", "date": "2025-05-31 00:00:00"},
	{"o": "2690.00", "h": "2705.00", "l": "2685.00", "c": "2701.33", "t": "1748822400", "tm": "2025-06-02 00:00:00", "date": "2025-06-02 00:00:00"}]}`

func newServer(t *testing.T, status int, body string) (*httptest.Server, *url.URL) {
	t.Helper()
	var last url.URL
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last = *r.URL
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &last
}

func TestFetchQuote(t *testing.T) {
	srv, req := newServer(t, http.StatusOK, latestBody)
	p := New(Config{BaseURL: srv.URL + "/", APIKey: "secret"}, nil)

	q, err := p.FetchQuote(t.Context())
	require.NoError(t, err)
	require.Equal(t, "/api-v3/forex/latest", req.Path)
	require.Equal(t, "XAU/USD", req.Query().Get("symbol"))
	require.Equal(t, "secret", req.Query().Get("access_key"))

	require.Equal(t, "fcs", q.Source)
	require.Equal(t, 2701.33, q.Price)
	require.Equal(t, 13.23, *q.Change)
	require.Equal(t, 0.49, *q.ChangePercent)
	require.Equal(t, time.Date(2025, 6, 2, 14, 20, 0, 0, time.UTC), q.Timestamp)
}

func TestFetchQuote_WithoutChangeFields(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"status": true, "response": [{"price": "2701.33"}]}`)
	p := New(Config{BaseURL: srv.URL, APIKey: "k"}, nil)
	fixed := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	q, err := p.FetchQuote(t.Context())
	require.NoError(t, err)
	require.Nil(t, q.Change)
	require.Nil(t, q.ChangePercent)
	require.Equal(t, fixed, q.Timestamp)
}

func TestFetchQuote_Failures(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
		kind   provider.Kind
	}{
		"forbidden":      {http.StatusForbidden, `{}`, provider.KindTransport},
		"status false":   {http.StatusOK, `{"status": false, "code": 101, "msg": "API Key is Not Valid"}`, provider.KindSchema},
		"empty response": {http.StatusOK, `{"status": true, "response": []}`, provider.KindSchema},
		"missing price":  {http.StatusOK, `{"status": true, "response": [{"s": "XAU/USD"}]}`, provider.KindSchema},
		"garbage price":  {http.StatusOK, `{"status": true, "response": [{"price": "n/a"}]}`, provider.KindSchema},
		"numeric price":  {http.StatusOK, `{"status": true, "response": [{"price": 2701.33}]}`, provider.KindSchema},
		"zero price":     {http.StatusOK, `{"status": true, "response": [{"price": "0"}]}`, provider.KindSchema},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv, _ := newServer(t, tc.status, tc.body)
			_, err := New(Config{BaseURL: srv.URL, APIKey: "secret"}, nil).FetchQuote(t.Context())
			require.True(t, provider.IsKind(err, tc.kind), "got %v", err)
			require.NotContains(t, err.Error(), "secret")
		})
	}
}

func TestNoKeyIsUnsupported(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	defer srv.Close()
	p := New(Config{BaseURL: srv.URL}, nil)

	_, err := p.FetchQuote(t.Context())
	require.True(t, provider.IsKind(err, provider.KindUnsupported))
	_, err = p.FetchSeries(t.Context(), provider.Period1M)
	require.True(t, provider.IsKind(err, provider.KindUnsupported))
	require.Zero(t, calls)
}

func TestFetchSeries(t *testing.T) {
	srv, req := newServer(t, http.StatusOK, historyBody)
	p := New(Config{BaseURL: srv.URL, APIKey: "k"}, nil)

	s, err := p.FetchSeries(t.Context(), provider.Period1W)
	require.NoError(t, err)
	require.Equal(t, "/api-v3/forex/history", req.Path)
	require.Equal(t, "1d", req.Query().Get("period"))
	require.True(t, s.Success)
	require.Equal(t, "fcs", s.Source)
	require.True(t, provider.ValidSeries(s))

	prices := make([]float64, len(s.Points))
	for i, pt := range s.Points {
		prices[i] = pt.Price
	}
	require.Equal(t, []float64{2601.25, 2655.5, 2701.33}, prices)
}

func TestFetchSeries_IntradayAndFailures(t *testing.T) {
	srv, req := newServer(t, http.StatusOK, `{"status": true, "response": []}`)
	p := New(Config{BaseURL: srv.URL, APIKey: "k"}, nil)

	_, err := p.FetchSeries(t.Context(), provider.Period1D)
	assert.Equal(t, "1h", req.Query().Get("period"))
	require.True(t, provider.IsKind(err, provider.KindSchema))

	srv, _ = newServer(t, http.StatusOK, `{"status": false, "msg": "limit reached"}`)
	_, err = New(Config{BaseURL: srv.URL, APIKey: "k"}, nil).FetchSeries(t.Context(), provider.Period1M)
	require.True(t, provider.IsKind(err, provider.KindSchema))
	require.True(t, strings.Contains(err.Error(), "limit reached"))
}
