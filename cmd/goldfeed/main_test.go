package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"goldfeed/internal/config"
	"goldfeed/internal/fallback"
	"goldfeed/internal/poller"
	"goldfeed/internal/provider"
)

// offlineConfig has no live providers, so every answer is synthetic.
func offlineConfig() config.Config {
	cfg := config.Default()
	cfg.Providers.Order = nil
	return cfg
}

func TestPrint_Quote_BackendThenSynthetic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": true, "price": 2701.33, "change": 12.5, "change_percent": 0.46}`))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Providers.Order = []string{config.NameBackend}
	cfg.Providers.Backend.BaseURL = srv.URL
	a, err := newApp(cfg, clockwork.NewRealClock())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, a.print(t.Context(), &buf, "quote", ""))
	var q provider.Quote
	require.NoError(t, json.Unmarshal(buf.Bytes(), &q))
	require.Equal(t, 2701.33, q.Price)
	require.Equal(t, "backend", q.Source)

	srv.Close()
	a, err = newApp(cfg, clockwork.NewRealClock())
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, a.print(t.Context(), &buf, "quote", ""))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &q))
	require.Equal(t, provider.SourceSynthetic, q.Source)
}

func TestPrint_AllViews(t *testing.T) {
	a, err := newApp(offlineConfig(), clockwork.NewRealClock())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, a.print(t.Context(), &buf, "series", "1W"))
	var s struct {
		Period  string `json:"period"`
		Prices  []any  `json:"prices"`
		Success bool   `json:"success"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &s))
	require.Equal(t, "1W", s.Period)
	require.Len(t, s.Prices, 7)
	require.False(t, s.Success)

	for _, what := range []string{"signals", "news", "stats"} {
		buf.Reset()
		require.NoError(t, a.print(t.Context(), &buf, what, ""), what)
		require.True(t, json.Valid(buf.Bytes()), what)
	}

	require.Error(t, a.print(t.Context(), &buf, "weather", ""))
}

func TestWatch_PrintsSnapshotsUntilCancelled(t *testing.T) {
	fc := clockwork.NewFakeClockAt(time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC))
	a, err := newApp(offlineConfig(), fc)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	var buf safeBuffer
	done := make(chan error, 1)
	go func() { done <- a.watch(ctx, &buf) }()

	require.Eventually(t, func() bool { return a.poller.Snapshot().Polls == 1 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return bytes.Contains(buf.Bytes(), []byte(`"polls": 1`)) }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	var v snapshotView
	require.NoError(t, json.NewDecoder(bytes.NewReader(buf.Bytes())).Decode(&v))
	require.Equal(t, "ready", v.State)
	require.Equal(t, poller.FallbackMessage, v.Error)
	require.NotEmpty(t, v.PollID)
}

func TestNewSnapshotView_Attempts(t *testing.T) {
	v := newSnapshotView(poller.Snapshot{
		State: poller.Ready,
		Attempts: []fallback.Attempt{
			{Provider: "backend", Err: errors.New("connection refused"), Elapsed: 1500 * time.Millisecond},
			{Provider: "yahoo", Elapsed: 200 * time.Millisecond},
		},
	})
	require.Equal(t, []attemptView{
		{Provider: "backend", Error: "connection refused", ElapsedMS: 1500},
		{Provider: "yahoo", ElapsedMS: 200},
	}, v.Attempts)
}

func TestPublish_KeepsNewest(t *testing.T) {
	a := &app{updates: make(chan poller.Snapshot, 1)}
	a.publish(poller.Snapshot{Polls: 1})
	a.publish(poller.Snapshot{Polls: 2})
	require.Equal(t, int64(2), (<-a.updates).Polls)
}

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}
