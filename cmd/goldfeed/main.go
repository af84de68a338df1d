package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"goldfeed/internal/config"
	"goldfeed/internal/fallback"
	"goldfeed/internal/httpx"
	"goldfeed/internal/market"
	"goldfeed/internal/poller"
	"goldfeed/internal/provider"
	"goldfeed/internal/provider/synthetic"
)

func main() {
	var what, period, configPath string
	var watch bool
	flag.StringVar(&what, "what", "quote", "quote|series|signals|news|stats")
	flag.StringVar(&period, "period", string(provider.DefaultPeriod), "series period (1D,1W,1M,3M,6M,1Y)")
	flag.BoolVar(&watch, "watch", false, "poll the current quote and print every snapshot until interrupted")
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.json or config.yaml (optional)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, clockwork.NewRealClock())
	if err != nil {
		log.Fatalf("setup: %v", err)
	}
	if watch {
		err = a.watch(ctx, os.Stdout)
	} else {
		err = a.print(ctx, os.Stdout, what, period)
	}
	if err != nil {
		log.Fatal(err)
	}
}

type app struct {
	chain   *fallback.Chain
	svc     *market.Service
	poller  *poller.Poller
	updates chan poller.Snapshot
}

func newApp(cfg config.Config, clock clockwork.Clock) (*app, error) {
	hc := httpx.New(cfg.Timeout())
	providers := cfg.BuildProviders(hc, clock)
	if len(providers) == 0 {
		log.Println("warning: no live providers configured; serving synthetic data")
	}

	gen := synthetic.New(cfg.Synthetic, synthetic.WithClock(clock))
	chain := fallback.New(gen, providers, fallback.WithTimeout(cfg.Timeout()))

	schedule, err := poller.ParseSchedule(cfg.Poller.Schedule)
	if err != nil {
		return nil, fmt.Errorf("poller schedule: %w", err)
	}
	a := &app{chain: chain, updates: make(chan poller.Snapshot, 1)}
	a.poller = poller.New(chain, poller.WithClock(clock), poller.WithSchedule(schedule), poller.OnUpdate(a.publish))
	a.svc = market.New(chain, market.WithClock(clock), market.WithPoller(a.poller, cfg.MaxAge()))
	return a, nil
}

// publish keeps only the newest snapshot when the reader falls behind.
func (a *app) publish(s poller.Snapshot) {
	for {
		select {
		case a.updates <- s:
			return
		default:
		}
		select {
		case <-a.updates:
		default:
		}
	}
}

func (a *app) print(ctx context.Context, w io.Writer, what, period string) error {
	var v any
	switch what {
	case "quote":
		v = a.svc.GetCurrentQuote(ctx)
	case "series":
		v = a.svc.GetHistoricalSeries(ctx, period)
	case "signals":
		v = a.svc.GetSignals()
	case "news":
		v = a.svc.GetNews()
	case "stats":
		v = a.svc.GetMarketStats(ctx)
	default:
		return fmt.Errorf("unknown -what %q", what)
	}
	return writeJSON(w, v)
}

// watch runs the poller until ctx is done, printing each snapshot.
func (a *app) watch(ctx context.Context, w io.Writer) error {
	if err := a.poller.Start(ctx); err != nil {
		return err
	}
	defer a.poller.Stop()
	log.Printf("watching %v", a.chain.Names())

	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-a.updates:
			if err := writeJSON(w, newSnapshotView(s)); err != nil {
				return err
			}
		}
	}
}

type attemptView struct {
	Provider  string `json:"provider"`
	Error     string `json:"error,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

type snapshotView struct {
	State     string         `json:"state"`
	Quote     provider.Quote `json:"quote"`
	Error     string         `json:"error,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
	Polls     int64          `json:"polls"`
	PollID    string         `json:"poll_id"`
	Attempts  []attemptView  `json:"attempts,omitempty"`
}

func newSnapshotView(s poller.Snapshot) snapshotView {
	v := snapshotView{
		State:     s.State.String(),
		Quote:     s.Quote,
		Error:     s.Err,
		UpdatedAt: s.UpdatedAt,
		Polls:     s.Polls,
		PollID:    s.PollID,
	}
	for _, at := range s.Attempts {
		av := attemptView{Provider: at.Provider, ElapsedMS: at.Elapsed.Milliseconds()}
		if at.Err != nil {
			av.Error = at.Err.Error()
		}
		v.Attempts = append(v.Attempts, av)
	}
	return v
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
