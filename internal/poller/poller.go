// Package poller refreshes the current quote on a schedule and publishes
// immutable snapshots for concurrent readers.
package poller

import (
	"context"
	"errors"
	"log"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"

	"goldfeed/internal/fallback"
	"goldfeed/internal/provider"
)

// DefaultInterval is the time between polls.
const DefaultInterval = 30 * time.Second

// FallbackMessage is set on snapshots whose quote is synthetic.
const FallbackMessage = "using fallback data"

type State int

const (
	Loading State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "loading"
}

// Snapshot is the result of one completed poll. A new Snapshot replaces the
// previous one whole; fields are never updated in place.
type Snapshot struct {
	State     State
	Quote     provider.Quote
	Err       string // advisory only; the quote is usable whenever State is Ready
	UpdatedAt time.Time
	Polls     int64
	PollID    string
	Attempts  []fallback.Attempt
}

// Stale reports whether the snapshot is older than maxAge at now. A
// snapshot still Loading is always stale.
func (s Snapshot) Stale(now time.Time, maxAge time.Duration) bool {
	return s.State != Ready || now.Sub(s.UpdatedAt) > maxAge
}

// Source produces a quote and never fails; *fallback.Chain satisfies it.
type Source interface {
	Quote(ctx context.Context) (provider.Quote, []fallback.Attempt)
}

type Poller struct {
	src      Source
	clock    clockwork.Clock
	schedule cron.Schedule
	onUpdate func(Snapshot)

	snap     atomic.Pointer[Snapshot]
	inFlight atomic.Bool

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type Option func(*Poller)

func WithClock(c clockwork.Clock) Option {
	return func(p *Poller) { p.clock = c }
}

// WithSchedule sets when polls after the first one fire.
func WithSchedule(s cron.Schedule) Option {
	return func(p *Poller) { p.schedule = s }
}

// WithInterval is WithSchedule(cron.Every(d)).
func WithInterval(d time.Duration) Option {
	return func(p *Poller) { p.schedule = cron.Every(d) }
}

// OnUpdate registers fn to be called with every published snapshot. It runs
// on the poll goroutine and must not block for long.
func OnUpdate(fn func(Snapshot)) Option {
	return func(p *Poller) { p.onUpdate = fn }
}

// ParseSchedule accepts standard cron specs and descriptors such as
// "@every 30s". Empty means DefaultInterval.
func ParseSchedule(spec string) (cron.Schedule, error) {
	if spec == "" {
		return cron.Every(DefaultInterval), nil
	}
	return cron.ParseStandard(spec)
}

func New(src Source, opts ...Option) *Poller {
	p := &Poller{
		src:      src,
		clock:    clockwork.NewRealClock(),
		schedule: cron.Every(DefaultInterval),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.snap.Store(&Snapshot{State: Loading})
	return p
}

// Snapshot returns the latest published snapshot.
func (p *Poller) Snapshot() Snapshot { return *p.snap.Load() }

// Start fires the first poll immediately and then follows the schedule
// until ctx is done or Stop is called. A Poller can be started once.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return errors.New("poller: stopped")
	}
	if p.started {
		return errors.New("poller: already started")
	}
	p.started = true

	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go p.loop(ctx)
	return nil
}

// Stop cancels the schedule and any in-flight poll and waits for them.
// Results that arrive after Stop are discarded.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
}

// Refresh polls now, in the caller's goroutine, unless a poll is already in
// flight. It reports whether a poll ran.
func (p *Poller) Refresh(ctx context.Context) (Snapshot, bool) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return p.Snapshot(), false
	}
	defer p.inFlight.Store(false)
	p.poll(ctx)
	return p.Snapshot(), true
}

func (p *Poller) loop(ctx context.Context) {
	defer p.wg.Done()

	p.tick(ctx)
	for {
		t := p.clock.NewTimer(p.wait(p.clock.Now()))
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.Chan():
			p.tick(ctx)
		}
	}
}

// wait is the time from now until the next poll. cron truncates a constant
// delay schedule to whole seconds, which would shorten the interval by up to
// a second, so fixed intervals are measured from now directly.
func (p *Poller) wait(now time.Time) time.Duration {
	if every, ok := p.schedule.(cron.ConstantDelaySchedule); ok {
		return every.Delay
	}
	return p.schedule.Next(now).Sub(now)
}

// tick starts a poll unless the previous one is still running.
func (p *Poller) tick(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		log.Printf("poller: previous poll still in flight, skipping tick")
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.inFlight.Store(false)
		p.poll(ctx)
	}()
}

func (p *Poller) poll(ctx context.Context) {
	id := uuid.NewString()
	q, attempts := p.src.Quote(ctx)

	prev := p.snap.Load()
	next := &Snapshot{
		State:     Ready,
		Quote:     q,
		UpdatedAt: p.clock.Now(),
		Polls:     prev.Polls + 1,
		PollID:    id,
		Attempts:  slices.Clone(attempts),
	}
	if q.Source == provider.SourceSynthetic {
		next.Err = FallbackMessage
	}

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		log.Printf("poller: discarding poll %s after stop", id)
		return
	}
	p.snap.Store(next)
	p.mu.Unlock()

	log.Printf("poller: poll %s: %.2f from %s", id, q.Price, q.Source)
	if p.onUpdate != nil {
		p.onUpdate(*next)
	}
}
