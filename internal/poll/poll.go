// Package poll implements a reference-counted polling registry for the
// Bubble Tea update loop. Components subscribe to a key with a fetch
// operation and an interval policy; the registry guarantees one network
// cycle per key regardless of subscriber count, applies results in
// arrival order, and fences out results that were issued before the
// subscription was torn down or restarted.
//
// The registry must only be touched from the program's Update goroutine.
// Fetches themselves run inside tea.Cmd goroutines, but they never
// mutate the registry; their results come back as Result messages.
package poll

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const fetchTimeout = 30 * time.Second

// FetchFunc loads the latest snapshot for a subscription key.
type FetchFunc func(ctx context.Context) (any, error)

// Decision tells the registry whether to keep polling after a result.
type Decision int

const (
	Continue Decision = iota
	Stop
)

// Policy inspects the newest result and returns the delay before the
// next fetch plus whether polling should continue. A Stop decision
// cancels the timer; the last value stays readable via Latest until
// the final subscriber detaches.
type Policy func(value any, err error) (time.Duration, Decision)

// Every returns a fixed-interval policy that never stops.
func Every(interval time.Duration) Policy {
	return func(any, error) (time.Duration, Decision) {
		return interval, Continue
	}
}

// Result carries a fetch outcome back into the update loop.
type Result struct {
	Key   string
	Gen   uint64
	Value any
	Err   error
}

// Tick fires when a key's interval elapses and the next fetch is due.
type Tick struct {
	Key string
	Gen uint64
}

// Handle identifies one subscription for Unsubscribe.
type Handle struct {
	key string
	id  int
}

// Key returns the polling key this handle is attached to.
func (h Handle) Key() string { return h.key }

type entry struct {
	fetch  FetchFunc
	policy Policy

	subs map[int]struct{}

	// gen fences stale work: every restart or teardown bumps it, and
	// Results or Ticks carrying an older gen are discarded on arrival.
	gen uint64

	latest    any
	hasLatest bool
	stopped   bool

	// tickPending collapses overlapping cycles (a manual Refresh racing
	// a scheduled tick) down to a single timer per key.
	tickPending bool
}

// Registry is the subscription table. Zero concurrent use: it lives on
// the update loop.
type Registry struct {
	entries map[string]*entry
	nextID  int
	logger  *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		entries: make(map[string]*entry),
		logger:  logger,
	}
}

// Subscribe attaches a subscriber to key. The first subscriber causes an
// immediate fetch; later subscribers share the existing cycle and get
// nil back. Subscribing to a stopped key restarts its cycle.
func (r *Registry) Subscribe(key string, fetch FetchFunc, policy Policy) (Handle, tea.Cmd) {
	r.nextID++
	h := Handle{key: key, id: r.nextID}

	e, ok := r.entries[key]
	if !ok {
		e = &entry{
			fetch:  fetch,
			policy: policy,
			subs:   make(map[int]struct{}),
			gen:    1,
		}
		r.entries[key] = e
		e.subs[h.id] = struct{}{}
		return h, r.fetchCmd(key, e.gen, e.fetch)
	}

	e.subs[h.id] = struct{}{}
	if e.stopped {
		// Restart the cycle under a fresh generation.
		e.stopped = false
		e.gen++
		e.tickPending = false
		return h, r.fetchCmd(key, e.gen, e.fetch)
	}
	return h, nil
}

// Unsubscribe detaches a handle. When the last subscriber leaves, the
// entry is destroyed: pending ticks die and in-flight results are
// discarded on arrival.
func (r *Registry) Unsubscribe(h Handle) {
	e, ok := r.entries[h.key]
	if !ok {
		return
	}
	delete(e.subs, h.id)
	if len(e.subs) == 0 {
		delete(r.entries, h.key)
	}
}

// Latest returns the most recently applied value for key, if any. It
// remains available after the policy stops the cycle.
func (r *Registry) Latest(key string) (any, bool) {
	e, ok := r.entries[key]
	if !ok || !e.hasLatest {
		return nil, false
	}
	return e.latest, true
}

// Refresh issues an extra fetch immediately without disturbing the
// schedule. The racing results are applied in arrival order.
func (r *Registry) Refresh(key string) tea.Cmd {
	e, ok := r.entries[key]
	if !ok {
		return nil
	}
	if e.stopped {
		e.stopped = false
		e.gen++
		e.tickPending = false
	}
	return r.fetchCmd(key, e.gen, e.fetch)
}

// Apply ingests a fetch result. It reports whether the result was
// applied (stale or torn-down results are dropped) and returns the
// command scheduling the next tick, if polling continues.
func (r *Registry) Apply(res Result) (bool, tea.Cmd) {
	e, ok := r.entries[res.Key]
	if !ok || res.Gen != e.gen || e.stopped {
		return false, nil
	}

	if res.Err != nil {
		// Transient poll errors keep the previous value and the schedule.
		r.logger.Debug("poll fetch failed", "key", res.Key, "error", res.Err)
	} else {
		e.latest = res.Value
		e.hasLatest = true
	}

	interval, decision := e.policy(res.Value, res.Err)
	if decision == Stop {
		e.stopped = true
		return res.Err == nil, nil
	}

	var cmd tea.Cmd
	if !e.tickPending {
		e.tickPending = true
		cmd = tickCmd(res.Key, e.gen, interval)
	}
	return res.Err == nil, cmd
}

// HandleTick reacts to an elapsed interval by issuing the next fetch.
// Ticks for torn-down or restarted keys are ignored.
func (r *Registry) HandleTick(t Tick) tea.Cmd {
	e, ok := r.entries[t.Key]
	if !ok || t.Gen != e.gen || e.stopped {
		return nil
	}
	e.tickPending = false
	return r.fetchCmd(t.Key, e.gen, e.fetch)
}

func (r *Registry) fetchCmd(key string, gen uint64, fetch FetchFunc) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		value, err := fetch(ctx)
		return Result{Key: key, Gen: gen, Value: value, Err: err}
	}
}

func tickCmd(key string, gen uint64, interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return Tick{Key: key, Gen: gen}
	})
}
