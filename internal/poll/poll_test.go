package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benw5483/rectifierr/internal/log"
)

// countingFetch returns a fetch func that counts invocations and serves
// values from the queue, repeating the last one when exhausted.
func countingFetch(calls *int, values ...any) FetchFunc {
	i := 0
	return func(ctx context.Context) (any, error) {
		*calls++
		v := values[min(i, len(values)-1)]
		i++
		return v, nil
	}
}

func TestRegistry_DedupAcrossSubscribers(t *testing.T) {
	r := NewRegistry(log.NullLogger())
	calls := 0
	fetch := countingFetch(&calls, "a")

	h1, cmd1 := r.Subscribe("jobs", fetch, Every(time.Second))
	require.NotNil(t, cmd1, "first subscriber triggers an immediate fetch")

	h2, cmd2 := r.Subscribe("jobs", fetch, Every(time.Second))
	assert.Nil(t, cmd2, "later subscribers share the existing cycle")

	res := cmd1().(Result)
	assert.Equal(t, 1, calls)

	applied, next := r.Apply(res)
	assert.True(t, applied)
	assert.NotNil(t, next, "a continuing policy schedules the next tick")

	v, ok := r.Latest("jobs")
	require.True(t, ok)
	assert.Equal(t, "a", v)

	r.Unsubscribe(h1)
	_, ok = r.Latest("jobs")
	assert.True(t, ok, "value survives while a subscriber remains")

	r.Unsubscribe(h2)
	_, ok = r.Latest("jobs")
	assert.False(t, ok, "last unsubscribe destroys the entry")
}

func TestRegistry_StaleResultDiscardedAfterTeardown(t *testing.T) {
	r := NewRegistry(log.NullLogger())
	calls := 0

	h, cmd := r.Subscribe("jobs", countingFetch(&calls, "a"), Every(time.Second))
	res := cmd().(Result)

	// Tear down before the in-flight result lands.
	r.Unsubscribe(h)

	applied, next := r.Apply(res)
	assert.False(t, applied, "results issued before teardown are dropped")
	assert.Nil(t, next)
}

func TestRegistry_StaleResultDiscardedAfterRestart(t *testing.T) {
	r := NewRegistry(log.NullLogger())
	calls := 0
	stopAll := func(any, error) (time.Duration, Decision) { return 0, Stop }

	_, cmd := r.Subscribe("jobs", countingFetch(&calls, "a", "b"), stopAll)
	oldRes := cmd().(Result)

	applied, next := r.Apply(oldRes)
	assert.True(t, applied)
	assert.Nil(t, next, "stop decision cancels the timer")

	// A new subscriber restarts the cycle under a fresh generation.
	_, cmd2 := r.Subscribe("jobs", countingFetch(&calls, "b"), stopAll)
	require.NotNil(t, cmd2)

	applied, _ = r.Apply(oldRes)
	assert.False(t, applied, "previous-generation results are fenced out")

	newRes := cmd2().(Result)
	applied, _ = r.Apply(newRes)
	assert.True(t, applied)
}

func TestRegistry_StopKeepsLastValue(t *testing.T) {
	r := NewRegistry(log.NullLogger())
	calls := 0
	stopOnDone := func(v any, err error) (time.Duration, Decision) {
		if v == "done" {
			return 0, Stop
		}
		return time.Second, Continue
	}

	h, cmd := r.Subscribe("jobs", countingFetch(&calls, "done"), stopOnDone)
	res := cmd().(Result)

	applied, next := r.Apply(res)
	assert.True(t, applied)
	assert.Nil(t, next)

	v, ok := r.Latest("jobs")
	require.True(t, ok, "last value stays available after stop")
	assert.Equal(t, "done", v)

	// Ticks from before the stop are ignored.
	assert.Nil(t, r.HandleTick(Tick{Key: "jobs", Gen: res.Gen}))

	r.Unsubscribe(h)
	_, ok = r.Latest("jobs")
	assert.False(t, ok)
}

func TestRegistry_TransientErrorKeepsValueAndSchedule(t *testing.T) {
	r := NewRegistry(log.NullLogger())
	calls := 0

	_, cmd := r.Subscribe("jobs", countingFetch(&calls, "a"), Every(time.Second))
	res := cmd().(Result)
	applied, next := r.Apply(res)
	require.True(t, applied)
	require.NotNil(t, next)

	// Simulate the next cycle failing.
	tick := Tick{Key: "jobs", Gen: res.Gen}
	fetchCmd := r.HandleTick(tick)
	require.NotNil(t, fetchCmd)

	failed := Result{Key: "jobs", Gen: res.Gen, Err: errors.New("connection refused")}
	applied, next = r.Apply(failed)
	assert.False(t, applied, "errors never surface as applied values")
	assert.NotNil(t, next, "polling continues at the next interval")

	v, ok := r.Latest("jobs")
	require.True(t, ok)
	assert.Equal(t, "a", v, "previous good value is retained")
}

func TestRegistry_OneTimerPerKey(t *testing.T) {
	r := NewRegistry(log.NullLogger())
	calls := 0

	_, cmd := r.Subscribe("jobs", countingFetch(&calls, "a"), Every(time.Second))
	res := cmd().(Result)

	// A manual refresh races the scheduled cycle: two results land in
	// the same window, but only one next tick may be scheduled.
	refresh := r.Refresh("jobs")
	require.NotNil(t, refresh)
	res2 := refresh().(Result)

	_, next1 := r.Apply(res)
	_, next2 := r.Apply(res2)
	assert.NotNil(t, next1)
	assert.Nil(t, next2, "second result in the window must not add a timer")

	// Arrival order wins: the last applied value is the visible one.
	v, _ := r.Latest("jobs")
	assert.Equal(t, "a", v)
}

func TestRegistry_TickForUnknownKeyIgnored(t *testing.T) {
	r := NewRegistry(log.NullLogger())
	assert.Nil(t, r.HandleTick(Tick{Key: "ghost", Gen: 1}))
}

func TestRegistry_ArrivalOrderWins(t *testing.T) {
	r := NewRegistry(log.NullLogger())
	calls := 0

	_, cmd := r.Subscribe("jobs", countingFetch(&calls, "first", "second"), Every(time.Second))
	early := cmd().(Result)

	refresh := r.Refresh("jobs")
	late := refresh().(Result)

	// The later-issued response arrives first; the earlier-issued one
	// arrives last and overwrites it.
	r.Apply(late)
	r.Apply(early)

	v, ok := r.Latest("jobs")
	require.True(t, ok)
	assert.Equal(t, "first", v)
}
