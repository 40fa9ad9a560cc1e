package discovery

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/resilience"
)

type fakeAdapter struct {
	name  string
	delay time.Duration
	err   error
	calls atomic.Int32
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Discover(ctx context.Context, q Query) ([]model.Lead, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return []model.Lead{
		{Business: model.Business{Name: f.name + ":" + q.Keyword + ":" + q.Location + ":1"}},
		{Business: model.Business{Name: f.name + ":" + q.Keyword + ":" + q.Location + ":2"}},
	}, nil
}

func fastRunner(adapters ...Adapter) *Runner {
	return NewRunner(adapters, RunnerConfig{Concurrency: 8, DefaultRate: 1000})
}

func names(leads []model.Lead) []string {
	out := make([]string, len(leads))
	for i, l := range leads {
		out[i] = l.Business.Name
	}
	return out
}

func TestRunner_DeterministicOrder(t *testing.T) {
	slow := &fakeAdapter{name: "slow", delay: 20 * time.Millisecond}
	fast := &fakeAdapter{name: "fast"}
	r := fastRunner(slow, fast)
	assert.Equal(t, []string{"slow", "fast"}, r.Adapters())

	leads, err := r.Run(context.Background(), Queries([]string{"pizza", "tacos"}, []string{"Austin"}, 10), "run-1")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"slow:pizza:Austin:1", "slow:pizza:Austin:2",
		"slow:tacos:Austin:1", "slow:tacos:Austin:2",
		"fast:pizza:Austin:1", "fast:pizza:Austin:2",
		"fast:tacos:Austin:1", "fast:tacos:Austin:2",
	}, names(leads))
	for _, l := range leads {
		assert.Equal(t, "run-1", l.Raw.RunID)
		assert.False(t, l.Raw.CollectedAt.IsZero())
		assert.Empty(t, l.DedupeID)
	}
}

func TestRunner_SkipsFailingAdapter(t *testing.T) {
	bad := &fakeAdapter{name: "bad", err: errors.New("blocked")}
	good := &fakeAdapter{name: "good"}

	leads, err := fastRunner(bad, good).Run(context.Background(), []Query{{Keyword: "pizza", Location: "Austin"}}, "r")
	require.NoError(t, err)
	assert.Equal(t, []string{"good:pizza:Austin:1", "good:pizza:Austin:2"}, names(leads))
}

func TestRunner_BreakerOpensPerAdapter(t *testing.T) {
	bad := &fakeAdapter{name: "bad", err: errors.New("down")}
	r := NewRunner([]Adapter{bad}, RunnerConfig{
		Concurrency: 1,
		DefaultRate: 1000,
		Breaker:     resilience.CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour},
	})

	queries := Queries([]string{"a", "b", "c", "d"}, []string{"Austin"}, 5)
	leads, err := r.Run(context.Background(), queries, "r")
	require.NoError(t, err)
	assert.Empty(t, leads)
	assert.Equal(t, int32(2), bad.calls.Load())
	assert.Equal(t, resilience.CircuitOpen, r.BreakerStates()["bad"])
}

func TestRunner_KeepsCollectedAt(t *testing.T) {
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	a := adapterFunc{name: "x", fn: func(context.Context, Query) ([]model.Lead, error) {
		return []model.Lead{{Raw: model.Raw{CollectedAt: at}}}, nil
	}}
	leads, err := fastRunner(a).Run(context.Background(), []Query{{}}, "r")
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, at, leads[0].Raw.CollectedAt)
}

func TestRunner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fastRunner(&fakeAdapter{name: "x"}).Run(ctx, []Query{{}}, "r")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueries(t *testing.T) {
	qs := Queries([]string{"pizza", "tacos"}, []string{"Austin", "Dallas"}, 7)
	assert.Equal(t, []Query{
		{Keyword: "pizza", Location: "Austin", MaxResults: 7},
		{Keyword: "pizza", Location: "Dallas", MaxResults: 7},
		{Keyword: "tacos", Location: "Austin", MaxResults: 7},
		{Keyword: "tacos", Location: "Dallas", MaxResults: 7},
	}, qs)
	assert.Empty(t, Queries(nil, []string{"Austin"}, 1))
}

type adapterFunc struct {
	name string
	fn   func(context.Context, Query) ([]model.Lead, error)
}

func (a adapterFunc) Name() string { return a.name }

func (a adapterFunc) Discover(ctx context.Context, q Query) ([]model.Lead, error) {
	return a.fn(ctx, q)
}
