package discovery

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/resilience"
)

// RunnerConfig tunes a Runner.
type RunnerConfig struct {
	// Concurrency bounds in-flight adapter queries. Default 4.
	Concurrency int
	// RequestsPerSecond limits queries per adapter, keyed by adapter name.
	// Missing names use DefaultRate.
	RequestsPerSecond map[string]float64
	// DefaultRate applies to adapters absent from RequestsPerSecond. Default 1.
	DefaultRate float64
	// Breaker configures the per-adapter circuit breaker.
	Breaker resilience.CircuitBreakerConfig
}

// Runner fans queries out over adapters.
type Runner struct {
	adapters    []Adapter
	limiters    map[string]*rate.Limiter
	breakers    *resilience.ServiceBreakers
	concurrency int
	now         func() time.Time
}

// NewRunner creates a Runner. Adapter order is significant: it fixes the
// order of the returned leads and therefore merge precedence.
func NewRunner(adapters []Adapter, cfg RunnerConfig) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.DefaultRate <= 0 {
		cfg.DefaultRate = 1
	}
	limiters := make(map[string]*rate.Limiter, len(adapters))
	for _, a := range adapters {
		rps := cfg.RequestsPerSecond[a.Name()]
		if rps <= 0 {
			rps = cfg.DefaultRate
		}
		limiters[a.Name()] = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &Runner{
		adapters:    adapters,
		limiters:    limiters,
		breakers:    resilience.NewServiceBreakers(cfg.Breaker),
		concurrency: cfg.Concurrency,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Adapters returns the configured adapter names in run order.
func (r *Runner) Adapters() []string {
	names := make([]string, len(r.adapters))
	for i, a := range r.adapters {
		names[i] = a.Name()
	}
	return names
}

// BreakerStates reports each adapter's circuit state.
func (r *Runner) BreakerStates() map[string]resilience.CircuitState {
	return r.breakers.States()
}

// Run runs every adapter over every query. Results are ordered by adapter,
// then query, then the adapter's own result order. A failing adapter query
// is logged and contributes nothing. Each lead is stamped with runID and,
// when unset, the collection time. Only a cancelled ctx returns an error.
func (r *Runner) Run(ctx context.Context, queries []Query, runID string) ([]model.Lead, error) {
	type task struct {
		adapter Adapter
		query   Query
	}
	tasks := make([]task, 0, len(r.adapters)*len(queries))
	for _, a := range r.adapters {
		for _, q := range queries {
			tasks = append(tasks, task{adapter: a, query: q})
		}
	}

	slots := make([][]model.Lead, len(tasks))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, t := range tasks {
		g.Go(func() error {
			slots[i] = r.discover(gCtx, t.adapter, t.query)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	collected := r.now()
	var leads []model.Lead
	for _, s := range slots {
		for _, l := range s {
			l.Raw.RunID = runID
			if l.Raw.CollectedAt.IsZero() {
				l.Raw.CollectedAt = collected
			}
			leads = append(leads, l)
		}
	}

	zap.L().Info("discovery: run complete",
		zap.String("run_id", runID),
		zap.Int("queries", len(tasks)),
		zap.Int("leads", len(leads)),
	)
	return leads, nil
}

func (r *Runner) discover(ctx context.Context, a Adapter, q Query) []model.Lead {
	log := zap.L().With(
		zap.String("source", a.Name()),
		zap.String("keyword", q.Keyword),
		zap.String("location", q.Location),
	)

	if err := r.limiters[a.Name()].Wait(ctx); err != nil {
		return nil
	}

	start := time.Now()
	leads, err := resilience.ExecuteVal(ctx, r.breakers.Get(a.Name()), func(ctx context.Context) ([]model.Lead, error) {
		return a.Discover(ctx, q)
	})
	if err != nil {
		log.Warn("discovery: source failed, skipping",
			zap.String("class", resilience.Classify(err)),
			zap.Error(err),
		)
		return nil
	}
	log.Debug("discovery: source done",
		zap.Int("leads", len(leads)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return leads
}

// Queries expands keywords × locations into queries, keyword-major.
func Queries(keywords, locations []string, maxResults int) []Query {
	out := make([]Query, 0, len(keywords)*len(locations))
	for _, k := range keywords {
		for _, loc := range locations {
			out = append(out, Query{Keyword: k, Location: loc, MaxResults: maxResults})
		}
	}
	return out
}
