// Package pipeline orchestrates a lead run: discovery, enrichment, identity,
// merge, scoring, delta filtering, outreach drafting, and export.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/delta"
	"github.com/sells-group/lead-cli/internal/discovery"
	"github.com/sells-group/lead-cli/internal/enrich"
	"github.com/sells-group/lead-cli/internal/export"
	"github.com/sells-group/lead-cli/internal/identity"
	"github.com/sells-group/lead-cli/internal/merge"
	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/outreach"
	"github.com/sells-group/lead-cli/internal/scoring"
)

// SourceOrder is the order adapters run in. Merge keeps the later non-empty
// value, so the most authoritative source comes last.
var SourceOrder = []string{model.SourceSERP, model.SourceBBB, model.SourceYelp, model.SourceGoogleMaps}

// ProviderFactory builds the outreach provider for a run. It may return a
// nil provider to skip drafting.
type ProviderFactory func(in model.AIInput) (outreach.Provider, error)

// SinkFactory builds the output sink for a run.
type SinkFactory func(ctx context.Context, out model.OutputInput) (export.Sink, error)

// Config tunes a Pipeline.
type Config struct {
	Discovery           discovery.RunnerConfig
	EnrichConcurrency   int
	OutreachConcurrency int
	Region              string
	StateKey            string
}

// Deps are the collaborators of a Pipeline. Any may be nil: missing
// adapters are skipped, a nil Crawler disables enrichment, a nil State
// disables delta mode, a nil Providers disables outreach, and a nil Sinks
// leaves writing the result to the caller.
type Deps struct {
	// Adapters are keyed by source name (model.SourceGoogleMaps, ...).
	Adapters  map[string]discovery.Adapter
	Crawler   enrich.Crawl
	State     delta.StateStore
	Presets   scoring.Presets
	Providers ProviderFactory
	Sinks     SinkFactory
}

// Pipeline runs lead generation end to end.
type Pipeline struct {
	cfg  Config
	deps Deps
	now  func() time.Time
}

// New creates a Pipeline. Missing presets fall back to the built-in set.
func New(cfg Config, deps Deps) *Pipeline {
	if cfg.EnrichConcurrency <= 0 {
		cfg.EnrichConcurrency = 4
	}
	if cfg.OutreachConcurrency <= 0 {
		cfg.OutreachConcurrency = 2
	}
	if deps.Presets == nil {
		deps.Presets = scoring.Builtin()
	}
	return &Pipeline{cfg: cfg, deps: deps, now: time.Now}
}

// PhaseStatus is the outcome of a phase.
type PhaseStatus string

const (
	PhaseComplete PhaseStatus = "complete"
	PhaseSkipped  PhaseStatus = "skipped"
	PhaseFailed   PhaseStatus = "failed"
)

// PhaseResult records one phase of a run.
type PhaseResult struct {
	Name     string         `json:"name"`
	Status   PhaseStatus    `json:"status"`
	Duration int64          `json:"durationMs"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Result summarizes a run.
type Result struct {
	RunID      string        `json:"runId"`
	Leads      []model.Lead  `json:"leads"`
	Discovered int           `json:"discovered"`
	Merged     int           `json:"merged"`
	Emitted    int           `json:"emitted"`
	Merge      merge.Stats   `json:"mergeStats"`
	Delta      *delta.Result `json:"-"`
	Phases     []PhaseResult `json:"phases"`
}

// ProcessOptions control Process.
type ProcessOptions struct {
	RunID  string
	Preset string
	Delta  bool
}

// Run executes a full run for in. Per-record discovery, enrichment, and
// outreach failures are logged and skipped. Invalid input, an unknown
// preset, a failed delta save, a failed export, and cancellation abort the
// run.
func (p *Pipeline) Run(ctx context.Context, in model.RunInput) (*Result, error) {
	in = in.WithDefaults()
	if err := in.Validate(); err != nil {
		return nil, eris.Wrap(err, "pipeline: validate input")
	}
	preset, err := p.deps.Presets.Lookup(in.WeightsPreset)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: weights preset")
	}

	res := &Result{RunID: uuid.NewString()}
	log := zap.L().With(zap.String("run_id", res.RunID))
	log.Info("pipeline: starting run",
		zap.String("seed_type", string(in.SeedType)),
		zap.Int("keywords", len(in.Keywords)),
		zap.Int("locations", len(in.Locations)),
	)
	track := p.tracker(res, log)

	var raw []model.Lead
	if err := track("discovery", func() (map[string]any, error) {
		adapters, queries, err := p.plan(in)
		if err != nil {
			return nil, err
		}
		runner := discovery.NewRunner(adapters, p.cfg.Discovery)
		raw, err = runner.Run(ctx, queries, res.RunID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"adapters": runner.Adapters(), "queries": len(queries), "leads": len(raw)}, nil
	}); err != nil {
		return res, err
	}
	res.Discovered = len(raw)
	// Keys come from what discovery saw; enrichment must not move them.
	identity.Assign(raw)

	if in.Enrichment.Enabled && p.deps.Crawler != nil {
		_ = track("enrichment", func() (map[string]any, error) {
			e := enrich.NewEnricher(p.deps.Crawler, in.Enrichment.MaxWebsitePages, p.cfg.Region)
			raw = e.EnrichAll(ctx, raw, p.cfg.EnrichConcurrency)
			return map[string]any{"leads": len(raw)}, ctx.Err()
		})
		if ctx.Err() != nil {
			return res, eris.Wrap(ctx.Err(), "pipeline: enrichment")
		}
	} else {
		p.skip(res, "enrichment")
	}

	var leads []model.Lead
	if err := track("process", func() (map[string]any, error) {
		var err error
		leads, err = p.process(ctx, raw, res, preset, in.DeltaMode)
		return map[string]any{"merged": res.Merged, "emitted": len(leads)}, err
	}); err != nil {
		return res, err
	}

	if in.AI.Enabled && p.deps.Providers != nil {
		if err := track("outreach", func() (map[string]any, error) {
			prov, err := p.deps.Providers(in.AI)
			if err != nil {
				return nil, err
			}
			d := outreach.NewDrafter(prov, true, outreach.Sender{
				CompanyName:     in.AI.YourCompanyName,
				ServiceOffering: in.AI.YourServiceOffering,
			})
			if !d.Enabled() {
				return map[string]any{"drafted": 0}, nil
			}
			leads, err = d.DraftAll(ctx, leads, p.cfg.OutreachConcurrency)
			return map[string]any{"drafted": len(leads)}, err
		}); err != nil {
			return res, err
		}
	} else {
		p.skip(res, "outreach")
	}

	res.Leads = leads
	res.Emitted = len(leads)

	if p.deps.Sinks != nil {
		if err := track("export", func() (map[string]any, error) {
			sink, err := p.deps.Sinks(ctx, in.Output)
			if err != nil {
				return nil, err
			}
			return map[string]any{"rows": len(leads), "format": in.Output.Format},
				sink.Write(ctx, export.NewRows(leads))
		}); err != nil {
			return res, err
		}
	}

	log.Info("pipeline: run complete",
		zap.Int("discovered", res.Discovered),
		zap.Int("merged", res.Merged),
		zap.Int("emitted", res.Emitted),
	)
	return res, nil
}

// Process runs identity, merge, scoring, and optional delta filtering over
// already collected leads. The input slice is not modified.
func (p *Pipeline) Process(ctx context.Context, leads []model.Lead, opts ProcessOptions) (*Result, error) {
	preset, err := p.deps.Presets.Lookup(opts.Preset)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: weights preset")
	}
	res := &Result{RunID: opts.RunID, Discovered: len(leads)}
	if res.RunID == "" {
		res.RunID = uuid.NewString()
	}
	out, err := p.process(ctx, leads, res, preset, opts.Delta)
	if err != nil {
		return res, err
	}
	res.Leads = out
	res.Emitted = len(out)
	return res, nil
}

func (p *Pipeline) process(ctx context.Context, raw []model.Lead, res *Result, preset scoring.Preset, deltaMode bool) ([]model.Lead, error) {
	keyed := make([]model.Lead, len(raw))
	for i, l := range raw {
		keyed[i] = l.Clone()
	}
	identity.Assign(keyed)

	res.Merge = merge.Summarize(keyed)
	merged := merge.Leads(keyed)
	res.Merged = len(merged)
	zap.L().Info("pipeline: merged leads",
		zap.Int("input", res.Merge.Input),
		zap.Int("output", res.Merge.Output),
		zap.Int("duplicates", res.Merge.Duplicates),
	)

	scored := scoring.Apply(merged, preset)

	if !deltaMode {
		return scored, nil
	}
	if p.deps.State == nil {
		return nil, eris.New("pipeline: delta mode requires a state store")
	}
	dr, err := delta.NewTracker(p.deps.State, p.cfg.StateKey).Apply(ctx, scored)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: delta")
	}
	res.Delta = dr
	return dr.Leads, nil
}

// plan picks the adapters and queries for a run.
func (p *Pipeline) plan(in model.RunInput) ([]discovery.Adapter, []discovery.Query, error) {
	if in.SeedType == model.SeedCustomURLs {
		a := discovery.NewCustomURLAdapter(in.CustomURLs)
		return []discovery.Adapter{a}, []discovery.Query{{MaxResults: len(in.CustomURLs)}}, nil
	}

	enabled := map[string]bool{
		model.SourceGoogleMaps: in.Sources.GoogleMaps,
		model.SourceYelp:       in.Sources.Yelp,
		model.SourceSERP:       in.Sources.SERP,
		model.SourceBBB:        in.Sources.BBB,
	}
	var adapters []discovery.Adapter
	for _, name := range SourceOrder {
		if !enabled[name] {
			continue
		}
		a, ok := p.deps.Adapters[name]
		if !ok || a == nil {
			zap.L().Warn("pipeline: source enabled but not configured, skipping",
				zap.String("source", name),
			)
			continue
		}
		adapters = append(adapters, a)
	}
	if len(adapters) == 0 {
		return nil, nil, eris.New("pipeline: no discovery source is enabled and configured")
	}
	return adapters, discovery.Queries(in.Keywords, in.Locations, in.MaxResultsPerLocation), nil
}

// tracker returns a helper that times a phase, logs it, and records it on
// res. The phase's error is returned unchanged.
func (p *Pipeline) tracker(res *Result, log *zap.Logger) func(name string, fn func() (map[string]any, error)) error {
	return func(name string, fn func() (map[string]any, error)) error {
		start := p.now()
		meta, err := fn()
		pr := PhaseResult{
			Name:     name,
			Status:   PhaseComplete,
			Duration: p.now().Sub(start).Milliseconds(),
			Metadata: meta,
		}
		if err != nil {
			pr.Status = PhaseFailed
			pr.Error = err.Error()
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Int64("duration_ms", pr.Duration),
				zap.Error(err),
			)
		} else {
			log.Info("pipeline: phase complete",
				zap.String("phase", name),
				zap.Int64("duration_ms", pr.Duration),
			)
		}
		res.Phases = append(res.Phases, pr)
		return err
	}
}

func (p *Pipeline) skip(res *Result, name string) {
	res.Phases = append(res.Phases, PhaseResult{Name: name, Status: PhaseSkipped})
}
