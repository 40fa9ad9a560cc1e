package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/config"
	"github.com/sells-group/lead-cli/internal/db"
	"github.com/sells-group/lead-cli/internal/discovery"
	"github.com/sells-group/lead-cli/internal/enrich"
	"github.com/sells-group/lead-cli/internal/export"
	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/outreach"
	"github.com/sells-group/lead-cli/internal/pipeline"
	"github.com/sells-group/lead-cli/internal/resilience"
	"github.com/sells-group/lead-cli/internal/scoring"
	"github.com/sells-group/lead-cli/internal/scrape"
	"github.com/sells-group/lead-cli/internal/store"
	"github.com/sells-group/lead-cli/pkg/crawl4ai"
	"github.com/sells-group/lead-cli/pkg/google"
	"github.com/sells-group/lead-cli/pkg/yelp"
)

// app holds the long-lived collaborators built from config.
type app struct {
	cfg     *config.Config
	store   store.Store
	closers []func()
}

func newApp(ctx context.Context, c *config.Config) (*app, error) {
	st, err := store.Open(ctx, c.Store.Driver, c.Store.DatabaseURL, &c.Store.Pool)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	return &app{cfg: c, store: st}, nil
}

// Close releases the store and any export pools opened during the run.
func (a *app) Close() {
	for _, fn := range a.closers {
		fn()
	}
	if err := a.store.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
}

func (a *app) pipelineConfig() pipeline.Config {
	c := a.cfg
	rates := map[string]float64{}
	if c.SERP.RequestsPerSecs > 0 {
		rates[model.SourceSERP] = c.SERP.RequestsPerSecs
	}
	if c.BBB.RequestsPerSecs > 0 {
		rates[model.SourceBBB] = c.BBB.RequestsPerSecs
	}
	return pipeline.Config{
		Discovery: discovery.RunnerConfig{
			Concurrency:       c.Discovery.Concurrency,
			RequestsPerSecond: rates,
			DefaultRate:       c.Discovery.DefaultRate,
			Breaker:           resilience.FromCircuitConfig(c.Discovery.BreakerFailureThreshold, c.Discovery.BreakerResetSecs),
		},
		EnrichConcurrency:   c.Enrichment.Concurrency,
		OutreachConcurrency: c.Outreach.Concurrency,
		Region:              c.Discovery.Region,
		StateKey:            c.Delta.StateKey,
	}
}

// pipeline builds a Pipeline with every collaborator the config enables.
func (a *app) pipeline() (*pipeline.Pipeline, error) {
	presets, err := scoring.LoadPresets(a.cfg.Scoring.PresetsPath)
	if err != nil {
		return nil, err
	}
	return pipeline.New(a.pipelineConfig(), pipeline.Deps{
		Adapters:  a.adapters(),
		Crawler:   a.crawler(),
		State:     a.store,
		Presets:   presets,
		Providers: a.provider,
		Sinks:     a.sink,
	}), nil
}

// adapters builds the discovery adapters. Keyed APIs are left out when no
// key is configured.
func (a *app) adapters() map[string]discovery.Adapter {
	c := a.cfg
	common := []discovery.Option{
		discovery.WithRetry(resilience.FromRetryConfig(c.Discovery.MaxAttempts, c.Discovery.InitialBackoffMs, c.Discovery.MaxBackoffMs)),
		discovery.WithRegion(c.Discovery.Region),
	}
	with := func(extra ...discovery.Option) []discovery.Option {
		return append(append([]discovery.Option{}, common...), extra...)
	}

	out := make(map[string]discovery.Adapter)
	if c.Google.Key != "" {
		gc := google.NewClient(c.Google.Key, google.WithBaseURL(c.Google.BaseURL))
		out[model.SourceGoogleMaps] = discovery.NewPlacesAdapter(gc,
			with(discovery.WithPageDelay(time.Duration(c.Google.PageDelayMs)*time.Millisecond))...)
	}
	if c.Yelp.Key != "" {
		yc := yelp.NewClient(c.Yelp.Key, yelp.WithBaseURL(c.Yelp.BaseURL))
		out[model.SourceYelp] = discovery.NewYelpAdapter(yc,
			with(discovery.WithPageDelay(time.Duration(c.Yelp.PageDelayMs)*time.Millisecond))...)
	}

	serpOpts := with()
	if c.SERP.BaseURL != "" {
		serpOpts = append(serpOpts, discovery.WithBaseURL(c.SERP.BaseURL))
	}
	if c.SERP.UserAgent != "" {
		serpOpts = append(serpOpts, discovery.WithUserAgent(c.SERP.UserAgent))
	}
	if len(c.SERP.DirectoryHosts) > 0 {
		serpOpts = append(serpOpts, discovery.WithDirectoryHosts(c.SERP.DirectoryHosts))
	}
	out[model.SourceSERP] = discovery.NewSERPAdapter(serpOpts...)

	bbbOpts := with(discovery.WithPageDelay(time.Duration(c.BBB.PageDelayMs) * time.Millisecond))
	if c.BBB.BaseURL != "" {
		bbbOpts = append(bbbOpts, discovery.WithBaseURL(c.BBB.BaseURL))
	}
	if c.BBB.UserAgent != "" {
		bbbOpts = append(bbbOpts, discovery.WithUserAgent(c.BBB.UserAgent))
	}
	out[model.SourceBBB] = discovery.NewBBBAdapter(bbbOpts...)

	return out
}

// crawler builds the website crawler: Crawl4AI first when configured, then
// plain HTTP, with the store as page cache.
func (a *app) crawler() enrich.Crawl {
	c := a.cfg
	hc := &http.Client{Timeout: time.Duration(c.Enrichment.TimeoutSecs) * time.Second}

	var scrapers []scrape.Scraper
	if c.Crawl4AI.BaseURL != "" {
		cc := crawl4ai.NewClient(
			crawl4ai.WithBaseURL(c.Crawl4AI.BaseURL),
			crawl4ai.WithTimeout(time.Duration(c.Crawl4AI.TimeoutSecs)*time.Second),
		)
		scrapers = append(scrapers, scrape.NewCrawl4AIScraper(crawl4ai.NewProbe(cc)))
	}
	localOpts := []scrape.LocalOption{scrape.WithLocalHTTPClient(hc)}
	if c.Enrichment.UserAgent != "" {
		localOpts = append(localOpts, scrape.WithUserAgent(c.Enrichment.UserAgent))
	}
	scrapers = append(scrapers, scrape.NewLocalScraper(localOpts...))

	var robots *enrich.Robots
	if c.Enrichment.RespectRobots {
		robots = enrich.NewRobots(hc)
	}

	return enrich.NewCrawler(
		scrape.NewChain(scrape.NewPathMatcher(c.Enrichment.ExcludePaths), scrapers...),
		robots,
		a.store,
		enrich.CrawlerConfig{
			Concurrency:       c.Enrichment.PageConcurrency,
			RequestsPerSecond: c.Enrichment.RequestsPerSecond,
			CacheTTL:          time.Duration(c.Enrichment.CacheTTLHours) * time.Hour,
		},
	)
}

// provider resolves the run's outreach provider. The run input picks the
// provider and model; keys and endpoints come from config.
func (a *app) provider(in model.AIInput) (outreach.Provider, error) {
	c := a.cfg
	name := in.Provider
	if name == "" {
		name = c.Outreach.Provider
	}
	pc := outreach.ProviderConfig{Provider: name, Model: in.Model}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "anthropic", "claude":
		pc.APIKey = c.Anthropic.Key
		pc.BaseURL = c.Anthropic.BaseURL
		pc.CacheTTL = c.Anthropic.CacheTTL
		if pc.Model == "" {
			pc.Model = c.Anthropic.Model
		}
	default:
		pc.APIKey = c.OpenAI.Key
		pc.BaseURL = c.OpenAI.BaseURL
		if pc.Model == "" {
			pc.Model = c.OpenAI.Model
		}
	}
	return outreach.NewProvider(pc)
}

// sink resolves where a run's rows go. Postgres output connects, migrates
// the leads table, and keeps the pool open until Close.
func (a *app) sink(ctx context.Context, out model.OutputInput) (export.Sink, error) {
	format := out.Format
	if format == "" {
		format = a.cfg.Export.Format
	}
	if format != export.FormatPostgres {
		path := out.Path
		if path == "" {
			path = a.cfg.Export.Path
		}
		if path == "" {
			path = "leads." + format
		}
		return export.FileSink{Path: path, Format: format}, nil
	}

	dsn := out.Path
	if dsn == "" {
		dsn = a.cfg.Export.DatabaseURL
	}
	if dsn == "" {
		return nil, eris.New("export: postgres output needs export.database_url")
	}
	pool, err := db.Connect(ctx, dsn, &a.cfg.Store.Pool)
	if err != nil {
		return nil, eris.Wrap(err, "export: connect")
	}
	a.closers = append(a.closers, pool.Close)

	s := export.NewPostgresSink(pool, a.cfg.Export.Table)
	if err := s.Migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
