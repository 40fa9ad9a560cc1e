package enrich

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/scrape"
)

// PriorityPaths are visited right after the start page.
var PriorityPaths = []string{"/contact", "/contact-us", "/about", "/about-us", "/team", "/services"}

// Fetcher fetches one page. *scrape.Chain satisfies it.
type Fetcher interface {
	Scrape(ctx context.Context, url string) (*scrape.Result, error)
}

// PageCache stores fetched pages between runs. store.Store satisfies it.
type PageCache interface {
	GetCachedPage(ctx context.Context, url string) ([]byte, error)
	SetCachedPage(ctx context.Context, url string, data []byte, ttl time.Duration) error
}

// CrawlerConfig tunes a Crawler.
type CrawlerConfig struct {
	MaxPages          int
	Concurrency       int
	RequestsPerSecond float64
	CacheTTL          time.Duration
}

func (c CrawlerConfig) withDefaults() CrawlerConfig {
	if c.MaxPages <= 0 {
		c.MaxPages = 10
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 2
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 2
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 24 * time.Hour
	}
	return c
}

// Crawler walks a single website breadth-first.
type Crawler struct {
	fetcher Fetcher
	robots  *Robots
	cache   PageCache
	cfg     CrawlerConfig

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewCrawler creates a Crawler. robots and cache may be nil.
func NewCrawler(fetcher Fetcher, robots *Robots, cache PageCache, cfg CrawlerConfig) *Crawler {
	return &Crawler{
		fetcher:  fetcher,
		robots:   robots,
		cache:    cache,
		cfg:      cfg.withDefaults(),
		limiters: make(map[string]*rate.Limiter),
	}
}

// NormalizeWebsite returns website as an absolute URL, adding https:// when
// no scheme is present.
func NormalizeWebsite(website string) (*url.URL, error) {
	website = strings.TrimSpace(website)
	if website == "" {
		return nil, eris.New("enrich: empty website")
	}
	if !strings.Contains(website, "://") {
		website = "https://" + website
	}
	u, err := url.Parse(website)
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: parse website %q", website)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Hostname() == "" {
		return nil, eris.Errorf("enrich: unsupported website %q", website)
	}
	u.Fragment = ""
	return u, nil
}

// Crawl visits the start page, the priority paths, then same-host links
// found on fetched pages. At most maxPages requests are made; a value <= 0
// uses the configured default. Pages come back in visit order, start page
// first when it could be fetched.
func (c *Crawler) Crawl(ctx context.Context, website string, maxPages int) ([]model.CrawledPage, error) {
	start, err := NormalizeWebsite(website)
	if err != nil {
		return nil, err
	}
	if maxPages <= 0 {
		maxPages = c.cfg.MaxPages
	}
	host := bareHost(start.Hostname())

	visited := make(map[string]struct{})
	var frontier []string
	enqueue := func(raw string) {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || bareHost(u.Hostname()) != host {
			return
		}
		u.Fragment = ""
		if u.Path == "" {
			u.Path = "/"
		}
		key := u.String()
		if _, ok := visited[key]; ok {
			return
		}
		visited[key] = struct{}{}
		frontier = append(frontier, key)
	}

	enqueue(start.String())
	for _, p := range PriorityPaths {
		enqueue(start.ResolveReference(&url.URL{Path: p}).String())
	}

	var pages []model.CrawledPage
	budget := maxPages
	for len(frontier) > 0 && budget > 0 && ctx.Err() == nil {
		wave := frontier[:min(len(frontier), budget)]
		frontier = frontier[len(wave):]
		budget -= len(wave)

		for _, p := range c.fetchWave(ctx, wave) {
			pages = append(pages, p)
			for _, l := range p.Links {
				enqueue(l)
			}
		}
	}

	zap.L().Debug("enrich: crawled website",
		zap.String("website", start.String()),
		zap.Int("pages", len(pages)),
		zap.Int("requests", maxPages-budget),
	)
	return pages, nil
}

func (c *Crawler) fetchWave(ctx context.Context, urls []string) []model.CrawledPage {
	slots := make([]*model.CrawledPage, len(urls))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)
	for i, u := range urls {
		g.Go(func() error {
			p, err := c.fetch(gCtx, u)
			if err != nil {
				zap.L().Debug("enrich: page skipped", zap.String("url", u), zap.Error(err))
				return nil
			}
			slots[i] = p
			return nil
		})
	}
	_ = g.Wait()

	out := make([]model.CrawledPage, 0, len(urls))
	for _, p := range slots {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

func (c *Crawler) fetch(ctx context.Context, u string) (*model.CrawledPage, error) {
	if p, ok := c.cached(ctx, u); ok {
		return p, nil
	}

	var delay time.Duration
	if c.robots != nil {
		var allowed bool
		allowed, delay = c.robots.Check(ctx, u)
		if !allowed {
			return nil, eris.Errorf("enrich: disallowed by robots.txt: %s", u)
		}
	}
	if err := c.limiter(u, delay).Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "enrich: rate limit wait")
	}

	res, err := c.fetcher.Scrape(ctx, u)
	if err != nil {
		return nil, err
	}
	page := res.Page
	c.store(ctx, u, page)
	return &page, nil
}

func (c *Crawler) cached(ctx context.Context, u string) (*model.CrawledPage, bool) {
	if c.cache == nil {
		return nil, false
	}
	data, err := c.cache.GetCachedPage(ctx, u)
	if err != nil || data == nil {
		return nil, false
	}
	var p model.CrawledPage
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *Crawler) store(ctx context.Context, u string, p model.CrawledPage) {
	if c.cache == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.cache.SetCachedPage(ctx, u, data, c.cfg.CacheTTL); err != nil {
		zap.L().Debug("enrich: cache page", zap.String("url", u), zap.Error(err))
	}
}

// limiter returns the per-host limiter, slowing it to honor a robots.txt
// crawl delay.
func (c *Crawler) limiter(rawURL string, delay time.Duration) *rate.Limiter {
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		host = bareHost(u.Hostname())
	}
	limit := rate.Limit(c.cfg.RequestsPerSecond)
	if delay > 0 {
		limit = min(limit, rate.Every(delay))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.limiters[host]
	if !ok {
		l = rate.NewLimiter(limit, 1)
		c.limiters[host] = l
	} else if limit < l.Limit() {
		l.SetLimit(limit)
	}
	return l
}
