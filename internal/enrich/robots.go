package enrich

import (
	"context"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

// RobotsAgent is the product token matched against robots.txt groups.
const RobotsAgent = "lead-cli"

const robotsTTL = time.Hour

// Robots answers robots.txt questions per host, caching each host's rules.
// Unreachable or broken robots files allow everything.
type Robots struct {
	client *http.Client
	agent  string
	cache  *gocache.Cache
}

// NewRobots creates a robots.txt checker. A nil client uses a 5s timeout.
func NewRobots(client *http.Client) *Robots {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Robots{
		client: client,
		agent:  RobotsAgent,
		cache:  gocache.New(robotsTTL, 2*robotsTTL),
	}
}

// Check reports whether rawURL may be fetched and the crawl delay the host
// asks for.
func (r *Robots) Check(ctx context.Context, rawURL string) (bool, time.Duration) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false, 0
	}
	data := r.rules(ctx, u)
	if data == nil {
		return true, 0
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	var delay time.Duration
	if g := data.FindGroup(r.agent); g != nil {
		delay = g.CrawlDelay
	}
	return data.TestAgent(path, r.agent), delay
}

func (r *Robots) rules(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	key := u.Scheme + "://" + u.Host
	if v, ok := r.cache.Get(key); ok {
		data, _ := v.(*robotstxt.RobotsData)
		return data
	}

	data, err := r.fetch(ctx, key+"/robots.txt")
	if err != nil {
		zap.L().Debug("enrich: robots.txt unavailable", zap.String("host", u.Host), zap.Error(err))
	}
	r.cache.SetDefault(key, data)
	return data
}

func (r *Robots) fetch(ctx context.Context, robotsURL string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.agent)
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	return robotstxt.FromResponse(resp)
}
