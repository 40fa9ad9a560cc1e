// Package crawl4ai is a client for a self-hosted Crawl4AI service.
package crawl4ai

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-cli/internal/resilience"
)

const (
	defaultBaseURL = "http://localhost:11235"
	healthTimeout  = 2 * time.Second
)

// Availability is the result of the one-time health probe.
type Availability int

const (
	Unknown Availability = iota
	Available
	Unavailable
)

func (a Availability) String() string {
	switch a {
	case Available:
		return "available"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Client defines the Crawl4AI operations.
type Client interface {
	// Health probes /health. It never returns an error; failures report
	// Unavailable.
	Health(ctx context.Context) Availability
	// Crawl fetches one URL through the service.
	Crawl(ctx context.Context, url string) (*Page, error)
}

// Page is the first result of a crawl.
type Page struct {
	URL           string         `json:"url"`
	HTML          string         `json:"html"`
	CleanedHTML   string         `json:"cleaned_html"`
	Markdown      string         `json:"markdown"`
	StatusCode    int            `json:"status_code"`
	Metadata      map[string]any `json:"metadata"`
	Links         Links          `json:"links"`
	Success       bool           `json:"success"`
	ErrorMessage  string         `json:"error_message"`
	RedirectedURL string         `json:"redirected_url"`
}

// Title returns metadata.title when present.
func (p *Page) Title() string {
	if t, ok := p.Metadata["title"].(string); ok {
		return t
	}
	return ""
}

// Links are the internal and external links the service found.
type Links struct {
	Internal []Link `json:"internal"`
	External []Link `json:"external"`
}

// Link is one discovered anchor.
type Link struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

type crawlRequest struct {
	URLs               []string       `json:"urls"`
	WordCountThreshold int            `json:"word_count_threshold"`
	BypassCache        bool           `json:"bypass_cache"`
	Screenshot         bool           `json:"screenshot"`
	PDF                bool           `json:"pdf"`
	Extra              map[string]any `json:"extra,omitempty"`
}

type crawlResponse struct {
	Success bool   `json:"success"`
	Results []Page `json:"results"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the service URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-page crawl timeout forwarded to the service.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.timeout = d
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// NewClient creates a Crawl4AI client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		timeout: 30 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout + 5*time.Second}
	}
	return c
}

func (c *httpClient) Health(ctx context.Context) Availability {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return Unavailable
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Unavailable
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return Unavailable
	}
	return Available
}

func (c *httpClient) Crawl(ctx context.Context, url string) (*Page, error) {
	body, err := json.Marshal(crawlRequest{
		URLs:               []string{url},
		WordCountThreshold: 10,
		Extra:              map[string]any{"timeout": c.timeout.Milliseconds()},
	})
	if err != nil {
		return nil, eris.Wrap(err, "crawl4ai: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/crawl", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "crawl4ai: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "crawl4ai: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if err := resilience.CheckStatus(resp, "crawl4ai"); err != nil {
		return nil, err
	}

	var out crawlResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, eris.Wrap(err, "crawl4ai: unmarshal response")
	}
	if !out.Success || len(out.Results) == 0 {
		return nil, eris.Errorf("crawl4ai: no results for %s", url)
	}
	page := out.Results[0]
	if page.ErrorMessage != "" && page.HTML == "" {
		return nil, eris.Errorf("crawl4ai: %s: %s", url, page.ErrorMessage)
	}
	return &page, nil
}

// Probe caches the availability of a client for the lifetime of a run.
// The first Check performs the health request; later calls reuse it.
type Probe struct {
	client Client

	mu    sync.Mutex
	state Availability
}

// NewProbe wraps client. A nil client is permanently Unavailable.
func NewProbe(client Client) *Probe {
	p := &Probe{client: client}
	if client == nil {
		p.state = Unavailable
	}
	return p
}

// Check returns the cached availability, probing on first use.
func (p *Probe) Check(ctx context.Context) Availability {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Unknown {
		p.state = p.client.Health(ctx)
	}
	return p.state
}

// State returns the cached availability without probing.
func (p *Probe) State() Availability {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Client returns the wrapped client.
func (p *Probe) Client() Client {
	return p.client
}
