// Package discovery turns keyword and location queries into raw leads by
// querying business directories and search pages.
package discovery

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/phone"
	"github.com/sells-group/lead-cli/internal/resilience"
)

// Query is one adapter invocation.
type Query struct {
	Keyword    string
	Location   string
	MaxResults int
}

// Adapter discovers raw leads from one source. Returned leads carry no
// DedupeID and no RunID; the runner and pipeline assign those.
type Adapter interface {
	Name() string
	Discover(ctx context.Context, q Query) ([]model.Lead, error)
}

// DefaultMaxResults applies when a query leaves MaxResults unset.
const DefaultMaxResults = 100

// DefaultUserAgent is sent to HTML search pages.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

type options struct {
	retry      resilience.RetryConfig
	pageDelay  time.Duration
	httpClient *http.Client
	baseURL    string
	userAgent  string
	region     string
	directory  []string
}

// Option configures an adapter.
type Option func(*options)

// WithRetry sets the retry policy applied to each upstream request.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(o *options) { o.retry = cfg }
}

// WithPageDelay sets the pause between result pages.
func WithPageDelay(d time.Duration) Option {
	return func(o *options) { o.pageDelay = d }
}

// WithHTTPClient sets the client used by HTML adapters.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithBaseURL overrides the search page origin of HTML adapters.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = strings.TrimRight(u, "/") }
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithRegion sets the default phone region.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// WithDirectoryHosts replaces the hosts whose search results are listings
// rather than businesses.
func WithDirectoryHosts(hosts []string) Option {
	return func(o *options) { o.directory = hosts }
}

func buildOptions(baseURL string, opts []Option) options {
	o := options{
		retry:      resilience.DefaultRetryConfig(),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		userAgent:  DefaultUserAgent,
		region:     phone.DefaultRegion,
		directory:  DefaultDirectoryHosts,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func maxResults(q Query) int {
	if q.MaxResults <= 0 {
		return DefaultMaxResults
	}
	return q.MaxResults
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// extractDomain returns the lowercased host of rawURL without a leading www.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// DefaultDirectoryHosts are review sites, social networks, and aggregators
// that show up in organic results but are not the business itself.
var DefaultDirectoryHosts = []string{
	"yelp.com", "yellowpages.com", "bbb.org", "facebook.com", "instagram.com",
	"linkedin.com", "tripadvisor.com", "angi.com", "angieslist.com", "thumbtack.com",
	"homeadvisor.com", "nextdoor.com", "mapquest.com", "manta.com", "google.com",
	"youtube.com", "x.com", "twitter.com", "wikipedia.org", "groupon.com",
}

// isDirectoryURL reports whether website's host is, or is under, a host in
// blocklist.
func isDirectoryURL(website string, blocklist []string) bool {
	host := extractDomain(website)
	if host == "" {
		return false
	}
	for _, blocked := range blocklist {
		blocked = strings.ToLower(blocked)
		if host == blocked || strings.HasSuffix(host, "."+blocked) {
			return true
		}
	}
	return false
}

// contactPhone normalizes raw into a business phone pair and the matching
// contact entry. ok is false when raw is not a valid number.
func contactPhone(raw, region, source string, confidence float64) (display, e164 string, contact model.ContactPhone, ok bool) {
	n, err := phone.Parse(raw, region)
	if err != nil {
		return strings.TrimSpace(raw), "", model.ContactPhone{}, false
	}
	return n.National, n.E164, model.ContactPhone{
		Phone:      n.National,
		PhoneE164:  n.E164,
		Source:     source,
		Confidence: confidence,
	}, true
}
