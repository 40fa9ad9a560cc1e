package discovery

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/sells-group/lead-cli/internal/htmlx"
	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/resilience"
	"github.com/sells-group/lead-cli/internal/scrape"
)

const (
	serpBaseURL         = "https://www.google.com"
	serpConfidence      = 0.6
	serpPhoneConfidence = 0.7
	serpNotes           = "Collected from Google SERP"
	maxBodyBytes        = 4 << 20
)

var snippetPhoneRe = regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)

var (
	serpResult  = htmlx.Or(htmlx.Class("g"), htmlx.Class("tF2Cxc"), htmlx.HasAttr("data-hveid"))
	serpTitle   = htmlx.Or(htmlx.Tag(atom.H3), htmlx.Class("LC20lb"), htmlx.Class("DKV0Md"))
	serpLink    = htmlx.And(htmlx.Tag(atom.A), htmlx.HasAttr("href"))
	serpSnippet = htmlx.Or(htmlx.Class("VwiC3b"), htmlx.Class("lEBKkf"), htmlx.AttrIs("data-sncf", "1"))
)

// SERPAdapter scrapes organic Google results. Google blocks automated
// traffic aggressively, so an empty or blocked page is expected now and then.
type SERPAdapter struct {
	opts options
}

// NewSERPAdapter creates a SERPAdapter.
func NewSERPAdapter(opts ...Option) *SERPAdapter {
	return &SERPAdapter{opts: buildOptions(serpBaseURL, opts)}
}

// Name implements Adapter.
func (a *SERPAdapter) Name() string { return model.SourceSERP }

// Discover implements Adapter.
func (a *SERPAdapter) Discover(ctx context.Context, q Query) ([]model.Lead, error) {
	limit := maxResults(q)
	v := url.Values{}
	v.Set("q", q.Keyword+" "+q.Location)
	v.Set("num", strconv.Itoa(min(limit, 100)))
	searchURL := a.opts.baseURL + "/search?" + v.Encode()

	body, err := fetchPage(ctx, a.opts, "serp", searchURL)
	if err != nil {
		return nil, err
	}
	leads, err := a.parse(body, q, limit)
	if err != nil {
		return nil, err
	}
	if len(leads) == 0 {
		zap.L().Warn("discovery: no serp results, page may be blocked or changed", zap.String("url", searchURL))
	}
	return leads, nil
}

func (a *SERPAdapter) parse(body string, q Query, limit int) ([]model.Lead, error) {
	doc, err := htmlx.Parse(body)
	if err != nil {
		return nil, eris.Wrap(err, "discovery: parse serp")
	}

	var leads []model.Lead
	for _, n := range htmlx.FindOutermost(doc, serpResult) {
		if len(leads) >= limit {
			break
		}
		l, ok := a.result(n, q, len(leads)+1)
		if ok {
			leads = append(leads, l)
		}
	}
	return leads, nil
}

func (a *SERPAdapter) result(n *html.Node, q Query, position int) (model.Lead, bool) {
	name := htmlx.Text(htmlx.Find(n, serpTitle))
	if name == "" {
		return model.Lead{}, false
	}
	link := resultURL(htmlx.Attr(htmlx.Find(n, serpLink), "href"))
	if link == "" || isDirectoryURL(link, a.opts.directory) {
		return model.Lead{}, false
	}
	snippet := htmlx.Text(htmlx.Find(n, serpSnippet))

	var (
		display, e164 string
		contacts      model.Contacts
	)
	if m := snippetPhoneRe.FindString(snippet); m != "" {
		var cp model.ContactPhone
		var ok bool
		display, e164, cp, ok = contactPhone(m, a.opts.region, model.SourceSERP, serpPhoneConfidence)
		if ok {
			contacts.Phones = []model.ContactPhone{cp}
		}
	}

	addr := model.Address{Country: "US", Formatted: q.Location}
	if city, state, ok := cityState(snippet); ok {
		addr.City, addr.State = city, state
		addr.Formatted = city + ", " + state
	}

	return model.Lead{
		Confidence: serpConfidence,
		Sources: map[string]model.SourceMeta{
			model.SourceSERP: {"url": link, "snippet": truncate(snippet, 200), "position": position},
		},
		Business: model.Business{
			Name:        name,
			Category:    q.Keyword,
			Categories:  []string{q.Keyword},
			Description: truncate(snippet, 500),
			Address:     addr,
			Phone:       display,
			PhoneE164:   e164,
		},
		Online:   model.Online{Website: link, Domain: extractDomain(link)},
		Contacts: contacts,
		Signals:  model.Signals{Hours: model.Hours{IsOpen: true}},
		Raw:      model.Raw{Notes: serpNotes},
	}, true
}

// resultURL unwraps Google's /url?q= redirect and rejects internal links.
func resultURL(href string) string {
	if strings.HasPrefix(href, "/url?") {
		u, err := url.Parse(href)
		if err != nil {
			return ""
		}
		href = u.Query().Get("q")
	}
	if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
		return ""
	}
	return href
}

// fetchPage GETs a search page with retries. Anti-bot interstitials come
// back as errors so the runner can log and skip the source.
func fetchPage(ctx context.Context, o options, service, pageURL string) (string, error) {
	retry := o.retry
	retry.OnRetry = resilience.RetryLogger(service, "search_page")
	return resilience.DoVal(ctx, retry, func(ctx context.Context) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return "", eris.Wrapf(err, "discovery: %s request", service)
		}
		req.Header.Set("User-Agent", o.userAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := o.httpClient.Do(req)
		if err != nil {
			return "", eris.Wrapf(err, "discovery: %s fetch", service)
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return "", eris.Wrapf(err, "discovery: %s read body", service)
		}
		if blocked, kind := scrape.DetectBlock(resp, body); blocked {
			if kind == scrape.BlockRateLimited {
				return "", resilience.NewTransientError(eris.Errorf("discovery: %s rate limited", service), resp.StatusCode)
			}
			return "", eris.Errorf("discovery: %s blocked (%s)", service, kind)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			err := eris.Errorf("discovery: %s status %d", service, resp.StatusCode)
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return "", resilience.NewTransientError(err, resp.StatusCode)
			}
			return "", err
		}
		return string(body), nil
	})
}
