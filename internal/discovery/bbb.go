package discovery

import (
	"context"
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
)

const (
	bbbBaseURL         = "https://www.bbb.org"
	bbbAccreditedConf  = 0.9
	bbbListedConf      = 0.75
	bbbPhoneConfidence = 0.85
	bbbResultsPerPage  = 10
	bbbMinPhoneDigits  = 10
	bbbAccreditedNotes = "BBB Accredited Business"
	bbbListedNotes     = "BBB Listed Business"
)

var ratingRe = regexp.MustCompile(`[\d.]+`)

var (
	bbbResult     = htmlx.Or(htmlx.Class("result-item"), htmlx.Class("search-result-item"), htmlx.HasAttr("data-bbb-id"))
	bbbName       = htmlx.Or(htmlx.Class("business-name"), htmlx.Class("result-business-name"), htmlx.And(htmlx.Tag(atom.A), htmlx.HasAttr("href"), parentIs(atom.H3)))
	bbbProfile    = htmlx.Or(htmlx.And(htmlx.Tag(atom.A), htmlx.Class("business-name")), htmlx.And(htmlx.Tag(atom.A), parentIs(atom.H3)))
	bbbAddress    = htmlx.Or(htmlx.Class("address"), htmlx.Class("result-address"), htmlx.AttrIs("itemprop", "address"))
	bbbPhone      = htmlx.Or(htmlx.Class("phone"), htmlx.Class("result-phone"), htmlx.AttrIs("itemprop", "telephone"))
	bbbWebsite    = htmlx.Or(htmlx.And(htmlx.Tag(atom.A), htmlx.AttrContains("href", "website")), htmlx.Class("website-link"))
	bbbRating     = htmlx.Or(htmlx.Class("rating"), htmlx.Class("bbb-rating"), htmlx.AttrIs("itemprop", "ratingValue"))
	bbbAccredited = htmlx.Or(htmlx.Class("accredited"), htmlx.Class("bbb-accredited"))
)

func parentIs(a atom.Atom) htmlx.Pred {
	return func(n *html.Node) bool { return n.Parent != nil && n.Parent.DataAtom == a }
}

// BBBAdapter scrapes Better Business Bureau search results.
type BBBAdapter struct {
	opts options
}

// NewBBBAdapter creates a BBBAdapter.
func NewBBBAdapter(opts ...Option) *BBBAdapter {
	return &BBBAdapter{opts: buildOptions(bbbBaseURL, opts)}
}

// Name implements Adapter.
func (a *BBBAdapter) Name() string { return model.SourceBBB }

// Discover implements Adapter. Result pages are walked until the limit is
// reached or a page comes back empty.
func (a *BBBAdapter) Discover(ctx context.Context, q Query) ([]model.Lead, error) {
	limit := maxResults(q)
	pages := (limit + bbbResultsPerPage - 1) / bbbResultsPerPage

	var leads []model.Lead
	for page := 1; page <= pages && len(leads) < limit; page++ {
		v := url.Values{}
		v.Set("find_text", q.Keyword)
		v.Set("find_loc", q.Location)
		v.Set("page", strconv.Itoa(page))
		pageURL := a.opts.baseURL + "/search?" + v.Encode()

		body, err := fetchPage(ctx, a.opts, "bbb", pageURL)
		if err != nil {
			if len(leads) > 0 {
				zap.L().Warn("discovery: bbb pagination stopped", zap.Int("page", page), zap.Error(err))
				break
			}
			return nil, err
		}
		found, err := a.parse(body, q, limit-len(leads))
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			if page == 1 {
				zap.L().Warn("discovery: no bbb results, page structure may have changed", zap.String("url", pageURL))
			}
			break
		}
		leads = append(leads, found...)
		if err := sleep(ctx, a.opts.pageDelay); err != nil {
			break
		}
	}
	return leads, nil
}

func (a *BBBAdapter) parse(body string, q Query, limit int) ([]model.Lead, error) {
	doc, err := htmlx.Parse(body)
	if err != nil {
		return nil, eris.Wrap(err, "discovery: parse bbb")
	}
	var leads []model.Lead
	for _, n := range htmlx.FindOutermost(doc, bbbResult) {
		if len(leads) >= limit {
			break
		}
		if l, ok := a.result(n, q); ok {
			leads = append(leads, l)
		}
	}
	return leads, nil
}

func (a *BBBAdapter) result(n *html.Node, q Query) (model.Lead, bool) {
	name := htmlx.Text(htmlx.Find(n, bbbName))
	if name == "" {
		return model.Lead{}, false
	}

	website := resultURL(htmlx.Attr(htmlx.Find(n, bbbWebsite), "href"))
	profile := htmlx.Attr(htmlx.Find(n, bbbProfile), "href")
	if profile != "" && !strings.HasPrefix(profile, "http") {
		profile = a.opts.baseURL + profile
	}

	var rating float64
	if m := ratingRe.FindString(htmlx.Text(htmlx.Find(n, bbbRating))); m != "" {
		rating, _ = strconv.ParseFloat(m, 64)
	}
	accredited := strings.Contains(strings.ToLower(htmlx.Text(htmlx.Find(n, bbbAccredited))), "accredited")

	confidence, notes := bbbListedConf, bbbListedNotes
	if accredited {
		confidence, notes = bbbAccreditedConf, bbbAccreditedNotes
	}

	phoneText := htmlx.Text(htmlx.Find(n, bbbPhone))
	display := phoneText
	var (
		e164     string
		contacts model.Contacts
	)
	if countDigits(phoneText) >= bbbMinPhoneDigits {
		d, e, cp, ok := contactPhone(phoneText, a.opts.region, model.SourceBBB, bbbPhoneConfidence)
		if ok {
			display, e164 = d, e
			contacts.Phones = []model.ContactPhone{cp}
		}
	}

	return model.Lead{
		Confidence: confidence,
		Sources: map[string]model.SourceMeta{
			model.SourceBBB: {"url": profile, "isAccredited": accredited, "rating": rating},
		},
		Business: model.Business{
			Name:       name,
			Category:   q.Keyword,
			Categories: []string{q.Keyword},
			Address:    parseAddress(htmlx.Text(htmlx.Find(n, bbbAddress))),
			Phone:      display,
			PhoneE164:  e164,
		},
		Online:   model.Online{Website: website, Domain: extractDomain(website)},
		Contacts: contacts,
		Signals: model.Signals{
			Reviews: model.Reviews{Rating: rating},
			Hours:   model.Hours{IsOpen: true},
		},
		Raw: model.Raw{Notes: notes},
	}, true
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
