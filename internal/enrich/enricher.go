package enrich

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/phone"
)

// Crawl is the subset of *Crawler the enricher needs.
type Crawl interface {
	Crawl(ctx context.Context, website string, maxPages int) ([]model.CrawledPage, error)
}

// Enricher fills a lead's contacts, socials, and website signals from its
// website.
type Enricher struct {
	crawler  Crawl
	region   string
	maxPages int
}

// NewEnricher creates an Enricher. maxPages <= 0 defers to the crawler's
// default; an empty region uses phone.DefaultRegion.
func NewEnricher(crawler Crawl, maxPages int, region string) *Enricher {
	if region == "" {
		region = phone.DefaultRegion
	}
	return &Enricher{crawler: crawler, region: region, maxPages: maxPages}
}

// Enrich returns a copy of l with website findings merged in. Leads without
// a website, and crawl failures, come back unchanged apart from the copy.
func (e *Enricher) Enrich(ctx context.Context, l model.Lead) model.Lead {
	out := l.Clone()
	if l.Online.Website == "" {
		return out
	}

	pages, err := e.crawler.Crawl(ctx, l.Online.Website, e.maxPages)
	if err != nil {
		zap.L().Warn("enrich: crawl failed",
			zap.String("website", l.Online.Website),
			zap.Error(err),
		)
		return out
	}
	if len(pages) == 0 {
		return out
	}

	if out.Online.Domain == "" {
		if u, err := NormalizeWebsite(l.Online.Website); err == nil {
			out.Online.Domain = bareHost(u.Hostname())
		}
	}

	htmls := make([]string, len(pages))
	texts := make([]string, len(pages))
	for i, p := range pages {
		htmls[i] = p.HTML
		texts[i] = p.Text
	}
	allHTML := strings.Join(htmls, "\n")
	allText := strings.Join(texts, "\n")

	out.Contacts.Emails = appendEmails(out.Contacts.Emails, Emails(allHTML, out.Online.Domain))
	out.Contacts.Phones = appendPhones(out.Contacts.Phones, Phones(allHTML, e.region))
	if out.Contacts.ContactFormURL == "" {
		out.Contacts.ContactFormURL = ContactFormURL(pages)
	}

	for k, v := range Socials(allHTML) {
		if out.Online.Socials == nil {
			out.Online.Socials = make(map[string]string)
		}
		if out.Online.Socials[k] == "" {
			out.Online.Socials[k] = v
		}
	}

	for k, v := range TechSignals(allHTML) {
		if out.Signals.TechSignals == nil {
			out.Signals.TechSignals = make(map[string]bool)
		}
		out.Signals.TechSignals[k] = out.Signals.TechSignals[k] || v
	}

	ws := WebsiteSignals(allText, allHTML)
	out.Signals.WebsiteSignals.HasContactForm = out.Signals.WebsiteSignals.HasContactForm || ws.HasContactForm || out.Contacts.ContactFormURL != ""
	out.Signals.WebsiteSignals.HasBookingWidget = out.Signals.WebsiteSignals.HasBookingWidget || ws.HasBookingWidget
	out.Signals.WebsiteSignals.HasChatWidget = out.Signals.WebsiteSignals.HasChatWidget || ws.HasChatWidget

	if out.Signals.WebsiteChunk == "" {
		out.Signals.WebsiteChunk = Chunk(pages)
	}

	zap.L().Debug("enrich: lead enriched",
		zap.String("website", l.Online.Website),
		zap.Int("pages", len(pages)),
		zap.Int("emails", len(out.Contacts.Emails)),
		zap.Int("phones", len(out.Contacts.Phones)),
	)
	return out
}

// EnrichAll enriches leads with at most concurrency crawls in flight. The
// result keeps input order.
func (e *Enricher) EnrichAll(ctx context.Context, leads []model.Lead, concurrency int) []model.Lead {
	out := make([]model.Lead, len(leads))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for i, l := range leads {
		g.Go(func() error {
			out[i] = e.Enrich(gCtx, l)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func appendEmails(have, found []model.ContactEmail) []model.ContactEmail {
	seen := make(map[string]struct{}, len(have))
	for _, e := range have {
		seen[strings.ToLower(e.Email)] = struct{}{}
	}
	for _, e := range found {
		k := strings.ToLower(e.Email)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		have = append(have, e)
	}
	return have
}

func appendPhones(have, found []model.ContactPhone) []model.ContactPhone {
	seen := make(map[string]struct{}, len(have))
	for _, p := range have {
		seen[p.DedupeKey()] = struct{}{}
	}
	for _, p := range found {
		if _, ok := seen[p.DedupeKey()]; ok {
			continue
		}
		seen[p.DedupeKey()] = struct{}{}
		have = append(have, p)
	}
	return have
}
