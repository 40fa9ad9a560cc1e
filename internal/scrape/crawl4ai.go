package scrape

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-cli/pkg/crawl4ai"
)

// Crawl4AIScraper fetches pages through the Crawl4AI service. It is skipped
// once the probe has found the service unavailable.
type Crawl4AIScraper struct {
	probe *crawl4ai.Probe
}

// NewCrawl4AIScraper creates a scraper backed by probe.
func NewCrawl4AIScraper(probe *crawl4ai.Probe) *Crawl4AIScraper {
	return &Crawl4AIScraper{probe: probe}
}

func (s *Crawl4AIScraper) Name() string { return "crawl4ai" }

// Supports is false once the service is known to be unavailable.
func (s *Crawl4AIScraper) Supports(_ string) bool {
	return s.probe.State() != crawl4ai.Unavailable
}

// Scrape probes the service on first use, then crawls targetURL.
func (s *Crawl4AIScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	if s.probe.Check(ctx) != crawl4ai.Available {
		return nil, eris.New("crawl4ai: service unavailable")
	}
	p, err := s.probe.Client().Crawl(ctx, targetURL)
	if err != nil {
		return nil, err
	}

	pageURL := p.URL
	if p.RedirectedURL != "" {
		pageURL = p.RedirectedURL
	}
	if pageURL == "" {
		pageURL = targetURL
	}
	page, err := ParsePage(pageURL, p.HTML)
	if err != nil {
		return nil, eris.Wrap(err, "crawl4ai")
	}
	if t := p.Title(); t != "" {
		page.Title = t
	}
	for _, l := range p.Links.Internal {
		if l.Href != "" {
			page.Links = append(page.Links, l.Href)
		}
	}
	page.StatusCode = p.StatusCode
	return &Result{Page: page, Source: s.Name()}, nil
}
