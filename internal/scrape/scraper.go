// Package scrape fetches single website pages through an ordered chain of
// scrapers: the Crawl4AI service when it is up, then plain HTTP.
package scrape

import (
	"context"

	"github.com/sells-group/lead-cli/internal/model"
)

// Result holds a scraped page with its source.
type Result struct {
	Page   model.CrawledPage
	Source string // "crawl4ai" or "local_http"
}

// Scraper fetches a single URL and returns its content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
	Name() string
	Supports(url string) bool
}
