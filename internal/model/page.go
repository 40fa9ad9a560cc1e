package model

import (
	"net/url"
	"strings"
)

// PageType is a coarse classification of a crawled website page by path.
type PageType string

const (
	PageTypeHomepage PageType = "homepage"
	PageTypeContact  PageType = "contact"
	PageTypeAbout    PageType = "about"
	PageTypeTeam     PageType = "team"
	PageTypeServices PageType = "services"
	PageTypeOther    PageType = "other"
)

// CrawledPage is a website page fetched during enrichment.
type CrawledPage struct {
	URL        string   `json:"url"`
	Title      string   `json:"title"`
	HTML       string   `json:"html,omitempty"`
	Text       string   `json:"text"`
	StatusCode int      `json:"statusCode"`
	Links      []string `json:"links,omitempty"`
}

// Type classifies the page by its URL path.
func (p CrawledPage) Type() PageType {
	return ClassifyURL(p.URL)
}

var pageTypeKeywords = []struct {
	typ      PageType
	keywords []string
}{
	{PageTypeContact, []string{"contact", "get-in-touch", "reach-us"}},
	{PageTypeAbout, []string{"about", "our-story", "who-we-are"}},
	{PageTypeTeam, []string{"team", "staff", "people", "leadership"}},
	{PageTypeServices, []string{"services", "service", "what-we-do"}},
}

// ClassifyURL returns the page type implied by rawURL's path.
func ClassifyURL(rawURL string) PageType {
	u, err := url.Parse(rawURL)
	if err != nil {
		return PageTypeOther
	}
	p := strings.ToLower(strings.Trim(u.Path, "/"))
	if p == "" || p == "index.html" || p == "index.php" {
		return PageTypeHomepage
	}
	for _, k := range pageTypeKeywords {
		for _, kw := range k.keywords {
			if strings.Contains(p, kw) {
				return k.typ
			}
		}
	}
	return PageTypeOther
}
