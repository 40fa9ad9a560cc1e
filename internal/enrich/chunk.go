package enrich

import (
	"bytes"
	"net/url"
	"strings"

	readability "codeberg.org/readeck/go-readability/v2"

	"github.com/sells-group/lead-cli/internal/htmlx"
	"github.com/sells-group/lead-cli/internal/model"
)

// Chunk section limits.
const (
	maxHeadings     = 8
	maxSections     = 8
	maxContentChars = 3000
)

// Chunk builds the structured website summary stored in
// Signals.WebsiteChunk:
//
//	TITLE: <homepage title>
//	DESCRIPTION: <meta description>
//	MAIN HEADINGS: <h1-h3 of the homepage>
//	SECTIONS: <titles of the other crawled pages>
//	CONTENT: <readable homepage text>
//
// Empty sections are omitted. The first page is treated as the homepage.
func Chunk(pages []model.CrawledPage) string {
	if len(pages) == 0 {
		return ""
	}
	home := pages[0]

	var title, desc string
	var headings []string
	if doc, err := htmlx.Parse(home.HTML); err == nil && home.HTML != "" {
		title = htmlx.Title(doc)
		desc = htmlx.Meta(doc, "description")
		if desc == "" {
			desc = htmlx.Meta(doc, "og:description")
		}
		headings = dedupe(htmlx.Headings(doc), maxHeadings)
	}
	if title == "" {
		title = home.Title
	}

	var sections []string
	for _, p := range pages[1:] {
		if p.Title != "" && p.Title != title {
			sections = append(sections, p.Title)
		}
	}
	sections = dedupe(sections, maxSections)

	content := readableText(home)

	var b strings.Builder
	line := func(label, v string) {
		if v = strings.TrimSpace(v); v != "" {
			b.WriteString(label)
			b.WriteString(": ")
			b.WriteString(v)
			b.WriteByte('\n')
		}
	}
	line("TITLE", title)
	line("DESCRIPTION", desc)
	line("MAIN HEADINGS", strings.Join(headings, ", "))
	line("SECTIONS", strings.Join(sections, ", "))
	line("CONTENT", truncate(content, maxContentChars))
	return strings.TrimRight(b.String(), "\n")
}

// readableText extracts the main article text of a page, falling back to
// its full visible text.
func readableText(p model.CrawledPage) string {
	if p.HTML != "" {
		base, _ := url.Parse(p.URL)
		if article, err := readability.FromReader(strings.NewReader(p.HTML), base); err == nil {
			var buf bytes.Buffer
			if err := article.RenderText(&buf); err == nil {
				if t := collapse(buf.String()); t != "" {
					return t
				}
			}
			if t := collapse(article.Excerpt()); t != "" {
				return t
			}
		}
	}
	return collapse(p.Text)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}

func dedupe(in []string, limit int) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		k := strings.ToLower(s)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out
}
