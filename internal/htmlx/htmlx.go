// Package htmlx holds small golang.org/x/net/html query helpers shared by
// the directory scrapers and the website crawler.
package htmlx

import (
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse parses an HTML document.
func Parse(s string) (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return nil, eris.Wrap(err, "htmlx: parse")
	}
	return doc, nil
}

// Pred selects nodes.
type Pred func(*html.Node) bool

// Tag matches element nodes with the given atom.
func Tag(a atom.Atom) Pred {
	return func(n *html.Node) bool { return n.Type == html.ElementNode && n.DataAtom == a }
}

// Class matches element nodes carrying class c.
func Class(c string) Pred {
	return func(n *html.Node) bool { return n.Type == html.ElementNode && HasClass(n, c) }
}

// ClassPrefix matches element nodes with any class starting with prefix.
// Directory sites generate hashed class names around a stable prefix.
func ClassPrefix(prefix string) Pred {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, c := range strings.Fields(Attr(n, "class")) {
			if strings.HasPrefix(c, prefix) {
				return true
			}
		}
		return false
	}
}

// And matches nodes satisfying every pred.
func And(preds ...Pred) Pred {
	return func(n *html.Node) bool {
		for _, p := range preds {
			if !p(n) {
				return false
			}
		}
		return true
	}
}

// Or matches nodes satisfying any pred.
func Or(preds ...Pred) Pred {
	return func(n *html.Node) bool {
		for _, p := range preds {
			if p(n) {
				return true
			}
		}
		return false
	}
}

// HasAttr matches element nodes carrying attribute key.
func HasAttr(key string) Pred {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		for _, a := range n.Attr {
			if a.Key == key {
				return true
			}
		}
		return false
	}
}

// AttrIs matches element nodes whose attribute key equals val.
func AttrIs(key, val string) Pred {
	return func(n *html.Node) bool { return n.Type == html.ElementNode && Attr(n, key) == val }
}

// AttrContains matches element nodes whose attribute key contains sub.
func AttrContains(key, sub string) Pred {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && strings.Contains(Attr(n, key), sub)
	}
}

// Walk calls fn for n and every descendant in document order. Returning
// false from fn skips that node's children.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, fn)
	}
}

// FindAll returns the descendants of n (n included) matching p.
func FindAll(n *html.Node, p Pred) []*html.Node {
	var out []*html.Node
	Walk(n, func(c *html.Node) bool {
		if p(c) {
			out = append(out, c)
		}
		return true
	})
	return out
}

// FindOutermost returns the descendants of n matching p, skipping matches
// nested inside an earlier match.
func FindOutermost(n *html.Node, p Pred) []*html.Node {
	var out []*html.Node
	Walk(n, func(c *html.Node) bool {
		if p(c) {
			out = append(out, c)
			return false
		}
		return true
	})
	return out
}

// Find returns the first node matching p, or nil.
func Find(n *html.Node, p Pred) *html.Node {
	var found *html.Node
	Walk(n, func(c *html.Node) bool {
		if found != nil {
			return false
		}
		if p(c) {
			found = c
			return false
		}
		return true
	})
	return found
}

// Attr returns the value of attribute key, or "".
func Attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasClass reports whether n's class attribute contains c.
func HasClass(n *html.Node, c string) bool {
	for _, f := range strings.Fields(Attr(n, "class")) {
		if f == c {
			return true
		}
	}
	return false
}

// Text returns the text under n with whitespace collapsed. Script, style,
// and noscript content is skipped.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	Walk(n, func(c *html.Node) bool {
		switch c.Type {
		case html.ElementNode:
			switch c.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				return false
			}
		case html.TextNode:
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
		return true
	})
	return strings.Join(strings.Fields(b.String()), " ")
}

// Title returns the document title.
func Title(doc *html.Node) string {
	return Text(Find(doc, Tag(atom.Title)))
}

// Meta returns the content of the first <meta name=name> or
// <meta property=name> tag.
func Meta(doc *html.Node, name string) string {
	m := Find(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.Meta {
			return false
		}
		return strings.EqualFold(Attr(n, "name"), name) || strings.EqualFold(Attr(n, "property"), name)
	})
	return strings.TrimSpace(Attr(m, "content"))
}

// Headings returns the non-empty text of every h1-h3 element.
func Headings(doc *html.Node) []string {
	var out []string
	for _, n := range FindAll(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && (n.DataAtom == atom.H1 || n.DataAtom == atom.H2 || n.DataAtom == atom.H3)
	}) {
		if t := Text(n); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Links returns the href of every anchor resolved against base, in
// document order, without duplicates or fragments. Non-http(s) links are
// kept as written (mailto:, tel:).
func Links(doc *html.Node, base *url.URL) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, a := range FindAll(doc, Tag(atom.A)) {
		href := strings.TrimSpace(Attr(a, "href"))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			continue
		}
		resolved := Resolve(base, href)
		if resolved == "" {
			continue
		}
		if _, ok := seen[resolved]; ok {
			continue
		}
		seen[resolved] = struct{}{}
		out = append(out, resolved)
	}
	return out
}

// Resolve resolves href against base and drops the fragment. It returns ""
// for unparseable hrefs.
func Resolve(base *url.URL, href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	u.Fragment = ""
	return u.String()
}
