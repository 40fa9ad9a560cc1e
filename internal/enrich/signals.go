package enrich

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/sells-group/lead-cli/internal/htmlx"
	"github.com/sells-group/lead-cli/internal/model"
)

var (
	bookingVendors = []string{"calendly.com", "acuityscheduling", "squareup.com/appointments", "opentable", "resy.com", "booksy", "vagaro", "mindbodyonline"}
	chatVendors    = []string{"intercom", "drift.com", "js.driftt.com", "tawk.to", "livechatinc", "zendesk.com/embeddable", "crisp.chat", "tidio"}
)

// WebsiteSignals detects widgets from the visible text and raw HTML of the
// crawled pages.
func WebsiteSignals(text, rawHTML string) model.WebsiteSignals {
	t := strings.ToLower(text)
	h := strings.ToLower(rawHTML)
	return model.WebsiteSignals{
		HasContactForm: strings.Contains(t, "contact") && (strings.Contains(t, "form") || strings.Contains(t, "submit")) ||
			hasContactForm(rawHTML),
		HasBookingWidget: strings.Contains(t, "book") && (strings.Contains(t, "appointment") || strings.Contains(t, "schedule")) ||
			containsAny(h, bookingVendors),
		HasChatWidget: strings.Contains(t, "chat") || containsAny(h, chatVendors),
	}
}

// ContactFormURL returns the first page that carries a contact form,
// preferring contact-type pages.
func ContactFormURL(pages []model.CrawledPage) string {
	var fallback string
	for _, p := range pages {
		if !hasContactForm(p.HTML) {
			continue
		}
		if p.Type() == model.PageTypeContact {
			return p.URL
		}
		if fallback == "" {
			fallback = p.URL
		}
	}
	return fallback
}

// hasContactForm reports whether rawHTML holds a form with a message box or
// an email field. Search boxes and newsletter signups without a textarea do
// not count unless they ask for an email.
func hasContactForm(rawHTML string) bool {
	if rawHTML == "" || !strings.Contains(strings.ToLower(rawHTML), "<form") {
		return false
	}
	doc, err := htmlx.Parse(rawHTML)
	if err != nil {
		return false
	}
	for _, form := range htmlx.FindAll(doc, htmlx.Tag(atom.Form)) {
		if htmlx.Find(form, htmlx.Tag(atom.Textarea)) != nil {
			return true
		}
		if htmlx.Find(form, func(n *html.Node) bool {
			return n.Type == html.ElementNode && n.DataAtom == atom.Input && strings.EqualFold(htmlx.Attr(n, "type"), "email")
		}) != nil {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
