// Package enrich crawls a lead's website and extracts contact channels,
// social profiles, marketing-technology fingerprints, and a text chunk.
package enrich

import (
	"cmp"
	"net/mail"
	"regexp"
	"slices"
	"strings"

	"github.com/sells-group/lead-cli/internal/model"
)

// Email sources.
const (
	SourceMailto = "mailto"
	SourceText   = "text"
)

var emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

var rolePrefixes = []string{
	"info@", "contact@", "hello@", "support@", "sales@", "admin@", "office@",
	"service@", "help@", "mail@", "team@", "noreply@", "no-reply@",
}

// placeholderMarkers flag template and tracking addresses that are never
// real business contacts.
var placeholderMarkers = []string{
	"example.com", "test.com", "placeholder", "domain.com", "yourdomain",
	"sentry.io", "wixpress.com",
}

// assetSuffixes catch retina asset names like logo@2x.png.
var assetSuffixes = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp"}

// IsRoleBased reports whether email is a shared mailbox (info@, sales@, ...).
func IsRoleBased(email string) bool {
	email = strings.ToLower(email)
	for _, p := range rolePrefixes {
		if strings.HasPrefix(email, p) {
			return true
		}
	}
	return false
}

// Emails extracts email addresses from page HTML. domain is the lead's
// website domain; addresses on it score higher. Results are deduplicated
// case-insensitively and sorted by confidence, highest first.
func Emails(html, domain string) []model.ContactEmail {
	if html == "" {
		return nil
	}
	lowerHTML := strings.ToLower(html)
	domain = bareHost(domain)

	seen := make(map[string]struct{})
	var out []model.ContactEmail
	for _, m := range emailRe.FindAllString(html, -1) {
		email := strings.ToLower(strings.TrimSpace(m))
		if _, ok := seen[email]; ok || !validEmail(email) {
			continue
		}
		seen[email] = struct{}{}

		role := IsRoleBased(email)
		confidence := 0.5
		if domain != "" && matchesDomain(email, domain) {
			confidence += 0.3
		}
		if !role {
			confidence += 0.2
		}
		source := SourceText
		if strings.Contains(lowerHTML, "mailto:"+email) {
			source = SourceMailto
			confidence += 0.1
		}

		out = append(out, model.ContactEmail{
			Email:       email,
			Source:      source,
			Confidence:  min(confidence, 1.0),
			IsRoleBased: role,
		})
	}

	slices.SortStableFunc(out, func(a, b model.ContactEmail) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})
	return out
}

func validEmail(email string) bool {
	for _, p := range placeholderMarkers {
		if strings.Contains(email, p) {
			return false
		}
	}
	for _, s := range assetSuffixes {
		if strings.HasSuffix(email, s) {
			return false
		}
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func matchesDomain(email, domain string) bool {
	_, host, ok := strings.Cut(email, "@")
	if !ok {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// bareHost lowercases a host and drops a leading www.
func bareHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(host)), "www.")
}
