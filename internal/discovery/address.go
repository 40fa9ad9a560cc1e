package discovery

import (
	"regexp"
	"strings"

	"github.com/sells-group/lead-cli/internal/model"
)

var (
	stateZipRe = regexp.MustCompile(`\b([A-Z]{2})\s*(\d{5})(?:-\d{4})?\b`)
	cityStRe   = regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*),\s*([A-Z]{2})\b`)
)

// parseAddress splits a one-line US address ("street, city, ST 12345").
// The segment holding "ST 12345" anchors the parse; trailing segments such
// as a country are ignored. Text is always kept as Formatted.
func parseAddress(text string) model.Address {
	text = strings.Join(strings.Fields(text), " ")
	addr := model.Address{Country: "US", Formatted: text}

	var parts []string
	for _, p := range strings.Split(text, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	for i := len(parts) - 1; i >= 0; i-- {
		state, zip := parseStateZip(parts[i])
		if state == "" {
			continue
		}
		addr.State, addr.PostalCode = state, zip
		if i >= 1 {
			addr.City = parts[i-1]
			addr.Street = strings.Join(parts[:i-1], ", ")
		}
		return addr
	}

	switch {
	case len(parts) >= 3:
		addr.Street = parts[0]
		addr.City = parts[1]
	case len(parts) == 2:
		addr.City = parts[0]
	}
	return addr
}

func parseStateZip(s string) (state, zip string) {
	m := stateZipRe.FindStringSubmatch(s)
	if m == nil {
		return "", ""
	}
	return m[1], m[2]
}

// cityState finds the first "City, ST" pair in free text.
func cityState(text string) (city, state string, ok bool) {
	m := cityStRe.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
