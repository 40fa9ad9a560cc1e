// Package phone parses and finds phone numbers, normalizing them to E.164.
package phone

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"github.com/rotisserie/eris"
)

// DefaultRegion is used when a caller passes an empty region.
const DefaultRegion = "US"

// Number is a validated phone number.
type Number struct {
	Raw      string
	E164     string
	National string
}

// Parse validates raw in region and returns its normalized forms.
func Parse(raw, region string) (Number, error) {
	if region == "" {
		region = DefaultRegion
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Number{}, eris.New("phone: empty number")
	}

	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return Number{}, eris.Wrapf(err, "phone: parse %q", raw)
	}
	if !phonenumbers.IsValidNumber(num) {
		return Number{}, eris.Errorf("phone: invalid number %q", raw)
	}
	return Number{
		Raw:      raw,
		E164:     phonenumbers.Format(num, phonenumbers.E164),
		National: phonenumbers.Format(num, phonenumbers.NATIONAL),
	}, nil
}

// E164 returns the E.164 form of raw, or "" when raw does not parse.
func E164(raw, region string) string {
	n, err := Parse(raw, region)
	if err != nil {
		return ""
	}
	return n.E164
}

// candidate matches North American style numbers with optional country code
// and separators, and bare 10-digit runs.
var candidate = regexp.MustCompile(`(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)

// Find returns the distinct valid numbers in text, in order of first
// appearance. Duplicates are detected on the E.164 form.
func Find(text, region string) []Number {
	seen := make(map[string]struct{})
	var out []Number
	for _, m := range candidate.FindAllString(text, -1) {
		n, err := Parse(m, region)
		if err != nil {
			continue
		}
		if _, ok := seen[n.E164]; ok {
			continue
		}
		seen[n.E164] = struct{}{}
		out = append(out, n)
	}
	return out
}
