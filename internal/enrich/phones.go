package enrich

import (
	"cmp"
	"slices"
	"strings"

	"github.com/sells-group/lead-cli/internal/htmlx"
	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/phone"
)

// Phone sources and their confidences.
const (
	SourceTelLink = "tel-link"

	telLinkConfidence = 0.95
	textConfidence    = 0.7
)

// Phones extracts valid phone numbers from page HTML. Numbers that also
// appear as a tel: link are marked tel-link with higher confidence. Results
// are deduplicated by E.164 and sorted by confidence, highest first.
func Phones(rawHTML, region string) []model.ContactPhone {
	if rawHTML == "" {
		return nil
	}
	doc, err := htmlx.Parse(rawHTML)
	if err != nil {
		return nil
	}

	tel := make(map[string]struct{})
	var telNumbers []phone.Number
	for _, href := range htmlx.Links(doc, nil) {
		rest, ok := strings.CutPrefix(strings.ToLower(href), "tel:")
		if !ok {
			continue
		}
		if n, err := phone.Parse(rest, region); err == nil {
			tel[n.E164] = struct{}{}
			telNumbers = append(telNumbers, n)
		}
	}

	seen := make(map[string]struct{})
	var out []model.ContactPhone
	add := func(n phone.Number) {
		if _, ok := seen[n.E164]; ok {
			return
		}
		seen[n.E164] = struct{}{}
		p := model.ContactPhone{
			Phone:      n.National,
			PhoneE164:  n.E164,
			Source:     SourceText,
			Confidence: textConfidence,
		}
		if _, ok := tel[n.E164]; ok {
			p.Source = SourceTelLink
			p.Confidence = telLinkConfidence
		}
		out = append(out, p)
	}

	for _, n := range phone.Find(htmlx.Text(doc), region) {
		add(n)
	}
	for _, n := range telNumbers {
		add(n)
	}

	slices.SortStableFunc(out, func(a, b model.ContactPhone) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})
	return out
}
