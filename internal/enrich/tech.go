package enrich

import (
	"regexp"
	"strings"
)

// Technology keys of Signals.TechSignals.
const (
	TechGoogleAnalytics  = "googleAnalytics"
	TechGoogleTagManager = "googleTagManager"
	TechFacebookPixel    = "facebookPixel"
	TechHubSpot          = "hubspot"
	TechMailchimp        = "mailchimp"
)

type fingerprint struct {
	key     string
	markers []string
	res     []*regexp.Regexp
}

var fingerprints = []fingerprint{
	{
		key:     TechGoogleAnalytics,
		markers: []string{"google-analytics.com/analytics.js", "googletagmanager.com/gtag/js", "_gaq"},
		res: []*regexp.Regexp{
			regexp.MustCompile(`\bga\(`),
			regexp.MustCompile(`\bgtag\(`),
			regexp.MustCompile(`\bua-\d{4,}-\d+`),
		},
	},
	{
		key:     TechGoogleTagManager,
		markers: []string{"googletagmanager.com/gtm.js", "google tag manager"},
		res:     []*regexp.Regexp{regexp.MustCompile(`\bgtm-[a-z0-9]{4,}`)},
	},
	{
		key:     TechFacebookPixel,
		markers: []string{"connect.facebook.net", "facebook pixel", "_fbp"},
		res:     []*regexp.Regexp{regexp.MustCompile(`\bfbq\(`)},
	},
	{
		key:     TechHubSpot,
		markers: []string{"hubspot", "hs-analytics", "_hsq", "js.hs-scripts.com"},
	},
	{
		key:     TechMailchimp,
		markers: []string{"mailchimp", "list-manage.com", "chimpstatic.com"},
	},
}

// TechSignals fingerprints marketing technology in page HTML. Every known
// key is present in the result, true or false.
func TechSignals(html string) map[string]bool {
	lower := strings.ToLower(html)
	out := make(map[string]bool, len(fingerprints))
	for _, f := range fingerprints {
		out[f.key] = lower != "" && f.matches(lower)
	}
	return out
}

func (f fingerprint) matches(lower string) bool {
	for _, m := range f.markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	for _, re := range f.res {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}
