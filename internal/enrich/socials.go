package enrich

import (
	"net/url"
	"regexp"
	"strings"
)

// Social platform keys of Online.Socials.
const (
	Facebook  = "facebook"
	Instagram = "instagram"
	LinkedIn  = "linkedin"
	YouTube   = "youtube"
	TikTok    = "tiktok"
	X         = "x"
)

var socialPatterns = []struct {
	platform string
	res      []*regexp.Regexp
}{
	{Facebook, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:https?://)?(?:www\.)?facebook\.com/[a-zA-Z0-9._-]+`),
		regexp.MustCompile(`(?i)\b(?:https?://)?(?:www\.)?fb\.com/[a-zA-Z0-9._-]+`),
	}},
	{Instagram, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:https?://)?(?:www\.)?instagram\.com/[a-zA-Z0-9._]+`),
	}},
	{LinkedIn, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:https?://)?(?:www\.)?linkedin\.com/company/[a-zA-Z0-9-]+`),
		regexp.MustCompile(`(?i)\b(?:https?://)?(?:www\.)?linkedin\.com/in/[a-zA-Z0-9-]+`),
	}},
	{YouTube, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:https?://)?(?:www\.)?youtube\.com/(?:c/|channel/|user/|@)?[a-zA-Z0-9_-]+`),
		regexp.MustCompile(`(?i)\b(?:https?://)?(?:www\.)?youtu\.be/[a-zA-Z0-9_-]+`),
	}},
	{TikTok, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:https?://)?(?:www\.)?tiktok\.com/@[a-zA-Z0-9._]+`),
	}},
	{X, []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:https?://)?(?:www\.)?(?:twitter|x)\.com/[a-zA-Z0-9_]+`),
	}},
}

// widgetSegments are share buttons, pixels, and embeds rather than profiles.
var widgetSegments = map[string]bool{
	"share": true, "sharer": true, "intent": true, "widgets": true, "plugins": true,
	"dialog": true, "tr": true, "embed": true, "watch": true, "home": true, "login": true,
}

// Socials returns the first profile URL found per platform. Share links
// and widgets are skipped; query strings and fragments are dropped.
func Socials(html string) map[string]string {
	if html == "" {
		return nil
	}
	out := make(map[string]string)
	for _, p := range socialPatterns {
	platform:
		for _, re := range p.res {
			for _, m := range re.FindAllString(html, -1) {
				if isWidget(m) {
					continue
				}
				out[p.platform] = normalizeSocial(m)
				break platform
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// isWidget reports whether the first path segment of link names a widget.
func isWidget(link string) bool {
	lower := strings.ToLower(link)
	if _, rest, ok := strings.Cut(lower, "://"); ok {
		lower = rest
	}
	_, path, _ := strings.Cut(lower, "/")
	seg, _, _ := strings.Cut(path, "/")
	seg = strings.TrimSuffix(seg, ".php")
	return widgetSegments[seg]
}

func normalizeSocial(link string) string {
	if !strings.HasPrefix(strings.ToLower(link), "http") {
		link = "https://" + link
	}
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
