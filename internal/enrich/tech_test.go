package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTechSignals(t *testing.T) {
	t.Parallel()

	html := `<script async src="https://www.googletagmanager.com/gtag/js?id=G-XYZ"></script>
<script>gtag('config', 'G-XYZ');</script>
<script src="//js.hs-scripts.com/123.js"></script>`

	assert.Equal(t, map[string]bool{
		TechGoogleAnalytics:  true,
		TechGoogleTagManager: false,
		TechFacebookPixel:    false,
		TechHubSpot:          true,
		TechMailchimp:        false,
	}, TechSignals(html))
}

func TestTechSignals_Markers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		key  string
	}{
		{"gtm container", `<script>(function(w,d,s,l,i){})(window,document,'script','dataLayer','GTM-ABC123');</script>`, TechGoogleTagManager},
		{"gtm script", `<script src="https://www.googletagmanager.com/gtm.js?id=x"></script>`, TechGoogleTagManager},
		{"facebook pixel", `<script>fbq('init', '123');</script>`, TechFacebookPixel},
		{"facebook sdk", `<script src="https://connect.facebook.net/en_US/fbevents.js"></script>`, TechFacebookPixel},
		{"mailchimp form", `<form action="https://joes.us1.list-manage.com/subscribe/post">`, TechMailchimp},
		{"universal analytics", `<script>ga('create', 'UA-12345-1');</script>`, TechGoogleAnalytics},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, TechSignals(tt.html)[tt.key])
		})
	}
}

func TestTechSignals_NoFalsePositives(t *testing.T) {
	t.Parallel()

	got := TechSignals(`<p>Try our omega(3) rich salmon and the mega(deal).</p>`)
	assert.False(t, got[TechGoogleAnalytics])
}

func TestTechSignals_EmptyHasAllKeys(t *testing.T) {
	t.Parallel()

	got := TechSignals("")
	assert.Len(t, got, 5)
	for k, v := range got {
		assert.False(t, v, k)
	}
}
