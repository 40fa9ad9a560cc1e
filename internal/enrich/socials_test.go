package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSocials(t *testing.T) {
	t.Parallel()

	html := `<a href="https://www.facebook.com/sharer/sharer.php?u=x">share</a>
<img src="https://www.facebook.com/tr?id=123&ev=PageView">
<a href="https://www.facebook.com/joespizza?ref=page">fb</a>
<a href="https://instagram.com/joes_pizza/">ig</a>
<a href="https://twitter.com/intent/tweet?text=hi">tweet</a>
<a href="https://x.com/joespizza">x</a>
<a href="https://www.linkedin.com/company/joes-pizza">li</a>
<a href="https://www.fox.com/news">not x</a>`

	assert.Equal(t, map[string]string{
		Facebook:  "https://www.facebook.com/joespizza",
		Instagram: "https://instagram.com/joes_pizza",
		X:         "https://x.com/joespizza",
		LinkedIn:  "https://www.linkedin.com/company/joes-pizza",
	}, Socials(html))
}

func TestSocials_SchemeAdded(t *testing.T) {
	t.Parallel()

	got := Socials(`Follow us: tiktok.com/@joespizza and youtube.com/@joespizza`)
	assert.Equal(t, "https://tiktok.com/@joespizza", got[TikTok])
	assert.Equal(t, "https://youtube.com/@joespizza", got[YouTube])
}

func TestSocials_None(t *testing.T) {
	t.Parallel()
	assert.Nil(t, Socials(""))
	assert.Nil(t, Socials(`<a href="https://www.facebook.com/sharer.php?u=1">share</a>`))
}

func TestIsWidget(t *testing.T) {
	t.Parallel()

	assert.True(t, isWidget("https://www.facebook.com/plugins/page.php"))
	assert.True(t, isWidget("facebook.com/tr"))
	assert.True(t, isWidget("https://www.youtube.com/embed"))
	assert.False(t, isWidget("https://www.facebook.com/trattoria"))
	assert.False(t, isWidget("https://www.facebook.com/joespizza"))
}
