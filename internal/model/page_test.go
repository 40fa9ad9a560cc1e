package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyURL(t *testing.T) {
	tests := []struct {
		url  string
		want PageType
	}{
		{"https://joes.com", PageTypeHomepage},
		{"https://joes.com/", PageTypeHomepage},
		{"https://joes.com/index.html", PageTypeHomepage},
		{"https://joes.com/contact-us", PageTypeContact},
		{"https://joes.com/Contact/", PageTypeContact},
		{"https://joes.com/about-us", PageTypeAbout},
		{"https://joes.com/our-team", PageTypeTeam},
		{"https://joes.com/services/catering", PageTypeServices},
		{"https://joes.com/menu", PageTypeOther},
		{"http://[::1", PageTypeOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyURL(tt.url), tt.url)
	}
}

func TestCrawledPage_Type(t *testing.T) {
	assert.Equal(t, PageTypeContact, CrawledPage{URL: "https://a.com/contact"}.Type())
}
