package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLead() Lead {
	return Lead{
		DedupeID: "abc",
		Sources: map[string]SourceMeta{
			SourceYelp: {"url": "https://yelp.com/biz/x", "bizId": "x"},
		},
		Business: Business{Name: "Joe's Pizza", Categories: []string{"pizza"}},
		Online:   Online{Socials: map[string]string{"facebook": "https://facebook.com/joes"}},
		Contacts: Contacts{
			Emails:    []ContactEmail{{Email: "joe@joes.com"}},
			Phones:    []ContactPhone{{Phone: "(217) 555-0100", PhoneE164: "+12175550100"}},
			KeyPeople: []KeyPerson{{Name: "Joe"}},
		},
		Signals: Signals{TechSignals: map[string]bool{"hubspot": true, "mailchimp": false}},
		Score:   Score{Reasons: []string{"Has active website"}},
	}
}

func TestLead_CloneIsDeep(t *testing.T) {
	t.Parallel()

	orig := sampleLead()
	c := orig.Clone()
	require.Equal(t, orig, c)

	c.Sources[SourceYelp]["url"] = "changed"
	c.Sources["bbb"] = SourceMeta{}
	c.Business.Categories[0] = "changed"
	c.Online.Socials["facebook"] = "changed"
	c.Contacts.Emails[0].Email = "changed"
	c.Contacts.Phones[0].Phone = "changed"
	c.Contacts.KeyPeople[0].Name = "changed"
	c.Signals.TechSignals["hubspot"] = false
	c.Score.Reasons[0] = "changed"

	assert.Equal(t, sampleLead(), orig)
}

func TestLead_CloneNilMaps(t *testing.T) {
	t.Parallel()

	c := Lead{}.Clone()
	assert.Nil(t, c.Sources)
	assert.Nil(t, c.Online.Socials)
	assert.Nil(t, c.Signals.TechSignals)
}

func TestSignals_TechCount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, Signals{}.TechCount())
	assert.Equal(t, 2, Signals{TechSignals: map[string]bool{"a": true, "b": true, "c": false}}.TechCount())
}

func TestContactPhone_DedupeKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "+12175550100", ContactPhone{Phone: "(217) 555-0100", PhoneE164: "+12175550100"}.DedupeKey())
	assert.Equal(t, "555-0100", ContactPhone{Phone: "555-0100"}.DedupeKey())
}

func TestLead_SourceNames(t *testing.T) {
	t.Parallel()

	l := Lead{Sources: map[string]SourceMeta{SourceYelp: nil, SourceBBB: nil, SourceGoogleMaps: nil}}
	assert.Equal(t, []string{"bbb", "googleMaps", "yelp"}, l.SourceNames())
}

func TestRunInput_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      RunInput
		wantErr string
	}{
		{"no locations", RunInput{Keywords: []string{"plumber"}}, "location"},
		{"keyword without keywords", RunInput{SeedType: SeedKeyword, Locations: []string{"Austin, TX"}}, "keyword"},
		{"default seed without keywords", RunInput{Locations: []string{"Austin, TX"}}, "keyword"},
		{"custom urls without urls", RunInput{SeedType: SeedCustomURLs, Locations: []string{"Austin, TX"}}, "custom URL"},
		{"unknown seed", RunInput{SeedType: "zip", Locations: []string{"Austin, TX"}}, "unknown seed type"},
		{"valid keyword", RunInput{Keywords: []string{"plumber"}, Locations: []string{"Austin, TX"}}, ""},
		{"valid custom", RunInput{SeedType: SeedCustomURLs, CustomURLs: []string{"https://a.com"}, Locations: []string{"Austin, TX"}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.in.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRunInput_WithDefaults(t *testing.T) {
	t.Parallel()

	in := RunInput{}.WithDefaults()
	assert.Equal(t, SeedKeyword, in.SeedType)
	assert.Equal(t, 100, in.MaxResultsPerLocation)
	assert.Equal(t, "localService", in.WeightsPreset)
	assert.Equal(t, 10, in.Enrichment.MaxWebsitePages)
	assert.True(t, in.Sources.GoogleMaps)

	kept := RunInput{Sources: SourceToggles{Yelp: true}, MaxResultsPerLocation: 5}.WithDefaults()
	assert.False(t, kept.Sources.GoogleMaps)
	assert.True(t, kept.Sources.Yelp)
	assert.Equal(t, 5, kept.MaxResultsPerLocation)
}
