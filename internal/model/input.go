package model

import (
	"github.com/rotisserie/eris"
)

// SeedType selects how discovery is seeded.
type SeedType string

const (
	SeedKeyword    SeedType = "keyword"
	SeedCustomURLs SeedType = "customUrls"
)

// RunInput describes a single pipeline run.
type RunInput struct {
	SeedType              SeedType        `json:"seedType" yaml:"seedType"`
	Keywords              []string        `json:"keywords" yaml:"keywords"`
	Locations             []string        `json:"locations" yaml:"locations"`
	CustomURLs            []string        `json:"customUrls" yaml:"customUrls"`
	Sources               SourceToggles   `json:"sources" yaml:"sources"`
	MaxResultsPerLocation int             `json:"maxResultsPerLocation" yaml:"maxResultsPerLocation"`
	DeltaMode             bool            `json:"deltaMode" yaml:"deltaMode"`
	WeightsPreset         string          `json:"weightsPreset" yaml:"weightsPreset"`
	Enrichment            EnrichmentInput `json:"enrichment" yaml:"enrichment"`
	AI                    AIInput         `json:"ai" yaml:"ai"`
	Output                OutputInput     `json:"output" yaml:"output"`
}

// SourceToggles enables individual discovery adapters.
type SourceToggles struct {
	GoogleMaps bool `json:"googleMaps" yaml:"googleMaps"`
	Yelp       bool `json:"yelp" yaml:"yelp"`
	SERP       bool `json:"serp" yaml:"serp"`
	BBB        bool `json:"bbb" yaml:"bbb"`
}

// Any reports whether at least one source is enabled.
func (s SourceToggles) Any() bool {
	return s.GoogleMaps || s.Yelp || s.SERP || s.BBB
}

// EnrichmentInput controls website enrichment for a run.
type EnrichmentInput struct {
	Enabled         bool `json:"enabled" yaml:"enabled"`
	MaxWebsitePages int  `json:"maxWebsitePages" yaml:"maxWebsitePages"`
}

// AIInput controls outreach drafting for a run.
type AIInput struct {
	Enabled             bool   `json:"enabled" yaml:"enabled"`
	Provider            string `json:"provider" yaml:"provider"`
	Model               string `json:"model" yaml:"model"`
	YourCompanyName     string `json:"yourCompanyName" yaml:"yourCompanyName"`
	YourServiceOffering string `json:"yourServiceOffering" yaml:"yourServiceOffering"`
}

// OutputInput selects where emitted rows are written. Format is one of
// csv, xlsx, json, or postgres.
type OutputInput struct {
	Format string `json:"format" yaml:"format"`
	Path   string `json:"path" yaml:"path"`
}

// Validate checks that the input can seed a run.
func (in RunInput) Validate() error {
	if len(in.Locations) == 0 {
		return eris.New("input: at least one location is required")
	}
	switch in.SeedType {
	case "", SeedKeyword:
		if len(in.Keywords) == 0 {
			return eris.New("input: at least one keyword is required when using keyword search")
		}
	case SeedCustomURLs:
		if len(in.CustomURLs) == 0 {
			return eris.New("input: at least one custom URL is required when using custom URLs")
		}
	default:
		return eris.Errorf("input: unknown seed type %q", in.SeedType)
	}
	return nil
}

// WithDefaults fills zero values with run defaults.
func (in RunInput) WithDefaults() RunInput {
	if in.SeedType == "" {
		in.SeedType = SeedKeyword
	}
	if in.MaxResultsPerLocation <= 0 {
		in.MaxResultsPerLocation = 100
	}
	if in.WeightsPreset == "" {
		in.WeightsPreset = "localService"
	}
	if in.Enrichment.MaxWebsitePages <= 0 {
		in.Enrichment.MaxWebsitePages = 10
	}
	if in.Output.Format == "" {
		in.Output.Format = "csv"
	}
	if !in.Sources.Any() {
		in.Sources.GoogleMaps = true
	}
	return in
}
