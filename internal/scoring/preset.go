// Package scoring computes the deterministic 0-100 lead score and tier.
package scoring

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DefaultPreset is used when a run does not name one.
const DefaultPreset = "localService"

// Preset holds the bucket weights for one scoring scheme. The review bucket
// reaches ReviewCountMax at ReviewCountSaturation reviews; rating contributes
// up to RatingMax at a 5-star rating.
type Preset struct {
	Name                  string  `yaml:"-" json:"name"`
	ReviewCountMax        float64 `yaml:"review_count_max" json:"reviewCountMax"`
	ReviewCountSaturation float64 `yaml:"review_count_saturation" json:"reviewCountSaturation"`
	RatingMax             float64 `yaml:"rating_max" json:"ratingMax"`
	Website               float64 `yaml:"website" json:"website"`
	Email                 float64 `yaml:"email" json:"email"`
	Phone                 float64 `yaml:"phone" json:"phone"`
	ContactForm           float64 `yaml:"contact_form" json:"contactForm"`
	TechPerSignal         float64 `yaml:"tech_per_signal" json:"techPerSignal"`
	TechMax               float64 `yaml:"tech_max" json:"techMax"`
}

// MaxPossible returns the highest uncapped total the preset can produce.
func (p Preset) MaxPossible() float64 {
	return p.ReviewCountMax + p.RatingMax + p.Website + p.Email + p.Phone + p.ContactForm + p.TechMax
}

// Validate checks that a preset is internally consistent.
func (p Preset) Validate() error {
	var errs []string

	weights := []struct {
		name string
		v    float64
	}{
		{"review_count_max", p.ReviewCountMax},
		{"review_count_saturation", p.ReviewCountSaturation},
		{"rating_max", p.RatingMax},
		{"website", p.Website},
		{"email", p.Email},
		{"phone", p.Phone},
		{"contact_form", p.ContactForm},
		{"tech_per_signal", p.TechPerSignal},
		{"tech_max", p.TechMax},
	}
	for _, w := range weights {
		if w.v < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", w.name))
		}
	}
	if p.ReviewCountMax > 0 && p.ReviewCountSaturation <= 0 {
		errs = append(errs, "review_count_saturation must be > 0 when review_count_max is set")
	}
	if p.MaxPossible() <= 0 {
		errs = append(errs, "weight sum must be > 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("scoring: preset %q invalid: %s", p.Name, strings.Join(errs, "; "))
	}
	return nil
}

// Presets maps preset names to weights.
type Presets map[string]Preset

// Builtin returns the built-in presets.
func Builtin() Presets {
	return Presets{
		"localService": {
			Name:                  "localService",
			ReviewCountMax:        15,
			ReviewCountSaturation: 50,
			RatingMax:             15,
			Website:               20,
			Email:                 10,
			Phone:                 5,
			ContactForm:           5,
			TechPerSignal:         3,
			TechMax:               15,
		},
		// Web presence and marketing stack dominate.
		"ecommerce": {
			Name:                  "ecommerce",
			ReviewCountMax:        10,
			ReviewCountSaturation: 100,
			RatingMax:             10,
			Website:               25,
			Email:                 15,
			Phone:                 5,
			ContactForm:           5,
			TechPerSignal:         5,
			TechMax:               25,
		},
		// Review volume and rating dominate.
		"reputation": {
			Name:                  "reputation",
			ReviewCountMax:        25,
			ReviewCountSaturation: 100,
			RatingMax:             25,
			Website:               15,
			Email:                 10,
			Phone:                 10,
			ContactForm:           5,
			TechPerSignal:         2,
			TechMax:               10,
		},
	}
}

// Names returns the preset names in sorted order.
func (ps Presets) Names() []string {
	names := make([]string, 0, len(ps))
	for n := range ps {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Lookup returns the named preset. An empty name selects DefaultPreset.
func (ps Presets) Lookup(name string) (Preset, error) {
	if name == "" {
		name = DefaultPreset
	}
	p, ok := ps[name]
	if !ok {
		return Preset{}, eris.Errorf("scoring: unknown preset %q (available: %s)", name, strings.Join(ps.Names(), ", "))
	}
	return p, nil
}

type presetFile struct {
	Presets map[string]Preset `yaml:"presets"`
}

// LoadPresets reads presets from a YAML file and layers them over the
// built-ins. A file preset with a built-in name replaces it. An empty path
// returns the built-ins.
func LoadPresets(path string) (Presets, error) {
	ps := Builtin()
	if path == "" {
		return ps, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "scoring: read presets %s", path)
	}

	var f presetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "scoring: parse presets %s", path)
	}

	for name, p := range f.Presets {
		p.Name = name
		if err := p.Validate(); err != nil {
			return nil, err
		}
		ps[name] = p
	}
	return ps, nil
}
