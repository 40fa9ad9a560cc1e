package scoring

import (
	"math"

	"github.com/sells-group/lead-cli/internal/model"
)

// Tier thresholds.
const (
	TierAMin = 80
	TierBMin = 60
	TierCMin = 40
)

// Reason texts, appended in this order.
const (
	ReasonHighQuality   = "High-quality lead with strong signals"
	ReasonWellReviewed  = "Well-reviewed business"
	ReasonHasWebsite    = "Has active website"
	ReasonHasEmail      = "Email contact available"
	ReasonUsesMarketing = "Uses marketing technology"
)

// wellReviewedMin is the review count above which a lead counts as well reviewed.
const wellReviewedMin = 20

// Score computes the lead score under preset. It reads only signals,
// online, and contacts; missing data scores zero.
func Score(l model.Lead, p Preset) model.Score {
	var total float64

	reviews := l.Signals.Reviews
	if reviews.ReviewCount > 0 && reviews.Rating > 0 {
		if p.ReviewCountSaturation > 0 {
			total += min(float64(reviews.ReviewCount)/p.ReviewCountSaturation*p.ReviewCountMax, p.ReviewCountMax)
		}
		total += reviews.Rating / 5 * p.RatingMax
	}

	if l.Online.Website != "" {
		total += p.Website
	}
	if len(l.Contacts.Emails) > 0 {
		total += p.Email
	}
	if len(l.Contacts.Phones) > 0 {
		total += p.Phone
	}
	if l.Contacts.ContactFormURL != "" {
		total += p.ContactForm
	}

	tech := l.Signals.TechCount()
	total += min(float64(tech)*p.TechPerSignal, p.TechMax)

	score := int(math.Round(min(total, 100)))

	var reasons []string
	if score >= TierAMin {
		reasons = append(reasons, ReasonHighQuality)
	}
	if reviews.ReviewCount > wellReviewedMin {
		reasons = append(reasons, ReasonWellReviewed)
	}
	if l.Online.Website != "" {
		reasons = append(reasons, ReasonHasWebsite)
	}
	if len(l.Contacts.Emails) > 0 {
		reasons = append(reasons, ReasonHasEmail)
	}
	if tech > 0 {
		reasons = append(reasons, ReasonUsesMarketing)
	}

	return model.Score{LeadScore: score, Tier: TierFor(score), Reasons: reasons}
}

// TierFor maps a score to its tier.
func TierFor(score int) model.Tier {
	switch {
	case score >= TierAMin:
		return model.TierA
	case score >= TierBMin:
		return model.TierB
	case score >= TierCMin:
		return model.TierC
	default:
		return model.TierD
	}
}

// Apply returns a copy of leads with Score set on each. Only the Score field
// differs from the input; other fields share storage with it.
func Apply(leads []model.Lead, p Preset) []model.Lead {
	out := make([]model.Lead, len(leads))
	for i, l := range leads {
		l.Score = Score(l, p)
		out[i] = l
	}
	return out
}
