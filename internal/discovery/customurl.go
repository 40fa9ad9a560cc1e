package discovery

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/model"
)

const (
	customURLConfidence = 0.5
	customURLNotes      = "Seeded from custom URL"
)

// CustomURLAdapter turns a fixed URL list into leads that carry only a
// website, leaving the rest to enrichment.
type CustomURLAdapter struct {
	urls []string
}

// NewCustomURLAdapter creates a CustomURLAdapter over urls.
func NewCustomURLAdapter(urls []string) *CustomURLAdapter {
	return &CustomURLAdapter{urls: urls}
}

// Name implements Adapter.
func (a *CustomURLAdapter) Name() string { return model.SourceCustomURL }

// Discover implements Adapter. The query is ignored apart from MaxResults;
// every URL yields one lead, in list order. Blank and duplicate URLs are
// dropped.
func (a *CustomURLAdapter) Discover(_ context.Context, q Query) ([]model.Lead, error) {
	limit := maxResults(q)
	seen := make(map[string]struct{}, len(a.urls))
	var leads []model.Lead
	for _, raw := range a.urls {
		if len(leads) >= limit {
			break
		}
		website := strings.TrimSpace(raw)
		if website == "" {
			continue
		}
		if !strings.Contains(website, "://") {
			website = "https://" + website
		}
		domain := extractDomain(website)
		if domain == "" {
			zap.L().Warn("discovery: skipping invalid custom url", zap.String("url", raw))
			continue
		}
		if _, ok := seen[website]; ok {
			continue
		}
		seen[website] = struct{}{}

		leads = append(leads, model.Lead{
			Confidence: customURLConfidence,
			Sources: map[string]model.SourceMeta{
				model.SourceCustomURL: {"url": website},
			},
			Business: model.Business{Address: model.Address{Country: "US"}},
			Online:   model.Online{Website: website, Domain: domain},
			Raw:      model.Raw{Notes: customURLNotes},
		})
	}
	return leads, nil
}
