package discovery

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/phone"
	"github.com/sells-group/lead-cli/internal/resilience"
	"github.com/sells-group/lead-cli/pkg/yelp"
)

const (
	yelpConfidence = 0.9
	yelpSource     = "yelpApi"
	yelpNotes      = "Collected from Yelp Fusion API"
	yelpPageWait   = 200 * time.Millisecond
	// yelpMaxDepth is the API's cap on offset+limit.
	yelpMaxDepth = 1000
)

// YelpAdapter discovers businesses with the Yelp Fusion search API and
// fills each hit from the details endpoint.
type YelpAdapter struct {
	client yelp.Client
	opts   options
}

// NewYelpAdapter creates a YelpAdapter.
func NewYelpAdapter(client yelp.Client, opts ...Option) *YelpAdapter {
	o := buildOptions("", append([]Option{WithPageDelay(yelpPageWait)}, opts...))
	return &YelpAdapter{client: client, opts: o}
}

// Name implements Adapter.
func (a *YelpAdapter) Name() string { return model.SourceYelp }

// Discover implements Adapter.
func (a *YelpAdapter) Discover(ctx context.Context, q Query) ([]model.Lead, error) {
	limit := maxResults(q)
	pageSize := min(limit, yelp.MaxLimit)
	retry := a.opts.retry
	retry.OnRetry = resilience.RetryLogger("yelp", "search")

	var leads []model.Lead
	for offset := 0; len(leads) < limit && offset+pageSize <= yelpMaxDepth; offset += pageSize {
		req := yelp.SearchRequest{Term: q.Keyword, Location: q.Location, Limit: pageSize, Offset: offset}
		resp, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*yelp.SearchResponse, error) {
			return a.client.Search(ctx, req)
		})
		if err != nil {
			if len(leads) > 0 {
				zap.L().Warn("discovery: yelp pagination stopped", zap.Int("offset", offset), zap.Error(err))
				break
			}
			return nil, eris.Wrapf(err, "discovery: yelp search %q in %q", q.Keyword, q.Location)
		}

		for _, b := range resp.Businesses {
			if len(leads) >= limit {
				break
			}
			leads = append(leads, a.lead(a.details(ctx, b)))
		}

		if len(resp.Businesses) < pageSize {
			break
		}
		if err := sleep(ctx, a.opts.pageDelay); err != nil {
			break
		}
	}

	zap.L().Info("discovery: yelp search complete",
		zap.String("keyword", q.Keyword),
		zap.String("location", q.Location),
		zap.Int("leads", len(leads)),
	)
	return leads, nil
}

// details returns the full business record, falling back to the search hit.
func (a *YelpAdapter) details(ctx context.Context, b yelp.Business) yelp.Business {
	if b.ID == "" {
		return b
	}
	full, err := a.client.Business(ctx, b.ID)
	if err != nil || full == nil {
		zap.L().Debug("discovery: yelp details unavailable", zap.String("id", b.ID), zap.Error(err))
		return b
	}
	return *full
}

func (a *YelpAdapter) lead(b yelp.Business) model.Lead {
	categories := make([]string, 0, len(b.Categories))
	for _, c := range b.Categories {
		categories = append(categories, c.Title)
	}
	var category string
	if len(categories) > 0 {
		category = categories[0]
	}

	country := b.Location.Country
	if country == "" {
		country = "US"
	}

	display := b.DisplayPhone
	e164 := phone.E164(b.Phone, a.opts.region)
	if e164 == "" {
		e164 = b.Phone
	}
	var contacts model.Contacts
	if display != "" {
		contacts.Phones = []model.ContactPhone{{
			Phone:      display,
			PhoneE164:  e164,
			Source:     yelpSource,
			Confidence: yelpConfidence,
		}}
	}

	return model.Lead{
		Confidence: yelpConfidence,
		Sources: map[string]model.SourceMeta{
			model.SourceYelp: {"url": b.URL, "bizId": b.ID},
		},
		Business: model.Business{
			Name:       b.Name,
			Category:   category,
			Categories: categories,
			Address: model.Address{
				Street:     b.Location.Address1,
				City:       b.Location.City,
				State:      b.Location.State,
				PostalCode: b.Location.ZipCode,
				Country:    country,
				Formatted:  strings.Join(b.Location.DisplayAddress, ", "),
			},
			Geo:       model.Geo{Lat: b.Coordinates.Latitude, Lng: b.Coordinates.Longitude},
			Phone:     display,
			PhoneE164: e164,
		},
		Contacts: contacts,
		Signals: model.Signals{
			Reviews: model.Reviews{Rating: b.Rating, ReviewCount: b.ReviewCount},
			Hours:   model.Hours{IsOpen: !b.IsClosed},
		},
		Raw: model.Raw{Notes: yelpNotes},
	}
}
