package discovery

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/resilience"
	"github.com/sells-group/lead-cli/pkg/google"
)

// Google Places provenance.
const (
	placesConfidence  = 0.95
	placesPhoneSource = "googlePlacesApi"
	placesNotes       = "Collected from Google Places API"
	placesPageWait    = 2 * time.Second
)

// PlacesAdapter discovers businesses with Google Places text search.
type PlacesAdapter struct {
	client google.Client
	opts   options
}

// NewPlacesAdapter creates a PlacesAdapter. The next page token needs a
// moment to become valid, so pages are spaced by 2s unless WithPageDelay
// says otherwise.
func NewPlacesAdapter(client google.Client, opts ...Option) *PlacesAdapter {
	o := buildOptions("", append([]Option{WithPageDelay(placesPageWait)}, opts...))
	return &PlacesAdapter{client: client, opts: o}
}

// Name implements Adapter.
func (a *PlacesAdapter) Name() string { return model.SourceGoogleMaps }

// Discover implements Adapter.
func (a *PlacesAdapter) Discover(ctx context.Context, q Query) ([]model.Lead, error) {
	limit := maxResults(q)
	textQuery := q.Keyword + " in " + q.Location

	var (
		leads []model.Lead
		token string
	)
	for {
		req := google.TextSearchRequest{
			TextQuery: textQuery,
			PageSize:  min(limit-len(leads), google.MaxPageSize),
			PageToken: token,
		}
		resp, err := resilience.DoVal(ctx, a.retry(), func(ctx context.Context) (*google.TextSearchResponse, error) {
			return a.client.TextSearch(ctx, req)
		})
		if err != nil {
			if len(leads) > 0 {
				zap.L().Warn("discovery: places pagination stopped", zap.String("query", textQuery), zap.Error(err))
				return leads, nil
			}
			return nil, eris.Wrapf(err, "discovery: places search %q", textQuery)
		}

		for _, p := range resp.Places {
			if len(leads) >= limit {
				break
			}
			leads = append(leads, a.lead(p))
		}

		token = resp.NextPageToken
		if token == "" || len(leads) >= limit {
			break
		}
		if err := sleep(ctx, a.opts.pageDelay); err != nil {
			return leads, nil
		}
	}

	zap.L().Info("discovery: places search complete",
		zap.String("query", textQuery),
		zap.Int("leads", len(leads)),
	)
	return leads, nil
}

func (a *PlacesAdapter) retry() resilience.RetryConfig {
	cfg := a.opts.retry
	cfg.OnRetry = resilience.RetryLogger("google", "text_search")
	return cfg
}

func (a *PlacesAdapter) lead(p google.Place) model.Lead {
	street := strings.TrimSpace(p.Component("street_number", false) + " " + p.Component("route", false))
	country := p.Component("country", true)
	if country == "" {
		country = "US"
	}

	categories := make([]string, 0, len(p.Types))
	for _, t := range p.Types {
		categories = append(categories, strings.ReplaceAll(t, "_", " "))
	}
	category := p.PrimaryTypeDisplayName.Text
	if category == "" && len(categories) > 0 {
		category = categories[0]
	}

	rawPhone := p.InternationalPhoneNumber
	if rawPhone == "" {
		rawPhone = p.NationalPhoneNumber
	}
	var contacts model.Contacts
	display, e164, cp, ok := contactPhone(rawPhone, a.opts.region, placesPhoneSource, placesConfidence)
	if ok {
		contacts.Phones = []model.ContactPhone{cp}
	}

	hours := model.Hours{IsOpen: true}
	if h := p.CurrentOpeningHours; h != nil {
		hours.IsOpen = h.OpenNow
		hours.HoursText = strings.Join(h.WeekdayDescriptions, "; ")
	}

	mapsURL := p.GoogleMapsURI
	if mapsURL == "" {
		mapsURL = "https://www.google.com/maps/place/?q=place_id:" + p.ID
	}

	return model.Lead{
		Confidence: placesConfidence,
		Sources: map[string]model.SourceMeta{
			model.SourceGoogleMaps: {"url": mapsURL, "placeId": p.ID},
		},
		Business: model.Business{
			Name:       p.DisplayName.Text,
			Category:   category,
			Categories: categories,
			Address: model.Address{
				Street:     street,
				City:       p.Component("locality", false),
				State:      p.Component("administrative_area_level_1", true),
				PostalCode: p.Component("postal_code", false),
				Country:    country,
				Formatted:  p.FormattedAddress,
			},
			Geo:       model.Geo{Lat: p.Location.Latitude, Lng: p.Location.Longitude},
			Phone:     display,
			PhoneE164: e164,
		},
		Online: model.Online{
			Website: p.WebsiteURI,
			Domain:  extractDomain(p.WebsiteURI),
		},
		Contacts: contacts,
		Signals: model.Signals{
			Reviews: model.Reviews{Rating: p.Rating, ReviewCount: p.UserRatingCount},
			Hours:   hours,
		},
		Raw: model.Raw{Notes: placesNotes},
	}
}
