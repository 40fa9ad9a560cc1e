// Package yelp is a minimal Yelp Fusion business search client.
package yelp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-cli/internal/resilience"
)

const defaultBaseURL = "https://api.yelp.com/v3"

// MaxLimit is the largest page size the search endpoint accepts.
const MaxLimit = 50

// Client performs Yelp Fusion API operations.
type Client interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
	Business(ctx context.Context, id string) (*Business, error)
}

// SearchRequest is a business search page.
type SearchRequest struct {
	Term     string
	Location string
	Limit    int
	Offset   int
}

// SearchResponse is one page of business search results.
type SearchResponse struct {
	Businesses []Business `json:"businesses"`
	Total      int        `json:"total"`
}

// Business is a Yelp business as returned by search and details.
type Business struct {
	ID           string      `json:"id"`
	Alias        string      `json:"alias"`
	Name         string      `json:"name"`
	URL          string      `json:"url"`
	Phone        string      `json:"phone"`
	DisplayPhone string      `json:"display_phone"`
	ReviewCount  int         `json:"review_count"`
	Rating       float64     `json:"rating"`
	IsClosed     bool        `json:"is_closed"`
	Categories   []Category  `json:"categories"`
	Coordinates  Coordinates `json:"coordinates"`
	Location     Location    `json:"location"`
	Hours        []Hours     `json:"hours,omitempty"`
}

// Category is a Yelp business category.
type Category struct {
	Alias string `json:"alias"`
	Title string `json:"title"`
}

// Coordinates is a coordinate pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is a Yelp postal address.
type Location struct {
	Address1       string   `json:"address1"`
	City           string   `json:"city"`
	State          string   `json:"state"`
	ZipCode        string   `json:"zip_code"`
	Country        string   `json:"country"`
	DisplayAddress []string `json:"display_address"`
}

// Hours is returned only by the details endpoint.
type Hours struct {
	HoursType string `json:"hours_type"`
	IsOpenNow bool   `json:"is_open_now"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Yelp Fusion client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, in SearchRequest) (*SearchResponse, error) {
	limit := in.Limit
	if limit <= 0 || limit > MaxLimit {
		limit = MaxLimit
	}
	q := url.Values{}
	q.Set("term", in.Term)
	q.Set("location", in.Location)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(in.Offset))

	var out SearchResponse
	if err := c.get(ctx, "/businesses/search?"+q.Encode(), &out); err != nil {
		return nil, eris.Wrap(err, "yelp: search")
	}
	return &out, nil
}

func (c *httpClient) Business(ctx context.Context, id string) (*Business, error) {
	var out Business
	if err := c.get(ctx, "/businesses/"+url.PathEscape(id), &out); err != nil {
		return nil, eris.Wrapf(err, "yelp: business %s", id)
	}
	return &out, nil
}

func (c *httpClient) get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if err := resilience.CheckStatus(resp, "yelp"); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return eris.Wrap(err, "unmarshal response")
	}
	return nil
}
