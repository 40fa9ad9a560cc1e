package yelp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-cli/internal/resilience"
)

func TestSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/businesses/search", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "pizza", r.URL.Query().Get("term"))
		assert.Equal(t, "Springfield, IL", r.URL.Query().Get("location"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "50", r.URL.Query().Get("offset"))

		_, _ = w.Write([]byte(`{
			"total": 51,
			"businesses": [{
				"id": "joes-pizza-springfield",
				"name": "Joe's Pizza",
				"url": "https://www.yelp.com/biz/joes-pizza-springfield",
				"phone": "+12175550100",
				"display_phone": "(217) 555-0100",
				"review_count": 88,
				"rating": 4.5,
				"categories": [{"alias": "pizza", "title": "Pizza"}],
				"coordinates": {"latitude": 39.8, "longitude": -89.6},
				"location": {"address1": "1 Main St", "city": "Springfield", "state": "IL", "zip_code": "62701", "country": "US",
					"display_address": ["1 Main St", "Springfield, IL 62701"]}
			}]
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.Search(context.Background(), SearchRequest{Term: "pizza", Location: "Springfield, IL", Limit: 200, Offset: 50})

	require.NoError(t, err)
	assert.Equal(t, 51, resp.Total)
	require.Len(t, resp.Businesses, 1)
	b := resp.Businesses[0]
	assert.Equal(t, "Joe's Pizza", b.Name)
	assert.Equal(t, "+12175550100", b.Phone)
	assert.Equal(t, "62701", b.Location.ZipCode)
	assert.Equal(t, []string{"1 Main St", "Springfield, IL 62701"}, b.Location.DisplayAddress)
	assert.Equal(t, "Pizza", b.Categories[0].Title)
}

func TestBusiness_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/businesses/joes-pizza", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": "joes-pizza", "name": "Joe's Pizza", "hours": [{"hours_type": "REGULAR", "is_open_now": true}]}`))
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL))
	b, err := client.Business(context.Background(), "joes-pizza")
	require.NoError(t, err)
	assert.Equal(t, "Joe's Pizza", b.Name)
	require.Len(t, b.Hours, 1)
	assert.True(t, b.Hours[0].IsOpenNow)
}

func TestSearch_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{"unauthorized", http.StatusUnauthorized, false},
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusBadGateway, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error": {"code": "X"}}`))
			}))
			defer srv.Close()

			client := NewClient("k", WithBaseURL(srv.URL))
			resp, err := client.Search(context.Background(), SearchRequest{Term: "a", Location: "b"})
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.Contains(t, err.Error(), "yelp: search")
			assert.Equal(t, tt.transient, resilience.IsTransient(err))
		})
	}
}

func TestBusiness_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[`))
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL))
	_, err := client.Business(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}
