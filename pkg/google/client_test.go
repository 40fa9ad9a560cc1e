package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-cli/internal/resilience"
)

func TestTextSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/places:searchText", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "places.websiteUri")
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "nextPageToken")

		var body TextSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "pizza in Springfield, IL", body.TextQuery)
		assert.Equal(t, MaxPageSize, body.PageSize)
		assert.Equal(t, "tok1", body.PageToken)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"places": [{
				"id": "ChIJ1",
				"displayName": {"text": "Joe's Pizza"},
				"formattedAddress": "1 Main St, Springfield, IL 62701, USA",
				"addressComponents": [
					{"longText": "Springfield", "shortText": "Springfield", "types": ["locality", "political"]},
					{"longText": "Illinois", "shortText": "IL", "types": ["administrative_area_level_1"]}
				],
				"location": {"latitude": 39.8, "longitude": -89.6},
				"rating": 4.5,
				"userRatingCount": 127,
				"nationalPhoneNumber": "(217) 555-0100",
				"websiteUri": "https://joes.com/",
				"currentOpeningHours": {"openNow": true, "weekdayDescriptions": ["Monday: 11AM-9PM"]}
			}],
			"nextPageToken": "tok2"
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(context.Background(), TextSearchRequest{
		TextQuery: "pizza in Springfield, IL",
		PageSize:  50,
		PageToken: "tok1",
	})

	require.NoError(t, err)
	require.Len(t, resp.Places, 1)
	p := resp.Places[0]
	assert.Equal(t, "Joe's Pizza", p.DisplayName.Text)
	assert.InDelta(t, 4.5, p.Rating, 0.001)
	assert.Equal(t, 127, p.UserRatingCount)
	assert.Equal(t, "IL", p.Component("administrative_area_level_1", true))
	assert.Equal(t, "Illinois", p.Component("administrative_area_level_1", false))
	assert.Equal(t, "Springfield", p.Component("locality", false))
	assert.Empty(t, p.Component("postal_code", false))
	require.NotNil(t, p.CurrentOpeningHours)
	assert.True(t, p.CurrentOpeningHours.OpenNow)
	assert.Equal(t, "tok2", resp.NextPageToken)
}

func TestTextSearch_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(context.Background(), TextSearchRequest{TextQuery: "nothing"})

	require.NoError(t, err)
	assert.Empty(t, resp.Places)
	assert.Empty(t, resp.NextPageToken)
}

func TestTextSearch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": "invalid API key"}`))
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	resp, err := client.TextSearch(context.Background(), TextSearchRequest{TextQuery: "q"})

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "403")
	assert.False(t, resilience.IsTransient(err))
}

func TestTextSearch_RateLimitedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL))
	_, err := client.TextSearch(context.Background(), TextSearchRequest{TextQuery: "q"})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestTextSearch_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL))
	_, err := client.TextSearch(context.Background(), TextSearchRequest{TextQuery: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestTextSearch_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := NewClient("k", WithBaseURL(srv.URL), WithHTTPClient(&http.Client{}))
	_, err := client.TextSearch(ctx, TextSearchRequest{TextQuery: "q"})
	assert.Error(t, err)
}
