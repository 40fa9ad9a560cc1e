package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-cli/internal/model"
)

const bbbPage = `<html><body><ul>
<li class="result-item">
  <h3><a class="business-name" href="/us/tx/austin/profile/pizza/joes-pizza-0825-1">Joe's Pizza</a></h3>
  <p class="address">1200 S Congress Ave, Austin, TX 78704</p>
  <p class="phone">(512) 555-0123</p>
  <a class="website-link" href="https://www.joespizza.com">Visit Website</a>
  <span class="bbb-rating">4.5</span>
  <span class="accredited">BBB Accredited Business</span>
</li>
<li class="result-item" data-bbb-id="77">
  <h3><a href="https://www.bbb.org/us/tx/austin/profile/pizza/slice-house-1">Slice House</a></h3>
  <p class="result-address">Austin, TX 78701</p>
  <p class="phone">555-0100</p>
</li>
<li class="result-item"><p>Sponsored</p></li>
</ul></body></html>`

func TestBBBAdapter_Discover(t *testing.T) {
	var hits atomic.Int32
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Query().Get("page") != "1" {
			_, _ = w.Write([]byte("<html><body></body></html>"))
			return
		}
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(bbbPage))
	}))
	defer srv.Close()

	a := NewBBBAdapter(WithBaseURL(srv.URL), noRetry(), WithPageDelay(0))
	assert.Equal(t, model.SourceBBB, a.Name())

	leads, err := a.Discover(context.Background(), Query{Keyword: "pizza", Location: "Austin, TX", MaxResults: 30})
	require.NoError(t, err)
	assert.Contains(t, query, "find_text=pizza")
	assert.Contains(t, query, "find_loc=Austin%2C+TX")
	assert.Equal(t, int32(2), hits.Load())
	require.Len(t, leads, 2)

	joe := leads[0]
	assert.InDelta(t, 0.9, joe.Confidence, 1e-9)
	assert.Equal(t, model.SourceMeta{
		"url":          srv.URL + "/us/tx/austin/profile/pizza/joes-pizza-0825-1",
		"isAccredited": true,
		"rating":       4.5,
	}, joe.Sources[model.SourceBBB])
	assert.Equal(t, model.Address{
		Street:     "1200 S Congress Ave",
		City:       "Austin",
		State:      "TX",
		PostalCode: "78704",
		Country:    "US",
		Formatted:  "1200 S Congress Ave, Austin, TX 78704",
	}, joe.Business.Address)
	assert.Equal(t, "(512) 555-0123", joe.Business.Phone)
	assert.Equal(t, "+15125550123", joe.Business.PhoneE164)
	require.Len(t, joe.Contacts.Phones, 1)
	assert.InDelta(t, 0.85, joe.Contacts.Phones[0].Confidence, 1e-9)
	assert.Equal(t, "https://www.joespizza.com", joe.Online.Website)
	assert.Equal(t, "joespizza.com", joe.Online.Domain)
	assert.InDelta(t, 4.5, joe.Signals.Reviews.Rating, 1e-9)
	assert.Equal(t, "BBB Accredited Business", joe.Raw.Notes)

	slice := leads[1]
	assert.InDelta(t, 0.75, slice.Confidence, 1e-9)
	assert.Equal(t, "https://www.bbb.org/us/tx/austin/profile/pizza/slice-house-1", slice.Sources[model.SourceBBB]["url"])
	assert.Equal(t, "Austin", slice.Business.Address.City)
	assert.Equal(t, "78701", slice.Business.Address.PostalCode)
	assert.Equal(t, "555-0100", slice.Business.Phone)
	assert.Empty(t, slice.Business.PhoneE164)
	assert.Empty(t, slice.Contacts.Phones)
	assert.Equal(t, "BBB Listed Business", slice.Raw.Notes)
}

func TestBBBAdapter_PageLimit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := hits.Add(1)
		var b strings.Builder
		b.WriteString("<html><body>")
		for i := range 10 {
			fmt.Fprintf(&b, `<div class="result-item"><h3><a href="/p/%d-%d">Biz %d-%d</a></h3></div>`, n, i, n, i)
		}
		b.WriteString("</body></html>")
		_, _ = w.Write([]byte(b.String()))
	}))
	defer srv.Close()

	leads, err := NewBBBAdapter(WithBaseURL(srv.URL), noRetry(), WithPageDelay(0)).
		Discover(context.Background(), Query{Keyword: "pizza", Location: "Austin", MaxResults: 25})
	require.NoError(t, err)
	assert.Len(t, leads, 25)
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, "Biz 3-4", leads[24].Business.Name)
}

func TestBBBAdapter_FirstPageError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewBBBAdapter(WithBaseURL(srv.URL), noRetry()).
		Discover(context.Background(), Query{Keyword: "pizza", Location: "Austin"})
	assert.Error(t, err)
}
