package seatsaero

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordedSleeps collects the waits a client would have performed
type recordedSleeps struct {
	waits []time.Duration
}

func (r *recordedSleeps) sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return ctx.Err()
}

// newTestClient points a client at handler and records retry waits instead
// of sleeping
func newTestClient(t *testing.T, maxRetries int, handler http.HandlerFunc) (*Client, *recordedSleeps) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	client, err := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL, MaxRetries: maxRetries}, nil, nil)
	require.NoError(t, err)

	rec := &recordedSleeps{}
	client.sleep = rec.sleep
	return client, rec
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, body)
}

func TestNewClient(t *testing.T) {
	client, err := NewClient(Options{APIKey: "k"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://seats.aero/partnerapi", client.BaseURL)
	assert.Equal(t, 30*time.Second, client.HTTPClient.Timeout)
	assert.Equal(t, 10, client.ResultLimit)

	_, err = NewClient(Options{}, nil, nil)
	assert.Error(t, err)
}

func TestCachedSearch_SendsOnlySetParameters(t *testing.T) {
	var got url.Values
	var headers http.Header
	client, _ := newTestClient(t, 3, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		got = r.URL.Query()
		headers = r.Header
		writeJSON(w, `{"data": [], "hasMore": false}`)
	})

	direct := true
	seats := 2
	_, err := client.CachedSearch(context.Background(), SearchParameters{
		Origins:      []string{"SFO", "LAX"},
		Destinations: []string{"NRT"},
		StartDate:    "2026-11-01",
		EndDate:      "2026-11-07",
		Cabin:        CabinBusiness,
		Direct:       &direct,
		MinSeats:     &seats,
	})
	require.NoError(t, err)

	want := url.Values{
		"origins":      {"SFO,LAX"},
		"destinations": {"NRT"},
		"startDate":    {"2026-11-01"},
		"endDate":      {"2026-11-07"},
		"cabin":        {"J"},
		"direct":       {"true"},
		"minSeats":     {"2"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}
	for _, absent := range []string{"source", "maxMiles", "skip", "cursor"} {
		_, present := got[absent]
		assert.False(t, present, "%s should not be sent", absent)
	}
	assert.Equal(t, "test-key", headers.Get("Partner-Authorization"))
	assert.Equal(t, "application/json", headers.Get("Content-Type"))
}

func TestCachedSearch_ZeroValuedPointersAreSent(t *testing.T) {
	var got url.Values
	client, _ := newTestClient(t, 3, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		writeJSON(w, `[]`)
	})

	direct := false
	zero := 0
	_, err := client.CachedSearch(context.Background(), SearchParameters{Direct: &direct, MaxMiles: &zero, Skip: &zero})
	require.NoError(t, err)
	assert.Equal(t, "false", got.Get("direct"))
	assert.Equal(t, "0", got.Get("maxMiles"))
	assert.Equal(t, "0", got.Get("skip"))
	assert.Len(t, got, 3)
}

func TestCachedSearch_Normalization(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantIDs     []string
		wantCursor  string
		wantHasMore bool
	}{
		{
			name:        "Envelope with array",
			body:        `{"data": [{"ID": "a1"}, {"ID": "a2"}], "cursor": 1712345, "hasMore": true}`,
			wantIDs:     []string{"a1", "a2"},
			wantCursor:  "1712345",
			wantHasMore: true,
		},
		{
			name:    "Envelope with single object",
			body:    `{"data": {"ID": "only"}}`,
			wantIDs: []string{"only"},
		},
		{
			name:    "Bare array",
			body:    `[{"ID": "b1"}]`,
			wantIDs: []string{"b1"},
		},
		{
			name:    "Bare object",
			body:    `{"ID": "solo", "Date": "2026-11-01"}`,
			wantIDs: []string{"solo"},
		},
		{
			name:    "Null data",
			body:    `{"data": null}`,
			wantIDs: []string{""},
		},
		{
			name:       "Empty envelope array",
			body:       `{"data": [], "cursor": "abc"}`,
			wantIDs:    []string{},
			wantCursor: "abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, 3, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.body)
			})

			resp, err := client.CachedSearch(context.Background(), SearchParameters{})
			require.NoError(t, err)

			ids := []string{}
			for _, a := range resp.Data {
				ids = append(ids, a.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, len(tt.wantIDs), resp.Count)
			assert.Equal(t, tt.wantCursor, resp.Cursor)
			assert.Equal(t, tt.wantHasMore, resp.HasMore)
		})
	}
}

func TestCachedSearch_SingleObjectRoundTrip(t *testing.T) {
	const obj = `{"ID": "x", "Route": {"OriginAirport": "SFO", "DestinationAirport": "NRT", "Source": "aeroplan"},
		"Date": "2026-11-01", "JAvailable": true, "JMileageCost": "75000", "JRemainingSeats": 2, "JTaxes": "$56"}`

	client, _ := newTestClient(t, 3, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"data": `+obj+`}`)
	})

	resp, err := client.CachedSearch(context.Background(), SearchParameters{})
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)

	var want Availability
	require.NoError(t, json.Unmarshal([]byte(obj), &want))
	if diff := cmp.Diff(want, resp.Data[0]); diff != "" {
		t.Errorf("availability mismatch (-want +got):\n%s", diff)
	}
}

func TestRateLimit_WaitsRetryAfterAndResendsIdenticalRequest(t *testing.T) {
	var calls int32
	var queries []string
	client, rec := newTestClient(t, 1, func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.RawQuery)
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeJSON(w, `{"data": [{"ID": "ok"}]}`)
	})

	resp, err := client.CachedSearch(context.Background(), SearchParameters{Origins: []string{"SFO"}})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls)
	assert.Equal(t, []time.Duration{2 * time.Second}, rec.waits)
	require.Len(t, queries, 2)
	assert.Equal(t, queries[0], queries[1])
	assert.Equal(t, "ok", resp.Data[0].ID)
}

func TestRateLimit_SecondRateLimitIsNotRetriedWithSingleRetryBudget(t *testing.T) {
	var calls int32
	client, rec := newTestClient(t, 1, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.CachedSearch(context.Background(), SearchParameters{})
	require.Error(t, err)
	assert.Equal(t, int32(2), calls)
	assert.Len(t, rec.waits, 1)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
}

func TestRateLimit_BoundedBudget(t *testing.T) {
	var calls int32
	client, rec := newTestClient(t, 3, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.GetRoutes(context.Background(), RouteFilter{})
	require.Error(t, err)
	assert.Equal(t, int32(4), calls)
	assert.Equal(t, []time.Duration{DefaultRetryAfter, DefaultRetryAfter, DefaultRetryAfter}, rec.waits)
}

func TestRateLimit_DisabledWhenNoRetries(t *testing.T) {
	var calls int32
	client, rec := newTestClient(t, 0, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.GetTrips(context.Background(), "abc")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls)
	assert.Empty(t, rec.waits)
}

func TestRateLimit_ContextCancelledDuringWait(t *testing.T) {
	client, _ := newTestClient(t, 3, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	client.sleep = sleepContext
	client.Retry.DefaultDelay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.CachedSearch(ctx, SearchParameters{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPErrorIsReturnedUnchanged(t *testing.T) {
	client, _ := newTestClient(t, 3, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"boom"}`)
	})

	_, err := client.BulkAvailability(context.Background(), BulkAvailabilityParameters{Source: "delta"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, `{"error":"boom"}`, apiErr.Body)
	assert.Contains(t, err.Error(), "status 500")
}

func TestConnectivityFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	base := ts.URL
	ts.Close()

	client, err := NewClient(Options{APIKey: "k", BaseURL: base}, nil, nil)
	require.NoError(t, err)

	_, err = client.GetRoutes(context.Background(), RouteFilter{})
	assert.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestBulkAvailability_AlwaysSendsSource(t *testing.T) {
	var got url.Values
	client, _ := newTestClient(t, 3, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/availability", r.URL.Path)
		got = r.URL.Query()
		writeJSON(w, `{"data": [{"ID": "1"}, {"ID": "2"}], "hasMore": true, "cursor": "next"}`)
	})

	resp, err := client.BulkAvailability(context.Background(), BulkAvailabilityParameters{Source: "united", Cabin: CabinFirst})
	require.NoError(t, err)
	assert.Equal(t, url.Values{"source": {"united"}, "cabin": {"F"}}, got)
	assert.Equal(t, 2, resp.Count)
	assert.True(t, resp.HasMore)
	assert.Equal(t, "next", resp.Cursor)
}

func TestGetTrips(t *testing.T) {
	client, _ := newTestClient(t, 3, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trips/avail 1", r.URL.Path)
		writeJSON(w, `{"data": {"ID": "t1", "FlightNumber": "UA837", "Distance": 5130, "RemainingSeats": 4}}`)
	})

	resp, err := client.GetTrips(context.Background(), "avail 1")
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "UA837", resp.Data[0].FlightNumber)
	require.NotNil(t, resp.Data[0].RemainingSeats)
	assert.Equal(t, 4, *resp.Data[0].RemainingSeats)
	assert.Nil(t, resp.Data[0].MileageCost)
}

func TestGetRoutes(t *testing.T) {
	var got url.Values
	client, _ := newTestClient(t, 3, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		writeJSON(w, `[{"origin": "SFO", "destination": "NRT", "sources": ["aeroplan", "united"], "distance": 5130}]`)
	})

	routes, err := client.GetRoutes(context.Background(), RouteFilter{Origin: "SFO"})
	require.NoError(t, err)
	assert.Equal(t, url.Values{"origin": {"SFO"}}, got)
	require.Len(t, routes, 1)
	assert.Equal(t, []string{"aeroplan", "united"}, routes[0].Sources)
	require.NotNil(t, routes[0].Distance)
	assert.Equal(t, 5130, *routes[0].Distance)
}

func TestLiveSearch(t *testing.T) {
	t.Run("PostsFixedBody", func(t *testing.T) {
		var body map[string]interface{}
		client, _ := newTestClient(t, 3, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/live", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			writeJSON(w, `[{"ID": "t1"}, {"ID": "t2"}]`)
		})

		trips, err := client.LiveSearch(context.Background(), LiveSearchParameters{
			Origin: "SFO", Destination: "NRT", Date: "2026-11-01", Source: "united", Cabin: CabinBusiness,
		})
		require.NoError(t, err)
		assert.Len(t, trips, 2)
		assert.Equal(t, map[string]interface{}{
			"origin": "SFO", "destination": "NRT", "date": "2026-11-01", "source": "united", "cabin": "J",
		}, body)
	})

	t.Run("ForbiddenMapsToTierError", func(t *testing.T) {
		client, _ := newTestClient(t, 3, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})

		_, err := client.LiveSearch(context.Background(), LiveSearchParameters{Origin: "SFO", Destination: "NRT", Date: "2026-11-01", Source: "united"})
		assert.ErrorIs(t, err, ErrLiveSearchForbidden)
	})

	t.Run("OtherErrorsPassThrough", func(t *testing.T) {
		client, _ := newTestClient(t, 3, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.LiveSearch(context.Background(), LiveSearchParameters{})
		assert.False(t, errors.Is(err, ErrLiveSearchForbidden))
		var apiErr *APIError
		assert.True(t, errors.As(err, &apiErr))
	})
}

func TestCachedSearchAll_FollowsCursor(t *testing.T) {
	var cursors []string
	client, _ := newTestClient(t, 3, func(w http.ResponseWriter, r *http.Request) {
		cursor := r.URL.Query().Get("cursor")
		cursors = append(cursors, cursor)
		switch cursor {
		case "":
			writeJSON(w, `{"data": [{"ID": "p1"}], "hasMore": true, "cursor": "c2"}`)
		case "c2":
			writeJSON(w, `{"data": [{"ID": "p2"}, {"ID": "p3"}], "hasMore": true, "cursor": "c3"}`)
		default:
			writeJSON(w, `{"data": [{"ID": "p4"}], "hasMore": false}`)
		}
	})

	resp, err := client.CachedSearchAll(context.Background(), SearchParameters{}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "c2", "c3"}, cursors)
	assert.Equal(t, 4, resp.Count)
	assert.False(t, resp.HasMore)

	cursors = nil
	resp, err = client.CachedSearchAll(context.Background(), SearchParameters{}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "c2"}, cursors)
	assert.Equal(t, 3, resp.Count)
	assert.True(t, resp.HasMore)
	assert.Equal(t, "c3", resp.Cursor)
}
