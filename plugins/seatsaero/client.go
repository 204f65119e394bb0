package seatsaero

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/firebase/genkit/go/genkit"
	"github.com/va6996/seatsaero-mcp/log"
	"github.com/va6996/seatsaero-mcp/tools"
	"golang.org/x/time/rate"
)

const (
	BaseURL = "https://seats.aero/partnerapi"

	DefaultTimeout     = 30 * time.Second
	DefaultResultLimit = 10
)

// ErrLiveSearchForbidden is returned when the key lacks the commercial tier
// that the live search endpoint requires
var ErrLiveSearchForbidden = errors.New("live search requires a commercial agreement with Seats.aero; Pro users cannot access this endpoint")

// APIError is a non-2xx response from seats.aero
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("API request failed with status %d (%s)", e.StatusCode, http.StatusText(e.StatusCode))
	if body := strings.TrimSpace(e.Body); body != "" {
		if len(body) > 200 {
			body = body[:200] + "..."
		}
		msg += ": " + body
	}
	return msg
}

// Options configures a Client. Zero values take the package defaults,
// except MaxRetries where zero turns rate-limit recovery off.
type Options struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
	ResultLimit       int
}

// Client talks to the seats.aero partner API under one API key
type Client struct {
	apiKey      string
	BaseURL     string
	HTTPClient  *http.Client
	Retry       RetryPolicy
	ResultLimit int
	limiter     *rate.Limiter
	formatter   *Formatter

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewClient creates a seats.aero client and registers its tools
func NewClient(opts Options, gk *genkit.Genkit, registry *tools.Registry) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("seats.aero API key is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = BaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.ResultLimit <= 0 {
		opts.ResultLimit = DefaultResultLimit
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	retry := DefaultRetryPolicy
	retry.MaxRetries = opts.MaxRetries

	c := &Client{
		apiKey:      opts.APIKey,
		BaseURL:     strings.TrimRight(opts.BaseURL, "/"),
		HTTPClient:  &http.Client{Timeout: opts.Timeout},
		Retry:       retry,
		ResultLimit: opts.ResultLimit,
		limiter:     rate.NewLimiter(limit, 1),
		formatter:   NewFormatter(nil),
		sleep:       sleepContext,
		now:         time.Now,
	}

	if err := c.initTools(gk, registry); err != nil {
		return nil, err
	}
	return c, nil
}

// doRequest sends one logical request, re-sending it on 429 within the
// retry budget, and returns the body of the first 2xx response
func (c *Client) doRequest(ctx context.Context, method, endpoint string, query url.Values, body interface{}) ([]byte, error) {
	var reqBody []byte
	if body != nil {
		var err error
		if reqBody, err = json.Marshal(body); err != nil {
			log.Errorf(ctx, "Error setting up request: %v", err)
			return nil, err
		}
	}

	target := c.BaseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var payload io.Reader
		if reqBody != nil {
			payload = bytes.NewReader(reqBody)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, payload)
		if err != nil {
			log.Errorf(ctx, "Error setting up request: %v", err)
			return nil, err
		}
		req.Header.Set("Partner-Authorization", c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		log.Debugf(ctx, "seats.aero %s %s (attempt %d)", method, endpoint, attempt+1)

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			log.Errorf(ctx, "No response received from API: %v", err)
			return nil, err
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			log.Errorf(ctx, "Failed to read API response: %v", err)
			return nil, err
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.Retry.MaxRetries {
			wait := c.Retry.delay(resp, c.now())
			log.Warnf(ctx, "Rate limited on %s. Retrying after %s (retry %d/%d)", endpoint, wait, attempt+1, c.Retry.MaxRetries)
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			apiErr := &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(respBody)}
			log.Errorf(ctx, "API Error: %d - %s", resp.StatusCode, http.StatusText(resp.StatusCode))
			if len(respBody) > 0 {
				log.Errorf(ctx, "Response data: %s", respBody)
			}
			return nil, apiErr
		}

		return respBody, nil
	}
}

// CachedSearch searches cached availability across programs
func (c *Client) CachedSearch(ctx context.Context, params SearchParameters) (*SearchResponse, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/search", params.Query(), nil)
	if err != nil {
		return nil, err
	}
	return searchResponse(body)
}

// CachedSearchAll follows the pagination cursor for up to maxPages requests
// and concatenates the results. The returned cursor and HasMore describe the
// last page fetched.
func (c *Client) CachedSearchAll(ctx context.Context, params SearchParameters, maxPages int) (*SearchResponse, error) {
	if maxPages <= 0 {
		maxPages = 1
	}

	all := &SearchResponse{Data: []Availability{}}
	for i := 0; i < maxPages; i++ {
		resp, err := c.CachedSearch(ctx, params)
		if err != nil {
			return nil, err
		}
		all.Data = append(all.Data, resp.Data...)
		all.Cursor = resp.Cursor
		all.HasMore = resp.HasMore

		if !resp.HasMore || resp.Cursor == "" || resp.Cursor == params.Cursor {
			break
		}
		params.Cursor = resp.Cursor
	}
	all.Count = len(all.Data)
	return all, nil
}

// BulkAvailability sweeps one program's availability
func (c *Client) BulkAvailability(ctx context.Context, params BulkAvailabilityParameters) (*SearchResponse, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/availability", params.Query(), nil)
	if err != nil {
		return nil, err
	}
	return searchResponse(body)
}

// GetTrips returns the flight segments behind one availability
func (c *Client) GetTrips(ctx context.Context, availabilityID string) (*TripResponse, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/trips/"+url.PathEscape(availabilityID), nil, nil)
	if err != nil {
		return nil, err
	}
	p, err := decodePage[AvailabilityTrip](body)
	if err != nil {
		log.Errorf(ctx, "GetTrips: %v", err)
		return nil, err
	}
	return &TripResponse{Data: p.items}, nil
}

// GetRoutes lists routes, optionally filtered by origin and destination
func (c *Client) GetRoutes(ctx context.Context, filter RouteFilter) ([]RouteInfo, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/routes", filter.Query(), nil)
	if err != nil {
		return nil, err
	}
	p, err := decodePage[RouteInfo](body)
	if err != nil {
		log.Errorf(ctx, "GetRoutes: %v", err)
		return nil, err
	}
	return p.items, nil
}

// LiveSearch queries a program directly. It needs a commercial API tier; a
// 403 is reported as ErrLiveSearchForbidden.
func (c *Client) LiveSearch(ctx context.Context, params LiveSearchParameters) ([]AvailabilityTrip, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/live", nil, params)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden {
			return nil, ErrLiveSearchForbidden
		}
		return nil, err
	}
	p, err := decodePage[AvailabilityTrip](body)
	if err != nil {
		log.Errorf(ctx, "LiveSearch: %v", err)
		return nil, err
	}
	return p.items, nil
}

func searchResponse(body []byte) (*SearchResponse, error) {
	p, err := decodePage[Availability](body)
	if err != nil {
		return nil, err
	}
	return &SearchResponse{
		Data:    p.items,
		Cursor:  p.cursor,
		Count:   len(p.items),
		HasMore: p.hasMore,
	}, nil
}
