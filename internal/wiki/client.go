// Package wiki is a client for the MediaWiki action API, used as the
// knowledge source for entity summaries and thumbnails.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/contextrt/internal/services"
)

const (
	// DefaultEndpoint is the English Wikipedia action API.
	DefaultEndpoint  = "https://en.wikipedia.org/w/api.php"
	defaultUserAgent = "contextrt/0.1 (https://github.com/abelbrown/contextrt)"
	thumbnailSize    = 200
	maxBodyBytes     = 4 << 20
)

// Page is the subset of page details used for enrichment.
type Page struct {
	ID        int
	Title     string
	Extract   string // plain-text intro, may be empty
	Thumbnail string // thumbnail URL, may be empty
}

// Client talks to the MediaWiki API. Safe for concurrent use.
type Client struct {
	endpoint  string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	backoffs  []time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithEndpoint overrides the API endpoint (tests point this at httptest).
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithRateLimit sets requests per second and burst. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetryBackoff sets the delay before each retry; its length is the retry count.
func WithRetryBackoff(delays ...time.Duration) Option {
	return func(c *Client) {
		c.backoffs = delays
	}
}

// NewClient creates a Client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		endpoint:  DefaultEndpoint,
		userAgent: defaultUserAgent,
		client:    &http.Client{Timeout: 30 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(20), 20),
		backoffs:  []time.Duration{500 * time.Millisecond, 1500 * time.Millisecond},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	Query *struct {
		Search []struct {
			PageID int    `json:"pageid"`
			Title  string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

// Search returns the page id of the first search hit for term.
// A response without hits is ErrNotFound.
func (c *Client) Search(ctx context.Context, term string) (int, error) {
	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {term},
		"format":   {"json"},
	}
	body, err := c.get(ctx, "search", params)
	if err != nil {
		return 0, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, services.Wrap(services.ErrMalformed, "wiki", "search", "decode", err)
	}
	if resp.Query == nil || len(resp.Query.Search) == 0 {
		return 0, services.Wrap(services.ErrNotFound, "wiki", "search", fmt.Sprintf("no results for %q", term), nil)
	}
	return resp.Query.Search[0].PageID, nil
}

type detailsResponse struct {
	Query *struct {
		Pages map[string]struct {
			PageID    int    `json:"pageid"`
			Title     string `json:"title"`
			Extract   string `json:"extract"`
			Thumbnail *struct {
				Source string `json:"source"`
			} `json:"thumbnail"`
		} `json:"pages"`
	} `json:"query"`
}

// Details fetches the intro extract and thumbnail for a page.
// A response that does not contain the requested page is ErrMalformed.
func (c *Client) Details(ctx context.Context, pageID int) (Page, error) {
	id := strconv.Itoa(pageID)
	params := url.Values{
		"action":      {"query"},
		"prop":        {"extracts|pageimages"},
		"exintro":     {"true"},
		"explaintext": {"true"},
		"pithumbsize": {strconv.Itoa(thumbnailSize)},
		"pageids":     {id},
		"format":      {"json"},
	}
	body, err := c.get(ctx, "details", params)
	if err != nil {
		return Page{}, err
	}

	var resp detailsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Page{}, services.Wrap(services.ErrMalformed, "wiki", "details", "decode", err)
	}
	if resp.Query == nil || resp.Query.Pages == nil {
		return Page{}, services.Wrap(services.ErrMalformed, "wiki", "details", "missing pages", nil)
	}
	raw, ok := resp.Query.Pages[id]
	if !ok {
		return Page{}, services.Wrap(services.ErrMalformed, "wiki", "details", "page "+id+" absent", nil)
	}

	page := Page{ID: pageID, Title: raw.Title, Extract: raw.Extract}
	if raw.Thumbnail != nil {
		page.Thumbnail = raw.Thumbnail.Source
	}
	return page, nil
}

// get performs a rate-limited GET. Any 2xx is success; 429 and 5xx are retried.
func (c *Client) get(ctx context.Context, op string, params url.Values) ([]byte, error) {
	reqURL := c.endpoint + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt <= len(c.backoffs); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, services.Wrap(services.ErrTransport, "wiki", op, "cancelled during retry", ctx.Err())
			case <-time.After(c.backoffs[attempt-1]):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, services.Wrap(services.ErrTransport, "wiki", op, "rate limiter", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, services.Wrap(services.ErrTransport, "wiki", op, "create request", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, services.Wrap(services.ErrTransport, "wiki", op, "request failed", err)
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		resp.Body.Close()
		if err != nil {
			return nil, services.Wrap(services.ErrTransport, "wiki", op, "read body", err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		statusErr := &services.StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		lastErr = services.Wrap(services.ErrTransport, "wiki", op, "", statusErr)
		if !statusErr.Retryable() {
			return nil, lastErr
		}
	}
	return nil, lastErr
}
