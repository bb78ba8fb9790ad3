// Package fetch is the catalog API client.
//
// Every call goes through a rate limiter and a circuit breaker, carries the
// session and request ids, and maps failures onto the catalog.Error kinds.
// 429 and 5xx answers to catalog reads are retried a bounded number of times
// inside one call; view events are never retried. Beyond that retry is
// manual, by the caller.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/abelbrown/vitrine/internal/catalog"
	"github.com/abelbrown/vitrine/internal/config"
	"github.com/abelbrown/vitrine/internal/logging"
	"github.com/abelbrown/vitrine/internal/metrics"
)

const (
	headerSession = "X-Session-ID"
	headerRequest = "X-Request-ID"
	userAgent     = "vitrine/1.0"
	maxBody       = 10 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL        string
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int
	Retries        int
	Breaker        config.BreakerConfig
	SessionID      string

	// Backoffs between retries. Defaults to 1s, 2s, 4s.
	Backoffs   []time.Duration
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
}

// OptionsFromConfig builds client options from the API config section.
func OptionsFromConfig(cfg config.APIConfig, sessionID string) Options {
	return Options{
		BaseURL:        cfg.BaseURL,
		Timeout:        cfg.Timeout,
		RequestsPerSec: cfg.RequestsPerSec,
		Burst:          cfg.Burst,
		Retries:        cfg.Retries,
		Breaker:        cfg.Breaker,
		SessionID:      sessionID,
	}
}

// lane is the limiter, breaker and retry budget a class of calls runs under.
type lane struct {
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	retries int
}

// Client talks to the catalog API. Catalog reads and view events run in
// separate lanes so a failing tracking endpoint never trips the catalog
// breaker. View events are not retried.
type Client struct {
	base      *url.URL
	client    *http.Client
	api       lane
	views     lane
	validate  *validator.Validate
	sessionID string
	backoffs  []time.Duration
	metrics   *metrics.Metrics
}

// New creates a Client. The base URL must parse.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("fetch: invalid base url %q: %w", opts.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("fetch: base url %q needs scheme and host", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if opts.RequestsPerSec > 0 {
		limit = rate.Limit(opts.RequestsPerSec)
	}
	burst := max(opts.Burst, 1)

	backoffs := opts.Backoffs
	if backoffs == nil {
		backoffs = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
	}

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	return &Client{
		base:      base,
		client:    httpClient,
		api: lane{
			limiter: rate.NewLimiter(limit, burst),
			breaker: newBreaker("catalog-api", opts.Breaker),
			retries: max(opts.Retries, 0),
		},
		views: lane{
			limiter: rate.NewLimiter(limit, burst),
			breaker: newBreaker("view-events", opts.Breaker),
		},
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		sessionID: sessionID,
		backoffs:  backoffs,
		metrics:   opts.Metrics,
	}, nil
}

func newBreaker(name string, cfg config.BreakerConfig) *gobreaker.CircuitBreaker {
	minRequests := cfg.MinRequests
	if minRequests == 0 {
		minRequests = 5
	}
	threshold := cfg.FailureThreshold
	if threshold <= 0 {
		threshold = 0.6
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
		// NotFound is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || catalog.IsNotFound(err)
		},
	})
}

// SessionID returns the id sent with every request.
func (c *Client) SessionID() string {
	return c.sessionID
}

// BreakerState reports the catalog circuit breaker state, for the debug
// overlay.
func (c *Client) BreakerState() string {
	return c.api.breaker.State().String()
}

// ViewBreakerState reports the state of the view-event breaker.
func (c *Client) ViewBreakerState() string {
	return c.views.breaker.State().String()
}

type pagination struct {
	CurrentPage int   `json:"current_page" validate:"gte=1"`
	LastPage    int   `json:"last_page" validate:"gte=1"`
	PerPage     int   `json:"per_page" validate:"gte=1"`
	Total       int   `json:"total" validate:"gte=0"`
	HasMore     *bool `json:"has_more"`
}

type listResponse struct {
	Items      []catalog.Item `json:"items" validate:"dive"`
	Pagination *pagination    `json:"pagination" validate:"required"`
	ViewedIDs  []int64        `json:"viewedIds,omitempty"`
}

type itemResponse struct {
	Item *catalog.Item `json:"item"`
}

type facetResponse struct {
	Tags []catalog.Tag `json:"tags" validate:"dive"`
}

type viewEvent struct {
	ItemID int64 `json:"itemId"`
}

// ListPage fetches one page of the catalog for scope and key.
//
// The platform filter is omitted when it is "all" and the query when it is
// empty. A facet scope adds its own parameter; a platform scope overrides the
// platform filter.
func (c *Client) ListPage(ctx context.Context, scope catalog.Scope, key catalog.FilterKey, page, perPage int) (*catalog.Page, error) {
	const op = "list page"
	key = key.Normalize()

	q := url.Values{}
	if key.Platform != catalog.AllPlatforms {
		q.Set("platform", key.Platform)
	}
	if key.Query != "" {
		q.Set("q", key.Query)
	}
	if !scope.IsRoot() {
		q.Set(string(scope.Facet), scope.Slug)
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	var resp listResponse
	if err := c.do(ctx, &c.api, op, http.MethodGet, c.endpoint(q, "catalog"), nil, &resp); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(resp); err != nil {
		return nil, catalog.NewError(catalog.KindMalformed, op, err)
	}

	p := resp.Pagination
	if p.CurrentPage != page {
		return nil, catalog.NewError(catalog.KindMalformed, op,
			fmt.Errorf("asked for page %d, got %d", page, p.CurrentPage))
	}
	// has_more is derived from the page numbers; the flag is advisory.
	hasMore := p.CurrentPage < p.LastPage
	if p.HasMore != nil && *p.HasMore != hasMore {
		logging.Debug("has_more disagrees with page numbers",
			"has_more", *p.HasMore, "current", p.CurrentPage, "last", p.LastPage)
	}

	items := make([]catalog.Item, len(resp.Items))
	for i, it := range resp.Items {
		items[i] = it.Normalize()
	}
	cursor := catalog.PageCursor{
		CurrentPage: p.CurrentPage,
		LastPage:    p.LastPage,
		PageSize:    p.PerPage,
		Total:       p.Total,
		HasMore:     hasMore,
	}
	if err := cursor.Check(0); err != nil {
		return nil, catalog.NewError(catalog.KindMalformed, op, err)
	}
	return &catalog.Page{Items: items, Cursor: cursor, ViewedIDs: resp.ViewedIDs}, nil
}

// GetItem fetches a single item by slug. A 404 or an empty item body is
// reported as KindNotFound.
func (c *Client) GetItem(ctx context.Context, slug string) (*catalog.Item, error) {
	const op = "get item"
	if strings.TrimSpace(slug) == "" {
		return nil, catalog.NewError(catalog.KindNotFound, op, errors.New("empty slug"))
	}

	var resp itemResponse
	if err := c.do(ctx, &c.api, op, http.MethodGet, c.endpoint(nil, "catalog", "item", slug), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Item == nil {
		return nil, catalog.NewError(catalog.KindNotFound, op, fmt.Errorf("no item for slug %q", slug))
	}
	if err := c.validate.Struct(resp.Item); err != nil {
		return nil, catalog.NewError(catalog.KindMalformed, op, err)
	}
	item := resp.Item.Normalize()
	return &item, nil
}

// ListFacet fetches the tag directory of one facet.
func (c *Client) ListFacet(ctx context.Context, facet catalog.Facet) ([]catalog.Tag, error) {
	const op = "list facet"
	if !facet.Valid() {
		return nil, catalog.NewError(catalog.KindMalformed, op, fmt.Errorf("unknown facet %q", facet))
	}

	var resp facetResponse
	if err := c.do(ctx, &c.api, op, http.MethodGet, c.endpoint(nil, "catalog", "facets", string(facet)), nil, &resp); err != nil {
		return nil, err
	}
	if err := c.validate.Struct(resp); err != nil {
		return nil, catalog.NewError(catalog.KindMalformed, op, err)
	}
	return resp.Tags, nil
}

// PostViewEvent reports that the session viewed an item. The response body
// is ignored.
func (c *Client) PostViewEvent(ctx context.Context, itemID int64) error {
	body, err := json.Marshal(viewEvent{ItemID: itemID})
	if err != nil {
		return fmt.Errorf("fetch: encode view event: %w", err)
	}
	return c.do(ctx, &c.views, "post view event", http.MethodPost, c.endpoint(nil, "view-events"), body, nil)
}

func (c *Client) endpoint(q url.Values, segments ...string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/")
	for _, s := range segments {
		u.Path += "/" + s
	}
	u.RawPath = ""
	if q != nil {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// do runs one API call through the lane's breaker and decodes a 2xx JSON body
// into out when out is non-nil.
func (c *Client) do(ctx context.Context, l *lane, op, method, target string, body []byte, out any) error {
	start := time.Now()
	defer func() { c.metrics.ObserveRequest(op, time.Since(start).Seconds()) }()

	data, err := l.breaker.Execute(func() (any, error) {
		return c.doWithRetry(ctx, l, op, method, target, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return catalog.NewError(catalog.KindNetwork, op, err)
		}
		var ce *catalog.Error
		if errors.As(err, &ce) {
			return ce
		}
		return catalog.NewError(catalog.KindNetwork, op, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data.([]byte), out); err != nil {
		return catalog.NewError(catalog.KindMalformed, op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// doWithRetry executes the request, retrying 429 and 5xx answers with
// backoff. On 429 a Retry-After header in seconds is honored.
func (c *Client) doWithRetry(ctx context.Context, l *lane, op, method, target string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= l.retries; attempt++ {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, catalog.NewError(catalog.KindNetwork, op, fmt.Errorf("rate limiter wait: %w", err))
		}

		data, status, retryAfter, err := c.roundTrip(ctx, method, target, body)
		if err != nil {
			if ctx.Err() != nil {
				return nil, catalog.NewError(catalog.KindNetwork, op, fmt.Errorf("request cancelled: %w", ctx.Err()))
			}
			return nil, catalog.NewError(catalog.KindNetwork, op, fmt.Errorf("request failed: %w", err))
		}

		switch {
		case status >= 200 && status < 300:
			return data, nil
		case status == http.StatusNotFound:
			return nil, catalog.NewError(catalog.KindNotFound, op, fmt.Errorf("status %d", status))
		}

		lastErr = catalog.NewError(catalog.KindNetwork, op,
			fmt.Errorf("status %d: %s", status, truncate(strings.TrimSpace(string(data)), 200)))
		retryable := status == http.StatusTooManyRequests || status >= 500
		if !retryable || attempt == l.retries {
			break
		}

		delay := c.backoff(attempt)
		if retryAfter > 0 {
			delay = retryAfter
		}
		select {
		case <-ctx.Done():
			return nil, catalog.NewError(catalog.KindNetwork, op, fmt.Errorf("request cancelled during retry: %w", ctx.Err()))
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

func (c *Client) backoff(attempt int) time.Duration {
	if len(c.backoffs) == 0 {
		return 0
	}
	if attempt >= len(c.backoffs) {
		return c.backoffs[len(c.backoffs)-1]
	}
	return c.backoffs[attempt]
}

func (c *Client) roundTrip(ctx context.Context, method, target string, body []byte) ([]byte, int, time.Duration, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(headerSession, c.sessionID)
	req.Header.Set(headerRequest, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("read response: %w", err)
	}

	var retryAfter time.Duration
	if resp.StatusCode == http.StatusTooManyRequests {
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			retryAfter = time.Duration(secs) * time.Second
		}
	}
	return data, resp.StatusCode, retryAfter, nil
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
