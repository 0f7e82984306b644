package mealdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"mealhub/internal/metrics"
	"mealhub/pkg/models"
)

// RequestTimeout bounds every MealDB call.
const RequestTimeout = 10 * time.Second

const defaultUserAgent = "mealhub/0.1"

// Fetcher is the read surface of the MealDB API. *Client implements it;
// tests substitute fakes.
type Fetcher interface {
	ListCategories(ctx context.Context) ([]string, error)
	FilterByCategory(ctx context.Context, category string) ([]models.Meal, error)
	LookupByID(ctx context.Context, id string) (*models.Meal, error)
}

var _ Fetcher = (*Client)(nil)

// Client issues single, unretried GET requests against a MealDB base URL.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	limiter   *rate.Limiter
	logger    *zap.Logger
	userAgent string
}

type Option func(*Client)

// WithRateLimit spaces requests to at most rps per second. rps <= 0 disables it.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient replaces the default http.Client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient builds a Client rooted at baseURL, e.g.
// https://www.themealdb.com/api/json/v1/1/.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: RequestTimeout,
		},
		logger:    zap.NewNop(),
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized base the client resolves endpoints against.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

type categoryItem struct {
	Category string `json:"strCategory"`
}

// ListCategories calls list.php?c=list.
func (c *Client) ListCategories(ctx context.Context) ([]string, error) {
	var items []categoryItem
	if err := c.get(ctx, OpListCategories, "list.php", url.Values{"c": {"list"}}, &items); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(items))
	for _, it := range items {
		if name := strings.TrimSpace(it.Category); name != "" {
			out = append(out, name)
		}
	}
	return out, nil
}

// FilterByCategory calls filter.php?c=<category>. The payload only carries
// id, name and thumbnail.
func (c *Client) FilterByCategory(ctx context.Context, category string) ([]models.Meal, error) {
	var raw []rawMeal
	if err := c.get(ctx, OpFilterByCategory, "filter.php", url.Values{"c": {category}}, &raw); err != nil {
		return nil, err
	}

	out := make([]models.Meal, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.toMeal())
	}
	return out, nil
}

// LookupByID calls lookup.php?i=<id>. A nil meal with a nil error means the
// API knows no such id.
func (c *Client) LookupByID(ctx context.Context, id string) (*models.Meal, error) {
	var raw []rawMeal
	if err := c.get(ctx, OpLookupByID, "lookup.php", url.Values{"i": {id}}, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	m := raw[0].toMeal()
	m.Detail = raw[0].toDetail()
	return &m, nil
}

// envelope is the {"meals": ...} wrapper every endpoint answers with.
type envelope struct {
	Meals json.RawMessage `json:"meals"`
}

func (c *Client) get(ctx context.Context, op, endpoint string, params url.Values, dest any) (err error) {
	reqURL := c.baseURL.ResolveReference(&url.URL{Path: endpoint, RawQuery: params.Encode()})
	target := reqURL.String()

	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.RecordRequest(op, status, time.Since(start).Seconds())
		c.logger.Debug("mealdb request",
			zap.String("op", op),
			zap.String("url", target),
			zap.Duration("took", time.Since(start)),
			zap.Error(err),
		)
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &RequestError{Op: op, URL: target, Err: fmt.Errorf("rate limit: %w", err)}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return &RequestError{Op: op, URL: target, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return &RequestError{Op: op, URL: target, Err: fmt.Errorf("do request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &RequestError{
			Op:         op,
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &RequestError{Op: op, URL: target, Err: fmt.Errorf("decode response: %w", err)}
	}

	// {"meals": null} and the API's occasional string placeholders are the
	// empty result, not a failure.
	if !isJSONArray(env.Meals) {
		return nil
	}
	if err := json.Unmarshal(env.Meals, dest); err != nil {
		return &RequestError{Op: op, URL: target, Err: fmt.Errorf("decode meals: %w", err)}
	}
	return nil
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return strings.HasPrefix(trimmed, "[")
}

func parseBaseURL(base string) (*url.URL, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		return nil, fmt.Errorf("mealdb base url is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse mealdb base url %q: %w", base, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("mealdb base url %q has no host", base)
	}
	// Endpoints resolve relative to the base, so it must end in a slash.
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
