package vastai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"vastai-scraper/config"
	"vastai-scraper/models"
	"vastai-scraper/utils"
)

const (
	defaultBaseDelay = 300 * time.Millisecond
	maxErrorBody     = 512
)

// retryStatuses are the responses worth another attempt.
var retryStatuses = map[int]struct{}{
	http.StatusRequestTimeout:      {},
	http.StatusTooManyRequests:     {},
	http.StatusInternalServerError: {},
	http.StatusBadGateway:          {},
	http.StatusServiceUnavailable:  {},
	http.StatusGatewayTimeout:      {},
}

// StatusError is returned for any non-2xx marketplace response.
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("vastai: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("vastai: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the status is in the transient set.
func (e *StatusError) Retryable() bool {
	_, ok := retryStatuses[e.StatusCode]
	return ok
}

type offersResponse struct {
	Offers []models.Offer `json:"offers"`
}

// Client queries the vast.ai bundles endpoint.
type Client struct {
	baseURL    string
	userAgent  string
	query      config.Query
	httpClient *http.Client
	retry      *utils.RetryConfig
	logger     utils.Logger
}

// Options tunes a Client. Zero values fall back to the production defaults.
type Options struct {
	BaseURL    string
	UserAgent  string
	Query      config.Query
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	HTTPClient *http.Client
}

// OptionsFromConfig maps the application config onto client options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BaseURL:    cfg.BaseURL,
		UserAgent:  cfg.UserAgent,
		Query:      cfg.Query,
		Timeout:    cfg.RequestTimeout,
		MaxRetries: cfg.MaxRetries,
		MaxDelay:   cfg.RetryBackoffCap,
	}
}

// New creates a ready-to-use marketplace Client.
func New(opts Options, logger utils.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = config.DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = defaultBaseDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 10 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	logger = logger.With(utils.Fields{"component": "vastai"})

	return &Client{
		baseURL:    opts.BaseURL,
		userAgent:  opts.UserAgent,
		query:      opts.Query,
		httpClient: httpClient,
		logger:     logger,
		retry: &utils.RetryConfig{
			MaxRetries:  opts.MaxRetries,
			BaseDelay:   opts.BaseDelay,
			MaxDelay:    opts.MaxDelay,
			Logger:      logger,
			ShouldRetry: shouldRetry,
			DelayHint:   retryAfter,
		},
	}
}

// FetchOffers returns the offers currently listed for the given type.
// A response without an offers field yields an empty slice.
func (c *Client) FetchOffers(ctx context.Context, listingType models.ListingType) ([]models.Offer, error) {
	q, err := BuildQuery(c.query, listingType).Encode()
	if err != nil {
		return nil, err
	}

	reqURL, err := c.searchURL(q)
	if err != nil {
		return nil, err
	}

	var body []byte
	err = c.retry.Do(ctx, "fetch "+string(listingType)+" offers", func() error {
		b, err := c.get(ctx, reqURL)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var resp offersResponse
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("vastai: decode offers: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("vastai: decode offers: trailing data after JSON body")
	}
	if resp.Offers == nil {
		return []models.Offer{}, nil
	}
	return resp.Offers, nil
}

func (c *Client) searchURL(q string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("vastai: parse base url: %w", err)
	}
	params := u.Query()
	params.Set("q", q)
	u.RawQuery = params.Encode()
	return u.String(), nil
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("vastai: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vastai: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("vastai: read body: %w", err)
	}
	return body, nil
}

// shouldRetry retries the transient status set and network failures, but not
// timeouts or cancellation.
func shouldRetry(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return false
	}
	return true
}

func retryAfter(err error) (time.Duration, bool) {
	var se *StatusError
	if !errors.As(err, &se) || se.RetryAfter <= 0 {
		return 0, false
	}
	switch se.StatusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return se.RetryAfter, true
	}
	return 0, false
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
