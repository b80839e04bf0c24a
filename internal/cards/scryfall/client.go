// Package scryfall is a rate limited client for the Scryfall card API.
package scryfall

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public Scryfall API root.
	DefaultBaseURL = "https://api.scryfall.com"

	// MaxBatchSize is the Scryfall limit for identifiers per collection request.
	MaxBatchSize = 75
)

// Options configures a Client.
type Options struct {
	BaseURL        string
	UserAgent      string
	RateLimit      time.Duration // minimum spacing between requests
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	HTTPClient     *http.Client
}

// DefaultOptions returns the options used against the public API
// (10 requests per second, three retries with exponential backoff).
func DefaultOptions() Options {
	return Options{
		BaseURL:        DefaultBaseURL,
		UserAgent:      "DeckAnalyst/1.0",
		RateLimit:      100 * time.Millisecond,
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		InitialBackoff: time.Second,
		MaxBackoff:     16 * time.Second,
	}
}

// Client represents a Scryfall API client with rate limiting.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	opts        Options
}

// NewClient creates a new Scryfall API client. Zero fields in opts fall
// back to DefaultOptions.
func NewClient(opts Options) *Client {
	def := DefaultOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = def.BaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = def.RateLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = def.InitialBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = def.MaxBackoff
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		httpClient:  httpClient,
		rateLimiter: rate.NewLimiter(rate.Every(opts.RateLimit), 1),
		opts:        opts,
	}
}

// GetCardByName fetches a card by exact name via /cards/named.
// A missing card yields a *NotFoundError.
func (c *Client) GetCardByName(ctx context.Context, name string) (*Card, error) {
	endpoint := fmt.Sprintf("%s/cards/named?exact=%s", c.opts.BaseURL, url.QueryEscape(name))

	var card Card
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &card); err != nil {
		return nil, fmt.Errorf("failed to get card %q: %w", name, err)
	}
	return &card, nil
}

// GetCardsByNames fetches cards through /cards/collection in chunks of
// MaxBatchSize. When a chunk fails the cards gathered from earlier chunks
// are still returned together with the error, so callers can keep them.
func (c *Client) GetCardsByNames(ctx context.Context, names []string) ([]Card, []string, error) {
	if len(names) == 0 {
		return []Card{}, nil, nil
	}

	var allCards []Card
	var allNotFound []string

	for i := 0; i < len(names); i += MaxBatchSize {
		end := min(i+MaxBatchSize, len(names))

		identifiers := make([]CardIdentifier, 0, end-i)
		for _, name := range names[i:end] {
			identifiers = append(identifiers, CardIdentifier{Name: name})
		}

		var resp CollectionResponse
		body := CollectionRequest{Identifiers: identifiers}
		if err := c.doRequest(ctx, http.MethodPost, c.opts.BaseURL+"/cards/collection", body, &resp); err != nil {
			return allCards, allNotFound, fmt.Errorf("failed to fetch batch %d-%d: %w", i, end, err)
		}

		allCards = append(allCards, resp.Data...)
		for _, nf := range resp.NotFound {
			allNotFound = append(allNotFound, nf.Name)
		}
	}

	return allCards, allNotFound, nil
}

// doRequest performs an HTTP request with rate limiting and retry logic.
// Network errors, 429 and 5xx responses are retried with exponential backoff.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, payload, result any) error {
	var encoded []byte
	if payload != nil {
		var err error
		if encoded, err = json.Marshal(payload); err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	var lastErr error
	backoff := c.opts.InitialBackoff

	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, backoff); err != nil {
				return err
			}
			backoff = min(backoff*2, c.opts.MaxBackoff)
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		var body io.Reader
		if encoded != nil {
			body = bytes.NewReader(encoded)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		req.Header.Set("Accept", "application/json")
		if encoded != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", readErr)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("failed to parse JSON response: %w", err)
			}
			return nil

		case resp.StatusCode == http.StatusNotFound:
			return &NotFoundError{URL: endpoint}

		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("rate limited (HTTP 429)")
			if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
				backoff = time.Duration(secs) * time.Second
			}

		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error (HTTP %d)", resp.StatusCode)

		default:
			var apiErr APIError
			if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Details != "" {
				if apiErr.Status == 0 {
					apiErr.Status = resp.StatusCode
				}
				return &apiErr
			}
			return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
