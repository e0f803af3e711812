package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"rent-portfolio/config"
	"rent-portfolio/utils"
)

// ErrNonRetryable marks fetch failures that another attempt will not fix.
var ErrNonRetryable = errors.New("scraper: non-retryable response")

var errMalformedBody = errors.New("scraper: response body is not valid JSON")

// StatusError is a non-200 response from an endpoint.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.URL, e.StatusCode)
}

// Is reports client errors other than 429 as non-retryable.
func (e *StatusError) Is(target error) bool {
	if target != ErrNonRetryable {
		return false
	}
	return e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != http.StatusTooManyRequests
}

// Fetcher retrieves the raw JSON document behind an endpoint.
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string) ([]byte, error)
}

var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "application/json, text/plain, */*",
	"Accept-Language": "en-US,en;q=0.9",
	"Cache-Control":   "no-cache",
	"Pragma":          "no-cache",
}

// HTTPFetcher fetches endpoints over HTTP with a fixed-delay retry on
// transient failures: network errors, timeouts, 429, 5xx and truncated
// bodies.
type HTTPFetcher struct {
	client *resty.Client
	retry  *utils.RetryConfig
	logger *utils.Logger
}

// NewHTTPFetcher creates an HTTPFetcher from the request timeout and retry
// settings in cfg.
func NewHTTPFetcher(cfg *config.Config, logger *utils.Logger) *HTTPFetcher {
	client := resty.New()
	client.SetHeaders(browserHeaders)
	client.SetTimeout(cfg.RequestTimeout)

	return &HTTPFetcher{
		client: client,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.RetryBound,
			Delay:       cfg.RetryDelay,
			Logger:      logger,
			Retryable:   func(err error) bool { return !errors.Is(err, ErrNonRetryable) },
		},
		logger: logger,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, endpoint string) ([]byte, error) {
	var body []byte

	err := f.retry.Do(ctx, "fetch "+endpoint, func(ctx context.Context) error {
		res, err := f.client.R().SetContext(ctx).Get(endpoint)
		if err != nil {
			return err
		}
		if res.StatusCode() != http.StatusOK {
			return &StatusError{URL: endpoint, StatusCode: res.StatusCode()}
		}
		if !json.Valid(res.Body()) {
			return errMalformedBody
		}
		body = res.Body()
		return nil
	})
	if err != nil {
		return nil, err
	}

	f.logger.Debug("[scraper] Fetched %s (%d bytes)", endpoint, len(body))
	return body, nil
}

// FallbackFetcher retries endpoints that refuse plain HTTP clients (403)
// with a second fetcher, typically a headless browser.
type FallbackFetcher struct {
	primary   Fetcher
	secondary Fetcher
	logger    *utils.Logger
}

func NewFallbackFetcher(primary, secondary Fetcher, logger *utils.Logger) *FallbackFetcher {
	return &FallbackFetcher{primary: primary, secondary: secondary, logger: logger}
}

func (f *FallbackFetcher) Fetch(ctx context.Context, endpoint string) ([]byte, error) {
	body, err := f.primary.Fetch(ctx, endpoint)
	var statusErr *StatusError
	if err == nil || !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusForbidden {
		return body, err
	}

	f.logger.Info("[scraper] %s blocked plain HTTP, retrying in browser", endpoint)
	body, browserErr := f.secondary.Fetch(ctx, endpoint)
	if browserErr != nil {
		return nil, fmt.Errorf("%w; browser fallback: %v", err, browserErr)
	}
	return body, nil
}
