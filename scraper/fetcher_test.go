package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rent-portfolio/config"
	"rent-portfolio/utils"
)

func testConfig() *config.Config {
	return &config.Config{
		ConcurrencyLimit: 3,
		RetryBound:       3,
		RetryDelay:       time.Millisecond,
		RequestTimeout:   2 * time.Second,
	}
}

// flakyServer fails the first failures requests with status, then serves body.
func flakyServer(t *testing.T, failures int32, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n <= failures {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestFetchSendsBrowserHeaders(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(`{"units": []}`))
	}))
	defer srv.Close()

	body, err := NewHTTPFetcher(testConfig(), utils.NewNopLogger()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.JSONEq(t, `{"units": []}`, string(body))
	assert.Contains(t, gotUA, "Mozilla/5.0")
	assert.Equal(t, "application/json, text/plain, */*", gotAccept)
}

func TestFetchRetriesTransientStatus(t *testing.T) {
	srv, calls := flakyServer(t, 2, http.StatusServiceUnavailable, `{"data": {}}`)

	body, err := NewHTTPFetcher(testConfig(), utils.NewNopLogger()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, `{"data": {}}`, string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestFetchGivesUpAfterRetryBound(t *testing.T) {
	srv, calls := flakyServer(t, 10, http.StatusTooManyRequests, `{}`)

	_, err := NewHTTPFetcher(testConfig(), utils.NewNopLogger()).Fetch(context.Background(), srv.URL)
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	srv, calls := flakyServer(t, 10, http.StatusNotFound, `{}`)

	_, err := NewHTTPFetcher(testConfig(), utils.NewNopLogger()).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrNonRetryable)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestFetchRetriesMalformedBody(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			_, _ = w.Write([]byte(`{"data": {"units": [`))
			return
		}
		_, _ = w.Write([]byte(`{"data": {"units": []}}`))
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(testConfig(), utils.NewNopLogger()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

type stubFetcher struct {
	bodies map[string]string
	errs   map[string]error
	calls  int32
}

func (s *stubFetcher) Fetch(_ context.Context, endpoint string) ([]byte, error) {
	atomic.AddInt32(&s.calls, 1)
	if err, ok := s.errs[endpoint]; ok {
		return nil, err
	}
	return []byte(s.bodies[endpoint]), nil
}

func TestFallbackOnlyOnForbidden(t *testing.T) {
	primary := &stubFetcher{errs: map[string]error{
		"https://a": &StatusError{URL: "https://a", StatusCode: http.StatusForbidden},
		"https://b": &StatusError{URL: "https://b", StatusCode: http.StatusNotFound},
	}}
	browser := &stubFetcher{bodies: map[string]string{"https://a": `{"units": []}`, "https://b": `{}`}}
	f := NewFallbackFetcher(primary, browser, utils.NewNopLogger())

	body, err := f.Fetch(context.Background(), "https://a")
	require.NoError(t, err)
	assert.Equal(t, `{"units": []}`, string(body))

	_, err = f.Fetch(context.Background(), "https://b")
	assert.ErrorIs(t, err, ErrNonRetryable)
	assert.Equal(t, int32(1), atomic.LoadInt32(&browser.calls))
}

func TestFallbackReportsBothErrors(t *testing.T) {
	primary := &stubFetcher{errs: map[string]error{
		"https://a": &StatusError{URL: "https://a", StatusCode: http.StatusForbidden},
	}}
	browser := &stubFetcher{errs: map[string]error{"https://a": errors.New("chrome not found")}}

	_, err := NewFallbackFetcher(primary, browser, utils.NewNopLogger()).Fetch(context.Background(), "https://a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.Contains(t, err.Error(), "chrome not found")
}
