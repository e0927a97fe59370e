package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/pfrederiksen/ikoma-events/internal/document"
)

const (
	ListURL   = "https://www.city.ikoma.lg.jp/event2/event_list.php"
	UserAgent = "ikoma-events/1.0 (github.com/pfrederiksen/ikoma-events)"
	Timeout   = 30 * time.Second

	// DefaultInterval is the courtesy delay between two requests
	DefaultInterval   = time.Second
	DefaultMaxRetries = 2
	DefaultRetryWait  = 500 * time.Millisecond
)

// ErrEmptyURL is returned when Fetch is called without a URL
var ErrEmptyURL = errors.New("empty URL")

// Fetcher retrieves and parses one HTML page
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, params url.Values) (document.Node, error)
}

// StatusError reports a non-200 response
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.URL)
}

// Temporary reports whether the request may succeed when retried
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ClientOptions configures a Client. Zero values select the defaults,
// except Interval where zero disables rate limiting.
type ClientOptions struct {
	Timeout    time.Duration
	UserAgent  string
	Interval   time.Duration
	Burst      int
	MaxRetries int
	RetryWait  time.Duration
}

// DefaultClientOptions returns the options used against the live site
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		Timeout:    Timeout,
		UserAgent:  UserAgent,
		Interval:   DefaultInterval,
		Burst:      1,
		MaxRetries: DefaultMaxRetries,
		RetryWait:  DefaultRetryWait,
	}
}

// Client fetches pages from the calendar site. It is safe for concurrent use;
// all goroutines share one rate limiter.
type Client struct {
	client     *http.Client
	userAgent  string
	limiter    *rate.Limiter
	maxRetries int
	retryWait  time.Duration
}

// NewClient creates a new Client
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = Timeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = UserAgent
	}
	if opts.Burst < 1 {
		opts.Burst = 1
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = DefaultRetryWait
	}

	limit := rate.Inf
	if opts.Interval > 0 {
		limit = rate.Every(opts.Interval)
	}

	return &Client{
		client: &http.Client{
			Timeout: opts.Timeout,
		},
		userAgent:  opts.UserAgent,
		limiter:    rate.NewLimiter(limit, opts.Burst),
		maxRetries: opts.MaxRetries,
		retryWait:  opts.RetryWait,
	}
}

// Fetch GETs rawURL with params merged into its query and parses the body.
//
// Each attempt first waits for a rate limiter token. Network errors, 429 and
// 5xx responses are retried with exponential backoff up to the configured
// limit. Once started, a request runs to completion even if ctx is cancelled,
// bounded by the client timeout; ctx only stops new attempts.
func (c *Client) Fetch(ctx context.Context, rawURL string, params url.Values) (document.Node, error) {
	if rawURL == "" {
		return nil, ErrEmptyURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing URL: %w", err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			q[k] = vs
		}
		u.RawQuery = q.Encode()
	}
	target := u.String()

	var body []byte
	operation := func() error {
		if err := c.wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		data, err := c.get(context.WithoutCancel(ctx), target)
		if err != nil {
			var statusErr *StatusError
			if errors.As(err, &statusErr) && !statusErr.Temporary() {
				return backoff.Permanent(err)
			}
			return err
		}
		body = data
		return nil
	}

	if err := backoff.Retry(operation, c.backOff(ctx)); err != nil {
		return nil, err
	}

	return document.Parse(bytes.NewReader(body))
}

// wait blocks until the limiter grants a token or ctx is done. Unlike
// rate.Limiter.Wait it does not fail early when the token would arrive after
// the deadline, so callers always see ctx.Err() on cancellation.
func (c *Client) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r := c.limiter.Reserve()
	if !r.OK() {
		return errors.New("rate limiter cannot grant a token")
	}
	delay := r.Delay()
	if delay == 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}

func (c *Client) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryWait
	b.MaxInterval = 10 * c.retryWait
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx)
}

// get performs one request and returns the body decoded to UTF-8
func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: target, StatusCode: resp.StatusCode}
	}

	r, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decoding body: %w", err))
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return data, nil
}
