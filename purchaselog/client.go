package purchaselog

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

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/rs/zerolog"
)

// ErrAppend marks every failure returned by Append.
var ErrAppend = errors.New("purchaselog: append")

const insertSQL = "INSERT INTO item_price (data) VALUES (?)"

// Client writes purchase records to a libSQL server.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	logger     zerolog.Logger

	retrier retry.Retry[struct{}]
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-attempt HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithMaxRetries sets how many times a failed request is retried. Negative
// values mean no retries.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithBaseDelay sets the first backoff delay; later delays double. Zero
// falls back to the retry package default of 100ms.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = d
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l.With().Str("component", "purchaselog").Logger()
	}
}

// New creates a client for the database at rawURL. libsql:// URLs are
// rewritten to https://.
func New(rawURL, token string, opts ...Option) (*Client, error) {
	endpoint, err := pipelineURL(rawURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		endpoint:   endpoint,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		maxRetries: 3,
		baseDelay:  500 * time.Millisecond,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.retrier = retry.New[struct{}](retry.Config{
		MaxAttempts:   max(c.maxRetries, 0) + 1,
		InitialDelay:  c.baseDelay,
		Multiplier:    2,
		BackoffPolicy: retry.BackoffExponential,
		IsRetryable: func(err error) bool {
			var re *retryableError
			return errors.As(err, &re)
		},
		OnRetry: func(attempt int, err error) {
			c.logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Msg("Retrying purchase log append")
		},
	})
	return c, nil
}

func pipelineURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing purchase log url: %w", err)
	}
	switch u.Scheme {
	case "libsql", "wss":
		u.Scheme = "https"
	case "ws":
		u.Scheme = "http"
	case "http", "https":
	default:
		return "", fmt.Errorf("purchase log url %q: unsupported scheme %q", rawURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("purchase log url %q: missing host", rawURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/v2/pipeline"
	return u.String(), nil
}

type pipelineRequest struct {
	Requests []streamRequest `json:"requests"`
}

type streamRequest struct {
	Type string     `json:"type"`
	Stmt *statement `json:"stmt,omitempty"`
}

type statement struct {
	SQL  string  `json:"sql"`
	Args []value `json:"args,omitempty"`
}

type value struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type pipelineResponse struct {
	Results []struct {
		Type  string `json:"type"`
		Error *struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	} `json:"results"`
}

// Append inserts blob as the data column of a new item_price row.
func (c *Client) Append(ctx context.Context, blob string) error {
	body, err := json.Marshal(pipelineRequest{Requests: []streamRequest{
		{Type: "execute", Stmt: &statement{SQL: insertSQL, Args: []value{{Type: "text", Value: blob}}}},
		{Type: "close"},
	}})
	if err != nil {
		return fmt.Errorf("%w: encoding request: %v", ErrAppend, err)
	}

	// A 429 with Retry-After delays the next attempt by at least that long,
	// on top of the regular backoff.
	var retryAfter time.Duration
	_, err = c.retrier.Do(ctx, func(ctx context.Context) (struct{}, error) {
		if retryAfter > 0 {
			if err := sleep(ctx, retryAfter); err != nil {
				return struct{}{}, err
			}
			retryAfter = 0
		}

		err := c.do(ctx, body)
		var re *retryableError
		if errors.As(err, &re) {
			retryAfter = re.retryAfter
		}
		return struct{}{}, err
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAppend, unwrapRetryable(err))
	}

	c.logger.Debug().Msg("Purchase recorded")
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) do(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &retryableError{err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &retryableError{err: err}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &retryableError{
			err:        fmt.Errorf("status %d", resp.StatusCode),
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	case resp.StatusCode >= 500:
		return &retryableError{err: fmt.Errorf("status %d: %s", resp.StatusCode, snippet(data))}
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("status %d: %s", resp.StatusCode, snippet(data))
	}

	var pr pipelineResponse
	if err := json.Unmarshal(data, &pr); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if len(pr.Results) == 0 {
		return errors.New("empty pipeline response")
	}
	for _, r := range pr.Results {
		if r.Type == "error" && r.Error != nil {
			return fmt.Errorf("%s (%s)", r.Error.Message, r.Error.Code)
		}
	}
	return nil
}

type retryableError struct {
	err        error
	retryAfter time.Duration
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func unwrapRetryable(err error) error {
	var re *retryableError
	if errors.As(err, &re) {
		return re.err
	}
	return err
}

func parseRetryAfter(v string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func snippet(b []byte) string {
	const max = 200
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}
