package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	"nhkeasy/internal/config"
	"nhkeasy/internal/logger"
	"nhkeasy/internal/metrics"
	"nhkeasy/pkg/utils"
)

// Upstream errors.
var (
	ErrAuthentication       = errors.New("authentication failed")
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrResponseTooLarge     = errors.New("response body too large")
)

// defaultMaxBodyBytes caps a single upstream response.
const defaultMaxBodyBytes = 8 << 20

// authParams are the fixed locale/region parameters of the authorization request.
var authParams = url.Values{
	"idp":         {"a-alaz"},
	"profileType": {"abroad"},
	"entity":      {"none"},
	"area":        {"130"},
	"pref":        {"13"},
	"jisx0402":    {"13101"},
	"postal":      {"1000001"},
}

// Response is a fully read upstream response.
type Response struct {
	Body       []byte
	StatusCode int
}

// Session is a cookie-backed session with the upstream. It is owned by one
// run and must not be shared between goroutines.
type Session struct {
	client        *http.Client
	upstream      config.UpstreamConfig
	retryPolicy   config.RetryPolicy
	logger        *logger.Logger
	headers       http.Header
	maxBodyBytes  int64
	authenticated bool
}

// NewSession creates an unauthenticated session with its own cookie jar.
func NewSession(cfg *config.Config, log *logger.Logger) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Session{
		client: &http.Client{
			Timeout: cfg.HTTP.GetTimeout(),
			Jar:     jar,
		},
		upstream:     cfg.Upstream,
		retryPolicy:  cfg.HTTP.Retry,
		logger:       log,
		headers:      utils.BrowserHeaders(cfg.Upstream.UserAgent),
		maxBodyBytes: defaultMaxBodyBytes,
	}, nil
}

// Authenticate performs the authorization exchange and keeps the resulting
// cookies. Calling it on an authenticated session is a no-op.
func (s *Session) Authenticate(ctx context.Context) error {
	if s.authenticated {
		return nil
	}

	params := url.Values{}
	for k, v := range authParams {
		params[k] = v
	}

	params.Set("redirect_uri", s.upstream.Referer)

	authURL, err := url.Parse(s.upstream.AuthURL)
	if err != nil {
		return fmt.Errorf("%w: invalid auth url: %w", ErrAuthentication, err)
	}

	authURL.RawQuery = params.Encode()

	s.headers.Set("Referer", s.upstream.Referer)

	s.logger.Info("Authenticating with upstream", "url", s.upstream.AuthURL)

	resp, err := s.do(ctx, authURL.String())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues("auth", "error").Inc()

		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	metrics.UpstreamRequests.WithLabelValues("auth", strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %w: %d", ErrAuthentication, ErrUnexpectedStatusCode, resp.StatusCode)
	}

	s.authenticated = true
	s.logger.Info("Authentication successful")

	return nil
}

// Get authenticates if needed and fetches rawURL, retrying temporary
// failures according to the retry policy. Non-200 statuses are returned in
// the Response, not as errors.
func (s *Session) Get(ctx context.Context, rawURL string) (*Response, error) {
	if err := s.Authenticate(ctx); err != nil {
		return nil, err
	}

	var (
		resp    *Response
		lastErr error
	)

	// The first request is always made
	attempts := max(1, s.retryPolicy.MaxAttempts)

	for attempt := 1; attempt <= attempts; attempt++ {
		resp, lastErr = s.do(ctx, rawURL)

		retryable := lastErr != nil || utils.IsRetryableStatus(resp.StatusCode)
		if !retryable || attempt == attempts {
			break
		}

		delay := s.retryPolicy.GetRetryDelay(attempt)
		s.logger.Debug("Retrying upstream request", "url", rawURL, "attempt", attempt, "delay", delay)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("request failed after %d attempt(s): %w", attempts, lastErr)
	}

	return resp, nil
}

func (s *Session) do(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = s.headers.Clone()

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			s.logger.Debug("Failed to close response body", "error", closeErr)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if int64(len(body)) > s.maxBodyBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrResponseTooLarge, rawURL, s.maxBodyBytes)
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}
