// Package debrid drives a Real-Debrid compatible service to turn magnet links
// into direct stream URLs.
package debrid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/vmunix/reelroute/internal/metrics"
)

const defaultBaseURL = "https://api.real-debrid.com/rest/1.0"

type addMagnetResponse struct {
	ID  string `json:"id"`
	URI string `json:"uri"`
}

type torrentInfo struct {
	ID       string   `json:"id"`
	Filename string   `json:"filename"`
	Status   string   `json:"status"`
	Progress float64  `json:"progress"`
	Links    []string `json:"links"`
}

type unrestrictResponse struct {
	Download   string `json:"download"`
	Filename   string `json:"filename"`
	Filesize   int64  `json:"filesize"`
	Streamable int    `json:"streamable"`
}

type errorResponse struct {
	Error     string `json:"error"`
	ErrorCode int    `json:"error_code"`
}

// do performs one API call. form is sent url-encoded when non-nil. out may be
// nil for empty responses.
func (r *Resolver) do(ctx context.Context, op, method, path string, form url.Values, out any) error {
	start := time.Now()
	err := r.doRequest(ctx, op, method, path, form, out)
	r.metrics.ObserveUpstream(metrics.ServiceDebrid, start, err)
	if err != nil {
		r.log.Debug("api request failed", "op", op, "error", err)
		return err
	}
	r.log.Debug("api request complete", "op", op, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (r *Resolver) doRequest(ctx context.Context, op, method, path string, form url.Values, out any) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return &TransportError{Op: op, Err: err}
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.token)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 500:
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	case resp.StatusCode >= 400:
		return decodeAPIError(resp)
	case resp.StatusCode == http.StatusNoContent || out == nil:
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var er errorResponse
	if json.Unmarshal(data, &er) == nil && er.Error != "" {
		apiErr.Code = er.ErrorCode
		apiErr.Message = er.Error
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(data))
	if apiErr.Message == "" {
		apiErr.Message = resp.Status
	}
	return apiErr
}

func newLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 5)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(u string) Option {
	return func(r *Resolver) {
		if u != "" {
			r.baseURL = strings.TrimSuffix(u, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(r *Resolver) {
		r.httpClient = hc
	}
}

// WithRateLimit caps requests per minute. Zero disables the limit.
func WithRateLimit(requestsPerMinute int) Option {
	return func(r *Resolver) {
		r.limiter = newLimiter(requestsPerMinute)
	}
}

// WithSyncDelay sets how long ResolveMagnetSync waits before its single poll.
func WithSyncDelay(d time.Duration) Option {
	return func(r *Resolver) {
		r.syncDelay = d
	}
}

// WithMaxLinks caps the links ResolveMagnetSync unrestricts.
func WithMaxLinks(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxLinks = n
		}
	}
}

// WithMetrics records upstream calls.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Resolver) {
		if log != nil {
			r.log = log.With("component", "debrid")
		}
	}
}
