// Package vendorhttp builds the outbound HTTP client shared by every vendor
// integration. Requests are throttled per host, retried with backoff and
// recorded in Prometheus.
package vendorhttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/adforge/internal/metrics"
	"github.com/JakeFAU/adforge/internal/policy/retry"
)

// Waiter blocks until the host of rawURL may receive another request.
type Waiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// RetryPolicy decides whether and when a failed attempt is repeated.
type RetryPolicy interface {
	ShouldRetry(err error, attempt int) bool
	Backoff(attempt int) time.Duration
}

// Options configures NewClient.
type Options struct {
	Timeout time.Duration
	Limiter Waiter
	Policy  RetryPolicy
	Base    http.RoundTripper
	Logger  *zap.Logger
}

// Transport is an http.RoundTripper that adds throttling, retries and metrics.
type Transport struct {
	base    http.RoundTripper
	limiter Waiter
	policy  RetryPolicy
	logger  *zap.Logger
}

// NewTransport wraps opts.Base (http.DefaultTransport when nil).
func NewTransport(opts Options) *Transport {
	base := opts.Base
	if base == nil {
		base = http.DefaultTransport
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transport{
		base:    base,
		limiter: opts.Limiter,
		policy:  opts.Policy,
		logger:  logger.Named("vendorhttp"),
	}
}

// NewClient returns an *http.Client using a Transport built from opts.
func NewClient(opts Options) *http.Client {
	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: NewTransport(opts),
	}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	host := metrics.SanitizeSite(req.URL.String())
	replayable := req.Body == nil || req.Body == http.NoBody || req.GetBody != nil

	for attempt := 1; ; attempt++ {
		if t.limiter != nil {
			if err := t.limiter.Wait(ctx, req.URL.String()); err != nil {
				return nil, err
			}
		}

		outgoing, err := t.prepare(req, attempt)
		if err != nil {
			return nil, err
		}

		start := time.Now()
		resp, err := t.base.RoundTrip(outgoing)
		metrics.ObserveVendorRequest(host, outcome(resp, err), time.Since(start))

		retryErr := err
		retryAllowed := replayable && isIdempotent(req.Method)
		if err == nil {
			if !retryableStatus(resp.StatusCode) {
				return resp, nil
			}
			retryErr = &StatusError{Vendor: host, StatusCode: resp.StatusCode}
			retryAllowed = replayable && (isIdempotent(req.Method) ||
				resp.StatusCode == http.StatusTooManyRequests ||
				resp.StatusCode == http.StatusServiceUnavailable)
		}

		if t.policy == nil || !retryAllowed || !t.policy.ShouldRetry(retryErr, attempt) {
			return resp, err
		}

		if resp != nil {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
			_ = resp.Body.Close()
		}
		delay := t.policy.Backoff(attempt)
		t.logger.Debug("retrying vendor request",
			zap.String("host", host),
			zap.String("method", req.Method),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(retryErr),
		)
		if err := retry.Sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("retry backoff: %w", err)
		}
	}
}

func (t *Transport) prepare(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 1 || req.GetBody == nil {
		return req, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("replay request body: %w", err)
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, nil
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	default:
		return false
	}
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func outcome(resp *http.Response, err error) string {
	switch {
	case err != nil:
		return "error"
	case resp.StatusCode >= 500:
		return "server_error"
	case resp.StatusCode >= 400:
		return "client_error"
	default:
		return "success"
	}
}

// StatusError is returned for a non-2xx vendor response.
type StatusError struct {
	Vendor     string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Vendor, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Vendor, e.StatusCode, e.Body)
}

// CheckResponse returns a *StatusError for non-2xx responses, capturing a
// prefix of the body. The caller still owns resp.Body.
func CheckResponse(vendor string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &StatusError{
		Vendor:     vendor,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

// Classify is a retry.Classifier for vendor status errors.
func Classify(err error) (bool, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return retryableStatus(statusErr.StatusCode), true
	}
	return false, false
}
