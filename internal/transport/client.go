// Package transport provides the production HTTP implementation of the
// hal.Transport port: TLS floor, timeouts, auth headers, retry with
// backoff for rate limits and server errors, and a circuit breaker.
//
// Retry policy lives here, below the navigation core, so the core keeps
// its one-request-per-navigation contract: by the time a response (or
// failure) reaches hal, it is final.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/halnav/halnav-cli/internal/debug"
	"github.com/halnav/halnav-cli/internal/hal"
)

const DefaultTimeout = 30 * time.Second

// Client performs HTTP exchanges for the hal navigator.
//
// The client includes a circuit breaker that tracks server failures
// across requests. Circuit breaker state persists for the lifetime of
// the client; use ResetCircuitBreaker when reusing a client between
// logical sessions or test runs.
type Client struct {
	Token          string
	UserAgent      string
	HTTP           *http.Client
	RetryConfig    RetryConfig
	circuitBreaker *circuitBreaker
	rateLimitMu    sync.Mutex
	lastRateLimit  *RateLimitInfo
}

var _ hal.Transport = (*Client)(nil)

// New creates a transport client with the default timeout, a TLS 1.2
// floor, and env-derived retry configuration.
func New(token string) *Client {
	baseTransport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		baseTransport = &http.Transport{}
	}
	httpTransport := baseTransport.Clone()
	if httpTransport.TLSClientConfig == nil {
		httpTransport.TLSClientConfig = &tls.Config{}
	} else {
		httpTransport.TLSClientConfig = httpTransport.TLSClientConfig.Clone()
	}
	httpTransport.TLSClientConfig.MinVersion = tls.VersionTLS12
	httpTransport.TLSClientConfig.InsecureSkipVerify = false

	retryCfg := DefaultRetryConfig()
	return &Client{
		Token:       token,
		RetryConfig: retryCfg,
		HTTP: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: httpTransport,
		},
		circuitBreaker: &circuitBreaker{
			threshold: retryCfg.CircuitBreakerThreshold,
			resetTime: retryCfg.CircuitBreakerResetTime,
		},
	}
}

// ResetCircuitBreaker clears the circuit breaker state, resetting failure
// counts and closing the circuit.
func (c *Client) ResetCircuitBreaker() {
	if c.circuitBreaker != nil {
		c.circuitBreaker.reset()
	}
}

// SetRetryConfig updates the retry configuration and aligns circuit
// breaker settings.
func (c *Client) SetRetryConfig(cfg RetryConfig) {
	c.RetryConfig = cfg
	if c.circuitBreaker != nil {
		c.circuitBreaker.threshold = cfg.CircuitBreakerThreshold
		c.circuitBreaker.resetTime = cfg.CircuitBreakerResetTime
	}
}

// Fetch performs one logical exchange for the hal core. Retries for 429
// and 5xx happen inside this call; the returned response is final.
// Non-success statuses are returned as responses, not errors; outcome
// classification belongs to the caller.
func (c *Client) Fetch(ctx context.Context, req *hal.Request) (*hal.Response, error) {
	if c.circuitBreaker != nil && c.circuitBreaker.isOpen() {
		return nil, &CircuitBreakerError{}
	}

	// Read the body once so each retry attempt gets a fresh reader.
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
	}

	isIdempotent := req.Method == http.MethodGet || req.Method == http.MethodHead || req.Method == http.MethodOptions

	var retries429, retries5xx int
	attempt := 0

	for {
		attempt++
		start := time.Now()
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		for key, value := range req.Header {
			httpReq.Header.Set(key, value)
		}
		if c.Token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.Token)
		}
		if c.UserAgent != "" {
			httpReq.Header.Set("User-Agent", c.UserAgent)
		}

		resp, err := c.HTTP.Do(httpReq)
		if err != nil {
			if debug.IsEnabled(ctx) {
				slog.Debug("request failed", "method", req.Method, "url", req.URL, "attempt", attempt, "error", err)
			}
			return nil, fmt.Errorf("request failed: %w", err)
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		c.recordRateLimit(resp.Header)
		if debug.IsEnabled(ctx) {
			slog.Debug("request complete", "method", req.Method, "url", req.URL, "status", resp.StatusCode, "attempt", attempt, "duration", time.Since(start))
		}

		// 429: exponential backoff for idempotent requests, honoring
		// Retry-After when present.
		if resp.StatusCode == http.StatusTooManyRequests && isIdempotent && retries429 < c.RetryConfig.MaxRateLimitRetries {
			delay, hasRetryAfter := retryAfterDuration(resp.Header)
			if !hasRetryAfter {
				delay = c.RetryConfig.RateLimitBaseDelay * time.Duration(1<<retries429)
			}
			slog.Info("rate limited, retrying", "delay", delay, "attempt", retries429+1)
			if err := sleepWithContext(ctx, delay); err != nil {
				return nil, err
			}
			retries429++
			continue
		}

		// 5xx: record to the circuit breaker; retry idempotent requests.
		if resp.StatusCode >= 500 {
			if c.circuitBreaker != nil {
				c.circuitBreaker.recordFailure()
			}
			if isIdempotent && retries5xx < c.RetryConfig.Max5xxRetries {
				slog.Info("server error, retrying", "status", resp.StatusCode)
				if err := sleepWithContext(ctx, c.RetryConfig.ServerErrorRetryDelay); err != nil {
					return nil, err
				}
				retries5xx++
				continue
			}
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 && c.circuitBreaker != nil {
			c.circuitBreaker.recordSuccess()
		}

		return &hal.Response{
			Status:     resp.StatusCode,
			StatusText: statusText(resp),
			Header:     resp.Header,
			Body:       respBody,
		}, nil
	}
}

// statusText extracts the reason phrase from the response status line,
// falling back to the standard phrase for the code.
func statusText(resp *http.Response) string {
	prefix := strconv.Itoa(resp.StatusCode) + " "
	if strings.HasPrefix(resp.Status, prefix) {
		return strings.TrimPrefix(resp.Status, prefix)
	}
	return http.StatusText(resp.StatusCode)
}
