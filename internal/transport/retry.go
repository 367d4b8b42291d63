package transport

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Default retry configuration values
const (
	DefaultMaxRateLimitRetries     = 3
	DefaultMax5xxRetries           = 1
	DefaultRateLimitBaseDelay      = 1 * time.Second
	DefaultServerErrorRetryDelay   = 1 * time.Second
	DefaultCircuitBreakerThreshold = 5
	DefaultCircuitBreakerResetTime = 30 * time.Second
)

// RetryConfig holds configuration for retry behavior and circuit breaker.
type RetryConfig struct {
	MaxRateLimitRetries     int
	Max5xxRetries           int
	RateLimitBaseDelay      time.Duration
	ServerErrorRetryDelay   time.Duration
	CircuitBreakerThreshold int
	CircuitBreakerResetTime time.Duration
}

// DefaultRetryConfig returns a RetryConfig populated from environment
// variables with fallback to default values.
//
// Environment variables:
//   - HALNAV_MAX_RATE_LIMIT_RETRIES: max retries for 429 errors (default: 3)
//   - HALNAV_MAX_5XX_RETRIES: max retries for 5xx errors (default: 1)
//   - HALNAV_RATE_LIMIT_DELAY: base delay for rate limit retries (default: "1s")
//   - HALNAV_SERVER_ERROR_DELAY: delay for server error retries (default: "1s")
//   - HALNAV_CIRCUIT_BREAKER_THRESHOLD: failures before circuit opens (default: 5)
//   - HALNAV_CIRCUIT_BREAKER_RESET_TIME: time before circuit resets (default: "30s")
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRateLimitRetries:     getEnvInt("HALNAV_MAX_RATE_LIMIT_RETRIES", DefaultMaxRateLimitRetries),
		Max5xxRetries:           getEnvInt("HALNAV_MAX_5XX_RETRIES", DefaultMax5xxRetries),
		RateLimitBaseDelay:      getEnvDuration("HALNAV_RATE_LIMIT_DELAY", DefaultRateLimitBaseDelay),
		ServerErrorRetryDelay:   getEnvDuration("HALNAV_SERVER_ERROR_DELAY", DefaultServerErrorRetryDelay),
		CircuitBreakerThreshold: getEnvInt("HALNAV_CIRCUIT_BREAKER_THRESHOLD", DefaultCircuitBreakerThreshold),
		CircuitBreakerResetTime: getEnvDuration("HALNAV_CIRCUIT_BREAKER_RESET_TIME", DefaultCircuitBreakerResetTime),
	}
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// CircuitBreakerError indicates the circuit breaker is open.
type CircuitBreakerError struct{}

func (e *CircuitBreakerError) Error() string {
	return "circuit breaker is open, too many recent failures"
}

// IsCircuitBreakerError checks if the error is a circuit breaker error.
func IsCircuitBreakerError(err error) bool {
	var e *CircuitBreakerError
	return errors.As(err, &e)
}

type circuitBreaker struct {
	mu          sync.Mutex
	failures    int
	lastFailure time.Time
	open        bool
	halfOpen    bool // allows probe requests after the reset time
	threshold   int
	resetTime   time.Duration
}

// sleepWithContext waits for the duration or returns early on context
// cancellation.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retryAfterDuration parses Retry-After header values (seconds or HTTP date).
func retryAfterDuration(h http.Header) (time.Duration, bool) {
	value := strings.TrimSpace(h.Get("Retry-After"))
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			secs = 0
		}
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(value); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}

// recordSuccess resets failures to 0 and closes the circuit, completing
// recovery when the circuit was half-open.
func (cb *circuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.open = false
	cb.halfOpen = false
}

// recordFailure increments failures and returns true if the circuit just
// opened or re-opened. A failure during a half-open probe re-opens the
// circuit immediately and restarts the reset timer.
func (cb *circuitBreaker) recordFailure() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = time.Now()

	if cb.halfOpen {
		cb.halfOpen = false
		return true
	}

	threshold := cb.threshold
	if threshold <= 0 {
		threshold = DefaultCircuitBreakerThreshold
	}
	if cb.failures >= threshold && !cb.open {
		cb.open = true
		return true
	}
	return false
}

// isOpen returns true if the circuit should reject requests. When the
// reset time has passed, the circuit transitions to half-open and allows
// one probe request through.
func (cb *circuitBreaker) isOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !cb.open {
		return false
	}
	if cb.halfOpen {
		return false
	}

	resetTime := cb.resetTime
	if resetTime <= 0 {
		resetTime = DefaultCircuitBreakerResetTime
	}
	if time.Since(cb.lastFailure) >= resetTime {
		cb.halfOpen = true
		return false
	}
	return true
}

// reset clears all failure state and closes the circuit.
func (cb *circuitBreaker) reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.open = false
	cb.halfOpen = false
	cb.lastFailure = time.Time{}
}
