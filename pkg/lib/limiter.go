package lib

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RatePolicy decides when the next outbound request may start.
// *rate.Limiter satisfies it.
type RatePolicy interface {
	Wait(ctx context.Context) error
}

// NewRatePolicy allows one request per interval with the given burst.
func NewRatePolicy(interval time.Duration, burst int) RatePolicy {
	if burst < 1 {
		burst = 1
	}
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Every(interval), burst)
}

// RateLimitedTransport throttles every request passing through it.
// It never retries: a failed request is reported to the caller as is.
type RateLimitedTransport struct {
	base   http.RoundTripper
	policy RatePolicy
	logger *zerolog.Logger
}

func NewRateLimitedTransport(base http.RoundTripper, policy RatePolicy, logger *zerolog.Logger) *RateLimitedTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RateLimitedTransport{
		base:   base,
		policy: policy,
		logger: logger,
	}
}

func (t *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	if err := t.policy.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("wait for rate limit: %w", err)
	}

	if waited := time.Since(start); waited > time.Millisecond {
		t.logger.Trace().
			Str("host", req.URL.Host).
			Dur("delay", waited).
			Msg("Request throttled")
	}

	return t.base.RoundTrip(req)
}
