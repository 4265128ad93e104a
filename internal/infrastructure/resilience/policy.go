package resilience

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Config is shared by every outbound dependency: the LLM gateway, NATS and
// the email API. Breakers are still kept per operation.
type Config struct {
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

func DefaultConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 200 * time.Millisecond,
		RetryMaxBackoff:     time.Second,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      5,
		BreakerFailureRatio:     0.6,
		BreakerOpenTimeout:      20 * time.Second,
		BreakerHalfOpenMaxCalls: 1,
	}
}

// LogValue keeps startup logs readable.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("retry_max_attempts", c.RetryMaxAttempts),
		slog.Duration("retry_initial_backoff", c.RetryInitialBackoff),
		slog.Duration("retry_max_backoff", c.RetryMaxBackoff),
		slog.Float64("retry_multiplier", c.RetryMultiplier),
		slog.Bool("breaker_enabled", c.BreakerEnabled),
		slog.Uint64("breaker_min_requests", uint64(c.BreakerMinRequests)),
		slog.Float64("breaker_failure_ratio", c.BreakerFailureRatio),
		slog.Duration("breaker_open_timeout", c.BreakerOpenTimeout),
	)
}

func (c Config) nextBackoff(current time.Duration) time.Duration {
	return min(time.Duration(float64(current)*c.RetryMultiplier), c.RetryMaxBackoff)
}

// shouldTrip opens the breaker once enough calls were seen and the share of
// recorded failures reaches the configured ratio.
func (c Config) shouldTrip(counts gobreaker.Counts) bool {
	if counts.Requests == 0 || counts.Requests < c.BreakerMinRequests {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= c.BreakerFailureRatio
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()

	if out.RetryMaxAttempts <= 0 {
		out.RetryMaxAttempts = def.RetryMaxAttempts
	}
	if out.RetryInitialBackoff <= 0 {
		out.RetryInitialBackoff = def.RetryInitialBackoff
	}
	if out.RetryMaxBackoff <= 0 {
		out.RetryMaxBackoff = def.RetryMaxBackoff
	}
	out.RetryMaxBackoff = max(out.RetryMaxBackoff, out.RetryInitialBackoff)
	if out.RetryMultiplier < 1.0 {
		out.RetryMultiplier = def.RetryMultiplier
	}

	if out.BreakerMinRequests == 0 {
		out.BreakerMinRequests = def.BreakerMinRequests
	}
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if out.BreakerOpenTimeout <= 0 {
		out.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	if out.BreakerHalfOpenMaxCalls == 0 {
		out.BreakerHalfOpenMaxCalls = def.BreakerHalfOpenMaxCalls
	}

	return out
}
