// Package retry provides bounded retry with exponential backoff for
// transient network failures, plus the classifier other components use to
// tell "offline" apart from real protocol errors.
package retry

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// offlineIndicators mark an error as connectivity trouble when it does not
// implement net.Error. The HTTP clients surface most of these as plain
// wrapped strings.
var offlineIndicators = []string{
	"connection refused",
	"no such host",
	"timeout",
	"network is unreachable",
	"no route to host",
	"host is down",
	"dial tcp",
	"dial udp",
	"i/o timeout",
	"connection reset",
	"temporary failure in name resolution",
}

// IsNetworkError reports whether err looks like network unavailability
// rather than a protocol or logic failure.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	var dnsErr *net.DNSError
	if errors.As(err, &netErr) || errors.As(err, &dnsErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, ind := range offlineIndicators {
		if strings.Contains(msg, ind) {
			return true
		}
	}
	return false
}

// Config bounds one retried operation.
type Config struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
	Multiplier   float64
}

// Default returns the bounds used by the background update cycle. They are
// deliberately short: a failed cycle is retried wholesale at the next check
// interval anyway.
func Default() Config {
	return Config{
		InitialDelay: 2 * time.Second,
		MaxDelay:     30 * time.Second,
		MaxAttempts:  3,
		Multiplier:   2.0,
	}
}

// Do runs fn up to cfg.MaxAttempts times, backing off between attempts.
// Only network errors are retried; anything else fails on the spot.
func Do(ctx context.Context, name string, cfg Config, fn func() error, logger *zerolog.Logger) error {
	delay := cfg.InitialDelay

	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.Info().Str("operation", name).Int("attempt", attempt).Msg("Succeeded after retry")
			}
			return nil
		}

		if !IsNetworkError(err) {
			logger.Error().Err(err).Str("operation", name).Msg("Not a network error, giving up")
			return err
		}
		if attempt >= cfg.MaxAttempts {
			logger.Error().Err(err).Str("operation", name).Int("attempts", attempt).Msg("Still failing, giving up")
			return err
		}

		logger.Warn().Err(err).
			Str("operation", name).
			Int("attempt", attempt).
			Dur("nextTryIn", delay).
			Msg("Network error, will retry")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		if delay = time.Duration(float64(delay) * cfg.Multiplier); delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}
