package gameclient

import (
	"math/rand"
	"time"
)

// RetryConfig holds configuration for exponential backoff retries against
// the game site.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	Jitter         bool
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     2,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     15 * time.Second,
		Multiplier:     2.0,
		Jitter:         true,
	}
}

// Backoff returns the wait before the given retry attempt (0-based).
// Exponential with optional jitter of up to 25% to avoid retry bursts
// landing together.
func (cfg RetryConfig) Backoff(attempt int) time.Duration {
	backoff := cfg.InitialBackoff
	for i := 0; i < attempt; i++ {
		backoff = time.Duration(float64(backoff) * cfg.Multiplier)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
			break
		}
	}

	if cfg.Jitter && backoff > 0 {
		jitterRange := int64(backoff) / 4
		if jitterRange > 0 {
			backoff += time.Duration(rand.Int63n(jitterRange))
		}
	}

	return backoff
}
