package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryConfig bounds Retry.
type RetryConfig struct {
	Attempts   int           // total tries, first included; default 3
	Backoff    time.Duration // delay before the first retry; default 500ms
	MaxBackoff time.Duration // default 30s
	Jitter     float64       // +/- fraction of each delay, in [0,1]
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = 500 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 30 * time.Second
	}
	if c.Jitter < 0 || c.Jitter > 1 {
		c.Jitter = 0.25
	}
	return c
}

// Retry calls fn until it succeeds, fails with a non-transient error, the
// attempts run out, or ctx is done. The delay doubles after each try.
func Retry(ctx context.Context, cfg RetryConfig, op string, fn func(ctx context.Context) error) error {
	cfg = cfg.withDefaults()

	var err error
	for attempt := range cfg.Attempts {
		if err = fn(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil || !IsTransient(err) || attempt == cfg.Attempts-1 {
			return err
		}

		delay := backoff(cfg, attempt)
		zap.L().Warn("retrying after transient error",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
	}
	return err
}

func backoff(cfg RetryConfig, attempt int) time.Duration {
	d := float64(cfg.Backoff) * math.Pow(2, float64(attempt))
	d = math.Min(d, float64(cfg.MaxBackoff))
	if cfg.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * cfg.Jitter
	}
	return time.Duration(math.Max(d, 0))
}
