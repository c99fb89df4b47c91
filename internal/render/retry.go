// SPDX-License-Identifier: Apache-2.0

package render

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/gemaraproj/statement-screener/internal/logger"
)

// RetryConfig bounds how often a failed session call is repeated.
type RetryConfig struct {
	// MaxAttempts counts the first call; 1 disables retries.
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	JitterFraction float64
}

func defaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    1,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       10 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

func (cfg RetryConfig) withDefaults() RetryConfig {
	defaults := defaultRetryConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = defaults.InitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = defaults.MaxDelay
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = defaults.Multiplier
	}
	if cfg.JitterFraction < 0 {
		cfg.JitterFraction = 0
	}
	return cfg
}

// Retrying repeats failed Render and Links calls with exponential backoff.
type Retrying struct {
	Session
	cfg   RetryConfig
	log   logger.Interface
	sleep func(ctx context.Context, d time.Duration) error
}

// WithRetry wraps session with the given retry policy.
func WithRetry(session Session, cfg RetryConfig, log logger.Interface) *Retrying {
	if log == nil {
		log = logger.NewNoOp()
	}
	return &Retrying{
		Session: session,
		cfg:     cfg.withDefaults(),
		log:     log.WithComponent("retry"),
		sleep:   sleepContext,
	}
}

func (r *Retrying) Render(ctx context.Context, url string) (string, error) {
	var text string
	err := r.do(ctx, OpRender, url, func() error {
		var err error
		text, err = r.Session.Render(ctx, url)
		return err
	})
	return text, err
}

func (r *Retrying) Links(ctx context.Context, url, selector string) ([]string, error) {
	var links []string
	err := r.do(ctx, OpLinks, url, func() error {
		var err error
		links, err = r.Session.Links(ctx, url, selector)
		return err
	})
	return links, err
}

func (r *Retrying) do(ctx context.Context, op Op, url string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			if attempt > 1 {
				r.log.Info("Succeeded after retry", "op", op, "url", url, "attempt", attempt)
			}
			return nil
		}
		if ctx.Err() != nil || errors.Is(lastErr, context.Canceled) {
			return lastErr
		}
		if attempt == r.cfg.MaxAttempts {
			break
		}

		delay := r.delay(attempt)
		r.log.Warn("Session call failed, retrying",
			"op", op, "url", url, "attempt", attempt,
			"max_attempts", r.cfg.MaxAttempts, "next_delay", delay, "error", lastErr)
		if err := r.sleep(ctx, delay); err != nil {
			return fmt.Errorf("retry aborted: %w", err)
		}
	}
	if r.cfg.MaxAttempts > 1 {
		return fmt.Errorf("all %d attempts failed: %w", r.cfg.MaxAttempts, lastErr)
	}
	return lastErr
}

func (r *Retrying) delay(attempt int) time.Duration {
	backoff := float64(r.cfg.InitialDelay) * math.Pow(r.cfg.Multiplier, float64(attempt-1))
	backoff += backoff * r.cfg.JitterFraction * (2*rand.Float64() - 1)
	if backoff > float64(r.cfg.MaxDelay) {
		backoff = float64(r.cfg.MaxDelay)
	}
	if backoff < 0 {
		backoff = float64(r.cfg.InitialDelay)
	}
	return time.Duration(backoff)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
