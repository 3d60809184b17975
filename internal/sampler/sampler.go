// Package sampler drives periodic metric collection.
package sampler

import (
	"context"
	"time"

	"github.com/rileyhilliard/hoststats/internal/errors"
	"github.com/rileyhilliard/hoststats/internal/logger"
	"github.com/rileyhilliard/hoststats/internal/metrics"
)

// Handler receives each sample. Returning an error stops the loop.
type Handler func(ctx context.Context, s metrics.Sample) error

// Sampler takes a sample from a source once per period.
type Sampler struct {
	src    metrics.Source
	period time.Duration
	log    logger.Logger
}

// New creates a sampler. A nil logger discards output.
func New(src metrics.Source, period time.Duration, log logger.Logger) *Sampler {
	if log == nil {
		log = logger.Noop()
	}
	return &Sampler{src: src, period: period, log: log}
}

// Period returns the interval between samples.
func (s *Sampler) Period() time.Duration {
	return s.period
}

// Run samples until ctx is cancelled, a sample cannot be read, or onSample
// fails. Cancellation is only observed between samples and yields nil.
func (s *Sampler) Run(ctx context.Context, onSample Handler) error {
	if s.period <= 0 {
		return errors.New(errors.ErrConfig,
			"Sample period must be positive",
			"Set sleep_seconds to 1 or more")
	}

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		started := time.Now()

		sample, err := metrics.Collect(ctx, s.src)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.WrapWithCode(err, errors.ErrSample,
				"Failed to read host metrics",
				"Run with --debug for details")
		}
		s.log.Debug("sampled %s", sample)

		if err := onSample(ctx, sample); err != nil {
			return err
		}

		wait := s.period - time.Since(started)
		if wait < 0 {
			wait = 0
		}
		timer.Reset(wait)
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
	}
}
