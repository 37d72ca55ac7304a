package sweepers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ObservationPruner deletes observations that can no longer be selected
type ObservationPruner interface {
	PruneSupersededObservations(ctx context.Context, before time.Time) (int64, error)
}

// CacheInvalidator drops cached grids after the underlying data changed
type CacheInvalidator interface {
	Invalidate()
}

// ObservationSweeper periodically removes superseded price observations
// older than the retention window.
type ObservationSweeper struct {
	pruner    ObservationPruner
	cache     CacheInvalidator
	logger    *zerolog.Logger
	interval  time.Duration
	retention time.Duration
	stopChan  chan struct{}
	stopOnce  sync.Once
	now       func() time.Time
}

// NewObservationSweeper creates a new sweeper. cache may be nil.
func NewObservationSweeper(pruner ObservationPruner, cache CacheInvalidator, logger *zerolog.Logger, interval, retention time.Duration) *ObservationSweeper {
	return &ObservationSweeper{
		pruner:    pruner,
		cache:     cache,
		logger:    logger,
		interval:  interval,
		retention: retention,
		stopChan:  make(chan struct{}),
		now:       time.Now,
	}
}

// Start begins the periodic sweep and blocks until stopped
func (s *ObservationSweeper) Start(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.interval).
		Dur("retention", s.retention).
		Msg("Starting observation sweeper")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Observation sweeper stopping (context cancelled)")
			return
		case <-s.stopChan:
			s.logger.Info().Msg("Observation sweeper stopping (stop signal)")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Failed to prune observations")
			}
		}
	}
}

// Stop signals the sweeper to stop
func (s *ObservationSweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// Sweep runs one prune pass and returns the number of deleted observations
func (s *ObservationSweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.retention)
	s.logger.Debug().Time("cutoff", cutoff).Msg("Running observation prune")

	deleted, err := s.pruner.PruneSupersededObservations(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune superseded observations: %w", err)
	}

	if deleted > 0 {
		s.logger.Info().Int64("deleted", deleted).Msg("Pruned superseded observations")
		if s.cache != nil {
			s.cache.Invalidate()
		}
	}
	return deleted, nil
}
