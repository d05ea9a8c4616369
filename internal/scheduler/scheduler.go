// Package scheduler runs the periodic maintenance jobs.
package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/astromitra/horoscope-engine/internal/cache"
)

// Scheduler periodically evicts expired geocoding cache entries.
type Scheduler struct {
	scheduler *gocron.Scheduler
	locations *cache.LocationCache
	interval  time.Duration
	logger    zerolog.Logger
}

// New creates a Scheduler over the shared location cache.
func New(locations *cache.LocationCache, interval time.Duration, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		locations: locations,
		interval:  interval,
		logger:    logger.With().Str("component", "scheduler").Logger(),
	}
}

// Start schedules the eviction job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.locations == nil {
		s.logger.Info().Msg("no location cache configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(func() {
		if evicted := s.locations.EvictExpired(); evicted > 0 {
			s.logger.Debug().Int("evicted", evicted).Msg("evicted expired geocode cache entries")
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
