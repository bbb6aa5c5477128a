package maintenance

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Target is a database that supports SQLite housekeeping
type Target interface {
	Optimize() error
	Vacuum() error
}

// Scheduler runs periodic database housekeeping on cron schedules
type Scheduler struct {
	target  Target
	cron    *cron.Cron
	mu      sync.Mutex
	running bool
}

// New creates a scheduler for target
func New(target Target) *Scheduler {
	return &Scheduler{
		target: target,
		cron:   cron.New(cron.WithLocation(time.Local)),
	}
}

// Start registers the optimize and vacuum jobs and starts the scheduler.
// An empty spec disables that job. Returns false when both are disabled.
func (s *Scheduler) Start(optimizeSpec, vacuumSpec string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return true, nil
	}

	jobs := 0
	if optimizeSpec != "" {
		if _, err := s.cron.AddFunc(optimizeSpec, s.RunOptimize); err != nil {
			return false, fmt.Errorf("invalid optimize schedule %q: %w", optimizeSpec, err)
		}
		jobs++
	}
	if vacuumSpec != "" {
		if _, err := s.cron.AddFunc(vacuumSpec, s.RunVacuum); err != nil {
			return false, fmt.Errorf("invalid vacuum schedule %q: %w", vacuumSpec, err)
		}
		jobs++
	}
	if jobs == 0 {
		return false, nil
	}

	s.cron.Start()
	s.running = true

	log.Info().
		Str("optimize", optimizeSpec).
		Str("vacuum", vacuumSpec).
		Msg("Maintenance scheduler started")
	return true, nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.running = false
	log.Info().Msg("Maintenance scheduler stopped")
}

// RunOptimize refreshes the query planner statistics
func (s *Scheduler) RunOptimize() {
	start := time.Now()
	if err := s.target.Optimize(); err != nil {
		log.Error().Err(err).Msg("Scheduled optimize failed")
		return
	}
	log.Debug().Dur("duration", time.Since(start)).Msg("Database optimized")
}

// RunVacuum compacts the database file
func (s *Scheduler) RunVacuum() {
	start := time.Now()
	if err := s.target.Vacuum(); err != nil {
		log.Error().Err(err).Msg("Scheduled vacuum failed")
		return
	}
	log.Info().Dur("duration", time.Since(start)).Msg("Database vacuumed")
}
