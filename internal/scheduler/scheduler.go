package scheduler

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pkg/errors"
)

// Sweeper drops expired in-memory state and reports how many items went
type Sweeper interface {
	Sweep() int
}

type job struct {
	name    string
	sweeper Sweeper
}

// Scheduler runs the periodic maintenance jobs of the server
type Scheduler struct {
	scheduler *gocron.Scheduler
	jobs      []job
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a new scheduler instance
func New(interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		interval:  interval,
		logger:    logger,
	}
}

// Add registers a sweeper to run every interval. Call before Start.
func (s *Scheduler) Add(name string, sweeper Sweeper) {
	s.jobs = append(s.jobs, job{name: name, sweeper: sweeper})
}

// Start registers the jobs and runs them in the background
func (s *Scheduler) Start() error {
	for _, j := range s.jobs {
		if _, err := s.scheduler.Every(s.interval).Do(s.run, j); err != nil {
			return errors.Wrapf(err, "schedule %s", j.name)
		}
	}
	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "jobs", len(s.jobs), "interval", s.interval)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) run(j job) {
	if removed := j.sweeper.Sweep(); removed > 0 {
		s.logger.Debug("sweep removed expired entries", "job", j.name, "removed", removed)
	}
}
