// Package scheduler hosts the launcher's periodic background work on
// gocron. Jobs run in singleton mode: a cycle still waiting for the managed
// app to exit is never stacked on by the next tick.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// Job is one periodic unit of background work.
type Job struct {
	Name      string
	Every     time.Duration
	Immediate bool // fire once as soon as the scheduler starts
	Run       func(ctx context.Context) error
}

// JobStatus is the health-endpoint view of a registered job.
type JobStatus struct {
	Name      string     `json:"name"`
	Interval  string     `json:"interval"`
	Running   bool       `json:"running"`
	LastRun   *time.Time `json:"lastRun,omitempty"`
	NextRun   *time.Time `json:"nextRun,omitempty"`
	LastError string     `json:"lastError,omitempty"`
}

type entry struct {
	job    Job
	handle gocron.Job

	mu      sync.Mutex
	running bool
	lastRun *time.Time
	lastErr string
}

// Scheduler wraps one gocron scheduler. Jobs are added up front; ticking
// begins with Start, which the launcher defers until there is a running app
// to monitor.
type Scheduler struct {
	gs     gocron.Scheduler
	logger zerolog.Logger

	mu      sync.RWMutex
	entries []*entry
	started bool
}

func New(logger *zerolog.Logger) (*Scheduler, error) {
	gs, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{
		gs:     gs,
		logger: logger.With().Str("component", "scheduler").Logger(),
	}, nil
}

// Add registers a job. Names are unique; they key the health endpoint.
func (s *Scheduler) Add(job Job) error {
	if job.Every <= 0 {
		return fmt.Errorf("job %q needs a positive interval, got %s", job.Name, job.Every)
	}
	if job.Run == nil {
		return fmt.Errorf("job %q has no work to run", job.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.job.Name == job.Name {
			return fmt.Errorf("job %q already registered", job.Name)
		}
	}

	e := &entry{job: job}
	opts := []gocron.JobOption{
		gocron.WithName(job.Name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if job.Immediate {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	handle, err := s.gs.NewJob(
		gocron.DurationJob(job.Every),
		gocron.NewTask(func() { s.run(e) }),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to schedule job %q: %w", job.Name, err)
	}
	e.handle = handle
	s.entries = append(s.entries, e)

	s.logger.Info().
		Str("job", job.Name).
		Dur("every", job.Every).
		Bool("immediate", job.Immediate).
		Msg("Job registered")
	return nil
}

func (s *Scheduler) run(e *entry) {
	started := time.Now()
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()

	s.logger.Debug().Str("job", e.job.Name).Msg("Job starting")
	err := e.job.Run(context.Background())

	e.mu.Lock()
	e.running = false
	e.lastRun = &started
	e.lastErr = ""
	if err != nil {
		e.lastErr = err.Error()
	}
	e.mu.Unlock()

	evt := s.logger.Info()
	if err != nil {
		evt = s.logger.Error().Err(err)
	}
	evt.Str("job", e.job.Name).Dur("took", time.Since(started)).Msg("Job finished")
}

// Start begins ticking. Calling it again is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	s.started = true
	s.gs.Start()
	s.logger.Info().Int("jobs", len(s.entries)).Msg("Background monitor started")
	return nil
}

// Stop shuts the scheduler down, waiting for a running job to return.
func (s *Scheduler) Stop() error {
	s.logger.Info().Msg("Stopping background monitor")
	return s.gs.Shutdown()
}

// Status reports every registered job, in registration order.
func (s *Scheduler) Status() []JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobStatus, 0, len(s.entries))
	for _, e := range s.entries {
		e.mu.Lock()
		st := JobStatus{
			Name:      e.job.Name,
			Interval:  e.job.Every.String(),
			Running:   e.running,
			LastRun:   e.lastRun,
			LastError: e.lastErr,
		}
		e.mu.Unlock()

		if next, err := e.handle.NextRun(); err == nil && !next.IsZero() {
			st.NextRun = &next
		}
		out = append(out, st)
	}
	return out
}
