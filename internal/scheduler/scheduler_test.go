package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zocopos/launcher/internal/testutil"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	logger := testutil.NewTestLogger(t)
	s, err := New(&logger)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func waitFor(t *testing.T, deadline time.Duration, cond func() bool) {
	t.Helper()
	end := time.Now().Add(deadline)
	for time.Now().Before(end) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestAddValidation(t *testing.T) {
	s := newTestScheduler(t)

	job := Job{
		Name:  "check",
		Every: time.Minute,
		Run:   func(context.Context) error { return nil },
	}
	if err := s.Add(job); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := s.Add(job); err == nil {
		t.Error("expected error for duplicate job name")
	}

	job.Name = "bad-interval"
	job.Every = 0
	if err := s.Add(job); err == nil {
		t.Error("expected error for non-positive interval")
	}

	job.Name = "no-work"
	job.Every = time.Minute
	job.Run = nil
	if err := s.Add(job); err == nil {
		t.Error("expected error for nil Run")
	}
}

func TestImmediateJobFires(t *testing.T) {
	s := newTestScheduler(t)

	var runs atomic.Int32
	err := s.Add(Job{
		Name:      "startup-check",
		Every:     time.Hour,
		Immediate: true,
		Run: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	waitFor(t, 2*time.Second, func() bool { return runs.Load() == 1 })
}

func TestIntervalFires(t *testing.T) {
	s := newTestScheduler(t)

	var runs atomic.Int32
	err := s.Add(Job{
		Name:  "tick",
		Every: 20 * time.Millisecond,
		Run: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	waitFor(t, 2*time.Second, func() bool { return runs.Load() >= 2 })
}

func TestStatus(t *testing.T) {
	s := newTestScheduler(t)

	err := s.Add(Job{
		Name:  "check",
		Every: 30 * time.Minute,
		Run:   func(context.Context) error { return nil },
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	jobs := s.Status()
	if len(jobs) != 1 {
		t.Fatalf("jobs = %d, want 1", len(jobs))
	}
	st := jobs[0]
	if st.Name != "check" || st.Interval != "30m0s" {
		t.Errorf("job status = %+v", st)
	}
	if st.NextRun == nil {
		t.Error("expected NextRun after Start")
	}
	if st.Running {
		t.Error("job should not be running")
	}
}

func TestStatusRecordsLastError(t *testing.T) {
	s := newTestScheduler(t)

	err := s.Add(Job{
		Name:      "failing",
		Every:     time.Hour,
		Immediate: true,
		Run: func(context.Context) error {
			return errors.New("source unreachable")
		},
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	waitFor(t, 2*time.Second, func() bool {
		jobs := s.Status()
		return len(jobs) == 1 && jobs[0].LastError == "source unreachable"
	})
}

func TestStartTwice(t *testing.T) {
	s := newTestScheduler(t)

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Errorf("second Start should be a no-op, got %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}
