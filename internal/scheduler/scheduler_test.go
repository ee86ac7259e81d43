package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestAddTask_Validation(t *testing.T) {
	s := New(nil)

	if err := s.AddTask(&Task{}); err == nil {
		t.Error("expected error for missing ID")
	}
	if err := s.AddTask(&Task{ID: "x"}); err == nil {
		t.Error("expected error for missing schedule")
	}
	if err := s.AddTask(&Task{ID: "x", Schedule: Every(time.Second)}); err == nil {
		t.Error("expected error for missing func")
	}

	noop := func(ctx context.Context) error { return nil }
	if err := s.AddTask(&Task{ID: "x", Schedule: Every(time.Second), Func: noop}); err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if err := s.AddTask(&Task{ID: "x", Schedule: Every(time.Second), Func: noop}); err == nil {
		t.Error("expected error for duplicate ID")
	}
}

func TestRunTask_Immediate(t *testing.T) {
	s := New(nil)

	var runs atomic.Int64
	err := s.AddTask(&Task{
		ID:       "sweep",
		Name:     "sweep",
		Schedule: Every(time.Hour),
		Func: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	if err := s.RunTask("sweep"); err != nil {
		t.Fatalf("RunTask: %v", err)
	}
	if err := s.RunTask("missing"); err == nil {
		t.Error("expected error for unknown task")
	}

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if runs.Load() != 1 {
		t.Errorf("runs = %d, want 1", runs.Load())
	}
}

func TestScheduler_RunOnStart(t *testing.T) {
	s := New(nil)

	var runs atomic.Int64
	s.AddTask(&Task{
		ID:         "boot",
		Name:       "boot",
		Schedule:   Every(time.Hour),
		RunOnStart: true,
		Func: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	s.Start()
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if runs.Load() == 0 {
		t.Error("RunOnStart task never ran")
	}
	if !s.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}
}

func TestScheduler_StatusTracksErrors(t *testing.T) {
	s := New(nil)

	s.AddTask(&Task{
		ID:       "failing",
		Name:     "failing",
		Schedule: Every(time.Hour),
		Func: func(ctx context.Context) error {
			return errors.New("boom")
		},
	})

	s.RunTask("failing")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		statuses := s.GetStatus()
		if len(statuses) == 1 && statuses[0].ErrorCount == 1 {
			if statuses[0].LastError != "boom" {
				t.Errorf("LastError = %q", statuses[0].LastError)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("error count never recorded")
}

func TestIntervalSchedule_Next(t *testing.T) {
	base := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	next := Every(15 * time.Minute).Next(base)
	if want := base.Add(15 * time.Minute); !next.Equal(want) {
		t.Errorf("Next() = %v, want %v", next, want)
	}
}
