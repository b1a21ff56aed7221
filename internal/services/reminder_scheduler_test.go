package services

import (
	"context"
	"testing"
	"time"

	"finanzas/internal/core"
)

type recordingProcessor struct {
	days chan core.Date
}

func (p *recordingProcessor) ProcessDueReminders(_ context.Context, today core.Date) (int, error) {
	p.days <- today
	return 0, nil
}

func TestDefaultReminderSchedulerConfig(t *testing.T) {
	config := DefaultReminderSchedulerConfig()

	if config.Interval != time.Hour {
		t.Errorf("expected Interval 1h, got %v", config.Interval)
	}
	if config.Location != time.UTC {
		t.Errorf("expected Location UTC, got %v", config.Location)
	}
}

func TestReminderScheduler_Today(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	scheduler := NewReminderScheduler(nil, ReminderSchedulerConfig{
		Interval: time.Hour,
		Location: madrid,
		Now:      func() time.Time { return time.Date(2024, 3, 2, 23, 30, 0, 0, time.UTC) },
	})

	if got, want := scheduler.Today(), core.NewDate(2024, 3, 3); got != want {
		t.Errorf("Today() = %v, want %v", got, want)
	}
}

func TestReminderScheduler_Lifecycle(t *testing.T) {
	processor := &recordingProcessor{days: make(chan core.Date, 4)}
	scheduler := NewReminderScheduler(processor, ReminderSchedulerConfig{
		Interval: time.Hour,
		Now:      func() time.Time { return time.Date(2024, 3, 3, 9, 0, 0, 0, time.UTC) },
	})

	if scheduler.IsRunning() {
		t.Error("scheduler should not be running initially")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := scheduler.Start(ctx); err == nil {
		t.Error("expected error when starting already running scheduler")
	}

	select {
	case day := <-processor.days:
		if day != core.NewDate(2024, 3, 3) {
			t.Errorf("processed day = %v, want 2024-03-03", day)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not run on startup")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	if err := scheduler.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if scheduler.IsRunning() {
		t.Error("scheduler should not be running after Stop")
	}
}

func TestReminderScheduler_StopNotRunning(t *testing.T) {
	scheduler := NewReminderScheduler(nil, DefaultReminderSchedulerConfig())

	if err := scheduler.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}

func TestReminderScheduler_InvalidInterval(t *testing.T) {
	scheduler := NewReminderScheduler(nil, ReminderSchedulerConfig{})

	if err := scheduler.Start(context.Background()); err == nil {
		t.Error("Start() should reject a zero interval")
	}
}
