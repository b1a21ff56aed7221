package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finanzas/internal/core"
)

// ReminderSchedulerConfig holds configuration for the reminder scheduler
type ReminderSchedulerConfig struct {
	// Interval is how often reminders are evaluated (default: 1h)
	Interval time.Duration

	// Location decides which calendar day "today" is (default: UTC)
	Location *time.Location

	// Now is the clock (default: time.Now)
	Now func() time.Time
}

// DefaultReminderSchedulerConfig returns sensible defaults
func DefaultReminderSchedulerConfig() ReminderSchedulerConfig {
	return ReminderSchedulerConfig{
		Interval: time.Hour,
		Location: time.UTC,
		Now:      time.Now,
	}
}

// dueProcessor is the part of ReminderProcessor the scheduler drives.
type dueProcessor interface {
	ProcessDueReminders(ctx context.Context, today core.Date) (int, error)
}

// ReminderScheduler runs a reminder processor on a fixed interval.
type ReminderScheduler struct {
	processor dueProcessor
	config    ReminderSchedulerConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewReminderScheduler(processor dueProcessor, config ReminderSchedulerConfig) *ReminderScheduler {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &ReminderScheduler{
		processor: processor,
		config:    config,
	}
}

// Start begins the processing loop. Returns an error if already running.
func (s *ReminderScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("reminder scheduler is already running")
	}
	if s.config.Interval <= 0 {
		s.mu.Unlock()
		return fmt.Errorf("reminder interval must be positive, got %v", s.config.Interval)
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	slog.InfoContext(ctx, "Reminder scheduler started",
		"interval", s.config.Interval,
		"location", s.config.Location.String())
	return nil
}

// Stop gracefully stops the scheduler and waits for the current run.
func (s *ReminderScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Reminder scheduler stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Reminder scheduler stop timed out")
		return ctx.Err()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *ReminderScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Today returns the current calendar day in the configured location.
func (s *ReminderScheduler) Today() core.Date {
	return core.DateOf(s.config.Now().In(s.config.Location))
}

// RunOnce evaluates reminders for the current day.
func (s *ReminderScheduler) RunOnce(ctx context.Context) {
	today := s.Today()
	published, err := s.processor.ProcessDueReminders(ctx, today)
	if err != nil {
		slog.ErrorContext(ctx, "Reminder run failed", "date", today.String(), "error", err)
		return
	}
	slog.DebugContext(ctx, "Reminder run finished", "date", today.String(), "published", published)
}

func (s *ReminderScheduler) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Process immediately on startup
	s.RunOnce(ctx)

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}
