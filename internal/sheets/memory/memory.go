package memory

import (
	"context"
	"fmt"
	"sync"

	"finanzas/internal/core"
	ports "finanzas/internal/sheets"
)

// Store is an in-process mirror used when no spreadsheet is configured.
type Store struct {
	mu        sync.Mutex
	rows      []ports.TransactionRow
	reminders []ports.ReminderRow
}

var (
	_ ports.Mirror            = (*Store)(nil)
	_ ports.TransactionLister = (*Store)(nil)
)

func New() *Store {
	return &Store{}
}

// AppendTransaction stores the row and returns a synthetic row reference.
func (s *Store) AppendTransaction(_ context.Context, row ports.TransactionRow) (string, error) {
	if row.ID == "" || row.Date.IsEmpty() {
		return "", fmt.Errorf("transaction row needs an id and a date")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rows {
		if r.ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("transaction %s: %w", id, ports.ErrRowNotFound)
}

func (s *Store) ListTransactions(_ context.Context, userID string, period core.Period) ([]ports.TransactionRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ports.TransactionRow
	for _, r := range s.rows {
		if r.UserID == userID && period.Contains(r.Date) {
			out = append(out, r)
		}
	}
	return out, nil
}

// AppendReminder stores the reminder and returns a synthetic row reference.
func (s *Store) AppendReminder(_ context.Context, row ports.ReminderRow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reminders = append(s.reminders, row)
	return fmt.Sprintf("mem:reminder:%d", len(s.reminders)), nil
}

// Reminders returns a copy of the stored reminders.
func (s *Store) Reminders() []ports.ReminderRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.ReminderRow(nil), s.reminders...)
}
