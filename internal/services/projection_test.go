package services

import (
	"errors"
	"testing"

	"finanzas/internal/core"
)

func fixed(id string, start core.Date, freq core.Frequency) core.Transaction {
	return core.Transaction{
		ID:          id,
		Description: "Fixed " + id,
		Amount:      core.Cents(1000),
		Date:        start,
		Type:        core.FixedExpense,
		Frequency:   freq,
	}
}

func TestNextOccurrence(t *testing.T) {
	tests := []struct {
		name     string
		start    core.Date
		freq     core.Frequency
		today    core.Date
		wantNext core.Date
		wantDays int
	}{
		{
			name:     "monthly later this month",
			start:    core.NewDate(2024, 1, 20),
			freq:     core.Monthly,
			today:    core.NewDate(2024, 3, 10),
			wantNext: core.NewDate(2024, 3, 20),
			wantDays: 10,
		},
		{
			name:     "monthly already passed this month",
			start:    core.NewDate(2024, 1, 5),
			freq:     core.Monthly,
			today:    core.NewDate(2024, 3, 10),
			wantNext: core.NewDate(2024, 4, 5),
			wantDays: 26,
		},
		{
			name:     "monthly on today moves to next month",
			start:    core.NewDate(2024, 1, 10),
			freq:     core.Monthly,
			today:    core.NewDate(2024, 3, 10),
			wantNext: core.NewDate(2024, 4, 10),
			wantDays: 31,
		},
		{
			name:     "monthly day 31 rolls over short month",
			start:    core.NewDate(2024, 1, 31),
			freq:     core.Monthly,
			today:    core.NewDate(2024, 2, 15),
			wantNext: core.NewDate(2024, 3, 2),
			wantDays: 16,
		},
		{
			name:     "monthly day 31 advances to end of february",
			start:    core.NewDate(2023, 12, 31),
			freq:     core.Monthly,
			today:    core.NewDate(2024, 1, 31),
			wantNext: core.NewDate(2024, 2, 29),
			wantDays: 29,
		},
		{
			name:     "monthly day 31 advances to end of april",
			start:    core.NewDate(2024, 1, 31),
			freq:     core.Monthly,
			today:    core.NewDate(2024, 3, 31),
			wantNext: core.NewDate(2024, 4, 30),
			wantDays: 30,
		},
		{
			name:     "yearly leap day advances to february 28",
			start:    core.NewDate(2020, 2, 29),
			freq:     core.Yearly,
			today:    core.NewDate(2024, 2, 29),
			wantNext: core.NewDate(2025, 2, 28),
			wantDays: 365,
		},
		{
			name:     "monthly start in the future",
			start:    core.NewDate(2024, 5, 1),
			freq:     core.Monthly,
			today:    core.NewDate(2024, 3, 10),
			wantNext: core.NewDate(2024, 5, 1),
			wantDays: 52,
		},
		{
			name:     "yearly tomorrow",
			start:    core.NewDate(2023, 6, 10),
			freq:     core.Yearly,
			today:    core.NewDate(2024, 6, 9),
			wantNext: core.NewDate(2024, 6, 10),
			wantDays: 1,
		},
		{
			name:     "yearly already passed",
			start:    core.NewDate(2023, 1, 15),
			freq:     core.Yearly,
			today:    core.NewDate(2024, 6, 9),
			wantNext: core.NewDate(2025, 1, 15),
			wantDays: 220,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextOccurrence(fixed("a", tt.start, tt.freq), tt.today)
			if err != nil {
				t.Fatalf("NextOccurrence() error = %v", err)
			}
			if !got.NextDate.Equal(tt.wantNext.Time) {
				t.Errorf("NextOccurrence().NextDate = %v, want %v", got.NextDate, tt.wantNext)
			}
			if got.DaysRemaining != tt.wantDays {
				t.Errorf("NextOccurrence().DaysRemaining = %d, want %d", got.DaysRemaining, tt.wantDays)
			}
			if got.DaysRemaining < 0 {
				t.Errorf("DaysRemaining must not be negative, got %d", got.DaysRemaining)
			}
		})
	}
}

func TestNextOccurrence_NotProjectable(t *testing.T) {
	tests := []struct {
		name string
		tx   core.Transaction
	}{
		{"one time fixed", fixed("a", core.NewDate(2024, 1, 1), core.OneTime)},
		{"variable expense", core.Transaction{Type: core.VariableExpense, Frequency: core.Monthly, Date: core.NewDate(2024, 1, 1)}},
		{"income", core.Transaction{Type: core.Income, Frequency: core.Monthly, Date: core.NewDate(2024, 1, 1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NextOccurrence(tt.tx, core.NewDate(2024, 3, 1))
			if !errors.Is(err, core.ErrNotProjectable) {
				t.Errorf("NextOccurrence() error = %v, want %v", err, core.ErrNotProjectable)
			}
		})
	}
}

func TestUpcomingPayments(t *testing.T) {
	today := core.NewDate(2024, 3, 10)
	txs := []core.Transaction{
		fixed("rent", core.NewDate(2024, 1, 1), core.Monthly),      // 22 days
		fixed("gym", core.NewDate(2024, 1, 11), core.Monthly),      // 1 day
		fixed("phone", core.NewDate(2024, 1, 13), core.Monthly),    // 3 days
		fixed("insurance", core.NewDate(2023, 3, 20), core.Yearly), // 10 days
		fixed("stream", core.NewDate(2024, 1, 15), core.Monthly),   // 5 days
		fixed("water", core.NewDate(2024, 1, 30), core.Monthly),    // 20 days
		fixed("once", core.NewDate(2024, 3, 11), core.OneTime),
		{ID: "coffee", Type: core.VariableExpense, Frequency: core.Monthly, Date: core.NewDate(2024, 3, 11)},
	}

	got := UpcomingPayments(txs, today, UpcomingPaymentsLimit)

	wantIDs := []string{"gym", "phone", "stream", "insurance", "water"}
	if len(got) != len(wantIDs) {
		t.Fatalf("UpcomingPayments() returned %d items, want %d", len(got), len(wantIDs))
	}
	for i, id := range wantIDs {
		if got[i].Transaction.ID != id {
			t.Errorf("UpcomingPayments()[%d] = %s, want %s", i, got[i].Transaction.ID, id)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].DaysRemaining > got[i].DaysRemaining {
			t.Errorf("UpcomingPayments() not sorted at %d: %d > %d", i, got[i-1].DaysRemaining, got[i].DaysRemaining)
		}
	}

	urgent := map[string]bool{"gym": true, "phone": true, "stream": false, "insurance": false, "water": false}
	for _, p := range got {
		if p.Urgent != urgent[p.Transaction.ID] {
			t.Errorf("%s urgent = %v, want %v", p.Transaction.ID, p.Urgent, urgent[p.Transaction.ID])
		}
	}
	if got[0].Label != "Mañana" {
		t.Errorf("first label = %q, want %q", got[0].Label, "Mañana")
	}
}

func TestUpcomingPayments_Empty(t *testing.T) {
	got := UpcomingPayments(nil, core.NewDate(2024, 3, 10), UpcomingPaymentsLimit)
	if got == nil || len(got) != 0 {
		t.Errorf("UpcomingPayments(nil) = %v, want empty slice", got)
	}
}

func TestDueLabel(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{0, "Hoy"},
		{1, "Mañana"},
		{2, "En 2 días"},
		{30, "En 30 días"},
	}

	for _, tt := range tests {
		if got := DueLabel(tt.days); got != tt.want {
			t.Errorf("DueLabel(%d) = %q, want %q", tt.days, got, tt.want)
		}
	}
}

type weeklyProjector struct{}

func (weeklyProjector) Next(start, today core.Date) core.Date {
	next := start
	for !next.After(today) {
		next = core.DateOf(next.AddDate(0, 0, 7))
	}
	return next
}

func TestGetProjector(t *testing.T) {
	if _, err := GetProjector(core.Monthly); err != nil {
		t.Errorf("GetProjector(monthly) error = %v", err)
	}
	if _, err := GetProjector(core.Yearly); err != nil {
		t.Errorf("GetProjector(yearly) error = %v", err)
	}
	if _, err := GetProjector(core.OneTime); !errors.Is(err, core.ErrNotProjectable) {
		t.Errorf("GetProjector(one_time) error = %v, want %v", err, core.ErrNotProjectable)
	}

	weekly := core.Frequency("weekly")
	RegisterProjector(weekly, weeklyProjector{})
	t.Cleanup(func() { delete(projectors, weekly) })

	p, err := GetProjector(weekly)
	if err != nil {
		t.Fatalf("GetProjector(weekly) error = %v", err)
	}
	got := p.Next(core.NewDate(2024, 3, 1), core.NewDate(2024, 3, 10))
	if want := core.NewDate(2024, 3, 15); !got.Equal(want.Time) {
		t.Errorf("weekly Next() = %v, want %v", got, want)
	}
}
