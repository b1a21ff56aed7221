package memory

import (
	"context"
	"errors"
	"testing"

	"finanzas/internal/core"
	ports "finanzas/internal/sheets"
)

func TestMemoryStoreAppendListDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	rows := []ports.TransactionRow{
		{ID: "t1", UserID: "u1", Date: core.NewDate(2026, 5, 1), Amount: core.Cents(100)},
		{ID: "t2", UserID: "u1", Date: core.NewDate(2026, 6, 1), Amount: core.Cents(200)},
		{ID: "t3", UserID: "u2", Date: core.NewDate(2026, 5, 2), Amount: core.Cents(300)},
	}
	for i, r := range rows {
		ref, err := s.AppendTransaction(ctx, r)
		if err != nil {
			t.Fatalf("AppendTransaction(%s) error = %v", r.ID, err)
		}
		if want := "mem:" + string(rune('1'+i)); ref != want {
			t.Errorf("ref = %q, want %q", ref, want)
		}
	}

	got, _ := s.ListTransactions(ctx, "u1", core.Period{Year: 2026, Month: 5})
	if len(got) != 1 || got[0].ID != "t1" {
		t.Errorf("ListTransactions() = %+v, want t1 only", got)
	}

	if err := s.DeleteTransaction(ctx, "t1"); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	if err := s.DeleteTransaction(ctx, "t1"); !errors.Is(err, ports.ErrRowNotFound) {
		t.Errorf("DeleteTransaction() again error = %v, want ErrRowNotFound", err)
	}
}

func TestMemoryStoreRejectsIncompleteRow(t *testing.T) {
	if _, err := New().AppendTransaction(context.Background(), ports.TransactionRow{ID: "t1"}); err == nil {
		t.Fatal("AppendTransaction() expected error without a date")
	}
}

func TestMemoryStoreReminders(t *testing.T) {
	s := New()
	s.AppendReminder(context.Background(), ports.ReminderRow{TransactionID: "t1", Label: "Hoy"})
	got := s.Reminders()
	if len(got) != 1 || got[0].Label != "Hoy" {
		t.Fatalf("Reminders() = %+v", got)
	}
	got[0].Label = "changed"
	if s.Reminders()[0].Label != "Hoy" {
		t.Error("Reminders() must return a copy")
	}
}
