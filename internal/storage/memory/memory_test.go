package memory

import (
	"context"
	"testing"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/ports"
	"finanzas/internal/storage/storagetest"
)

func TestMemoryStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) ports.Store {
		return New()
	})
}

func TestMemoryStoreSameDayOrdering(t *testing.T) {
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s := New().WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})
	ctx := context.Background()

	for _, cents := range []int64{100, 200, 300} {
		tx := storagetest.Transaction("u1", "", core.Income, cents, core.NewDate(2024, 3, 1))
		if _, err := s.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
	}

	got, err := s.ListTransactions(ctx, "u1", ports.TransactionFilter{})
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	want := []int64{300, 200, 100}
	for i := range want {
		if got[i].Amount.Cents != want[i] {
			t.Errorf("ListTransactions()[%d] = %d, want %d", i, got[i].Amount.Cents, want[i])
		}
	}
}
