// Package storagetest holds the behaviour every ports.Store implementation must share.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/ports"

	"github.com/shopspring/decimal"
)

// Run exercises a fresh store returned by newStore for each subtest.
func Run(t *testing.T, newStore func(t *testing.T) ports.Store) {
	t.Helper()

	t.Run("category upsert", func(t *testing.T) { testCategoryUpsert(t, newStore(t)) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
	t.Run("transaction filter", func(t *testing.T) { testTransactionFilter(t, newStore(t)) })
	t.Run("budgets", func(t *testing.T) { testBudgets(t, newStore(t)) })
	t.Run("goals", func(t *testing.T) { testGoals(t, newStore(t)) })
	t.Run("investments", func(t *testing.T) { testInvestments(t, newStore(t)) })
	t.Run("reminders", func(t *testing.T) { testReminders(t, newStore(t)) })
}

// Transaction builds a valid one-time transaction for tests.
func Transaction(userID, categoryID string, typ core.TransactionType, cents int64, date core.Date) core.Transaction {
	return core.Transaction{
		UserID:      userID,
		CategoryID:  categoryID,
		Amount:      core.Cents(cents),
		Description: "Test transaction",
		Date:        date,
		Type:        typ,
		Frequency:   core.OneTime,
	}
}

func mustCategory(t *testing.T, s ports.Store, userID, name string, typ core.CategoryType) core.Category {
	t.Helper()
	c, err := s.UpsertCategory(context.Background(), userID, name, typ, core.DefaultTransactionIcon, core.DefaultCategoryColor)
	if err != nil {
		t.Fatalf("UpsertCategory(%s) error = %v", name, err)
	}
	return c
}

func testCategoryUpsert(t *testing.T, s ports.Store) {
	ctx := context.Background()

	first := mustCategory(t, s, "u1", "Comida", core.ExpenseCategory)
	if first.ID == "" {
		t.Fatal("UpsertCategory() returned empty ID")
	}
	if first.Icon != core.DefaultTransactionIcon || first.Color != core.DefaultCategoryColor {
		t.Errorf("UpsertCategory() icon/color = %s/%s", first.Icon, first.Color)
	}

	again, err := s.UpsertCategory(ctx, "u1", "Comida", core.ExpenseCategory, "Other", "#000000")
	if err != nil {
		t.Fatalf("UpsertCategory() second call error = %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("UpsertCategory() created duplicate: %s != %s", again.ID, first.ID)
	}
	if again.Icon != core.DefaultTransactionIcon {
		t.Errorf("UpsertCategory() overwrote icon with %s", again.Icon)
	}

	other := mustCategory(t, s, "u2", "Comida", core.ExpenseCategory)
	if other.ID == first.ID {
		t.Error("categories must be scoped per user")
	}

	if _, err := s.UpsertCategory(ctx, "u1", "  ", core.ExpenseCategory, "", ""); err == nil {
		t.Error("UpsertCategory() with blank name should fail")
	}

	list, err := s.ListCategories(ctx, "u1")
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if len(list) != 1 {
		t.Errorf("ListCategories(u1) = %d categories, want 1", len(list))
	}
}

func testTransactions(t *testing.T, s ports.Store) {
	ctx := context.Background()
	cat := mustCategory(t, s, "u1", "Vivienda", core.ExpenseCategory)

	in := Transaction("u1", cat.ID, core.FixedExpense, 80000, core.NewDate(2024, 3, 1))
	in.Frequency = core.Monthly
	created, err := s.CreateTransaction(ctx, in)
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Errorf("CreateTransaction() did not assign ID/CreatedAt: %+v", created)
	}

	got, err := s.GetTransaction(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if got.Amount != in.Amount || got.Frequency != core.Monthly || !got.Date.Equal(in.Date.Time) {
		t.Errorf("GetTransaction() = %+v, want fields of %+v", got, in)
	}
	if got.Category == nil || got.Category.Name != "Vivienda" {
		t.Errorf("GetTransaction() category = %+v, want Vivienda", got.Category)
	}

	if _, err := s.GetTransaction(ctx, "u2", created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetTransaction() for other user error = %v, want %v", err, core.ErrNotFound)
	}

	bad := Transaction("u1", cat.ID, core.Income, 0, core.NewDate(2024, 3, 1))
	if _, err := s.CreateTransaction(ctx, bad); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("CreateTransaction() zero amount error = %v, want %v", err, core.ErrInvalidAmount)
	}

	if err := s.DeleteTransaction(ctx, "u2", created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteTransaction() for other user error = %v, want %v", err, core.ErrNotFound)
	}
	if err := s.DeleteTransaction(ctx, "u1", created.ID); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	if _, err := s.GetTransaction(ctx, "u1", created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetTransaction() after delete error = %v, want %v", err, core.ErrNotFound)
	}
}

func testTransactionFilter(t *testing.T, s ports.Store) {
	ctx := context.Background()
	food := mustCategory(t, s, "u1", "Comida", core.ExpenseCategory)
	salary := mustCategory(t, s, "u1", "Salario", core.IncomeCategory)

	seed := []core.Transaction{
		Transaction("u1", food.ID, core.VariableExpense, 1000, core.NewDate(2024, 1, 15)),
		Transaction("u1", salary.ID, core.Income, 200000, core.NewDate(2024, 2, 1)),
		Transaction("u1", food.ID, core.VariableExpense, 2000, core.NewDate(2024, 2, 20)),
		Transaction("u1", food.ID, core.VariableExpense, 3000, core.NewDate(2024, 3, 5)),
		Transaction("u2", "", core.Income, 5000, core.NewDate(2024, 2, 2)),
	}
	for _, tx := range seed {
		if _, err := s.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter ports.TransactionFilter
		want   []int64
	}{
		{"all", ports.TransactionFilter{}, []int64{3000, 2000, 200000, 1000}},
		{"date range inclusive", ports.TransactionFilter{From: core.NewDate(2024, 2, 1), To: core.NewDate(2024, 2, 20)}, []int64{2000, 200000}},
		{"by type", ports.TransactionFilter{Type: core.Income}, []int64{200000}},
		{"by category", ports.TransactionFilter{CategoryID: food.ID, From: core.NewDate(2024, 2, 1)}, []int64{3000, 2000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListTransactions(ctx, "u1", tt.filter)
			if err != nil {
				t.Fatalf("ListTransactions() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ListTransactions() returned %d, want %d", len(got), len(tt.want))
			}
			for i, cents := range tt.want {
				if got[i].Amount.Cents != cents {
					t.Errorf("ListTransactions()[%d] = %d, want %d", i, got[i].Amount.Cents, cents)
				}
			}
		})
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 2 || users[0] != "u1" || users[1] != "u2" {
		t.Errorf("ListUsers() = %v, want [u1 u2]", users)
	}
}

func testBudgets(t *testing.T, s ports.Store) {
	ctx := context.Background()
	food := mustCategory(t, s, "u1", "Comida", core.ExpenseCategory)
	march := core.Period{Year: 2024, Month: time.March}
	april := core.Period{Year: 2024, Month: time.April}

	first, err := s.UpsertBudget(ctx, core.Budget{UserID: "u1", CategoryID: food.ID, AmountLimit: core.Cents(30000), Period: march})
	if err != nil {
		t.Fatalf("UpsertBudget() error = %v", err)
	}
	second, err := s.UpsertBudget(ctx, core.Budget{UserID: "u1", CategoryID: food.ID, AmountLimit: core.Cents(45000), Period: march})
	if err != nil {
		t.Fatalf("UpsertBudget() second call error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("UpsertBudget() created a second budget for the same period")
	}
	if second.AmountLimit.Cents != 45000 {
		t.Errorf("UpsertBudget() limit = %d, want %d", second.AmountLimit.Cents, 45000)
	}
	if _, err := s.UpsertBudget(ctx, core.Budget{UserID: "u1", CategoryID: food.ID, AmountLimit: core.Cents(10000), Period: april}); err != nil {
		t.Fatalf("UpsertBudget() april error = %v", err)
	}
	if _, err := s.UpsertBudget(ctx, core.Budget{UserID: "u1", CategoryID: food.ID, AmountLimit: core.Cents(50), Period: april}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("UpsertBudget() tiny limit error = %v, want %v", err, core.ErrInvalidAmount)
	}

	inMarch, err := s.ListBudgets(ctx, "u1", march)
	if err != nil {
		t.Fatalf("ListBudgets() error = %v", err)
	}
	if len(inMarch) != 1 || inMarch[0].AmountLimit.Cents != 45000 {
		t.Errorf("ListBudgets(march) = %+v, want one budget of 45000", inMarch)
	}
	if inMarch[0].Category == nil || inMarch[0].Category.Name != "Comida" {
		t.Errorf("ListBudgets() category = %+v, want Comida", inMarch[0].Category)
	}

	all, err := s.ListBudgets(ctx, "u1", core.Period{})
	if err != nil {
		t.Fatalf("ListBudgets() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListBudgets(all) = %d, want 2", len(all))
	}

	if none, _ := s.ListBudgets(ctx, "u2", core.Period{}); len(none) != 0 {
		t.Errorf("ListBudgets(u2) = %d, want 0", len(none))
	}
}

func testGoals(t *testing.T, s ports.Store) {
	ctx := context.Background()

	goal, err := s.CreateGoal(ctx, core.SavingsGoal{
		UserID:       "u1",
		Name:         "Vacaciones",
		TargetAmount: core.Cents(100000),
		Deadline:     core.NewDate(2025, 1, 1),
	})
	if err != nil {
		t.Fatalf("CreateGoal() error = %v", err)
	}
	if _, err := s.CreateGoal(ctx, core.SavingsGoal{UserID: "u1", Name: "Auto", TargetAmount: core.Cents(500000)}); err != nil {
		t.Fatalf("CreateGoal() without deadline error = %v", err)
	}

	if err := s.UpdateGoalAmount(ctx, "u1", goal.ID, core.Cents(2500)); err != nil {
		t.Fatalf("UpdateGoalAmount() error = %v", err)
	}
	got, err := s.GetGoal(ctx, "u1", goal.ID)
	if err != nil {
		t.Fatalf("GetGoal() error = %v", err)
	}
	if got.CurrentAmount.Cents != 2500 {
		t.Errorf("GetGoal().CurrentAmount = %d, want %d", got.CurrentAmount.Cents, 2500)
	}
	if !got.Deadline.Equal(core.NewDate(2025, 1, 1).Time) {
		t.Errorf("GetGoal().Deadline = %v, want 2025-01-01", got.Deadline)
	}

	if err := s.UpdateGoalAmount(ctx, "u2", goal.ID, core.Cents(1)); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("UpdateGoalAmount() other user error = %v, want %v", err, core.ErrNotFound)
	}

	list, err := s.ListGoals(ctx, "u1")
	if err != nil {
		t.Fatalf("ListGoals() error = %v", err)
	}
	if len(list) != 2 {
		t.Errorf("ListGoals() = %d, want 2", len(list))
	}

	if err := s.DeleteGoal(ctx, "u1", goal.ID); err != nil {
		t.Fatalf("DeleteGoal() error = %v", err)
	}
	if _, err := s.GetGoal(ctx, "u1", goal.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetGoal() after delete error = %v, want %v", err, core.ErrNotFound)
	}
}

func testInvestments(t *testing.T, s ports.Store) {
	ctx := context.Background()

	inv, err := s.CreateInvestment(ctx, core.Investment{
		UserID:         "u1",
		Name:           "Fondo indexado",
		AssetType:      "fund",
		InvestedAmount: core.Cents(100000),
		CurrentValue:   core.Cents(100000),
		Quantity:       decimal.RequireFromString("12.5"),
		PurchaseDate:   core.NewDate(2024, 1, 10),
	})
	if err != nil {
		t.Fatalf("CreateInvestment() error = %v", err)
	}

	if err := s.UpdateInvestmentValue(ctx, "u1", inv.ID, core.Cents(120000)); err != nil {
		t.Fatalf("UpdateInvestmentValue() error = %v", err)
	}
	got, err := s.GetInvestment(ctx, "u1", inv.ID)
	if err != nil {
		t.Fatalf("GetInvestment() error = %v", err)
	}
	if got.CurrentValue.Cents != 120000 {
		t.Errorf("CurrentValue = %d, want %d", got.CurrentValue.Cents, 120000)
	}
	if !got.Quantity.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("Quantity = %s, want 12.5", got.Quantity)
	}

	list, err := s.ListInvestments(ctx, "u1")
	if err != nil || len(list) != 1 {
		t.Fatalf("ListInvestments() = %d, %v; want 1 investment", len(list), err)
	}

	if err := s.DeleteInvestment(ctx, "u2", inv.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteInvestment() other user error = %v, want %v", err, core.ErrNotFound)
	}
	if err := s.DeleteInvestment(ctx, "u1", inv.ID); err != nil {
		t.Fatalf("DeleteInvestment() error = %v", err)
	}
}

func testReminders(t *testing.T, s ports.Store) {
	ctx := context.Background()
	due := core.NewDate(2024, 3, 11)

	reminded, err := s.WasReminded(ctx, "u1", "tx1", due)
	if err != nil {
		t.Fatalf("WasReminded() error = %v", err)
	}
	if reminded {
		t.Fatal("WasReminded() = true before marking")
	}

	if err := s.MarkReminded(ctx, "u1", "tx1", due); err != nil {
		t.Fatalf("MarkReminded() error = %v", err)
	}
	if err := s.MarkReminded(ctx, "u1", "tx1", due); err != nil {
		t.Fatalf("MarkReminded() twice error = %v", err)
	}

	if reminded, _ := s.WasReminded(ctx, "u1", "tx1", due); !reminded {
		t.Error("WasReminded() = false after marking")
	}
	if reminded, _ := s.WasReminded(ctx, "u1", "tx1", due.AddMonths(1)); reminded {
		t.Error("next occurrence must not be marked")
	}
}
