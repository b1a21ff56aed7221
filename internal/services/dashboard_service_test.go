package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"finanzas/internal/cache"
	"finanzas/internal/core"
	"finanzas/internal/storage/memory"
)

func TestDashboardService_Dashboard(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	dashboards := NewDashboardService(store, cache.NewOwnerLRU[core.Dashboard](10, time.Minute))
	transactions := NewTransactionService(store, nil, dashboards)
	planning := NewPlanningService(store, dashboards)
	today := core.NewDate(2024, 3, 15)

	inputs := []TransactionInput{
		{Amount: core.Cents(300000), Description: "Nómina", Date: core.NewDate(2024, 3, 1), Type: core.Income, Frequency: core.Monthly, Category: "Salario"},
		{Amount: core.Cents(80000), Description: "Alquiler", Date: core.NewDate(2024, 1, 17), Type: core.FixedExpense, Frequency: core.Monthly, Category: "Vivienda"},
		{Amount: core.Cents(4550), Description: "Supermercado", Date: core.NewDate(2024, 3, 10), Type: core.VariableExpense, Frequency: core.OneTime, Category: "Comida"},
	}
	for _, in := range inputs {
		if _, err := transactions.CreateTransaction(ctx, "user-1", in); err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
	}
	if _, err := planning.SetBudget(ctx, "user-1", BudgetInput{Category: "Comida", AmountLimit: core.Cents(10000), Period: core.PeriodOf(today)}); err != nil {
		t.Fatalf("SetBudget() error = %v", err)
	}

	d, err := dashboards.Dashboard(ctx, "user-1", today)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if d.Summary.TotalBalance.Cents != 300000-80000-4550 {
		t.Errorf("TotalBalance = %d, want %d", d.Summary.TotalBalance.Cents, 300000-80000-4550)
	}
	if len(d.Recent) != 3 || d.Recent[0].Description != "Supermercado" {
		t.Errorf("Recent = %+v, want newest first", d.Recent)
	}
	if len(d.Upcoming) != 1 || d.Upcoming[0].NextDate != core.NewDate(2024, 3, 17) || !d.Upcoming[0].Urgent {
		t.Errorf("Upcoming = %+v, want rent on 2024-03-17", d.Upcoming)
	}
	if len(d.Budgets) != 1 || d.Budgets[0].Spent.Cents != 4550 {
		t.Errorf("Budgets = %+v, want Comida spent 4550", d.Budgets)
	}
	if got := d.BalanceHistory[len(d.BalanceHistory)-1].Balance; got != d.Summary.TotalBalance {
		t.Errorf("last balance = %v, want %v", got, d.Summary.TotalBalance)
	}
}

func TestDashboardService_Cache(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	dashboards := NewDashboardService(store, cache.NewOwnerLRU[core.Dashboard](10, time.Minute))
	today := core.NewDate(2024, 3, 15)

	add := func() {
		tx := newTx("", core.Income, 1000, today, "")
		tx.UserID = "user-1"
		if _, err := store.CreateTransaction(ctx, tx); err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
	}

	add()
	first, err := dashboards.Dashboard(ctx, "user-1", today)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}

	// Written behind the service's back: the cached view is still served
	add()
	cached, _ := dashboards.Dashboard(ctx, "user-1", today)
	if cached.Summary.TotalIncome != first.Summary.TotalIncome {
		t.Errorf("cached income = %v, want %v", cached.Summary.TotalIncome, first.Summary.TotalIncome)
	}

	// Another day is a different key
	tomorrow, _ := dashboards.Dashboard(ctx, "user-1", core.NewDate(2024, 3, 16))
	if tomorrow.Summary.TotalIncome.Cents != 2000 {
		t.Errorf("next day income = %d, want 2000", tomorrow.Summary.TotalIncome.Cents)
	}

	dashboards.Invalidate("user-1")
	fresh, _ := dashboards.Dashboard(ctx, "user-1", today)
	if fresh.Summary.TotalIncome.Cents != 2000 {
		t.Errorf("fresh income = %d, want 2000", fresh.Summary.TotalIncome.Cents)
	}
}

func TestDashboardService_MissingUser(t *testing.T) {
	dashboards := NewDashboardService(memory.New(), nil)
	if _, err := dashboards.Dashboard(context.Background(), "", core.NewDate(2024, 3, 15)); !errors.Is(err, core.ErrMissingUser) {
		t.Errorf("Dashboard() error = %v, want ErrMissingUser", err)
	}
}

func TestBuildDashboard_Empty(t *testing.T) {
	d := BuildDashboard(nil, nil, nil, nil, core.NewDate(2024, 3, 15))
	if !d.Summary.TotalBalance.IsZero() || len(d.Recent) != 0 || len(d.Upcoming) != 0 {
		t.Errorf("BuildDashboard(empty) = %+v", d)
	}
	if d.Budgets == nil || d.Goals == nil {
		t.Error("BuildDashboard(empty) should return empty, non-nil lists")
	}
}
