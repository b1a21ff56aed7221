package services

import (
	"testing"
	"time"

	"finanzas/internal/core"

	"github.com/shopspring/decimal"
)

func newTx(id string, typ core.TransactionType, cents int64, date core.Date, category string) core.Transaction {
	t := core.Transaction{
		ID:          id,
		Amount:      core.Cents(cents),
		Description: "Transaction " + id,
		Date:        date,
		Type:        typ,
		Frequency:   core.OneTime,
	}
	if category != "" {
		t.Category = &core.Category{Name: category}
	}
	return t
}

func TestAggregate(t *testing.T) {
	txs := []core.Transaction{
		newTx("1", core.Income, 100000, core.NewDate(2024, 3, 1), "Salario"),
		newTx("2", core.FixedExpense, 30000, core.NewDate(2024, 3, 2), "Vivienda"),
		newTx("3", core.VariableExpense, 5000, core.NewDate(2024, 3, 3), "Comida"),
		newTx("4", core.VariableExpense, 2500, core.NewDate(2024, 3, 4), "Vivienda"),
		newTx("5", core.VariableExpense, 1000, core.NewDate(2024, 3, 5), ""),
	}

	got := Aggregate(txs)

	if got.TotalIncome.Cents != 100000 {
		t.Errorf("TotalIncome = %d, want %d", got.TotalIncome.Cents, 100000)
	}
	if got.TotalExpenses.Cents != 38500 {
		t.Errorf("TotalExpenses = %d, want %d", got.TotalExpenses.Cents, 38500)
	}
	if got.TotalBalance.Cents != got.TotalIncome.Cents-got.TotalExpenses.Cents {
		t.Errorf("TotalBalance = %d, want income - expenses", got.TotalBalance.Cents)
	}
	if want := decimal.RequireFromString("61.5"); !got.SavingsRate.Equal(want) {
		t.Errorf("SavingsRate = %s, want %s", got.SavingsRate, want)
	}

	wantCategories := []core.CategoryAmount{
		{Name: "Vivienda", Amount: core.Cents(32500)},
		{Name: "Comida", Amount: core.Cents(5000)},
		{Name: core.FallbackExpenseCategory, Amount: core.Cents(1000)},
	}
	if len(got.ExpenseByCategory) != len(wantCategories) {
		t.Fatalf("ExpenseByCategory has %d entries, want %d", len(got.ExpenseByCategory), len(wantCategories))
	}
	for i, want := range wantCategories {
		if got.ExpenseByCategory[i] != want {
			t.Errorf("ExpenseByCategory[%d] = %+v, want %+v", i, got.ExpenseByCategory[i], want)
		}
	}
}

func TestAggregate_NoIncome(t *testing.T) {
	tests := []struct {
		name string
		txs  []core.Transaction
	}{
		{"empty", nil},
		{"only expenses", []core.Transaction{newTx("1", core.VariableExpense, 500, core.NewDate(2024, 1, 1), "Ocio")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.txs)
			if !got.SavingsRate.IsZero() {
				t.Errorf("SavingsRate = %s, want 0", got.SavingsRate)
			}
			if got.TotalBalance.Cents != -got.TotalExpenses.Cents {
				t.Errorf("TotalBalance = %d, want %d", got.TotalBalance.Cents, -got.TotalExpenses.Cents)
			}
		})
	}
}

func TestSavingsRate_Negative(t *testing.T) {
	got := SavingsRate(core.Cents(1000), core.Cents(-500))
	if want := decimal.NewFromInt(-50); !got.Equal(want) {
		t.Errorf("SavingsRate() = %s, want %s", got, want)
	}
}

func TestRunningBalance(t *testing.T) {
	txs := []core.Transaction{
		newTx("3", core.VariableExpense, 2000, core.NewDate(2024, 3, 5), "Comida"),
		newTx("1", core.Income, 10000, core.NewDate(2024, 3, 1), "Salario"),
		newTx("2", core.FixedExpense, 3000, core.NewDate(2024, 3, 1), "Vivienda"),
		newTx("4", core.Income, 500, core.NewDate(2024, 3, 7), "Regalos"),
	}

	got := RunningBalance(txs)

	want := []core.BalancePoint{
		{Date: core.NewDate(2024, 3, 1), Balance: core.Cents(7000)},
		{Date: core.NewDate(2024, 3, 5), Balance: core.Cents(5000)},
		{Date: core.NewDate(2024, 3, 7), Balance: core.Cents(5500)},
	}
	if len(got) != len(want) {
		t.Fatalf("RunningBalance() returned %d points, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Date.Equal(want[i].Date.Time) || got[i].Balance != want[i].Balance {
			t.Errorf("RunningBalance()[%d] = %v/%d, want %v/%d",
				i, got[i].Date, got[i].Balance.Cents, want[i].Date, want[i].Balance.Cents)
		}
	}

	summary := Aggregate(txs)
	if last := got[len(got)-1].Balance; last != summary.TotalBalance {
		t.Errorf("last balance = %d, want total balance %d", last.Cents, summary.TotalBalance.Cents)
	}
}

func TestRunningBalance_Empty(t *testing.T) {
	if got := RunningBalance(nil); len(got) != 0 {
		t.Errorf("RunningBalance(nil) = %v, want empty", got)
	}
}

func TestMonthlyCategoryHistory(t *testing.T) {
	var txs []core.Transaction
	for m := 1; m <= 8; m++ {
		txs = append(txs, newTx("e", core.VariableExpense, int64(m*100), core.NewDate(2024, m, 10), "Comida"))
	}
	txs = append(txs,
		newTx("r", core.FixedExpense, 700, core.NewDate(2024, 8, 1), "Vivienda"),
		newTx("x", core.VariableExpense, 50, core.NewDate(2024, 8, 20), "Comida"),
		newTx("i", core.Income, 99999, core.NewDate(2024, 8, 1), "Salario"),
	)

	got := MonthlyCategoryHistory(txs)

	if len(got.Months) != CategoryHistoryMonths {
		t.Fatalf("MonthlyCategoryHistory() returned %d months, want %d", len(got.Months), CategoryHistoryMonths)
	}
	if first := got.Months[0].Month; !first.Equal(core.NewDate(2024, 3, 1).Time) {
		t.Errorf("first month = %v, want 2024-03-01", first)
	}
	for i := 1; i < len(got.Months); i++ {
		if !got.Months[i-1].Month.Before(got.Months[i].Month) {
			t.Errorf("months not ascending at %d", i)
		}
	}

	last := got.Months[len(got.Months)-1]
	if c := last.Amounts["Comida"].Cents; c != 850 {
		t.Errorf("August Comida = %d, want %d", c, 850)
	}
	if c := last.Amounts["Vivienda"].Cents; c != 700 {
		t.Errorf("August Vivienda = %d, want %d", c, 700)
	}
	if _, ok := last.Amounts["Salario"]; ok {
		t.Error("income must not appear in the category history")
	}

	wantCategories := []string{"Comida", "Vivienda"}
	if len(got.Categories) != len(wantCategories) {
		t.Fatalf("Categories = %v, want %v", got.Categories, wantCategories)
	}
	for i := range wantCategories {
		if got.Categories[i] != wantCategories[i] {
			t.Errorf("Categories[%d] = %s, want %s", i, got.Categories[i], wantCategories[i])
		}
	}
}

func TestRecentTransactions(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		newTx("old", core.Income, 100, core.NewDate(2024, 1, 1), ""),
		newTx("a", core.Income, 100, core.NewDate(2024, 3, 1), ""),
		newTx("b", core.Income, 100, core.NewDate(2024, 3, 1), ""),
		newTx("new", core.Income, 100, core.NewDate(2024, 3, 9), ""),
	}
	txs[1].CreatedAt = base
	txs[2].CreatedAt = base.Add(time.Minute)

	got := RecentTransactions(txs, 3)

	want := []string{"new", "b", "a"}
	if len(got) != len(want) {
		t.Fatalf("RecentTransactions() returned %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("RecentTransactions()[%d] = %s, want %s", i, got[i].ID, want[i])
		}
	}
	if txs[0].ID != "old" {
		t.Error("RecentTransactions must not reorder its input")
	}
}

func TestSpentInPeriod(t *testing.T) {
	txs := []core.Transaction{
		{CategoryID: "food", Amount: core.Cents(1000), Date: core.NewDate(2024, 3, 1)},
		{CategoryID: "food", Amount: core.Cents(2000), Date: core.NewDate(2024, 3, 31)},
		{CategoryID: "food", Amount: core.Cents(4000), Date: core.NewDate(2024, 4, 1)},
		{CategoryID: "rent", Amount: core.Cents(8000), Date: core.NewDate(2024, 3, 15)},
	}
	period := core.Period{Year: 2024, Month: time.March}

	if got := SpentInPeriod(txs, "food", period); got.Cents != 3000 {
		t.Errorf("SpentInPeriod(food) = %d, want %d", got.Cents, 3000)
	}
	if got := SpentInPeriod(txs, "none", period); !got.IsZero() {
		t.Errorf("SpentInPeriod(none) = %d, want 0", got.Cents)
	}
}
