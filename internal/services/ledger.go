// Package services provides business logic and orchestration services.
//
// This file holds the ledger aggregations: totals, running balance and the monthly
// category history. All of them are pure over the slice they receive.
package services

import (
	"sort"

	"finanzas/internal/core"

	"github.com/shopspring/decimal"
)

const (
	// CategoryHistoryMonths is how many trailing months the stacked history keeps.
	CategoryHistoryMonths = 6
	// RecentTransactionsLimit is the size of the recent activity list.
	RecentTransactionsLimit = 5
)

var hundred = decimal.NewFromInt(100)

// Aggregate reduces transactions into totals, savings rate and per-category expenses.
// Categories appear in first-seen order.
func Aggregate(transactions []core.Transaction) core.LedgerSummary {
	var income, expenses int64
	byCategory := make([]core.CategoryAmount, 0)
	index := make(map[string]int)

	for _, tx := range transactions {
		switch {
		case tx.Type == core.Income:
			income += tx.Amount.Cents
		case tx.Type.IsExpense():
			expenses += tx.Amount.Cents
			name := tx.CategoryName(core.FallbackExpenseCategory)
			i, ok := index[name]
			if !ok {
				i = len(byCategory)
				index[name] = i
				byCategory = append(byCategory, core.CategoryAmount{Name: name})
			}
			byCategory[i].Amount.Cents += tx.Amount.Cents
		}
	}

	balance := income - expenses
	return core.LedgerSummary{
		TotalIncome:       core.Cents(income),
		TotalExpenses:     core.Cents(expenses),
		TotalBalance:      core.Cents(balance),
		SavingsRate:       SavingsRate(core.Cents(income), core.Cents(balance)),
		ExpenseByCategory: byCategory,
	}
}

// SavingsRate returns 100 * balance / income, or zero when there is no income.
func SavingsRate(income, balance core.Money) decimal.Decimal {
	if income.Cents == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(balance.Cents).Mul(hundred).Div(decimal.NewFromInt(income.Cents))
}

// RunningBalance walks transactions in ascending date order accumulating the signed
// amount. Several transactions on the same day collapse into one point holding the
// balance after the last of them.
func RunningBalance(transactions []core.Transaction) []core.BalancePoint {
	sorted := sortedByDate(transactions)
	points := make([]core.BalancePoint, 0, len(sorted))

	var balance int64
	for _, tx := range sorted {
		balance += tx.SignedCents()
		day := core.DateOf(tx.Date.Time)
		if n := len(points); n > 0 && points[n-1].Date.Equal(day.Time) {
			points[n-1].Balance = core.Cents(balance)
			continue
		}
		points = append(points, core.BalancePoint{Date: day, Balance: core.Cents(balance)})
	}
	return points
}

// MonthlyCategoryHistory buckets expenses by month start and category, keeping only the
// most recent months in ascending order. Months without expenses are absent.
func MonthlyCategoryHistory(transactions []core.Transaction) core.CategoryHistory {
	buckets := make(map[core.Date]map[string]core.Money)
	categories := make([]string, 0)
	seen := make(map[string]struct{})

	for _, tx := range sortedByDate(transactions) {
		if !tx.Type.IsExpense() {
			continue
		}
		month := tx.Date.MonthStart()
		name := tx.CategoryName(core.FallbackExpenseCategory)
		if buckets[month] == nil {
			buckets[month] = make(map[string]core.Money)
		}
		buckets[month][name] = buckets[month][name].Add(tx.Amount)
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			categories = append(categories, name)
		}
	}

	months := make([]core.MonthBucket, 0, len(buckets))
	for month, amounts := range buckets {
		months = append(months, core.MonthBucket{Month: month, Amounts: amounts})
	}
	sort.Slice(months, func(i, j int) bool {
		return months[i].Month.Before(months[j].Month)
	})
	if len(months) > CategoryHistoryMonths {
		months = months[len(months)-CategoryHistoryMonths:]
	}

	return core.CategoryHistory{Months: months, Categories: categories}
}

// RecentTransactions returns up to limit transactions, newest date first. Same-day
// entries are ordered by creation time, newest first.
func RecentTransactions(transactions []core.Transaction, limit int) []core.Transaction {
	sorted := make([]core.Transaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date.Time) {
			return sorted[i].Date.After(sorted[j].Date)
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// SpentInPeriod sums the transactions of a category dated inside period.
func SpentInPeriod(transactions []core.Transaction, categoryID string, period core.Period) core.Money {
	var spent core.Money
	for _, tx := range transactions {
		if tx.CategoryID == categoryID && period.Contains(tx.Date) {
			spent = spent.Add(tx.Amount)
		}
	}
	return spent
}

// sortedByDate returns an ascending copy; ties keep their input order.
func sortedByDate(transactions []core.Transaction) []core.Transaction {
	sorted := make([]core.Transaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}
