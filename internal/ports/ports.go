// Package ports defines the data-access contracts the services depend on.
//
// Every operation is scoped by an explicit user ID; rows that belong to another
// user behave as if they did not exist.
package ports

import (
	"context"

	"finanzas/internal/core"
)

// TransactionFilter narrows a transaction listing. Zero fields match everything.
type TransactionFilter struct {
	From       core.Date
	To         core.Date
	Type       core.TransactionType
	CategoryID string
}

// Matches reports whether tx satisfies the filter. Bounds are inclusive.
func (f TransactionFilter) Matches(tx core.Transaction) bool {
	if !f.From.IsEmpty() && tx.Date.Before(f.From) {
		return false
	}
	if !f.To.IsEmpty() && tx.Date.After(f.To) {
		return false
	}
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if f.CategoryID != "" && tx.CategoryID != f.CategoryID {
		return false
	}
	return true
}

// CategoryStore owns the per-user category list.
type CategoryStore interface {
	// UpsertCategory returns the user's category with that name, creating it with the
	// given type, icon and color when absent.
	UpsertCategory(ctx context.Context, userID, name string, typ core.CategoryType, icon, color string) (core.Category, error)
	ListCategories(ctx context.Context, userID string) ([]core.Category, error)
}

// TransactionStore persists transactions. Listings are ordered by date descending and
// carry the embedded category.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]core.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) error
}

// BudgetStore persists budgets, unique per user, category and period.
type BudgetStore interface {
	UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	// ListBudgets returns every budget of the user, or only those of period when it is
	// not zero.
	ListBudgets(ctx context.Context, userID string, period core.Period) ([]core.Budget, error)
}

// GoalStore persists savings goals.
type GoalStore interface {
	CreateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error)
	GetGoal(ctx context.Context, userID, id string) (core.SavingsGoal, error)
	UpdateGoalAmount(ctx context.Context, userID, id string, current core.Money) error
	ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error)
	DeleteGoal(ctx context.Context, userID, id string) error
}

// InvestmentStore persists investment holdings.
type InvestmentStore interface {
	CreateInvestment(ctx context.Context, inv core.Investment) (core.Investment, error)
	GetInvestment(ctx context.Context, userID, id string) (core.Investment, error)
	UpdateInvestmentValue(ctx context.Context, userID, id string, current core.Money) error
	ListInvestments(ctx context.Context, userID string) ([]core.Investment, error)
	DeleteInvestment(ctx context.Context, userID, id string) error
}

// ReminderStore remembers which payment occurrences were already announced.
type ReminderStore interface {
	// WasReminded reports whether the occurrence of transactionID due on dueDate was
	// already announced.
	WasReminded(ctx context.Context, userID, transactionID string, dueDate core.Date) (bool, error)
	MarkReminded(ctx context.Context, userID, transactionID string, dueDate core.Date) error
	// ListUsers returns every user owning at least one transaction.
	ListUsers(ctx context.Context) ([]string, error)
}

// Store is the full persistence surface one backend provides.
type Store interface {
	CategoryStore
	TransactionStore
	BudgetStore
	GoalStore
	InvestmentStore
	ReminderStore
	Close() error
}
