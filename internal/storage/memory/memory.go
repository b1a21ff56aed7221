// Package memory is a process-local implementation of every store port. It backs
// the memory backend and the service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/ports"

	"github.com/google/uuid"
)

type reminderKey struct {
	userID        string
	transactionID string
	dueDate       string
}

type Store struct {
	mu           sync.Mutex
	now          func() time.Time
	categories   map[string]core.Category
	transactions map[string]core.Transaction
	budgets      map[string]core.Budget
	goals        map[string]core.SavingsGoal
	investments  map[string]core.Investment
	reminders    map[reminderKey]struct{}
}

var _ ports.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		now:          time.Now,
		categories:   make(map[string]core.Category),
		transactions: make(map[string]core.Transaction),
		budgets:      make(map[string]core.Budget),
		goals:        make(map[string]core.SavingsGoal),
		investments:  make(map[string]core.Investment),
		reminders:    make(map[reminderKey]struct{}),
	}
}

// WithClock replaces the creation timestamp source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Close() error { return nil }

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
}

// UpsertCategory matches names case-insensitively within the user.
func (s *Store) UpsertCategory(_ context.Context, userID, name string, typ core.CategoryType, icon, color string) (core.Category, error) {
	name = strings.TrimSpace(name)
	c := core.Category{UserID: userID, Name: name, Type: typ, Icon: icon, Color: color}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if existing.UserID == userID && strings.EqualFold(existing.Name, name) {
			return existing, nil
		}
	}
	c.ID = uuid.NewString()
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, 0)
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) category(id string) *core.Category {
	c, ok := s.categories[id]
	if !ok {
		return nil
	}
	return &c
}

func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = s.now().UTC()
	}
	tx.Category = nil
	s.transactions[tx.ID] = tx
	tx.Category = s.category(tx.CategoryID)
	return tx, nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok || tx.UserID != userID {
		return core.Transaction{}, notFound("transaction", id)
	}
	tx.Category = s.category(tx.CategoryID)
	return tx, nil
}

func (s *Store) ListTransactions(_ context.Context, userID string, filter ports.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0)
	for _, tx := range s.transactions {
		if tx.UserID != userID || !filter.Matches(tx) {
			continue
		}
		tx.Category = s.category(tx.CategoryID)
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok || tx.UserID != userID {
		return notFound("transaction", id)
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) UpsertBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.budgets {
		if existing.UserID == b.UserID && existing.CategoryID == b.CategoryID && existing.Period == b.Period {
			existing.AmountLimit = b.AmountLimit
			s.budgets[id] = existing
			existing.Category = s.category(existing.CategoryID)
			return existing, nil
		}
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.Category = nil
	s.budgets[b.ID] = b
	b.Category = s.category(b.CategoryID)
	return b, nil
}

func (s *Store) ListBudgets(_ context.Context, userID string, period core.Period) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Budget, 0)
	for _, b := range s.budgets {
		if b.UserID != userID || (!period.IsZero() && b.Period != period) {
			continue
		}
		b.Category = s.category(b.CategoryID)
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Period != out[j].Period {
			return out[i].Period.String() > out[j].Period.String()
		}
		return out[i].CategoryID < out[j].CategoryID
	})
	return out, nil
}

func (s *Store) CreateGoal(_ context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now().UTC()
	}
	s.goals[g.ID] = g
	return g, nil
}

func (s *Store) GetGoal(_ context.Context, userID, id string) (core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return core.SavingsGoal{}, notFound("goal", id)
	}
	return g, nil
}

func (s *Store) UpdateGoalAmount(_ context.Context, userID, id string, current core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return notFound("goal", id)
	}
	g.CurrentAmount = current
	s.goals[id] = g
	return nil
}

func (s *Store) ListGoals(_ context.Context, userID string) ([]core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.SavingsGoal, 0)
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteGoal(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return notFound("goal", id)
	}
	delete(s.goals, id)
	return nil
}

func (s *Store) CreateInvestment(_ context.Context, inv core.Investment) (core.Investment, error) {
	if err := inv.Validate(); err != nil {
		return core.Investment{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = s.now().UTC()
	}
	s.investments[inv.ID] = inv
	return inv, nil
}

func (s *Store) GetInvestment(_ context.Context, userID, id string) (core.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.investments[id]
	if !ok || inv.UserID != userID {
		return core.Investment{}, notFound("investment", id)
	}
	return inv, nil
}

func (s *Store) UpdateInvestmentValue(_ context.Context, userID, id string, current core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.investments[id]
	if !ok || inv.UserID != userID {
		return notFound("investment", id)
	}
	inv.CurrentValue = current
	s.investments[id] = inv
	return nil
}

func (s *Store) ListInvestments(_ context.Context, userID string) ([]core.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Investment, 0)
	for _, inv := range s.investments {
		if inv.UserID == userID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PurchaseDate.After(out[j].PurchaseDate) })
	return out, nil
}

func (s *Store) DeleteInvestment(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.investments[id]
	if !ok || inv.UserID != userID {
		return notFound("investment", id)
	}
	delete(s.investments, id)
	return nil
}

func (s *Store) WasReminded(_ context.Context, userID, transactionID string, dueDate core.Date) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.reminders[reminderKey{userID, transactionID, dueDate.String()}]
	return ok, nil
}

func (s *Store) MarkReminded(_ context.Context, userID, transactionID string, dueDate core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reminders[reminderKey{userID, transactionID, dueDate.String()}] = struct{}{}
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{})
	users := make([]string, 0)
	for _, tx := range s.transactions {
		if _, ok := seen[tx.UserID]; ok {
			continue
		}
		seen[tx.UserID] = struct{}{}
		users = append(users, tx.UserID)
	}
	sort.Strings(users)
	return users, nil
}
