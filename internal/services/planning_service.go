package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"finanzas/internal/core"
	"finanzas/internal/ports"
)

// PlanningStore is the persistence PlanningService needs.
type PlanningStore interface {
	ports.CategoryStore
	ports.TransactionStore
	ports.BudgetStore
	ports.GoalStore
	ports.InvestmentStore
}

// BudgetInput sets the monthly limit of a category by name.
type BudgetInput struct {
	Category    string      `json:"category"`
	AmountLimit core.Money  `json:"amount_limit"`
	Period      core.Period `json:"period"`
}

// GoalInput creates a savings goal.
type GoalInput struct {
	Name          string     `json:"name"`
	TargetAmount  core.Money `json:"target_amount"`
	CurrentAmount core.Money `json:"current_amount"`
	Deadline      core.Date  `json:"deadline"`
}

// InvestmentInput creates a holding.
type InvestmentInput struct {
	Name           string          `json:"name"`
	AssetType      string          `json:"asset_type"`
	InvestedAmount core.Money      `json:"invested_amount"`
	CurrentValue   core.Money      `json:"current_value"`
	Quantity       decimal.Decimal `json:"quantity"`
	PurchaseDate   core.Date       `json:"purchase_date"`
}

// PlanningService manages budgets, savings goals and investments.
type PlanningService struct {
	store       PlanningStore
	invalidator Invalidator
}

func NewPlanningService(store PlanningStore, invalidator Invalidator) *PlanningService {
	return &PlanningService{store: store, invalidator: invalidator}
}

// SetBudget creates or replaces the budget of a category for a period. The category is
// created as an expense category when the user has none with that name.
func (s *PlanningService) SetBudget(ctx context.Context, userID string, in BudgetInput) (core.Budget, error) {
	if userID == "" {
		return core.Budget{}, core.ErrMissingUser
	}
	budget := core.Budget{UserID: userID, AmountLimit: in.AmountLimit, Period: in.Period}
	var errs core.ValidationErrors
	if v, ok := core.AsValidation(budget.Validate()); ok {
		errs = append(errs, v...)
	}
	if strings.TrimSpace(in.Category) == "" {
		errs.Add("category", core.ErrEmptyCategory)
	}
	if err := errs.OrNil(); err != nil {
		return core.Budget{}, err
	}

	category, err := s.store.UpsertCategory(ctx, userID, strings.TrimSpace(in.Category),
		core.ExpenseCategory, core.DefaultBudgetIcon, core.DefaultCategoryColor)
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert category: %w", err)
	}
	budget.CategoryID = category.ID

	saved, err := s.store.UpsertBudget(ctx, budget)
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	if saved.Category == nil {
		saved.Category = &category
	}
	s.invalidate(userID)

	slog.InfoContext(ctx, "Budget set",
		"user_id", userID,
		"category", category.Name,
		"period", saved.Period.String(),
		"amount_cents", saved.AmountLimit.Cents)
	return saved, nil
}

// BudgetsWithProgress returns the budgets of period with the spending of each
// category over the whole calendar month.
func (s *PlanningService) BudgetsWithProgress(ctx context.Context, userID string, period core.Period) ([]core.BudgetProgress, error) {
	if userID == "" {
		return nil, core.ErrMissingUser
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}
	budgets, err := s.store.ListBudgets(ctx, userID, period)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	txs, err := s.store.ListTransactions(ctx, userID, ports.TransactionFilter{From: period.Start(), To: period.End()})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	out := make([]core.BudgetProgress, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, BudgetWithProgress(b, txs))
	}
	return out, nil
}

// CreateGoal stores a new savings goal.
func (s *PlanningService) CreateGoal(ctx context.Context, userID string, in GoalInput) (core.GoalProgress, error) {
	if userID == "" {
		return core.GoalProgress{}, core.ErrMissingUser
	}
	goal := core.SavingsGoal{
		UserID:        userID,
		Name:          strings.TrimSpace(in.Name),
		TargetAmount:  in.TargetAmount,
		CurrentAmount: in.CurrentAmount,
		Deadline:      in.Deadline,
	}
	if err := goal.Validate(); err != nil {
		return core.GoalProgress{}, err
	}
	created, err := s.store.CreateGoal(ctx, goal)
	if err != nil {
		return core.GoalProgress{}, fmt.Errorf("save goal: %w", err)
	}
	s.invalidate(userID)
	return GoalProgress(created), nil
}

// Goals returns every goal of the user with its progress.
func (s *PlanningService) Goals(ctx context.Context, userID string) ([]core.GoalProgress, error) {
	if userID == "" {
		return nil, core.ErrMissingUser
	}
	goals, err := s.store.ListGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	out := make([]core.GoalProgress, 0, len(goals))
	for _, g := range goals {
		out = append(out, GoalProgress(g))
	}
	return out, nil
}

// MoveGoalFunds deposits into or withdraws from a goal. A rejected movement leaves the
// stored amount untouched.
func (s *PlanningService) MoveGoalFunds(ctx context.Context, userID, goalID string, amount core.Money, direction core.Direction) (core.GoalProgress, error) {
	if userID == "" {
		return core.GoalProgress{}, core.ErrMissingUser
	}
	goal, err := s.store.GetGoal(ctx, userID, goalID)
	if err != nil {
		return core.GoalProgress{}, fmt.Errorf("get goal: %w", err)
	}
	current, err := ApplyDelta(goal, amount, direction)
	if err != nil {
		return core.GoalProgress{}, err
	}
	if err := s.store.UpdateGoalAmount(ctx, userID, goalID, current); err != nil {
		return core.GoalProgress{}, fmt.Errorf("update goal: %w", err)
	}
	goal.CurrentAmount = current
	s.invalidate(userID)

	slog.InfoContext(ctx, "Goal funds moved",
		"user_id", userID,
		"goal_id", goalID,
		"direction", direction,
		"amount_cents", amount.Cents,
		"current_cents", current.Cents)
	return GoalProgress(goal), nil
}

// Deposit adds amount to a goal.
func (s *PlanningService) Deposit(ctx context.Context, userID, goalID string, amount core.Money) (core.GoalProgress, error) {
	return s.MoveGoalFunds(ctx, userID, goalID, amount, core.Deposit)
}

// Withdraw takes amount out of a goal.
func (s *PlanningService) Withdraw(ctx context.Context, userID, goalID string, amount core.Money) (core.GoalProgress, error) {
	return s.MoveGoalFunds(ctx, userID, goalID, amount, core.Withdraw)
}

func (s *PlanningService) DeleteGoal(ctx context.Context, userID, goalID string) error {
	if userID == "" {
		return core.ErrMissingUser
	}
	if err := s.store.DeleteGoal(ctx, userID, goalID); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	s.invalidate(userID)
	return nil
}

// CreateInvestment stores a new holding.
func (s *PlanningService) CreateInvestment(ctx context.Context, userID string, in InvestmentInput) (core.Holding, error) {
	if userID == "" {
		return core.Holding{}, core.ErrMissingUser
	}
	inv := core.Investment{
		UserID:         userID,
		Name:           strings.TrimSpace(in.Name),
		AssetType:      strings.TrimSpace(in.AssetType),
		InvestedAmount: in.InvestedAmount,
		CurrentValue:   in.CurrentValue,
		Quantity:       in.Quantity,
		PurchaseDate:   in.PurchaseDate,
	}
	if err := inv.Validate(); err != nil {
		return core.Holding{}, err
	}
	created, err := s.store.CreateInvestment(ctx, inv)
	if err != nil {
		return core.Holding{}, fmt.Errorf("save investment: %w", err)
	}
	s.invalidate(userID)
	return holdingOf(created), nil
}

// UpdateInvestmentValue records the current market value of a holding.
func (s *PlanningService) UpdateInvestmentValue(ctx context.Context, userID, id string, current core.Money) (core.Holding, error) {
	if userID == "" {
		return core.Holding{}, core.ErrMissingUser
	}
	if current.Cents < 0 {
		var errs core.ValidationErrors
		errs.Add("current_value", core.ErrInvalidAmount)
		return core.Holding{}, errs
	}
	if err := s.store.UpdateInvestmentValue(ctx, userID, id, current); err != nil {
		return core.Holding{}, fmt.Errorf("update investment: %w", err)
	}
	inv, err := s.store.GetInvestment(ctx, userID, id)
	if err != nil {
		return core.Holding{}, fmt.Errorf("get investment: %w", err)
	}
	s.invalidate(userID)
	return holdingOf(inv), nil
}

func (s *PlanningService) DeleteInvestment(ctx context.Context, userID, id string) error {
	if userID == "" {
		return core.ErrMissingUser
	}
	if err := s.store.DeleteInvestment(ctx, userID, id); err != nil {
		return fmt.Errorf("delete investment: %w", err)
	}
	s.invalidate(userID)
	return nil
}

// Portfolio returns every holding of the user with per-holding and total returns.
func (s *PlanningService) Portfolio(ctx context.Context, userID string) (core.Portfolio, error) {
	if userID == "" {
		return core.Portfolio{}, core.ErrMissingUser
	}
	investments, err := s.store.ListInvestments(ctx, userID)
	if err != nil {
		return core.Portfolio{}, fmt.Errorf("list investments: %w", err)
	}
	return PortfolioOf(investments), nil
}

func holdingOf(inv core.Investment) core.Holding {
	return PortfolioOf([]core.Investment{inv}).Holdings[0]
}

func (s *PlanningService) invalidate(userID string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(userID)
	}
}
