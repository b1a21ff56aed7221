package services

import (
	"fmt"

	"finanzas/internal/core"

	"github.com/shopspring/decimal"
)

// WarningThreshold is the percentage above which a budget bar turns to warning.
var WarningThreshold = decimal.NewFromInt(80)

// Percentage returns 100 * part / whole clamped to [0, 100]. A non-positive whole
// yields 100 when anything was consumed and 0 otherwise.
func Percentage(part, whole core.Money) decimal.Decimal {
	if whole.Cents <= 0 {
		if part.Cents > 0 {
			return hundred
		}
		return decimal.Zero
	}
	pct := decimal.NewFromInt(part.Cents).Mul(hundred).Div(decimal.NewFromInt(whole.Cents))
	if pct.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(pct, hundred)
}

// BudgetProgress computes the clamped percentage, the unclamped over-limit flag and
// the non-negative remaining amount.
func BudgetProgress(spent, limit core.Money) core.Progress {
	remaining := limit.Sub(spent)
	if remaining.Cents < 0 {
		remaining = core.Money{}
	}
	return core.Progress{
		Percentage:  Percentage(spent, limit),
		IsOverLimit: spent.Cents > limit.Cents,
		Remaining:   remaining,
	}
}

// Level classifies a progress for display.
func Level(p core.Progress) core.ProgressLevel {
	switch {
	case p.IsOverLimit:
		return core.LevelOver
	case p.Percentage.GreaterThan(WarningThreshold):
		return core.LevelWarning
	default:
		return core.LevelOK
	}
}

// BudgetWithProgress derives spending of a budget from the given transactions.
func BudgetWithProgress(budget core.Budget, transactions []core.Transaction) core.BudgetProgress {
	spent := SpentInPeriod(transactions, budget.CategoryID, budget.Period)
	progress := BudgetProgress(spent, budget.AmountLimit)
	return core.BudgetProgress{
		Budget:   budget,
		Spent:    spent,
		Progress: progress,
		Level:    Level(progress),
	}
}

// GoalProgress applies the budget formula to a savings goal. The goal is completed
// exactly when the clamped percentage reaches 100.
func GoalProgress(goal core.SavingsGoal) core.GoalProgress {
	p := BudgetProgress(goal.CurrentAmount, goal.TargetAmount)
	return core.GoalProgress{
		Goal:        goal,
		Percentage:  p.Percentage,
		IsCompleted: p.Percentage.Equal(hundred),
		Remaining:   p.Remaining,
	}
}

// ApplyDelta returns the goal's current amount after a deposit or withdrawal.
// A withdrawal larger than the current amount is rejected with ErrInsufficientFunds
// and the goal is left untouched.
func ApplyDelta(goal core.SavingsGoal, amount core.Money, direction core.Direction) (core.Money, error) {
	if err := amount.Validate(); err != nil {
		return goal.CurrentAmount, err
	}
	switch direction {
	case core.Deposit:
		return goal.CurrentAmount.Add(amount), nil
	case core.Withdraw:
		if amount.Cents > goal.CurrentAmount.Cents {
			return goal.CurrentAmount, fmt.Errorf("%w: current %s, requested %s",
				core.ErrInsufficientFunds, goal.CurrentAmount, amount)
		}
		return goal.CurrentAmount.Sub(amount), nil
	default:
		return goal.CurrentAmount, fmt.Errorf("%w: %q", core.ErrInvalidDirection, direction)
	}
}

// InvestmentReturn computes the gain and its percentage over the invested amount.
// A zero invested amount has no defined percentage and yields ErrInvalidAmount.
func InvestmentReturn(invested, current core.Money) (core.InvestmentReturn, error) {
	if invested.Cents == 0 {
		return core.InvestmentReturn{}, fmt.Errorf("%w: invested amount is zero", core.ErrInvalidAmount)
	}
	diff := current.Sub(invested)
	pct := decimal.NewFromInt(diff.Cents).Mul(hundred).Div(decimal.NewFromInt(invested.Cents))
	return core.InvestmentReturn{Diff: diff, Percentage: pct}, nil
}

// PortfolioOf derives the return of every holding and of the whole portfolio.
// Holdings with nothing invested are reported with a zero return.
func PortfolioOf(investments []core.Investment) core.Portfolio {
	portfolio := core.Portfolio{Holdings: make([]core.Holding, 0, len(investments))}
	for _, inv := range investments {
		ret, err := InvestmentReturn(inv.InvestedAmount, inv.CurrentValue)
		if err != nil {
			ret = core.InvestmentReturn{Diff: inv.CurrentValue.Sub(inv.InvestedAmount), Percentage: decimal.Zero}
		}
		portfolio.Holdings = append(portfolio.Holdings, core.Holding{Investment: inv, InvestmentReturn: ret})
		portfolio.TotalInvested = portfolio.TotalInvested.Add(inv.InvestedAmount)
		portfolio.TotalValue = portfolio.TotalValue.Add(inv.CurrentValue)
	}
	if ret, err := InvestmentReturn(portfolio.TotalInvested, portfolio.TotalValue); err == nil {
		portfolio.Return = ret
	}
	return portfolio
}
