package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"finanzas/internal/cache"
	"finanzas/internal/core"
	"finanzas/internal/metrics"
	"finanzas/internal/ports"
)

// DashboardStore is the persistence DashboardService reads.
type DashboardStore interface {
	ports.TransactionStore
	ports.BudgetStore
	ports.GoalStore
	ports.InvestmentStore
}

// DashboardService assembles the home screen of a user. Results are cached per user
// and day until a write invalidates them.
type DashboardService struct {
	store DashboardStore
	cache cache.Cache[core.Dashboard]
}

// NewDashboardService wires the service. A nil cache disables caching.
func NewDashboardService(store DashboardStore, c cache.Cache[core.Dashboard]) *DashboardService {
	return &DashboardService{store: store, cache: c}
}

// Invalidate drops every cached dashboard of the user.
func (s *DashboardService) Invalidate(userID string) {
	if s.cache == nil {
		return
	}
	if n := s.cache.Invalidate(userID); n > 0 {
		slog.Debug("Dashboard cache invalidated", "user_id", userID, "entries", n)
	}
}

// Dashboard loads the user's ledger, budgets for today's month, goals and investments
// concurrently and derives every dashboard view from them.
func (s *DashboardService) Dashboard(ctx context.Context, userID string, today core.Date) (core.Dashboard, error) {
	if userID == "" {
		return core.Dashboard{}, core.ErrMissingUser
	}
	day := today.String()
	if s.cache != nil {
		if d, ok := s.cache.Get(userID, day); ok {
			metrics.DashboardCache.WithLabelValues("hit").Inc()
			slog.DebugContext(ctx, "Dashboard cache hit", "user_id", userID)
			return d, nil
		}
		metrics.DashboardCache.WithLabelValues("miss").Inc()
	}

	var (
		txs         []core.Transaction
		budgets     []core.Budget
		goals       []core.SavingsGoal
		investments []core.Investment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.store.ListTransactions(gctx, userID, ports.TransactionFilter{})
		if err != nil {
			return fmt.Errorf("list transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		budgets, err = s.store.ListBudgets(gctx, userID, core.PeriodOf(today))
		if err != nil {
			return fmt.Errorf("list budgets: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		goals, err = s.store.ListGoals(gctx, userID)
		if err != nil {
			return fmt.Errorf("list goals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		investments, err = s.store.ListInvestments(gctx, userID)
		if err != nil {
			return fmt.Errorf("list investments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.Dashboard{}, err
	}

	d := BuildDashboard(txs, budgets, goals, investments, today)
	if s.cache != nil {
		s.cache.Put(userID, day, d)
	}
	return d, nil
}

// BuildDashboard derives the dashboard from already loaded records.
func BuildDashboard(txs []core.Transaction, budgets []core.Budget, goals []core.SavingsGoal, investments []core.Investment, today core.Date) core.Dashboard {
	d := core.Dashboard{
		Summary:         Aggregate(txs),
		Recent:          RecentTransactions(txs, RecentTransactionsLimit),
		BalanceHistory:  RunningBalance(txs),
		CategoryHistory: MonthlyCategoryHistory(txs),
		Upcoming:        UpcomingPayments(txs, today, UpcomingPaymentsLimit),
		Budgets:         make([]core.BudgetProgress, 0, len(budgets)),
		Goals:           make([]core.GoalProgress, 0, len(goals)),
		Portfolio:       PortfolioOf(investments),
	}
	for _, b := range budgets {
		d.Budgets = append(d.Budgets, BudgetWithProgress(b, txs))
	}
	for _, goal := range goals {
		d.Goals = append(d.Goals, GoalProgress(goal))
	}
	return d
}
