package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

var _ ports.Store = (*SQLiteRepository)(nil)

// dsn enables foreign keys and stores times in a sortable layout.
func dsn(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
}

func (r *SQLiteRepository) UpsertCategory(ctx context.Context, userID, name string, typ core.CategoryType, icon, color string) (core.Category, error) {
	name = strings.TrimSpace(name)
	c := core.Category{UserID: userID, Name: name, Type: typ, Icon: icon, Color: color}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Category{}, fmt.Errorf("begin category upsert: %w", err)
	}
	defer dbTx.Rollback()
	q := r.queries.WithTx(dbTx)

	err = q.InsertCategoryIfAbsent(ctx, InsertCategoryParams{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   name,
		Type:   string(typ),
		Icon:   icon,
		Color:  color,
	})
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}

	row, err := q.GetCategoryByName(ctx, userID, name)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %q: %w", name, err)
	}
	if err := dbTx.Commit(); err != nil {
		return core.Category{}, fmt.Errorf("commit category upsert: %w", err)
	}
	return categoryFromRow(row), nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, len(rows))
	for i, row := range rows {
		out[i] = categoryFromRow(row)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = r.now().UTC()
	}

	err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		ID:          tx.ID,
		UserID:      tx.UserID,
		CategoryID:  nullString(tx.CategoryID),
		AmountCents: tx.Amount.Cents,
		Description: strings.TrimSpace(tx.Description),
		Date:        tx.Date.String(),
		Type:        string(tx.Type),
		Frequency:   string(tx.Frequency),
		CreatedAt:   tx.CreatedAt,
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"user_id", tx.UserID,
		"amount_cents", tx.Amount.Cents,
		"type", tx.Type,
		"date", tx.Date.String())

	return r.GetTransaction(ctx, tx.UserID, tx.ID)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, notFound("transaction", id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return transactionFromRow(row)
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, filter ports.TransactionFilter) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx, ListTransactionsParams{
		UserID:     userID,
		From:       filter.From.String(),
		To:         filter.To.String(),
		Type:       string(filter.Type),
		CategoryID: filter.CategoryID,
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		tx, err := transactionFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	n, err := r.queries.DeleteTransaction(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return notFound("transaction", id)
	}
	slog.InfoContext(ctx, "Transaction deleted from SQLite", "id", id, "user_id", userID)
	return nil
}

func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	err := r.queries.UpsertBudget(ctx, UpsertBudgetParams{
		ID:          b.ID,
		UserID:      b.UserID,
		CategoryID:  b.CategoryID,
		AmountLimit: b.AmountLimit.Cents,
		Period:      b.Period.String(),
	})
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}

	row, err := r.queries.GetBudgetByKey(ctx, b.UserID, b.CategoryID, b.Period.String())
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return budgetFromRow(row)
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID string, period core.Period) ([]core.Budget, error) {
	rows, err := r.queries.ListBudgets(ctx, userID, period.String())
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	out := make([]core.Budget, 0, len(rows))
	for _, row := range rows {
		b, err := budgetFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = r.now().UTC()
	}

	err := r.queries.CreateGoal(ctx, SavingsGoal{
		ID:            g.ID,
		UserID:        g.UserID,
		Name:          strings.TrimSpace(g.Name),
		TargetAmount:  g.TargetAmount.Cents,
		CurrentAmount: g.CurrentAmount.Cents,
		Deadline:      nullString(g.Deadline.String()),
		CreatedAt:     g.CreatedAt,
	})
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("create goal: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, userID, id string) (core.SavingsGoal, error) {
	row, err := r.queries.GetGoal(ctx, userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SavingsGoal{}, notFound("goal", id)
	}
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("get goal: %w", err)
	}
	return goalFromRow(row)
}

func (r *SQLiteRepository) UpdateGoalAmount(ctx context.Context, userID, id string, current core.Money) error {
	n, err := r.queries.UpdateGoalAmount(ctx, userID, id, current.Cents)
	if err != nil {
		return fmt.Errorf("update goal amount: %w", err)
	}
	if n == 0 {
		return notFound("goal", id)
	}
	return nil
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	rows, err := r.queries.ListGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	out := make([]core.SavingsGoal, 0, len(rows))
	for _, row := range rows {
		g, err := goalFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID, id string) error {
	n, err := r.queries.DeleteGoal(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if n == 0 {
		return notFound("goal", id)
	}
	return nil
}

func (r *SQLiteRepository) CreateInvestment(ctx context.Context, inv core.Investment) (core.Investment, error) {
	if err := inv.Validate(); err != nil {
		return core.Investment{}, err
	}
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = r.now().UTC()
	}

	err := r.queries.CreateInvestment(ctx, Investment{
		ID:             inv.ID,
		UserID:         inv.UserID,
		Name:           strings.TrimSpace(inv.Name),
		AssetType:      strings.TrimSpace(inv.AssetType),
		InvestedAmount: inv.InvestedAmount.Cents,
		CurrentValue:   inv.CurrentValue.Cents,
		Quantity:       inv.Quantity.String(),
		PurchaseDate:   inv.PurchaseDate.String(),
		CreatedAt:      inv.CreatedAt,
	})
	if err != nil {
		return core.Investment{}, fmt.Errorf("create investment: %w", err)
	}
	return inv, nil
}

func (r *SQLiteRepository) GetInvestment(ctx context.Context, userID, id string) (core.Investment, error) {
	row, err := r.queries.GetInvestment(ctx, userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Investment{}, notFound("investment", id)
	}
	if err != nil {
		return core.Investment{}, fmt.Errorf("get investment: %w", err)
	}
	return investmentFromRow(row)
}

func (r *SQLiteRepository) UpdateInvestmentValue(ctx context.Context, userID, id string, current core.Money) error {
	n, err := r.queries.UpdateInvestmentValue(ctx, userID, id, current.Cents)
	if err != nil {
		return fmt.Errorf("update investment value: %w", err)
	}
	if n == 0 {
		return notFound("investment", id)
	}
	return nil
}

func (r *SQLiteRepository) ListInvestments(ctx context.Context, userID string) ([]core.Investment, error) {
	rows, err := r.queries.ListInvestments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	out := make([]core.Investment, 0, len(rows))
	for _, row := range rows {
		inv, err := investmentFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}

func (r *SQLiteRepository) DeleteInvestment(ctx context.Context, userID, id string) error {
	n, err := r.queries.DeleteInvestment(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("delete investment: %w", err)
	}
	if n == 0 {
		return notFound("investment", id)
	}
	return nil
}

func (r *SQLiteRepository) WasReminded(ctx context.Context, userID, transactionID string, dueDate core.Date) (bool, error) {
	n, err := r.queries.CountReminders(ctx, userID, transactionID, dueDate.String())
	if err != nil {
		return false, fmt.Errorf("count reminders: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) MarkReminded(ctx context.Context, userID, transactionID string, dueDate core.Date) error {
	if err := r.queries.MarkReminded(ctx, userID, transactionID, dueDate.String()); err != nil {
		return fmt.Errorf("mark reminded: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]string, error) {
	users, err := r.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []string{}
	}
	return users, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func categoryFromRow(row Category) core.Category {
	return core.Category{
		ID:     row.ID,
		UserID: row.UserID,
		Name:   row.Name,
		Type:   core.CategoryType(row.Type),
		Icon:   row.Icon,
		Color:  row.Color,
	}
}

func transactionFromRow(row Transaction) (core.Transaction, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", row.ID, err)
	}
	tx := core.Transaction{
		ID:          row.ID,
		UserID:      row.UserID,
		CategoryID:  row.CategoryID.String,
		Amount:      core.Cents(row.AmountCents),
		Description: row.Description,
		Date:        date,
		Type:        core.TransactionType(row.Type),
		Frequency:   core.Frequency(row.Frequency),
		CreatedAt:   row.CreatedAt.UTC(),
	}
	if row.CategoryName.Valid {
		tx.Category = &core.Category{
			ID:     row.CategoryID.String,
			UserID: row.UserID,
			Name:   row.CategoryName.String,
			Type:   core.CategoryType(row.CategoryType.String),
			Icon:   row.CategoryIcon.String,
			Color:  row.CategoryColor.String,
		}
	}
	return tx, nil
}

func budgetFromRow(row Budget) (core.Budget, error) {
	period, err := core.ParsePeriod(row.Period)
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget %s: %w", row.ID, err)
	}
	return core.Budget{
		ID:          row.ID,
		UserID:      row.UserID,
		CategoryID:  row.CategoryID,
		AmountLimit: core.Cents(row.AmountLimit),
		Period:      period,
		Category: &core.Category{
			ID:     row.CategoryID,
			UserID: row.UserID,
			Name:   row.CategoryName,
			Type:   core.CategoryType(row.CategoryType),
			Icon:   row.CategoryIcon,
			Color:  row.CategoryColor,
		},
	}, nil
}

func goalFromRow(row SavingsGoal) (core.SavingsGoal, error) {
	g := core.SavingsGoal{
		ID:            row.ID,
		UserID:        row.UserID,
		Name:          row.Name,
		TargetAmount:  core.Cents(row.TargetAmount),
		CurrentAmount: core.Cents(row.CurrentAmount),
		CreatedAt:     row.CreatedAt.UTC(),
	}
	if row.Deadline.Valid && row.Deadline.String != "" {
		deadline, err := core.ParseDate(row.Deadline.String)
		if err != nil {
			return core.SavingsGoal{}, fmt.Errorf("goal %s: %w", row.ID, err)
		}
		g.Deadline = deadline
	}
	return g, nil
}

func investmentFromRow(row Investment) (core.Investment, error) {
	quantity, err := decimal.NewFromString(row.Quantity)
	if err != nil {
		return core.Investment{}, fmt.Errorf("investment %s quantity: %w", row.ID, err)
	}
	purchased, err := core.ParseDate(row.PurchaseDate)
	if err != nil {
		return core.Investment{}, fmt.Errorf("investment %s: %w", row.ID, err)
	}
	return core.Investment{
		ID:             row.ID,
		UserID:         row.UserID,
		Name:           row.Name,
		AssetType:      row.AssetType,
		InvestedAmount: core.Cents(row.InvestedAmount),
		CurrentValue:   core.Cents(row.CurrentValue),
		Quantity:       quantity,
		PurchaseDate:   purchased,
		CreatedAt:      row.CreatedAt.UTC(),
	}, nil
}
