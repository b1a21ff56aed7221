// Package postgres implements the store ports on PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Repository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ ports.Store = (*Repository)(nil)

// NewRepository migrates the database at url and opens a connection pool on it.
func NewRepository(ctx context.Context, url string) (*Repository, error) {
	if err := RunMigrations(url); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Repository{pool: pool, now: time.Now}, nil
}

func (r *Repository) Close() error {
	if r.pool != nil {
		r.pool.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableDate(d core.Date) *time.Time {
	if d.IsEmpty() {
		return nil
	}
	return &d.Time
}

func (r *Repository) UpsertCategory(ctx context.Context, userID, name string, typ core.CategoryType, icon, color string) (core.Category, error) {
	name = strings.TrimSpace(name)
	c := core.Category{UserID: userID, Name: name, Type: typ, Icon: icon, Color: color}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO categories (id, user_id, name, type, icon, color)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING`,
		uuid.NewString(), userID, name, string(typ), icon, color)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}

	var typeStr string
	err = r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, type, icon, color
		FROM categories
		WHERE user_id = $1 AND lower(name) = lower($2)`,
		userID, name).Scan(&c.ID, &c.UserID, &c.Name, &typeStr, &c.Icon, &c.Color)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %q: %w", name, err)
	}
	c.Type = core.CategoryType(typeStr)
	return c, nil
}

func (r *Repository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, type, icon, color
		FROM categories WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]core.Category, 0)
	for rows.Next() {
		var c core.Category
		var typeStr string
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &typeStr, &c.Icon, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.CategoryType(typeStr)
		out = append(out, c)
	}
	return out, rows.Err()
}

const transactionSelect = `
	SELECT t.id, t.user_id, t.category_id, t.amount_cents, t.description, t.date, t.type, t.frequency, t.created_at,
	       c.name, c.type, c.icon, c.color
	FROM transactions t
	LEFT JOIN categories c ON c.id = t.category_id
`

func scanTransaction(row pgx.Row) (core.Transaction, error) {
	var (
		tx                                 core.Transaction
		categoryID                         *string
		date                               time.Time
		typ, freq                          string
		catName, catType, catIcon, catColr *string
	)
	err := row.Scan(&tx.ID, &tx.UserID, &categoryID, &tx.Amount.Cents, &tx.Description, &date,
		&typ, &freq, &tx.CreatedAt, &catName, &catType, &catIcon, &catColr)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Date = core.DateOf(date)
	tx.Type = core.TransactionType(typ)
	tx.Frequency = core.Frequency(freq)
	tx.CreatedAt = tx.CreatedAt.UTC()
	if categoryID != nil {
		tx.CategoryID = *categoryID
	}
	if catName != nil {
		tx.Category = &core.Category{
			ID:     tx.CategoryID,
			UserID: tx.UserID,
			Name:   *catName,
			Type:   core.CategoryType(deref(catType)),
			Icon:   deref(catIcon),
			Color:  deref(catColr),
		}
	}
	return tx, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r *Repository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = r.now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO transactions (id, user_id, category_id, amount_cents, description, date, type, frequency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		tx.ID, tx.UserID, nullable(tx.CategoryID), tx.Amount.Cents, strings.TrimSpace(tx.Description),
		tx.Date.Time, string(tx.Type), string(tx.Frequency), tx.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to Postgres",
		"id", tx.ID,
		"user_id", tx.UserID,
		"amount_cents", tx.Amount.Cents)

	return r.GetTransaction(ctx, tx.UserID, tx.ID)
}

func (r *Repository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	tx, err := scanTransaction(r.pool.QueryRow(ctx, transactionSelect+`WHERE t.user_id = $1 AND t.id = $2`, userID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, notFound("transaction", id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (r *Repository) ListTransactions(ctx context.Context, userID string, filter ports.TransactionFilter) ([]core.Transaction, error) {
	rows, err := r.pool.Query(ctx, transactionSelect+`
		WHERE t.user_id = $1
		  AND ($2::date IS NULL OR t.date >= $2)
		  AND ($3::date IS NULL OR t.date <= $3)
		  AND ($4::text IS NULL OR t.type = $4)
		  AND ($5::text IS NULL OR t.category_id = $5)
		ORDER BY t.date DESC, t.created_at DESC`,
		userID, nullableDate(filter.From), nullableDate(filter.To),
		nullable(string(filter.Type)), nullable(filter.CategoryID))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *Repository) exec(ctx context.Context, kind, id, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s %s: %w", kind, id, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(kind, id)
	}
	return nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, userID, id string) error {
	return r.exec(ctx, "transaction", id, `DELETE FROM transactions WHERE user_id = $1 AND id = $2`, userID, id)
}

const budgetSelect = `
	SELECT b.id, b.user_id, b.category_id, b.amount_limit, b.period, c.name, c.type, c.icon, c.color
	FROM budgets b
	JOIN categories c ON c.id = b.category_id
`

func scanBudget(row pgx.Row) (core.Budget, error) {
	var (
		b       core.Budget
		period  string
		cat     core.Category
		catType string
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.AmountLimit.Cents, &period,
		&cat.Name, &catType, &cat.Icon, &cat.Color); err != nil {
		return core.Budget{}, err
	}
	p, err := core.ParsePeriod(period)
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget %s: %w", b.ID, err)
	}
	b.Period = p
	cat.ID = b.CategoryID
	cat.UserID = b.UserID
	cat.Type = core.CategoryType(catType)
	b.Category = &cat
	return b, nil
}

func (r *Repository) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO budgets (id, user_id, category_id, amount_limit, period)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, category_id, period) DO UPDATE SET amount_limit = EXCLUDED.amount_limit`,
		b.ID, b.UserID, b.CategoryID, b.AmountLimit.Cents, b.Period.String())
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}

	out, err := scanBudget(r.pool.QueryRow(ctx, budgetSelect+`
		WHERE b.user_id = $1 AND b.category_id = $2 AND b.period = $3`,
		b.UserID, b.CategoryID, b.Period.String()))
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return out, nil
}

func (r *Repository) ListBudgets(ctx context.Context, userID string, period core.Period) ([]core.Budget, error) {
	rows, err := r.pool.Query(ctx, budgetSelect+`
		WHERE b.user_id = $1 AND ($2::text IS NULL OR b.period = $2)
		ORDER BY b.period DESC, c.name`,
		userID, nullable(period.String()))
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	out := make([]core.Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

const goalSelect = `
	SELECT id, user_id, name, target_amount, current_amount, deadline, created_at
	FROM savings_goals
`

func scanGoal(row pgx.Row) (core.SavingsGoal, error) {
	var (
		g        core.SavingsGoal
		deadline *time.Time
	)
	if err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount.Cents, &g.CurrentAmount.Cents,
		&deadline, &g.CreatedAt); err != nil {
		return core.SavingsGoal{}, err
	}
	if deadline != nil {
		g.Deadline = core.DateOf(*deadline)
	}
	g.CreatedAt = g.CreatedAt.UTC()
	return g, nil
}

func (r *Repository) CreateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = r.now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO savings_goals (id, user_id, name, target_amount, current_amount, deadline, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		g.ID, g.UserID, strings.TrimSpace(g.Name), g.TargetAmount.Cents, g.CurrentAmount.Cents,
		nullableDate(g.Deadline), g.CreatedAt)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("create goal: %w", err)
	}
	return g, nil
}

func (r *Repository) GetGoal(ctx context.Context, userID, id string) (core.SavingsGoal, error) {
	g, err := scanGoal(r.pool.QueryRow(ctx, goalSelect+`WHERE user_id = $1 AND id = $2`, userID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.SavingsGoal{}, notFound("goal", id)
	}
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (r *Repository) UpdateGoalAmount(ctx context.Context, userID, id string, current core.Money) error {
	return r.exec(ctx, "goal", id,
		`UPDATE savings_goals SET current_amount = $1 WHERE user_id = $2 AND id = $3`,
		current.Cents, userID, id)
}

func (r *Repository) ListGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	rows, err := r.pool.Query(ctx, goalSelect+`WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	out := make([]core.SavingsGoal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteGoal(ctx context.Context, userID, id string) error {
	return r.exec(ctx, "goal", id, `DELETE FROM savings_goals WHERE user_id = $1 AND id = $2`, userID, id)
}

const investmentSelect = `
	SELECT id, user_id, name, asset_type, invested_amount, current_value, quantity::text, purchase_date, created_at
	FROM investments
`

func scanInvestment(row pgx.Row) (core.Investment, error) {
	var (
		inv       core.Investment
		quantity  string
		purchased time.Time
	)
	if err := row.Scan(&inv.ID, &inv.UserID, &inv.Name, &inv.AssetType, &inv.InvestedAmount.Cents,
		&inv.CurrentValue.Cents, &quantity, &purchased, &inv.CreatedAt); err != nil {
		return core.Investment{}, err
	}
	q, err := decimal.NewFromString(quantity)
	if err != nil {
		return core.Investment{}, fmt.Errorf("investment %s quantity: %w", inv.ID, err)
	}
	inv.Quantity = q
	inv.PurchaseDate = core.DateOf(purchased)
	inv.CreatedAt = inv.CreatedAt.UTC()
	return inv, nil
}

func (r *Repository) CreateInvestment(ctx context.Context, inv core.Investment) (core.Investment, error) {
	if err := inv.Validate(); err != nil {
		return core.Investment{}, err
	}
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = r.now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO investments (id, user_id, name, asset_type, invested_amount, current_value, quantity, purchase_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8, $9)`,
		inv.ID, inv.UserID, strings.TrimSpace(inv.Name), strings.TrimSpace(inv.AssetType),
		inv.InvestedAmount.Cents, inv.CurrentValue.Cents, inv.Quantity.String(), inv.PurchaseDate.Time, inv.CreatedAt)
	if err != nil {
		return core.Investment{}, fmt.Errorf("create investment: %w", err)
	}
	return inv, nil
}

func (r *Repository) GetInvestment(ctx context.Context, userID, id string) (core.Investment, error) {
	inv, err := scanInvestment(r.pool.QueryRow(ctx, investmentSelect+`WHERE user_id = $1 AND id = $2`, userID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Investment{}, notFound("investment", id)
	}
	if err != nil {
		return core.Investment{}, fmt.Errorf("get investment: %w", err)
	}
	return inv, nil
}

func (r *Repository) UpdateInvestmentValue(ctx context.Context, userID, id string, current core.Money) error {
	return r.exec(ctx, "investment", id,
		`UPDATE investments SET current_value = $1 WHERE user_id = $2 AND id = $3`,
		current.Cents, userID, id)
}

func (r *Repository) ListInvestments(ctx context.Context, userID string) ([]core.Investment, error) {
	rows, err := r.pool.Query(ctx, investmentSelect+`WHERE user_id = $1 ORDER BY purchase_date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	defer rows.Close()

	out := make([]core.Investment, 0)
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan investment: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteInvestment(ctx context.Context, userID, id string) error {
	return r.exec(ctx, "investment", id, `DELETE FROM investments WHERE user_id = $1 AND id = $2`, userID, id)
}

func (r *Repository) WasReminded(ctx context.Context, userID, transactionID string, dueDate core.Date) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM payment_reminders
			WHERE user_id = $1 AND transaction_id = $2 AND due_date = $3
		)`, userID, transactionID, dueDate.Time).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check reminder: %w", err)
	}
	return exists, nil
}

func (r *Repository) MarkReminded(ctx context.Context, userID, transactionID string, dueDate core.Date) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO payment_reminders (user_id, transaction_id, due_date)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`, userID, transactionID, dueDate.Time)
	if err != nil {
		return fmt.Errorf("mark reminded: %w", err)
	}
	return nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT user_id FROM transactions ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect users: %w", err)
	}
	return users, nil
}
