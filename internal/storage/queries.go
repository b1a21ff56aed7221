package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Category struct {
	ID     string
	UserID string
	Name   string
	Type   string
	Icon   string
	Color  string
}

type Transaction struct {
	ID            string
	UserID        string
	CategoryID    sql.NullString
	AmountCents   int64
	Description   string
	Date          string
	Type          string
	Frequency     string
	CreatedAt     time.Time
	CategoryName  sql.NullString
	CategoryType  sql.NullString
	CategoryIcon  sql.NullString
	CategoryColor sql.NullString
}

type Budget struct {
	ID            string
	UserID        string
	CategoryID    string
	AmountLimit   int64
	Period        string
	CategoryName  string
	CategoryType  string
	CategoryIcon  string
	CategoryColor string
}

type SavingsGoal struct {
	ID            string
	UserID        string
	Name          string
	TargetAmount  int64
	CurrentAmount int64
	Deadline      sql.NullString
	CreatedAt     time.Time
}

type Investment struct {
	ID             string
	UserID         string
	Name           string
	AssetType      string
	InvestedAmount int64
	CurrentValue   int64
	Quantity       string
	PurchaseDate   string
	CreatedAt      time.Time
}

const insertCategoryIfAbsent = `
INSERT OR IGNORE INTO categories (id, user_id, name, type, icon, color)
VALUES (?, ?, ?, ?, ?, ?)
`

type InsertCategoryParams struct {
	ID     string
	UserID string
	Name   string
	Type   string
	Icon   string
	Color  string
}

func (q *Queries) InsertCategoryIfAbsent(ctx context.Context, arg InsertCategoryParams) error {
	_, err := q.db.ExecContext(ctx, insertCategoryIfAbsent,
		arg.ID, arg.UserID, arg.Name, arg.Type, arg.Icon, arg.Color)
	return err
}

const getCategoryByName = `
SELECT id, user_id, name, type, icon, color
FROM categories
WHERE user_id = ? AND name = ? COLLATE NOCASE
`

func (q *Queries) GetCategoryByName(ctx context.Context, userID, name string) (Category, error) {
	row := q.db.QueryRowContext(ctx, getCategoryByName, userID, name)
	var c Category
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.Icon, &c.Color)
	return c, err
}

const listCategories = `
SELECT id, user_id, name, type, icon, color
FROM categories
WHERE user_id = ?
ORDER BY name
`

func (q *Queries) ListCategories(ctx context.Context, userID string) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.Icon, &c.Color); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createTransaction = `
INSERT INTO transactions (id, user_id, category_id, amount_cents, description, date, type, frequency, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateTransactionParams struct {
	ID          string
	UserID      string
	CategoryID  sql.NullString
	AmountCents int64
	Description string
	Date        string
	Type        string
	Frequency   string
	CreatedAt   time.Time
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		arg.ID, arg.UserID, arg.CategoryID, arg.AmountCents, arg.Description,
		arg.Date, arg.Type, arg.Frequency, arg.CreatedAt)
	return err
}

const transactionColumns = `
SELECT t.id, t.user_id, t.category_id, t.amount_cents, t.description, t.date, t.type, t.frequency, t.created_at,
       c.name, c.type, c.icon, c.color
FROM transactions t
LEFT JOIN categories c ON c.id = t.category_id
`

func scanTransaction(s interface{ Scan(...interface{}) error }) (Transaction, error) {
	var t Transaction
	err := s.Scan(&t.ID, &t.UserID, &t.CategoryID, &t.AmountCents, &t.Description, &t.Date,
		&t.Type, &t.Frequency, &t.CreatedAt,
		&t.CategoryName, &t.CategoryType, &t.CategoryIcon, &t.CategoryColor)
	return t, err
}

const getTransaction = transactionColumns + `WHERE t.user_id = ? AND t.id = ?`

func (q *Queries) GetTransaction(ctx context.Context, userID, id string) (Transaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, userID, id))
}

const listTransactions = transactionColumns + `
WHERE t.user_id = ?
  AND (? = '' OR t.date >= ?)
  AND (? = '' OR t.date <= ?)
  AND (? = '' OR t.type = ?)
  AND (? = '' OR t.category_id = ?)
ORDER BY t.date DESC, t.created_at DESC
`

type ListTransactionsParams struct {
	UserID     string
	From       string
	To         string
	Type       string
	CategoryID string
}

func (q *Queries) ListTransactions(ctx context.Context, arg ListTransactionsParams) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions,
		arg.UserID,
		arg.From, arg.From,
		arg.To, arg.To,
		arg.Type, arg.Type,
		arg.CategoryID, arg.CategoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteTransaction = `DELETE FROM transactions WHERE user_id = ? AND id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, userID, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, userID, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const upsertBudget = `
INSERT INTO budgets (id, user_id, category_id, amount_limit, period)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id, category_id, period) DO UPDATE SET amount_limit = excluded.amount_limit
`

type UpsertBudgetParams struct {
	ID          string
	UserID      string
	CategoryID  string
	AmountLimit int64
	Period      string
}

func (q *Queries) UpsertBudget(ctx context.Context, arg UpsertBudgetParams) error {
	_, err := q.db.ExecContext(ctx, upsertBudget,
		arg.ID, arg.UserID, arg.CategoryID, arg.AmountLimit, arg.Period)
	return err
}

const budgetColumns = `
SELECT b.id, b.user_id, b.category_id, b.amount_limit, b.period,
       c.name, c.type, c.icon, c.color
FROM budgets b
JOIN categories c ON c.id = b.category_id
`

func scanBudget(s interface{ Scan(...interface{}) error }) (Budget, error) {
	var b Budget
	err := s.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.AmountLimit, &b.Period,
		&b.CategoryName, &b.CategoryType, &b.CategoryIcon, &b.CategoryColor)
	return b, err
}

const getBudgetByKey = budgetColumns + `WHERE b.user_id = ? AND b.category_id = ? AND b.period = ?`

func (q *Queries) GetBudgetByKey(ctx context.Context, userID, categoryID, period string) (Budget, error) {
	return scanBudget(q.db.QueryRowContext(ctx, getBudgetByKey, userID, categoryID, period))
}

const listBudgets = budgetColumns + `
WHERE b.user_id = ? AND (? = '' OR b.period = ?)
ORDER BY b.period DESC, c.name
`

func (q *Queries) ListBudgets(ctx context.Context, userID, period string) ([]Budget, error) {
	rows, err := q.db.QueryContext(ctx, listBudgets, userID, period, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createGoal = `
INSERT INTO savings_goals (id, user_id, name, target_amount, current_amount, deadline, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateGoal(ctx context.Context, g SavingsGoal) error {
	_, err := q.db.ExecContext(ctx, createGoal,
		g.ID, g.UserID, g.Name, g.TargetAmount, g.CurrentAmount, g.Deadline, g.CreatedAt)
	return err
}

const goalColumns = `
SELECT id, user_id, name, target_amount, current_amount, deadline, created_at
FROM savings_goals
`

func scanGoal(s interface{ Scan(...interface{}) error }) (SavingsGoal, error) {
	var g SavingsGoal
	err := s.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &g.Deadline, &g.CreatedAt)
	return g, err
}

const getGoal = goalColumns + `WHERE user_id = ? AND id = ?`

func (q *Queries) GetGoal(ctx context.Context, userID, id string) (SavingsGoal, error) {
	return scanGoal(q.db.QueryRowContext(ctx, getGoal, userID, id))
}

const listGoals = goalColumns + `WHERE user_id = ? ORDER BY created_at DESC`

func (q *Queries) ListGoals(ctx context.Context, userID string) ([]SavingsGoal, error) {
	rows, err := q.db.QueryContext(ctx, listGoals, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SavingsGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateGoalAmount = `UPDATE savings_goals SET current_amount = ? WHERE user_id = ? AND id = ?`

func (q *Queries) UpdateGoalAmount(ctx context.Context, userID, id string, current int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateGoalAmount, current, userID, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteGoal = `DELETE FROM savings_goals WHERE user_id = ? AND id = ?`

func (q *Queries) DeleteGoal(ctx context.Context, userID, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteGoal, userID, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createInvestment = `
INSERT INTO investments (id, user_id, name, asset_type, invested_amount, current_value, quantity, purchase_date, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateInvestment(ctx context.Context, i Investment) error {
	_, err := q.db.ExecContext(ctx, createInvestment,
		i.ID, i.UserID, i.Name, i.AssetType, i.InvestedAmount, i.CurrentValue,
		i.Quantity, i.PurchaseDate, i.CreatedAt)
	return err
}

const investmentColumns = `
SELECT id, user_id, name, asset_type, invested_amount, current_value, quantity, purchase_date, created_at
FROM investments
`

func scanInvestment(s interface{ Scan(...interface{}) error }) (Investment, error) {
	var i Investment
	err := s.Scan(&i.ID, &i.UserID, &i.Name, &i.AssetType, &i.InvestedAmount, &i.CurrentValue,
		&i.Quantity, &i.PurchaseDate, &i.CreatedAt)
	return i, err
}

const getInvestment = investmentColumns + `WHERE user_id = ? AND id = ?`

func (q *Queries) GetInvestment(ctx context.Context, userID, id string) (Investment, error) {
	return scanInvestment(q.db.QueryRowContext(ctx, getInvestment, userID, id))
}

const listInvestments = investmentColumns + `WHERE user_id = ? ORDER BY purchase_date DESC`

func (q *Queries) ListInvestments(ctx context.Context, userID string) ([]Investment, error) {
	rows, err := q.db.QueryContext(ctx, listInvestments, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Investment
	for rows.Next() {
		i, err := scanInvestment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateInvestmentValue = `UPDATE investments SET current_value = ? WHERE user_id = ? AND id = ?`

func (q *Queries) UpdateInvestmentValue(ctx context.Context, userID, id string, current int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateInvestmentValue, current, userID, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteInvestment = `DELETE FROM investments WHERE user_id = ? AND id = ?`

func (q *Queries) DeleteInvestment(ctx context.Context, userID, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteInvestment, userID, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countReminders = `
SELECT COUNT(*) FROM payment_reminders
WHERE user_id = ? AND transaction_id = ? AND due_date = ?
`

func (q *Queries) CountReminders(ctx context.Context, userID, transactionID, dueDate string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countReminders, userID, transactionID, dueDate).Scan(&n)
	return n, err
}

const markReminded = `
INSERT OR IGNORE INTO payment_reminders (user_id, transaction_id, due_date)
VALUES (?, ?, ?)
`

func (q *Queries) MarkReminded(ctx context.Context, userID, transactionID, dueDate string) error {
	_, err := q.db.ExecContext(ctx, markReminded, userID, transactionID, dueDate)
	return err
}

const listUsers = `SELECT DISTINCT user_id FROM transactions ORDER BY user_id`

func (q *Queries) ListUsers(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
