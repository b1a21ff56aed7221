package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	FixedExpense    TransactionType = "fixed_expense"
	VariableExpense TransactionType = "variable_expense"
	Income          TransactionType = "income"
)

const (
	OneTime Frequency = "one_time"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	IncomeCategory  CategoryType = "income"
	ExpenseCategory CategoryType = "expense"
)

const (
	Deposit  Direction = "deposit"
	Withdraw Direction = "withdraw"
)

// Defaults applied when a category is created implicitly by name.
const (
	DefaultCategoryColor      = "#6366f1"
	DefaultTransactionIcon    = "Circle"
	DefaultBudgetIcon         = "PieChart"
	FallbackExpenseCategory   = "Otros"
	FallbackExportCategory    = "General"
	maxDescriptionLength      = 200
	minDescriptionLength      = 3
	minNameLength             = 3
)

type (
	TransactionType string
	Frequency       string
	CategoryType    string
	Direction       string

	Category struct {
		ID     string       `json:"id"`
		UserID string       `json:"user_id"`
		Name   string       `json:"name"`
		Type   CategoryType `json:"type"`
		Icon   string       `json:"icon"`
		Color  string       `json:"color"`
	}

	Transaction struct {
		ID          string          `json:"id"`
		UserID      string          `json:"user_id"`
		CategoryID  string          `json:"category_id"`
		Category    *Category       `json:"category,omitempty"`
		Amount      Money           `json:"amount"`
		Description string          `json:"description"`
		Date        Date            `json:"date"`
		Type        TransactionType `json:"type"`
		Frequency   Frequency       `json:"frequency"`
		CreatedAt   time.Time       `json:"created_at"`
	}

	Budget struct {
		ID          string    `json:"id"`
		UserID      string    `json:"user_id"`
		CategoryID  string    `json:"category_id"`
		Category    *Category `json:"category,omitempty"`
		AmountLimit Money     `json:"amount_limit"`
		Period      Period    `json:"period"`
	}

	SavingsGoal struct {
		ID            string    `json:"id"`
		UserID        string    `json:"user_id"`
		Name          string    `json:"name"`
		TargetAmount  Money     `json:"target_amount"`
		CurrentAmount Money     `json:"current_amount"`
		Deadline      Date      `json:"deadline"` // zero when the goal has no deadline
		CreatedAt     time.Time `json:"created_at"`
	}

	Investment struct {
		ID             string          `json:"id"`
		UserID         string          `json:"user_id"`
		Name           string          `json:"name"`
		AssetType      string          `json:"asset_type"`
		InvestedAmount Money           `json:"invested_amount"`
		CurrentValue   Money           `json:"current_value"`
		Quantity       decimal.Decimal `json:"quantity"`
		PurchaseDate   Date            `json:"purchase_date"`
		CreatedAt      time.Time       `json:"created_at"`
	}
)

var (
	ErrInvalidDay             = errors.New("invalid day")
	ErrInvalidMonth           = errors.New("invalid month")
	ErrInvalidDate            = errors.New("invalid date")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrEmptyDescription       = errors.New("empty description")
	ErrDescriptionTooShort    = errors.New("description too short (min 3 characters)")
	ErrDescriptionTooLong     = errors.New("description too long (max 200 characters)")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidFrequency       = errors.New("invalid frequency")
	ErrInvalidCategoryType    = errors.New("invalid category type")
	ErrEmptyCategory          = errors.New("empty category")
	ErrInvalidPeriod          = errors.New("invalid period")
	ErrInvalidName            = errors.New("name too short (min 3 characters)")
	ErrEmptyAssetType         = errors.New("empty asset type")
	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrInvalidDirection       = errors.New("invalid direction")
	ErrInsufficientFunds      = errors.New("withdrawal exceeds current amount")
	ErrNotProjectable         = errors.New("transaction is not a recurring fixed expense")
	ErrNotFound               = errors.New("not found")
	ErrMissingUser            = errors.New("missing user id")
)

func (t TransactionType) Valid() bool {
	switch t {
	case FixedExpense, VariableExpense, Income:
		return true
	}
	return false
}

// IsExpense reports whether the type is one of the expense kinds.
func (t TransactionType) IsExpense() bool {
	return strings.Contains(string(t), "expense")
}

// Label returns the human label used in reports.
func (t TransactionType) Label() string {
	if t == Income {
		return "Ingreso"
	}
	return "Gasto"
}

func (f Frequency) Valid() bool {
	switch f {
	case OneTime, Monthly, Yearly:
		return true
	}
	return false
}

func (c CategoryType) Valid() bool {
	return c == IncomeCategory || c == ExpenseCategory
}

// CategoryTypeFor maps a transaction type to the category type it belongs to.
func CategoryTypeFor(t TransactionType) CategoryType {
	if t == Income {
		return IncomeCategory
	}
	return ExpenseCategory
}

func (d Direction) Valid() bool {
	return d == Deposit || d == Withdraw
}

// IsRecurringFixed reports whether the transaction takes part in payment projection.
func (t Transaction) IsRecurringFixed() bool {
	return t.Type == FixedExpense && t.Frequency != OneTime && t.Frequency.Valid()
}

// CategoryName returns the embedded category name or fallback when absent.
func (t Transaction) CategoryName(fallback string) string {
	if t.Category == nil || strings.TrimSpace(t.Category.Name) == "" {
		return fallback
	}
	return t.Category.Name
}

// SignedCents returns the amount with income positive and expenses negative.
func (t Transaction) SignedCents() int64 {
	if t.Type == Income {
		return t.Amount.Cents
	}
	return -t.Amount.Cents
}

func (t Transaction) Validate() error {
	var errs ValidationErrors
	if err := t.Date.Validate(); err != nil {
		errs.Add("date", err)
	}
	if err := validateDescription(t.Description); err != nil {
		errs.Add("description", err)
	}
	if err := t.Amount.Validate(); err != nil {
		errs.Add("amount", err)
	}
	if !t.Type.Valid() {
		errs.Add("type", ErrInvalidTransactionType)
	}
	if !t.Frequency.Valid() {
		errs.Add("frequency", ErrInvalidFrequency)
	}
	return errs.OrNil()
}

func (c Category) Validate() error {
	var errs ValidationErrors
	if strings.TrimSpace(c.Name) == "" {
		errs.Add("name", ErrEmptyCategory)
	}
	if !c.Type.Valid() {
		errs.Add("type", ErrInvalidCategoryType)
	}
	return errs.OrNil()
}

func (b Budget) Validate() error {
	var errs ValidationErrors
	// limit must be at least one whole unit
	if b.AmountLimit.Cents < 100 {
		errs.Add("amount_limit", ErrInvalidAmount)
	}
	if err := b.Period.Validate(); err != nil {
		errs.Add("period", err)
	}
	return errs.OrNil()
}

func (g SavingsGoal) Validate() error {
	var errs ValidationErrors
	if len([]rune(strings.TrimSpace(g.Name))) < minNameLength {
		errs.Add("name", ErrInvalidName)
	}
	if g.TargetAmount.Cents < 100 {
		errs.Add("target_amount", ErrInvalidAmount)
	}
	if g.CurrentAmount.Cents < 0 {
		errs.Add("current_amount", ErrInvalidAmount)
	}
	if !g.Deadline.IsEmpty() {
		if err := g.Deadline.Validate(); err != nil {
			errs.Add("deadline", err)
		}
	}
	return errs.OrNil()
}

func (i Investment) Validate() error {
	var errs ValidationErrors
	if len([]rune(strings.TrimSpace(i.Name))) < minNameLength {
		errs.Add("name", ErrInvalidName)
	}
	if strings.TrimSpace(i.AssetType) == "" {
		errs.Add("asset_type", ErrEmptyAssetType)
	}
	if err := i.InvestedAmount.Validate(); err != nil {
		errs.Add("invested_amount", err)
	}
	if i.CurrentValue.Cents < 0 {
		errs.Add("current_value", ErrInvalidAmount)
	}
	if !i.Quantity.IsPositive() {
		errs.Add("quantity", ErrInvalidQuantity)
	}
	if err := i.PurchaseDate.Validate(); err != nil {
		errs.Add("purchase_date", err)
	}
	return errs.OrNil()
}

func validateDescription(desc string) error {
	desc = strings.TrimSpace(desc)
	switch n := len([]rune(desc)); {
	case n == 0:
		return ErrEmptyDescription
	case n < minDescriptionLength:
		return ErrDescriptionTooShort
	case n > maxDescriptionLength:
		return ErrDescriptionTooLong
	}
	return nil
}
