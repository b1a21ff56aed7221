package core

import "github.com/shopspring/decimal"

// ProgressLevel drives the colour of a budget bar.
type ProgressLevel string

const (
	LevelOK      ProgressLevel = "ok"
	LevelWarning ProgressLevel = "warning"
	LevelOver    ProgressLevel = "over"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
}

// LedgerSummary is the reduction of a transaction list.
type LedgerSummary struct {
	TotalIncome       Money            `json:"total_income"`
	TotalExpenses     Money            `json:"total_expenses"`
	TotalBalance      Money            `json:"total_balance"`
	SavingsRate       decimal.Decimal  `json:"savings_rate"`
	ExpenseByCategory []CategoryAmount `json:"expense_by_category"`
}

// BalancePoint is the cumulative balance at the end of a day.
type BalancePoint struct {
	Date    Date  `json:"date"`
	Balance Money `json:"balance"`
}

// MonthBucket holds expense totals per category for one month.
type MonthBucket struct {
	Month   Date             `json:"month"` // first day of the month
	Amounts map[string]Money `json:"amounts"`
}

// CategoryHistory is a stacked monthly series; Categories lists every series name in
// first-seen order.
type CategoryHistory struct {
	Months     []MonthBucket `json:"months"`
	Categories []string      `json:"categories"`
}

// Projection is the next occurrence of a recurring payment.
type Projection struct {
	NextDate      Date `json:"next_date"`
	DaysRemaining int  `json:"days_remaining"`
}

// UpcomingPayment is a projected fixed expense ready for display.
type UpcomingPayment struct {
	Transaction Transaction `json:"transaction"`
	Projection
	Urgent bool   `json:"urgent"`
	Label  string `json:"label"`
}

// Progress is the clamped completion of an amount against a cap.
type Progress struct {
	Percentage  decimal.Decimal `json:"percentage"`
	IsOverLimit bool            `json:"is_over_limit"`
	Remaining   Money           `json:"remaining"`
}

// BudgetProgress is a budget with its derived spending.
type BudgetProgress struct {
	Budget Budget `json:"budget"`
	Spent  Money  `json:"spent"`
	Progress
	Level ProgressLevel `json:"level"`
}

// GoalProgress is a savings goal with its derived completion.
type GoalProgress struct {
	Goal        SavingsGoal     `json:"goal"`
	Percentage  decimal.Decimal `json:"percentage"`
	IsCompleted bool            `json:"is_completed"`
	Remaining   Money           `json:"remaining"`
}

// InvestmentReturn is the gain or loss of a holding.
type InvestmentReturn struct {
	Diff       Money           `json:"diff"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Holding is an investment with its derived return.
type Holding struct {
	Investment Investment `json:"investment"`
	InvestmentReturn
}

// Portfolio aggregates every holding of a user.
type Portfolio struct {
	Holdings      []Holding        `json:"holdings"`
	TotalInvested Money            `json:"total_invested"`
	TotalValue    Money            `json:"total_value"`
	Return        InvestmentReturn `json:"return"`
}

// Dashboard is the home screen view model.
type Dashboard struct {
	Summary         LedgerSummary     `json:"summary"`
	Recent          []Transaction     `json:"recent"`
	BalanceHistory  []BalancePoint    `json:"balance_history"`
	CategoryHistory CategoryHistory   `json:"category_history"`
	Upcoming        []UpcomingPayment `json:"upcoming"`
	Budgets         []BudgetProgress  `json:"budgets"`
	Goals           []GoalProgress    `json:"goals"`
	Portfolio       Portfolio         `json:"portfolio"`
}
