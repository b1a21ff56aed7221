package sheets

import (
	"context"
	"errors"

	"finanzas/internal/core"
)

// ErrRowNotFound is returned when a mirrored transaction has no row in the sheet.
var ErrRowNotFound = errors.New("row not found")

// TransactionRow is the spreadsheet shape of a transaction.
type TransactionRow struct {
	ID          string
	UserID      string
	Date        core.Date
	Description string
	Category    string
	Type        core.TransactionType
	Amount      core.Money
}

// RowFromTransaction flattens tx, falling back to the export category name when
// the transaction carries no category.
func RowFromTransaction(tx core.Transaction) TransactionRow {
	return TransactionRow{
		ID:          tx.ID,
		UserID:      tx.UserID,
		Date:        tx.Date,
		Description: tx.Description,
		Category:    tx.CategoryName(core.FallbackExportCategory),
		Type:        tx.Type,
		Amount:      tx.Amount,
	}
}

// ReminderRow is the spreadsheet shape of a sent payment reminder.
type ReminderRow struct {
	UserID        string
	TransactionID string
	Description   string
	Amount        core.Money
	DueDate       core.Date
	Label         string
}

// Ports for outbound adapters.
type (
	TransactionWriter interface {
		AppendTransaction(ctx context.Context, row TransactionRow) (rowRef string, err error)
	}

	// TransactionDeleter removes the mirrored row of a transaction. It returns
	// ErrRowNotFound when no row carries the ID.
	TransactionDeleter interface {
		DeleteTransaction(ctx context.Context, id string) error
	}

	// TransactionLister returns the mirrored rows of a user for one month.
	TransactionLister interface {
		ListTransactions(ctx context.Context, userID string, period core.Period) ([]TransactionRow, error)
	}

	ReminderWriter interface {
		AppendReminder(ctx context.Context, row ReminderRow) (rowRef string, err error)
	}

	// Mirror is everything the sheets worker needs.
	Mirror interface {
		TransactionWriter
		TransactionDeleter
		ReminderWriter
	}
)
