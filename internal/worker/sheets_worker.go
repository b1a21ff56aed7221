package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/metrics"
	"finanzas/internal/ports"
	"finanzas/internal/sheets"
)

// Consumer is the part of the AMQP client the worker drives.
type Consumer interface {
	ConsumeTransactionEvents(ctx context.Context, handler func(context.Context, *amqp.TransactionEvent) error) error
	ConsumePaymentDue(ctx context.Context, queue string, handler func(context.Context, *amqp.PaymentDueMessage) error) error
}

// SyncSource is the persistence the startup check reads from.
type SyncSource interface {
	ListTransactions(ctx context.Context, userID string, filter ports.TransactionFilter) ([]core.Transaction, error)
	ListUsers(ctx context.Context) ([]string, error)
}

// SheetsWorker mirrors transaction events and payment reminders into a spreadsheet.
type SheetsWorker struct {
	mirror sheets.Mirror
	source SyncSource
}

// NewSheetsWorker creates a worker. source may be nil, which disables StartupSyncCheck.
func NewSheetsWorker(mirror sheets.Mirror, source SyncSource) *SheetsWorker {
	return &SheetsWorker{mirror: mirror, source: source}
}

// Run consumes transaction events and reminders concurrently until ctx is done or
// one consumer fails.
func (w *SheetsWorker) Run(ctx context.Context, consumer Consumer, reminderQueue string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.ConsumeTransactionEvents(ctx, w.HandleTransactionEvent)
	})
	g.Go(func() error {
		return consumer.ConsumePaymentDue(ctx, reminderQueue, w.HandlePaymentDue)
	})
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// HandleTransactionEvent appends created transactions and removes deleted ones.
func (w *SheetsWorker) HandleTransactionEvent(ctx context.Context, msg *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"event", msg.Event,
		"transaction_id", msg.TransactionID,
		"user_id", msg.UserID)

	switch msg.Event {
	case amqp.RoutingTransactionCreated:
		if msg.Transaction == nil {
			return fmt.Errorf("%s event without transaction", msg.Event)
		}
		return w.syncTransactionToSheets(ctx, *msg.Transaction)
	case amqp.RoutingTransactionDeleted:
		return w.deleteFromSheets(ctx, msg.TransactionID)
	default:
		return fmt.Errorf("unknown event %q", msg.Event)
	}
}

// HandlePaymentDue records a sent reminder.
func (w *SheetsWorker) HandlePaymentDue(ctx context.Context, msg *amqp.PaymentDueMessage) error {
	ref, err := w.mirror.AppendReminder(ctx, sheets.ReminderRow{
		UserID:        msg.UserID,
		TransactionID: msg.TransactionID,
		Description:   msg.Description,
		Amount:        msg.Amount,
		DueDate:       msg.DueDate,
		Label:         msg.Label,
	})
	metrics.SheetsOperations.WithLabelValues("append_reminder", metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("append reminder: %w", err)
	}
	slog.InfoContext(ctx, "Recorded payment reminder",
		"transaction_id", msg.TransactionID,
		"due_date", msg.DueDate.String(),
		"sheets_ref", ref)
	return nil
}

// StartupSyncCheck appends the transactions of period that are missing from the
// mirror, recovering from events lost while the worker was down. It needs a source
// and a mirror that can list its rows; otherwise it does nothing.
func (w *SheetsWorker) StartupSyncCheck(ctx context.Context, period core.Period) (int, error) {
	lister, ok := w.mirror.(sheets.TransactionLister)
	if w.source == nil || !ok {
		slog.InfoContext(ctx, "Startup sync check skipped", "reason", "mirror cannot list rows")
		return 0, nil
	}
	if err := period.Validate(); err != nil {
		return 0, err
	}

	users, err := w.source.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users for startup check: %w", err)
	}

	synced, errorCount := 0, 0
	for _, userID := range users {
		txs, err := w.source.ListTransactions(ctx, userID, ports.TransactionFilter{From: period.Start(), To: period.End()})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to list transactions for startup sync", "user_id", userID, "error", err)
			errorCount++
			continue
		}
		rows, err := lister.ListTransactions(ctx, userID, period)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to list mirrored rows", "user_id", userID, "error", err)
			errorCount++
			continue
		}
		mirrored := make(map[string]struct{}, len(rows))
		for _, r := range rows {
			mirrored[r.ID] = struct{}{}
		}
		for _, tx := range txs {
			if _, ok := mirrored[tx.ID]; ok {
				continue
			}
			if err := w.syncTransactionToSheets(ctx, tx); err != nil {
				slog.ErrorContext(ctx, "Failed to sync transaction during startup",
					"transaction_id", tx.ID, "error", err)
				errorCount++
				continue
			}
			synced++
		}
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"period", period.String(),
		"users", len(users),
		"synced", synced,
		"errors", errorCount)
	return synced, nil
}

func (w *SheetsWorker) syncTransactionToSheets(ctx context.Context, tx core.Transaction) error {
	ref, err := w.mirror.AppendTransaction(ctx, sheets.RowFromTransaction(tx))
	metrics.SheetsOperations.WithLabelValues("append_transaction", metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}
	slog.InfoContext(ctx, "Successfully synced transaction",
		"transaction_id", tx.ID,
		"sheets_ref", ref,
		"description", tx.Description,
		"amount_cents", tx.Amount.Cents)
	return nil
}

func (w *SheetsWorker) deleteFromSheets(ctx context.Context, id string) error {
	err := w.mirror.DeleteTransaction(ctx, id)
	metrics.SheetsOperations.WithLabelValues("delete_transaction", metrics.Result(err)).Inc()
	if errors.Is(err, sheets.ErrRowNotFound) {
		slog.WarnContext(ctx, "Transaction row already absent from sheets", "transaction_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete from sheets: %w", err)
	}
	slog.InfoContext(ctx, "Successfully deleted transaction from sheets", "transaction_id", id)
	return nil
}
