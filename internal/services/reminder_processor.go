package services

import (
	"context"
	"fmt"
	"log/slog"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/metrics"
	"finanzas/internal/ports"
)

// ReminderPublisher publishes upcoming payment reminders.
type ReminderPublisher interface {
	PublishPaymentDue(ctx context.Context, msg *amqp.PaymentDueMessage) error
}

// ReminderSource is the persistence ReminderProcessor needs.
type ReminderSource interface {
	ports.TransactionStore
	ports.ReminderStore
}

// ReminderProcessor announces urgent recurring payments once per occurrence.
type ReminderProcessor struct {
	store     ReminderSource
	publisher ReminderPublisher
}

func NewReminderProcessor(store ReminderSource, publisher ReminderPublisher) *ReminderProcessor {
	return &ReminderProcessor{
		store:     store,
		publisher: publisher,
	}
}

// ProcessDueReminders publishes a payment.due message for every urgent projected
// payment of every user that was not announced yet for its due date. It returns how
// many reminders were published. Failures of a single user or payment are logged and
// skipped.
func (p *ReminderProcessor) ProcessDueReminders(ctx context.Context, today core.Date) (int, error) {
	if p.store == nil || p.publisher == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	users, err := p.store.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	slog.InfoContext(ctx, "Processing payment reminders",
		"users", len(users),
		"processing_date", today.String())

	published := 0
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return published, err
		}
		n, err := p.processUser(ctx, userID, today)
		published += n
		if err != nil {
			slog.ErrorContext(ctx, "Failed to process reminders for user",
				"user_id", userID,
				"error", err)
		}
	}

	slog.InfoContext(ctx, "Payment reminder processing complete",
		"published", published,
		"users", len(users))
	return published, nil
}

func (p *ReminderProcessor) processUser(ctx context.Context, userID string, today core.Date) (int, error) {
	txs, err := p.store.ListTransactions(ctx, userID, ports.TransactionFilter{Type: core.FixedExpense})
	if err != nil {
		return 0, fmt.Errorf("list transactions: %w", err)
	}

	published := 0
	for _, payment := range UpcomingPayments(txs, today, len(txs)) {
		if !payment.Urgent {
			continue
		}

		reminded, err := p.store.WasReminded(ctx, userID, payment.Transaction.ID, payment.NextDate)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to check reminder state",
				"transaction_id", payment.Transaction.ID,
				"error", err)
			continue
		}
		if reminded {
			continue
		}

		if err := p.publisher.PublishPaymentDue(ctx, amqp.NewPaymentDueMessage(userID, payment)); err != nil {
			slog.ErrorContext(ctx, "Failed to publish payment reminder",
				"transaction_id", payment.Transaction.ID,
				"due_date", payment.NextDate.String(),
				"error", err)
			continue
		}

		// Not fatal: a reminder that fails to be recorded is published again next run.
		if err := p.store.MarkReminded(ctx, userID, payment.Transaction.ID, payment.NextDate); err != nil {
			slog.ErrorContext(ctx, "Failed to record payment reminder",
				"transaction_id", payment.Transaction.ID,
				"error", err)
		}

		published++
		metrics.RemindersPublished.Inc()
		slog.InfoContext(ctx, "Published payment reminder",
			"user_id", userID,
			"transaction_id", payment.Transaction.ID,
			"due_date", payment.NextDate.String(),
			"days_remaining", payment.DaysRemaining)
	}
	return published, nil
}
