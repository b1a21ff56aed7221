package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	applog "finanzas/internal/log"
	"finanzas/internal/metrics"
	"finanzas/internal/ports"
)

// EventPublisher publishes ledger change events.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, msg *amqp.TransactionEvent) error
}

// Invalidator drops cached views of a user after a write.
type Invalidator interface {
	Invalidate(userID string)
}

// LedgerStore is the persistence TransactionService needs.
type LedgerStore interface {
	ports.CategoryStore
	ports.TransactionStore
}

// TransactionInput is a transaction as submitted by a user, with the category given
// by name.
type TransactionInput struct {
	Amount      core.Money           `json:"amount"`
	Description string               `json:"description"`
	Date        core.Date            `json:"date"`
	Type        core.TransactionType `json:"type"`
	Frequency   core.Frequency       `json:"frequency"`
	Category    string               `json:"category"`
}

func (in TransactionInput) transaction(userID string) core.Transaction {
	return core.Transaction{
		UserID:      userID,
		Amount:      in.Amount,
		Description: strings.TrimSpace(in.Description),
		Date:        in.Date,
		Type:        in.Type,
		Frequency:   in.Frequency,
	}
}

// Validate reports every invalid field of the input.
func (in TransactionInput) Validate() error {
	var errs core.ValidationErrors
	if v, ok := core.AsValidation(in.transaction("").Validate()); ok {
		errs = append(errs, v...)
	}
	if strings.TrimSpace(in.Category) == "" {
		errs.Add("category", core.ErrEmptyCategory)
	}
	return errs.OrNil()
}

// TransactionService orchestrates transaction writes across the store, the event
// exchange and the dashboard cache.
type TransactionService struct {
	store       LedgerStore
	publisher   EventPublisher
	invalidator Invalidator
}

// NewTransactionService wires the service. publisher and invalidator may be nil.
func NewTransactionService(store LedgerStore, publisher EventPublisher, invalidator Invalidator) *TransactionService {
	return &TransactionService{
		store:       store,
		publisher:   publisher,
		invalidator: invalidator,
	}
}

// CreateTransaction stores a transaction, creating its category on first use, and
// announces it. A failed publish is logged; the stored transaction stands.
func (s *TransactionService) CreateTransaction(ctx context.Context, userID string, in TransactionInput) (core.Transaction, error) {
	if userID == "" {
		return core.Transaction{}, core.ErrMissingUser
	}
	if err := in.Validate(); err != nil {
		return core.Transaction{}, err
	}

	category, err := s.store.UpsertCategory(ctx, userID, strings.TrimSpace(in.Category),
		core.CategoryTypeFor(in.Type), core.DefaultTransactionIcon, core.DefaultCategoryColor)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("upsert category: %w", err)
	}

	tx := in.transaction(userID)
	tx.CategoryID = category.ID
	created, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	if created.Category == nil {
		created.Category = &category
	}
	metrics.TransactionsCreated.WithLabelValues(string(created.Type)).Inc()

	s.invalidate(userID)
	if err := s.publish(ctx, amqp.NewTransactionCreated(created)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"event", amqp.RoutingTransactionCreated,
			"transaction_id", created.ID,
			"error", err)
	}

	applog.NewStructuredLogger(applog.FromContext(ctx)).LogTransactionCreated(ctx,
		userID, created.ID, created.Description, created.Amount.Cents, string(created.Type), category.Name)
	return created, nil
}

// DeleteTransaction removes a transaction of the user and announces it.
func (s *TransactionService) DeleteTransaction(ctx context.Context, userID, id string) error {
	if userID == "" {
		return core.ErrMissingUser
	}
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.invalidate(userID)
	if err := s.publish(ctx, amqp.NewTransactionDeleted(userID, id)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"event", amqp.RoutingTransactionDeleted,
			"transaction_id", id,
			"error", err)
	}
	return nil
}

// ListTransactions returns the user's transactions matching filter, newest first.
func (s *TransactionService) ListTransactions(ctx context.Context, userID string, filter ports.TransactionFilter) ([]core.Transaction, error) {
	if userID == "" {
		return nil, core.ErrMissingUser
	}
	txs, err := s.store.ListTransactions(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// History returns the rows of a report. It is the listing ordered newest first.
func (s *TransactionService) History(ctx context.Context, userID string, filter ports.TransactionFilter) ([]core.Transaction, error) {
	txs, err := s.ListTransactions(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	return RecentTransactions(txs, len(txs)), nil
}

// Categories returns the user's categories.
func (s *TransactionService) Categories(ctx context.Context, userID string) ([]core.Category, error) {
	if userID == "" {
		return nil, core.ErrMissingUser
	}
	return s.store.ListCategories(ctx, userID)
}

func (s *TransactionService) publish(ctx context.Context, msg *amqp.TransactionEvent) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping transaction event",
			"event", msg.Event)
		return nil
	}
	return s.publisher.PublishTransactionEvent(ctx, msg)
}

func (s *TransactionService) invalidate(userID string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(userID)
	}
}
