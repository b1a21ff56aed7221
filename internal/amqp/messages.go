package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"finanzas/internal/core"
)

// Routing keys used on the exchange.
const (
	RoutingTransactionCreated = "transaction.created"
	RoutingTransactionDeleted = "transaction.deleted"
	RoutingPaymentDue         = "payment.due"
)

// TransactionEvent announces a change to a user's ledger. Created events carry the
// full transaction so consumers never need to read the store.
type TransactionEvent struct {
	Event         string            `json:"event"`
	UserID        string            `json:"user_id"`
	TransactionID string            `json:"transaction_id"`
	Transaction   *core.Transaction `json:"transaction,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

// NewTransactionCreated builds the event for a freshly stored transaction.
func NewTransactionCreated(tx core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		Event:         RoutingTransactionCreated,
		UserID:        tx.UserID,
		TransactionID: tx.ID,
		Transaction:   &tx,
		Timestamp:     time.Now(),
	}
}

// NewTransactionDeleted builds the event for a removed transaction.
func NewTransactionDeleted(userID, transactionID string) *TransactionEvent {
	return &TransactionEvent{
		Event:         RoutingTransactionDeleted,
		UserID:        userID,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON decodes and sanity checks an event.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Event {
	case RoutingTransactionCreated:
		if msg.Transaction == nil {
			return nil, fmt.Errorf("%s event without transaction", msg.Event)
		}
	case RoutingTransactionDeleted:
	default:
		return nil, fmt.Errorf("unknown event %q", msg.Event)
	}
	if msg.TransactionID == "" {
		return nil, fmt.Errorf("%s event without transaction id", msg.Event)
	}
	return &msg, nil
}

// PaymentDueMessage announces an upcoming recurring payment.
type PaymentDueMessage struct {
	UserID        string     `json:"user_id"`
	TransactionID string     `json:"transaction_id"`
	Description   string     `json:"description"`
	Amount        core.Money `json:"amount"`
	DueDate       core.Date  `json:"due_date"`
	DaysRemaining int        `json:"days_remaining"`
	Label         string     `json:"label"`
	Timestamp     time.Time  `json:"timestamp"`
}

// NewPaymentDueMessage builds the reminder for a projected payment.
func NewPaymentDueMessage(userID string, p core.UpcomingPayment) *PaymentDueMessage {
	return &PaymentDueMessage{
		UserID:        userID,
		TransactionID: p.Transaction.ID,
		Description:   p.Transaction.Description,
		Amount:        p.Transaction.Amount,
		DueDate:       p.NextDate,
		DaysRemaining: p.DaysRemaining,
		Label:         p.Label,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *PaymentDueMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PaymentDueMessageFromJSON decodes a reminder.
func PaymentDueMessageFromJSON(data []byte) (*PaymentDueMessage, error) {
	var msg PaymentDueMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.TransactionID == "" || msg.DueDate.IsEmpty() {
		return nil, fmt.Errorf("payment due message missing transaction id or due date")
	}
	return &msg, nil
}
