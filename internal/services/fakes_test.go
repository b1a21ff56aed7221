package services

import (
	"context"
	"sync"

	"finanzas/internal/amqp"
)

type fakePublisher struct {
	mu     sync.Mutex
	err    error
	events []*amqp.TransactionEvent
	due    []*amqp.PaymentDueMessage
}

func (p *fakePublisher) PublishTransactionEvent(_ context.Context, msg *amqp.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, msg)
	return nil
}

func (p *fakePublisher) PublishPaymentDue(_ context.Context, msg *amqp.PaymentDueMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.due = append(p.due, msg)
	return nil
}

type fakeInvalidator struct {
	users []string
}

func (f *fakeInvalidator) Invalidate(userID string) {
	f.users = append(f.users, userID)
}
