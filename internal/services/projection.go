// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for recurring payment projection.
// Each frequency (monthly, yearly) has its own projector that encapsulates how
// the next occurrence is derived from the first payment date.

package services

import (
	"fmt"
	"sort"

	"finanzas/internal/core"
)

const (
	// UpcomingPaymentsLimit is how many projected payments are shown.
	UpcomingPaymentsLimit = 5
	// UrgentWithinDays marks a payment due in this many days or fewer as urgent.
	UrgentWithinDays = 3
)

// OccurrenceProjector is the strategy interface for projecting a recurring payment.
// Each implementation encapsulates the calendar rule for a specific frequency.
type OccurrenceProjector interface {
	// Next returns the first occurrence strictly after today, or start itself when
	// the schedule has not begun yet. Both dates are calendar days.
	Next(start, today core.Date) core.Date
}

// MonthlyProjector implements OccurrenceProjector for monthly payments.
type MonthlyProjector struct{}

// Next builds a candidate on today's month with the start day-of-month. A day that does
// not exist in that month rolls into the following one (Jan 31 -> Mar 2 in a leap year).
// Advancing a candidate one month clamps to the end of the target month instead.
func (MonthlyProjector) Next(start, today core.Date) core.Date {
	if start.After(today) {
		return start
	}
	candidate := core.NewDate(today.Year(), today.Month(), start.Day())
	if candidate.After(today) {
		return candidate
	}
	return candidate.AddMonthsClamped(1)
}

// YearlyProjector implements OccurrenceProjector for yearly payments.
type YearlyProjector struct{}

// Next builds a candidate on today's year with the start month and day. Advancing it
// one year clamps Feb 29 to Feb 28.
func (YearlyProjector) Next(start, today core.Date) core.Date {
	candidate := core.NewDate(today.Year(), start.Month(), start.Day())
	if candidate.After(today) {
		return candidate
	}
	return candidate.AddYearsClamped(1)
}

// projectors maps frequencies to their corresponding projector.
var projectors = map[core.Frequency]OccurrenceProjector{
	core.Monthly: MonthlyProjector{},
	core.Yearly:  YearlyProjector{},
}

// GetProjector returns the projector for a frequency.
// Returns an error if the frequency has no recurring schedule.
func GetProjector(frequency core.Frequency) (OccurrenceProjector, error) {
	projector, ok := projectors[frequency]
	if !ok {
		return nil, fmt.Errorf("%w: frequency %q", core.ErrNotProjectable, frequency)
	}
	return projector, nil
}

// RegisterProjector allows registering projectors for new frequencies.
func RegisterProjector(frequency core.Frequency, projector OccurrenceProjector) {
	projectors[frequency] = projector
}

// NextOccurrence projects a recurring fixed expense relative to today.
// Only fixed expenses with a monthly or yearly frequency can be projected; callers
// filter the rest out before calling.
func NextOccurrence(tx core.Transaction, today core.Date) (core.Projection, error) {
	if tx.Type != core.FixedExpense {
		return core.Projection{}, fmt.Errorf("%w: type %q", core.ErrNotProjectable, tx.Type)
	}
	projector, err := GetProjector(tx.Frequency)
	if err != nil {
		return core.Projection{}, err
	}

	start := core.DateOf(tx.Date.Time)
	today = core.DateOf(today.Time)
	next := projector.Next(start, today)

	return core.Projection{
		NextDate:      next,
		DaysRemaining: today.DaysUntil(next),
	}, nil
}

// UpcomingPayments projects every recurring fixed expense, orders them by days
// remaining and keeps the first limit entries.
func UpcomingPayments(transactions []core.Transaction, today core.Date, limit int) []core.UpcomingPayment {
	upcoming := make([]core.UpcomingPayment, 0)
	for _, tx := range transactions {
		if !tx.IsRecurringFixed() {
			continue
		}
		projection, err := NextOccurrence(tx, today)
		if err != nil {
			continue
		}
		upcoming = append(upcoming, core.UpcomingPayment{
			Transaction: tx,
			Projection:  projection,
			Urgent:      projection.DaysRemaining <= UrgentWithinDays,
			Label:       DueLabel(projection.DaysRemaining),
		})
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].DaysRemaining < upcoming[j].DaysRemaining
	})
	if limit > 0 && len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming
}

// DueLabel renders days remaining the way the payment list shows it.
func DueLabel(days int) string {
	switch days {
	case 0:
		return "Hoy"
	case 1:
		return "Mañana"
	default:
		return fmt.Sprintf("En %d días", days)
	}
}
