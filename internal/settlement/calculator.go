package settlement

import "github.com/shopspring/decimal"

// Status classifies an expense against its payment history.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusOverdue Status = "OVERDUE"
	StatusPaid    Status = "PAID"
)

// Settlement is the derived payment state of one expense. The status column
// stored alongside the expense is only a cache of this projection.
type Settlement struct {
	TotalPaid decimal.Decimal
	Balance   decimal.Decimal
	Status    Status
	DaysToDue int
}

// Compute derives the settlement state of an expense from its principal,
// posted payment amounts, due date and the current business day.
//
// PAID is sticky: once the payments cover the principal the status is PAID
// regardless of how the due date relates to today. Otherwise the expense is
// OVERDUE when the due date is strictly before today and PENDING when the due
// date is today or later. DaysToDue is positive while the due date is ahead
// and negative once it has passed.
//
// Pure and deterministic. Callers reject negative principals and non-positive
// payment amounts before they reach this function.
func Compute(principal decimal.Decimal, payments []decimal.Decimal, dueDate, today Date) Settlement {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p)
	}

	balance := principal.Sub(total)
	if balance.IsNegative() {
		balance = decimal.Zero
	}

	status := StatusPending
	switch {
	case total.GreaterThanOrEqual(principal):
		status = StatusPaid
	case dueDate.Before(today):
		status = StatusOverdue
	}

	return Settlement{
		TotalPaid: total,
		Balance:   balance,
		Status:    status,
		DaysToDue: DaysBetween(today, dueDate),
	}
}

// Eligible reports whether the expense is a candidate for notification:
// not fully paid and carrying a positive balance. The decision is made from
// the live projection, never from a stored status string, so a stale cache
// cannot suppress or produce alerts.
func (s Settlement) Eligible() bool {
	return s.Status != StatusPaid && s.Balance.IsPositive()
}
