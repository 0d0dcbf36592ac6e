package settlement_test

import (
	"testing"
	"time"

	"github.com/branchops/expense-service/internal/settlement"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCompute_NoPayments_FutureDue_Pending(t *testing.T) {
	today := settlement.NewDate(2026, time.February, 20)
	due := settlement.NewDate(2026, time.February, 27)

	got := settlement.Compute(dec("1500.00"), nil, due, today)

	assert.Equal(t, settlement.StatusPending, got.Status)
	assert.True(t, got.TotalPaid.IsZero())
	assert.True(t, got.Balance.Equal(dec("1500.00")))
	assert.Equal(t, 7, got.DaysToDue)
}

func TestCompute_NoPayments_DueToday_Pending(t *testing.T) {
	// The due date itself is not overdue
	today := settlement.NewDate(2026, time.February, 20)

	got := settlement.Compute(dec("100"), nil, today, today)

	assert.Equal(t, settlement.StatusPending, got.Status)
	assert.Equal(t, 0, got.DaysToDue)
}

func TestCompute_NoPayments_PastDue_Overdue(t *testing.T) {
	today := settlement.NewDate(2026, time.February, 21)
	due := settlement.NewDate(2026, time.February, 20)

	got := settlement.Compute(dec("100"), nil, due, today)

	assert.Equal(t, settlement.StatusOverdue, got.Status)
	assert.Equal(t, -1, got.DaysToDue)
}

func TestCompute_PartialPayments_SumAndBalance(t *testing.T) {
	today := settlement.NewDate(2026, time.February, 20)
	due := settlement.NewDate(2026, time.March, 1)
	payments := []decimal.Decimal{dec("400.50"), dec("99.50")}

	got := settlement.Compute(dec("1500.00"), payments, due, today)

	assert.True(t, got.TotalPaid.Equal(dec("500.00")))
	assert.True(t, got.Balance.Equal(dec("1000.00")))
	assert.Equal(t, settlement.StatusPending, got.Status)
}

func TestCompute_FullyPaid_PaidRegardlessOfDueDate(t *testing.T) {
	// PAID is sticky: the due date relationship to today is irrelevant
	today := settlement.NewDate(2026, time.June, 1)
	longPastDue := settlement.NewDate(2026, time.January, 10)

	got := settlement.Compute(dec("750"), []decimal.Decimal{dec("250"), dec("500")}, longPastDue, today)

	assert.Equal(t, settlement.StatusPaid, got.Status)
	assert.True(t, got.Balance.IsZero())
}

func TestCompute_OverpaidBalanceClampedToZero(t *testing.T) {
	// Overpayment is blocked upstream, but the projection still clamps
	today := settlement.NewDate(2026, time.February, 20)
	due := settlement.NewDate(2026, time.February, 25)

	got := settlement.Compute(dec("100"), []decimal.Decimal{dec("150")}, due, today)

	assert.Equal(t, settlement.StatusPaid, got.Status)
	assert.True(t, got.Balance.IsZero(), "balance must never go negative")
}

func TestCompute_ZeroPrincipal_IsPaid(t *testing.T) {
	today := settlement.NewDate(2026, time.February, 20)
	due := settlement.NewDate(2026, time.February, 10)

	got := settlement.Compute(decimal.Zero, nil, due, today)

	assert.Equal(t, settlement.StatusPaid, got.Status)
}

func TestCompute_Deterministic(t *testing.T) {
	today := settlement.NewDate(2026, time.February, 20)
	due := settlement.NewDate(2026, time.March, 15)
	payments := []decimal.Decimal{dec("10"), dec("20")}

	first := settlement.Compute(dec("90"), payments, due, today)
	second := settlement.Compute(dec("90"), payments, due, today)

	assert.Equal(t, first.Status, second.Status)
	assert.True(t, first.TotalPaid.Equal(second.TotalPaid))
	assert.True(t, first.Balance.Equal(second.Balance))
	assert.Equal(t, first.DaysToDue, second.DaysToDue)
}

func TestEligible(t *testing.T) {
	today := settlement.NewDate(2026, time.February, 20)
	due := settlement.NewDate(2026, time.February, 25)

	unpaid := settlement.Compute(dec("100"), nil, due, today)
	assert.True(t, unpaid.Eligible())

	partial := settlement.Compute(dec("100"), []decimal.Decimal{dec("60")}, due, today)
	assert.True(t, partial.Eligible())

	paid := settlement.Compute(dec("100"), []decimal.Decimal{dec("100")}, due, today)
	assert.False(t, paid.Eligible(), "fully settled expense is never eligible")

	zero := settlement.Compute(decimal.Zero, nil, due, today)
	assert.False(t, zero.Eligible(), "zero balance is never eligible")
}
