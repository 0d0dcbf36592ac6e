package settlement_test

import (
	"testing"
	"time"

	"github.com/branchops/expense-service/internal/settlement"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_Format(t *testing.T) {
	assert.Equal(t, "100:1:2026-02-20", settlement.Key(100, 1, "2026-02-20"))
}

func TestKey_StableAcrossCalls(t *testing.T) {
	first := settlement.Key(42, 7, "2026-03-01")
	second := settlement.Key(42, 7, "2026-03-01")
	assert.Equal(t, first, second)
}

func TestEvaluate_ReminderWeekBeforeDue(t *testing.T) {
	// GIVEN: today is a week before the due date, with one reminder and
	// one escalation rule configured
	today := settlement.NewDate(2026, time.February, 20)
	obligations := []settlement.Obligation{{
		ID:        100,
		Principal: dec("1500.00"),
		DueDate:   settlement.NewDate(2026, time.February, 27),
	}}
	rules := []settlement.Rule{
		{ID: 1, Type: settlement.RuleDueReminder, DayOffset: -7, Active: true},
		{ID: 2, Type: settlement.RuleOverdueEscalation, DayOffset: 1, Active: true},
	}

	// WHEN: the pass runs
	result := settlement.Evaluate(today, obligations, rules)

	// THEN: exactly the reminder fires
	require.Len(t, result.Candidates, 1)
	candidate := result.Candidates[0]
	assert.Equal(t, int64(100), candidate.ObligationID)
	assert.Equal(t, int64(1), candidate.RuleID)
	assert.Equal(t, settlement.RuleDueReminder, candidate.RuleType)
	assert.Equal(t, 7, candidate.DaysToDue)
	assert.Equal(t, "2026-02-20", candidate.TriggerDate)
	assert.Equal(t, "100:1:2026-02-20", candidate.Key)
	assert.Equal(t, 1, result.EligibleCount)
	assert.Equal(t, 1, result.TotalCount)
}

func TestEvaluate_EscalationDayAfterDue(t *testing.T) {
	today := settlement.NewDate(2026, time.February, 21)
	obligations := []settlement.Obligation{{
		ID:        100,
		Principal: dec("1500.00"),
		DueDate:   settlement.NewDate(2026, time.February, 20),
	}}
	rules := []settlement.Rule{
		{ID: 2, Type: settlement.RuleOverdueEscalation, DayOffset: 1, Active: true},
	}

	result := settlement.Evaluate(today, obligations, rules)

	require.Len(t, result.Candidates, 1)
	assert.Equal(t, -1, result.Candidates[0].DaysToDue)
	assert.Equal(t, settlement.RuleOverdueEscalation, result.Candidates[0].RuleType)
}

func TestEvaluate_PaidExpenseNeverCandidate(t *testing.T) {
	// The reminder offset matches the day, but the expense is settled
	today := settlement.NewDate(2026, time.February, 20)
	obligations := []settlement.Obligation{{
		ID:        100,
		Principal: dec("1500.00"),
		Payments:  []decimal.Decimal{dec("1500.00")},
		DueDate:   settlement.NewDate(2026, time.February, 27),
	}}
	rules := []settlement.Rule{
		{ID: 1, Type: settlement.RuleDueReminder, DayOffset: -7, Active: true},
	}

	result := settlement.Evaluate(today, obligations, rules)

	assert.Empty(t, result.Candidates)
	assert.Equal(t, 0, result.EligibleCount)
	assert.Equal(t, 1, result.TotalCount)
}

func TestEvaluate_EligibilityFromLivePayments(t *testing.T) {
	// Eligibility is derived from the payment history handed in, so a
	// stale stored status on the expense row cannot suppress an alert
	today := settlement.NewDate(2026, time.February, 21)
	obligations := []settlement.Obligation{{
		ID:        5,
		Principal: dec("900"),
		Payments:  []decimal.Decimal{dec("300")}, // partially paid, whatever the cached status claims
		DueDate:   settlement.NewDate(2026, time.February, 20),
	}}
	rules := []settlement.Rule{
		{ID: 2, Type: settlement.RuleOverdueEscalation, DayOffset: 1, Active: true},
	}

	result := settlement.Evaluate(today, obligations, rules)

	require.Len(t, result.Candidates, 1)
	assert.Equal(t, int64(5), result.Candidates[0].ObligationID)
}

func TestEvaluate_MultipleRulesMultipleCandidates(t *testing.T) {
	// Two reminders configured at different offsets; an expense seven days
	// out fires only the matching one, and an expense three days out only
	// the other
	today := settlement.NewDate(2026, time.February, 20)
	obligations := []settlement.Obligation{
		{ID: 1, Principal: dec("100"), DueDate: settlement.NewDate(2026, time.February, 27)},
		{ID: 2, Principal: dec("200"), DueDate: settlement.NewDate(2026, time.February, 23)},
	}
	rules := []settlement.Rule{
		{ID: 10, Type: settlement.RuleDueReminder, DayOffset: -7, Active: true},
		{ID: 11, Type: settlement.RuleDueReminder, DayOffset: -3, Active: true},
	}

	result := settlement.Evaluate(today, obligations, rules)

	require.Len(t, result.Candidates, 2)
	// Stable order: input obligation order, then rule order
	assert.Equal(t, int64(1), result.Candidates[0].ObligationID)
	assert.Equal(t, int64(10), result.Candidates[0].RuleID)
	assert.Equal(t, int64(2), result.Candidates[1].ObligationID)
	assert.Equal(t, int64(11), result.Candidates[1].RuleID)
	assert.Equal(t, 2, result.EligibleCount)
}

func TestEvaluate_OneExpenseCanMatchSeveralRules(t *testing.T) {
	// Two distinct rule rows with the same effective day both fire
	today := settlement.NewDate(2026, time.February, 20)
	obligations := []settlement.Obligation{
		{ID: 1, Principal: dec("100"), DueDate: settlement.NewDate(2026, time.February, 27)},
	}
	rules := []settlement.Rule{
		{ID: 10, Type: settlement.RuleDueReminder, DayOffset: -7, Active: true},
		{ID: 11, Type: settlement.RuleDueReminder, DayOffset: 7, Active: true},
	}

	result := settlement.Evaluate(today, obligations, rules)

	require.Len(t, result.Candidates, 2)
	assert.Equal(t, "1:10:2026-02-20", result.Candidates[0].Key)
	assert.Equal(t, "1:11:2026-02-20", result.Candidates[1].Key)
}

func TestEvaluate_InactiveRuleProducesNothing(t *testing.T) {
	today := settlement.NewDate(2026, time.February, 20)
	obligations := []settlement.Obligation{
		{ID: 1, Principal: dec("100"), DueDate: settlement.NewDate(2026, time.February, 27)},
	}
	rules := []settlement.Rule{
		{ID: 10, Type: settlement.RuleDueReminder, DayOffset: -7, Active: false},
	}

	result := settlement.Evaluate(today, obligations, rules)

	assert.Empty(t, result.Candidates)
	assert.Equal(t, 1, result.EligibleCount)
}

func TestEvaluate_RepeatedRunsIdentical(t *testing.T) {
	// Pure function: re-running the same day yields the same candidates
	// with the same keys, which is what lets delivery dedupe
	today := settlement.NewDate(2026, time.February, 20)
	obligations := []settlement.Obligation{
		{ID: 1, Principal: dec("100"), DueDate: settlement.NewDate(2026, time.February, 27)},
		{ID: 2, Principal: dec("200"), Payments: []decimal.Decimal{dec("50")}, DueDate: settlement.NewDate(2026, time.February, 13)},
	}
	rules := []settlement.Rule{
		{ID: 10, Type: settlement.RuleDueReminder, DayOffset: -7, Active: true},
		{ID: 11, Type: settlement.RuleOverdueEscalation, DayOffset: 7, Active: true},
	}

	first := settlement.Evaluate(today, obligations, rules)
	second := settlement.Evaluate(today, obligations, rules)

	assert.Equal(t, first, second)
}

func TestEvaluate_EmptyInputs(t *testing.T) {
	today := settlement.NewDate(2026, time.February, 20)

	result := settlement.Evaluate(today, nil, nil)

	assert.Empty(t, result.Candidates)
	assert.Equal(t, 0, result.EligibleCount)
	assert.Equal(t, 0, result.TotalCount)
}
