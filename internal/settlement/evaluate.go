package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Obligation is the slice of an expense needed for one evaluation pass:
// identity, principal, posted payment amounts and due date.
type Obligation struct {
	ID        int64
	Principal decimal.Decimal
	Payments  []decimal.Decimal
	DueDate   Date
}

// Candidate is one (expense, rule) pair that must be notified today.
// Candidates are ephemeral; the delivery side persists and dedupes them
// using the idempotency key.
type Candidate struct {
	ObligationID int64
	RuleID       int64
	RuleType     RuleType
	DaysToDue    int
	TriggerDate  string
	Key          string
}

// Result summarizes one evaluation pass.
type Result struct {
	Candidates    []Candidate
	EligibleCount int
	TotalCount    int
}

// Key derives the idempotency key for one (expense, rule, day) triple:
// "{expenseID}:{ruleID}:{YYYY-MM-DD}". Identical inputs always produce the
// identical key, which is what lets the delivery side suppress duplicate
// sends when the same pass runs more than once on a calendar day.
func Key(obligationID, ruleID int64, triggerDate string) string {
	return fmt.Sprintf("%d:%d:%s", obligationID, ruleID, triggerDate)
}

// Evaluate runs one notification pass over every expense and every rule.
//
// Each expense is projected through Compute, filtered for eligibility, and
// tested against every rule; each match emits a candidate. The result is
// deterministic: candidates follow the input expense order, then rule order.
// One expense may emit zero, one or several candidates in a single pass, one
// per distinct matching rule.
//
// The pass performs no I/O and holds no state, so invoking it repeatedly or
// concurrently with identical inputs is safe and yields identical results.
func Evaluate(today Date, obligations []Obligation, rules []Rule) Result {
	result := Result{TotalCount: len(obligations)}
	trigger := today.String()

	for _, ob := range obligations {
		state := Compute(ob.Principal, ob.Payments, ob.DueDate, today)
		if !state.Eligible() {
			continue
		}
		result.EligibleCount++

		for _, rule := range rules {
			if !rule.Matches(state.DaysToDue) {
				continue
			}
			result.Candidates = append(result.Candidates, Candidate{
				ObligationID: ob.ID,
				RuleID:       rule.ID,
				RuleType:     rule.Type,
				DaysToDue:    state.DaysToDue,
				TriggerDate:  trigger,
				Key:          Key(ob.ID, rule.ID, trigger),
			})
		}
	}

	return result
}
