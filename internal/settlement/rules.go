package settlement

// RuleType identifies a notification rule family. The enumeration is closed:
// anything outside it never matches.
type RuleType string

const (
	// RuleDueReminder fires a fixed number of days before the due date.
	RuleDueReminder RuleType = "DUE_REMINDER"
	// RuleOverdueEscalation fires a fixed number of days after the due date.
	RuleOverdueEscalation RuleType = "OVERDUE_ESCALATION"
)

// KnownRuleType reports whether t belongs to the closed rule enumeration.
// Loaders use this to surface misconfigured rows; the matcher itself simply
// fails closed on anything unknown.
func KnownRuleType(t RuleType) bool {
	return t == RuleDueReminder || t == RuleOverdueEscalation
}

// Rule is one notification rule. DayOffset is signed and interpreted per
// type: reminders are configured with negative offsets (-7 = a week before
// the due date), escalations with positive ones (1 = the day after).
type Rule struct {
	ID          int64
	Type        RuleType
	DayOffset   int
	Active      bool
	Description string
}

// Matches reports whether the rule fires for the given signed days-to-due.
//
// This is an exact-day test, not a threshold: each rule fires on one specific
// day per expense, so an expense accumulates distinct reminders and
// escalations over its lifetime without re-firing daily.
//
//   - DUE_REMINDER matches only abs(offset) days before the due date. It
//     never matches on or after the due date: an offset of -7 does not match
//     an expense that is 7 days overdue.
//   - OVERDUE_ESCALATION matches only abs(offset) days after the due date,
//     never on the due date itself and never before it.
//
// Inactive rules and unknown rule types never match.
func (r Rule) Matches(daysToDue int) bool {
	if !r.Active {
		return false
	}

	offset := r.DayOffset
	if offset < 0 {
		offset = -offset
	}
	if offset == 0 {
		return false
	}

	switch r.Type {
	case RuleDueReminder:
		return daysToDue == offset
	case RuleOverdueEscalation:
		return daysToDue == -offset
	default:
		return false
	}
}
