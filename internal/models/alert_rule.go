package models

import "time"

// AlertRule is notification configuration: when, relative to an expense's due
// date, an email should fire. DayOffset is signed and interpreted by rule
// type (negative before the due date for reminders, positive after it for
// escalations).
type AlertRule struct {
	ID          int64     `json:"id"`
	RuleType    string    `json:"rule_type"` // DUE_REMINDER | OVERDUE_ESCALATION
	DayOffset   int       `json:"day_offset"`
	Active      bool      `json:"active"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AlertLogEntry records one delivered (or claimed) notification. The
// idempotency key is unique per (expense, rule, calendar day), which is what
// keeps repeated evaluation runs from emailing twice.
type AlertLogEntry struct {
	ID             int64     `json:"id"`
	ExpenseID      int64     `json:"expense_id"`
	RuleID         int64     `json:"rule_id"`
	IdempotencyKey string    `json:"idempotency_key"`
	TriggerDate    string    `json:"trigger_date"` // YYYY-MM-DD
	SentAt         time.Time `json:"sent_at"`
}
