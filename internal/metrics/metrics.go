package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the daily alert evaluation pass.
var (
	EvaluationRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "expense_alert_evaluation_runs_total",
		Help: "Number of alert evaluation passes executed.",
	})

	ExpensesEvaluated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "expense_alert_expenses_evaluated_total",
		Help: "Expenses considered across all evaluation passes.",
	})

	ExpensesEligible = promauto.NewCounter(prometheus.CounterOpts{
		Name: "expense_alert_expenses_eligible_total",
		Help: "Expenses that passed the eligibility filter.",
	})

	CandidatesProduced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "expense_alert_candidates_total",
		Help: "Notification candidates produced by rule matching.",
	})

	AlertsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "expense_alert_emails_sent_total",
		Help: "Alert emails handed to the SMTP relay.",
	})

	AlertsSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "expense_alert_emails_suppressed_total",
		Help: "Candidates skipped because their idempotency key was already claimed.",
	})

	AlertSendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "expense_alert_email_failures_total",
		Help: "Alert emails that failed to send.",
	})
)
