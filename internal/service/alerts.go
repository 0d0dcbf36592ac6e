package service

import (
	"time"

	"github.com/branchops/expense-service/internal/metrics"
	"github.com/branchops/expense-service/internal/models"
	"github.com/branchops/expense-service/internal/repository"
	"github.com/branchops/expense-service/internal/settlement"
	"github.com/branchops/expense-service/internal/utils/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// NoticeSender delivers branch notification emails.
type NoticeSender interface {
	SendDueReminder(n email.Notice) error
	SendOverdueEscalation(n email.Notice) error
}

// KeyRateProvider supplies the central bank key rate in percent per year.
type KeyRateProvider interface {
	GetKeyRate() (float64, error)
}

// AlertService runs the daily notification pass: it snapshots expenses and
// rules, hands them to the pure evaluation core, and delivers the resulting
// candidates. Deduplication across repeated runs happens here, against the
// alert log, keyed by the candidate's idempotency key.
type AlertService struct {
	repo     *repository.Repository
	sender   NoticeSender
	rates    KeyRateProvider
	log      *logrus.Logger
	calendar settlement.Calendar
}

// NewAlertService initializes the alert evaluation service. rates may be nil;
// escalation emails then omit the late-fee estimate.
func NewAlertService(repo *repository.Repository, sender NoticeSender, rates KeyRateProvider, calendar settlement.Calendar, log *logrus.Logger) *AlertService {
	return &AlertService{
		repo:     repo,
		sender:   sender,
		rates:    rates,
		log:      log,
		calendar: calendar,
	}
}

// Run executes one evaluation pass for the current business day.
func (s *AlertService) Run() (settlement.Result, error) {
	return s.RunForDay(s.calendar.DateOf(time.Now()))
}

// RunForDay executes one evaluation pass for an explicit calendar day.
// Re-running for the same day is safe: already-claimed idempotency keys are
// skipped without sending.
func (s *AlertService) RunForDay(today settlement.Date) (settlement.Result, error) {
	snapshots, err := s.repo.ListExpenseSnapshots()
	if err != nil {
		return settlement.Result{}, err
	}
	ruleRows, err := s.repo.ListActiveAlertRules()
	if err != nil {
		return settlement.Result{}, err
	}

	obligations := make([]settlement.Obligation, 0, len(snapshots))
	byExpense := make(map[int64]repository.ExpenseSnapshot, len(snapshots))
	for _, snap := range snapshots {
		dueDate, err := settlement.ParseDate(snap.Expense.DueDate)
		if err != nil {
			return settlement.Result{}, err
		}
		obligations = append(obligations, settlement.Obligation{
			ID:        snap.Expense.ID,
			Principal: snap.Expense.Amount,
			Payments:  snap.PaymentAmounts,
			DueDate:   dueDate,
		})
		byExpense[snap.Expense.ID] = snap
	}

	rules := make([]settlement.Rule, 0, len(ruleRows))
	for _, row := range ruleRows {
		ruleType := settlement.RuleType(row.RuleType)
		if !settlement.KnownRuleType(ruleType) {
			// Fail closed, but loudly: an unknown type is a data
			// integrity problem in the rule configuration.
			s.log.Warnf("Skipping alert rule %d: unknown rule type %q", row.ID, row.RuleType)
			continue
		}
		rules = append(rules, settlement.Rule{
			ID:          row.ID,
			Type:        ruleType,
			DayOffset:   row.DayOffset,
			Active:      row.Active,
			Description: row.Description,
		})
	}

	result := settlement.Evaluate(today, obligations, rules)

	metrics.EvaluationRuns.Inc()
	metrics.ExpensesEvaluated.Add(float64(result.TotalCount))
	metrics.ExpensesEligible.Add(float64(result.EligibleCount))
	metrics.CandidatesProduced.Add(float64(len(result.Candidates)))

	keyRate := s.fetchKeyRate(result.Candidates)
	for _, candidate := range result.Candidates {
		s.deliver(candidate, byExpense[candidate.ObligationID], today, keyRate)
	}

	s.log.Infof("Alert evaluation for %s: %d expenses, %d eligible, %d candidates",
		today.String(), result.TotalCount, result.EligibleCount, len(result.Candidates))
	return result, nil
}

// fetchKeyRate pulls the key rate once per pass, and only when at least one
// escalation will need it.
func (s *AlertService) fetchKeyRate(candidates []settlement.Candidate) float64 {
	if s.rates == nil {
		return 0
	}
	needed := false
	for _, c := range candidates {
		if c.RuleType == settlement.RuleOverdueEscalation {
			needed = true
			break
		}
	}
	if !needed {
		return 0
	}

	rate, err := s.rates.GetKeyRate()
	if err != nil {
		s.log.Warnf("Key rate unavailable, escalations will omit the late-fee estimate: %v", err)
		return 0
	}
	return rate
}

func (s *AlertService) deliver(candidate settlement.Candidate, snap repository.ExpenseSnapshot, today settlement.Date, keyRate float64) {
	claimed, err := s.repo.ClaimAlert(&models.AlertLogEntry{
		ExpenseID:      candidate.ObligationID,
		RuleID:         candidate.RuleID,
		IdempotencyKey: candidate.Key,
		TriggerDate:    candidate.TriggerDate,
	})
	if err != nil {
		metrics.AlertSendFailures.Inc()
		s.log.Errorf("Failed to claim alert %s: %v", candidate.Key, err)
		return
	}
	if !claimed {
		metrics.AlertsSuppressed.Inc()
		s.log.Debugf("Alert %s already delivered, skipping", candidate.Key)
		return
	}

	branch, err := s.repo.FindBranchByID(snap.Expense.BranchID)
	if err != nil {
		metrics.AlertSendFailures.Inc()
		s.log.Errorf("Failed to resolve branch for expense %d: %v", snap.Expense.ID, err)
		return
	}

	dueDate, err := settlement.ParseDate(snap.Expense.DueDate)
	if err != nil {
		metrics.AlertSendFailures.Inc()
		s.log.Errorf("Failed to parse due date for expense %d: %v", snap.Expense.ID, err)
		return
	}
	state := settlement.Compute(snap.Expense.Amount, snap.PaymentAmounts, dueDate, today)

	notice := email.Notice{
		To:             branch.NotifyEmail,
		BranchName:     branch.Name,
		Vendor:         snap.Expense.Vendor,
		Category:       snap.Expense.Category,
		Period:         snap.Expense.Period,
		DueDate:        snap.Expense.DueDate,
		Amount:         snap.Expense.Amount,
		Balance:        state.Balance,
		Currency:       snap.Expense.Currency,
		DaysToDue:      candidate.DaysToDue,
		IdempotencyKey: candidate.Key,
	}

	switch candidate.RuleType {
	case settlement.RuleOverdueEscalation:
		notice.LateFeeEstimate = lateFeeEstimate(state.Balance, keyRate, -candidate.DaysToDue)
		err = s.sender.SendOverdueEscalation(notice)
	default:
		err = s.sender.SendDueReminder(notice)
	}
	if err != nil {
		metrics.AlertSendFailures.Inc()
		s.log.Errorf("Failed to deliver alert %s: %v", candidate.Key, err)
		return
	}
	metrics.AlertsSent.Inc()
}

// lateFeeEstimate computes simple daily interest on the outstanding balance:
// balance * annualRate% / 365 * daysOverdue, rounded to cents.
func lateFeeEstimate(balance decimal.Decimal, annualRatePercent float64, daysOverdue int) decimal.Decimal {
	if annualRatePercent <= 0 || daysOverdue <= 0 || !balance.IsPositive() {
		return decimal.Zero
	}
	rate := decimal.NewFromFloat(annualRatePercent).Div(decimal.NewFromInt(100))
	daily := balance.Mul(rate).Div(decimal.NewFromInt(365))
	return daily.Mul(decimal.NewFromInt(int64(daysOverdue))).Round(2)
}
