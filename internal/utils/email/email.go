package email

import (
	"fmt"
	"net/smtp"

	"github.com/branchops/expense-service/internal/config"
	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Notice carries everything an expense notification email needs. The
// idempotency key travels in an X-Idempotency-Key header so downstream mail
// tooling can correlate and suppress duplicates.
type Notice struct {
	To             string
	BranchName     string
	Vendor         string
	Category       string
	Period         string
	DueDate        string // YYYY-MM-DD
	Amount         decimal.Decimal
	Balance        decimal.Decimal
	Currency       string
	DaysToDue      int
	IdempotencyKey string

	// LateFeeEstimate is an indicative figure derived from the central
	// bank key rate; zero when the rate is unavailable.
	LateFeeEstimate decimal.Decimal
}

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// SendDueReminder sends an upcoming-due-date reminder for an expense
func (s *Sender) SendDueReminder(n Notice) error {
	e := s.newMessage(n)
	e.Subject = fmt.Sprintf("Upcoming Expense Payment Reminder - %s", n.BranchName)

	body := fmt.Sprintf(
		"Dear %s team,\n\n", n.BranchName,
	)
	body += fmt.Sprintf(
		"The %s expense for %s (vendor: %s) is due on %s, in %d day(s).\n"+
			"Amount due: %s %s of %s %s total.\n"+
			"Please arrange the payment before the due date.\n",
		n.Category, n.Period, n.Vendor, n.DueDate, n.DaysToDue,
		n.Balance.StringFixed(2), n.Currency, n.Amount.StringFixed(2), n.Currency,
	)
	body += "\nBest regards,\nBranch Finance Service"
	e.Text = []byte(body)

	return s.send(e, n.To)
}

// SendOverdueEscalation sends an overdue escalation for an expense
func (s *Sender) SendOverdueEscalation(n Notice) error {
	e := s.newMessage(n)
	e.Subject = fmt.Sprintf("Overdue Expense Payment Notification - %s", n.BranchName)

	daysOverdue := -n.DaysToDue
	body := fmt.Sprintf(
		"Dear %s team,\n\n", n.BranchName,
	)
	body += fmt.Sprintf(
		"The %s expense for %s (vendor: %s) was due on %s and is now %d day(s) overdue.\n"+
			"Outstanding balance: %s %s of %s %s total.\n",
		n.Category, n.Period, n.Vendor, n.DueDate, daysOverdue,
		n.Balance.StringFixed(2), n.Currency, n.Amount.StringFixed(2), n.Currency,
	)
	if n.LateFeeEstimate.IsPositive() {
		body += fmt.Sprintf(
			"Indicative late fee accrued to date: %s %s (key-rate based estimate).\n",
			n.LateFeeEstimate.StringFixed(2), n.Currency,
		)
	}
	body += "Please settle the outstanding balance as soon as possible.\n"
	body += "\nBest regards,\nBranch Finance Service"
	e.Text = []byte(body)

	return s.send(e, n.To)
}

func (s *Sender) newMessage(n Notice) *email.Email {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{n.To}
	e.Headers.Set("X-Idempotency-Key", n.IdempotencyKey)
	return e
}

func (s *Sender) send(e *email.Email, to string) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
