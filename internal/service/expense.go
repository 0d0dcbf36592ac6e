package service

import (
	"errors"
	"fmt"

	"github.com/branchops/expense-service/internal/models"
	"github.com/branchops/expense-service/internal/settlement"
	"github.com/shopspring/decimal"
)

// Validation errors surfaced to the HTTP boundary.
var (
	ErrNegativeAmount       = errors.New("expense amount must not be negative")
	ErrInvalidCategory      = errors.New("unknown expense category")
	ErrInvalidPaymentAmount = errors.New("payment amount must be positive")
	ErrOverpayment          = errors.New("payment would exceed the expense amount")
	ErrAmountBelowPaid      = errors.New("expense amount is below the total already paid")
)

// validatePayment checks one payment application against the running total:
// the amount must be positive and the payments posted so far plus this one
// must not exceed the principal. This runs before anything reaches the
// settlement calculator, which has no validation path of its own.
func validatePayment(principal, alreadyPaid, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidPaymentAmount
	}
	if alreadyPaid.Add(amount).GreaterThan(principal) {
		return ErrOverpayment
	}
	return nil
}

// ExpenseInput carries validated fields for creating or updating an expense.
type ExpenseInput struct {
	BranchID int64
	Category string
	Period   string
	DueDate  string
	Amount   decimal.Decimal
	Currency string
	Vendor   string
	Notes    string
}

// CreateExpense records a new expense; the stored status is derived at
// creation time from the amount, the due date and zero payments.
func (s *Service) CreateExpense(input ExpenseInput) (*models.Expense, error) {
	if input.Amount.IsNegative() {
		return nil, ErrNegativeAmount
	}
	if !models.ValidCategory(input.Category) {
		return nil, ErrInvalidCategory
	}
	dueDate, err := settlement.ParseDate(input.DueDate)
	if err != nil {
		return nil, err
	}

	state := settlement.Compute(input.Amount, nil, dueDate, s.Today())
	expense := &models.Expense{
		BranchID: input.BranchID,
		Category: input.Category,
		Period:   input.Period,
		DueDate:  dueDate.String(),
		Amount:   input.Amount,
		Currency: input.Currency,
		Status:   string(state.Status),
		Vendor:   input.Vendor,
		Notes:    input.Notes,
	}
	expense.TotalPaid = state.TotalPaid
	expense.Balance = state.Balance

	if err := s.repo.CreateExpense(expense); err != nil {
		return nil, err
	}

	s.log.Infof("Expense created: id=%d branch=%d amount=%s due=%s status=%s",
		expense.ID, expense.BranchID, expense.Amount.String(), expense.DueDate, expense.Status)
	return expense, nil
}

// UpdateExpense updates an expense's fields and re-derives its status from
// the live payment history. A changed amount or due date never leaves the
// cached status stale.
func (s *Service) UpdateExpense(id int64, input ExpenseInput) (*models.Expense, error) {
	if input.Amount.IsNegative() {
		return nil, ErrNegativeAmount
	}
	if !models.ValidCategory(input.Category) {
		return nil, ErrInvalidCategory
	}
	dueDate, err := settlement.ParseDate(input.DueDate)
	if err != nil {
		return nil, err
	}

	expense, err := s.repo.FindExpenseByID(id)
	if err != nil {
		return nil, err
	}
	totalPaid, err := s.repo.SumPaymentsByExpense(id)
	if err != nil {
		return nil, err
	}
	if totalPaid.GreaterThan(input.Amount) {
		return nil, fmt.Errorf("%w: amount %s, paid %s", ErrAmountBelowPaid, input.Amount.String(), totalPaid.String())
	}

	payments, err := s.paymentAmounts(id)
	if err != nil {
		return nil, err
	}
	state := settlement.Compute(input.Amount, payments, dueDate, s.Today())

	expense.Category = input.Category
	expense.Period = input.Period
	expense.DueDate = dueDate.String()
	expense.Amount = input.Amount
	expense.Currency = input.Currency
	expense.Vendor = input.Vendor
	expense.Notes = input.Notes
	expense.Status = string(state.Status)
	expense.TotalPaid = state.TotalPaid
	expense.Balance = state.Balance

	if err := s.repo.UpdateExpense(expense); err != nil {
		return nil, err
	}

	s.log.Infof("Expense updated: id=%d status=%s balance=%s",
		expense.ID, expense.Status, expense.Balance.String())
	return expense, nil
}

// GetExpense loads an expense with its live settlement projection. The
// stored status is treated as a read-through cache: it is recomputed here
// and refreshed in place if it had gone stale.
func (s *Service) GetExpense(id int64) (*models.Expense, error) {
	expense, err := s.repo.FindExpenseByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.project(expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// ListExpenses returns all expenses for a branch with live projections.
func (s *Service) ListExpenses(branchID int64) ([]models.Expense, error) {
	expenses, err := s.repo.ListExpensesByBranch(branchID)
	if err != nil {
		return nil, err
	}
	for i := range expenses {
		if err := s.project(&expenses[i]); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

// DeleteExpense removes an expense and its payment history
func (s *Service) DeleteExpense(id int64) error {
	if err := s.repo.DeleteExpense(id); err != nil {
		return err
	}
	s.log.Infof("Expense deleted: id=%d", id)
	return nil
}

// PaymentInput carries validated fields for applying a payment.
type PaymentInput struct {
	PaidDate  string
	Amount    decimal.Decimal
	Currency  string
	Reference string
	Notes     string
}

// ApplyPayment posts a payment against an expense. The amount must be
// positive and the running total of payments must not exceed the expense
// amount; both are checked here, before the settlement calculator ever sees
// the data. The owning expense's status is recomputed in the same call.
func (s *Service) ApplyPayment(expenseID int64, input PaymentInput) (*models.Payment, error) {
	paidDate, err := settlement.ParseDate(input.PaidDate)
	if err != nil {
		return nil, err
	}

	expense, err := s.repo.FindExpenseByID(expenseID)
	if err != nil {
		return nil, err
	}
	totalPaid, err := s.repo.SumPaymentsByExpense(expenseID)
	if err != nil {
		return nil, err
	}
	if err := validatePayment(expense.Amount, totalPaid, input.Amount); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		ExpenseID: expenseID,
		PaidDate:  paidDate.String(),
		Amount:    input.Amount,
		Currency:  input.Currency,
		Reference: input.Reference,
		Notes:     input.Notes,
	}
	if err := s.repo.CreatePayment(payment); err != nil {
		return nil, err
	}

	if _, err := s.Recompute(expenseID); err != nil {
		return nil, err
	}

	s.log.Infof("Payment applied: expense=%d amount=%s", expenseID, payment.Amount.String())
	return payment, nil
}

// RemovePayment deletes a payment and recomputes the owning expense's status.
func (s *Service) RemovePayment(paymentID int64) error {
	payment, err := s.repo.FindPaymentByID(paymentID)
	if err != nil {
		return err
	}
	if err := s.repo.DeletePayment(paymentID); err != nil {
		return err
	}
	if _, err := s.Recompute(payment.ExpenseID); err != nil {
		return err
	}

	s.log.Infof("Payment removed: id=%d expense=%d", paymentID, payment.ExpenseID)
	return nil
}

// Recompute re-derives an expense's settlement projection from its payment
// history and persists the refreshed status. Every payment mutation routes
// through here so the cached status never stays stale.
func (s *Service) Recompute(expenseID int64) (settlement.Settlement, error) {
	expense, err := s.repo.FindExpenseByID(expenseID)
	if err != nil {
		return settlement.Settlement{}, err
	}
	dueDate, err := settlement.ParseDate(expense.DueDate)
	if err != nil {
		return settlement.Settlement{}, err
	}
	payments, err := s.paymentAmounts(expenseID)
	if err != nil {
		return settlement.Settlement{}, err
	}

	state := settlement.Compute(expense.Amount, payments, dueDate, s.Today())
	if string(state.Status) != expense.Status {
		if err := s.repo.UpdateExpenseStatus(expenseID, string(state.Status)); err != nil {
			return settlement.Settlement{}, err
		}
	}
	return state, nil
}

// project fills the live settlement fields on an expense and refreshes the
// stored status when it disagrees with the computation.
func (s *Service) project(expense *models.Expense) error {
	dueDate, err := settlement.ParseDate(expense.DueDate)
	if err != nil {
		return err
	}
	payments, err := s.paymentAmounts(expense.ID)
	if err != nil {
		return err
	}

	state := settlement.Compute(expense.Amount, payments, dueDate, s.Today())
	if string(state.Status) != expense.Status {
		if err := s.repo.UpdateExpenseStatus(expense.ID, string(state.Status)); err != nil {
			return err
		}
		expense.Status = string(state.Status)
	}
	expense.TotalPaid = state.TotalPaid
	expense.Balance = state.Balance
	return nil
}

func (s *Service) paymentAmounts(expenseID int64) ([]decimal.Decimal, error) {
	payments, err := s.repo.ListPaymentsByExpense(expenseID)
	if err != nil {
		return nil, err
	}
	amounts := make([]decimal.Decimal, 0, len(payments))
	for _, p := range payments {
		amounts = append(amounts, p.Amount)
	}
	return amounts, nil
}
