package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/branchops/expense-service/internal/models"
	"github.com/shopspring/decimal"
)

// ErrNotFound reports a missing row. Callers match it with errors.Is; the
// HTTP boundary maps it to 404.
var ErrNotFound = errors.New("not found")

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(user *models.User) error {
	query := `
		INSERT INTO finance.users (username, email, password_hash, created_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRow(query, user.Username, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM finance.users
		WHERE email = $1`
	err := r.db.QueryRow(query, email).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// CreateBranch creates a new branch in the database
func (r *Repository) CreateBranch(branch *models.Branch) error {
	query := `
		INSERT INTO finance.branches (code, name, notify_email, created_at, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(query, branch.Code, branch.Name, branch.NotifyEmail).
		Scan(&branch.ID, &branch.CreatedAt, &branch.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create branch: %w", err)
	}
	return nil
}

// FindBranchByID retrieves a branch by id
func (r *Repository) FindBranchByID(id int64) (*models.Branch, error) {
	branch := &models.Branch{}
	query := `
		SELECT id, code, name, notify_email, created_at, updated_at
		FROM finance.branches
		WHERE id = $1`
	err := r.db.QueryRow(query, id).
		Scan(&branch.ID, &branch.Code, &branch.Name, &branch.NotifyEmail, &branch.CreatedAt, &branch.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("branch %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find branch: %w", err)
	}
	return branch, nil
}

// CreateExpense creates a new expense with its initial derived status
func (r *Repository) CreateExpense(expense *models.Expense) error {
	query := `
		INSERT INTO finance.expenses (branch_id, category, period, due_date, amount, currency, status, vendor, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, $9, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(query,
		expense.BranchID, expense.Category, expense.Period, expense.DueDate,
		expense.Amount, expense.Currency, expense.Status, expense.Vendor, expense.Notes).
		Scan(&expense.ID, &expense.CreatedAt, &expense.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// UpdateExpense updates an expense's mutable fields and cached status
func (r *Repository) UpdateExpense(expense *models.Expense) error {
	query := `
		UPDATE finance.expenses
		SET category = $2, period = $3, due_date = $4::date, amount = $5, currency = $6,
		    status = $7, vendor = $8, notes = $9, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`
	err := r.db.QueryRow(query,
		expense.ID, expense.Category, expense.Period, expense.DueDate, expense.Amount,
		expense.Currency, expense.Status, expense.Vendor, expense.Notes).
		Scan(&expense.UpdatedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("expense %w", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	return nil
}

// UpdateExpenseStatus refreshes only the cached status projection
func (r *Repository) UpdateExpenseStatus(expenseID int64, status string) error {
	query := `
		UPDATE finance.expenses
		SET status = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	result, err := r.db.Exec(query, expenseID, status)
	if err != nil {
		return fmt.Errorf("failed to update expense status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update expense status: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("expense %w", ErrNotFound)
	}
	return nil
}

// DeleteExpense removes an expense and its payments
func (r *Repository) DeleteExpense(id int64) error {
	result, err := r.db.Exec(`DELETE FROM finance.expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("expense %w", ErrNotFound)
	}
	return nil
}

// FindExpenseByID retrieves an expense by id
func (r *Repository) FindExpenseByID(id int64) (*models.Expense, error) {
	expense := &models.Expense{}
	query := `
		SELECT id, branch_id, category, period, TO_CHAR(due_date, 'YYYY-MM-DD'),
		       amount, currency, status, vendor, notes, created_at, updated_at
		FROM finance.expenses
		WHERE id = $1`
	err := r.db.QueryRow(query, id).Scan(
		&expense.ID, &expense.BranchID, &expense.Category, &expense.Period, &expense.DueDate,
		&expense.Amount, &expense.Currency, &expense.Status, &expense.Vendor, &expense.Notes,
		&expense.CreatedAt, &expense.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find expense: %w", err)
	}
	return expense, nil
}

// ListExpensesByBranch retrieves all expenses for one branch
func (r *Repository) ListExpensesByBranch(branchID int64) ([]models.Expense, error) {
	query := `
		SELECT id, branch_id, category, period, TO_CHAR(due_date, 'YYYY-MM-DD'),
		       amount, currency, status, vendor, notes, created_at, updated_at
		FROM finance.expenses
		WHERE branch_id = $1
		ORDER BY due_date, id`
	rows, err := r.db.Query(query, branchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(
			&e.ID, &e.BranchID, &e.Category, &e.Period, &e.DueDate,
			&e.Amount, &e.Currency, &e.Status, &e.Vendor, &e.Notes,
			&e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, nil
}

// CreatePayment posts a payment against an expense
func (r *Repository) CreatePayment(payment *models.Payment) error {
	query := `
		INSERT INTO finance.payments (expense_id, paid_date, amount, currency, reference, notes, created_at)
		VALUES ($1, $2::date, $3, $4, $5, $6, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRow(query,
		payment.ExpenseID, payment.PaidDate, payment.Amount, payment.Currency,
		payment.Reference, payment.Notes).
		Scan(&payment.ID, &payment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// FindPaymentByID retrieves a payment by id
func (r *Repository) FindPaymentByID(id int64) (*models.Payment, error) {
	payment := &models.Payment{}
	query := `
		SELECT id, expense_id, TO_CHAR(paid_date, 'YYYY-MM-DD'), amount, currency, reference, notes, created_at
		FROM finance.payments
		WHERE id = $1`
	err := r.db.QueryRow(query, id).Scan(
		&payment.ID, &payment.ExpenseID, &payment.PaidDate, &payment.Amount,
		&payment.Currency, &payment.Reference, &payment.Notes, &payment.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("payment %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	return payment, nil
}

// DeletePayment removes a payment
func (r *Repository) DeletePayment(id int64) error {
	result, err := r.db.Exec(`DELETE FROM finance.payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("payment %w", ErrNotFound)
	}
	return nil
}

// ListPaymentsByExpense retrieves all payments posted against an expense
func (r *Repository) ListPaymentsByExpense(expenseID int64) ([]models.Payment, error) {
	query := `
		SELECT id, expense_id, TO_CHAR(paid_date, 'YYYY-MM-DD'), amount, currency, reference, notes, created_at
		FROM finance.payments
		WHERE expense_id = $1
		ORDER BY paid_date, id`
	rows, err := r.db.Query(query, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(
			&p.ID, &p.ExpenseID, &p.PaidDate, &p.Amount,
			&p.Currency, &p.Reference, &p.Notes, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// SumPaymentsByExpense returns the total amount already posted against an expense
func (r *Repository) SumPaymentsByExpense(expenseID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM finance.payments
		WHERE expense_id = $1`
	if err := r.db.QueryRow(query, expenseID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum payments: %w", err)
	}
	return total, nil
}

// ExpenseSnapshot is one expense together with its posted payment amounts,
// as consumed by the alert evaluation pass.
type ExpenseSnapshot struct {
	Expense        models.Expense
	PaymentAmounts []decimal.Decimal
}

// ListExpenseSnapshots retrieves every expense with its payment amounts in a
// single consistent read, ordered by due date then id.
func (r *Repository) ListExpenseSnapshots() ([]ExpenseSnapshot, error) {
	query := `
		SELECT e.id, e.branch_id, e.category, e.period, TO_CHAR(e.due_date, 'YYYY-MM-DD'),
		       e.amount, e.currency, e.status, e.vendor, e.notes, e.created_at, e.updated_at,
		       p.amount
		FROM finance.expenses e
		LEFT JOIN finance.payments p ON p.expense_id = e.id
		ORDER BY e.due_date, e.id, p.id`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list expense snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []ExpenseSnapshot
	index := make(map[int64]int)
	for rows.Next() {
		var e models.Expense
		var paid sql.NullString
		if err := rows.Scan(
			&e.ID, &e.BranchID, &e.Category, &e.Period, &e.DueDate,
			&e.Amount, &e.Currency, &e.Status, &e.Vendor, &e.Notes,
			&e.CreatedAt, &e.UpdatedAt, &paid); err != nil {
			return nil, fmt.Errorf("failed to scan expense snapshot: %w", err)
		}
		i, seen := index[e.ID]
		if !seen {
			snapshots = append(snapshots, ExpenseSnapshot{Expense: e})
			i = len(snapshots) - 1
			index[e.ID] = i
		}
		if paid.Valid {
			amount, err := decimal.NewFromString(paid.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse payment amount: %w", err)
			}
			snapshots[i].PaymentAmounts = append(snapshots[i].PaymentAmounts, amount)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list expense snapshots: %w", err)
	}
	return snapshots, nil
}

// CreateAlertRule creates a new alert rule
func (r *Repository) CreateAlertRule(rule *models.AlertRule) error {
	query := `
		INSERT INTO finance.alert_rules (rule_type, day_offset, active, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(query, rule.RuleType, rule.DayOffset, rule.Active, rule.Description).
		Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create alert rule: %w", err)
	}
	return nil
}

// ListAlertRules retrieves all alert rules
func (r *Repository) ListAlertRules() ([]models.AlertRule, error) {
	return r.listAlertRules(`
		SELECT id, rule_type, day_offset, active, description, created_at, updated_at
		FROM finance.alert_rules
		ORDER BY id`)
}

// ListActiveAlertRules retrieves only rules with the active flag set
func (r *Repository) ListActiveAlertRules() ([]models.AlertRule, error) {
	return r.listAlertRules(`
		SELECT id, rule_type, day_offset, active, description, created_at, updated_at
		FROM finance.alert_rules
		WHERE active
		ORDER BY id`)
}

func (r *Repository) listAlertRules(query string) ([]models.AlertRule, error) {
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list alert rules: %w", err)
	}
	defer rows.Close()

	var rules []models.AlertRule
	for rows.Next() {
		var rule models.AlertRule
		if err := rows.Scan(
			&rule.ID, &rule.RuleType, &rule.DayOffset, &rule.Active,
			&rule.Description, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list alert rules: %w", err)
	}
	return rules, nil
}

// ClaimAlert records a notification by idempotency key. Returns false when
// the key is already present, which means this candidate was delivered by an
// earlier pass on the same calendar day.
func (r *Repository) ClaimAlert(entry *models.AlertLogEntry) (bool, error) {
	query := `
		INSERT INTO finance.alert_log (expense_id, rule_id, idempotency_key, trigger_date, sent_at)
		VALUES ($1, $2, $3, $4::date, CURRENT_TIMESTAMP)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING id, sent_at`
	err := r.db.QueryRow(query,
		entry.ExpenseID, entry.RuleID, entry.IdempotencyKey, entry.TriggerDate).
		Scan(&entry.ID, &entry.SentAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to claim alert: %w", err)
	}
	return true, nil
}
