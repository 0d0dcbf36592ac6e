package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment represents one amount posted against an expense. The sum of all
// payments for an expense never exceeds that expense's principal amount;
// this is enforced when the payment is applied, not retroactively.
type Payment struct {
	ID        int64           `json:"id"`
	ExpenseID int64           `json:"expense_id"`
	PaidDate  string          `json:"paid_date"` // YYYY-MM-DD
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Reference string          `json:"reference"`
	Notes     string          `json:"notes"`
	CreatedAt time.Time       `json:"created_at"`
}
