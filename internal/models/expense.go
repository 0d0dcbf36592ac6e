package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense categories (closed enumeration).
const (
	CategoryRent         = "RENT"
	CategoryUtility      = "UTILITY"
	CategoryConnectivity = "CONNECTIVITY"
	CategoryOther        = "OTHER"
)

// ValidCategory reports whether c is one of the known expense categories.
func ValidCategory(c string) bool {
	switch c {
	case CategoryRent, CategoryUtility, CategoryConnectivity, CategoryOther:
		return true
	}
	return false
}

// Expense represents a recurring financial obligation owed by a branch.
// Status is a cached projection of the payment history, recomputed on every
// write; it is never the source of truth.
type Expense struct {
	ID       int64           `json:"id"`
	BranchID int64           `json:"branch_id"`
	Category string          `json:"category"`
	Period   string          `json:"period"`   // YYYY-MM
	DueDate  string          `json:"due_date"` // YYYY-MM-DD
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Status   string          `json:"status"` // PENDING | OVERDUE | PAID
	Vendor   string          `json:"vendor"`
	Notes    string          `json:"notes"`

	// Projection fields filled by the service on reads.
	TotalPaid decimal.Decimal `json:"total_paid"`
	Balance   decimal.Decimal `json:"balance"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
