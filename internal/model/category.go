package model

import "time"

// CategoryKind indicates whether a category classifies income or expenses.
type CategoryKind string

const (
	// CategoryKindIncome represents categories for income transactions.
	CategoryKindIncome CategoryKind = "income"
	// CategoryKindExpense represents categories for expense transactions.
	CategoryKindExpense CategoryKind = "expense"
)

// Valid reports whether k is a known category kind.
func (k CategoryKind) Valid() bool {
	return k == CategoryKindIncome || k == CategoryKindExpense
}

// Category represents an income or expense category. Kind is immutable after
// creation by convention, not contract.
type Category struct {
	CreatedAt time.Time    `json:"created_at"`
	OwnerKey  string       `json:"owner_key"`
	Kind      CategoryKind `json:"kind"`
	Name      string       `json:"name"`
	Icon      string       `json:"icon"`
	Color     string       `json:"color"`
	ID        int64        `json:"id"`
}

// UncategorizedName is rendered for transactions whose category id no longer
// resolves. A dangling reference is a display anomaly, never an error.
const UncategorizedName = "Uncategorized"
