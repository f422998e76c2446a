package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Goal is a spending target against an expense category. At most one goal
// exists per category: creating a second goal for an already-goaled category
// raises the existing goal's target instead.
type Goal struct {
	CreatedAt    time.Time       `json:"created_at"`
	OwnerKey     string          `json:"owner_key"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	CategoryID   int64           `json:"category_id"`
	ID           int64           `json:"id"`
	Completed    bool            `json:"completed"`
}
