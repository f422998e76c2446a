package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Investment is the legacy free-form investment record, kept for data
// recorded before assets became the canonical buckets. It carries no derived
// state; the Asset collection supersedes it.
type Investment struct {
	CreatedAt time.Time       `json:"created_at"`
	OwnerKey  string          `json:"owner_key"`
	Name      string          `json:"name"`
	Notes     string          `json:"notes"`
	Amount    decimal.Decimal `json:"amount"`
	ID        int64           `json:"id"`
}
