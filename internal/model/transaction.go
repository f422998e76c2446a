package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Channel is the payment channel a transaction was received or paid through.
// It selects which asset bucket a transaction moves.
type Channel string

const (
	// ChannelCash is physical cash.
	ChannelCash Channel = "cash"
	// ChannelCard is a debit or credit card.
	ChannelCard Channel = "card"
	// ChannelBank is a bank account.
	ChannelBank Channel = "bank"
	// ChannelAssets is an investment asset bucket.
	ChannelAssets Channel = "assets"
	// ChannelOther is any channel not otherwise listed.
	ChannelOther Channel = "other"
	// ChannelNone marks a transaction that does not touch an asset.
	ChannelNone Channel = ""
)

// Valid reports whether c is a known channel. The empty channel is valid:
// not every transaction moves an asset balance.
func (c Channel) Valid() bool {
	switch c {
	case ChannelCash, ChannelCard, ChannelBank, ChannelAssets, ChannelOther, ChannelNone:
		return true
	}
	return false
}

// AssetKind returns the asset bucket this channel settles against.
func (c Channel) AssetKind() AssetKind {
	switch c {
	case ChannelCash:
		return AssetKindCash
	case ChannelCard:
		return AssetKindCard
	case ChannelBank:
		return AssetKindBank
	case ChannelAssets:
		return AssetKindInvestment
	default:
		return AssetKindOther
	}
}

// Transaction represents a single income or expense entry. Kind is expected
// to agree with the referenced category's kind; a mismatch is tolerated at
// write time and surfaces as a display anomaly.
type Transaction struct {
	CreatedAt   time.Time       `json:"created_at"`
	OccurredOn  time.Time       `json:"occurred_on"`
	OwnerKey    string          `json:"owner_key"`
	Kind        CategoryKind    `json:"kind"`
	Description string          `json:"description"`
	Via         Channel         `json:"via"`
	Amount      decimal.Decimal `json:"amount"`
	CategoryID  int64           `json:"category_id"`
	ID          int64           `json:"id"`
}

// SignedAmount returns the amount with income positive and expense negative,
// the direction it moves an asset balance.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Kind == CategoryKindExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}
