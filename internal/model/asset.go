package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetKind identifies a balance-bearing bucket.
type AssetKind string

const (
	// AssetKindCash is physical cash on hand.
	AssetKindCash AssetKind = "cash"
	// AssetKindBank is a bank account balance.
	AssetKindBank AssetKind = "bank"
	// AssetKindCard is a card balance.
	AssetKindCard AssetKind = "card"
	// AssetKindInvestment is an investment holding.
	AssetKindInvestment AssetKind = "investment"
	// AssetKindOther is any bucket not otherwise listed.
	AssetKindOther AssetKind = "other"
)

// Valid reports whether k is a known asset kind.
func (k AssetKind) Valid() bool {
	switch k {
	case AssetKindCash, AssetKindBank, AssetKindCard, AssetKindInvestment, AssetKindOther:
		return true
	}
	return false
}

// Channel returns the payment channel that settles against this bucket.
func (k AssetKind) Channel() Channel {
	switch k {
	case AssetKindCash:
		return ChannelCash
	case AssetKindBank:
		return ChannelBank
	case AssetKindCard:
		return ChannelCard
	case AssetKindInvestment:
		return ChannelAssets
	default:
		return ChannelOther
	}
}

// Asset is a named balance-bearing bucket. Balance is derived state: the
// authoritative value is the sum of signed transaction amounts settling
// against this asset, and the stored balance may be recomputed from that
// history at any time.
type Asset struct {
	CreatedAt time.Time       `json:"created_at"`
	Kind      AssetKind       `json:"kind"`
	Name      string          `json:"name"`
	Color     string          `json:"color"`
	Balance   decimal.Decimal `json:"balance"`
	ID        int64           `json:"id"`
}
