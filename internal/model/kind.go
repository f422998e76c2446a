package model

// Kind identifies a record collection. Collection names double as remote
// endpoint path segments, so they match the server's table names.
type Kind string

const (
	// KindCategory is the categories collection.
	KindCategory Kind = "categories"
	// KindTransaction is the transactions collection.
	KindTransaction Kind = "transactions"
	// KindInvestment is the legacy investments collection.
	KindInvestment Kind = "investments"
	// KindAsset is the asset buckets collection.
	KindAsset Kind = "assets"
	// KindGoal is the goals collection.
	KindGoal Kind = "goals"
	// KindProfile is the per-device profile. It is published on the change
	// bus but never synced.
	KindProfile Kind = "profile"
)

// Kinds lists the synced collections in push and pull order. Categories and
// assets go first so records referencing them resolve on replay.
var Kinds = []Kind{KindCategory, KindAsset, KindTransaction, KindInvestment, KindGoal}

// Valid reports whether k is a known collection.
func (k Kind) Valid() bool {
	switch k {
	case KindCategory, KindTransaction, KindInvestment, KindAsset, KindGoal, KindProfile:
		return true
	}
	return false
}
