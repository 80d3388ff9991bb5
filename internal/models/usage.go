package models

import "time"

// Tier is a subscription level determining the daily message cap.
type Tier string

const (
	TierFree Tier = "free"
	TierPlus Tier = "plus"
	TierPro  Tier = "pro"
)

// Daily message caps per tier. Pro is effectively unlimited.
const (
	FreeDailyCap = 20
	PlusDailyCap = 200
	ProDailyCap  = 1_000_000
)

// DailyCap returns the message cap for a tier; unknown tiers get the free cap.
func DailyCap(tier Tier) int {
	switch tier {
	case TierPlus:
		return PlusDailyCap
	case TierPro:
		return ProDailyCap
	default:
		return FreeDailyCap
	}
}

// UsageCounter is the per-user, per-day message count stored under
// users/{uid}/usage_days/{dateKey}. Created lazily on first use each day.
type UsageCounter struct {
	DateKey   string    `firestore:"dateKey" json:"dateKey"`
	Count     int       `firestore:"count" json:"count"`
	UpdatedAt time.Time `firestore:"updatedAt" json:"updatedAt"`
}
