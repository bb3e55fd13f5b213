package classify

// Tier is the ordinal customer classification derived from the revenue
// distribution at query time. It is never a stored customer attribute.
type Tier string

const (
	TierLow    Tier = "Low"
	TierMedium Tier = "Medium"
	TierHigh   Tier = "High"
)

// Thresholds holds the two revenue percentile cut points used to assign
// tiers. They are plain parameters so the assignment below stays a pure
// two-threshold comparison rather than a closure over outer state.
type Thresholds struct {
	P33 float64
	P66 float64
}

// Assign labels a revenue against the thresholds. The comparisons are
// strict-less-than in this exact order: a customer sitting exactly on P33 is
// Medium and exactly on P66 is High. When every customer has identical
// revenue both thresholds collapse onto that value and everyone lands in
// High; that follows from the branch order and is the documented contract.
func Assign(revenue float64, t Thresholds) Tier {
	switch {
	case revenue < t.P33:
		return TierLow
	case revenue < t.P66:
		return TierMedium
	default:
		return TierHigh
	}
}
