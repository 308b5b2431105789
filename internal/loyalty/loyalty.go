// Package loyalty computes a customer's progress through the loyalty tiers.
//
// The tier label is owned by the ERP: staff may upgrade a customer by hand, so
// the label is never derived from the point balance here. Given the label and
// points, this package answers "how far to the next tier" and "what do I get".
//
// Tiers, lowest first: Bronze (0), Silver (500), Gold (2000), Platinum (5000).
// Labels are matched case-insensitively.
package loyalty

import (
	"strings"
)

// Tier labels as the ERP spells them.
const (
	Bronze   = "Bronze"
	Silver   = "Silver"
	Gold     = "Gold"
	Platinum = "Platinum"
)

type tierInfo struct {
	label     string
	minPoints int
	benefits  []string
}

// tiers is ordered lowest to highest.
var tiers = []tierInfo{
	{
		label:     Bronze,
		minPoints: 0,
		benefits: []string{
			"แต้มสะสม x1",
			"ส่วนลดพิเศษในโอกาสต่างๆ",
		},
	},
	{
		label:     Silver,
		minPoints: 500,
		benefits: []string{
			"ส่วนลด 5% ทุกรายการ",
			"จัดส่งฟรีเมื่อซื้อครบ 2,000 บาท",
			"แต้มสะสม x1.5",
		},
	},
	{
		label:     Gold,
		minPoints: 2000,
		benefits: []string{
			"ส่วนลด 10% ทุกรายการ",
			"จัดส่งฟรีเมื่อซื้อครบ 1,000 บาท",
			"บริการด่วนพิเศษ",
			"แต้มสะสม x2",
		},
	},
	{
		label:     Platinum,
		minPoints: 5000,
		benefits: []string{
			"ส่วนลด 15% ทุกรายการ",
			"จัดส่งฟรีทุกออเดอร์",
			"เซอร์วิสพิเศษ VIP",
			"ปรึกษาการออกแบบฟรี",
			"แต้มสะสม x3",
		},
	},
}

// Account is a customer's loyalty record as supplied by the ERP.
type Account struct {
	Points      int
	TierLabel   string
	TotalSpent  float64
	TotalOrders int
}

func tierIndex(label string) int {
	label = strings.TrimSpace(label)
	for i, t := range tiers {
		if strings.EqualFold(t.label, label) {
			return i
		}
	}
	return -1
}

// Normalize returns the canonical spelling of a known label, or "" when the
// label is not a tier.
func Normalize(label string) string {
	if i := tierIndex(label); i >= 0 {
		return tiers[i].label
	}
	return ""
}

// TierMinPoints returns the minimum points for a tier. Unknown labels get
// Bronze's minimum, 0.
func TierMinPoints(label string) int {
	if i := tierIndex(label); i >= 0 {
		return tiers[i].minPoints
	}
	return tiers[0].minPoints
}

// NextTier returns the label of the tier above, or false for Platinum and
// for unknown labels.
func NextTier(label string) (string, bool) {
	i := tierIndex(label)
	if i < 0 || i == len(tiers)-1 {
		return "", false
	}
	return tiers[i+1].label, true
}

// ProgressToNextTier returns how far points are between the current tier's
// minimum and the next tier's minimum, as a percentage clamped to [0, 100].
// Returns 100 when there is no next tier.
func ProgressToNextTier(label string, points int) float64 {
	next, ok := NextTier(label)
	if !ok {
		return 100
	}

	lo := TierMinPoints(label)
	hi := TierMinPoints(next)
	progress := float64(points-lo) / float64(hi-lo) * 100

	return clamp(progress, 0, 100)
}

// PointsNeededForNextTier returns the points still missing for the next tier,
// never negative. Returns 0 when there is no next tier.
func PointsNeededForNextTier(label string, points int) int {
	next, ok := NextTier(label)
	if !ok {
		return 0
	}
	return max(0, TierMinPoints(next)-points)
}

// Benefits returns the display benefits of a tier: discount, free-delivery
// threshold and point multiplier. Unknown labels get Bronze benefits. The
// returned slice is a copy.
func Benefits(label string) []string {
	i := tierIndex(label)
	if i < 0 {
		i = 0
	}
	out := make([]string, len(tiers[i].benefits))
	copy(out, tiers[i].benefits)
	return out
}

// Summary bundles every derived loyalty value for one account.
type Summary struct {
	Account

	// NextTier is empty at the top tier.
	NextTier string

	CurrentTierMin int
	NextTierMin    int
	Progress       float64
	PointsNeeded   int
	Benefits       []string
}

// Summarize derives a [Summary] from an account. The account's TierLabel is
// reported as-is.
func Summarize(acc Account) Summary {
	s := Summary{
		Account:        acc,
		CurrentTierMin: TierMinPoints(acc.TierLabel),
		Progress:       ProgressToNextTier(acc.TierLabel, acc.Points),
		PointsNeeded:   PointsNeededForNextTier(acc.TierLabel, acc.Points),
		Benefits:       Benefits(acc.TierLabel),
	}
	if next, ok := NextTier(acc.TierLabel); ok {
		s.NextTier = next
		s.NextTierMin = TierMinPoints(next)
	}
	return s
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
