package fairness

import "math"

// Thresholds used by the exchange fairness checks. Two distinct gates exist
// on purpose: the value tolerance decides whether a computed hour split is
// balanced at calculation time, while the score threshold decides whether an
// exchange looks balanced in the detailed report.
const (
	// BalanceTolerance is the relative value tolerance for IsBalanced.
	BalanceTolerance = 0.01

	// MinImbalance is the absolute tolerance floor when total value is tiny.
	MinImbalance = 0.01

	// AdjustmentThreshold is the relative deviation between the current and
	// the perfect hours ratio above which an adjustment is suggested.
	AdjustmentThreshold = 0.05

	// BalancedScoreThreshold is the fairness score (0-100) at or above which
	// the detailed report flags an exchange as balanced.
	BalancedScoreThreshold = 95.0
)

// Result holds the hour allocation that equalizes monetary value between two
// hourly rates, plus the derived fairness metrics.
type Result struct {
	HoursA     float64 `json:"hours_a"`
	HoursB     float64 `json:"hours_b"`
	Ratio      float64 `json:"ratio"`
	TotalValue float64 `json:"total_value"`
	Imbalance  float64 `json:"imbalance"`
	IsBalanced bool    `json:"is_balanced"`
}

// Compute derives the fair hour split for two hourly rates. The party with
// the higher rate contributes exactly 1 hour and the cheaper party works
// proportionally more. A non-positive rate on either side yields the
// degenerate result (1.0/1.0 hours, balanced=false) meaning "cannot
// compute", not "perfectly fair".
func Compute(rateA, rateB float64) Result {
	if rateA <= 0 || rateB <= 0 {
		return Result{
			HoursA:     1.0,
			HoursB:     1.0,
			Ratio:      1.0,
			TotalValue: 0,
			Imbalance:  0,
			IsBalanced: false,
		}
	}

	ratio := rateA / rateB

	var hoursA, hoursB float64
	if ratio >= 1 {
		hoursA = 1.0
		hoursB = Round2(ratio)
	} else {
		hoursB = 1.0
		hoursA = Round2(1 / ratio)
	}

	valueA := rateA * hoursA
	valueB := rateB * hoursB
	totalValue := (valueA + valueB) / 2
	imbalance := math.Abs(valueA - valueB)

	return Result{
		HoursA:     hoursA,
		HoursB:     hoursB,
		Ratio:      ratio,
		TotalValue: totalValue,
		Imbalance:  imbalance,
		IsBalanced: imbalance <= math.Max(totalValue*BalanceTolerance, MinImbalance),
	}
}

// Score compares two monetary values and returns min/max*100 rounded to one
// decimal. Non-positive input on either side returns 0.
func Score(valueA, valueB float64) float64 {
	if valueA <= 0 || valueB <= 0 {
		return 0
	}
	return Round1(math.Min(valueA, valueB) / math.Max(valueA, valueB) * 100)
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
