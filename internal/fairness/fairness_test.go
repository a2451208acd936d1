package fairness

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDesignerDeveloper(t *testing.T) {
	// $50/hr vs $40/hr: expensive side works 1 hour, cheaper side 1.25.
	res := Compute(50, 40)

	assert.Equal(t, 1.0, res.HoursA)
	assert.InDelta(t, 1.25, res.HoursB, 0.01)
	assert.InDelta(t, 1.25, res.Ratio, 0.0001)
	assert.True(t, res.IsBalanced)
	assert.InDelta(t, 50.0, res.TotalValue, 0.5)
}

func TestComputeCheaperInitiator(t *testing.T) {
	// $25/hr vs $50/hr: the cheaper initiator works 2 hours.
	res := Compute(25, 50)

	assert.Equal(t, 2.0, res.HoursA)
	assert.Equal(t, 1.0, res.HoursB)
	assert.InDelta(t, 0.5, res.Ratio, 0.0001)
	assert.True(t, res.IsBalanced)
}

func TestComputeEqualRates(t *testing.T) {
	res := Compute(40, 40)

	assert.Equal(t, 1.0, res.HoursA)
	assert.Equal(t, 1.0, res.HoursB)
	assert.Equal(t, 1.0, res.Ratio)
	assert.True(t, res.IsBalanced)
	assert.Equal(t, 40.0, res.TotalValue)
}

func TestComputeExtremeRatio(t *testing.T) {
	// $1/hr vs $50/hr is a 50:1 split.
	res := Compute(1, 50)

	assert.Equal(t, 50.0, res.HoursA)
	assert.Equal(t, 1.0, res.HoursB)
	assert.InDelta(t, 0.02, res.Ratio, 0.0001)
}

func TestComputeZeroRateDegenerate(t *testing.T) {
	for _, res := range []Result{Compute(0, 40), Compute(40, 0), Compute(0, 0), Compute(-5, 40)} {
		assert.Equal(t, 1.0, res.HoursA)
		assert.Equal(t, 1.0, res.HoursB)
		assert.Equal(t, 1.0, res.Ratio)
		assert.Equal(t, 0.0, res.TotalValue)
		assert.False(t, res.IsBalanced)
	}
}

func TestComputeValueEquality(t *testing.T) {
	// For any positive pair, the two sides' values must match within the
	// 1% tolerance and exactly one side contributes 1 hour.
	pairs := [][2]float64{{50, 40}, {25, 50}, {1, 50}, {33.33, 17.5}, {80, 79.99}, {12, 12}}
	for _, p := range pairs {
		res := Compute(p[0], p[1])
		valueA := p[0] * res.HoursA
		valueB := p[1] * res.HoursB
		tolerance := math.Max(res.TotalValue*BalanceTolerance, MinImbalance)

		assert.LessOrEqual(t, math.Abs(valueA-valueB), tolerance, "rates %v", p)
		oneHourSides := 0
		if res.HoursA == 1.0 {
			oneHourSides++
		}
		if res.HoursB == 1.0 {
			oneHourSides++
		}
		require.GreaterOrEqual(t, oneHourSides, 1, "rates %v", p)
	}
}

func TestComputeReciprocal(t *testing.T) {
	ab := Compute(50, 40)
	ba := Compute(40, 50)

	// Hour assignment swaps sides and the ratio inverts.
	assert.Equal(t, ab.HoursA, ba.HoursB)
	assert.Equal(t, ab.HoursB, ba.HoursA)
	assert.InDelta(t, 1/ab.Ratio, ba.Ratio, 0.0001)
}

func TestScore(t *testing.T) {
	assert.Equal(t, 100.0, Score(50, 50))
	assert.Equal(t, 40.0, Score(50, 20))
	assert.Equal(t, 40.0, Score(20, 50)) // symmetric
	assert.Equal(t, 0.0, Score(0, 50))
	assert.Equal(t, 0.0, Score(50, 0))
	assert.Equal(t, 0.0, Score(-1, 50))
}

func TestRounding(t *testing.T) {
	assert.Equal(t, 1.25, Round2(1.2499999999))
	assert.Equal(t, 1.67, Round2(5.0/3.0))
	assert.Equal(t, 66.7, Round1(66.6666))
}
