package scoring

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/curated-market/internal/apperrors"
)

func TestComputeReferenceReview(t *testing.T) {
	result, err := DefaultPolicy().Compute([]int{4, 5, 5, 4, 5, 4, 5, 4})
	require.NoError(t, err)

	assert.Equal(t, 36, result.TotalScore)
	assert.True(t, result.AverageScore.Equal(decimal.RequireFromString("4.5")))
	assert.Equal(t, "4.50", result.AverageScore.StringFixed(2))
	assert.Equal(t, int64(450), result.PointsEarned)
}

func TestComputeTotalsAndAverages(t *testing.T) {
	cases := []struct {
		name    string
		scores  []int
		total   int
		average string
		points  int64
	}{
		{"all zero", []int{0, 0, 0, 0, 0, 0, 0, 0}, 0, "0", 0},
		{"all max", []int{5, 5, 5, 5, 5, 5, 5, 5}, 40, "5", 500},
		{"rounds up at half", []int{5, 5, 5, 4, 4, 4, 4, 4}, 35, "4.38", 438},
		{"quarter", []int{1, 1, 1, 1, 1, 1, 2, 2}, 10, "1.25", 125},
		{"not applicable answers", []int{5, 5, 0, 0, 4, 4, 3, 3}, 24, "3", 300},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := DefaultPolicy().Compute(tc.scores)
			require.NoError(t, err)

			sum := 0
			for _, s := range tc.scores {
				sum += s
			}
			assert.Equal(t, sum, result.TotalScore)
			assert.Equal(t, tc.total, result.TotalScore)
			assert.True(t, result.AverageScore.Equal(decimal.RequireFromString(tc.average)),
				"average %s", result.AverageScore)
			assert.Equal(t, tc.points, result.PointsEarned)
		})
	}
}

func TestComputeUsesConfiguredMultiplier(t *testing.T) {
	policy := Policy{MinScore: 1, MaxScore: 5, PointsMultiplier: 10}
	result, err := policy.Compute([]int{4, 5, 5, 4, 5, 4, 5, 4})
	require.NoError(t, err)
	assert.Equal(t, int64(45), result.PointsEarned)
}

func TestComputeRejectsInvalidInput(t *testing.T) {
	cases := map[string][]int{
		"missing answers":  {4, 5, 5},
		"too many answers": {1, 1, 1, 1, 1, 1, 1, 1, 1},
		"negative":         {4, 5, 5, 4, -1, 4, 5, 4},
		"above scale":      {4, 5, 5, 4, 6, 4, 5, 4},
		"nil":              nil,
	}

	for name, scores := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DefaultPolicy().Compute(scores)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrValidation))
		})
	}
}

func TestComputeRespectsMinimum(t *testing.T) {
	policy := Policy{MinScore: 1, MaxScore: 5, PointsMultiplier: 100}
	_, err := policy.Compute([]int{0, 5, 5, 4, 5, 4, 5, 4})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestScoresFromPointers(t *testing.T) {
	v := func(i int) *int { return &i }

	scores, err := ScoresFromPointers([]*int{v(1), v(2), v(3), v(4), v(5), v(0), v(1), v(2)})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 0, 1, 2}, scores)

	_, err = ScoresFromPointers([]*int{v(1), v(2), nil, v(4), v(5), v(0), v(1), v(2)})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	assert.Contains(t, err.Error(), "question 3")
}

func TestDecide(t *testing.T) {
	threshold := decimal.RequireFromString("3.00")

	assert.Equal(t, DecisionApproved, Decide(decimal.RequireFromString("4.5"), threshold))
	assert.Equal(t, DecisionApproved, Decide(decimal.RequireFromString("3"), threshold))
	assert.Equal(t, DecisionRejected, Decide(decimal.RequireFromString("2.99"), threshold))
}

func TestMeanOf(t *testing.T) {
	assert.True(t, MeanOf(nil).Equal(decimal.Zero))
	got := MeanOf([]decimal.Decimal{
		decimal.RequireFromString("4.5"),
		decimal.RequireFromString("2.25"),
	})
	assert.Equal(t, "3.38", got.StringFixed(2))
}
