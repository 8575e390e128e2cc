// internal/scoring/scoring.go

// Package scoring turns the eight curator rubric answers into a review score
// and the activity points it earns. Everything here is pure.
package scoring

import (
	"github.com/shopspring/decimal"

	"github.com/javajoker/curated-market/internal/apperrors"
)

// QuestionCount is the number of rubric questions on every curator review.
const QuestionCount = 8

const averagePlaces = 2

type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// Policy holds the rubric scale and the points reward multiplier.
type Policy struct {
	MinScore         int
	MaxScore         int
	PointsMultiplier int64
}

type Result struct {
	TotalScore   int             `json:"total_score"`
	AverageScore decimal.Decimal `json:"average_score"`
	PointsEarned int64           `json:"points_earned"`
}

func DefaultPolicy() Policy {
	return Policy{MinScore: 0, MaxScore: 5, PointsMultiplier: 100}
}

// Compute refuses to score anything but a complete, in-scale set of answers.
func (p Policy) Compute(scores []int) (Result, error) {
	if len(scores) != QuestionCount {
		return Result{}, apperrors.Validationf("expected %d rubric scores, got %d", QuestionCount, len(scores))
	}

	total := 0
	for i, score := range scores {
		if score < 0 {
			return Result{}, apperrors.Validationf("question %d score must not be negative", i+1)
		}
		if score < p.MinScore || score > p.MaxScore {
			return Result{}, apperrors.Validationf("question %d score %d is outside the rubric scale %d-%d",
				i+1, score, p.MinScore, p.MaxScore)
		}
		total += score
	}

	average := Average(total)
	points := average.Mul(decimal.NewFromInt(p.PointsMultiplier)).Round(0).IntPart()

	return Result{
		TotalScore:   total,
		AverageScore: average,
		PointsEarned: points,
	}, nil
}

// Average is total/8 rounded half away from zero to two places.
func Average(total int) decimal.Decimal {
	return decimal.NewFromInt(int64(total)).
		Div(decimal.NewFromInt(QuestionCount)).
		Round(averagePlaces)
}

// Decide maps an average score onto the product status it should lead to.
func Decide(average, threshold decimal.Decimal) Decision {
	if average.GreaterThanOrEqual(threshold) {
		return DecisionApproved
	}
	return DecisionRejected
}

// ScoresFromPointers converts optional request fields, rejecting missing answers.
func ScoresFromPointers(answers []*int) ([]int, error) {
	if len(answers) != QuestionCount {
		return nil, apperrors.Validationf("expected %d rubric scores, got %d", QuestionCount, len(answers))
	}
	scores := make([]int, len(answers))
	for i, answer := range answers {
		if answer == nil {
			return nil, apperrors.Validationf("question %d score is required", i+1)
		}
		scores[i] = *answer
	}
	return scores, nil
}

// MeanOf averages already-rounded review averages, used for a product's aggregate score.
func MeanOf(averages []decimal.Decimal) decimal.Decimal {
	if len(averages) == 0 {
		return decimal.Zero
	}
	return decimal.Sum(averages[0], averages[1:]...).
		Div(decimal.NewFromInt(int64(len(averages)))).
		Round(averagePlaces)
}
