package planner

import (
	"fmt"
	"math"

	"github.com/Knetic/govaluate"

	peaceagent "github.com/TrevorConnolly/ApologyAgent"
)

// DefaultScoreExpression estimates the relational-repair value of one priced
// option. Higher weight and severity raise the score, and within a type a
// larger gesture scores higher, so the greedy pass books the biggest
// affordable option and keeps cheaper ones as alternates.
const DefaultScoreExpression = `weight * (1 + 0.05 * severity) + (urgent ? 0.25 : 0) + (maxPrice > 0 ? 0.3 * (price / maxPrice) : 0.001 * price)`

// scoreFunctions is the whitelist available to custom score expressions.
var scoreFunctions = map[string]govaluate.ExpressionFunction{
	"min": func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("min expects 2 arguments, got %d", len(args))
		}
		return math.Min(args[0].(float64), args[1].(float64)), nil
	},
	"max": func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("max expects 2 arguments, got %d", len(args))
		}
		return math.Max(args[0].(float64), args[1].(float64)), nil
	},
	"abs": func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("abs expects 1 argument, got %d", len(args))
		}
		return math.Abs(args[0].(float64)), nil
	},
}

// scorer evaluates the repair-value expression against one option.
type scorer struct {
	expr *govaluate.EvaluableExpression
}

// newScorer parses and trial-evaluates the expression so a malformed one
// fails at construction rather than mid-plan.
func newScorer(expression string) (*scorer, error) {
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(expression, scoreFunctions)
	if err != nil {
		return nil, fmt.Errorf("invalid score expression: %w", err)
	}
	s := &scorer{expr: expr}
	if _, err := s.score(1.0, 5, false, 50, 100); err != nil {
		return nil, fmt.Errorf("score expression failed trial evaluation: %w", err)
	}
	return s, nil
}

func (s *scorer) score(weight float64, severity int, urgent bool, price, maxPrice float64) (float64, error) {
	result, err := s.expr.Evaluate(map[string]interface{}{
		"weight":   weight,
		"severity": float64(severity),
		"urgent":   urgent,
		"price":    price,
		"maxPrice": maxPrice,
	})
	if err != nil {
		return 0, err
	}
	value, ok := result.(float64)
	if !ok {
		return 0, fmt.Errorf("score expression returned %T, want float64", result)
	}
	return value, nil
}

// typeWeights orders gesture types by relational impact. The planner
// processes types in descending weight order after the message.
var typeWeights = map[peaceagent.ActionType]float64{
	peaceagent.ActionMessage:    1.00,
	peaceagent.ActionRestaurant: 0.90,
	peaceagent.ActionFlowers:    0.85,
	peaceagent.ActionGift:       0.80,
	peaceagent.ActionExperience: 0.75,
	peaceagent.ActionService:    0.65,
	peaceagent.ActionDonation:   0.60,
}

// requiredBoost lifts types the assessment marked as required above optional
// ones of the same class.
const requiredBoost = 0.5
