package planner

import (
	"testing"

	peaceagent "github.com/TrevorConnolly/ApologyAgent"
)

func TestNewScorer_DefaultExpression(t *testing.T) {
	s, err := newScorer(DefaultScoreExpression)
	if err != nil {
		t.Fatalf("default expression must parse: %v", err)
	}
	if _, err := s.score(0.8, 7, true, 40, 200); err != nil {
		t.Fatalf("default expression must evaluate: %v", err)
	}
}

func TestNewScorer_RejectsMalformedExpressions(t *testing.T) {
	for _, expression := range []string{
		"weight * (",
		"weight + nonexistent(price)",
		`"a string"`,
	} {
		if _, err := newScorer(expression); err == nil {
			t.Errorf("expected %q to be rejected", expression)
		}
	}
}

func TestScore_MonotonicInPrice(t *testing.T) {
	s, err := newScorer(DefaultScoreExpression)
	if err != nil {
		t.Fatalf("newScorer failed: %v", err)
	}
	prev := 0.0
	for i, price := range []float64{10, 50, 100, 200} {
		score, err := s.score(0.8, 5, false, price, 200)
		if err != nil {
			t.Fatalf("score failed: %v", err)
		}
		if i > 0 && score <= prev {
			t.Errorf("score must rise with price: %.4f at %.0f <= %.4f", score, price, prev)
		}
		prev = score
	}
}

func TestScore_SeverityAndUrgencyRaiseScore(t *testing.T) {
	s, err := newScorer(DefaultScoreExpression)
	if err != nil {
		t.Fatalf("newScorer failed: %v", err)
	}
	mild, _ := s.score(0.8, 2, false, 50, 200)
	severe, _ := s.score(0.8, 9, false, 50, 200)
	if severe <= mild {
		t.Errorf("higher severity must raise the score: %.4f <= %.4f", severe, mild)
	}
	calm, _ := s.score(0.8, 5, false, 50, 200)
	urgent, _ := s.score(0.8, 5, true, 50, 200)
	if urgent <= calm {
		t.Errorf("urgency must raise the score: %.4f <= %.4f", urgent, calm)
	}
}

func TestScore_CustomExpressionWithFunctions(t *testing.T) {
	s, err := newScorer(`weight * max(1, severity / 5) - abs(price) * 0.001`)
	if err != nil {
		t.Fatalf("expression with whitelisted functions must parse: %v", err)
	}
	score, err := s.score(1.0, 10, false, 100, 0)
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}
	if score <= 0 {
		t.Errorf("unexpected score %.4f", score)
	}
}

func TestTypeWeights_MessageRanksHighest(t *testing.T) {
	for actionType, weight := range typeWeights {
		if actionType == peaceagent.ActionMessage {
			continue
		}
		if weight >= typeWeights[peaceagent.ActionMessage] {
			t.Errorf("%s weight %.2f must be below the message's", actionType, weight)
		}
	}
}
