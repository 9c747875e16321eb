package peaceagent

import "testing"

func TestApologyContextValidate(t *testing.T) {
	valid := ApologyContext{
		Situation:     "missed their birthday",
		RecipientName: "Alex",
		Relationship:  RelationshipFriend,
		Severity:      4,
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid request rejected: %v", err)
	}

	zeroBudget := valid
	zeroBudget.Budget = Float64(0)
	if err := zeroBudget.Validate(); err != nil {
		t.Errorf("zero budget is valid (message-only territory): %v", err)
	}
}

func TestTotalCost(t *testing.T) {
	message := RecommendedAction{Type: ActionMessage}
	gift := RecommendedAction{Type: ActionGift, EstimatedCost: Float64(40)}
	flowers := RecommendedAction{Type: ActionFlowers, EstimatedCost: Float64(35)}
	unpriced := RecommendedAction{Type: ActionRestaurant}

	if total := TotalCost([]RecommendedAction{message}); total != nil {
		t.Errorf("message-only plan must have no total, got %.2f", *total)
	}
	if total := TotalCost([]RecommendedAction{message, gift, flowers}); total == nil || *total != 75 {
		t.Errorf("expected total 75, got %v", total)
	}
	if total := TotalCost([]RecommendedAction{message, gift, unpriced}); total != nil {
		t.Errorf("an unpriced gesture must suppress the total, got %.2f", *total)
	}
	if total := TotalCost(nil); total != nil {
		t.Errorf("empty action list must have no total, got %.2f", *total)
	}
}

func TestRequiredTypes(t *testing.T) {
	assessment := &SituationAssessment{
		Constraints: []GestureConstraint{
			{Type: ActionGift, Required: true},
			{Type: ActionFlowers, Required: false},
			{Type: ActionRestaurant, Required: true},
		},
	}
	required := assessment.RequiredTypes()
	if len(required) != 2 {
		t.Fatalf("expected 2 required types, got %d", len(required))
	}
	if required[0] != ActionGift || required[1] != ActionRestaurant {
		t.Errorf("unexpected required types: %v", required)
	}
}

func TestRuleBasedAssessment(t *testing.T) {
	request := ApologyContext{
		Situation:     "argument got out of hand",
		RecipientName: "Jordan",
		Relationship:  RelationshipRomantic,
		Severity:      8,
	}
	assessment := RuleBasedAssessment(request)
	if !assessment.Degraded {
		t.Error("rule-based assessment must be marked degraded")
	}
	if assessment.EmotionalImpact != ImpactHigh {
		t.Errorf("severity 8 should read as high impact, got %s", assessment.EmotionalImpact)
	}
	if !assessment.Urgent {
		t.Error("severity 8 should be urgent")
	}

	// Same pairing must yield the same constraints every time.
	again := RuleBasedAssessment(request)
	if len(again.Constraints) != len(assessment.Constraints) {
		t.Error("rule-based assessment is not deterministic")
	}
}
