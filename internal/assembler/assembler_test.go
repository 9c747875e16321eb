package assembler

import (
	"context"
	"errors"
	"strings"
	"testing"

	peaceagent "github.com/TrevorConnolly/ApologyAgent"
)

type fakeAdapter struct {
	name        string
	actionType  peaceagent.ActionType
	confirmErr  error
	failOptions map[string]bool // options whose Confirm fails by name
	confirmed   []string
}

func (f *fakeAdapter) Name() string                      { return f.name }
func (f *fakeAdapter) ActionType() peaceagent.ActionType { return f.actionType }
func (f *fakeAdapter) Schema() map[string]interface{} {
	return map[string]interface{}{"description": f.name}
}

func (f *fakeAdapter) Search(ctx context.Context, query peaceagent.ToolQuery) ([]peaceagent.PricedOption, error) {
	return nil, errors.New("not used in assembly tests")
}

func (f *fakeAdapter) Confirm(ctx context.Context, option peaceagent.PricedOption, query peaceagent.ToolQuery) (*peaceagent.ExecutionDetails, error) {
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	if f.failOptions[option.Name] {
		return nil, errors.New("slot taken")
	}
	f.confirmed = append(f.confirmed, option.Name)
	return &peaceagent.ExecutionDetails{
		Confirmation: "CONF-" + option.Name,
		Provider:     f.name,
	}, nil
}

func testRequest() peaceagent.ApologyContext {
	budget := 200.0
	return peaceagent.ApologyContext{
		Situation:     "forgot anniversary dinner",
		RecipientName: "Sam",
		Relationship:  peaceagent.RelationshipRomantic,
		Severity:      8,
		Budget:        &budget,
	}
}

func testAssessment() *peaceagent.SituationAssessment {
	return &peaceagent.SituationAssessment{
		EmotionalImpact: peaceagent.ImpactHigh,
		Tone:            "sincere",
		Urgent:          true,
	}
}

func messageCandidate() peaceagent.CandidateAction {
	return peaceagent.CandidateAction{
		Type:        peaceagent.ActionMessage,
		Description: "Personalized apology message",
		Priority:    1,
		Required:    true,
		Option: &peaceagent.PricedOption{
			Name:        "Personalized apology message",
			Description: "Dear Sam, I am truly sorry about the anniversary dinner.",
		},
	}
}

func giftCandidate(price float64, alternates ...peaceagent.PricedOption) peaceagent.CandidateAction {
	return peaceagent.CandidateAction{
		Type:          peaceagent.ActionGift,
		Description:   "Star map of a meaningful date",
		EstimatedCost: &price,
		Priority:      2,
		Option:        &peaceagent.PricedOption{Name: "Star Map", Description: "Star map of a meaningful date", Price: price},
		Alternates:    alternates,
	}
}

func TestExecute_ResolvesAllActions(t *testing.T) {
	adapters := map[peaceagent.ActionType]peaceagent.ToolAdapter{
		peaceagent.ActionMessage: &fakeAdapter{name: "message_crafter", actionType: peaceagent.ActionMessage},
		peaceagent.ActionGift:    &fakeAdapter{name: "gift_finder", actionType: peaceagent.ActionGift},
	}
	a := NewAssembler(adapters)
	plan := &peaceagent.PlanResult{Candidates: []peaceagent.CandidateAction{messageCandidate(), giftCandidate(40)}}

	response, err := a.Execute(context.Background(), plan, testAssessment(), testRequest())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(response.ApologyMessage, "Dear Sam") {
		t.Errorf("expected rendered message, got %q", response.ApologyMessage)
	}
	if len(response.RecommendedActions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(response.RecommendedActions))
	}
	if response.EstimatedTotalCost == nil || *response.EstimatedTotalCost != 40 {
		t.Errorf("expected total 40, got %v", response.EstimatedTotalCost)
	}
	gift := response.RecommendedActions[1]
	if gift.Details.Confirmation == "" {
		t.Error("expected confirmation details on the resolved gift")
	}
}

func TestExecute_FailedConfirmTriesAlternates(t *testing.T) {
	adapter := &fakeAdapter{
		name:        "gift_finder",
		actionType:  peaceagent.ActionGift,
		failOptions: map[string]bool{"Star Map": true},
	}
	adapters := map[peaceagent.ActionType]peaceagent.ToolAdapter{peaceagent.ActionGift: adapter}
	a := NewAssembler(adapters)

	alternate := peaceagent.PricedOption{Name: "Memory Jar", Description: "Jar of shared memories", Price: 20}
	plan := &peaceagent.PlanResult{Candidates: []peaceagent.CandidateAction{giftCandidate(40, alternate)}}

	response, err := a.Execute(context.Background(), plan, testAssessment(), testRequest())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	action := response.RecommendedActions[0]
	if action.EstimatedCost == nil || *action.EstimatedCost != 20 {
		t.Errorf("expected the alternate's cost 20, got %v", action.EstimatedCost)
	}
	if len(adapter.confirmed) != 1 || adapter.confirmed[0] != "Memory Jar" {
		t.Errorf("expected the alternate confirmed, got %v", adapter.confirmed)
	}
}

func TestExecute_AlternateOverBudgetDowngrades(t *testing.T) {
	adapter := &fakeAdapter{
		name:        "gift_finder",
		actionType:  peaceagent.ActionGift,
		failOptions: map[string]bool{"Star Map": true},
	}
	flowersAdapter := &fakeAdapter{name: "flower_delivery", actionType: peaceagent.ActionFlowers}
	adapters := map[peaceagent.ActionType]peaceagent.ToolAdapter{
		peaceagent.ActionGift:    adapter,
		peaceagent.ActionFlowers: flowersAdapter,
	}
	a := NewAssembler(adapters)

	// Budget 200, planned 75. The 190 alternate would bring the total to
	// 225, so it must not be attempted and the gift downgrades instead.
	pricey := peaceagent.PricedOption{Name: "Telescope", Description: "Entry-level telescope", Price: 190}
	flowersCost := 35.0
	plan := &peaceagent.PlanResult{Candidates: []peaceagent.CandidateAction{
		giftCandidate(40, pricey),
		{
			Type:          peaceagent.ActionFlowers,
			Description:   "Simple sincerity bouquet",
			EstimatedCost: &flowersCost,
			Priority:      2,
			Option:        &peaceagent.PricedOption{Name: "Simple Sincerity Bouquet", Description: "Simple sincerity bouquet", Price: 35},
		},
	}}

	response, err := a.Execute(context.Background(), plan, testAssessment(), testRequest())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	for _, name := range adapter.confirmed {
		if name == "Telescope" {
			t.Error("an alternate the budget cannot absorb must not be confirmed")
		}
	}
	gift := response.RecommendedActions[0]
	if gift.EstimatedCost != nil {
		t.Errorf("gift should downgrade when no affordable option confirms, got cost %.2f", *gift.EstimatedCost)
	}
	if response.EstimatedTotalCost != nil && *response.EstimatedTotalCost > 200 {
		t.Errorf("total %.2f exceeds the 200 budget", *response.EstimatedTotalCost)
	}
}

func TestExecute_AlternateWithinHeadroomSucceeds(t *testing.T) {
	adapter := &fakeAdapter{
		name:        "gift_finder",
		actionType:  peaceagent.ActionGift,
		failOptions: map[string]bool{"Star Map": true},
	}
	adapters := map[peaceagent.ActionType]peaceagent.ToolAdapter{peaceagent.ActionGift: adapter}
	a := NewAssembler(adapters)

	// Planned 40 against budget 200; a 100 alternate fits the headroom.
	alternate := peaceagent.PricedOption{Name: "Custom Necklace", Description: "Engraved necklace", Price: 100}
	plan := &peaceagent.PlanResult{Candidates: []peaceagent.CandidateAction{giftCandidate(40, alternate)}}

	response, err := a.Execute(context.Background(), plan, testAssessment(), testRequest())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(adapter.confirmed) != 1 || adapter.confirmed[0] != "Custom Necklace" {
		t.Errorf("expected the affordable alternate confirmed, got %v", adapter.confirmed)
	}
	if response.EstimatedTotalCost == nil || *response.EstimatedTotalCost != 100 {
		t.Errorf("expected total 100, got %v", response.EstimatedTotalCost)
	}
}

func TestExecute_AllConfirmsFailDowngrades(t *testing.T) {
	adapters := map[peaceagent.ActionType]peaceagent.ToolAdapter{
		peaceagent.ActionGift: &fakeAdapter{
			name:       "gift_finder",
			actionType: peaceagent.ActionGift,
			confirmErr: errors.New("provider down"),
		},
	}
	a := NewAssembler(adapters)
	plan := &peaceagent.PlanResult{Candidates: []peaceagent.CandidateAction{messageCandidate(), giftCandidate(40)}}

	response, err := a.Execute(context.Background(), plan, testAssessment(), testRequest())
	if err != nil {
		t.Fatalf("one failed provider must not abort execution: %v", err)
	}
	gift := response.RecommendedActions[1]
	if gift.EstimatedCost != nil {
		t.Errorf("downgraded action must have no cost, got %.2f", *gift.EstimatedCost)
	}
	if gift.Details.Note == "" {
		t.Error("downgraded action must carry a manual-completion note")
	}
	if response.EstimatedTotalCost != nil {
		t.Errorf("unpriced gesture must suppress the total, got %.2f", *response.EstimatedTotalCost)
	}
	if !strings.Contains(response.StrategyExplanation, "manual") {
		t.Errorf("downgrade must be surfaced in the explanation: %q", response.StrategyExplanation)
	}
}

func TestExecute_FailureIsolation(t *testing.T) {
	goodAdapter := &fakeAdapter{name: "flower_delivery", actionType: peaceagent.ActionFlowers}
	adapters := map[peaceagent.ActionType]peaceagent.ToolAdapter{
		peaceagent.ActionGift: &fakeAdapter{
			name:       "gift_finder",
			actionType: peaceagent.ActionGift,
			confirmErr: errors.New("provider down"),
		},
		peaceagent.ActionFlowers: goodAdapter,
	}
	a := NewAssembler(adapters)
	flowersCost := 35.0
	plan := &peaceagent.PlanResult{Candidates: []peaceagent.CandidateAction{
		giftCandidate(40),
		{
			Type:          peaceagent.ActionFlowers,
			Description:   "Simple sincerity bouquet",
			EstimatedCost: &flowersCost,
			Priority:      2,
			Option:        &peaceagent.PricedOption{Name: "Simple Sincerity Bouquet", Description: "Simple sincerity bouquet", Price: 35},
		},
	}}

	response, err := a.Execute(context.Background(), plan, testAssessment(), testRequest())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(goodAdapter.confirmed) != 1 {
		t.Error("the healthy provider must still be confirmed when another fails")
	}
	flowers := response.RecommendedActions[1]
	if flowers.EstimatedCost == nil {
		t.Error("the resolved flowers action must keep its cost")
	}
}

func TestExecute_MessageWithoutProviderFallsBack(t *testing.T) {
	a := NewAssembler(nil)
	plan := &peaceagent.PlanResult{Candidates: []peaceagent.CandidateAction{
		{Type: peaceagent.ActionMessage, Description: "Personalized apology message", Priority: 1, Required: true},
	}}

	response, err := a.Execute(context.Background(), plan, testAssessment(), testRequest())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if response.ApologyMessage == "" {
		t.Fatal("expected the fallback apology message")
	}
	if !strings.Contains(response.ApologyMessage, "Sam") {
		t.Errorf("fallback message should address the recipient: %q", response.ApologyMessage)
	}
	if response.EstimatedTotalCost != nil {
		t.Errorf("message-only response must have no total, got %.2f", *response.EstimatedTotalCost)
	}
}

func TestExecute_PrioritiesRenumbered(t *testing.T) {
	adapters := map[peaceagent.ActionType]peaceagent.ToolAdapter{
		peaceagent.ActionGift: &fakeAdapter{name: "gift_finder", actionType: peaceagent.ActionGift},
	}
	a := NewAssembler(adapters)
	// Planner priorities deliberately non-contiguous.
	gift := giftCandidate(40)
	gift.Priority = 5
	message := messageCandidate()
	message.Priority = 3
	plan := &peaceagent.PlanResult{Candidates: []peaceagent.CandidateAction{message, gift}}

	response, err := a.Execute(context.Background(), plan, testAssessment(), testRequest())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	for i, action := range response.RecommendedActions {
		if action.Priority != i+1 {
			t.Errorf("action %d has priority %d, want %d", i, action.Priority, i+1)
		}
	}
}

func TestExecute_DroppedConstraintsSurface(t *testing.T) {
	a := NewAssembler(map[peaceagent.ActionType]peaceagent.ToolAdapter{
		peaceagent.ActionMessage: &fakeAdapter{name: "message_crafter", actionType: peaceagent.ActionMessage},
	})
	plan := &peaceagent.PlanResult{
		Candidates: []peaceagent.CandidateAction{messageCandidate()},
		Dropped: []peaceagent.DroppedConstraint{
			{Type: peaceagent.ActionRestaurant, Reason: peaceagent.DropBudget, Required: true, Detail: "over budget"},
		},
		Degraded: true,
	}

	response, err := a.Execute(context.Background(), plan, testAssessment(), testRequest())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(response.StrategyExplanation, "budget") {
		t.Errorf("budget drop must appear in the explanation: %q", response.StrategyExplanation)
	}
	foundNotice := false
	for _, s := range response.FollowUpSuggestions {
		if strings.Contains(s, "Budget limited") {
			foundNotice = true
		}
	}
	if !foundNotice {
		t.Errorf("expected a budget follow-up notice, got %v", response.FollowUpSuggestions)
	}

	// A dropped required gesture must lower the estimate.
	clean := &peaceagent.PlanResult{Candidates: []peaceagent.CandidateAction{messageCandidate()}}
	cleanResponse, err := a.Execute(context.Background(), clean, testAssessment(), testRequest())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if response.SuccessProbability >= cleanResponse.SuccessProbability {
		t.Errorf("dropped required gesture must lower probability: %f >= %f",
			response.SuccessProbability, cleanResponse.SuccessProbability)
	}
}

func TestExecute_EmptyPlanRejected(t *testing.T) {
	a := NewAssembler(nil)
	if _, err := a.Execute(context.Background(), &peaceagent.PlanResult{}, testAssessment(), testRequest()); err == nil {
		t.Fatal("expected error for empty plan")
	}
}
