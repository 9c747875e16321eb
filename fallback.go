package peaceagent

import (
	"fmt"
	"log"
)

// Rule-based fallbacks the orchestrator uses when a stage fails or times out.
// Everything here is a deterministic lookup on severity and relationship, so
// the pipeline always has a usable floor below which it never fails outright.

// impactForSeverity maps the 1..10 severity scale onto impact bands.
func impactForSeverity(severity int) EmotionalImpact {
	switch {
	case severity <= 3:
		return ImpactLow
	case severity <= 6:
		return ImpactModerate
	case severity <= 8:
		return ImpactHigh
	default:
		return ImpactSevere
	}
}

// fallbackTones holds the tone and directives per relationship type.
var fallbackTones = map[RelationshipType]struct {
	tone       string
	directives []string
}{
	RelationshipRomantic: {"heartfelt", []string{
		"acknowledge the impact on trust and intimacy",
		"reaffirm love and commitment",
	}},
	RelationshipFamily: {"sincere", []string{
		"show respect for family bonds",
		"emphasize long-term commitment to the relationship",
	}},
	RelationshipFriend: {"sincere", []string{
		"be genuine rather than formal",
		"reaffirm the value of the friendship",
	}},
	RelationshipColleague: {"professional", []string{
		"maintain professional boundaries",
		"focus on work impact and team dynamics",
	}},
	RelationshipAcquaintance: {"courteous", []string{
		"keep it brief and respectful",
	}},
}

// RuleBasedAssessment derives a SituationAssessment purely from severity and
// relationship type. It backs the analyzer when the language-understanding
// call cannot produce a well-formed assessment.
func RuleBasedAssessment(request ApologyContext) *SituationAssessment {
	tones := fallbackTones[request.Relationship]
	assessment := &SituationAssessment{
		EmotionalImpact: impactForSeverity(request.Severity),
		Tone:            tones.tone,
		ToneDirectives:  tones.directives,
		Urgent:          request.Severity >= 7,
		Degraded:        true,
	}

	// Above severity 7 a message alone is not enough for close relationships.
	if request.Severity > 7 {
		switch request.Relationship {
		case RelationshipRomantic:
			assessment.Constraints = append(assessment.Constraints, GestureConstraint{
				Type:     ActionRestaurant,
				Required: true,
				Reason:   "a serious transgression in a romantic relationship calls for an in-person gesture",
			})
		case RelationshipFamily, RelationshipFriend:
			assessment.Constraints = append(assessment.Constraints, GestureConstraint{
				Type:     ActionGift,
				Required: true,
				Reason:   "a serious transgression calls for a tangible gesture beyond words",
			})
		}
	}

	return assessment
}

// MessageOnlyPlan is the planning floor: a single free message candidate.
// Used when the planner errors out or exceeds its time budget.
func MessageOnlyPlan(assessment *SituationAssessment, request ApologyContext, reason string) *PlanResult {
	log.Printf("Planning degraded to message-only: %s", reason)
	return &PlanResult{
		Candidates: []CandidateAction{{
			Type:        ActionMessage,
			Description: fmt.Sprintf("Sincere personal apology to %s", request.RecipientName),
			Priority:    1,
			Required:    true,
			Query: ToolQuery{
				Relationship: request.Relationship,
				Severity:     request.Severity,
				Recipient:    request.RecipientName,
				Situation:    request.Situation,
				Tone:         assessment.Tone,
				Preferences:  request.Preferences,
			},
		}},
		Degraded: true,
	}
}

// DegradedResponse is the execution floor: a complete, valid response built
// without any adapter, used when the assembler itself fails or times out.
func DegradedResponse(assessment *SituationAssessment, request ApologyContext, detail string) *ApologyResponse {
	message := fmt.Sprintf(
		"Dear %s,\n\nI know I hurt you, and I am truly sorry. What happened was my responsibility, "+
			"and I want to make it right. I understand if you need time, and I will be here when you are ready to talk.",
		request.RecipientName)

	return &ApologyResponse{
		ApologyMessage: message,
		StrategyExplanation: fmt.Sprintf(
			"A direct, sincere apology delivered personally. Automated recommendations were unavailable (%s), "+
				"so concrete gestures must be arranged manually.", detail),
		RecommendedActions: []RecommendedAction{{
			Type:        ActionMessage,
			Description: fmt.Sprintf("Sincere personal apology to %s", request.RecipientName),
			Details: ExecutionDetails{
				Note: "deliver in person if possible; manual completion required",
			},
			Priority: 1,
		}},
		SuccessProbability: SuccessProbability(request.Severity, request.Relationship, 0, true),
		FollowUpSuggestions: []string{
			"Give them space to process if they need it",
			"Follow up in a few days to check how they're feeling",
			"Be consistent with any promises made in the apology",
		},
	}
}
