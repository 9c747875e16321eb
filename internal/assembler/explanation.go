package assembler

import (
	"fmt"
	"strings"

	peaceagent "github.com/TrevorConnolly/ApologyAgent"
)

// gestureLabels render action types in explanatory text.
var gestureLabels = map[peaceagent.ActionType]string{
	peaceagent.ActionMessage:    "a personal apology message",
	peaceagent.ActionGift:       "a thoughtful gift",
	peaceagent.ActionFlowers:    "a flower delivery",
	peaceagent.ActionRestaurant: "a reserved table for a face-to-face conversation",
	peaceagent.ActionExperience: "a shared experience",
	peaceagent.ActionDonation:   "a donation in their name",
	peaceagent.ActionService:    "an act of service",
}

func gestureLabel(t peaceagent.ActionType) string {
	if label, ok := gestureLabels[t]; ok {
		return label
	}
	return string(t)
}

// explain renders the strategy explanation: the overall approach, the chosen
// gestures, and everything that was dropped or downgraded. Degradations are
// never hidden.
func (a *Assembler) explain(resolutions []resolution, plan *peaceagent.PlanResult, assessment *peaceagent.SituationAssessment, request peaceagent.ApologyContext) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "The situation reads as %s emotional impact for a %s relationship, so the plan leads with a %s apology",
		assessment.EmotionalImpact, request.Relationship, assessment.Tone)
	if assessment.Urgent {
		sb.WriteString(" and treats timing as urgent")
	}
	sb.WriteString(". ")

	var gestures []string
	for _, r := range resolutions {
		if r.action.Type == peaceagent.ActionMessage {
			continue
		}
		gestures = append(gestures, gestureLabel(r.action.Type))
	}
	if len(gestures) > 0 {
		fmt.Fprintf(&sb, "It pairs the message with %s. ", strings.Join(gestures, ", "))
	} else {
		sb.WriteString("It relies on the message alone. ")
	}

	for _, r := range resolutions {
		if r.downgraded {
			fmt.Fprintf(&sb, "The %s could not be booked automatically and needs manual completion. ",
				gestureLabel(r.action.Type))
		}
	}

	for _, d := range plan.Dropped {
		switch d.Reason {
		case peaceagent.DropBudget:
			fmt.Fprintf(&sb, "%s was left out because it did not fit the budget. ",
				capitalize(gestureLabel(d.Type)))
		default:
			fmt.Fprintf(&sb, "%s was left out because its provider was unavailable. ",
				capitalize(gestureLabel(d.Type)))
		}
	}

	if assessment.Degraded {
		sb.WriteString("The situation read is based on severity and relationship alone; deeper analysis was unavailable. ")
	}
	if plan.Degraded && len(plan.Dropped) == 0 {
		sb.WriteString("Gesture planning was limited, so the plan stays close to the basics. ")
	}

	return strings.TrimSpace(sb.String())
}

// followUps composes follow-up suggestions from relationship and severity
// templates plus notices for anything the plan could not satisfy.
func (a *Assembler) followUps(resolutions []resolution, plan *peaceagent.PlanResult, request peaceagent.ApologyContext) []string {
	suggestions := []string{
		"Give them space to process if they need it",
		"Follow up in a few days to check how they're feeling",
		"Be consistent with any promises made in the apology",
	}

	switch request.Relationship {
	case peaceagent.RelationshipRomantic:
		suggestions = append(suggestions, "Plan regular check-ins to rebuild trust over time")
	case peaceagent.RelationshipFamily:
		suggestions = append(suggestions, "Make time for the family gatherings you usually attend together")
	}

	if request.Severity >= 7 {
		suggestions = append(suggestions, "For a situation this serious, consider suggesting mediation or counseling")
	}

	for _, d := range plan.Dropped {
		if d.Reason == peaceagent.DropBudget {
			suggestions = append(suggestions,
				fmt.Sprintf("Budget limited the plan: consider %s when circumstances allow", gestureLabel(d.Type)))
		}
	}
	for _, r := range resolutions {
		if r.downgraded {
			suggestions = append(suggestions,
				fmt.Sprintf("Arrange %s yourself; automatic booking was unavailable", gestureLabel(r.action.Type)))
		}
	}

	return suggestions
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
