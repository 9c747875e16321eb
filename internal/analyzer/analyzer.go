// Package analyzer defines the language-model-backed situation analysis flow.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/TrevorConnolly/ApologyAgent"
	"github.com/TrevorConnolly/ApologyAgent/internal/prompt"
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"
)

// Input is the analyzer flow's input payload.
type Input struct {
	Situation     string                 `json:"situation"`
	RecipientName string                 `json:"recipient_name"`
	Relationship  string                 `json:"relationship_type"`
	Severity      int                    `json:"severity"`
	Location      string                 `json:"location,omitempty"`
	Preferences   peaceagent.Preferences `json:"recipient_preferences,omitempty"`
}

// AnalysisPromptName is the registry name of the situation analysis prompt.
const AnalysisPromptName = "situationAnalysis"

const assessmentSchemaPartial = "assessmentSchema"

const assessmentSchemaTemplate = `{
  "emotional_impact": "low|moderate|high|severe",
  "tone": "...",
  "tone_directives": ["..."],
  "urgent": true,
  "constraints": [{"type": "restaurant", "required": true, "reason": "..."}]
}`

const analysisPromptTemplate = `You are an expert at analyzing interpersonal situations and relationships.
Analyze this situation requiring an apology:

Situation: {{situation}}
Recipient: {{recipientName}} ({{relationship}})
Severity: {{severity}}/10
Location: {{location}}

Assess:
1. The emotional impact on the recipient (one of: low, moderate, high, severe)
2. The tone the apology should take for this relationship
3. Whether the situation is urgent
4. Which gesture types beyond a message are required, if any
   (gift, flowers, restaurant, experience)

Respond with only a JSON object matching:
{{>assessmentSchema}}`

// DefineFlow registers the analysis prompt on the registry and the situation
// analysis flow on its Genkit instance, returning the flow for use by the
// analyzer adapter.
func DefineFlow(registry *prompt.Registry) (*core.Flow[*Input, *peaceagent.SituationAssessment, struct{}], error) {
	if err := registry.DefinePartial(assessmentSchemaPartial, assessmentSchemaTemplate); err != nil {
		return nil, err
	}
	if _, err := registry.DefinePrompt(AnalysisPromptName, ai.WithPrompt(analysisPromptTemplate)); err != nil {
		return nil, err
	}

	flow := genkit.DefineFlow(registry.Genkit(), "situationAnalyzer",
		func(ctx context.Context, input *Input) (*peaceagent.SituationAssessment, error) {
			location := input.Location
			if location == "" {
				location = "not specified"
			}
			resp, err := registry.ExecutePrompt(ctx, AnalysisPromptName, map[string]interface{}{
				"situation":     input.Situation,
				"recipientName": input.RecipientName,
				"relationship":  input.Relationship,
				"severity":      input.Severity,
				"location":      location,
			})
			if err != nil {
				return nil, fmt.Errorf("analysis generation failed: %w", err)
			}

			assessment, err := ParseAssessment(resp.Text())
			if err != nil {
				return nil, err
			}
			return assessment, nil
		},
	)
	return flow, nil
}

// ParseAssessment decodes a model reply into an assessment. Models sometimes
// wrap JSON in markdown fences; those are stripped before decoding.
func ParseAssessment(raw string) (*peaceagent.SituationAssessment, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var assessment peaceagent.SituationAssessment
	if err := json.Unmarshal([]byte(cleaned), &assessment); err != nil {
		return nil, fmt.Errorf("failed to decode assessment JSON: %w", err)
	}
	if err := ValidateAssessment(&assessment); err != nil {
		return nil, err
	}
	return &assessment, nil
}

// ValidateAssessment checks that a decoded assessment is well-formed enough
// for the planner to act on.
func ValidateAssessment(a *peaceagent.SituationAssessment) error {
	if a == nil {
		return fmt.Errorf("assessment is nil")
	}
	switch a.EmotionalImpact {
	case peaceagent.ImpactLow, peaceagent.ImpactModerate, peaceagent.ImpactHigh, peaceagent.ImpactSevere:
	default:
		return fmt.Errorf("unknown emotional_impact '%s'", a.EmotionalImpact)
	}
	if a.Tone == "" {
		return fmt.Errorf("assessment is missing a tone")
	}
	for _, c := range a.Constraints {
		switch c.Type {
		case peaceagent.ActionMessage, peaceagent.ActionGift, peaceagent.ActionFlowers,
			peaceagent.ActionRestaurant, peaceagent.ActionExperience,
			peaceagent.ActionDonation, peaceagent.ActionService:
		default:
			return fmt.Errorf("constraint references unknown action type '%s'", c.Type)
		}
	}
	return nil
}
