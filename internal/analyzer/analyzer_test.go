package analyzer

import (
	"context"
	"strings"
	"testing"

	peaceagent "github.com/TrevorConnolly/ApologyAgent"
	"github.com/TrevorConnolly/ApologyAgent/internal/prompt"
)

func TestDefineFlow_RegistersAnalysisPrompt(t *testing.T) {
	registry, err := prompt.NewRegistry(context.Background())
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	flow, err := DefineFlow(registry)
	if err != nil {
		t.Fatalf("DefineFlow failed: %v", err)
	}
	if flow == nil {
		t.Fatal("expected a registered flow")
	}
	if _, err := registry.GetPrompt(AnalysisPromptName); err != nil {
		t.Errorf("analysis prompt must be registered: %v", err)
	}
}

func TestParseAssessment_PlainJSON(t *testing.T) {
	raw := `{
		"emotional_impact": "high",
		"tone": "sincere",
		"tone_directives": ["lead with responsibility"],
		"urgent": true,
		"constraints": [{"type": "restaurant", "required": true, "reason": "face-to-face conversation needed"}]
	}`
	assessment, err := ParseAssessment(raw)
	if err != nil {
		t.Fatalf("ParseAssessment failed: %v", err)
	}
	if assessment.EmotionalImpact != peaceagent.ImpactHigh {
		t.Errorf("expected high impact, got %s", assessment.EmotionalImpact)
	}
	if !assessment.Urgent {
		t.Error("expected urgent")
	}
	if len(assessment.Constraints) != 1 || assessment.Constraints[0].Type != peaceagent.ActionRestaurant {
		t.Errorf("unexpected constraints: %+v", assessment.Constraints)
	}
	if !assessment.Constraints[0].Required {
		t.Error("constraint should be required")
	}
}

func TestParseAssessment_StripsMarkdownFences(t *testing.T) {
	fenced := "```json\n{\"emotional_impact\": \"moderate\", \"tone\": \"casual\"}\n```"
	assessment, err := ParseAssessment(fenced)
	if err != nil {
		t.Fatalf("ParseAssessment failed on fenced JSON: %v", err)
	}
	if assessment.EmotionalImpact != peaceagent.ImpactModerate {
		t.Errorf("expected moderate impact, got %s", assessment.EmotionalImpact)
	}

	bare := "```\n{\"emotional_impact\": \"low\", \"tone\": \"light\"}\n```"
	if _, err := ParseAssessment(bare); err != nil {
		t.Fatalf("ParseAssessment failed on bare fences: %v", err)
	}
}

func TestParseAssessment_MalformedJSON(t *testing.T) {
	for _, raw := range []string{
		"",
		"I think the situation is quite serious.",
		`{"emotional_impact": "high", "tone":`,
	} {
		if _, err := ParseAssessment(raw); err == nil {
			t.Errorf("expected decode error for %q", raw)
		}
	}
}

func TestValidateAssessment(t *testing.T) {
	cases := []struct {
		name       string
		assessment *peaceagent.SituationAssessment
		wantErr    string
	}{
		{
			name: "valid",
			assessment: &peaceagent.SituationAssessment{
				EmotionalImpact: peaceagent.ImpactSevere,
				Tone:            "sincere",
			},
		},
		{
			name:       "nil",
			assessment: nil,
			wantErr:    "nil",
		},
		{
			name: "unknown impact",
			assessment: &peaceagent.SituationAssessment{
				EmotionalImpact: "catastrophic",
				Tone:            "sincere",
			},
			wantErr: "emotional_impact",
		},
		{
			name: "missing tone",
			assessment: &peaceagent.SituationAssessment{
				EmotionalImpact: peaceagent.ImpactLow,
			},
			wantErr: "tone",
		},
		{
			name: "unknown constraint type",
			assessment: &peaceagent.SituationAssessment{
				EmotionalImpact: peaceagent.ImpactModerate,
				Tone:            "sincere",
				Constraints: []peaceagent.GestureConstraint{
					{Type: "skywriting", Required: true},
				},
			},
			wantErr: "unknown action type",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateAssessment(tc.assessment)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}
