package tools

import (
	"context"
	"fmt"
	"log"
	"strings"
	"text/template"

	peaceagent "github.com/TrevorConnolly/ApologyAgent"
)

// templatesFor resolves the template set and tone for a relationship. Unknown
// relationships fall back to the friend set, unknown tones to the
// relationship's default.
func templatesFor(relationship peaceagent.RelationshipType, tone string) (messageTemplate, string, error) {
	rel := string(relationship)
	set, ok := messages.Templates[rel]
	if !ok {
		rel = string(peaceagent.RelationshipFriend)
		set = messages.Templates[rel]
	}
	if tmpl, ok := set[tone]; ok {
		return tmpl, tone, nil
	}
	fallback := messages.DefaultTones[string(relationship)]
	if fallback == "" {
		fallback = messages.DefaultTones[rel]
	}
	if tmpl, ok := set[fallback]; ok {
		return tmpl, fallback, nil
	}
	for name, tmpl := range set {
		return tmpl, name, nil
	}
	return messageTemplate{}, "", fmt.Errorf("no message templates for relationship '%s'", relationship)
}

// RenderMessage crafts a full apology message for the recipient. Severity 7+
// situations get the longer form with an explicit sign-off.
func RenderMessage(query peaceagent.ToolQuery) (string, string, error) {
	if err := loadCatalogs(); err != nil {
		return "", "", err
	}
	tmpl, tone, err := templatesFor(query.Relationship, query.Tone)
	if err != nil {
		return "", "", err
	}

	parts := []string{
		tmpl.Opening,
		tmpl.Acknowledgment,
		tmpl.Responsibility,
		tmpl.Impact,
		tmpl.Commitment,
	}
	if query.Severity >= 7 {
		parts = append(parts, "I know words alone aren't enough, but I want you to know that I'm truly sorry.")
	}
	parts = append(parts, tmpl.Closing)
	if query.Severity >= 7 {
		if query.Relationship == peaceagent.RelationshipRomantic || query.Relationship == peaceagent.RelationshipFamily {
			parts = append(parts, "With love and regret,")
		} else {
			parts = append(parts, "Sincerely,")
		}
	}

	t, err := template.New("message").Parse(strings.Join(parts, "\n\n"))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse message template: %w", err)
	}
	var sb strings.Builder
	if err := t.Execute(&sb, struct{ Recipient string }{Recipient: query.Recipient}); err != nil {
		return "", "", fmt.Errorf("failed to render message: %w", err)
	}
	return sb.String(), tone, nil
}

// SearchMessages renders the apology message as a single free option.
func SearchMessages(ctx context.Context, query peaceagent.ToolQuery) ([]peaceagent.PricedOption, error) {
	message, tone, err := RenderMessage(query)
	if err != nil {
		return nil, err
	}
	log.Printf("TOOL: Crafted %s apology message for %s", tone, query.Recipient)
	return []peaceagent.PricedOption{
		{
			Name:        "Personalized apology message",
			Description: message,
			Price:       0,
			Provider:    "Message Crafter",
			Details: map[string]string{
				"tone":         tone,
				"relationship": string(query.Relationship),
			},
		},
	}, nil
}

// ConfirmMessage never books anything; it hands back delivery guidance.
func ConfirmMessage(ctx context.Context, option peaceagent.PricedOption, query peaceagent.ToolQuery) (*peaceagent.ExecutionDetails, error) {
	return &peaceagent.ExecutionDetails{
		Provider: option.Provider,
		Note:     "Deliver in person if possible. If written, handwriting reads as more sincere than typed text.",
		Extra: map[string]string{
			"tone": option.Details["tone"],
		},
	}, nil
}
