package peaceagent

import "fmt"

// RelationshipType classifies the relationship between the apologizer and the
// recipient. It drives tone, the gesture shortlist and the success estimate.
type RelationshipType string

const (
	RelationshipFriend       RelationshipType = "friend"
	RelationshipFamily       RelationshipType = "family"
	RelationshipRomantic     RelationshipType = "romantic"
	RelationshipColleague    RelationshipType = "colleague"
	RelationshipAcquaintance RelationshipType = "acquaintance"
)

// Valid reports whether r is one of the known relationship types.
func (r RelationshipType) Valid() bool {
	switch r {
	case RelationshipFriend, RelationshipFamily, RelationshipRomantic,
		RelationshipColleague, RelationshipAcquaintance:
		return true
	}
	return false
}

// ActionType identifies the kind of reconciliation gesture an action represents.
type ActionType string

const (
	ActionMessage    ActionType = "message"
	ActionGift       ActionType = "gift"
	ActionFlowers    ActionType = "flowers"
	ActionRestaurant ActionType = "restaurant"
	ActionExperience ActionType = "experience"
	ActionDonation   ActionType = "donation"
	ActionService    ActionType = "service"
)

// Preferences holds what is known about the recipient. Recognized keys are
// typed fields; provider-specific extras go into Extra.
type Preferences struct {
	Interests       []string          `json:"interests,omitempty" yaml:"interests,omitempty"`
	FavoriteCuisine string            `json:"favorite_cuisine,omitempty" yaml:"favorite_cuisine,omitempty"`
	FavoriteFlowers string            `json:"favorite_flowers,omitempty" yaml:"favorite_flowers,omitempty"`
	DietaryNotes    string            `json:"dietary_notes,omitempty" yaml:"dietary_notes,omitempty"`
	Extra           map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// ApologyContext is the immutable input to one pipeline run.
type ApologyContext struct {
	Situation     string           `json:"situation"`
	RecipientName string           `json:"recipient_name"`
	Relationship  RelationshipType `json:"relationship_type"`
	Severity      int              `json:"severity"`
	Preferences   Preferences      `json:"recipient_preferences,omitempty"`
	Budget        *float64         `json:"budget,omitempty"`
	Location      string           `json:"location,omitempty"`
}

// Validate checks the request before the pipeline runs. It is the only place
// that can reject a request outright.
func (c ApologyContext) Validate() error {
	if c.Situation == "" {
		return NewValidationError("validating", "situation is required", nil)
	}
	if c.RecipientName == "" {
		return NewValidationError("validating", "recipient_name is required", nil)
	}
	if !c.Relationship.Valid() {
		return NewValidationError("validating",
			fmt.Sprintf("unknown relationship_type '%s'", c.Relationship), nil)
	}
	if c.Severity < 1 || c.Severity > 10 {
		return NewValidationError("validating",
			fmt.Sprintf("severity must be within [1,10], got %d", c.Severity), nil)
	}
	if c.Budget != nil && *c.Budget < 0 {
		return NewValidationError("validating",
			fmt.Sprintf("budget must be non-negative, got %.2f", *c.Budget), nil)
	}
	return nil
}

// EmotionalImpact categorizes how badly the situation landed.
type EmotionalImpact string

const (
	ImpactLow      EmotionalImpact = "low"
	ImpactModerate EmotionalImpact = "moderate"
	ImpactHigh     EmotionalImpact = "high"
	ImpactSevere   EmotionalImpact = "severe"
)

// GestureConstraint marks an action type the assessment considers necessary
// for this situation, with the reasoning preserved for the explanation.
type GestureConstraint struct {
	Type     ActionType `json:"type"`
	Required bool       `json:"required"`
	Reason   string     `json:"reason"`
}

// SituationAssessment is the analyzer's structured read of the situation,
// consumed by the planner and the assembler.
type SituationAssessment struct {
	EmotionalImpact EmotionalImpact     `json:"emotional_impact"`
	Tone            string              `json:"tone"`
	ToneDirectives  []string            `json:"tone_directives,omitempty"`
	Urgent          bool                `json:"urgent"`
	Constraints     []GestureConstraint `json:"constraints,omitempty"`

	// Degraded is set when the rule-based fallback produced this assessment.
	Degraded bool `json:"degraded,omitempty"`
}

// RequiredTypes returns the action types the assessment requires.
func (a *SituationAssessment) RequiredTypes() []ActionType {
	var types []ActionType
	for _, c := range a.Constraints {
		if c.Required {
			types = append(types, c.Type)
		}
	}
	return types
}

// ToolQuery carries the parameters an adapter needs to search or confirm.
type ToolQuery struct {
	Relationship RelationshipType
	Severity     int
	MaxPrice     float64 // 0 means unconstrained
	Location     string
	Recipient    string
	Situation    string
	Tone         string
	Preferences  Preferences
}

// PricedOption is one concrete result returned by an adapter search.
type PricedOption struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Price       float64           `json:"price"`
	Provider    string            `json:"provider,omitempty"`
	URL         string            `json:"url,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
}

// ExecutionDetails holds everything the caller needs to carry an action out.
// Recognized keys are typed; provider-specific extras go into Extra.
type ExecutionDetails struct {
	URL          string            `json:"url,omitempty"`
	Confirmation string            `json:"confirmation,omitempty"`
	Provider     string            `json:"provider,omitempty"`
	Note         string            `json:"note,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// CandidateAction is a provisionally priced action produced during planning.
// It is transient: the assembler resolves it into a RecommendedAction.
type CandidateAction struct {
	Type        ActionType
	Description string
	// EstimatedCost is nil for inherently free actions (the message).
	EstimatedCost *float64
	Priority      int
	Required      bool
	Query         ToolQuery
	// Option is the choice made during planning; Alternates are same-type
	// substitutes for the resolver, best first.
	Option     *PricedOption
	Alternates []PricedOption
}

// DropReason explains why a shortlisted action type did not make the plan.
type DropReason string

const (
	DropBudget      DropReason = "budget"
	DropUnavailable DropReason = "tool_unavailable"
	DropTimeout     DropReason = "tool_timeout"
)

// DroppedConstraint records a gesture the plan could not include. It is never
// silent: the assembler surfaces every record in the strategy explanation.
type DroppedConstraint struct {
	Type     ActionType
	Reason   DropReason
	Required bool
	Detail   string
}

// PlanResult is the planner's output: the ordered candidates plus everything
// that had to be left out, so the orchestrator and assembler branch on
// explicit success/degraded variants instead of on errors.
type PlanResult struct {
	Candidates []CandidateAction
	Dropped    []DroppedConstraint
	Degraded   bool
}

// RecommendedAction is a resolved, final action included in the response.
type RecommendedAction struct {
	Type        ActionType `json:"type"`
	Description string     `json:"description"`
	// EstimatedCost is nil when no provider could price the action.
	EstimatedCost *float64         `json:"estimated_cost,omitempty"`
	Details       ExecutionDetails `json:"execution_details"`
	Priority      int              `json:"priority"`
}

// ApologyResponse is the single, immutable result of one pipeline run.
type ApologyResponse struct {
	ApologyMessage      string              `json:"apology_message"`
	StrategyExplanation string              `json:"strategy_explanation"`
	RecommendedActions  []RecommendedAction `json:"recommended_actions"`
	// EstimatedTotalCost is nil unless every costed action carries an estimate.
	EstimatedTotalCost  *float64 `json:"estimated_total_cost,omitempty"`
	SuccessProbability  float64  `json:"success_probability"`
	FollowUpSuggestions []string `json:"follow_up_suggestions"`
}

// TotalCost sums estimates over the priced actions. The total is present only
// when at least one non-message action exists and every one of them is priced;
// message actions are inherently free and carry no estimate.
func TotalCost(actions []RecommendedAction) *float64 {
	var total float64
	priced := 0
	for _, a := range actions {
		if a.Type == ActionMessage {
			continue
		}
		if a.EstimatedCost == nil {
			return nil
		}
		total += *a.EstimatedCost
		priced++
	}
	if priced == 0 {
		return nil
	}
	return &total
}

// Float64 returns a pointer to v. Convenience for optional monetary fields.
func Float64(v float64) *float64 { return &v }
