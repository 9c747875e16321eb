package peaceagent

import (
	"context"
	"time"
)

// Analyzer converts a raw apology request into a structured assessment.
// Implementations may consult a language model, but the same
// severity/relationship pairing must not flip required-gesture constraints
// across calls.
type Analyzer interface {
	Analyze(ctx context.Context, request ApologyContext) (*SituationAssessment, error)
}

// Planner selects and prioritizes candidate actions under the budget
// constraint, consulting tool adapters for grounding data. A failed adapter
// must not abort planning: a message-only plan is always achievable.
type Planner interface {
	Plan(ctx context.Context, assessment *SituationAssessment, request ApologyContext) (*PlanResult, error)
}

// Executor resolves planned candidates into final actions and assembles the
// response. Each resolution is independent; one adapter failure must not
// abort the others.
type Executor interface {
	Execute(ctx context.Context, plan *PlanResult, assessment *SituationAssessment, request ApologyContext) (*ApologyResponse, error)
}

// ToolAdapter wraps one external capability behind a uniform search/confirm
// contract. The core treats every adapter identically: a bounded call that
// returns either a usable result or a typed failure.
type ToolAdapter interface {
	// Name returns the adapter's registry name.
	Name() string

	// ActionType returns the kind of gesture this adapter resolves.
	ActionType() ActionType

	// Search returns priced options matching the query, best first.
	Search(ctx context.Context, query ToolQuery) ([]PricedOption, error)

	// Confirm books or finalizes a previously searched option.
	Confirm(ctx context.Context, option PricedOption, query ToolQuery) (*ExecutionDetails, error)

	// Schema describes the adapter for prompts and diagnostics. Standard keys:
	// "description", "parameters", "returns", "category".
	Schema() map[string]interface{}
}

// Recorder is the optional logging collaborator. Record is best-effort and
// must never block or fail the main response path.
type Recorder interface {
	Record(ctx context.Context, rec PlanRecord) error
}

// PlanRecord is what the recorder persists for one completed request.
type PlanRecord struct {
	Request   ApologyContext   `json:"request"`
	Response  *ApologyResponse `json:"response"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
}

// Cache provides storage for request-independent derived data, such as pinned
// assessments per severity/relationship pairing.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}) error
}
