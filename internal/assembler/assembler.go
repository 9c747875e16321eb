// Package assembler implements the execution stage: it confirms each planned
// gesture with its provider, downgrades what cannot be booked, and assembles
// the final apology response.
package assembler

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	peaceagent "github.com/TrevorConnolly/ApologyAgent"
)

const (
	defaultAdapterTimeout = 5 * time.Second
	defaultMaxConcurrent  = 4
)

// Assembler resolves candidate actions into booked gestures and renders the
// response. Safe for concurrent use.
type Assembler struct {
	adapters       map[peaceagent.ActionType]peaceagent.ToolAdapter
	adapterTimeout time.Duration
	maxConcurrent  int
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithAdapterTimeout bounds each provider confirm call.
func WithAdapterTimeout(timeout time.Duration) Option {
	return func(a *Assembler) {
		if timeout > 0 {
			a.adapterTimeout = timeout
		}
	}
}

// WithMaxConcurrentResolutions caps confirm fan-out.
func WithMaxConcurrentResolutions(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.maxConcurrent = n
		}
	}
}

// NewAssembler creates an assembler over the given gesture providers.
func NewAssembler(adapters map[peaceagent.ActionType]peaceagent.ToolAdapter, options ...Option) *Assembler {
	a := &Assembler{
		adapters:       adapters,
		adapterTimeout: defaultAdapterTimeout,
		maxConcurrent:  defaultMaxConcurrent,
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// resolution is the outcome of confirming one candidate.
type resolution struct {
	action   peaceagent.RecommendedAction
	resolved bool
	// downgraded marks an action kept as description-only after every
	// confirm attempt failed.
	downgraded bool
	required   bool
	// messageText carries the rendered apology for the message action.
	messageText string
}

// Execute implements the Executor contract. Every candidate resolves
// independently; one provider failure never aborts the others.
func (a *Assembler) Execute(ctx context.Context, plan *peaceagent.PlanResult, assessment *peaceagent.SituationAssessment, request peaceagent.ApologyContext) (*peaceagent.ApologyResponse, error) {
	if plan == nil || len(plan.Candidates) == 0 {
		return nil, peaceagent.NewAssemblyError("plan has no candidate actions", nil)
	}

	guard := newBudgetGuard(plan, request)
	resolutions := make([]resolution, len(plan.Candidates))
	workers := pool.New().WithMaxGoroutines(a.maxConcurrent)
	for i, candidate := range plan.Candidates {
		i, candidate := i, candidate
		workers.Go(func() {
			resolutions[i] = a.resolve(ctx, candidate, guard)
		})
	}
	workers.Wait()

	message := a.apologyMessage(resolutions, request)

	var (
		actions         []peaceagent.RecommendedAction
		resolvedCount   int
		downgradedCount int
		droppedRequired bool
	)
	for _, r := range resolutions {
		actions = append(actions, r.action)
		if r.resolved {
			resolvedCount++
		}
		if r.downgraded {
			downgradedCount++
			if r.required {
				droppedRequired = true
			}
		}
	}
	for _, d := range plan.Dropped {
		if d.Required {
			droppedRequired = true
		}
	}

	// Completion order must not disturb the plan's priority assignment.
	for i := range actions {
		actions[i].Priority = i + 1
	}

	resolvedFraction := float64(resolvedCount) / float64(len(actions))

	response := &peaceagent.ApologyResponse{
		ApologyMessage:      message,
		StrategyExplanation: a.explain(resolutions, plan, assessment, request),
		RecommendedActions:  actions,
		EstimatedTotalCost:  peaceagent.TotalCost(actions),
		SuccessProbability:  peaceagent.SuccessProbability(request.Severity, request.Relationship, resolvedFraction, droppedRequired),
		FollowUpSuggestions: a.followUps(resolutions, plan, request),
	}
	return response, nil
}

// budgetGuard tracks the plan's remaining budget headroom during resolution
// so alternate substitutions never push the final total over budget. Safe for
// concurrent use.
type budgetGuard struct {
	mu       sync.Mutex
	headroom float64
}

func newBudgetGuard(plan *peaceagent.PlanResult, request peaceagent.ApologyContext) *budgetGuard {
	if request.Budget == nil {
		return &budgetGuard{headroom: math.Inf(1)}
	}
	planned := 0.0
	for _, c := range plan.Candidates {
		if c.EstimatedCost != nil {
			planned += *c.EstimatedCost
		}
	}
	return &budgetGuard{headroom: *request.Budget - planned}
}

// reserve claims extra spend above a candidate's planned cost. A non-positive
// extra (the planned option itself, or a cheaper substitute) always succeeds
// and frees the difference.
func (b *budgetGuard) reserve(extra float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if extra > 0 && extra > b.headroom {
		return false
	}
	b.headroom -= extra
	return true
}

func (b *budgetGuard) release(extra float64) {
	b.mu.Lock()
	b.headroom += extra
	b.mu.Unlock()
}

// resolve confirms one candidate with its provider, falling back through the
// alternates before downgrading to a description-only entry. Alternates are
// only attempted while their price keeps the plan within budget.
func (a *Assembler) resolve(ctx context.Context, candidate peaceagent.CandidateAction, guard *budgetGuard) resolution {
	if candidate.Type == peaceagent.ActionMessage {
		return a.resolveMessage(ctx, candidate)
	}

	adapter, ok := a.adapters[candidate.Type]
	if !ok || candidate.Option == nil {
		return downgraded(candidate, "no provider available to complete this gesture")
	}

	planned := 0.0
	if candidate.EstimatedCost != nil {
		planned = *candidate.EstimatedCost
	}

	attempts := append([]peaceagent.PricedOption{*candidate.Option}, candidate.Alternates...)
	for _, option := range attempts {
		extra := option.Price - planned
		if !guard.reserve(extra) {
			log.Printf("Assembler: skipping %s option '%s', price %.2f exceeds the remaining budget", candidate.Type, option.Name, option.Price)
			continue
		}
		details, err := a.confirm(ctx, adapter, option, candidate.Query)
		if err != nil {
			guard.release(extra)
			log.Printf("Assembler: confirm failed for %s option '%s': %v", candidate.Type, option.Name, err)
			continue
		}
		cost := option.Price
		return resolution{
			action: peaceagent.RecommendedAction{
				Type:          candidate.Type,
				Description:   option.Description,
				EstimatedCost: &cost,
				Details:       *details,
				Priority:      candidate.Priority,
			},
			resolved: true,
			required: candidate.Required,
		}
	}
	return downgraded(candidate, "booking failed; manual completion required")
}

// resolveMessage finalizes the message action. The planner's rendered message
// is preferred; without one the built-in fallback text is used so the message
// action never fails.
func (a *Assembler) resolveMessage(ctx context.Context, candidate peaceagent.CandidateAction) resolution {
	details := peaceagent.ExecutionDetails{
		Note: "Deliver in person if possible for maximum sincerity.",
	}
	resolved := candidate.Option != nil

	if adapter, ok := a.adapters[peaceagent.ActionMessage]; ok && candidate.Option != nil {
		if d, err := a.confirm(ctx, adapter, *candidate.Option, candidate.Query); err == nil {
			details = *d
		}
	}

	description := candidate.Description
	if description == "" {
		description = "Personalized apology message"
	}
	var messageText string
	if candidate.Option != nil {
		messageText = candidate.Option.Description
	}
	return resolution{
		action: peaceagent.RecommendedAction{
			Type:        peaceagent.ActionMessage,
			Description: description,
			Details:     details,
			Priority:    candidate.Priority,
		},
		resolved:    resolved,
		required:    true,
		messageText: messageText,
	}
}

// confirm issues one bounded provider confirm call.
func (a *Assembler) confirm(ctx context.Context, adapter peaceagent.ToolAdapter, option peaceagent.PricedOption, query peaceagent.ToolQuery) (*peaceagent.ExecutionDetails, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.adapterTimeout)
	defer cancel()
	return adapter.Confirm(callCtx, option, query)
}

// downgraded keeps a failed action as a description-only entry rather than
// dropping it silently.
func downgraded(candidate peaceagent.CandidateAction, note string) resolution {
	return resolution{
		action: peaceagent.RecommendedAction{
			Type:        candidate.Type,
			Description: candidate.Description,
			Details:     peaceagent.ExecutionDetails{Note: note},
			Priority:    candidate.Priority,
		},
		downgraded: true,
		required:   candidate.Required,
	}
}

// apologyMessage extracts the rendered message from the message action, or
// falls back to the built-in text.
func (a *Assembler) apologyMessage(resolutions []resolution, request peaceagent.ApologyContext) string {
	for _, r := range resolutions {
		if r.action.Type == peaceagent.ActionMessage && r.messageText != "" {
			return r.messageText
		}
	}
	return fmt.Sprintf(
		"Dear %s,\n\nI know I hurt you, and I am truly sorry. What happened was my responsibility, "+
			"and I want to make it right. I understand if you need time, and I will be here when you are ready to talk.",
		request.RecipientName)
}
