// Package planner implements the strategy planning stage: it turns a
// situation assessment into a budget-bounded, priority-ordered list of
// candidate gestures by fanning out to the gesture providers and greedily
// selecting the highest repair-value options.
package planner

import (
	"context"
	"errors"
	"log"
	"math"
	"sort"
	"time"

	"github.com/sourcegraph/conc/pool"

	peaceagent "github.com/TrevorConnolly/ApologyAgent"
)

const (
	defaultAdapterTimeout = 5 * time.Second
	defaultMaxConcurrent  = 4
	defaultMaxActions     = 5
	maxAlternates         = 3

	// scoreEpsilon bounds the tie window: scores closer than this prefer
	// the cheaper option.
	scoreEpsilon = 1e-9
)

// StrategyPlanner selects gestures for an apology plan. Safe for concurrent
// use; all state is set at construction.
type StrategyPlanner struct {
	adapters       map[peaceagent.ActionType]peaceagent.ToolAdapter
	scorer         *scorer
	scorerErr      error
	adapterTimeout time.Duration
	maxConcurrent  int
	maxActions     int
}

// Option configures a StrategyPlanner.
type Option func(*StrategyPlanner)

// WithScoreExpression replaces the default repair-value expression. The
// expression may reference weight, severity, urgent, price and maxPrice.
func WithScoreExpression(expression string) Option {
	return func(p *StrategyPlanner) {
		// Parse errors surface from NewStrategyPlanner.
		p.scorer, p.scorerErr = newScorer(expression)
	}
}

// WithAdapterTimeout bounds each provider search call.
func WithAdapterTimeout(timeout time.Duration) Option {
	return func(p *StrategyPlanner) {
		if timeout > 0 {
			p.adapterTimeout = timeout
		}
	}
}

// WithMaxConcurrentSearches caps provider fan-out.
func WithMaxConcurrentSearches(n int) Option {
	return func(p *StrategyPlanner) {
		if n > 0 {
			p.maxConcurrent = n
		}
	}
}

// WithMaxActions caps how many actions one plan may carry.
func WithMaxActions(n int) Option {
	return func(p *StrategyPlanner) {
		if n > 0 {
			p.maxActions = n
		}
	}
}

// NewStrategyPlanner creates a planner over the given gesture providers.
func NewStrategyPlanner(adapters map[peaceagent.ActionType]peaceagent.ToolAdapter, options ...Option) (*StrategyPlanner, error) {
	defaultScorer, err := newScorer(DefaultScoreExpression)
	if err != nil {
		return nil, peaceagent.NewConfigurationError("default score expression is invalid", err)
	}
	p := &StrategyPlanner{
		adapters:       adapters,
		scorer:         defaultScorer,
		adapterTimeout: defaultAdapterTimeout,
		maxConcurrent:  defaultMaxConcurrent,
		maxActions:     defaultMaxActions,
	}
	for _, opt := range options {
		opt(p)
	}
	if p.scorerErr != nil {
		return nil, peaceagent.NewConfigurationError("score expression is invalid", p.scorerErr)
	}
	return p, nil
}

// romanticCoded marks gesture types excluded for professional and distant
// relationships.
var romanticCoded = map[peaceagent.ActionType]bool{
	peaceagent.ActionFlowers:    true,
	peaceagent.ActionRestaurant: true,
}

// shortlist determines which gesture types to consider, message always
// first. Assessment constraints add types; colleague and acquaintance
// relationships never get romantic-coded gestures regardless of constraints.
func shortlist(assessment *peaceagent.SituationAssessment, request peaceagent.ApologyContext) []peaceagent.ActionType {
	include := map[peaceagent.ActionType]bool{peaceagent.ActionMessage: true}

	switch request.Relationship {
	case peaceagent.RelationshipRomantic:
		include[peaceagent.ActionFlowers] = true
		include[peaceagent.ActionGift] = true
		if request.Severity >= 5 {
			include[peaceagent.ActionRestaurant] = true
		}
	case peaceagent.RelationshipFamily:
		include[peaceagent.ActionGift] = true
		include[peaceagent.ActionFlowers] = true
		if request.Severity >= 7 {
			include[peaceagent.ActionRestaurant] = true
		}
	case peaceagent.RelationshipFriend:
		include[peaceagent.ActionGift] = true
		if request.Severity >= 6 {
			include[peaceagent.ActionFlowers] = true
		}
	default: // colleague, acquaintance
		include[peaceagent.ActionGift] = true
	}

	for _, c := range assessment.Constraints {
		include[c.Type] = true
	}

	professional := request.Relationship == peaceagent.RelationshipColleague ||
		request.Relationship == peaceagent.RelationshipAcquaintance

	var types []peaceagent.ActionType
	for t := range include {
		if professional && romanticCoded[t] {
			continue
		}
		types = append(types, t)
	}

	// Message first, then descending weight for the greedy pass.
	sort.Slice(types, func(i, j int) bool {
		if types[i] == peaceagent.ActionMessage {
			return true
		}
		if types[j] == peaceagent.ActionMessage {
			return false
		}
		return typeWeights[types[i]] > typeWeights[types[j]]
	})
	return types
}

// searchResult is one provider's answer for one gesture type.
type searchResult struct {
	actionType peaceagent.ActionType
	options    []peaceagent.PricedOption
	err        error
}

// Plan implements the Planner contract. Provider failures never abort the
// plan; the affected type is skipped and recorded.
func (p *StrategyPlanner) Plan(ctx context.Context, assessment *peaceagent.SituationAssessment, request peaceagent.ApologyContext) (*peaceagent.PlanResult, error) {
	types := shortlist(assessment, request)
	required := map[peaceagent.ActionType]string{}
	for _, c := range assessment.Constraints {
		if c.Required {
			required[c.Type] = c.Reason
		}
	}

	maxPrice := 0.0
	if request.Budget != nil {
		maxPrice = *request.Budget
	}
	baseQuery := peaceagent.ToolQuery{
		Relationship: request.Relationship,
		Severity:     request.Severity,
		MaxPrice:     maxPrice,
		Location:     request.Location,
		Recipient:    request.RecipientName,
		Situation:    request.Situation,
		Tone:         assessment.Tone,
		Preferences:  request.Preferences,
	}

	// Fan out one search per shortlisted type. Each goroutine writes its
	// own slot, so no locking is needed.
	results := make([]searchResult, len(types))
	workers := pool.New().WithMaxGoroutines(p.maxConcurrent)
	for i, actionType := range types {
		i, actionType := i, actionType
		workers.Go(func() {
			results[i] = p.search(ctx, actionType, baseQuery)
		})
	}
	workers.Wait()

	plan := &peaceagent.PlanResult{}
	budget := math.Inf(1)
	if request.Budget != nil {
		budget = *request.Budget
	}
	spent := 0.0

	for i, actionType := range types {
		if len(plan.Candidates) >= p.maxActions {
			break
		}
		result := results[i]
		_, isRequired := required[actionType]

		if actionType == peaceagent.ActionMessage {
			plan.Candidates = append(plan.Candidates, p.messageCandidate(result, baseQuery))
			continue
		}

		if result.err != nil {
			reason := peaceagent.DropUnavailable
			if errors.Is(result.err, context.DeadlineExceeded) {
				reason = peaceagent.DropTimeout
			}
			plan.Dropped = append(plan.Dropped, peaceagent.DroppedConstraint{
				Type:     actionType,
				Reason:   reason,
				Required: isRequired,
				Detail:   result.err.Error(),
			})
			plan.Degraded = true
			log.Printf("Planner: skipping %s, provider failed: %v", actionType, result.err)
			continue
		}
		if len(result.options) == 0 {
			plan.Dropped = append(plan.Dropped, peaceagent.DroppedConstraint{
				Type:     actionType,
				Reason:   peaceagent.DropBudget,
				Required: isRequired,
				Detail:   "no options available within budget",
			})
			continue
		}

		remaining := budget - spent
		chosen, alternates, ok := p.pick(result.options, actionType, request.Severity, assessment.Urgent, isRequired, maxPrice, remaining)
		if !ok {
			plan.Dropped = append(plan.Dropped, peaceagent.DroppedConstraint{
				Type:     actionType,
				Reason:   peaceagent.DropBudget,
				Required: isRequired,
				Detail:   "cheapest option exceeds remaining budget",
			})
			continue
		}

		spent += chosen.Price
		cost := chosen.Price
		option := chosen
		plan.Candidates = append(plan.Candidates, peaceagent.CandidateAction{
			Type:          actionType,
			Description:   chosen.Description,
			EstimatedCost: &cost,
			Required:      isRequired,
			Query:         baseQuery,
			Option:        &option,
			Alternates:    alternates,
		})
	}

	for i := range plan.Candidates {
		plan.Candidates[i].Priority = i + 1
	}
	return plan, nil
}

// search issues one bounded provider call.
func (p *StrategyPlanner) search(ctx context.Context, actionType peaceagent.ActionType, query peaceagent.ToolQuery) searchResult {
	adapter, ok := p.adapters[actionType]
	if !ok {
		return searchResult{
			actionType: actionType,
			err:        peaceagent.NewToolUnavailableError("planning", string(actionType), nil),
		}
	}
	callCtx, cancel := context.WithTimeout(ctx, p.adapterTimeout)
	defer cancel()
	options, err := adapter.Search(callCtx, query)
	return searchResult{actionType: actionType, options: options, err: err}
}

// messageCandidate builds the always-present message action. The message is
// free; a failed provider leaves the option empty for the assembler's
// internal fallback to fill.
func (p *StrategyPlanner) messageCandidate(result searchResult, query peaceagent.ToolQuery) peaceagent.CandidateAction {
	candidate := peaceagent.CandidateAction{
		Type:        peaceagent.ActionMessage,
		Description: "Personalized apology message",
		Required:    true,
		Query:       query,
	}
	if result.err == nil && len(result.options) > 0 {
		option := result.options[0]
		candidate.Description = option.Name
		candidate.Option = &option
	} else if result.err != nil {
		log.Printf("Planner: message provider failed, assembler will fall back: %v", result.err)
	}
	return candidate
}

// pick scores all options of one type and returns the best affordable one
// plus up to three affordable alternates. ok is false when nothing fits.
func (p *StrategyPlanner) pick(options []peaceagent.PricedOption, actionType peaceagent.ActionType, severity int, urgent, isRequired bool, maxPrice, remaining float64) (peaceagent.PricedOption, []peaceagent.PricedOption, bool) {
	weight := typeWeights[actionType]
	if isRequired {
		weight += requiredBoost
	}

	type scoredOption struct {
		option peaceagent.PricedOption
		score  float64
	}
	var affordable []scoredOption
	for _, opt := range options {
		if opt.Price > remaining {
			continue
		}
		value, err := p.scorer.score(weight, severity, urgent, opt.Price, maxPrice)
		if err != nil {
			log.Printf("Planner: score evaluation failed for %s option '%s': %v", actionType, opt.Name, err)
			continue
		}
		affordable = append(affordable, scoredOption{option: opt, score: value})
	}
	if len(affordable) == 0 {
		return peaceagent.PricedOption{}, nil, false
	}

	sort.SliceStable(affordable, func(i, j int) bool {
		if math.Abs(affordable[i].score-affordable[j].score) < scoreEpsilon {
			return affordable[i].option.Price < affordable[j].option.Price
		}
		return affordable[i].score > affordable[j].score
	})

	var alternates []peaceagent.PricedOption
	for _, s := range affordable[1:] {
		alternates = append(alternates, s.option)
		if len(alternates) == maxAlternates {
			break
		}
	}
	return affordable[0].option, alternates, true
}
