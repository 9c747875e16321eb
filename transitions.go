package peaceagent

import (
	"context"
	"log"
	"time"

	"github.com/TrevorConnolly/ApologyAgent/internal/eventbus"
)

// PipelineComponents bundles the stage implementations the state machine
// drives for one run.
type PipelineComponents struct {
	Analyzer Analyzer
	Planner  Planner
	Executor Executor
	Config   Config
}

// CreatePlanStateMachine builds the complete state machine for the apology
// planning workflow.
func CreatePlanStateMachine(components PipelineComponents, eventBus eventbus.EventBus) *StateMachine {
	sm := NewStateMachine(eventBus)

	sm.RegisterTransition(StateValidating, createValidatingTransition(components))
	sm.RegisterTransition(StateAnalyzing, createAnalyzingTransition(components))
	sm.RegisterTransition(StatePlanning, createPlanningTransition(components))
	sm.RegisterTransition(StateExecuting, createExecutingTransition(components))

	return sm
}

// createValidatingTransition checks the request. This is the only transition
// that can fail the run.
func createValidatingTransition(components PipelineComponents) StateTransition {
	return func(ctx context.Context, eb eventbus.EventBus, pCtx *PlanContext) (PlanState, error) {
		if eb != nil {
			eb.Publish(ctx, eventbus.NewEvent(
				eventbus.EventRequestReceived,
				pCtx.Request,
				"StateMachine.Validating",
				map[string]interface{}{
					"timestamp": time.Now().Format(time.RFC3339),
				},
			))
		}

		if err := pCtx.Request.Validate(); err != nil {
			if eb != nil {
				eb.Publish(ctx, eventbus.NewEvent(
					eventbus.EventRequestValidationFailed,
					err.Error(),
					"StateMachine.Validating",
					map[string]interface{}{
						"error": err.Error(),
					},
				))
			}
			return StateFailed, err
		}

		return StateAnalyzing, nil
	}
}

// createAnalyzingTransition runs the situation analysis. Any failure or
// timeout falls back to the rule-based assessment, never to Failed.
func createAnalyzingTransition(components PipelineComponents) StateTransition {
	return func(ctx context.Context, eb eventbus.EventBus, pCtx *PlanContext) (PlanState, error) {
		if eb != nil {
			eb.Publish(ctx, eventbus.NewEvent(
				eventbus.EventAnalysisStarted,
				pCtx.Request,
				"StateMachine.Analyzing",
				nil,
			))
		}

		var (
			assessment *SituationAssessment
			err        error
		)
		if components.Analyzer != nil {
			stageCtx, cancel := context.WithTimeout(ctx, components.Config.AnalyzeTimeout)
			assessment, err = components.Analyzer.Analyze(stageCtx, pCtx.Request)
			cancel()
		}

		if assessment == nil || err != nil {
			if err != nil {
				log.Printf("Analysis failed, using rule-based assessment: %v", err)
			}
			assessment = RuleBasedAssessment(pCtx.Request)
			pCtx.StateData["analysis_fallback"] = true
			if eb != nil {
				detail := "analyzer not configured"
				if err != nil {
					detail = err.Error()
				}
				eb.Publish(ctx, eventbus.NewEvent(
					eventbus.EventAnalysisFallback,
					assessment,
					"StateMachine.Analyzing",
					map[string]interface{}{
						"error": detail,
					},
				))
			}
		} else if eb != nil {
			eb.Publish(ctx, eventbus.NewEvent(
				eventbus.EventAnalysisSuccess,
				assessment,
				"StateMachine.Analyzing",
				map[string]interface{}{
					"emotional_impact": string(assessment.EmotionalImpact),
					"urgent":           assessment.Urgent,
				},
			))
		}

		pCtx.Assessment = assessment
		return StatePlanning, nil
	}
}

// createPlanningTransition runs the strategy planner. Any failure or timeout
// falls back to the message-only plan.
func createPlanningTransition(components PipelineComponents) StateTransition {
	return func(ctx context.Context, eb eventbus.EventBus, pCtx *PlanContext) (PlanState, error) {
		if eb != nil {
			eb.Publish(ctx, eventbus.NewEvent(
				eventbus.EventPlanningStarted,
				pCtx.Assessment,
				"StateMachine.Planning",
				nil,
			))
		}

		var (
			plan *PlanResult
			err  error
		)
		if components.Planner != nil {
			stageCtx, cancel := context.WithTimeout(ctx, components.Config.PlanTimeout)
			plan, err = components.Planner.Plan(stageCtx, pCtx.Assessment, pCtx.Request)
			cancel()
		}

		if plan == nil || len(plan.Candidates) == 0 || err != nil {
			reason := "planner not configured"
			if err != nil {
				reason = err.Error()
			} else if plan != nil {
				reason = "planner produced no candidate actions"
			}
			plan = MessageOnlyPlan(pCtx.Assessment, pCtx.Request, reason)
			if eb != nil {
				eb.Publish(ctx, eventbus.NewEvent(
					eventbus.EventPlanningDegraded,
					plan,
					"StateMachine.Planning",
					map[string]interface{}{
						"reason": reason,
					},
				))
			}
		} else if eb != nil {
			eventType := eventbus.EventPlanningSuccess
			if plan.Degraded {
				eventType = eventbus.EventPlanningDegraded
			}
			eb.Publish(ctx, eventbus.NewEvent(
				eventType,
				plan,
				"StateMachine.Planning",
				map[string]interface{}{
					"action_count":  len(plan.Candidates),
					"dropped_count": len(plan.Dropped),
				},
			))
		}

		pCtx.Plan = plan
		return StateExecuting, nil
	}
}

// createExecutingTransition resolves the plan and assembles the response.
// Any failure or timeout falls back to the degraded message-only response.
func createExecutingTransition(components PipelineComponents) StateTransition {
	return func(ctx context.Context, eb eventbus.EventBus, pCtx *PlanContext) (PlanState, error) {
		if eb != nil {
			eb.Publish(ctx, eventbus.NewEvent(
				eventbus.EventResolutionStarted,
				pCtx.Plan,
				"StateMachine.Executing",
				nil,
			))
		}

		var (
			response *ApologyResponse
			err      error
		)
		if components.Executor != nil {
			stageCtx, cancel := context.WithTimeout(ctx, components.Config.ExecuteTimeout)
			response, err = components.Executor.Execute(stageCtx, pCtx.Plan, pCtx.Assessment, pCtx.Request)
			cancel()
		}

		if response == nil || err != nil {
			detail := "executor not configured"
			if err != nil {
				detail = err.Error()
				log.Printf("Execution failed, using degraded response: %v", err)
			}
			response = DegradedResponse(pCtx.Assessment, pCtx.Request, detail)
			if eb != nil {
				eb.Publish(ctx, eventbus.NewEvent(
					eventbus.EventResolutionDegraded,
					response,
					"StateMachine.Executing",
					map[string]interface{}{
						"error": detail,
					},
				))
			}
		} else if eb != nil {
			eb.Publish(ctx, eventbus.NewEvent(
				eventbus.EventResolutionSuccess,
				response,
				"StateMachine.Executing",
				map[string]interface{}{
					"action_count":        len(response.RecommendedActions),
					"success_probability": response.SuccessProbability,
				},
			))
		}

		pCtx.Response = response
		pCtx.Complete()

		if eb != nil {
			eb.Publish(ctx, eventbus.NewEvent(
				eventbus.EventRequestCompleted,
				response,
				"StateMachine.Executing",
				map[string]interface{}{
					"duration_ms": pCtx.TotalDuration().Milliseconds(),
				},
			))
		}
		return StateDone, nil
	}
}
