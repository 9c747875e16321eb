package peaceagent

import (
	"context"
	"fmt"
	"time"

	"github.com/TrevorConnolly/ApologyAgent/internal/eventbus"
)

// PlanState represents the current phase of one pipeline run.
type PlanState string

const (
	// StateValidating checks the request. The only state that can reject it.
	StateValidating PlanState = "validating"
	// StateAnalyzing runs the situation analysis.
	StateAnalyzing PlanState = "analyzing"
	// StatePlanning runs the strategy planner.
	StatePlanning PlanState = "planning"
	// StateExecuting resolves actions and assembles the response.
	StateExecuting PlanState = "executing"
	// StateDone is the successful terminal state.
	StateDone PlanState = "done"
	// StateFailed is the terminal rejection state, reachable only from validating.
	StateFailed PlanState = "failed"
	// StateCancelled is entered when the caller's context ends mid-run.
	StateCancelled PlanState = "cancelled"
	// StateUnknown is reported when an async run cannot be located.
	StateUnknown PlanState = "unknown"
)

// PlanContext carries the data for one pipeline run between states. It acts
// as the tape of the state machine and lives exactly one request.
type PlanContext struct {
	// Input
	Request ApologyContext

	// Intermediate results
	Assessment *SituationAssessment
	Plan       *PlanResult
	Response   *ApologyResponse

	// Error handling
	LastError  error
	ErrorStage string

	// State management
	CurrentState PlanState
	StateData    map[string]interface{}

	// Timestamp tracking
	StartTime       time.Time
	EndTime         time.Time
	StateStartTimes map[PlanState]time.Time
}

// NewPlanContext creates a plan context for the given request.
func NewPlanContext(request ApologyContext) *PlanContext {
	return &PlanContext{
		Request:         request,
		CurrentState:    StateValidating,
		StateData:       make(map[string]interface{}),
		StartTime:       time.Now(),
		StateStartTimes: map[PlanState]time.Time{StateValidating: time.Now()},
	}
}

// IsTerminal reports whether the run has finished, one way or another.
func (pc *PlanContext) IsTerminal() bool {
	return pc.CurrentState == StateDone || pc.CurrentState == StateFailed || pc.CurrentState == StateCancelled
}

// SetError records err and moves the run to the failed state.
func (pc *PlanContext) SetError(err error, stage string) {
	pc.LastError = err
	pc.ErrorStage = stage
	pc.CurrentState = StateFailed
	pc.StateStartTimes[StateFailed] = time.Now()
}

// SetCancelled records a cancellation detected at the given stage.
func (pc *PlanContext) SetCancelled(err error, stage string) {
	pc.LastError = err
	pc.ErrorStage = stage
	pc.CurrentState = StateCancelled
	pc.StateStartTimes[StateCancelled] = time.Now()
}

// Complete marks the run as done and stamps the end time.
func (pc *PlanContext) Complete() {
	pc.CurrentState = StateDone
	pc.EndTime = time.Now()
	pc.StateStartTimes[StateDone] = pc.EndTime
}

// TotalDuration returns how long the run has taken so far.
func (pc *PlanContext) TotalDuration() time.Duration {
	if pc.CurrentState == StateDone {
		return pc.EndTime.Sub(pc.StartTime)
	}
	return time.Since(pc.StartTime)
}

// StateTransition advances the run by one state and returns the next one.
type StateTransition func(ctx context.Context, eventBus eventbus.EventBus, pCtx *PlanContext) (PlanState, error)

// StateMachine sequences the pipeline states for one run.
type StateMachine struct {
	transitions map[PlanState]StateTransition
	eventBus    eventbus.EventBus
}

// NewStateMachine creates an empty state machine.
func NewStateMachine(eventBus eventbus.EventBus) *StateMachine {
	return &StateMachine{
		transitions: make(map[PlanState]StateTransition),
		eventBus:    eventBus,
	}
}

// RegisterTransition registers the transition function for a state.
func (sm *StateMachine) RegisterTransition(state PlanState, transition StateTransition) {
	sm.transitions[state] = transition
}

// Execute runs the state machine until a terminal state is reached. Only a
// validation failure surfaces as an error together with a nil response;
// every later stage degrades in place and still yields a usable response.
func (sm *StateMachine) Execute(ctx context.Context, pCtx *PlanContext) (*ApologyResponse, error) {
	for !pCtx.IsTerminal() {
		select {
		case <-ctx.Done():
			err := ctx.Err()
			pCtx.SetCancelled(err, string(pCtx.CurrentState))
			return nil, NewCancelledError(string(pCtx.CurrentState), err)
		default:
		}

		transition, exists := sm.transitions[pCtx.CurrentState]
		if !exists {
			err := NewInternalError(string(pCtx.CurrentState),
				fmt.Sprintf("no transition defined for state %s", pCtx.CurrentState), nil)
			pCtx.SetError(err, string(pCtx.CurrentState))
			return nil, err
		}

		nextState, err := transition(ctx, sm.eventBus, pCtx)
		if err != nil {
			stage := string(pCtx.CurrentState)
			if err == context.Canceled || err == context.DeadlineExceeded {
				pCtx.SetCancelled(err, stage)
			} else if !pCtx.IsTerminal() {
				pCtx.SetError(err, stage)
			}
			continue
		}

		if !pCtx.IsTerminal() {
			pCtx.CurrentState = nextState
			pCtx.StateStartTimes[nextState] = time.Now()
		}
	}

	if pCtx.CurrentState == StateDone {
		return pCtx.Response, nil
	}
	return nil, pCtx.LastError
}
