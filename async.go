package peaceagent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/TrevorConnolly/ApologyAgent/internal/eventbus"
)

// AsyncPlanStatus represents the status information for an async plan run.
type AsyncPlanStatus struct {
	PlanID       string        `json:"plan_id"`
	Recipient    string        `json:"recipient"`
	CurrentState PlanState     `json:"current_state"`
	StartTime    time.Time     `json:"start_time"`
	Duration     time.Duration `json:"duration"`
	IsComplete   bool          `json:"is_complete"`
	HasError     bool          `json:"has_error"`
	ErrorMessage string        `json:"error_message,omitempty"`
	ErrorStage   string        `json:"error_stage,omitempty"`
}

// PlanAsync starts an asynchronous plan run. It returns a unique plan ID
// that can be used to check the status or fetch the result.
func (p *PeaceAgent) PlanAsync(ctx context.Context, request ApologyContext) (string, error) {
	planID := uuid.New().String()

	stateMachine := p.createStateMachine()
	planContext := NewPlanContext(request)

	p.asyncPlansMutex.Lock()
	p.asyncPlans[planID] = planContext
	p.asyncPlansMutex.Unlock()

	// The run must outlive the caller's context.
	asyncCtx, cancel := context.WithCancel(context.Background())
	planContext.StateData["cancel"] = cancel

	if p.config.EnableEventBus && p.eventBus != nil {
		p.eventBus.Publish(ctx, eventbus.NewEvent(
			eventbus.EventAsyncPlanStarted,
			request,
			"PeaceAgent.PlanAsync",
			map[string]interface{}{
				"timestamp": time.Now().Format(time.RFC3339),
				"plan_id":   planID,
			},
		))
	}

	go func() {
		defer cancel()

		response, err := stateMachine.Execute(asyncCtx, planContext)
		if err == nil {
			p.record(request, response)
		}

		if p.config.EnableEventBus && p.eventBus != nil {
			eventType := eventbus.EventAsyncPlanSuccess
			metadata := map[string]interface{}{
				"plan_id":     planID,
				"duration_ms": planContext.TotalDuration().Milliseconds(),
			}
			if err != nil {
				eventType = eventbus.EventAsyncPlanFailure
				metadata["error"] = err.Error()
			}
			p.eventBus.Publish(context.Background(), eventbus.NewEvent(
				eventType,
				request,
				"PeaceAgent.PlanAsync",
				metadata,
			))
		}
	}()

	return planID, nil
}

// GetAsyncStatus retrieves the current status of an async plan run.
func (p *PeaceAgent) GetAsyncStatus(planID string) (*AsyncPlanStatus, error) {
	p.asyncPlansMutex.RLock()
	defer p.asyncPlansMutex.RUnlock()

	pCtx, exists := p.asyncPlans[planID]
	if !exists {
		return nil, fmt.Errorf("plan with ID '%s' not found", planID)
	}

	status := &AsyncPlanStatus{
		PlanID:       planID,
		Recipient:    pCtx.Request.RecipientName,
		CurrentState: pCtx.CurrentState,
		StartTime:    pCtx.StartTime,
		Duration:     pCtx.TotalDuration(),
		IsComplete:   pCtx.CurrentState == StateDone,
		HasError:     pCtx.CurrentState == StateFailed || pCtx.CurrentState == StateCancelled,
	}

	if pCtx.LastError != nil {
		status.ErrorMessage = pCtx.LastError.Error()
		status.ErrorStage = pCtx.ErrorStage
	}

	return status, nil
}

// GetAsyncResult retrieves the result of a completed async plan run. It
// returns an error while the run is still in progress or if it failed.
func (p *PeaceAgent) GetAsyncResult(planID string) (*ApologyResponse, error) {
	p.asyncPlansMutex.RLock()
	defer p.asyncPlansMutex.RUnlock()

	pCtx, exists := p.asyncPlans[planID]
	if !exists {
		return nil, fmt.Errorf("plan with ID '%s' not found", planID)
	}

	if pCtx.CurrentState != StateDone {
		if pCtx.CurrentState == StateFailed || pCtx.CurrentState == StateCancelled {
			return nil, fmt.Errorf("plan failed during stage '%s': %w", pCtx.ErrorStage, pCtx.LastError)
		}
		return nil, fmt.Errorf("plan is still in progress (current state: %s)", pCtx.CurrentState)
	}

	return pCtx.Response, nil
}

// CancelAsyncPlan cancels an ongoing async plan run. It reports true when
// the run was cancelled, false when it had already finished.
func (p *PeaceAgent) CancelAsyncPlan(planID string) (bool, error) {
	p.asyncPlansMutex.Lock()
	defer p.asyncPlansMutex.Unlock()

	pCtx, exists := p.asyncPlans[planID]
	if !exists {
		return false, fmt.Errorf("plan with ID '%s' not found", planID)
	}

	if pCtx.IsTerminal() {
		return false, nil
	}

	cancelFn, ok := pCtx.StateData["cancel"].(context.CancelFunc)
	if !ok {
		return false, fmt.Errorf("cannot cancel plan: cancel function not found")
	}
	cancelFn()
	pCtx.SetCancelled(fmt.Errorf("plan cancelled by caller"), string(pCtx.CurrentState))

	if p.config.EnableEventBus && p.eventBus != nil {
		p.eventBus.Publish(context.Background(), eventbus.NewEvent(
			eventbus.EventAsyncPlanCancelled,
			pCtx.Request,
			"PeaceAgent.CancelAsyncPlan",
			map[string]interface{}{
				"plan_id":     planID,
				"duration_ms": pCtx.TotalDuration().Milliseconds(),
			},
		))
	}

	return true, nil
}

// ListAsyncPlans returns the IDs and current states of all async plan runs.
func (p *PeaceAgent) ListAsyncPlans() map[string]string {
	p.asyncPlansMutex.RLock()
	defer p.asyncPlansMutex.RUnlock()

	result := make(map[string]string, len(p.asyncPlans))
	for id, pCtx := range p.asyncPlans {
		result[id] = string(pCtx.CurrentState)
	}
	return result
}

// CleanupCompletedPlans removes finished runs older than the given duration
// so the registry does not grow without bound.
func (p *PeaceAgent) CleanupCompletedPlans(olderThan time.Duration) int {
	p.asyncPlansMutex.Lock()
	defer p.asyncPlansMutex.Unlock()

	now := time.Now()
	count := 0
	for id, pCtx := range p.asyncPlans {
		if pCtx.IsTerminal() && now.Sub(pCtx.StateStartTimes[pCtx.CurrentState]) > olderThan {
			delete(p.asyncPlans, id)
			count++
		}
	}
	return count
}
