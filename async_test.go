package peaceagent

import (
	"context"
	"testing"
	"time"
)

// blockingPlanner holds the pipeline in the planning stage until released,
// so async status and cancellation can be observed mid-run.
type blockingPlanner struct {
	release chan struct{}
}

func (b *blockingPlanner) Plan(ctx context.Context, assessment *SituationAssessment, request ApologyContext) (*PlanResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.release:
		return (&dummyPlanner{}).Plan(ctx, assessment, request)
	}
}

func waitForState(t *testing.T, agent *PeaceAgent, planID string, want PlanState) *AsyncPlanStatus {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		status, err := agent.GetAsyncStatus(planID)
		if err != nil {
			t.Fatalf("GetAsyncStatus failed: %v", err)
		}
		if status.CurrentState == want {
			return status
		}
		time.Sleep(5 * time.Millisecond)
	}
	status, _ := agent.GetAsyncStatus(planID)
	t.Fatalf("plan %s never reached %s (last state %s)", planID, want, status.CurrentState)
	return nil
}

func TestPlanAsync_CompletesAndReturnsResult(t *testing.T) {
	agent := testAgent(t)
	planID, err := agent.PlanAsync(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("PlanAsync failed: %v", err)
	}

	status := waitForState(t, agent, planID, StateDone)
	if !status.IsComplete {
		t.Error("completed plan must report IsComplete")
	}
	if status.HasError {
		t.Errorf("completed plan must not report an error: %s", status.ErrorMessage)
	}
	if status.Recipient != "Sam" {
		t.Errorf("unexpected recipient %q", status.Recipient)
	}

	response, err := agent.GetAsyncResult(planID)
	if err != nil {
		t.Fatalf("GetAsyncResult failed: %v", err)
	}
	if response == nil || response.ApologyMessage == "" {
		t.Error("expected a complete response")
	}
}

func TestPlanAsync_ResultUnavailableWhileRunning(t *testing.T) {
	planner := &blockingPlanner{release: make(chan struct{})}
	agent := testAgent(t, WithPlanner(planner))

	planID, err := agent.PlanAsync(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("PlanAsync failed: %v", err)
	}
	waitForState(t, agent, planID, StatePlanning)

	if _, err := agent.GetAsyncResult(planID); err == nil {
		t.Error("expected an in-progress error before the run finishes")
	}

	close(planner.release)
	waitForState(t, agent, planID, StateDone)
	if _, err := agent.GetAsyncResult(planID); err != nil {
		t.Errorf("GetAsyncResult after completion failed: %v", err)
	}
}

func TestPlanAsync_ValidationFailureSurfacesInStatus(t *testing.T) {
	agent := testAgent(t)
	request := testRequest()
	request.Severity = 0

	planID, err := agent.PlanAsync(context.Background(), request)
	if err != nil {
		t.Fatalf("PlanAsync failed: %v", err)
	}

	status := waitForState(t, agent, planID, StateFailed)
	if !status.HasError {
		t.Error("failed plan must report HasError")
	}
	if status.ErrorMessage == "" {
		t.Error("failed plan must carry the error message")
	}
	if _, err := agent.GetAsyncResult(planID); err == nil {
		t.Error("GetAsyncResult must fail for a failed plan")
	}
}

func TestCancelAsyncPlan(t *testing.T) {
	planner := &blockingPlanner{release: make(chan struct{})}
	agent := testAgent(t, WithPlanner(planner))

	planID, err := agent.PlanAsync(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("PlanAsync failed: %v", err)
	}
	waitForState(t, agent, planID, StatePlanning)

	cancelled, err := agent.CancelAsyncPlan(planID)
	if err != nil {
		t.Fatalf("CancelAsyncPlan failed: %v", err)
	}
	if !cancelled {
		t.Fatal("expected the in-flight run to be cancelled")
	}

	status, err := agent.GetAsyncStatus(planID)
	if err != nil {
		t.Fatalf("GetAsyncStatus failed: %v", err)
	}
	if status.CurrentState != StateCancelled {
		t.Errorf("expected cancelled state, got %s", status.CurrentState)
	}

	// Cancelling a finished run is a no-op.
	again, err := agent.CancelAsyncPlan(planID)
	if err != nil {
		t.Fatalf("second CancelAsyncPlan failed: %v", err)
	}
	if again {
		t.Error("a terminal run must not report cancelled again")
	}
}

func TestAsyncPlan_UnknownID(t *testing.T) {
	agent := testAgent(t)
	if _, err := agent.GetAsyncStatus("no-such-plan"); err == nil {
		t.Error("expected error for unknown plan ID in GetAsyncStatus")
	}
	if _, err := agent.GetAsyncResult("no-such-plan"); err == nil {
		t.Error("expected error for unknown plan ID in GetAsyncResult")
	}
	if _, err := agent.CancelAsyncPlan("no-such-plan"); err == nil {
		t.Error("expected error for unknown plan ID in CancelAsyncPlan")
	}
}

func TestListAndCleanupAsyncPlans(t *testing.T) {
	agent := testAgent(t)

	first, err := agent.PlanAsync(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("PlanAsync failed: %v", err)
	}
	second, err := agent.PlanAsync(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("PlanAsync failed: %v", err)
	}
	waitForState(t, agent, first, StateDone)
	waitForState(t, agent, second, StateDone)

	plans := agent.ListAsyncPlans()
	if len(plans) != 2 {
		t.Fatalf("expected 2 tracked plans, got %d", len(plans))
	}
	for id, state := range plans {
		if state != string(StateDone) {
			t.Errorf("plan %s in state %s, want done", id, state)
		}
	}

	if removed := agent.CleanupCompletedPlans(time.Hour); removed != 0 {
		t.Errorf("fresh plans must survive cleanup, removed %d", removed)
	}
	if removed := agent.CleanupCompletedPlans(0); removed != 2 {
		t.Errorf("expected both terminal plans removed, got %d", removed)
	}
	if remaining := agent.ListAsyncPlans(); len(remaining) != 0 {
		t.Errorf("expected empty registry after cleanup, got %d", len(remaining))
	}
}
