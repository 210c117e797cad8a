package models

import "testing"

func TestStatusTransitionsAreForwardOnly(t *testing.T) {
	ordered := []WorkflowStatus{
		WorkflowInitialized,
		WorkflowAnalyzing,
		WorkflowWaitingResponses,
		WorkflowAnalyzingQuotes,
		WorkflowWaitingUserSelection,
		WorkflowUserResponseAnalyzed,
		WorkflowAwaitingReply,
		WorkflowConfirming,
		WorkflowCompleted,
	}

	for i, from := range ordered {
		for j, to := range ordered {
			got := from.CanTransitionTo(to)
			want := j > i && from != WorkflowCompleted
			if got != want {
				t.Errorf("%s -> %s = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestFailedIsAbsorbing(t *testing.T) {
	for _, s := range []WorkflowStatus{
		WorkflowInitialized, WorkflowAnalyzing, WorkflowWaitingResponses,
		WorkflowAnalyzingQuotes, WorkflowWaitingUserSelection,
		WorkflowUserResponseAnalyzed, WorkflowAwaitingReply, WorkflowConfirming,
	} {
		if !s.CanTransitionTo(WorkflowFailed) {
			t.Errorf("%s cannot transition to failed", s)
		}
	}
	for _, to := range []WorkflowStatus{
		WorkflowInitialized, WorkflowConfirming, WorkflowCompleted, WorkflowFailed,
	} {
		if WorkflowFailed.CanTransitionTo(to) {
			t.Errorf("failed transitioned to %s", to)
		}
		if WorkflowCompleted.CanTransitionTo(to) {
			t.Errorf("completed transitioned to %s", to)
		}
	}
}

func TestAtLeastFollowsForwardOrder(t *testing.T) {
	ordered := []WorkflowStatus{
		WorkflowInitialized,
		WorkflowAnalyzing,
		WorkflowWaitingResponses,
		WorkflowAnalyzingQuotes,
		WorkflowWaitingUserSelection,
		WorkflowUserResponseAnalyzed,
		WorkflowAwaitingReply,
		WorkflowConfirming,
		WorkflowCompleted,
	}

	for i, s := range ordered {
		for j, other := range ordered {
			if got, want := s.AtLeast(other), i >= j; got != want {
				t.Errorf("%s.AtLeast(%s) = %v, want %v", s, other, got, want)
			}
		}
		if !WorkflowFailed.AtLeast(s) {
			t.Errorf("failed.AtLeast(%s) = false, want true", s)
		}
	}
}

func TestTerminal(t *testing.T) {
	if !WorkflowCompleted.Terminal() || !WorkflowFailed.Terminal() {
		t.Error("completed and failed must be terminal")
	}
	if WorkflowWaitingUserSelection.Terminal() {
		t.Error("waiting_user_selection must not be terminal")
	}
}
