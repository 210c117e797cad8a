package models

import "time"

// WorkflowStatus is the lifecycle state of a fulfillment workflow run.
type WorkflowStatus string

const (
	WorkflowInitialized          WorkflowStatus = "initialized"
	WorkflowAnalyzing            WorkflowStatus = "analyzing"
	WorkflowWaitingResponses     WorkflowStatus = "waiting_responses"
	WorkflowAnalyzingQuotes      WorkflowStatus = "analyzing_quotes"
	WorkflowWaitingUserSelection WorkflowStatus = "waiting_user_selection"
	WorkflowUserResponseAnalyzed WorkflowStatus = "user_response_analyzed"
	WorkflowAwaitingReply        WorkflowStatus = "awaiting_customer_reply"
	WorkflowConfirming           WorkflowStatus = "confirming"
	WorkflowCompleted            WorkflowStatus = "completed"
	WorkflowFailed               WorkflowStatus = "failed"
)

// statusRank orders the forward path of the state machine.
var statusRank = map[WorkflowStatus]int{
	WorkflowInitialized:          0,
	WorkflowAnalyzing:            1,
	WorkflowWaitingResponses:     2,
	WorkflowAnalyzingQuotes:      3,
	WorkflowWaitingUserSelection: 4,
	WorkflowUserResponseAnalyzed: 5,
	WorkflowAwaitingReply:        6,
	WorkflowConfirming:           7,
	WorkflowCompleted:            8,
}

// Terminal reports whether no further transitions are allowed from s.
func (s WorkflowStatus) Terminal() bool {
	return s == WorkflowCompleted || s == WorkflowFailed
}

// AtLeast reports whether s is the same state as other or further along the
// forward path. Failed is absorbing and compares as beyond every state.
func (s WorkflowStatus) AtLeast(other WorkflowStatus) bool {
	if s == other || s == WorkflowFailed {
		return true
	}
	cur, ok1 := statusRank[s]
	oth, ok2 := statusRank[other]
	return ok1 && ok2 && cur >= oth
}

// CanTransitionTo enforces monotonic, forward-only transitions.
// Failed is absorbing and reachable from any non-terminal state.
func (s WorkflowStatus) CanTransitionTo(next WorkflowStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == WorkflowFailed {
		return true
	}
	cur, ok1 := statusRank[s]
	nxt, ok2 := statusRank[next]
	return ok1 && ok2 && nxt > cur
}

// WorkflowRun is the mutable state of one fulfillment run for a booking request.
// It is mutated exclusively through the step tracker and becomes immutable
// once Status is terminal.
type WorkflowRun struct {
	ID                 string         `bson:"id" json:"id"`
	BookingRequestID   string         `bson:"booking_request_id" json:"bookingRequestId"`
	Customer           Customer       `bson:"customer" json:"customer"`
	Status             WorkflowStatus `bson:"status" json:"status"`
	CurrentStep        string         `bson:"current_step" json:"currentStep"`
	StepIndex          int            `bson:"step_index" json:"stepIndex"`
	StartedAt          time.Time      `bson:"started_at" json:"startedAt"`
	QuotesExpiresAt    time.Time      `bson:"quotes_expires_at,omitempty" json:"quotesExpiresAt,omitempty"` // fixed once set, never extended
	SelectedQuoteID    string         `bson:"selected_quote_id,omitempty" json:"selectedQuoteId,omitempty"`
	SelectedProviderID string         `bson:"selected_provider_id,omitempty" json:"selectedProviderId,omitempty"`
	FailureReason      string         `bson:"failure_reason,omitempty" json:"failureReason,omitempty"`
	CompletedAt        *time.Time     `bson:"completed_at,omitempty" json:"completedAt,omitempty"`
}

// WorkflowStep is one checkpointed step of a workflow run. A completed step
// record is what makes re-running a crashed workflow idempotent.
type WorkflowStep struct {
	RunID       string     `bson:"run_id" json:"runId"`
	Name        string     `bson:"name" json:"name"`
	Index       int        `bson:"index" json:"index"`
	Status      string     `bson:"status" json:"status"` // "running", "completed", "failed"
	Result      string     `bson:"result,omitempty" json:"result,omitempty"`
	StartedAt   time.Time  `bson:"started_at" json:"startedAt"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completedAt,omitempty"`
}

// SelectedProvider identifies the provider whose quote won the booking.
type SelectedProvider struct {
	ProviderID   string `bson:"provider_id" json:"providerId"`
	ProviderName string `bson:"provider_name" json:"providerName"`
	QuoteID      string `bson:"quote_id" json:"quoteId"`
	AmountCents  int64  `bson:"amount_cents" json:"amountCents"`
}

// FulfillmentResult is the structured terminal result of a workflow run.
// Expected terminal failures are reported here, never as errors.
type FulfillmentResult struct {
	Status             string               `json:"status"` // "completed" or "failed"
	Message            string               `json:"message"`
	WorkflowRunID      string               `json:"workflowRunId"`
	BookingRequestID   string               `json:"bookingRequestId"`
	SelectedProvider   *SelectedProvider    `json:"selectedProvider"` // nil on failure
	Intent             string               `json:"intent,omitempty"` // classified customer intent, when a reply was analyzed
	ProviderNotified   *NotificationOutcome `json:"providerNotified,omitempty"`
	CustomerNotified   *NotificationOutcome `json:"customerNotified,omitempty"`
	CompletedAt        time.Time            `json:"completedAt"`
}
