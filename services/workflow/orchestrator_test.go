package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"limora/models"
	"limora/services/intent"
	"limora/services/scoring"

	"go.uber.org/zap"
)

// memTracker is an in-memory StepTracker for orchestrator tests.
type memTracker struct {
	clk      Clock
	run      *models.WorkflowRun
	steps    map[string]string
	statuses []models.WorkflowStatus
}

func newMemTracker(clk Clock) *memTracker {
	return &memTracker{clk: clk, steps: make(map[string]string)}
}

func (t *memTracker) InitializeWorkflow(_ context.Context, runID, bookingRequestID string, customer models.Customer) (*models.WorkflowRun, error) {
	if t.run == nil {
		t.run = &models.WorkflowRun{
			ID:               runID,
			BookingRequestID: bookingRequestID,
			Customer:         customer,
			Status:           models.WorkflowInitialized,
			CurrentStep:      StepInitialize,
			StartedAt:        t.clk.Now(),
		}
	}
	return t.run, nil
}

// UpdateStatusAndStep applies the same monotonic-transition rule as the
// mongo repository: forward moves apply, re-entering an earlier status on a
// resumed run is a no-op, and anything else is rejected.
func (t *memTracker) UpdateStatusAndStep(_ context.Context, _ string, status models.WorkflowStatus, stepName string, stepIndex int) error {
	if t.run.Status != status && !t.run.Status.CanTransitionTo(status) {
		if t.run.Status.AtLeast(status) {
			return nil
		}
		return fmt.Errorf("invalid workflow status transition: %s -> %s", t.run.Status, status)
	}
	t.run.Status = status
	t.run.CurrentStep = stepName
	t.run.StepIndex = stepIndex
	t.statuses = append(t.statuses, status)
	return nil
}

func (t *memTracker) CompleteStep(_ context.Context, _ string, stepName string, result any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	t.steps[stepName] = string(data)
	return nil
}

func (t *memTracker) StepResult(_ context.Context, _ string, stepName string, out any) (bool, error) {
	payload, ok := t.steps[stepName]
	if !ok {
		return false, nil
	}
	if out != nil {
		if err := json.Unmarshal([]byte(payload), out); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (t *memTracker) SetQuotesExpiry(_ context.Context, _ string, expiresAt time.Time) error {
	if t.run.QuotesExpiresAt.IsZero() {
		t.run.QuotesExpiresAt = expiresAt
	}
	return nil
}

func (t *memTracker) RecordSelection(_ context.Context, _ string, quoteID, providerID string) error {
	t.run.SelectedQuoteID = quoteID
	t.run.SelectedProviderID = providerID
	return nil
}

func (t *memTracker) FailWorkflow(_ context.Context, _ string, stepName, reason string) error {
	t.run.Status = models.WorkflowFailed
	t.run.CurrentStep = stepName
	t.run.FailureReason = reason
	now := t.clk.Now()
	t.run.CompletedAt = &now
	return nil
}

func (t *memTracker) CompleteWorkflowRun(_ context.Context, _ string) error {
	t.run.Status = models.WorkflowCompleted
	now := t.clk.Now()
	t.run.CompletedAt = &now
	return nil
}

func (t *memTracker) GetRun(_ context.Context, _ string) (*models.WorkflowRun, error) {
	return t.run, nil
}

func (t *memTracker) sawStatus(status models.WorkflowStatus) bool {
	for _, s := range t.statuses {
		if s == status {
			return true
		}
	}
	return false
}

type stubRequests struct{ req *models.BookingRequest }

func (s *stubRequests) GetByID(context.Context, string) (*models.BookingRequest, error) {
	return s.req, nil
}

type stubAnalyzer struct{ calls int }

func (s *stubAnalyzer) AnalyzeRequest(_ context.Context, req *models.BookingRequest) *models.RequestAnalysis {
	s.calls++
	return &models.RequestAnalysis{
		RefinedDescription: req.VehicleType + " ride",
		ViabilityScore:     70,
		Source:             "fallback",
	}
}

// stubDispatcher covers both notification ports of the workflow.
type stubDispatcher struct {
	dispatch         *ProviderDispatch
	providerConfirms int
	customerConfirms int
	followUps        int
}

func (d *stubDispatcher) NotifyProviders(context.Context, string, *models.BookingRequest, *models.RequestAnalysis) (*ProviderDispatch, error) {
	return d.dispatch, nil
}

func (d *stubDispatcher) NotifyProviderConfirmed(context.Context, string, *models.BookingRequest, *models.ProviderQuote) *models.NotificationOutcome {
	d.providerConfirms++
	return &models.NotificationOutcome{Success: true}
}

func (d *stubDispatcher) NotifyCustomerConfirmed(context.Context, models.Customer, *models.BookingRequest, *models.ProviderQuote) *models.NotificationOutcome {
	d.customerConfirms++
	return &models.NotificationOutcome{Success: true}
}

func (d *stubDispatcher) SendFollowUp(context.Context, string, *models.CustomerReply, models.ConfirmationAnalysis) *models.NotificationOutcome {
	d.followUps++
	return &models.NotificationOutcome{Success: true}
}

// stubResponses replays a fixed sequence of responded-counts.
type stubResponses struct {
	counts []int
	calls  int
}

func (s *stubResponses) CheckProviderResponses(context.Context, string, []string) (int, error) {
	i := s.calls
	if i >= len(s.counts) {
		i = len(s.counts) - 1
	}
	s.calls++
	return s.counts[i], nil
}

type stubQuotes struct{ quotes []models.ProviderQuote }

func (s *stubQuotes) QuotesForRun(context.Context, string) ([]models.ProviderQuote, error) {
	return s.quotes, nil
}

type stubEventSource struct {
	reply    *models.CustomerReply
	timedOut bool
	calls    int
}

func (s *stubEventSource) WaitForEvent(context.Context, string, time.Duration) (*models.CustomerReply, bool, error) {
	s.calls++
	if s.timedOut {
		return nil, true, nil
	}
	return s.reply, false, nil
}

const acceptedNote = "Hello! We would be happy to confirm your reservation. Our licensed and " +
	"insured chauffeur will handle the pickup with a luxury vehicle. Please share any " +
	"itinerary details. Thank you!"

type testEnv struct {
	orch       *Orchestrator
	tracker    *memTracker
	analyzer   *stubAnalyzer
	dispatcher *stubDispatcher
	responses  *stubResponses
	events     *stubEventSource
	clock      *fakeClock
	req        *models.BookingRequest
	quotes     []models.ProviderQuote
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clk := newFakeClock()
	tracker := newMemTracker(clk)

	req := &models.BookingRequest{
		ID:              "req-1",
		CustomerID:      "cust-1",
		PickupLocation:  "JFK Airport",
		DropoffLocation: "Manhattan",
		PassengerCount:  2,
		VehicleType:     "sedan",
		CreatedAt:       clk.Now(),
	}
	quotes := []models.ProviderQuote{
		{
			ID: "q-1", BookingRequestID: "req-1", WorkflowRunID: "run-1",
			ProviderID: "p-1", ProviderName: "Skyline Limos", ProviderRating: 4.8,
			AmountCents: 25000, ResponseNote: acceptedNote,
			Status: models.QuoteAccepted, RespondedAt: clk.Now().Add(15 * time.Minute),
		},
		{
			ID: "q-2", BookingRequestID: "req-1", WorkflowRunID: "run-1",
			ProviderID: "p-2", ProviderName: "Metro Chauffeurs", ProviderRating: 4.2,
			AmountCents: 27000, ResponseNote: acceptedNote,
			Status: models.QuoteAccepted, RespondedAt: clk.Now().Add(25 * time.Minute),
		},
	}

	dispatcher := &stubDispatcher{
		dispatch: &ProviderDispatch{
			Providers: []models.ProviderDTO{
				{ID: "p-1", Name: "Skyline Limos"},
				{ID: "p-2", Name: "Metro Chauffeurs"},
				{ID: "p-3", Name: "Harbor Rides"},
			},
			ProviderIDs: []string{"p-1", "p-2", "p-3"},
		},
	}
	responses := &stubResponses{counts: []int{1, 2}}
	events := &stubEventSource{
		reply: &models.CustomerReply{
			WorkflowRunID: "run-1",
			Action:        models.ActionConfirm,
			QuoteID:       "q-1",
			Message:       "Yes, that sounds perfect, please go ahead",
		},
	}

	analyzer := &stubAnalyzer{}
	orch := &Orchestrator{
		Tracker:       tracker,
		Requests:      &stubRequests{req: req},
		Analyzer:      analyzer,
		Providers:     dispatcher,
		Responses:     responses,
		Quotes:        &stubQuotes{quotes: quotes},
		Aggregator:    &scoring.DefaultAggregator{Scorer: scoring.DeterministicScorer{}},
		Classifier:    intent.FallbackClassifier{},
		Confirmations: dispatcher,
		Events:        events,
		Clock:         clk,
		Settings: Settings{
			ResponseTimeout:  60 * time.Minute,
			CheckInterval:    10 * time.Minute,
			MinResponses:     2,
			MinProviders:     1,
			MaxProviders:     20,
			SelectionTimeout: 30 * time.Minute,
		},
		Logger: zap.NewNop(),
	}
	return &testEnv{
		orch: orch, tracker: tracker, analyzer: analyzer, dispatcher: dispatcher,
		responses: responses, events: events, clock: clk,
		req: req, quotes: quotes,
	}
}

func (e *testEnv) run(t *testing.T) *models.FulfillmentResult {
	t.Helper()
	result, err := e.orch.Run(context.Background(), "run-1", "req-1", models.Customer{ID: "cust-1", Name: "Ava"})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	return result
}

func TestRunCompletesOnConfirmedSelection(t *testing.T) {
	env := newTestEnv(t)
	result := env.run(t)

	if result.Status != "completed" {
		t.Fatalf("status = %q (%s), want completed", result.Status, result.Message)
	}
	if result.SelectedProvider == nil || result.SelectedProvider.QuoteID != "q-1" {
		t.Fatalf("selected provider = %+v, want quote q-1", result.SelectedProvider)
	}
	if result.Intent != models.IntentConfirm {
		t.Errorf("intent = %q, want confirm", result.Intent)
	}
	if env.tracker.run.Status != models.WorkflowCompleted {
		t.Errorf("run status = %q, want completed", env.tracker.run.Status)
	}
	if env.tracker.run.SelectedQuoteID != "q-1" || env.tracker.run.SelectedProviderID != "p-1" {
		t.Errorf("recorded selection = %s/%s, want q-1/p-1",
			env.tracker.run.SelectedQuoteID, env.tracker.run.SelectedProviderID)
	}
	if env.dispatcher.providerConfirms != 1 || env.dispatcher.customerConfirms != 1 {
		t.Errorf("confirmations provider=%d customer=%d, want 1/1",
			env.dispatcher.providerConfirms, env.dispatcher.customerConfirms)
	}
	if env.responses.calls != 2 {
		t.Errorf("polled %d times, want 2 (threshold met on second check)", env.responses.calls)
	}
}

func TestRunFailsWhenNoProvidersMatch(t *testing.T) {
	env := newTestEnv(t)
	env.dispatcher.dispatch = &ProviderDispatch{EndWorkflow: true}

	result := env.run(t)

	if result.Status != "failed" {
		t.Fatalf("status = %q, want failed", result.Status)
	}
	if result.Message != ReasonNoProviders {
		t.Errorf("message = %q, want %q", result.Message, ReasonNoProviders)
	}
	if result.SelectedProvider != nil {
		t.Errorf("selected provider = %+v, want nil", result.SelectedProvider)
	}
	if env.tracker.sawStatus(models.WorkflowWaitingResponses) {
		t.Error("workflow entered waiting_responses despite having no providers")
	}
	if env.responses.calls != 0 {
		t.Errorf("polled %d times with no providers, want 0", env.responses.calls)
	}
}

func TestRunFailsWhenProvidersNeverRespond(t *testing.T) {
	env := newTestEnv(t)
	env.responses.counts = []int{0}

	result := env.run(t)

	if result.Status != "failed" || result.Message != ReasonResponseTimeout {
		t.Fatalf("result = %q/%q, want failed/%q", result.Status, result.Message, ReasonResponseTimeout)
	}
	if env.responses.calls != 6 {
		t.Errorf("polled %d times, want the full budget of 6", env.responses.calls)
	}
	if env.events.calls != 0 {
		t.Errorf("event wait ran %d times after response timeout, want 0", env.events.calls)
	}
}

func TestRunFailsWhenCustomerNeverSelects(t *testing.T) {
	env := newTestEnv(t)
	env.events.timedOut = true

	result := env.run(t)

	if result.Status != "failed" || result.Message != ReasonSelectionTimeout {
		t.Fatalf("result = %q/%q, want failed/%q", result.Status, result.Message, ReasonSelectionTimeout)
	}
	if env.tracker.run.FailureReason != ReasonSelectionTimeout {
		t.Errorf("persisted reason = %q, want %q", env.tracker.run.FailureReason, ReasonSelectionTimeout)
	}
}

func TestRunHonorsLateSideChannelSelection(t *testing.T) {
	env := newTestEnv(t)
	env.events.timedOut = true
	// The selection endpoint wrote the pick directly to the run while the
	// event wait was already timing out.
	env.tracker.run = &models.WorkflowRun{
		ID:               "run-1",
		BookingRequestID: "req-1",
		Status:           models.WorkflowInitialized,
		CurrentStep:      StepInitialize,
		StartedAt:        env.clock.Now(),
		SelectedQuoteID:  "q-2",
	}

	result := env.run(t)

	if result.Status != "completed" {
		t.Fatalf("status = %q (%s), want completed", result.Status, result.Message)
	}
	if result.SelectedProvider == nil || result.SelectedProvider.QuoteID != "q-2" {
		t.Fatalf("selected provider = %+v, want quote q-2", result.SelectedProvider)
	}
	if env.dispatcher.providerConfirms != 1 {
		t.Errorf("provider confirmations = %d, want 1", env.dispatcher.providerConfirms)
	}
}

func TestRunRoutesNonConfirmReplyToFollowUp(t *testing.T) {
	env := newTestEnv(t)
	env.events.reply = &models.CustomerReply{
		WorkflowRunID: "run-1",
		Action:        models.ActionQuestion,
		Message:       "What time would the driver arrive at the terminal?",
	}

	result := env.run(t)

	if result.Status != "failed" || result.Message != ReasonNeedsFollowUp {
		t.Fatalf("result = %q/%q, want failed/%q", result.Status, result.Message, ReasonNeedsFollowUp)
	}
	if result.Intent != models.IntentQuestion {
		t.Errorf("intent = %q, want question", result.Intent)
	}
	if env.dispatcher.followUps != 1 {
		t.Errorf("follow-ups sent = %d, want 1", env.dispatcher.followUps)
	}
	if result.ProviderNotified == nil || !result.ProviderNotified.Success {
		t.Errorf("provider follow-up outcome = %+v, want success", result.ProviderNotified)
	}
	if !env.tracker.sawStatus(models.WorkflowAwaitingReply) {
		t.Error("workflow never entered awaiting_customer_reply")
	}
}

func TestRunResumesFromWaitingUserSelection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// A previous attempt got as far as the selection wait and died there:
	// steps 1-5 are checkpointed and the run status is past "analyzing".
	env.tracker.run = &models.WorkflowRun{
		ID:               "run-1",
		BookingRequestID: "req-1",
		Customer:         models.Customer{ID: "cust-1", Name: "Ava"},
		Status:           models.WorkflowWaitingUserSelection,
		CurrentStep:      StepAwaitSelection,
		StepIndex:        5,
		StartedAt:        env.clock.Now(),
		QuotesExpiresAt:  env.clock.Now().Add(30 * time.Minute),
	}
	agg := env.orch.Aggregator.Aggregate(ctx, env.req, env.quotes)
	for name, result := range map[string]any{
		StepAnalyzeRequest:  models.RequestAnalysis{RefinedDescription: "sedan ride", ViabilityScore: 70, Source: "fallback"},
		StepNotifyProviders: *env.dispatcher.dispatch,
		StepPollResponses:   map[string]int{"respondedCount": 2, "checks": 2},
		StepAnalyzeQuotes:   *agg,
	} {
		if err := env.tracker.CompleteStep(ctx, "run-1", name, result); err != nil {
			t.Fatalf("seeding checkpoint %s: %v", name, err)
		}
	}

	result := env.run(t)

	if result.Status != "completed" {
		t.Fatalf("resumed run status = %q (%s), want completed", result.Status, result.Message)
	}
	if env.tracker.run.Status != models.WorkflowCompleted {
		t.Errorf("run status = %q, want completed", env.tracker.run.Status)
	}
	if env.analyzer.calls != 0 {
		t.Errorf("request re-analyzed %d times on resume, want 0", env.analyzer.calls)
	}
	if env.responses.calls != 0 {
		t.Errorf("responses re-polled %d times on resume, want 0", env.responses.calls)
	}
	if env.dispatcher.providerConfirms != 1 || env.dispatcher.customerConfirms != 1 {
		t.Errorf("confirmations provider=%d customer=%d, want 1/1",
			env.dispatcher.providerConfirms, env.dispatcher.customerConfirms)
	}
}

func TestRunDoesNotRepeatSideEffectsOnReplay(t *testing.T) {
	env := newTestEnv(t)
	env.run(t)

	// Simulate a crash after the confirmation pushes went out but before the
	// run was marked completed, then retry the whole task.
	env.tracker.run.Status = models.WorkflowConfirming
	env.tracker.run.CompletedAt = nil

	result := env.run(t)

	if result.Status != "completed" {
		t.Fatalf("replayed run status = %q (%s), want completed", result.Status, result.Message)
	}
	if env.dispatcher.providerConfirms != 1 || env.dispatcher.customerConfirms != 1 {
		t.Errorf("replay re-sent confirmations: provider=%d customer=%d, want 1/1",
			env.dispatcher.providerConfirms, env.dispatcher.customerConfirms)
	}
	if env.analyzer.calls != 1 {
		t.Errorf("request analyzed %d times across replay, want 1", env.analyzer.calls)
	}
	if env.events.calls != 1 {
		t.Errorf("selection wait ran %d times across replay, want 1", env.events.calls)
	}
	if result.ProviderNotified == nil || !result.ProviderNotified.Success {
		t.Errorf("replayed result lost the checkpointed notification outcome: %+v", result.ProviderNotified)
	}
}

func TestRunReturnsStoredResultForTerminalRun(t *testing.T) {
	env := newTestEnv(t)
	done := env.clock.Now()
	env.tracker.run = &models.WorkflowRun{
		ID:               "run-1",
		BookingRequestID: "req-1",
		Status:           models.WorkflowFailed,
		FailureReason:    ReasonSelectionTimeout,
		StartedAt:        env.clock.Now().Add(-2 * time.Hour),
		CompletedAt:      &done,
	}

	result := env.run(t)

	if result.Status != "failed" || result.Message != ReasonSelectionTimeout {
		t.Fatalf("replayed result = %q/%q, want stored failure", result.Status, result.Message)
	}
	if env.responses.calls != 0 || env.events.calls != 0 {
		t.Error("replay of a terminal run re-executed workflow steps")
	}
}
