package workflow

import (
	"context"
	"strings"

	"limora/models"
	"limora/services/scoring"

	"go.uber.org/zap"
)

// Orchestrator drives a booking request through the fulfillment lifecycle:
// notify providers, collect quotes under a time budget, rank them, wait for
// the customer's pick under a second independent deadline, classify their
// reply and confirm the booking.
//
// The workflow is forward-only. Side effects already performed (providers
// contacted) are never rolled back; expected dead ends surface as structured
// failed results, not errors. Only tracker/persistence failures propagate,
// and the hosting task runner retries those.
//
// Every step with side effects or paid calls checkpoints its result through
// the tracker and consults the checkpoint first, so a retried task replays
// the run from its last completed step instead of re-executing it.
type Orchestrator struct {
	Tracker       StepTracker
	Requests      RequestSource
	Analyzer      RequestAnalyzer
	Providers     ProviderNotifier
	Responses     ResponseChecker
	Quotes        QuoteSource
	Aggregator    Aggregator
	Classifier    ReplyClassifier
	Confirmations ConfirmationNotifier
	Events        EventSource
	Clock         Clock
	Settings      Settings
	Logger        *zap.Logger
}

// Run executes the fulfillment workflow for one booking request. The runID
// is assigned by the caller so a retried task resumes the same run instead
// of starting a second one.
func (o *Orchestrator) Run(ctx context.Context, runID, bookingRequestID string, customer models.Customer) (*models.FulfillmentResult, error) {
	log := o.Logger.With(zap.String("runId", runID), zap.String("bookingRequestId", bookingRequestID))

	// Step 1: initialize. A persistence failure here is fatal, not retryable.
	run, err := o.Tracker.InitializeWorkflow(ctx, runID, bookingRequestID, customer)
	if err != nil {
		return nil, newFatalTrackerError(StepInitialize, "failed to persist workflow run", err)
	}
	if run.Status.Terminal() {
		log.Info("Run already terminal, returning stored outcome", zap.String("status", string(run.Status)))
		return o.storedResult(run), nil
	}
	if run.Status != models.WorkflowInitialized {
		log.Info("Resuming crashed run", zap.String("status", string(run.Status)), zap.String("step", run.CurrentStep))
	}
	if err := o.Tracker.UpdateStatusAndStep(ctx, runID, models.WorkflowAnalyzing, StepAnalyzeRequest, 1); err != nil {
		return nil, newTrackerError(StepAnalyzeRequest, "failed to enter analyzing", err)
	}

	// Step 2: analyze the request. Messaging quality only; never branches.
	req, err := o.Requests.GetByID(ctx, bookingRequestID)
	if err != nil {
		return nil, newTrackerError(StepAnalyzeRequest, "failed to load booking request", err)
	}
	var analysis models.RequestAnalysis
	done, err := o.Tracker.StepResult(ctx, runID, StepAnalyzeRequest, &analysis)
	if err != nil {
		return nil, newTrackerError(StepAnalyzeRequest, "failed to read checkpoint", err)
	}
	if !done {
		analysis = *o.Analyzer.AnalyzeRequest(ctx, req)
		if err := o.Tracker.CompleteStep(ctx, runID, StepAnalyzeRequest, analysis); err != nil {
			return nil, newTrackerError(StepAnalyzeRequest, "failed to checkpoint analysis", err)
		}
	}

	// Step 3: notify providers, deduplicated across replays.
	var dispatch ProviderDispatch
	done, err = o.Tracker.StepResult(ctx, runID, StepNotifyProviders, &dispatch)
	if err != nil {
		return nil, newTrackerError(StepNotifyProviders, "failed to read checkpoint", err)
	}
	if !done {
		d, err := o.Providers.NotifyProviders(ctx, runID, req, &analysis)
		if err != nil {
			return nil, newTrackerError(StepNotifyProviders, "provider notification failed", err)
		}
		dispatch = *d
		if err := o.Tracker.CompleteStep(ctx, runID, StepNotifyProviders, dispatch); err != nil {
			return nil, newTrackerError(StepNotifyProviders, "failed to checkpoint dispatch", err)
		}
	}
	if dispatch.EndWorkflow || len(dispatch.ProviderIDs) < o.Settings.MinProviders || len(dispatch.ProviderIDs) == 0 {
		log.Info("No matching providers, ending workflow")
		return o.fail(ctx, run, StepNotifyProviders, ReasonNoProviders, "")
	}
	if err := o.Tracker.UpdateStatusAndStep(ctx, runID, models.WorkflowWaitingResponses, StepPollResponses, 3); err != nil {
		return nil, newTrackerError(StepPollResponses, "failed to enter waiting_responses", err)
	}

	// Step 4: poll for responses until the threshold or the wall clock wins.
	var pollStats map[string]int
	done, err = o.Tracker.StepResult(ctx, runID, StepPollResponses, &pollStats)
	if err != nil {
		return nil, newTrackerError(StepPollResponses, "failed to read checkpoint", err)
	}
	if !done {
		cfg := PollConfig{
			Deadline:  run.StartedAt.Add(o.Settings.ResponseTimeout),
			Interval:  o.Settings.CheckInterval,
			MaxChecks: MaxChecksFor(o.Settings.ResponseTimeout, o.Settings.CheckInterval),
		}
		var responded int
		outcome, checks, err := PollUntil(ctx, o.Clock, cfg, func(ctx context.Context) (bool, error) {
			n, err := o.Responses.CheckProviderResponses(ctx, runID, dispatch.ProviderIDs)
			if err != nil {
				return false, err
			}
			responded = n
			return n >= o.Settings.MinResponses, nil
		})
		if err != nil {
			return nil, newTrackerError(StepPollResponses, "response polling failed", err)
		}
		log.Info("Response polling finished",
			zap.Int("checks", checks), zap.Int("responded", responded))
		if outcome == PollDeadline {
			return o.fail(ctx, run, StepPollResponses, ReasonResponseTimeout, "")
		}
		if err := o.Tracker.CompleteStep(ctx, runID, StepPollResponses, map[string]int{"respondedCount": responded, "checks": checks}); err != nil {
			return nil, newTrackerError(StepPollResponses, "failed to checkpoint poll result", err)
		}
	}

	// Step 5: score and rank the collected quotes.
	if err := o.Tracker.UpdateStatusAndStep(ctx, runID, models.WorkflowAnalyzingQuotes, StepAnalyzeQuotes, 4); err != nil {
		return nil, newTrackerError(StepAnalyzeQuotes, "failed to enter analyzing_quotes", err)
	}
	quotes, err := o.Quotes.QuotesForRun(ctx, runID)
	if err != nil {
		return nil, newTrackerError(StepAnalyzeQuotes, "failed to load quotes", err)
	}
	var agg scoring.Outcome
	done, err = o.Tracker.StepResult(ctx, runID, StepAnalyzeQuotes, &agg)
	if err != nil {
		return nil, newTrackerError(StepAnalyzeQuotes, "failed to read checkpoint", err)
	}
	if !done {
		agg = *o.Aggregator.Aggregate(ctx, req, quotes)
		if len(agg.Analyses) == 0 {
			return o.fail(ctx, run, StepAnalyzeQuotes, ReasonResponseTimeout, "")
		}
		if err := o.Tracker.CompleteStep(ctx, runID, StepAnalyzeQuotes, agg); err != nil {
			return nil, newTrackerError(StepAnalyzeQuotes, "failed to checkpoint scoring outcome", err)
		}
	}

	// Step 6: wait for the customer's pick, bounded by the quotes deadline.
	// The event pop is destructive, so a completed wait is never repeated.
	var reply models.CustomerReply
	done, err = o.Tracker.StepResult(ctx, runID, StepAwaitSelection, &reply)
	if err != nil {
		return nil, newTrackerError(StepAwaitSelection, "failed to read checkpoint", err)
	}
	if !done {
		if err := o.Tracker.SetQuotesExpiry(ctx, runID, o.Clock.Now().Add(o.Settings.SelectionTimeout)); err != nil {
			return nil, newTrackerError(StepAwaitSelection, "failed to set quotes expiry", err)
		}
		run, err = o.Tracker.GetRun(ctx, runID)
		if err != nil || run == nil {
			return nil, newTrackerError(StepAwaitSelection, "failed to reload run", err)
		}
		if err := o.Tracker.UpdateStatusAndStep(ctx, runID, models.WorkflowWaitingUserSelection, StepAwaitSelection, 5); err != nil {
			return nil, newTrackerError(StepAwaitSelection, "failed to enter waiting_user_selection", err)
		}

		r, timedOut, err := AwaitEvent(ctx, o.Events, o.Clock, runID, run.QuotesExpiresAt)
		if err != nil {
			return nil, newTrackerError(StepAwaitSelection, "event wait failed", err)
		}
		if timedOut {
			// The customer may have recorded a selection through a side channel
			// before we noticed the deadline. Re-check persisted state first.
			latest, err := o.Tracker.GetRun(ctx, runID)
			if err != nil || latest == nil {
				return nil, newTrackerError(StepAwaitSelection, "failed to re-check run after timeout", err)
			}
			if latest.SelectedQuoteID == "" {
				log.Info("Customer did not select a quote before the deadline")
				return o.fail(ctx, run, StepAwaitSelection, ReasonSelectionTimeout, "")
			}
			log.Info("Late selection found on timeout re-check", zap.String("quoteId", latest.SelectedQuoteID))
			r = &models.CustomerReply{
				WorkflowRunID: runID,
				Action:        models.ActionConfirm,
				QuoteID:       latest.SelectedQuoteID,
			}
		}
		reply = *r
		if err := o.Tracker.CompleteStep(ctx, runID, StepAwaitSelection, reply); err != nil {
			return nil, newTrackerError(StepAwaitSelection, "failed to checkpoint selection", err)
		}
	}

	// Step 7: classify the customer's reply.
	if err := o.Tracker.UpdateStatusAndStep(ctx, runID, models.WorkflowUserResponseAnalyzed, StepAnalyzeReply, 6); err != nil {
		return nil, newTrackerError(StepAnalyzeReply, "failed to enter user_response_analyzed", err)
	}
	var confirmation models.ConfirmationAnalysis
	done, err = o.Tracker.StepResult(ctx, runID, StepAnalyzeReply, &confirmation)
	if err != nil {
		return nil, newTrackerError(StepAnalyzeReply, "failed to read checkpoint", err)
	}
	if !done {
		confirmation = o.Classifier.Classify(ctx, reply.Action, reply.Message)
		if err := o.Tracker.CompleteStep(ctx, runID, StepAnalyzeReply, confirmation); err != nil {
			return nil, newTrackerError(StepAnalyzeReply, "failed to checkpoint reply analysis", err)
		}
	}

	selectedQuote := pickQuote(quotes, &agg, reply.QuoteID)
	if err := o.Tracker.RecordSelection(ctx, runID, selectedQuote.ID, selectedQuote.ProviderID); err != nil {
		return nil, newTrackerError(StepRouteIntent, "failed to record selection", err)
	}

	// Step 8: route on intent. Anything but a clear confirmation goes back
	// to the provider as a follow-up and ends this run.
	if !isConfirmed(&reply, confirmation) {
		if err := o.Tracker.UpdateStatusAndStep(ctx, runID, models.WorkflowAwaitingReply, StepRouteIntent, 7); err != nil {
			return nil, newTrackerError(StepRouteIntent, "failed to enter awaiting_customer_reply", err)
		}
		followUp := o.Confirmations.SendFollowUp(ctx, selectedQuote.ProviderID, &reply, confirmation)
		log.Info("Customer reply needs follow-up",
			zap.String("intent", confirmation.Intent), zap.Bool("providerNotified", followUp.Success))
		result, err := o.fail(ctx, run, StepRouteIntent, ReasonNeedsFollowUp, confirmation.Intent)
		if result != nil {
			result.ProviderNotified = followUp
		}
		return result, err
	}

	// Step 9: confirm with both parties. Partial notification failure is
	// recorded but does not fail the booking; a replayed run reuses the
	// checkpointed outcomes instead of pushing twice.
	if err := o.Tracker.UpdateStatusAndStep(ctx, runID, models.WorkflowConfirming, StepConfirm, 8); err != nil {
		return nil, newTrackerError(StepConfirm, "failed to enter confirming", err)
	}
	outcomes := make(map[string]*models.NotificationOutcome)
	done, err = o.Tracker.StepResult(ctx, runID, StepConfirm, &outcomes)
	if err != nil {
		return nil, newTrackerError(StepConfirm, "failed to read checkpoint", err)
	}
	if !done {
		outcomes["provider"] = o.Confirmations.NotifyProviderConfirmed(ctx, selectedQuote.ProviderID, req, selectedQuote)
		outcomes["customer"] = o.Confirmations.NotifyCustomerConfirmed(ctx, customer, req, selectedQuote)
		if err := o.Tracker.CompleteStep(ctx, runID, StepConfirm, outcomes); err != nil {
			return nil, newTrackerError(StepConfirm, "failed to checkpoint confirmation", err)
		}
	}

	// Step 10: complete.
	if err := o.Tracker.CompleteWorkflowRun(ctx, runID); err != nil {
		return nil, newTrackerError(StepComplete, "failed to complete workflow run", err)
	}
	log.Info("Workflow completed",
		zap.String("providerId", selectedQuote.ProviderID), zap.String("quoteId", selectedQuote.ID))

	return &models.FulfillmentResult{
		Status:           "completed",
		Message:          "Booking confirmed",
		WorkflowRunID:    runID,
		BookingRequestID: bookingRequestID,
		SelectedProvider: &models.SelectedProvider{
			ProviderID:   selectedQuote.ProviderID,
			ProviderName: selectedQuote.ProviderName,
			QuoteID:      selectedQuote.ID,
			AmountCents:  selectedQuote.AmountCents,
		},
		Intent:           confirmation.Intent,
		ProviderNotified: outcomes["provider"],
		CustomerNotified: outcomes["customer"],
		CompletedAt:      o.Clock.Now(),
	}, nil
}

// fail marks the run failed and returns the structured terminal result.
func (o *Orchestrator) fail(ctx context.Context, run *models.WorkflowRun, stepName, reason, intent string) (*models.FulfillmentResult, error) {
	if err := o.Tracker.FailWorkflow(ctx, run.ID, stepName, reason); err != nil {
		return nil, newTrackerError(stepName, "failed to mark workflow failed", err)
	}
	return &models.FulfillmentResult{
		Status:           "failed",
		Message:          reason,
		WorkflowRunID:    run.ID,
		BookingRequestID: run.BookingRequestID,
		SelectedProvider: nil,
		Intent:           intent,
		CompletedAt:      o.Clock.Now(),
	}, nil
}

// storedResult rebuilds the terminal result of an already-finished run.
func (o *Orchestrator) storedResult(run *models.WorkflowRun) *models.FulfillmentResult {
	result := &models.FulfillmentResult{
		WorkflowRunID:    run.ID,
		BookingRequestID: run.BookingRequestID,
		CompletedAt:      o.Clock.Now(),
	}
	if run.CompletedAt != nil {
		result.CompletedAt = *run.CompletedAt
	}
	if run.Status == models.WorkflowCompleted {
		result.Status = "completed"
		result.Message = "Booking confirmed"
		result.SelectedProvider = &models.SelectedProvider{
			ProviderID: run.SelectedProviderID,
			QuoteID:    run.SelectedQuoteID,
		}
	} else {
		result.Status = "failed"
		result.Message = run.FailureReason
	}
	return result
}

// isConfirmed requires both the structural action and the classified intent
// to indicate confirmation. A side-channel selection arrives with no message
// to classify and counts as confirmed on the action alone.
func isConfirmed(reply *models.CustomerReply, analysis models.ConfirmationAnalysis) bool {
	if reply.Action != models.ActionConfirm {
		return false
	}
	if strings.TrimSpace(reply.Message) == "" {
		return true
	}
	return analysis.Intent == models.IntentConfirm
}

// pickQuote resolves the quote the customer selected, falling back to the
// top recommended quote when the reply does not name one.
func pickQuote(quotes []models.ProviderQuote, agg *scoring.Outcome, quoteID string) *models.ProviderQuote {
	if quoteID != "" {
		for i := range quotes {
			if quotes[i].ID == quoteID {
				return &quotes[i]
			}
		}
	}
	if len(agg.Recommendation.Selected) > 0 {
		top := agg.Recommendation.Selected[0]
		for i := range quotes {
			if quotes[i].ID == top.QuoteID {
				return &quotes[i]
			}
		}
	}
	return &quotes[0]
}
