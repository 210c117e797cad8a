package notification

import (
	"context"
	"fmt"
	"sync"

	"limora/models"
	"limora/services/matching"
	"limora/services/workflow"

	"go.uber.org/zap"
)

// Dispatcher is the workflow-facing notification fan-out. It computes the
// eligible provider set via matching and pushes booking events over FCM.
// A provider that cannot be reached is recorded as an error in the outcome
// and skipped; delivery failures never abort a dispatch.
type Dispatcher struct {
	Matcher      matching.MatchingService
	Push         PushService
	MaxProviders int
	Logger       *zap.Logger
}

var _ workflow.ProviderNotifier = (*Dispatcher)(nil)
var _ workflow.ConfirmationNotifier = (*Dispatcher)(nil)

// NotifyProviders matches providers for the request and invites each of them
// to quote. EndWorkflow is set when nobody matched.
func (d *Dispatcher) NotifyProviders(ctx context.Context, runID string, req *models.BookingRequest, analysis *models.RequestAnalysis) (*workflow.ProviderDispatch, error) {
	providers, err := d.Matcher.MatchProviders(ctx, req, d.MaxProviders)
	if err != nil {
		return nil, fmt.Errorf("provider matching failed for run %s: %w", runID, err)
	}
	if len(providers) == 0 {
		return &workflow.ProviderDispatch{EndWorkflow: true}, nil
	}

	title := "New booking request"
	body := fmt.Sprintf("%s from %s to %s, %d passenger(s) on %s.",
		analysis.RefinedDescription,
		req.PickupLocation, req.DropoffLocation,
		req.PassengerCount,
		req.PickupTime.Format("Mon Jan 2, 3:04 PM"),
	)
	data := map[string]string{
		"type":             "quote_invitation",
		"workflowRunId":    runID,
		"bookingRequestId": req.ID,
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(providers))
	for _, p := range providers {
		wg.Add(1)
		go func(p models.ProviderDTO) {
			defer wg.Done()
			if err := d.Push.SendProviderPush(ctx, p.ID, title, body, data); err != nil {
				errCh <- err
			}
		}(p)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		d.Logger.Warn("Provider invitation push failed", zap.String("runId", runID), zap.Error(err))
	}

	ids := make([]string, 0, len(providers))
	for _, p := range providers {
		ids = append(ids, p.ID)
	}
	return &workflow.ProviderDispatch{Providers: providers, ProviderIDs: ids}, nil
}

// NotifyProviderConfirmed tells the winning provider their quote was accepted.
func (d *Dispatcher) NotifyProviderConfirmed(ctx context.Context, providerID string, req *models.BookingRequest, quote *models.ProviderQuote) *models.NotificationOutcome {
	body := fmt.Sprintf("Your quote of %s was accepted. Pickup at %s on %s.",
		dollars(quote.AmountCents),
		req.PickupLocation,
		req.PickupTime.Format("Mon Jan 2, 3:04 PM"),
	)
	err := d.Push.SendProviderPush(ctx, providerID, "Booking confirmed", body, map[string]string{
		"type":             "booking_confirmed",
		"bookingRequestId": req.ID,
		"quoteId":          quote.ID,
	})
	return d.outcome("provider "+providerID, err)
}

// NotifyCustomerConfirmed tells the customer their booking is locked in.
func (d *Dispatcher) NotifyCustomerConfirmed(ctx context.Context, customer models.Customer, req *models.BookingRequest, quote *models.ProviderQuote) *models.NotificationOutcome {
	body := fmt.Sprintf("%s will handle your trip from %s to %s for %s.",
		quote.ProviderName,
		req.PickupLocation, req.DropoffLocation,
		dollars(quote.AmountCents),
	)
	err := d.Push.SendCustomerPush(ctx, customer, "Your booking is confirmed", body, map[string]string{
		"type":             "booking_confirmed",
		"bookingRequestId": req.ID,
		"quoteId":          quote.ID,
	})
	return d.outcome("customer "+customer.ID, err)
}

// SendFollowUp forwards a non-confirming customer reply to the provider so
// a human can pick up the thread.
func (d *Dispatcher) SendFollowUp(ctx context.Context, providerID string, reply *models.CustomerReply, analysis models.ConfirmationAnalysis) *models.NotificationOutcome {
	title := "Customer reply needs your attention"
	body := fmt.Sprintf("The customer replied with a %s: %q", analysis.Intent, reply.Message)
	if analysis.Intent == models.IntentCancellation {
		title = "Customer wants to cancel"
	}
	err := d.Push.SendProviderPush(ctx, providerID, title, body, map[string]string{
		"type":          "customer_follow_up",
		"workflowRunId": reply.WorkflowRunID,
		"intent":        analysis.Intent,
	})
	return d.outcome("provider "+providerID, err)
}

func (d *Dispatcher) outcome(target string, err error) *models.NotificationOutcome {
	if err != nil {
		d.Logger.Warn("Notification dispatch failed", zap.String("target", target), zap.Error(err))
		return &models.NotificationOutcome{Success: false, Errors: []string{err.Error()}}
	}
	return &models.NotificationOutcome{Success: true, Results: []string{"notified " + target}}
}

func dollars(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}
