package workflow

import (
	"context"
	"time"

	"limora/models"
	"limora/services/scoring"
)

// Step names, in execution order.
const (
	StepInitialize       = "initialize"
	StepAnalyzeRequest   = "analyze_request"
	StepNotifyProviders  = "notify_providers"
	StepPollResponses    = "poll_responses"
	StepAnalyzeQuotes    = "analyze_quotes"
	StepAwaitSelection   = "await_selection"
	StepAnalyzeReply     = "analyze_reply"
	StepRouteIntent      = "route_intent"
	StepConfirm          = "confirm"
	StepComplete         = "complete"
)

// Terminal failure reasons. ReasonNoProviders keeps the legacy wording; the
// others are distinct per cause so callers can tell a timeout from a reply
// that needs follow-up.
const (
	ReasonNoProviders      = "No matching service providers found"
	ReasonResponseTimeout  = "Service providers did not respond in time"
	ReasonSelectionTimeout = "User did not select a quote within the time limit"
	ReasonNeedsFollowUp    = "Customer reply requires follow-up before confirmation"
)

// Settings are the injected workflow tunables.
type Settings struct {
	ResponseTimeout  time.Duration // how long to collect provider responses
	CheckInterval    time.Duration // polling interval during collection
	MinResponses     int           // responses that end polling early
	MinProviders     int           // minimum providers worth notifying
	MaxProviders     int           // fan-out cap for notification
	SelectionTimeout time.Duration // how long the customer may take to pick
}

// Clock abstracts wall-clock time so both timeout loops are testable.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock is the production clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// StepTracker is the durable-execution port. Step completion is persisted
// before the next step begins; completed steps are skipped on replay.
type StepTracker interface {
	InitializeWorkflow(ctx context.Context, runID, bookingRequestID string, customer models.Customer) (*models.WorkflowRun, error)
	UpdateStatusAndStep(ctx context.Context, runID string, status models.WorkflowStatus, stepName string, stepIndex int) error
	CompleteStep(ctx context.Context, runID, stepName string, result any) error
	// StepResult reports whether the named step already completed and, when
	// out is non-nil, decodes its checkpointed result into out.
	StepResult(ctx context.Context, runID, stepName string, out any) (bool, error)
	SetQuotesExpiry(ctx context.Context, runID string, expiresAt time.Time) error
	RecordSelection(ctx context.Context, runID, quoteID, providerID string) error
	FailWorkflow(ctx context.Context, runID, stepName, reason string) error
	CompleteWorkflowRun(ctx context.Context, runID string) error
	GetRun(ctx context.Context, runID string) (*models.WorkflowRun, error)
}

// ProviderDispatch is the outcome of fanning a request out to providers.
type ProviderDispatch struct {
	Providers   []models.ProviderDTO
	ProviderIDs []string
	EndWorkflow bool // true when no providers matched
}

// ProviderNotifier computes the eligible provider set and notifies it.
type ProviderNotifier interface {
	NotifyProviders(ctx context.Context, runID string, req *models.BookingRequest, analysis *models.RequestAnalysis) (*ProviderDispatch, error)
}

// ResponseChecker reports how many of the run's providers have responded.
type ResponseChecker interface {
	CheckProviderResponses(ctx context.Context, runID string, providerIDs []string) (int, error)
}

// QuoteSource lists the raw quotes collected for a run.
type QuoteSource interface {
	QuotesForRun(ctx context.Context, runID string) ([]models.ProviderQuote, error)
}

// RequestSource loads the immutable booking request.
type RequestSource interface {
	GetByID(ctx context.Context, id string) (*models.BookingRequest, error)
}

// EventSource delivers the customer's selection event for a run. A true
// second return means the wait timed out without an event.
type EventSource interface {
	WaitForEvent(ctx context.Context, runID string, timeout time.Duration) (*models.CustomerReply, bool, error)
}

// ReplyClassifier interprets the customer's reply. Never fails.
type ReplyClassifier interface {
	Classify(ctx context.Context, action, message string) models.ConfirmationAnalysis
}

// RequestAnalyzer cleans up the request text for provider messaging. Never fails.
type RequestAnalyzer interface {
	AnalyzeRequest(ctx context.Context, req *models.BookingRequest) *models.RequestAnalysis
}

// Aggregator scores the collected quotes and builds the recommendation.
type Aggregator interface {
	Aggregate(ctx context.Context, req *models.BookingRequest, quotes []models.ProviderQuote) *scoring.Outcome
}

// ConfirmationNotifier handles the confirmation-phase dispatches. Outcomes
// record partial failure; none of these fail the workflow.
type ConfirmationNotifier interface {
	NotifyProviderConfirmed(ctx context.Context, providerID string, req *models.BookingRequest, quote *models.ProviderQuote) *models.NotificationOutcome
	NotifyCustomerConfirmed(ctx context.Context, customer models.Customer, req *models.BookingRequest, quote *models.ProviderQuote) *models.NotificationOutcome
	SendFollowUp(ctx context.Context, providerID string, reply *models.CustomerReply, analysis models.ConfirmationAnalysis) *models.NotificationOutcome
}
