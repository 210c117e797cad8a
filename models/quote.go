package models

import "time"

// Quote response statuses.
const (
	QuoteAccepted = "accepted"
	QuoteDeclined = "declined"
	QuotePending  = "pending"
)

// ProviderQuote is one provider's raw response to a booking request.
// Created when the provider responds and never mutated afterward.
type ProviderQuote struct {
	ID               string    `bson:"id" json:"id"`
	BookingRequestID string    `bson:"booking_request_id" json:"bookingRequestId"`
	WorkflowRunID    string    `bson:"workflow_run_id" json:"workflowRunId"`
	ProviderID       string    `bson:"provider_id" json:"providerId"`
	ProviderName     string    `bson:"provider_name" json:"providerName"`
	ProviderRating   float64   `bson:"provider_rating" json:"providerRating"` // historical rating 0-5
	AmountCents      int64     `bson:"amount_cents" json:"amountCents"`       // quoted amount in minor currency units
	ResponseNote     string    `bson:"response_note" json:"responseNote"`     // free-text note from the provider
	Status           string    `bson:"status" json:"status"`                  // accepted, declined, pending
	DeclineReason    string    `bson:"decline_reason,omitempty" json:"declineReason,omitempty"`
	RespondedAt      time.Time `bson:"responded_at" json:"respondedAt"`
}
