package models

import "time"

// Customer reply intents.
const (
	IntentConfirm      = "confirm"
	IntentQuestion     = "question"
	IntentConcern      = "concern"
	IntentCancellation = "cancellation"
	IntentOther        = "other"
)

// Customer selection actions, as taken on the selection surface.
const (
	ActionConfirm  = "confirm"
	ActionQuestion = "question"
)

// CustomerReply is the event delivered when the customer acts on the
// presented quotes: the structural action plus their free-text message.
type CustomerReply struct {
	WorkflowRunID string    `json:"workflowRunId"`
	Action        string    `json:"action"` // "confirm" or "question"
	QuoteID       string    `json:"quoteId,omitempty"`
	Message       string    `json:"message"`
	ReceivedAt    time.Time `json:"receivedAt"`
}

// ContactDetails holds contact fragments extracted from a customer message.
// Only fields actually found are populated.
type ContactDetails struct {
	Name  string `bson:"name,omitempty" json:"name,omitempty"`
	Email string `bson:"email,omitempty" json:"email,omitempty"`
	Phone string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// ConfirmationAnalysis is the classified interpretation of a customer reply.
type ConfirmationAnalysis struct {
	Intent           string          `bson:"intent" json:"intent"`         // confirm, question, concern, cancellation, other
	Confidence       int             `bson:"confidence" json:"confidence"` // 0-100
	Urgency          string          `bson:"urgency" json:"urgency"`       // low, medium, high
	Sentiment        string          `bson:"sentiment" json:"sentiment"`   // positive, neutral, negative
	RequiresResponse bool            `bson:"requires_response" json:"requiresResponse"`
	Contact          *ContactDetails `bson:"contact,omitempty" json:"contact,omitempty"`
	CleanedMessage   string          `bson:"cleaned_message" json:"cleanedMessage"`
}
