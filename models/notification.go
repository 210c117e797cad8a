package models

// NotificationOutcome records the per-channel results of a notification
// dispatch. Partial failure is recorded here and never fails the workflow.
type NotificationOutcome struct {
	Success bool     `bson:"success" json:"success"`
	Results []string `bson:"results" json:"results"`
	Errors  []string `bson:"errors" json:"errors"`
}
