package tasks

import (
	"encoding/json"

	"limora/models"

	"github.com/hibiken/asynq"
)

const TypeFulfillBooking = "workflow:fulfill"

// FulfillPayload carries everything the fulfillment workflow needs to start
// or resume. The run ID is assigned by the enqueuer so a retried task resumes
// the same run rather than starting a fresh one.
type FulfillPayload struct {
	WorkflowRunID    string          `json:"workflowRunId"`
	BookingRequestID string          `json:"bookingRequestId"`
	Customer         models.Customer `json:"customer"`
}

func NewFulfillTask(payload FulfillPayload, maxRetry int) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeFulfillBooking, b)
	opts := []asynq.Option{
		asynq.MaxRetry(maxRetry),
		asynq.TaskID(payload.WorkflowRunID), // dedupes double-enqueues of the same run
	}
	return task, opts, nil
}
