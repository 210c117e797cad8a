package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	workflowRepo "limora/database/repository/workflow"
	"limora/models"
)

// MongoStepTracker implements StepTracker over the workflow repository.
type MongoStepTracker struct {
	Repo  workflowRepo.WorkflowRepository
	Clock Clock
}

// InitializeWorkflow creates the run row, or returns the existing one when
// the run is being replayed after a crash.
func (t *MongoStepTracker) InitializeWorkflow(ctx context.Context, runID, bookingRequestID string, customer models.Customer) (*models.WorkflowRun, error) {
	existing, err := t.Repo.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	run := &models.WorkflowRun{
		ID:               runID,
		BookingRequestID: bookingRequestID,
		Customer:         customer,
		Status:           models.WorkflowInitialized,
		CurrentStep:      StepInitialize,
		StartedAt:        t.Clock.Now(),
	}
	if err := t.Repo.CreateRun(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

func (t *MongoStepTracker) UpdateStatusAndStep(ctx context.Context, runID string, status models.WorkflowStatus, stepName string, stepIndex int) error {
	return t.Repo.UpdateStatusAndStep(ctx, runID, status, stepName, stepIndex)
}

func (t *MongoStepTracker) CompleteStep(ctx context.Context, runID, stepName string, result any) error {
	payload := ""
	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to encode result for step %s: %w", stepName, err)
		}
		payload = string(data)
	}
	now := t.Clock.Now()
	return t.Repo.UpsertStep(ctx, &models.WorkflowStep{
		RunID:       runID,
		Name:        stepName,
		Status:      "completed",
		Result:      payload,
		StartedAt:   now,
		CompletedAt: &now,
	})
}

func (t *MongoStepTracker) StepResult(ctx context.Context, runID, stepName string, out any) (bool, error) {
	step, err := t.Repo.GetStep(ctx, runID, stepName)
	if err != nil {
		return false, err
	}
	if step == nil || step.Status != "completed" {
		return false, nil
	}
	if out != nil && step.Result != "" {
		if err := json.Unmarshal([]byte(step.Result), out); err != nil {
			return false, fmt.Errorf("failed to decode result of step %s: %w", stepName, err)
		}
	}
	return true, nil
}

func (t *MongoStepTracker) SetQuotesExpiry(ctx context.Context, runID string, expiresAt time.Time) error {
	return t.Repo.SetQuotesExpiry(ctx, runID, expiresAt)
}

func (t *MongoStepTracker) RecordSelection(ctx context.Context, runID, quoteID, providerID string) error {
	return t.Repo.RecordSelection(ctx, runID, quoteID, providerID)
}

func (t *MongoStepTracker) FailWorkflow(ctx context.Context, runID, stepName, reason string) error {
	return t.Repo.MarkFailed(ctx, runID, stepName, reason)
}

func (t *MongoStepTracker) CompleteWorkflowRun(ctx context.Context, runID string) error {
	return t.Repo.MarkCompleted(ctx, runID)
}

func (t *MongoStepTracker) GetRun(ctx context.Context, runID string) (*models.WorkflowRun, error) {
	return t.Repo.GetRun(ctx, runID)
}
