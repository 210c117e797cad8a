package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"limora/database"
	"limora/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrInvalidTransition is returned when a status update would move a run
// backward or out of a terminal state.
var ErrInvalidTransition = errors.New("invalid workflow status transition")

// WorkflowRepository defines data access for workflow runs and their steps.
// It is the persistence half of the step tracker.
type WorkflowRepository interface {
	CreateRun(ctx context.Context, run *models.WorkflowRun) error
	GetRun(ctx context.Context, runID string) (*models.WorkflowRun, error)
	UpdateStatusAndStep(ctx context.Context, runID string, status models.WorkflowStatus, stepName string, stepIndex int) error
	SetQuotesExpiry(ctx context.Context, runID string, expiresAt time.Time) error
	RecordSelection(ctx context.Context, runID, quoteID, providerID string) error
	MarkFailed(ctx context.Context, runID, stepName, reason string) error
	MarkCompleted(ctx context.Context, runID string) error
	UpsertStep(ctx context.Context, step *models.WorkflowStep) error
	GetStep(ctx context.Context, runID, name string) (*models.WorkflowStep, error)
}

// MongoWorkflowRepo implements WorkflowRepository using MongoDB.
type MongoWorkflowRepo struct {
	runs  *mongo.Collection
	steps *mongo.Collection
}

func NewMongoWorkflowRepo() *MongoWorkflowRepo {
	return &MongoWorkflowRepo{
		runs:  database.Collection("workflow_runs"),
		steps: database.Collection("workflow_steps"),
	}
}

func (r *MongoWorkflowRepo) CreateRun(ctx context.Context, run *models.WorkflowRun) error {
	if _, err := r.runs.InsertOne(ctx, run); err != nil {
		return fmt.Errorf("failed to insert workflow run: %w", err)
	}
	return nil
}

func (r *MongoWorkflowRepo) GetRun(ctx context.Context, runID string) (*models.WorkflowRun, error) {
	var run models.WorkflowRun
	err := r.runs.FindOne(ctx, bson.M{"id": runID}).Decode(&run)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow run %s: %w", runID, err)
	}
	return &run, nil
}

// UpdateStatusAndStep moves the run forward under the monotonic-transition
// rule: a run never moves backward or out of a terminal state. Requests that
// would re-enter a status the run has already passed are ignored so a
// resumed run can replay its early steps.
func (r *MongoWorkflowRepo) UpdateStatusAndStep(ctx context.Context, runID string, status models.WorkflowStatus, stepName string, stepIndex int) error {
	run, err := r.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("workflow run %s not found", runID)
	}
	if run.Status != status && !run.Status.CanTransitionTo(status) {
		// A replayed run re-enters steps it already passed through. Being at
		// or beyond the requested status is a no-op, not a conflict.
		if run.Status.AtLeast(status) {
			return nil
		}
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, run.Status, status)
	}

	update := bson.M{"$set": bson.M{
		"status":       status,
		"current_step": stepName,
		"step_index":   stepIndex,
	}}
	if _, err := r.runs.UpdateOne(ctx, bson.M{"id": runID}, update); err != nil {
		return fmt.Errorf("failed to update workflow run %s: %w", runID, err)
	}
	return nil
}

// SetQuotesExpiry fixes the customer-selection deadline. It only ever sets
// an unset deadline; an existing one is never extended.
func (r *MongoWorkflowRepo) SetQuotesExpiry(ctx context.Context, runID string, expiresAt time.Time) error {
	filter := bson.M{"id": runID, "quotes_expires_at": bson.M{"$exists": false}}
	update := bson.M{"$set": bson.M{"quotes_expires_at": expiresAt}}
	if _, err := r.runs.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to set quotes expiry for run %s: %w", runID, err)
	}
	return nil
}

func (r *MongoWorkflowRepo) RecordSelection(ctx context.Context, runID, quoteID, providerID string) error {
	update := bson.M{"$set": bson.M{
		"selected_quote_id":    quoteID,
		"selected_provider_id": providerID,
	}}
	if _, err := r.runs.UpdateOne(ctx, bson.M{"id": runID}, update); err != nil {
		return fmt.Errorf("failed to record selection for run %s: %w", runID, err)
	}
	return nil
}

func (r *MongoWorkflowRepo) MarkFailed(ctx context.Context, runID, stepName, reason string) error {
	now := time.Now()
	update := bson.M{"$set": bson.M{
		"status":         models.WorkflowFailed,
		"current_step":   stepName,
		"failure_reason": reason,
		"completed_at":   now,
	}}
	// Terminal states are immutable: never overwrite one.
	filter := bson.M{"id": runID, "status": bson.M{"$nin": bson.A{models.WorkflowCompleted, models.WorkflowFailed}}}
	if _, err := r.runs.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to mark run %s failed: %w", runID, err)
	}
	return nil
}

func (r *MongoWorkflowRepo) MarkCompleted(ctx context.Context, runID string) error {
	now := time.Now()
	update := bson.M{"$set": bson.M{
		"status":       models.WorkflowCompleted,
		"completed_at": now,
	}}
	filter := bson.M{"id": runID, "status": bson.M{"$ne": models.WorkflowFailed}}
	if _, err := r.runs.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to mark run %s completed: %w", runID, err)
	}
	return nil
}

// UpsertStep checkpoints a step record, keyed by (run, name) so replays
// overwrite rather than duplicate.
func (r *MongoWorkflowRepo) UpsertStep(ctx context.Context, step *models.WorkflowStep) error {
	filter := bson.M{"run_id": step.RunID, "name": step.Name}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.steps.ReplaceOne(ctx, filter, step, opts); err != nil {
		return fmt.Errorf("failed to upsert step %s for run %s: %w", step.Name, step.RunID, err)
	}
	return nil
}

func (r *MongoWorkflowRepo) GetStep(ctx context.Context, runID, name string) (*models.WorkflowStep, error) {
	var step models.WorkflowStep
	err := r.steps.FindOne(ctx, bson.M{"run_id": runID, "name": name}).Decode(&step)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load step %s for run %s: %w", name, runID, err)
	}
	return &step, nil
}
