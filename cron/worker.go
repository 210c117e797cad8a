package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"limora/config"
	"limora/services/tasks"
	"limora/services/workflow"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

// InitFulfillmentWorker runs the async fulfillment worker in background.
// Concurrency stays low because each task may block for hours inside its
// polling and selection waits.
func InitFulfillmentWorker(orch *workflow.Orchestrator) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeFulfillBooking, handleFulfillTask(orch))

	// Start Redis health monitor
	go monitorRedisConnection()

	// Start async worker with retry logic
	go func() {
		log.Println("[FulfillmentWorker] Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[FulfillmentWorker] Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[FulfillmentWorker] Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

// handleFulfillTask runs one fulfillment workflow to a terminal state.
// Expected dead ends (no providers, timeouts) come back as failed results,
// not errors, so asynq never retries those. Tracker errors are returned so
// asynq re-runs the task and the workflow resumes from its checkpoints;
// initialization failures are marked fatal and skip the retry queue.
func handleFulfillTask(orch *workflow.Orchestrator) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p tasks.FulfillPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[FulfillmentHandler] Invalid payload: %v", err)
			return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
		}

		log.Printf("[FulfillmentHandler] Running workflow %s for request %s", p.WorkflowRunID, p.BookingRequestID)

		result, err := orch.Run(ctx, p.WorkflowRunID, p.BookingRequestID, p.Customer)
		if err != nil {
			var te *workflow.TrackerError
			if errors.As(err, &te) && te.Fatal {
				log.Printf("[FulfillmentHandler] Fatal error in run %s: %v", p.WorkflowRunID, err)
				return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
			}
			log.Printf("[FulfillmentHandler] Run %s will be retried: %v", p.WorkflowRunID, err)
			return err
		}

		log.Printf("[FulfillmentHandler] Run %s finished: %s (%s)", p.WorkflowRunID, result.Status, result.Message)
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[FulfillmentWorker] Redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
