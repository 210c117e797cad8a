package handlers

import (
	quoteRepo "limora/database/repository/quote"
	requestRepo "limora/database/repository/request"
	workflowRepo "limora/database/repository/workflow"
	"limora/services/workflow"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

// HandlerBundle groups the dependencies the HTTP handlers need.
type HandlerBundle struct {
	Requests   requestRepo.BookingRequestRepository
	Quotes     quoteRepo.QuoteRepository
	Workflows  workflowRepo.WorkflowRepository
	Events     *workflow.RedisEventSource
	Cache      *redis.Client
	TaskClient *asynq.Client
}
