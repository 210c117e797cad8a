package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"limora/models"

	"github.com/go-redis/redis/v8"
)

// AwaitEvent is the single-shot, deadline-bounded wait for the customer's
// selection event. Unlike the polling loop it does not retry: either the
// event arrives before the deadline or the caller decides the outcome.
func AwaitEvent(ctx context.Context, src EventSource, clk Clock, runID string, deadline time.Time) (*models.CustomerReply, bool, error) {
	timeout := deadline.Sub(clk.Now())
	if timeout <= 0 {
		return nil, true, nil
	}
	return src.WaitForEvent(ctx, runID, timeout)
}

// RedisEventSource delivers customer replies through a Redis list per run.
// Producers push with PublishReply; the workflow blocks on BLPOP.
type RedisEventSource struct {
	Client *redis.Client
}

func eventKey(runID string) string {
	return "workflow:events:" + runID
}

func (s *RedisEventSource) WaitForEvent(ctx context.Context, runID string, timeout time.Duration) (*models.CustomerReply, bool, error) {
	vals, err := s.Client.BLPop(ctx, timeout, eventKey(runID)).Result()
	if err == redis.Nil {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("event wait failed for run %s: %w", runID, err)
	}
	if len(vals) < 2 {
		return nil, false, fmt.Errorf("malformed event for run %s", runID)
	}

	var reply models.CustomerReply
	if err := json.Unmarshal([]byte(vals[1]), &reply); err != nil {
		return nil, false, fmt.Errorf("failed to decode event for run %s: %w", runID, err)
	}
	return &reply, false, nil
}

// PublishReply pushes a customer reply onto the run's event list. The key
// expires after a day so abandoned runs do not leak events.
func (s *RedisEventSource) PublishReply(ctx context.Context, reply *models.CustomerReply) error {
	data, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to marshal customer reply: %w", err)
	}
	key := eventKey(reply.WorkflowRunID)
	if err := s.Client.RPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("failed to publish customer reply: %w", err)
	}
	s.Client.Expire(ctx, key, 24*time.Hour)
	return nil
}
