package workflow

import (
	"context"
	"strconv"
	"time"

	quoteRepo "limora/database/repository/quote"
	"limora/models"

	"github.com/go-redis/redis/v8"
)

const responseCountTTL = 24 * time.Hour

func responseCountKey(runID string) string {
	return "workflow:responses:" + runID
}

// CachedResponseChecker counts provider responses from a Redis counter the
// quote-submission path increments, falling back to a MongoDB count when the
// counter is missing or stale. MongoDB is the source of truth; the counter
// only keeps the polling loop cheap.
type CachedResponseChecker struct {
	Cache  *redis.Client
	Quotes quoteRepo.QuoteRepository
}

func (c *CachedResponseChecker) CheckProviderResponses(ctx context.Context, runID string, providerIDs []string) (int, error) {
	if cached, err := c.Cache.Get(ctx, responseCountKey(runID)).Result(); err == nil {
		if n, convErr := strconv.Atoi(cached); convErr == nil {
			return n, nil
		}
	}

	n, err := c.Quotes.CountRespondedByRun(ctx, runID, providerIDs)
	if err != nil {
		return 0, err
	}
	c.Cache.Set(ctx, responseCountKey(runID), n, responseCountTTL)
	return n, nil
}

// RepoQuoteSource reads a run's quotes straight from the quote repository.
type RepoQuoteSource struct {
	Repo quoteRepo.QuoteRepository
}

func (s *RepoQuoteSource) QuotesForRun(ctx context.Context, runID string) ([]models.ProviderQuote, error) {
	return s.Repo.ListByRun(ctx, runID)
}

// BumpResponseCount records one more provider response for the run. Called
// by the quote-submission path after the quote is persisted.
func BumpResponseCount(ctx context.Context, cache *redis.Client, runID string) {
	key := responseCountKey(runID)
	if err := cache.Incr(ctx, key).Err(); err != nil {
		// The poller falls back to MongoDB, so a failed bump is harmless.
		return
	}
	cache.Expire(ctx, key, responseCountTTL)
}
