package quote

import (
	"context"
	"fmt"

	"limora/database"
	"limora/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// QuoteRepository defines data access for provider quotes.
type QuoteRepository interface {
	Insert(ctx context.Context, q *models.ProviderQuote) error
	GetByID(ctx context.Context, id string) (*models.ProviderQuote, error)
	ListByRun(ctx context.Context, runID string) ([]models.ProviderQuote, error)
	CountRespondedByRun(ctx context.Context, runID string, providerIDs []string) (int, error)
}

// MongoQuoteRepo implements QuoteRepository using MongoDB.
type MongoQuoteRepo struct {
	coll *mongo.Collection
}

func NewMongoQuoteRepo() *MongoQuoteRepo {
	return &MongoQuoteRepo{coll: database.Collection("provider_quotes")}
}

func (r *MongoQuoteRepo) Insert(ctx context.Context, q *models.ProviderQuote) error {
	if _, err := r.coll.InsertOne(ctx, q); err != nil {
		return fmt.Errorf("failed to insert provider quote: %w", err)
	}
	return nil
}

func (r *MongoQuoteRepo) GetByID(ctx context.Context, id string) (*models.ProviderQuote, error) {
	var q models.ProviderQuote
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&q); err != nil {
		return nil, fmt.Errorf("quote %s not found: %w", id, err)
	}
	return &q, nil
}

func (r *MongoQuoteRepo) ListByRun(ctx context.Context, runID string) ([]models.ProviderQuote, error) {
	opts := options.Find().SetSort(bson.M{"responded_at": 1})
	cursor, err := r.coll.Find(ctx, bson.M{"workflow_run_id": runID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes for run %s: %w", runID, err)
	}
	defer cursor.Close(ctx)

	var quotes []models.ProviderQuote
	if err := cursor.All(ctx, &quotes); err != nil {
		return nil, fmt.Errorf("failed to decode quotes for run %s: %w", runID, err)
	}
	return quotes, nil
}

// CountRespondedByRun counts non-pending quotes from the run's provider set.
func (r *MongoQuoteRepo) CountRespondedByRun(ctx context.Context, runID string, providerIDs []string) (int, error) {
	filter := bson.M{
		"workflow_run_id": runID,
		"provider_id":     bson.M{"$in": providerIDs},
		"status":          bson.M{"$ne": models.QuotePending},
	}
	n, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count responses for run %s: %w", runID, err)
	}
	return int(n), nil
}
