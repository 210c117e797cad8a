package provider

import (
	"context"
	"fmt"

	"limora/database"
	"limora/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// SearchCriteria narrows the provider directory for matching.
type SearchCriteria struct {
	VehicleType   string
	MinPassengers int
	NearGeo       models.GeoPoint
	MaxDistanceKm float64
}

// ProviderRepository defines data access for the provider directory.
type ProviderRepository interface {
	GetByID(ctx context.Context, id string) (*models.Provider, error)
	Search(ctx context.Context, criteria SearchCriteria) ([]models.Provider, error)
}

// MongoProviderRepo implements ProviderRepository using MongoDB.
type MongoProviderRepo struct {
	coll *mongo.Collection
}

func NewMongoProviderRepo() *MongoProviderRepo {
	return &MongoProviderRepo{coll: database.Collection("providers")}
}

func (r *MongoProviderRepo) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	var p models.Provider
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&p); err != nil {
		return nil, fmt.Errorf("provider %s not found: %w", id, err)
	}
	return &p, nil
}

// Search runs a geo-near query constrained by vehicle type and capacity.
func (r *MongoProviderRepo) Search(ctx context.Context, criteria SearchCriteria) ([]models.Provider, error) {
	filter := bson.M{}
	if criteria.VehicleType != "" {
		filter["vehicle_types"] = criteria.VehicleType
	}
	if criteria.MinPassengers > 0 {
		filter["max_passengers"] = bson.M{"$gte": criteria.MinPassengers}
	}
	if len(criteria.NearGeo.Coordinates) >= 2 {
		filter["location_geo"] = bson.M{
			"$nearSphere": bson.M{
				"$geometry":    criteria.NearGeo,
				"$maxDistance": criteria.MaxDistanceKm * 1000,
			},
		}
	}

	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("provider search failed: %w", err)
	}
	defer cursor.Close(ctx)

	var providers []models.Provider
	if err := cursor.All(ctx, &providers); err != nil {
		return nil, fmt.Errorf("failed to decode providers: %w", err)
	}
	return providers, nil
}
