package request

import (
	"context"
	"fmt"

	"limora/database"
	"limora/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// BookingRequestRepository defines data access for booking requests.
type BookingRequestRepository interface {
	Create(ctx context.Context, req *models.BookingRequest) error
	GetByID(ctx context.Context, id string) (*models.BookingRequest, error)
	UpdateStatus(ctx context.Context, id string, status string) error
}

// MongoBookingRequestRepo implements BookingRequestRepository using MongoDB.
type MongoBookingRequestRepo struct {
	coll *mongo.Collection
}

func NewMongoBookingRequestRepo() *MongoBookingRequestRepo {
	return &MongoBookingRequestRepo{coll: database.Collection("booking_requests")}
}

func (r *MongoBookingRequestRepo) Create(ctx context.Context, req *models.BookingRequest) error {
	if _, err := r.coll.InsertOne(ctx, req); err != nil {
		return fmt.Errorf("failed to insert booking request: %w", err)
	}
	return nil
}

func (r *MongoBookingRequestRepo) GetByID(ctx context.Context, id string) (*models.BookingRequest, error) {
	var req models.BookingRequest
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&req); err != nil {
		return nil, fmt.Errorf("booking request %s not found: %w", id, err)
	}
	return &req, nil
}

func (r *MongoBookingRequestRepo) UpdateStatus(ctx context.Context, id string, status string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return fmt.Errorf("failed to update booking request status: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("booking request %s not found", id)
	}
	return nil
}
