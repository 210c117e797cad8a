package models

import "time"

// BookingRequest is the immutable record of what the customer asked for.
// It is created by the booking-intake path and read-only to the fulfillment workflow.
type BookingRequest struct {
	ID              string    `bson:"id" json:"id"`
	CustomerID      string    `bson:"customer_id" json:"customerId"`
	PickupLocation  string    `bson:"pickup_location" json:"pickupLocation"`
	PickupGeo       GeoPoint  `bson:"pickup_geo" json:"pickupGeo"`
	DropoffLocation string    `bson:"dropoff_location" json:"dropoffLocation"`
	PickupTime      time.Time `bson:"pickup_time" json:"pickupTime"`
	EstimatedHours  float64   `bson:"estimated_hours" json:"estimatedHours"` // trip length estimate, used for price sanity checks
	PassengerCount  int       `bson:"passenger_count" json:"passengerCount"`
	VehicleType     string    `bson:"vehicle_type" json:"vehicleType"` // e.g. "sedan", "stretch", "suv", "sprinter"
	SpecialRequests string    `bson:"special_requests" json:"specialRequests"`
	Status          string    `bson:"status" json:"status"` // e.g. "open", "fulfilling", "booked", "closed"
	CreatedAt       time.Time `bson:"created_at" json:"createdAt"`
}

// RequestAnalysis is the AI-assisted cleanup of a booking request.
// It only improves downstream messaging; it never affects control flow.
type RequestAnalysis struct {
	RefinedDescription string `bson:"refined_description" json:"refinedDescription"`
	ViabilityScore     int    `bson:"viability_score" json:"viabilityScore"` // 0-100
	Source             string `bson:"source" json:"source"`                  // "ai" or "fallback"
}
