package models

// Provider is a chauffeur service provider in the directory.
type Provider struct {
	ID                string   `bson:"id" json:"id"`
	Name              string   `bson:"name" json:"name"`
	Rating            float64  `bson:"rating" json:"rating"` // 0-5
	CompletedBookings int      `bson:"completed_bookings" json:"completedBookings"`
	Verified          bool     `bson:"verified" json:"verified"`
	VehicleTypes      []string `bson:"vehicle_types" json:"vehicleTypes"`
	MaxPassengers     int      `bson:"max_passengers" json:"maxPassengers"`
	LocationGeo       GeoPoint `bson:"location_geo" json:"locationGeo"`
	FCMToken          string   `bson:"fcm_token,omitempty" json:"-"`
}

// ProviderDTO is the slim provider view handed to the workflow after matching.
type ProviderDTO struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Rating    float64  `json:"rating"`
	Verified  bool     `json:"verified"`
	Preferred bool     `json:"preferred"` // top-ranked match
	Proximity float64  `json:"proximity"` // metres from pickup
}
