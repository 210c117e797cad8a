package models

// GeoPoint is a GeoJSON point.
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`               // Always "Point"
	Coordinates []float64 `bson:"coordinates" json:"coordinates"` // [longitude, latitude]
}

// Customer is the minimal customer identity threaded through a workflow run.
type Customer struct {
	ID       string `bson:"id" json:"id"`
	Name     string `bson:"name" json:"name"`
	Contact  string `bson:"contact" json:"contact"`                       // email or phone
	FCMToken string `bson:"fcm_token,omitempty" json:"fcmToken,omitempty"` // push target, if the customer has the app
}
