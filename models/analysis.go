package models

// Recommendation statuses for a selection recommendation.
const (
	RecommendationOK       = "ok"
	RecommendationNoQuotes = "no-quotes"
)

// QuoteAnalysis is the derived scoring of a single provider quote.
// It is recomputed on demand and never the source of truth.
type QuoteAnalysis struct {
	QuoteID              string   `bson:"quote_id" json:"quoteId"`
	ProviderID           string   `bson:"provider_id" json:"providerId"`
	ProviderName         string   `bson:"provider_name" json:"providerName"`
	ViabilityScore       int      `bson:"viability_score" json:"viabilityScore"`             // 0-100
	SeriousnessScore     int      `bson:"seriousness_score" json:"seriousnessScore"`         // 0-100
	ProfessionalismScore int      `bson:"professionalism_score" json:"professionalismScore"` // 0-100
	OverallScore         int      `bson:"overall_score" json:"overallScore"`                 // 0.40v + 0.35s + 0.25p, rounded
	IsRecommended        bool     `bson:"is_recommended" json:"isRecommended"`
	Strengths            []string `bson:"strengths" json:"strengths"`  // max 4
	Concerns             []string `bson:"concerns" json:"concerns"`    // max 3
	KeyPoints            []string `bson:"key_points" json:"keyPoints"` // max 5
	RecommendationReason string   `bson:"recommendation_reason" json:"recommendationReason"`
}

// SelectionRecommendation is the derived, per-booking presentation decision:
// which quotes to show the customer, plus market-level statistics.
type SelectionRecommendation struct {
	Status            string          `bson:"status" json:"status"` // "ok" or "no-quotes"
	Selected          []QuoteAnalysis `bson:"selected" json:"selected"`
	Rejected          []QuoteAnalysis `bson:"rejected" json:"rejected"`
	AverageScore      int             `bson:"average_score" json:"averageScore"`
	MarketCompetition string          `bson:"market_competition" json:"marketCompetition"` // low, moderate, high
	ResponseQuality   string          `bson:"response_quality" json:"responseQuality"`     // poor, fair, good, excellent
	Confidence        string          `bson:"confidence" json:"confidence"`                // low, moderate, high
}
