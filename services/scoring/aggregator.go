package scoring

import (
	"context"
	"math"
	"sort"
	"time"

	"limora/models"

	"go.uber.org/zap"
)

// maxSelected caps how many quotes are presented to the customer.
const maxSelected = 3

// Market competition levels, by response count.
const (
	CompetitionLow      = "low"
	CompetitionModerate = "moderate"
	CompetitionHigh     = "high"
)

// Response quality buckets, by mean professionalism.
const (
	QualityPoor      = "poor"
	QualityFair      = "fair"
	QualityGood      = "good"
	QualityExcellent = "excellent"
)

// Outcome pairs the per-quote analyses with the selection recommendation.
type Outcome struct {
	Analyses       []models.QuoteAnalysis
	Recommendation models.SelectionRecommendation
}

// QuoteScorer scores a batch of quotes for one booking. Implementations may
// call an AI collaborator but must fall back to the deterministic path.
type QuoteScorer interface {
	ScoreQuotes(ctx context.Context, req *models.BookingRequest, quotes []models.ProviderQuote) []models.QuoteAnalysis
}

// DeterministicScorer is the pure fallback scorer.
type DeterministicScorer struct{}

func (DeterministicScorer) ScoreQuotes(_ context.Context, req *models.BookingRequest, quotes []models.ProviderQuote) []models.QuoteAnalysis {
	cohort := Cohort{Request: req, AvgLatency: averageLatency(req, quotes)}
	analyses := make([]models.QuoteAnalysis, 0, len(quotes))
	for _, q := range quotes {
		analyses = append(analyses, ScoreQuote(q, cohort))
	}
	return analyses
}

// averageLatency is the mean response latency across responded quotes.
func averageLatency(req *models.BookingRequest, quotes []models.ProviderQuote) time.Duration {
	var total time.Duration
	var n int
	for _, q := range quotes {
		if q.Status == models.QuotePending || q.RespondedAt.IsZero() {
			continue
		}
		if lat := q.RespondedAt.Sub(req.CreatedAt); lat > 0 {
			total += lat
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / time.Duration(n)
}

// Aggregator turns the raw quotes of a booking into a selection recommendation.
type Aggregator interface {
	Aggregate(ctx context.Context, req *models.BookingRequest, quotes []models.ProviderQuote) *Outcome
}

// DefaultAggregator implements Aggregator.
type DefaultAggregator struct {
	Scorer QuoteScorer
	Logger *zap.Logger
}

// Aggregate scores every quote, derives market statistics and selects the
// quotes to present. An empty input yields a well-defined no-quotes result.
func (a *DefaultAggregator) Aggregate(ctx context.Context, req *models.BookingRequest, quotes []models.ProviderQuote) *Outcome {
	if len(quotes) == 0 {
		return &Outcome{
			Analyses: []models.QuoteAnalysis{},
			Recommendation: models.SelectionRecommendation{
				Status:            models.RecommendationNoQuotes,
				Selected:          []models.QuoteAnalysis{},
				Rejected:          []models.QuoteAnalysis{},
				MarketCompetition: CompetitionLow,
				ResponseQuality:   QualityPoor,
				Confidence:        "low",
			},
		}
	}

	analyses := a.Scorer.ScoreQuotes(ctx, req, quotes)

	sorted := make([]models.QuoteAnalysis, len(analyses))
	copy(sorted, analyses)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OverallScore > sorted[j].OverallScore
	})

	var selected, rejected []models.QuoteAnalysis
	for _, qa := range sorted {
		if qa.IsRecommended && len(selected) < maxSelected {
			selected = append(selected, qa)
		} else {
			rejected = append(rejected, qa)
		}
	}
	// A booking must always have at least one candidate to show the customer
	// when quotes exist: force-select the highest-scoring analysis.
	forced := false
	if len(selected) == 0 {
		selected = sorted[:1]
		rejected = sorted[1:]
		forced = true
		if a.Logger != nil {
			a.Logger.Info("No quotes met recommendation thresholds, force-selecting highest",
				zap.String("bookingRequestId", req.ID),
				zap.String("quoteId", selected[0].QuoteID),
				zap.Int("overallScore", selected[0].OverallScore))
		}
	}

	avg := averageOverall(analyses)
	rec := models.SelectionRecommendation{
		Status:            models.RecommendationOK,
		Selected:          selected,
		Rejected:          rejected,
		AverageScore:      avg,
		MarketCompetition: competitionLevel(len(analyses)),
		ResponseQuality:   qualityBucket(analyses),
		Confidence:        confidenceRating(forced, avg),
	}
	return &Outcome{Analyses: analyses, Recommendation: rec}
}

func averageOverall(analyses []models.QuoteAnalysis) int {
	if len(analyses) == 0 {
		return 0
	}
	sum := 0
	for _, qa := range analyses {
		sum += qa.OverallScore
	}
	return int(math.Round(float64(sum) / float64(len(analyses))))
}

func competitionLevel(responses int) string {
	switch {
	case responses < 3:
		return CompetitionLow
	case responses < 5:
		return CompetitionModerate
	default:
		return CompetitionHigh
	}
}

func qualityBucket(analyses []models.QuoteAnalysis) string {
	if len(analyses) == 0 {
		return QualityPoor
	}
	sum := 0
	for _, qa := range analyses {
		sum += qa.ProfessionalismScore
	}
	mean := float64(sum) / float64(len(analyses))
	switch {
	case mean < 40:
		return QualityPoor
	case mean < 55:
		return QualityFair
	case mean < 70:
		return QualityGood
	default:
		return QualityExcellent
	}
}

func confidenceRating(forced bool, avgScore int) string {
	switch {
	case forced:
		return "low"
	case avgScore >= 70:
		return "high"
	default:
		return "moderate"
	}
}
