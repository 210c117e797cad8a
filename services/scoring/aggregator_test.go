package scoring

import (
	"context"
	"fmt"
	"testing"
	"time"

	"limora/models"
)

const strongNote = "Hello! We would be happy to confirm your reservation. Our licensed and " +
	"insured chauffeur will handle the pickup with a luxury vehicle. Please share any " +
	"itinerary details. Thank you!"

func strongQuote(i int, req *models.BookingRequest) models.ProviderQuote {
	return models.ProviderQuote{
		ID:             fmt.Sprintf("q-%d", i),
		ProviderID:     fmt.Sprintf("p-%d", i),
		ProviderName:   fmt.Sprintf("Provider %d", i),
		ProviderRating: 4.5,
		AmountCents:    20000 + int64(i)*1000,
		Status:         models.QuoteAccepted,
		ResponseNote:   strongNote,
		RespondedAt:    req.CreatedAt.Add(15 * time.Minute),
	}
}

func newAggregator() *DefaultAggregator {
	return &DefaultAggregator{Scorer: DeterministicScorer{}}
}

func TestAggregateNoQuotes(t *testing.T) {
	out := newAggregator().Aggregate(context.Background(), testRequest(), nil)

	rec := out.Recommendation
	if rec.Status != models.RecommendationNoQuotes {
		t.Fatalf("status = %q, want %q", rec.Status, models.RecommendationNoQuotes)
	}
	if len(rec.Selected) != 0 || len(rec.Rejected) != 0 {
		t.Errorf("no-quotes result has selections: selected=%d rejected=%d",
			len(rec.Selected), len(rec.Rejected))
	}
	if rec.Confidence != "low" {
		t.Errorf("confidence = %q, want low", rec.Confidence)
	}
	if rec.MarketCompetition != CompetitionLow {
		t.Errorf("competition = %q, want %q", rec.MarketCompetition, CompetitionLow)
	}
}

func TestAggregateForceSelectsHighestWhenNoneRecommended(t *testing.T) {
	req := testRequest()
	quotes := []models.ProviderQuote{
		{ID: "q-1", ProviderID: "p-1", AmountCents: 20000, Status: models.QuoteAccepted,
			ResponseNote: "ok", RespondedAt: req.CreatedAt.Add(time.Hour)},
		{ID: "q-2", ProviderID: "p-2", Status: models.QuoteDeclined},
	}
	out := newAggregator().Aggregate(context.Background(), req, quotes)

	rec := out.Recommendation
	if rec.Status != models.RecommendationOK {
		t.Fatalf("status = %q, want %q", rec.Status, models.RecommendationOK)
	}
	if len(rec.Selected) != 1 {
		t.Fatalf("selected %d quotes, want exactly 1 force-selected", len(rec.Selected))
	}
	if rec.Selected[0].IsRecommended {
		t.Error("force-selected quote should not be marked recommended")
	}
	for _, qa := range rec.Rejected {
		if qa.OverallScore > rec.Selected[0].OverallScore {
			t.Errorf("rejected quote %s scores %d, above selected %d",
				qa.QuoteID, qa.OverallScore, rec.Selected[0].OverallScore)
		}
	}
	if rec.Confidence != "low" {
		t.Errorf("forced selection confidence = %q, want low", rec.Confidence)
	}
}

func TestAggregateCapsSelectionAtThree(t *testing.T) {
	req := testRequest()
	var quotes []models.ProviderQuote
	for i := 1; i <= 5; i++ {
		quotes = append(quotes, strongQuote(i, req))
	}
	out := newAggregator().Aggregate(context.Background(), req, quotes)

	rec := out.Recommendation
	if len(rec.Selected) != 3 {
		t.Fatalf("selected %d quotes, want 3", len(rec.Selected))
	}
	if len(rec.Rejected) != 2 {
		t.Fatalf("rejected %d quotes, want 2", len(rec.Rejected))
	}
	if len(out.Analyses) != 5 {
		t.Fatalf("analyses %d, want 5", len(out.Analyses))
	}
	if rec.MarketCompetition != CompetitionHigh {
		t.Errorf("competition with 5 responses = %q, want %q", rec.MarketCompetition, CompetitionHigh)
	}
	for i := 1; i < len(rec.Selected); i++ {
		if rec.Selected[i].OverallScore > rec.Selected[i-1].OverallScore {
			t.Error("selected quotes not ordered by overall score")
		}
	}
}

func TestAggregateCompetitionLevels(t *testing.T) {
	req := testRequest()
	cases := []struct {
		quotes int
		want   string
	}{
		{1, CompetitionLow},
		{2, CompetitionLow},
		{3, CompetitionModerate},
		{4, CompetitionModerate},
		{5, CompetitionHigh},
	}
	for _, tc := range cases {
		var quotes []models.ProviderQuote
		for i := 1; i <= tc.quotes; i++ {
			quotes = append(quotes, strongQuote(i, req))
		}
		out := newAggregator().Aggregate(context.Background(), req, quotes)
		if got := out.Recommendation.MarketCompetition; got != tc.want {
			t.Errorf("competition with %d quotes = %q, want %q", tc.quotes, got, tc.want)
		}
	}
}

func TestAggregateResponseQualityTracksProfessionalism(t *testing.T) {
	req := testRequest()

	// Strong notes push mean professionalism past the excellent boundary.
	out := newAggregator().Aggregate(context.Background(), req, []models.ProviderQuote{
		strongQuote(1, req), strongQuote(2, req),
	})
	if got := out.Recommendation.ResponseQuality; got != QualityExcellent {
		t.Errorf("quality for strong notes = %q, want %q", got, QualityExcellent)
	}

	// Reasonless declines hold professionalism at 20, the poor bucket.
	out = newAggregator().Aggregate(context.Background(), req, []models.ProviderQuote{
		{ID: "q-1", Status: models.QuoteDeclined},
		{ID: "q-2", Status: models.QuoteDeclined},
	})
	if got := out.Recommendation.ResponseQuality; got != QualityPoor {
		t.Errorf("quality for reasonless declines = %q, want %q", got, QualityPoor)
	}
}
