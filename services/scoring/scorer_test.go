package scoring

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"limora/models"
)

func testRequest() *models.BookingRequest {
	return &models.BookingRequest{
		ID:              "req-1",
		PickupLocation:  "JFK Airport",
		DropoffLocation: "Manhattan",
		PassengerCount:  2,
		VehicleType:     "sedan",
		CreatedAt:       time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestOverallIsWeightedRoundedClamped(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		v := rng.Intn(101)
		s := rng.Intn(101)
		p := rng.Intn(101)

		want := int(math.Round(0.40*float64(v) + 0.35*float64(s) + 0.25*float64(p)))
		if want < 0 {
			want = 0
		}
		if want > 100 {
			want = 100
		}
		if got := Overall(v, s, p); got != want {
			t.Fatalf("Overall(%d, %d, %d) = %d, want %d", v, s, p, got, want)
		}
	}
}

func TestMeetsRecommendationThresholds(t *testing.T) {
	cases := []struct {
		name                                      string
		overall, viability, seriousness, profness int
		want                                      bool
	}{
		{"all at threshold", 65, 60, 55, 50, true},
		{"all above", 90, 80, 70, 60, true},
		{"overall one below", 64, 60, 55, 50, false},
		{"viability one below", 65, 59, 55, 50, false},
		{"seriousness one below", 65, 60, 54, 50, false},
		{"professionalism one below", 65, 60, 55, 49, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MeetsRecommendation(tc.overall, tc.viability, tc.seriousness, tc.profness)
			if got != tc.want {
				t.Fatalf("MeetsRecommendation(%d, %d, %d, %d) = %v, want %v",
					tc.overall, tc.viability, tc.seriousness, tc.profness, got, tc.want)
			}
		})
	}
}

func TestScoreQuoteDeclinedWithReason(t *testing.T) {
	q := models.ProviderQuote{
		ID:            "q-1",
		ProviderID:    "p-1",
		Status:        models.QuoteDeclined,
		DeclineReason: "Fully booked that evening",
	}
	qa := ScoreQuote(q, Cohort{Request: testRequest()})

	if qa.ViabilityScore != 0 {
		t.Errorf("declined quote viability = %d, want 0", qa.ViabilityScore)
	}
	if qa.SeriousnessScore != 0 {
		t.Errorf("declined quote seriousness = %d, want 0", qa.SeriousnessScore)
	}
	if qa.ProfessionalismScore != 60 {
		t.Errorf("declined-with-reason professionalism = %d, want 60", qa.ProfessionalismScore)
	}
	if qa.IsRecommended {
		t.Error("declined quote must never be recommended")
	}
}

func TestScoreQuoteDeclinedWithoutReason(t *testing.T) {
	q := models.ProviderQuote{ID: "q-1", Status: models.QuoteDeclined}
	qa := ScoreQuote(q, Cohort{Request: testRequest()})

	if qa.ProfessionalismScore != 20 {
		t.Errorf("declined-without-reason professionalism = %d, want 20", qa.ProfessionalismScore)
	}
	if qa.ViabilityScore != 0 || qa.SeriousnessScore != 0 {
		t.Errorf("declined quote scored viability=%d seriousness=%d, want 0/0",
			qa.ViabilityScore, qa.SeriousnessScore)
	}
}

func TestScoreQuoteStrongResponseIsRecommended(t *testing.T) {
	req := testRequest()
	q := models.ProviderQuote{
		ID:             "q-1",
		ProviderID:     "p-1",
		ProviderName:   "Skyline Limos",
		ProviderRating: 4.8,
		AmountCents:    25000,
		Status:         models.QuoteAccepted,
		ResponseNote: "Hello! We would be happy to confirm your reservation. Our licensed and " +
			"insured chauffeur will handle the pickup with a luxury vehicle. Please share any " +
			"itinerary details. Thank you!",
		RespondedAt: req.CreatedAt.Add(10 * time.Minute),
	}
	qa := ScoreQuote(q, Cohort{Request: req, AvgLatency: 20 * time.Minute})

	if !qa.IsRecommended {
		t.Fatalf("strong response not recommended: v=%d s=%d p=%d overall=%d reason=%q",
			qa.ViabilityScore, qa.SeriousnessScore, qa.ProfessionalismScore,
			qa.OverallScore, qa.RecommendationReason)
	}
	if want := Overall(qa.ViabilityScore, qa.SeriousnessScore, qa.ProfessionalismScore); qa.OverallScore != want {
		t.Errorf("OverallScore %d not reproducible from sub-scores, want %d", qa.OverallScore, want)
	}
	if len(qa.Strengths) > 4 || len(qa.Concerns) > 3 || len(qa.KeyPoints) > 5 {
		t.Errorf("narrative lists over cap: strengths=%d concerns=%d keyPoints=%d",
			len(qa.Strengths), len(qa.Concerns), len(qa.KeyPoints))
	}
}

func TestScoreQuoteEmptyNoteNotRecommended(t *testing.T) {
	q := models.ProviderQuote{
		ID:          "q-1",
		AmountCents: 20000,
		Status:      models.QuoteAccepted,
	}
	qa := ScoreQuote(q, Cohort{Request: testRequest()})

	if qa.IsRecommended {
		t.Error("empty-note quote should not be recommended")
	}
	if qa.ViabilityScore >= 60 {
		t.Errorf("empty-note viability = %d, expected below recommendation threshold", qa.ViabilityScore)
	}
}

func TestScoreQuoteScoresStayInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	notes := []string{
		"", "ok", "Maybe, depends on traffic. Not sure. Can't promise anything, might be busy.",
		"Hello! Licensed, insured, luxury fleet. Happy to confirm. Thank you kindly, regards.",
	}
	req := testRequest()
	req.SpecialRequests = "child seat and bottled water"
	req.EstimatedHours = 3

	for i := 0; i < 200; i++ {
		q := models.ProviderQuote{
			ID:             "q-1",
			Status:         models.QuoteAccepted,
			AmountCents:    int64(rng.Intn(200000)),
			ProviderRating: rng.Float64() * 6,
			ResponseNote:   notes[rng.Intn(len(notes))],
			RespondedAt:    req.CreatedAt.Add(time.Duration(rng.Intn(120)) * time.Minute),
		}
		qa := ScoreQuote(q, Cohort{Request: req, AvgLatency: 30 * time.Minute})
		for name, score := range map[string]int{
			"viability":       qa.ViabilityScore,
			"seriousness":     qa.SeriousnessScore,
			"professionalism": qa.ProfessionalismScore,
			"overall":         qa.OverallScore,
		} {
			if score < 0 || score > 100 {
				t.Fatalf("%s score %d out of [0,100] for note %q", name, score, q.ResponseNote)
			}
		}
	}
}
