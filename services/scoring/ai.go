package scoring

import (
	"context"
	"encoding/json"
	"fmt"

	"limora/models"
	"limora/services/intelligence"

	"go.uber.org/zap"
)

// GeminiScorer scores quotes through the AI collaborator and falls back to
// the deterministic scorer on any failure. Sub-scores come from the model;
// the overall score and the recommendation decision are always recomputed
// locally so the weighted-combination and threshold contracts hold on both
// paths.
type GeminiScorer struct {
	Client   intelligence.ContentGenerator
	Fallback DeterministicScorer
	Logger   *zap.Logger
}

func (s *GeminiScorer) ScoreQuotes(ctx context.Context, req *models.BookingRequest, quotes []models.ProviderQuote) []models.QuoteAnalysis {
	if s.Client == nil {
		return s.Fallback.ScoreQuotes(ctx, req, quotes)
	}
	analyses, err := s.scoreWithAI(ctx, req, quotes)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("AI quote scoring failed, using deterministic fallback",
				zap.String("bookingRequestId", req.ID), zap.Error(err))
		}
		return s.Fallback.ScoreQuotes(ctx, req, quotes)
	}
	return analyses
}

func (s *GeminiScorer) scoreWithAI(ctx context.Context, req *models.BookingRequest, quotes []models.ProviderQuote) ([]models.QuoteAnalysis, error) {
	payload, err := json.Marshal(quotes)
	if err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf(
		"Score each chauffeur quote below for the given booking. For each quote return "+
			"viabilityScore, seriousnessScore and professionalismScore (integers 0-100), plus "+
			"strengths (max 4), concerns (max 3) and keyPoints (max 5) as short strings. "+
			"Respond with a JSON array of objects {\"quoteId\", \"viabilityScore\", \"seriousnessScore\", "+
			"\"professionalismScore\", \"strengths\", \"concerns\", \"keyPoints\"} only.\n\n"+
			"Booking: %s to %s, %d passenger(s), vehicle %s, special requests: %q\n\nQuotes: %s",
		req.PickupLocation, req.DropoffLocation, req.PassengerCount, req.VehicleType,
		req.SpecialRequests, string(payload),
	)

	raw, err := s.Client.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed []struct {
		QuoteID              string   `json:"quoteId"`
		ViabilityScore       int      `json:"viabilityScore"`
		SeriousnessScore     int      `json:"seriousnessScore"`
		ProfessionalismScore int      `json:"professionalismScore"`
		Strengths            []string `json:"strengths"`
		Concerns             []string `json:"concerns"`
		KeyPoints            []string `json:"keyPoints"`
	}
	if err := json.Unmarshal([]byte(intelligence.StripCodeFence(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse AI scores: %w", err)
	}

	byID := make(map[string]int, len(parsed))
	for i, p := range parsed {
		byID[p.QuoteID] = i
	}

	analyses := make([]models.QuoteAnalysis, 0, len(quotes))
	for _, q := range quotes {
		i, ok := byID[q.ID]
		if !ok {
			return nil, fmt.Errorf("AI response missing quote %s", q.ID)
		}
		p := parsed[i]
		if !validScore(p.ViabilityScore) || !validScore(p.SeriousnessScore) || !validScore(p.ProfessionalismScore) {
			return nil, fmt.Errorf("AI scores out of range for quote %s", q.ID)
		}
		viability, seriousness := p.ViabilityScore, p.SeriousnessScore
		if q.Status == models.QuoteDeclined {
			// Declined quotes score zero viability and seriousness on every path.
			viability, seriousness = 0, 0
		}
		overall := Overall(viability, seriousness, p.ProfessionalismScore)
		recommended := MeetsRecommendation(overall, viability, seriousness, p.ProfessionalismScore)
		analyses = append(analyses, models.QuoteAnalysis{
			QuoteID:              q.ID,
			ProviderID:           q.ProviderID,
			ProviderName:         q.ProviderName,
			ViabilityScore:       viability,
			SeriousnessScore:     seriousness,
			ProfessionalismScore: p.ProfessionalismScore,
			OverallScore:         overall,
			IsRecommended:        recommended,
			Strengths:            capList(p.Strengths, maxStrengths),
			Concerns:             capList(p.Concerns, maxConcerns),
			KeyPoints:            capList(p.KeyPoints, maxKeyPoints),
			RecommendationReason: recommendationReason(recommended, viability, seriousness, p.ProfessionalismScore, overall),
		})
	}
	return analyses, nil
}

func validScore(v int) bool {
	return v >= 0 && v <= 100
}

func capList(list []string, n int) []string {
	if len(list) > n {
		return list[:n]
	}
	return list
}
