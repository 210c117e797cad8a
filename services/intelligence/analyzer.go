package intelligence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"limora/models"

	"go.uber.org/zap"
)

// RequestAnalyzer produces a cleaned description and viability estimate for
// a booking request. The result only improves downstream messaging; the
// workflow never branches on it, so this must not fail.
type RequestAnalyzer interface {
	AnalyzeRequest(ctx context.Context, req *models.BookingRequest) *models.RequestAnalysis
}

// GeminiRequestAnalyzer uses the AI collaborator with a deterministic
// passthrough fallback.
type GeminiRequestAnalyzer struct {
	Client ContentGenerator
	Logger *zap.Logger
}

func (a *GeminiRequestAnalyzer) AnalyzeRequest(ctx context.Context, req *models.BookingRequest) *models.RequestAnalysis {
	if a.Client != nil {
		if analysis, err := a.analyzeWithAI(ctx, req); err == nil {
			return analysis
		} else if a.Logger != nil {
			a.Logger.Warn("AI request analysis failed, using fallback",
				zap.String("bookingRequestId", req.ID), zap.Error(err))
		}
	}
	return fallbackAnalysis(req)
}

func (a *GeminiRequestAnalyzer) analyzeWithAI(ctx context.Context, req *models.BookingRequest) (*models.RequestAnalysis, error) {
	prompt := fmt.Sprintf(
		"Rewrite this chauffeur booking request as one clear paragraph for service providers, "+
			"then rate how serviceable it is from 0 to 100. "+
			"Respond with JSON {\"refinedDescription\": string, \"viabilityScore\": int} only.\n\n"+
			"Pickup: %s\nDropoff: %s\nPickup time: %s\nPassengers: %d\nVehicle: %s\nSpecial requests: %s",
		req.PickupLocation, req.DropoffLocation, req.PickupTime.Format("Mon, 02 Jan 2006 15:04"),
		req.PassengerCount, req.VehicleType, req.SpecialRequests,
	)

	raw, err := a.Client.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		RefinedDescription string `json:"refinedDescription"`
		ViabilityScore     int    `json:"viabilityScore"`
	}
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse AI analysis: %w", err)
	}
	if strings.TrimSpace(parsed.RefinedDescription) == "" {
		return nil, fmt.Errorf("AI analysis returned empty description")
	}
	if parsed.ViabilityScore < 0 || parsed.ViabilityScore > 100 {
		return nil, fmt.Errorf("AI viability score %d out of range", parsed.ViabilityScore)
	}
	return &models.RequestAnalysis{
		RefinedDescription: parsed.RefinedDescription,
		ViabilityScore:     parsed.ViabilityScore,
		Source:             "ai",
	}, nil
}

// fallbackAnalysis composes the description directly from the request fields.
func fallbackAnalysis(req *models.BookingRequest) *models.RequestAnalysis {
	desc := fmt.Sprintf("%s ride for %d passenger(s) from %s to %s on %s",
		req.VehicleType, req.PassengerCount, req.PickupLocation, req.DropoffLocation,
		req.PickupTime.Format("Mon, 02 Jan 2006 15:04"))
	if s := strings.TrimSpace(req.SpecialRequests); s != "" {
		desc += ". Special requests: " + s
	}
	return &models.RequestAnalysis{
		RefinedDescription: desc,
		ViabilityScore:     70,
		Source:             "fallback",
	}
}
