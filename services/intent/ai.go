package intent

import (
	"context"
	"encoding/json"
	"fmt"

	"limora/models"
	"limora/services/intelligence"

	"go.uber.org/zap"
)

// GeminiClassifier classifies replies through the AI collaborator, falling
// back to the keyword classifier on any failure.
type GeminiClassifier struct {
	Client   intelligence.ContentGenerator
	Fallback FallbackClassifier
	Logger   *zap.Logger
}

func (c *GeminiClassifier) Classify(ctx context.Context, action, message string) models.ConfirmationAnalysis {
	if c.Client == nil {
		return c.Fallback.Classify(ctx, action, message)
	}
	analysis, err := c.classifyWithAI(ctx, action, message)
	if err != nil {
		if c.Logger != nil {
			c.Logger.Warn("AI intent classification failed, using keyword fallback", zap.Error(err))
		}
		return c.Fallback.Classify(ctx, action, message)
	}
	return analysis
}

func (c *GeminiClassifier) classifyWithAI(ctx context.Context, action, message string) (models.ConfirmationAnalysis, error) {
	prompt := fmt.Sprintf(
		"A customer replied to a chauffeur booking quote. They pressed the %q button and wrote: %q\n\n"+
			"Classify the reply. Respond with JSON only: {\"intent\": one of "+
			"[\"confirm\",\"question\",\"concern\",\"cancellation\",\"other\"], "+
			"\"confidence\": 0-100, \"urgency\": one of [\"low\",\"medium\",\"high\"], "+
			"\"sentiment\": one of [\"positive\",\"neutral\",\"negative\"], "+
			"\"cleanedMessage\": string, "+
			"\"contact\": {\"name\": string, \"email\": string, \"phone\": string} or null}",
		action, message,
	)

	raw, err := c.Client.GenerateContent(ctx, prompt)
	if err != nil {
		return models.ConfirmationAnalysis{}, err
	}

	var parsed models.ConfirmationAnalysis
	if err := json.Unmarshal([]byte(intelligence.StripCodeFence(raw)), &parsed); err != nil {
		return models.ConfirmationAnalysis{}, fmt.Errorf("failed to parse AI classification: %w", err)
	}
	if !validIntent(parsed.Intent) {
		return models.ConfirmationAnalysis{}, fmt.Errorf("AI returned unknown intent %q", parsed.Intent)
	}
	if parsed.Confidence < 0 || parsed.Confidence > 100 {
		return models.ConfirmationAnalysis{}, fmt.Errorf("AI confidence %d out of range", parsed.Confidence)
	}

	// The requires-response rule is a local contract, not a model decision.
	parsed.RequiresResponse = parsed.Intent != models.IntentConfirm
	if parsed.CleanedMessage == "" {
		parsed.CleanedMessage = cleanMessage(message)
	}
	return parsed, nil
}

func validIntent(intent string) bool {
	switch intent {
	case models.IntentConfirm, models.IntentQuestion, models.IntentConcern,
		models.IntentCancellation, models.IntentOther:
		return true
	}
	return false
}
