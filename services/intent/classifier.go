package intent

import (
	"context"
	"regexp"
	"strings"

	"limora/models"
)

// Classifier interprets a customer's free-text reply together with the
// structural action they took. Implementations never fail: the worst case
// is an "other" intent at low confidence.
type Classifier interface {
	Classify(ctx context.Context, action, message string) models.ConfirmationAnalysis
}

// Fallback keyword sets, checked in order. First match wins.
var confirmKeywords = []string{
	"confirm", "yes", "proceed", "accept", "sounds good", "go ahead", "book it", "perfect",
}

var questionKeywords = []string{
	"what", "how", "when", "where", "which", "can you", "could you", "?",
}

var concernKeywords = []string{
	"worried", "concern", "but ", "issue", "problem", "not sure", "hesitant",
}

var cancellationKeywords = []string{
	"cancel", "decline", "no longer", "changed my mind", "don't need", "withdraw",
}

var highUrgencyKeywords = []string{
	"urgent", "asap", "immediately", "right away", "emergency", "now",
}

var mediumUrgencyKeywords = []string{
	"soon", "today", "quickly", "this morning", "tonight",
}

var positiveSentimentKeywords = []string{
	"great", "perfect", "thank", "wonderful", "excellent", "love", "happy", "appreciate",
}

var negativeSentimentKeywords = []string{
	"worried", "issue", "problem", "bad", "unhappy", "disappointed", "cancel", "frustrat",
}

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9\-\s().]{6,}[0-9]`)
	namePattern  = regexp.MustCompile(`(?i)my name is ([A-Za-z]+(?: [A-Za-z]+)?)`)
)

// FallbackClassifier is the deterministic keyword classifier. It is the
// required path whenever the AI collaborator is unavailable.
type FallbackClassifier struct{}

func (FallbackClassifier) Classify(_ context.Context, action, message string) models.ConfirmationAnalysis {
	lower := strings.ToLower(message)

	intent, confidence := classifyIntent(lower)
	analysis := models.ConfirmationAnalysis{
		Intent:           intent,
		Confidence:       confidence,
		Urgency:          classifyUrgency(lower),
		Sentiment:        classifySentiment(lower),
		RequiresResponse: intent != models.IntentConfirm,
		Contact:          extractContact(message),
		CleanedMessage:   cleanMessage(message),
	}
	return analysis
}

func classifyIntent(lower string) (string, int) {
	switch {
	case containsAny(lower, confirmKeywords):
		return models.IntentConfirm, 70
	case containsAny(lower, questionKeywords):
		return models.IntentQuestion, 60
	case containsAny(lower, concernKeywords):
		return models.IntentConcern, 60
	case containsAny(lower, cancellationKeywords):
		return models.IntentCancellation, 70
	default:
		return models.IntentOther, 30
	}
}

func classifyUrgency(lower string) string {
	if containsAny(lower, highUrgencyKeywords) {
		return "high"
	}
	if containsAny(lower, mediumUrgencyKeywords) {
		return "medium"
	}
	return "low"
}

func classifySentiment(lower string) string {
	pos := countMatches(lower, positiveSentimentKeywords)
	neg := countMatches(lower, negativeSentimentKeywords)
	switch {
	case pos > neg:
		return "positive"
	case neg > pos:
		return "negative"
	default:
		return "neutral"
	}
}

// extractContact pulls contact fragments out of the message. Only fields
// actually found are included; nil means nothing was found.
func extractContact(message string) *models.ContactDetails {
	contact := &models.ContactDetails{}
	found := false

	if m := emailPattern.FindString(message); m != "" {
		contact.Email = m
		found = true
	}
	if m := phonePattern.FindString(message); m != "" {
		contact.Phone = strings.TrimSpace(m)
		found = true
	}
	if m := namePattern.FindStringSubmatch(message); len(m) > 1 {
		contact.Name = m[1]
		found = true
	}

	if !found {
		return nil
	}
	return contact
}

func cleanMessage(message string) string {
	return strings.Join(strings.Fields(message), " ")
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func countMatches(lower string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			count++
		}
	}
	return count
}
