package scoring

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"limora/models"
)

// Overall score weights. OverallScore is always reproducible from the three
// sub-scores through these.
const (
	weightViability       = 0.40
	weightSeriousness     = 0.35
	weightProfessionalism = 0.25
)

// Recommendation thresholds. All four must hold simultaneously.
const (
	thresholdOverall         = 65
	thresholdViability       = 60
	thresholdSeriousness     = 55
	thresholdProfessionalism = 50
)

// Score bands used to generate strengths and concerns.
const (
	bandExcellent = 85
	bandGood      = 70
	bandPoor      = 40
)

// Narrative list caps.
const (
	maxStrengths = 4
	maxConcerns  = 3
	maxKeyPoints = 5
)

// Price-per-hour sanity bounds, in minor currency units.
const (
	cheapPerHourCents     = 7500  // under $75/h reads as a competitive quote
	expensivePerHourCents = 40000 // over $400/h reads as an outlier
)

var positiveKeywords = []string{
	"available", "happy", "glad", "experienced", "luxury", "professional",
	"licensed", "insured", "complimentary", "guarantee", "punctual", "immaculate",
}

var concernKeywords = []string{
	"maybe", "might", "not sure", "possibly", "depends", "if possible",
	"can't promise", "no guarantee", "busy",
}

var professionalKeywords = []string{
	"chauffeur", "fleet", "vehicle", "service", "confirm", "itinerary",
	"pickup", "arrival", "reservation", "rate", "licensed", "insured",
}

var greetingKeywords = []string{
	"hello", "hi ", "good morning", "good afternoon", "good evening", "dear",
}

var politenessKeywords = []string{
	"please", "thank", "appreciate", "pleasure", "kindly", "regards",
}

// Cohort carries the shared inputs every quote of a booking is scored against.
type Cohort struct {
	Request    *models.BookingRequest
	AvgLatency time.Duration // mean response latency across all responded quotes
}

// Overall combines the three sub-scores into the weighted overall score,
// rounded and clamped to [0,100].
func Overall(viability, seriousness, professionalism int) int {
	raw := weightViability*float64(viability) +
		weightSeriousness*float64(seriousness) +
		weightProfessionalism*float64(professionalism)
	return clampScore(int(math.Round(raw)))
}

// MeetsRecommendation reports whether all four threshold conditions hold.
func MeetsRecommendation(overall, viability, seriousness, professionalism int) bool {
	return overall >= thresholdOverall &&
		viability >= thresholdViability &&
		seriousness >= thresholdSeriousness &&
		professionalism >= thresholdProfessionalism
}

// ScoreQuote derives the full analysis for one quote deterministically.
// It is the required fallback for the AI scorer and performs no I/O.
func ScoreQuote(q models.ProviderQuote, cohort Cohort) models.QuoteAnalysis {
	viability := viabilityScore(q, cohort)
	seriousness := seriousnessScore(q, cohort)
	professionalism := professionalismScore(q)
	overall := Overall(viability, seriousness, professionalism)
	recommended := MeetsRecommendation(overall, viability, seriousness, professionalism)

	strengths, concerns, keyPoints := narrative(q, viability, seriousness, professionalism, overall)

	return models.QuoteAnalysis{
		QuoteID:              q.ID,
		ProviderID:           q.ProviderID,
		ProviderName:         q.ProviderName,
		ViabilityScore:       viability,
		SeriousnessScore:     seriousness,
		ProfessionalismScore: professionalism,
		OverallScore:         overall,
		IsRecommended:        recommended,
		Strengths:            strengths,
		Concerns:             concerns,
		KeyPoints:            keyPoints,
		RecommendationReason: recommendationReason(recommended, viability, seriousness, professionalism, overall),
	}
}

func viabilityScore(q models.ProviderQuote, cohort Cohort) int {
	if q.Status == models.QuoteDeclined {
		return 0
	}
	score := 50
	note := strings.TrimSpace(q.ResponseNote)
	lower := strings.ToLower(note)

	if note == "" {
		score -= 30
	} else {
		switch n := len(note); {
		case n > 100:
			score += 15
		case n > 50:
			score += 10
		case n < 20:
			score -= 15
		}

		if special := strings.TrimSpace(cohort.Request.SpecialRequests); special != "" {
			if hasLexicalOverlap(lower, special) {
				score += 12
			} else {
				score -= 8
			}
		}

		score += capAt(countKeywords(lower, positiveKeywords)*4, 20)
		score -= capAt(countKeywords(lower, concernKeywords)*5, 15)
	}

	if cohort.Request.EstimatedHours > 0 && q.AmountCents > 0 {
		perHour := float64(q.AmountCents) / cohort.Request.EstimatedHours
		if perHour < cheapPerHourCents {
			score += 5
		} else if perHour > expensivePerHourCents {
			score -= 10
		}
	}

	return clampScore(score)
}

func seriousnessScore(q models.ProviderQuote, cohort Cohort) int {
	if q.Status == models.QuoteDeclined {
		return 0
	}
	score := 45
	note := strings.TrimSpace(q.ResponseNote)
	lower := strings.ToLower(note)

	score += capAt(countKeywords(lower, professionalKeywords)*5, 25)

	if cohort.AvgLatency > 0 && !q.RespondedAt.IsZero() {
		latency := q.RespondedAt.Sub(cohort.Request.CreatedAt)
		switch {
		case latency <= cohort.AvgLatency/2:
			score += 10
		case latency <= cohort.AvgLatency:
			score += 5
		case latency > 2*cohort.AvgLatency:
			score -= 10
		}
	}

	switch n := len(note); {
	case n > 150:
		score += 8
	case n > 80:
		score += 4
	}
	if countSentences(note) >= 2 {
		score += 4
	}

	rating := q.ProviderRating
	if rating > 5 {
		rating = 5
	}
	if rating > 0 {
		score += int(math.Round(rating / 5 * 8))
	}

	return clampScore(score)
}

func professionalismScore(q models.ProviderQuote) int {
	if q.Status == models.QuoteDeclined {
		// A polite decline with a stated reason still reflects well.
		if strings.TrimSpace(q.DeclineReason) != "" {
			return 60
		}
		return 20
	}

	score := 40
	note := strings.TrimSpace(q.ResponseNote)
	lower := strings.ToLower(note)

	if countSentences(note) >= 2 {
		score += 10
	}
	if countKeywords(lower, greetingKeywords) > 0 {
		score += 8
	}
	if countKeywords(lower, politenessKeywords) > 0 {
		score += 7
	}
	if startsCapitalized(note) {
		score += 5
	}

	switch n := len(note); {
	case n >= 30 && n <= 300:
		score += 15
	case n > 300:
		score += 8
	case n < 15:
		score -= 10
	}

	return clampScore(score)
}

func narrative(q models.ProviderQuote, viability, seriousness, professionalism, overall int) (strengths, concerns, keyPoints []string) {
	type band struct {
		name  string
		score int
	}
	for _, b := range []band{
		{"viability", viability},
		{"seriousness", seriousness},
		{"professionalism", professionalism},
	} {
		switch {
		case b.score >= bandExcellent:
			strengths = append(strengths, fmt.Sprintf("Excellent %s (%d)", b.name, b.score))
		case b.score >= bandGood:
			strengths = append(strengths, fmt.Sprintf("Good %s (%d)", b.name, b.score))
		case b.score <= bandPoor:
			concerns = append(concerns, fmt.Sprintf("Poor %s (%d)", b.name, b.score))
		}
	}
	if q.Status == models.QuoteDeclined {
		if strings.TrimSpace(q.DeclineReason) != "" {
			concerns = append(concerns, "Declined with reason: "+q.DeclineReason)
		} else {
			concerns = append(concerns, "Declined without explanation")
		}
	}

	keyPoints = append(keyPoints, fmt.Sprintf("Quoted %s", formatAmount(q.AmountCents)))
	keyPoints = append(keyPoints, fmt.Sprintf("Overall score %d/100", overall))
	if q.ProviderRating > 0 {
		keyPoints = append(keyPoints, fmt.Sprintf("Provider rating %.1f/5", q.ProviderRating))
	}
	if strings.TrimSpace(q.ResponseNote) != "" {
		keyPoints = append(keyPoints, fmt.Sprintf("Response of %d characters", len(strings.TrimSpace(q.ResponseNote))))
	}
	if q.Status != models.QuoteAccepted {
		keyPoints = append(keyPoints, "Status: "+q.Status)
	}

	if len(strengths) > maxStrengths {
		strengths = strengths[:maxStrengths]
	}
	if len(concerns) > maxConcerns {
		concerns = concerns[:maxConcerns]
	}
	if len(keyPoints) > maxKeyPoints {
		keyPoints = keyPoints[:maxKeyPoints]
	}
	return strengths, concerns, keyPoints
}

func recommendationReason(recommended bool, viability, seriousness, professionalism, overall int) string {
	if recommended {
		return "Meets all quality thresholds for presentation to the customer"
	}
	var failing []string
	if overall < thresholdOverall {
		failing = append(failing, fmt.Sprintf("overall %d below %d", overall, thresholdOverall))
	}
	if viability < thresholdViability {
		failing = append(failing, fmt.Sprintf("viability %d below %d", viability, thresholdViability))
	}
	if seriousness < thresholdSeriousness {
		failing = append(failing, fmt.Sprintf("seriousness %d below %d", seriousness, thresholdSeriousness))
	}
	if professionalism < thresholdProfessionalism {
		failing = append(failing, fmt.Sprintf("professionalism %d below %d", professionalism, thresholdProfessionalism))
	}
	return "Not recommended: " + strings.Join(failing, "; ")
}

// hasLexicalOverlap reports whether any meaningful word of the special
// requests text appears in the response.
func hasLexicalOverlap(lowerNote, specialRequests string) bool {
	for _, word := range strings.Fields(strings.ToLower(specialRequests)) {
		word = strings.Trim(word, ".,!?;:")
		if len(word) <= 3 {
			continue
		}
		if strings.Contains(lowerNote, word) {
			return true
		}
	}
	return false
}

func countKeywords(lower string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			count++
		}
	}
	return count
}

func countSentences(text string) int {
	count := 0
	for _, r := range text {
		if r == '.' || r == '!' || r == '?' {
			count++
		}
	}
	return count
}

func startsCapitalized(text string) bool {
	for _, r := range text {
		return unicode.IsUpper(r)
	}
	return false
}

func formatAmount(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

func capAt(v, max int) int {
	if v > max {
		return max
	}
	return v
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
