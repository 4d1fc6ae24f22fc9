package evaluation

import (
	"regexp"
	"strings"

	"github.com/voxprep/interview-evaluator/internal/domain"
)

// The scoring heuristic is intentionally simple and explainable: it turns
// the model's prose plus transcription metadata into a stable numeric
// signal for charts and trend lines. Every score starts from a fixed base,
// is adjusted by additive terms, and is clamped to [0,100]. More strengths
// never lower a score, more weaknesses never raise one, and more filler
// never helps communication.

var (
	clarityStrengthRe  = regexp.MustCompile(`(?i)clear|concise|well-structured`)
	clarityWeaknessRe  = regexp.MustCompile(`(?i)unclear|confusing|rambling`)
	technicalTermRe    = regexp.MustCompile(`(?i)technical|algorithm|system|design|code|implementation`)
	fillerWordRe       = regexp.MustCompile(`(?i)um|uh|like|you know|sort of`)
	sentenceBoundaryRe = regexp.MustCompile(`[.!?]+`)
	wordSplitRe        = regexp.MustCompile(`\s+`)
)

// Scorer computes bounded sub-scores and the overall score from a
// transcript and a parsed analysis.
type Scorer struct{}

// NewScorer returns the default scoring engine.
func NewScorer() Scorer { return Scorer{} }

// OverallScore combines sentiment ratio, entity count, and the parsed
// strengths/weaknesses into one clamped score.
//
// base 70, += positiveRatio*10, += min(entities*2, 10),
// += strengths*3, -= weaknesses*2.
func (Scorer) OverallScore(tr domain.Transcript, a domain.Analysis) float64 {
	score := 70.0
	score += positiveRatio(tr.Sentiments) * 10

	entityBoost := float64(len(tr.Entities)) * 2
	if entityBoost > 10 {
		entityBoost = 10
	}
	score += entityBoost

	score += float64(len(a.Strengths)) * 3
	score -= float64(len(a.Weaknesses)) * 2
	return clamp(score)
}

// Metrics computes the four sub-scores.
func (s Scorer) Metrics(tr domain.Transcript, a domain.Analysis) domain.Metrics {
	return domain.Metrics{
		Clarity:           s.clarity(tr, a),
		Relevance:         s.relevance(a),
		TechnicalAccuracy: s.technicalAccuracy(a),
		Communication:     s.communication(tr),
	}
}

// clarity: base 80; -10 when the average words-per-sentence exceeds 25 or
// falls below 5; +10 when a strength mentions clarity; -15 when a weakness
// mentions confusion. A transcript with no sentences takes no length
// penalty.
func (Scorer) clarity(tr domain.Transcript, a domain.Analysis) float64 {
	score := 80.0

	sentences := splitSentences(tr.Text)
	if len(sentences) > 0 {
		total := 0
		for _, s := range sentences {
			total += len(splitWords(s))
		}
		avg := float64(total) / float64(len(sentences))
		if avg > 25 {
			score -= 10
		}
		if avg < 5 {
			score -= 10
		}
	}

	if anyMatch(a.Strengths, clarityStrengthRe) {
		score += 10
	}
	if anyMatch(a.Weaknesses, clarityWeaknessRe) {
		score -= 15
	}
	return clamp(score)
}

// relevance: base 75; +5 per extracted key point; +10 when the analysis
// says the answer directly addressed the question; -15 when it calls the
// answer off-topic.
func (Scorer) relevance(a domain.Analysis) float64 {
	score := 75.0
	score += float64(len(a.KeyPoints)) * 5
	lower := strings.ToLower(a.Content)
	if strings.Contains(lower, "directly addressed") {
		score += 10
	}
	if strings.Contains(lower, "off-topic") {
		score -= 15
	}
	return clamp(score)
}

// technicalAccuracy: base 70; +3 per technical-term match in the analysis
// prose; +15 for an explicit "technically accurate"; -20 for an explicit
// "technical error".
func (Scorer) technicalAccuracy(a domain.Analysis) float64 {
	score := 70.0
	score += float64(len(technicalTermRe.FindAllString(a.Content, -1))) * 3
	lower := strings.ToLower(a.Content)
	if strings.Contains(lower, "technically accurate") {
		score += 15
	}
	if strings.Contains(lower, "technical error") {
		score -= 20
	}
	return clamp(score)
}

// communication: base 85; -2 per filler-word match; += positiveRatio*10.
// Note the positive sentiment ratio also feeds the overall score; the
// double-counting is documented behavior.
func (Scorer) communication(tr domain.Transcript) float64 {
	score := 85.0
	score -= float64(len(fillerWordRe.FindAllString(tr.Text, -1))) * 2
	score += positiveRatio(tr.Sentiments) * 10
	return clamp(score)
}

func positiveRatio(segments []domain.SentimentSegment) float64 {
	if len(segments) == 0 {
		return 0
	}
	pos := 0
	for _, s := range segments {
		if s.Sentiment == domain.SentimentPositive {
			pos++
		}
	}
	return float64(pos) / float64(len(segments))
}

func splitSentences(text string) []string {
	var out []string
	for _, s := range sentenceBoundaryRe.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func splitWords(s string) []string {
	var out []string
	for _, w := range wordSplitRe.Split(strings.TrimSpace(s), -1) {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

func anyMatch(items []string, re *regexp.Regexp) bool {
	for _, it := range items {
		if re.MatchString(it) {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
