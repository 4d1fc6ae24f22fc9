package evaluation

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voxprep/interview-evaluator/internal/domain"
)

var (
	questionSplitRe = regexp.MustCompile(`Question \d+:`)
	typeRe          = regexp.MustCompile(`(?i)Type:\s*(.+)`)
	difficultyRe    = regexp.MustCompile(`(?i)Difficulty:\s*(.+)`)
)

// ParseQuestions splits generated prose into questions. The model is asked
// to emit "Question N:" sections each carrying Type, Difficulty, Key
// Points and Follow-up Questions blocks; sections without a recognizable
// question line are dropped.
func ParseQuestions(content string) []domain.Question {
	sections := questionSplitRe.Split(content, -1)
	if len(sections) < 2 {
		return nil
	}
	// Anything before the first "Question N:" marker is preamble.
	sections = sections[1:]
	out := make([]domain.Question, 0, len(sections))
	now := time.Now().UTC()

	for _, section := range sections {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		lines := strings.Split(section, "\n")
		text := strings.TrimSpace(lines[0])
		if text == "" {
			continue
		}

		q := domain.Question{
			ID:         uuid.New().String(),
			Text:       text,
			Type:       domain.QuestionTechnical,
			Difficulty: domain.DifficultyIntermediate,
			KeyPoints:  sliceBullets(section, "Key Points:", "Follow-up Questions:"),
			FollowUps:  sliceBullets(section, "Follow-up Questions:", "Evaluation Criteria:"),
			CreatedAt:  now,
		}
		if m := typeRe.FindStringSubmatch(section); m != nil {
			q.Type = NormalizeQuestionType(m[1])
		}
		if m := difficultyRe.FindStringSubmatch(section); m != nil {
			q.Difficulty = NormalizeDifficulty(m[1])
		}
		out = append(out, q)
	}
	return out
}

// sliceBullets collects the bullet lines between two header strings; the
// end header is optional.
func sliceBullets(content, start, end string) []string {
	i := strings.Index(content, start)
	if i == -1 {
		return nil
	}
	section := content[i:]
	if j := strings.Index(section[len(start):], end); end != "" && j != -1 {
		section = section[:len(start)+j]
	}
	return BulletLines(section)
}

// NormalizeQuestionType maps free-form model output onto the known types.
func NormalizeQuestionType(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(t, "behav"):
		return domain.QuestionBehavioral
	case strings.Contains(t, "system"):
		return domain.QuestionSystemDesign
	case strings.Contains(t, "problem"):
		return domain.QuestionProblemSolving
	case strings.Contains(t, "general"):
		return domain.QuestionGeneral
	default:
		return domain.QuestionTechnical
	}
}

// NormalizeDifficulty maps either naming scheme (junior/intermediate/senior
// or beginner/intermediate/advanced) onto the stored one.
func NormalizeDifficulty(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(d, "junior"), strings.Contains(d, "beginner"), strings.Contains(d, "entry"):
		return domain.DifficultyJunior
	case strings.Contains(d, "senior"), strings.Contains(d, "advanced"), strings.Contains(d, "expert"):
		return domain.DifficultySenior
	default:
		return domain.DifficultyIntermediate
	}
}
