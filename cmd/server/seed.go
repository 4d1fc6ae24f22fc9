package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/voxprep/interview-evaluator/internal/domain"
	"github.com/voxprep/interview-evaluator/internal/evaluation"
)

type questionBank struct {
	Questions []questionYAML `yaml:"questions"`
}

type questionYAML struct {
	Text       string   `yaml:"text"`
	Type       string   `yaml:"type"`
	Difficulty string   `yaml:"difficulty"`
	KeyPoints  []string `yaml:"key_points"`
	FollowUps  []string `yaml:"follow_ups"`
}

// seedQuestionsFromYAML loads a question bank into the questions repo.
// Rows that fail to insert are logged and skipped so one bad entry does
// not abort the rest of the bank.
func seedQuestionsFromYAML(ctx domain.Context, repo domain.QuestionRepository, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("seed file not found: %s", path)
		}
		return err
	}
	var bank questionBank
	if err := yaml.Unmarshal(b, &bank); err != nil {
		return fmt.Errorf("yaml parse: %w", err)
	}
	if len(bank.Questions) == 0 {
		return fmt.Errorf("no questions to seed in %s", path)
	}

	seeded := 0
	for _, q := range bank.Questions {
		text := strings.TrimSpace(q.Text)
		if text == "" {
			continue
		}
		_, err := repo.Create(ctx, domain.Question{
			Text:       text,
			Type:       evaluation.NormalizeQuestionType(q.Type),
			Difficulty: evaluation.NormalizeDifficulty(q.Difficulty),
			KeyPoints:  q.KeyPoints,
			FollowUps:  q.FollowUps,
		})
		if err != nil {
			slog.Error("failed to seed question", slog.String("text", text), slog.Any("error", err))
			continue
		}
		seeded++
	}
	slog.Info("question bank seeded", slog.Int("count", seeded), slog.String("file", path))
	return nil
}
