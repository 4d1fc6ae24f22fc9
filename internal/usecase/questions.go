package usecase

import (
	"fmt"

	"github.com/voxprep/interview-evaluator/internal/domain"
	"github.com/voxprep/interview-evaluator/internal/evaluation"
	"github.com/voxprep/interview-evaluator/internal/prompts"
)

const (
	generatorTemperature = 0.7
	generatorMaxTokens   = 2000
)

// QuestionService generates personalized interview questions and serves
// stored ones.
type QuestionService struct {
	Repo domain.QuestionRepository
	AI   domain.AIClient
}

// NewQuestionService constructs a QuestionService.
func NewQuestionService(repo domain.QuestionRepository, ai domain.AIClient) QuestionService {
	return QuestionService{Repo: repo, AI: ai}
}

// Generate asks the model for questions tailored to the candidate and job,
// parses them, and persists each one.
func (s QuestionService) Generate(ctx domain.Context, skills []string, experience, jobTitle, jobRequirements string) ([]domain.Question, error) {
	if jobTitle == "" {
		return nil, fmt.Errorf("%w: missing job title", domain.ErrInvalidArgument)
	}

	content, err := s.AI.Chat(ctx, prompts.SystemQuestionGenerator,
		prompts.Questions(skills, experience, jobTitle, jobRequirements),
		generatorTemperature, generatorMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	questions := evaluation.ParseQuestions(content)
	if len(questions) == 0 {
		return nil, fmt.Errorf("no questions parsed from completion: %w", domain.ErrExternalService)
	}

	for i := range questions {
		id, err := s.Repo.Create(ctx, questions[i])
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, domain.ErrPersistence)
		}
		questions[i].ID = id
	}
	return questions, nil
}

// Get loads one stored question.
func (s QuestionService) Get(ctx domain.Context, id string) (domain.Question, error) {
	return s.Repo.Get(ctx, id)
}
