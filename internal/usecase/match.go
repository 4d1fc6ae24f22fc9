package usecase

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/voxprep/interview-evaluator/internal/domain"
	"github.com/voxprep/interview-evaluator/internal/evaluation"
	"github.com/voxprep/interview-evaluator/internal/prompts"
)

// MatchService compares a resume profile with a job profile. The numeric
// breakdown is computed locally; the model contributes the narrative
// strengths, gaps and recommendations.
type MatchService struct {
	AI       domain.AIClient
	Analyzer evaluation.MatchAnalyzer
}

// NewMatchService constructs a MatchService.
func NewMatchService(ai domain.AIClient) MatchService {
	return MatchService{AI: ai, Analyzer: evaluation.NewMatchAnalyzer()}
}

// Analyze produces the match breakdown. A failed narrative call degrades to
// a result without narrative sections rather than failing the comparison.
func (s MatchService) Analyze(ctx domain.Context, resume evaluation.ResumeProfile, job evaluation.JobProfile) (evaluation.MatchResult, error) {
	resumeJSON, err := json.Marshal(resume)
	if err != nil {
		return evaluation.MatchResult{}, fmt.Errorf("op=match.analyze: %w", err)
	}
	jobJSON, err := json.Marshal(job)
	if err != nil {
		return evaluation.MatchResult{}, fmt.Errorf("op=match.analyze: %w", err)
	}

	analysisText, err := s.AI.Chat(ctx, prompts.SystemMatchAnalyzer,
		prompts.Match(string(resumeJSON), string(jobJSON)),
		evaluatorTemperature, evaluatorMaxTokens)
	if err != nil {
		slog.Warn("match narrative unavailable", slog.Any("error", err))
		analysisText = ""
	}

	return s.Analyzer.Analyze(resume, job, analysisText), nil
}
