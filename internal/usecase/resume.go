package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/voxprep/interview-evaluator/internal/domain"
	"github.com/voxprep/interview-evaluator/internal/evaluation"
	"github.com/voxprep/interview-evaluator/internal/prompts"
)

// ContentGenerator issues one prompt-based generation request. Implemented
// by the Gemini adapter.
type ContentGenerator interface {
	GenerateContent(ctx domain.Context, prompt string) (string, error)
}

// ResumeAnalysis is the structured result of analyzing a resume.
type ResumeAnalysis struct {
	Skills          []string `json:"skills"`
	Strengths       []string `json:"strengths"`
	Improvements    []string `json:"improvements"`
	ExperienceLevel string   `json:"experience_level"`
	Raw             string   `json:"raw"`
}

var experienceLevelRe = regexp.MustCompile(`(?im)^Experience Level:\s*(.+)$`)

// ResumeService extracts skills, highlights and an experience level from
// resume text.
type ResumeService struct {
	Generator ContentGenerator
}

// NewResumeService constructs a ResumeService.
func NewResumeService(g ContentGenerator) ResumeService {
	return ResumeService{Generator: g}
}

// Analyze sends the resume to the model and parses the sectioned response.
func (s ResumeService) Analyze(ctx domain.Context, resumeText string) (ResumeAnalysis, error) {
	resumeText = strings.TrimSpace(resumeText)
	if resumeText == "" {
		return ResumeAnalysis{}, fmt.Errorf("%w: empty resume text", domain.ErrInvalidArgument)
	}
	if s.Generator == nil {
		return ResumeAnalysis{}, fmt.Errorf("resume analysis not configured: %w", domain.ErrExternalService)
	}

	raw, err := s.Generator.GenerateContent(ctx, prompts.Resume(resumeText))
	if err != nil {
		return ResumeAnalysis{}, fmt.Errorf("analyze resume: %v: %w", err, domain.ErrExternalService)
	}

	out := ResumeAnalysis{
		Skills:          evaluation.SectionAfter(raw, "key points"),
		Strengths:       evaluation.SectionAfter(raw, "strengths"),
		Improvements:    evaluation.SectionAfter(raw, "areas for improvement", "improvements"),
		ExperienceLevel: evaluation.NormalizeDifficulty(experienceLevel(raw)),
		Raw:             raw,
	}
	return out, nil
}

func experienceLevel(raw string) string {
	if m := experienceLevelRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}
