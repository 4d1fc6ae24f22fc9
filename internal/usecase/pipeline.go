// Package usecase wires the domain ports into application services.
package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/voxprep/interview-evaluator/internal/adapter/observability"
	"github.com/voxprep/interview-evaluator/internal/domain"
	"github.com/voxprep/interview-evaluator/internal/evaluation"
	"github.com/voxprep/interview-evaluator/internal/prompts"
)

const (
	evaluatorTemperature = 0.5
	evaluatorMaxTokens   = 1000
)

// AnalyzeService runs the evaluation pipeline for one answer: transcribe,
// analyze, extract, score, persist. Stages run strictly in order; the first
// failure aborts the run and marks the session failed. A failed run is never
// retried by this service.
type AnalyzeService struct {
	Sessions    domain.SessionRepository
	Transcriber domain.Transcriber
	AI          domain.AIClient
	Extractor   evaluation.SectionExtractor
	Scorer      evaluation.Scorer
}

// NewAnalyzeService constructs an AnalyzeService with the default extractor
// and scorer.
func NewAnalyzeService(sessions domain.SessionRepository, tr domain.Transcriber, ai domain.AIClient) *AnalyzeService {
	return &AnalyzeService{
		Sessions:    sessions,
		Transcriber: tr,
		AI:          ai,
		Extractor:   evaluation.NewMarkerExtractor(),
		Scorer:      evaluation.NewScorer(),
	}
}

// Run executes the pipeline for the given session. The session row is
// created on demand so both the synchronous endpoint and queued tasks can
// share one entry point.
func (s *AnalyzeService) Run(ctx domain.Context, sess domain.Session) (domain.Transcript, domain.Analysis, domain.Metrics, error) {
	tracer := otel.Tracer("usecase.analyze")
	ctx, span := tracer.Start(ctx, "AnalyzeResponse")
	defer span.End()

	if sess.AudioURL == "" {
		return domain.Transcript{}, domain.Analysis{}, domain.Metrics{}, fmt.Errorf("%w: missing audio_url", domain.ErrInvalidArgument)
	}
	if sess.Question == "" {
		return domain.Transcript{}, domain.Analysis{}, domain.Metrics{}, fmt.Errorf("%w: missing question", domain.ErrInvalidArgument)
	}

	observability.StartPipelineRun()
	id, err := s.markProcessing(ctx, sess)
	if err != nil {
		observability.FailPipelineRun()
		return domain.Transcript{}, domain.Analysis{}, domain.Metrics{}, err
	}
	sess.ID = id

	tr, a, m, err := s.evaluate(ctx, sess)
	if err != nil {
		observability.FailPipelineRun()
		s.markFailed(ctx, sess.ID, err)
		return domain.Transcript{}, domain.Analysis{}, domain.Metrics{}, err
	}

	if err := s.Sessions.Complete(ctx, sess.ID, tr, a, m); err != nil {
		observability.FailPipelineRun()
		return domain.Transcript{}, domain.Analysis{}, domain.Metrics{}, fmt.Errorf("%v: %w", err, domain.ErrPersistence)
	}

	observability.CompletePipelineRun()
	observability.ObserveEvaluation(a.Score, m.Clarity)
	slog.Info("evaluation completed",
		slog.String("session_id", sess.ID),
		slog.Float64("score", a.Score))
	return tr, a, m, nil
}

// evaluate runs the stateless stages: transcription, analysis, extraction
// and scoring.
func (s *AnalyzeService) evaluate(ctx domain.Context, sess domain.Session) (domain.Transcript, domain.Analysis, domain.Metrics, error) {
	tr, err := s.Transcriber.Transcribe(ctx, sess.AudioURL)
	if err != nil {
		return domain.Transcript{}, domain.Analysis{}, domain.Metrics{}, fmt.Errorf("transcribe: %w", err)
	}

	content, err := s.AI.Chat(ctx, prompts.SystemEvaluator, prompts.Evaluation(sess.Question, tr.Text), evaluatorTemperature, evaluatorMaxTokens)
	if err != nil {
		return domain.Transcript{}, domain.Analysis{}, domain.Metrics{}, fmt.Errorf("analyze: %w", err)
	}

	sections := s.Extractor.Extract(content)
	a := domain.Analysis{
		Content:      content,
		KeyPoints:    sections.KeyPoints,
		Strengths:    sections.Strengths,
		Weaknesses:   sections.Weaknesses,
		Improvements: sections.Improvements,
	}
	a.Score = s.Scorer.OverallScore(tr, a)
	m := s.Scorer.Metrics(tr, a)
	return tr, a, m, nil
}

// markProcessing transitions the session to processing, creating the row
// first when it does not exist yet. Returns the effective session id so
// callers without one get the id of the created row.
func (s *AnalyzeService) markProcessing(ctx domain.Context, sess domain.Session) (string, error) {
	if sess.ID != "" {
		err := s.Sessions.UpdateStatus(ctx, sess.ID, domain.SessionProcessing, nil)
		if err == nil {
			return sess.ID, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("%v: %w", err, domain.ErrPersistence)
		}
	}
	sess.Status = domain.SessionProcessing
	sess.CreatedAt = time.Now().UTC()
	id, err := s.Sessions.Create(ctx, sess)
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, domain.ErrPersistence)
	}
	return id, nil
}

func (s *AnalyzeService) markFailed(ctx domain.Context, id string, cause error) {
	msg := cause.Error()
	if err := s.Sessions.UpdateStatus(ctx, id, domain.SessionFailed, &msg); err != nil {
		slog.Error("failed to mark session failed",
			slog.String("session_id", id),
			slog.Any("error", err))
	}
}
