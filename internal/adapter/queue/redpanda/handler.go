package redpanda

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/voxprep/interview-evaluator/internal/domain"
)

// PipelineRunner runs the evaluation pipeline for one session. The runner
// owns the session's status transitions, including marking it failed; a run
// is attempted exactly once per message.
type PipelineRunner interface {
	Run(ctx context.Context, s domain.Session) (domain.Transcript, domain.Analysis, domain.Metrics, error)
}

// HandleEvaluate processes one evaluation task from the queue.
func HandleEvaluate(ctx context.Context, pipeline PipelineRunner, payload domain.EvaluateTaskPayload) error {
	if payload.SessionID == "" {
		return fmt.Errorf("%w: missing session_id", domain.ErrInvalidArgument)
	}
	s := domain.Session{
		ID:         payload.SessionID,
		QuestionID: payload.QuestionID,
		Question:   payload.Question,
		AudioURL:   payload.AudioURL,
	}
	if _, _, _, err := pipeline.Run(ctx, s); err != nil {
		slog.Error("evaluation run failed",
			slog.String("session_id", payload.SessionID),
			slog.Any("error", err))
		return err
	}
	return nil
}
