package usecase

import (
	"fmt"

	"github.com/voxprep/interview-evaluator/internal/domain"
)

// EvaluationService is the async entry point: it creates a session and
// enqueues an evaluation task for a worker to pick up.
type EvaluationService struct {
	Sessions SessionService
	Queue    domain.Queue
}

// NewEvaluationService constructs an EvaluationService.
func NewEvaluationService(sessions SessionService, q domain.Queue) EvaluationService {
	return EvaluationService{Sessions: sessions, Queue: q}
}

// Enqueue records a session and queues its evaluation, returning the
// session id the caller polls for the result.
func (s EvaluationService) Enqueue(ctx domain.Context, userID, questionID, question, audioURL string) (string, error) {
	if audioURL == "" {
		return "", fmt.Errorf("%w: missing audio_url", domain.ErrInvalidArgument)
	}
	id, err := s.Sessions.Create(ctx, userID, questionID, question, audioURL)
	if err != nil {
		return "", err
	}
	_, err = s.Queue.EnqueueEvaluate(ctx, domain.EvaluateTaskPayload{
		SessionID:  id,
		QuestionID: questionID,
		Question:   question,
		AudioURL:   audioURL,
	})
	if err != nil {
		msg := fmt.Sprintf("enqueue failed: %v", err)
		_ = s.Sessions.Repo.UpdateStatus(ctx, id, domain.SessionFailed, &msg)
		return "", fmt.Errorf("enqueue evaluate: %w", err)
	}
	return id, nil
}

// Result returns the session's current state, marking stale runs failed.
func (s EvaluationService) Result(ctx domain.Context, id string) (domain.Session, error) {
	return s.Sessions.Get(ctx, id)
}
