package usecase

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/voxprep/interview-evaluator/internal/domain"
)

// SessionService manages session lifecycle outside of a pipeline run.
type SessionService struct {
	Repo domain.SessionRepository
	// StaleAfter bounds how long a session may sit in a non-terminal status
	// before a read reports it failed.
	StaleAfter time.Duration
}

// NewSessionService constructs a SessionService.
func NewSessionService(repo domain.SessionRepository, staleAfter time.Duration) SessionService {
	return SessionService{Repo: repo, StaleAfter: staleAfter}
}

// Create starts a new session for one answer attempt.
func (s SessionService) Create(ctx domain.Context, userID, questionID, question, audioURL string) (string, error) {
	if question == "" {
		return "", fmt.Errorf("%w: missing question", domain.ErrInvalidArgument)
	}
	return s.Repo.Create(ctx, domain.Session{
		UserID:     userID,
		QuestionID: questionID,
		Question:   question,
		AudioURL:   audioURL,
		Status:     domain.SessionInProgress,
		CreatedAt:  time.Now().UTC(),
	})
}

// Get loads a session. A session stuck in a non-terminal status beyond
// StaleAfter is marked failed before being returned, so pollers see a
// terminal result instead of waiting forever.
func (s SessionService) Get(ctx domain.Context, id string) (domain.Session, error) {
	sess, err := s.Repo.Get(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	if s.StaleAfter <= 0 {
		return sess, nil
	}
	terminal := sess.Status == domain.SessionCompleted || sess.Status == domain.SessionFailed
	if terminal || time.Since(sess.UpdatedAt) < s.StaleAfter {
		return sess, nil
	}

	msg := fmt.Sprintf("evaluation timed out after %s", s.StaleAfter)
	if err := s.Repo.UpdateStatus(ctx, id, domain.SessionFailed, &msg); err != nil {
		slog.Error("failed to mark stale session failed",
			slog.String("session_id", id),
			slog.Any("error", err))
		return sess, nil
	}
	sess.Status = domain.SessionFailed
	sess.Error = msg
	return sess, nil
}

// List returns sessions matching the filter for history views.
func (s SessionService) List(ctx domain.Context, f domain.SessionFilter) ([]domain.Session, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}
	return s.Repo.List(ctx, f)
}
