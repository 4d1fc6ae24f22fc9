package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/voxprep/interview-evaluator/internal/domain"
)

// QuestionRepo persists and loads generated questions using a minimal pgx pool.
type QuestionRepo struct{ Pool PgxPool }

// NewQuestionRepo constructs a QuestionRepo with the given pool.
func NewQuestionRepo(p PgxPool) *QuestionRepo { return &QuestionRepo{Pool: p} }

// Create inserts a question and returns its id.
func (r *QuestionRepo) Create(ctx domain.Context, q domain.Question) (string, error) {
	tracer := otel.Tracer("repo.questions")
	ctx, span := tracer.Start(ctx, "questions.Create")
	defer span.End()
	id := q.ID
	if id == "" {
		id = uuid.New().String()
	}
	kpJSON, err := json.Marshal(q.KeyPoints)
	if err != nil {
		return "", fmt.Errorf("op=question.create: marshal key_points: %w", err)
	}
	fuJSON, err := json.Marshal(q.FollowUps)
	if err != nil {
		return "", fmt.Errorf("op=question.create: marshal follow_ups: %w", err)
	}
	stmt := `INSERT INTO questions (id, text, qtype, difficulty, key_points, follow_ups, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err = r.Pool.Exec(ctx, stmt, id, q.Text, q.Type, q.Difficulty, kpJSON, fuJSON, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("op=question.create: %w", err)
	}
	return id, nil
}

// Get loads a question by id.
func (r *QuestionRepo) Get(ctx domain.Context, id string) (domain.Question, error) {
	tracer := otel.Tracer("repo.questions")
	ctx, span := tracer.Start(ctx, "questions.Get")
	defer span.End()
	stmt := `SELECT id, text, qtype, difficulty, key_points, follow_ups, created_at FROM questions WHERE id=$1`
	row := r.Pool.QueryRow(ctx, stmt, id)
	var q domain.Question
	var kpJSON, fuJSON []byte
	if err := row.Scan(&q.ID, &q.Text, &q.Type, &q.Difficulty, &kpJSON, &fuJSON, &q.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return domain.Question{}, fmt.Errorf("op=question.get: %w", domain.ErrNotFound)
		}
		return domain.Question{}, fmt.Errorf("op=question.get: %w", err)
	}
	if len(kpJSON) > 0 {
		if err := json.Unmarshal(kpJSON, &q.KeyPoints); err != nil {
			return domain.Question{}, fmt.Errorf("op=question.get: unmarshal key_points: %w", err)
		}
	}
	if len(fuJSON) > 0 {
		if err := json.Unmarshal(fuJSON, &q.FollowUps); err != nil {
			return domain.Question{}, fmt.Errorf("op=question.get: unmarshal follow_ups: %w", err)
		}
	}
	return q, nil
}
