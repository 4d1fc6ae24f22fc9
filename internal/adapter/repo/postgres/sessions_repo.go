// Package postgres contains the PostgreSQL repositories for sessions and
// questions. It expects the sessions and questions tables to exist; schema
// is managed by the deployment, not by this module.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"

	"github.com/voxprep/interview-evaluator/internal/domain"
)

// PgxPool is a minimal subset of pgxpool used by the repos for easy testing.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// SessionRepo persists and loads sessions from PostgreSQL using a minimal pgx pool.
type SessionRepo struct{ Pool PgxPool }

// NewSessionRepo constructs a SessionRepo with the given pool.
func NewSessionRepo(p PgxPool) *SessionRepo { return &SessionRepo{Pool: p} }

// Create inserts a new session and returns its id.
func (r *SessionRepo) Create(ctx domain.Context, s domain.Session) (string, error) {
	tracer := otel.Tracer("repo.sessions")
	ctx, span := tracer.Start(ctx, "sessions.Create")
	defer span.End()
	id := s.ID
	if id == "" {
		id = uuid.New().String()
	}
	status := s.Status
	if status == "" {
		status = domain.SessionInProgress
	}
	q := `INSERT INTO sessions (id, user_id, question_id, question, audio_url, status, error, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.Pool.Exec(ctx, q, id, s.UserID, s.QuestionID, s.Question, s.AudioURL, status, s.Error, time.Now().UTC(), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("op=session.create: %w", err)
	}
	return id, nil
}

// Get loads a session by id.
func (r *SessionRepo) Get(ctx domain.Context, id string) (domain.Session, error) {
	tracer := otel.Tracer("repo.sessions")
	ctx, span := tracer.Start(ctx, "sessions.Get")
	defer span.End()
	q := `SELECT id, user_id, question_id, question, audio_url, status, COALESCE(error,''), transcript, analysis, metrics, created_at, updated_at FROM sessions WHERE id=$1`
	row := r.Pool.QueryRow(ctx, q, id)
	return scanSession(row, "session.get")
}

// UpdateStatus updates a session's status and optional error message.
func (r *SessionRepo) UpdateStatus(ctx domain.Context, id string, status domain.SessionStatus, errMsg *string) error {
	tracer := otel.Tracer("repo.sessions")
	ctx, span := tracer.Start(ctx, "sessions.UpdateStatus")
	defer span.End()
	q := `UPDATE sessions SET status=$2, error=$3, updated_at=$4 WHERE id=$1`
	// Map nil errMsg to empty string to satisfy NOT NULL constraint on error column
	errVal := ""
	if errMsg != nil {
		errVal = *errMsg
	}
	ct, err := r.Pool.Exec(ctx, q, id, status, errVal, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=session.update_status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("op=session.update_status: %w", domain.ErrNotFound)
	}
	return nil
}

// Complete marks a session completed and attaches the transcript, analysis
// and metrics documents. The write overwrites any prior result, so replaying
// the same pipeline output leaves the row unchanged.
func (r *SessionRepo) Complete(ctx domain.Context, id string, tr domain.Transcript, a domain.Analysis, m domain.Metrics) error {
	tracer := otel.Tracer("repo.sessions")
	ctx, span := tracer.Start(ctx, "sessions.Complete")
	defer span.End()
	trJSON, err := json.Marshal(tr)
	if err != nil {
		return fmt.Errorf("op=session.complete: marshal transcript: %w", err)
	}
	aJSON, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("op=session.complete: marshal analysis: %w", err)
	}
	mJSON, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("op=session.complete: marshal metrics: %w", err)
	}
	q := `UPDATE sessions SET status=$2, transcript=$3, analysis=$4, metrics=$5, error='', updated_at=$6 WHERE id=$1`
	ct, err := r.Pool.Exec(ctx, q, id, domain.SessionCompleted, trJSON, aJSON, mJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=session.complete: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("op=session.complete: %w", domain.ErrNotFound)
	}
	return nil
}

// List returns sessions matching the filter, most recent first.
func (r *SessionRepo) List(ctx domain.Context, f domain.SessionFilter) ([]domain.Session, error) {
	tracer := otel.Tracer("repo.sessions")
	ctx, span := tracer.Start(ctx, "sessions.List")
	defer span.End()
	b := sq.Select("s.id", "s.user_id", "s.question_id", "s.question", "s.audio_url", "s.status", "COALESCE(s.error,'')", "s.transcript", "s.analysis", "s.metrics", "s.created_at", "s.updated_at").
		From("sessions s").
		OrderBy("s.created_at DESC").
		PlaceholderFormat(sq.Dollar)
	if f.UserID != "" {
		b = b.Where(sq.Eq{"s.user_id": f.UserID})
	}
	if f.Status != "" {
		b = b.Where(sq.Eq{"s.status": f.Status})
	}
	if f.QuestionType != "" {
		b = b.Join("questions q ON q.id = s.question_id").Where(sq.Eq{"q.qtype": f.QuestionType})
	}
	if !f.From.IsZero() {
		b = b.Where(sq.GtOrEq{"s.created_at": f.From})
	}
	if !f.To.IsZero() {
		b = b.Where(sq.Lt{"s.created_at": f.To})
	}
	if f.Limit > 0 {
		b = b.Limit(uint64(f.Limit))
	}
	q, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("op=session.list: build query: %w", err)
	}
	rows, err := r.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("op=session.list: %w", err)
	}
	defer rows.Close()
	var out []domain.Session
	for rows.Next() {
		s, err := scanSession(rows, "session.list")
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=session.list: %w", err)
	}
	return out, nil
}

func scanSession(row pgx.Row, op string) (domain.Session, error) {
	var s domain.Session
	var trJSON, aJSON, mJSON []byte
	err := row.Scan(&s.ID, &s.UserID, &s.QuestionID, &s.Question, &s.AudioURL, &s.Status, &s.Error, &trJSON, &aJSON, &mJSON, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Session{}, fmt.Errorf("op=%s: %w", op, domain.ErrNotFound)
		}
		return domain.Session{}, fmt.Errorf("op=%s: %w", op, err)
	}
	if len(trJSON) > 0 {
		var tr domain.Transcript
		if err := json.Unmarshal(trJSON, &tr); err != nil {
			return domain.Session{}, fmt.Errorf("op=%s: unmarshal transcript: %w", op, err)
		}
		s.Transcript = &tr
	}
	if len(aJSON) > 0 {
		var a domain.Analysis
		if err := json.Unmarshal(aJSON, &a); err != nil {
			return domain.Session{}, fmt.Errorf("op=%s: unmarshal analysis: %w", op, err)
		}
		s.Analysis = &a
	}
	if len(mJSON) > 0 {
		var m domain.Metrics
		if err := json.Unmarshal(mJSON, &m); err != nil {
			return domain.Session{}, fmt.Errorf("op=%s: unmarshal metrics: %w", op, err)
		}
		s.Metrics = &m
	}
	return s, nil
}
