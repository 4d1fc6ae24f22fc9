package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxprep/interview-evaluator/internal/domain"
)

type fakePool struct {
	execFn     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFn    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (f *fakePool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return f.execFn(ctx, sql, args...)
}

func (f *fakePool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return f.queryRowFn(ctx, sql, args...)
}

func (f *fakePool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return f.queryFn(ctx, sql, args...)
}

func (f *fakePool) BeginTx(_ context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
	return nil, errors.New("not implemented")
}

type fakeRow struct{ scan func(dest ...any) error }

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

func TestSessionRepoCreateGeneratesID(t *testing.T) {
	t.Parallel()
	var gotSQL string
	var gotArgs []any
	pool := &fakePool{
		execFn: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			gotSQL = sql
			gotArgs = args
			return pgconn.NewCommandTag("INSERT 0 1"), nil
		},
	}
	repo := NewSessionRepo(pool)
	id, err := repo.Create(context.Background(), domain.Session{
		UserID:   "u1",
		Question: "Tell me about a project",
		AudioURL: "https://cdn.example.com/a.webm",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Contains(t, gotSQL, "INSERT INTO sessions")
	assert.Equal(t, id, gotArgs[0])
	// Status defaults to in_progress when omitted.
	assert.Equal(t, domain.SessionInProgress, gotArgs[5])
}

func TestSessionRepoCreateError(t *testing.T) {
	t.Parallel()
	pool := &fakePool{
		execFn: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, errors.New("connection refused")
		},
	}
	repo := NewSessionRepo(pool)
	_, err := repo.Create(context.Background(), domain.Session{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=session.create")
}

func TestSessionRepoGetNotFound(t *testing.T) {
	t.Parallel()
	pool := &fakePool{
		queryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return fakeRow{scan: func(_ ...any) error { return pgx.ErrNoRows }}
		},
	}
	repo := NewSessionRepo(pool)
	_, err := repo.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionRepoGetDecodesDocuments(t *testing.T) {
	t.Parallel()
	trJSON, err := json.Marshal(domain.Transcript{Text: "hello world"})
	require.NoError(t, err)
	aJSON, err := json.Marshal(domain.Analysis{Content: "Good answer", Score: 81})
	require.NoError(t, err)
	mJSON, err := json.Marshal(domain.Metrics{Clarity: 70, Relevance: 75, TechnicalAccuracy: 70, Communication: 85})
	require.NoError(t, err)
	now := time.Now().UTC()
	pool := &fakePool{
		queryRowFn: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return fakeRow{scan: func(dest ...any) error {
				*dest[0].(*string) = "s1"
				*dest[1].(*string) = "u1"
				*dest[2].(*string) = "q1"
				*dest[3].(*string) = "Tell me about a project"
				*dest[4].(*string) = "https://cdn.example.com/a.webm"
				*dest[5].(*domain.SessionStatus) = domain.SessionCompleted
				*dest[6].(*string) = ""
				*dest[7].(*[]byte) = trJSON
				*dest[8].(*[]byte) = aJSON
				*dest[9].(*[]byte) = mJSON
				*dest[10].(*time.Time) = now
				*dest[11].(*time.Time) = now
				return nil
			}}
		},
	}
	repo := NewSessionRepo(pool)
	s, err := repo.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, s.Status)
	require.NotNil(t, s.Transcript)
	assert.Equal(t, "hello world", s.Transcript.Text)
	require.NotNil(t, s.Analysis)
	assert.InDelta(t, 81.0, s.Analysis.Score, 1e-9)
	require.NotNil(t, s.Metrics)
	assert.InDelta(t, 85.0, s.Metrics.Communication, 1e-9)
}

func TestSessionRepoUpdateStatusNotFound(t *testing.T) {
	t.Parallel()
	pool := &fakePool{
		execFn: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
	}
	repo := NewSessionRepo(pool)
	err := repo.UpdateStatus(context.Background(), "missing", domain.SessionProcessing, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionRepoCompleteOverwrites(t *testing.T) {
	t.Parallel()
	var calls int
	var lastArgs []any
	pool := &fakePool{
		execFn: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			calls++
			lastArgs = args
			assert.Contains(t, sql, "UPDATE sessions")
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}
	repo := NewSessionRepo(pool)
	tr := domain.Transcript{Text: "answer"}
	a := domain.Analysis{Content: "fine", Score: 70}
	m := domain.Metrics{Clarity: 80}

	require.NoError(t, repo.Complete(context.Background(), "s1", tr, a, m))
	// Replaying the same result is accepted and writes the same payload.
	require.NoError(t, repo.Complete(context.Background(), "s1", tr, a, m))
	assert.Equal(t, 2, calls)
	assert.Equal(t, domain.SessionCompleted, lastArgs[1])
}
