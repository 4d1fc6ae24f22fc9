// Package domain defines the core entities, ports and error taxonomy for
// the interview response evaluation pipeline.
package domain

import (
	"context"
	"errors"
	"io"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrRateLimited     = errors.New("rate limited")
	// ErrExternalService covers transcription and text-generation failures:
	// network errors, non-2xx responses, and malformed payloads.
	ErrExternalService = errors.New("external service error")
	// ErrPersistence covers session/question store failures.
	ErrPersistence   = errors.New("persistence error")
	ErrSchemaInvalid = errors.New("schema invalid")
	ErrInternal      = errors.New("internal error")
)

// Question types.
const (
	QuestionTechnical      = "technical"
	QuestionBehavioral     = "behavioral"
	QuestionSystemDesign   = "system-design"
	QuestionProblemSolving = "problem-solving"
	QuestionGeneral        = "general"
)

// Question difficulties.
const (
	DifficultyJunior       = "junior"
	DifficultyIntermediate = "intermediate"
	DifficultySenior       = "senior"
)

// Question is an interview question with the evaluator's expectations.
// Immutable once generated.
type Question struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Type       string    `json:"type"`
	Difficulty string    `json:"difficulty"`
	KeyPoints  []string  `json:"key_points"`
	FollowUps  []string  `json:"follow_ups"`
	CreatedAt  time.Time `json:"created_at"`
}

// Sentiment labels returned by the transcription service.
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
	SentimentNeutral  = "NEUTRAL"
)

// SentimentSegment is one span of transcript text with its sentiment label
// and confidence in [0,1].
type SentimentSegment struct {
	Text       string  `json:"text"`
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}

// Entity is a named entity detected in the transcript.
type Entity struct {
	Type string `json:"entity_type"`
	Text string `json:"text"`
}

// Transcript is the immutable output of the transcription stage.
type Transcript struct {
	Text       string             `json:"text"`
	Sentiments []SentimentSegment `json:"sentiments"`
	Entities   []Entity           `json:"entities"`
}

// Analysis is the structured result of parsing the model's free-form
// evaluation text. Score is clamped to [0,100].
type Analysis struct {
	Content      string   `json:"content"`
	KeyPoints    []string `json:"key_points"`
	Strengths    []string `json:"strengths"`
	Weaknesses   []string `json:"weaknesses"`
	Improvements []string `json:"improvements"`
	Score        float64  `json:"score"`
}

// Metrics are the four bounded sub-scores, each in [0,100].
type Metrics struct {
	Clarity           float64 `json:"clarity"`
	Relevance         float64 `json:"relevance"`
	TechnicalAccuracy float64 `json:"technical_accuracy"`
	Communication     float64 `json:"communication"`
}

// SessionStatus is the lifecycle state of one answer attempt.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionProcessing SessionStatus = "processing"
	SessionCompleted  SessionStatus = "completed"
	SessionFailed     SessionStatus = "failed"
)

// Session tracks one user's attempt at answering a single question
// end-to-end through the evaluation pipeline. The session document is
// owned and mutated only by the pipeline run initiated for it.
type Session struct {
	ID         string        `json:"id"`
	UserID     string        `json:"user_id"`
	QuestionID string        `json:"question_id"`
	Question   string        `json:"question"`
	AudioURL   string        `json:"audio_url"`
	Status     SessionStatus `json:"status"`
	Transcript *Transcript   `json:"transcript,omitempty"`
	Analysis   *Analysis     `json:"analysis,omitempty"`
	Metrics    *Metrics      `json:"metrics,omitempty"`
	Error      string        `json:"error,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// SessionFilter narrows session listings for history and analytics.
type SessionFilter struct {
	UserID       string
	QuestionType string
	Status       SessionStatus
	From         time.Time
	To           time.Time
	Limit        int
}

// Repositories (ports)

type SessionRepository interface {
	Create(ctx Context, s Session) (string, error)
	Get(ctx Context, id string) (Session, error)
	UpdateStatus(ctx Context, id string, status SessionStatus, errMsg *string) error
	// Complete transitions the session to completed and attaches the final
	// payload. Pure overwrite semantics: re-applying the same payload to an
	// already-completed session is a no-op error-wise.
	Complete(ctx Context, id string, tr Transcript, a Analysis, m Metrics) error
	List(ctx Context, f SessionFilter) ([]Session, error)
}

type QuestionRepository interface {
	Create(ctx Context, q Question) (string, error)
	Get(ctx Context, id string) (Question, error)
}

// Queue (port) for the async evaluation path.

type Queue interface {
	EnqueueEvaluate(ctx Context, payload EvaluateTaskPayload) (string, error)
}

// Transcriber (port) wraps the external speech-to-text service. It forwards
// whatever byte stream it is given; the codec is opaque to this component.

type Transcriber interface {
	Transcribe(ctx Context, audioURL string) (Transcript, error)
	UploadAudio(ctx Context, r io.Reader) (string, error)
}

// AIClient (port) issues one text-generation request and returns the raw
// completion text.

type AIClient interface {
	Chat(ctx Context, systemPrompt, userPrompt string, temperature float64, maxTokens int) (string, error)
}

// SpeechSynthesizer (port) converts text to encoded audio bytes.

type SpeechSynthesizer interface {
	Synthesize(ctx Context, text string) ([]byte, error)
}

// EvaluateTaskPayload is the message body for async evaluation runs.

type EvaluateTaskPayload struct {
	SessionID  string `json:"session_id"`
	QuestionID string `json:"question_id"`
	Question   string `json:"question"`
	AudioURL   string `json:"audio_url"`
}

// Context aliases context.Context so ports stay terse.
type Context = context.Context
