package httpserver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/voxprep/interview-evaluator/internal/config"
	"github.com/voxprep/interview-evaluator/internal/domain"
	"github.com/voxprep/interview-evaluator/internal/evaluation"
	"github.com/voxprep/interview-evaluator/internal/usecase"
	"github.com/voxprep/interview-evaluator/pkg/textx"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg         config.Config
	Sessions    usecase.SessionService
	Evaluations usecase.EvaluationService
	Analyze     *usecase.AnalyzeService
	Questions   usecase.QuestionService
	Match       usecase.MatchService
	Resume      usecase.ResumeService
	Speech      usecase.SpeechService
	Transcriber domain.Transcriber
	DBCheck     func(ctx context.Context) error
	RedisCheck  func(ctx context.Context) error
	ExtraChecks map[string]func(ctx context.Context) error
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

func decodeValidated(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
	if err := decodeJSON(r.Body, dst); err != nil {
		writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
		return false
	}
	if err := getValidator().Struct(dst); err != nil {
		verrs := map[string]string{}
		if ve, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range ve {
				verrs[strings.ToLower(fe.Field())] = fe.Tag()
			}
		}
		writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), verrs)
		return false
	}
	return true
}

// analyzeRequest is the synchronous evaluation request body.
type analyzeRequest struct {
	AudioURL   string `json:"audio_url" validate:"required,url"`
	Question   string `json:"question" validate:"required,max=5000"`
	QuestionID string `json:"question_id"`
	SessionID  string `json:"session_id"`
}

// AnalyzeResponseHandler runs the full pipeline synchronously and returns
// the transcript, analysis and metrics in one envelope.
func (s *Server) AnalyzeResponseHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req analyzeRequest
		if !decodeValidated(w, r, &req) {
			return
		}
		sess := domain.Session{
			ID:         req.SessionID,
			QuestionID: req.QuestionID,
			Question:   textx.CollapseSpaces(textx.SanitizeText(req.Question)),
			AudioURL:   req.AudioURL,
		}
		tr, a, m, err := s.Analyze.Run(r.Context(), sess)
		if err != nil {
			writeError(w, r, fmt.Errorf("analyze response: %w", err), nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"transcript": tr.Text,
			"sentiment":  tr.Sentiments,
			"entities":   tr.Entities,
			"analysis": map[string]any{
				"content":      a.Content,
				"score":        a.Score,
				"key_points":   a.KeyPoints,
				"strengths":    a.Strengths,
				"weaknesses":   a.Weaknesses,
				"improvements": a.Improvements,
			},
			"metrics": map[string]any{
				"clarity":            m.Clarity,
				"relevance":          m.Relevance,
				"technical_accuracy": m.TechnicalAccuracy,
				"communication":      m.Communication,
			},
		})
	}
}

type createSessionRequest struct {
	UserID     string `json:"user_id"`
	QuestionID string `json:"question_id"`
	Question   string `json:"question" validate:"required,max=5000"`
	AudioURL   string `json:"audio_url" validate:"omitempty,url"`
}

// CreateSessionHandler registers a new answer attempt.
func (s *Server) CreateSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSessionRequest
		if !decodeValidated(w, r, &req) {
			return
		}
		id, err := s.Sessions.Create(r.Context(), req.UserID, req.QuestionID, textx.CollapseSpaces(textx.SanitizeText(req.Question)), req.AudioURL)
		if err != nil {
			writeError(w, r, fmt.Errorf("create session: %w", err), nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(domain.SessionInProgress)})
	}
}

// GetSessionHandler returns one session by id.
func (s *Server) GetSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		sess, err := s.Sessions.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

// ListSessionsHandler returns filtered session history.
func (s *Server) ListSessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := domain.SessionFilter{
			UserID:       q.Get("user_id"),
			QuestionType: q.Get("question_type"),
			Status:       domain.SessionStatus(q.Get("status")),
		}
		if v := q.Get("from"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				writeError(w, r, fmt.Errorf("%w: from must be RFC3339", domain.ErrInvalidArgument), nil)
				return
			}
			f.From = t
		}
		if v := q.Get("to"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				writeError(w, r, fmt.Errorf("%w: to must be RFC3339", domain.ErrInvalidArgument), nil)
				return
			}
			f.To = t
		}
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				writeError(w, r, fmt.Errorf("%w: limit must be an integer", domain.ErrInvalidArgument), nil)
				return
			}
			f.Limit = n
		}
		sessions, err := s.Sessions.List(r.Context(), f)
		if err != nil {
			writeError(w, r, fmt.Errorf("list sessions: %w", err), nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions, "count": len(sessions)})
	}
}

type enqueueRequest struct {
	UserID     string `json:"user_id"`
	QuestionID string `json:"question_id"`
	Question   string `json:"question" validate:"required,max=5000"`
	AudioURL   string `json:"audio_url" validate:"required,url"`
}

// EnqueueEvaluationHandler creates a session and queues it for the worker.
func (s *Server) EnqueueEvaluationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req enqueueRequest
		if !decodeValidated(w, r, &req) {
			return
		}
		id, err := s.Evaluations.Enqueue(r.Context(), req.UserID, req.QuestionID, textx.CollapseSpaces(textx.SanitizeText(req.Question)), req.AudioURL)
		if err != nil {
			writeError(w, r, fmt.Errorf("enqueue evaluation: %w", err), nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "queued"})
	}
}

// EvaluationResultHandler returns the status and, when completed, the
// result of an asynchronous evaluation. Completed payloads carry an ETag
// derived from the session update time and honor If-None-Match.
func (s *Server) EvaluationResultHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		sess, err := s.Evaluations.Result(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		etag := fmt.Sprintf("%q", sess.ID+"-"+strconv.FormatInt(sess.UpdatedAt.UnixNano(), 36))
		if sess.Status == domain.SessionCompleted || sess.Status == domain.SessionFailed {
			w.Header().Set("ETag", etag)
			if r.Header.Get("If-None-Match") == etag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
		writeJSON(w, http.StatusOK, BuildResultEnvelope(sess))
	}
}

// BuildResultEnvelope shapes the evaluation result payload.
func BuildResultEnvelope(sess domain.Session) map[string]any {
	m := map[string]any{"id": sess.ID, "status": string(sess.Status)}
	if sess.Status == domain.SessionFailed && sess.Error != "" {
		m["error"] = sess.Error
	}
	if sess.Status == domain.SessionCompleted && sess.Analysis != nil {
		result := map[string]any{"analysis": sess.Analysis}
		if sess.Transcript != nil {
			result["transcript"] = sess.Transcript
		}
		if sess.Metrics != nil {
			result["metrics"] = sess.Metrics
		}
		m["result"] = result
	}
	return m
}

// UploadAudioHandler accepts one multipart audio file, sniffs its content
// type and forwards the bytes to the transcription service's upload
// endpoint, returning the transient upload URL.
func (s *Server) UploadAudioHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
			writeError(w, r, fmt.Errorf("%w: content-type must be multipart/form-data", domain.ErrInvalidArgument), nil)
			return
		}
		maxBytes := s.Cfg.MaxUploadMB * 1024 * 1024
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "too large") {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
					Code: "INVALID_ARGUMENT", Message: "payload too large",
					Details: map[string]any{"max_mb": s.Cfg.MaxUploadMB},
				}})
				return
			}
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		file, header, err := r.FormFile("audio")
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: audio file required", domain.ErrInvalidArgument), map[string]string{"field": "audio"})
			return
		}
		defer func() { _ = file.Close() }()
		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: audio read: %v", domain.ErrInvalidArgument, err), nil)
			return
		}
		mt := mimetype.Detect(data)
		if !allowedAudioMIME(mt.String()) {
			writeJSON(w, http.StatusUnsupportedMediaType, errorEnvelope{Error: apiError{
				Code: "INVALID_ARGUMENT", Message: "unsupported media type for audio",
				Details: map[string]any{"mime": mt.String(), "filename": header.Filename},
			}})
			return
		}
		uploadURL, err := s.Transcriber.UploadAudio(r.Context(), bytes.NewReader(data))
		if err != nil {
			writeError(w, r, fmt.Errorf("upload audio: %w", err), nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"audio_url": uploadURL, "mime": mt.String(), "size": len(data)})
	}
}

// allowedAudioMIME allows any audio/* plus the containers common recorders
// produce (webm/ogg/mp4 with audio tracks detect as video or application).
func allowedAudioMIME(m string) bool {
	m = strings.ToLower(m)
	if strings.HasPrefix(m, "audio/") {
		return true
	}
	switch {
	case strings.HasPrefix(m, "video/webm"),
		strings.HasPrefix(m, "video/mp4"),
		strings.HasPrefix(m, "application/ogg"):
		return true
	}
	return false
}

type generateQuestionsRequest struct {
	Skills          []string `json:"skills"`
	Experience      string   `json:"experience"`
	JobTitle        string   `json:"job_title" validate:"required,max=200"`
	JobRequirements string   `json:"job_requirements" validate:"max=5000"`
}

// GenerateQuestionsHandler asks the model for tailored interview questions
// and persists the parsed set.
func (s *Server) GenerateQuestionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateQuestionsRequest
		if !decodeValidated(w, r, &req) {
			return
		}
		questions, err := s.Questions.Generate(r.Context(), req.Skills, req.Experience, req.JobTitle, req.JobRequirements)
		if err != nil {
			writeError(w, r, fmt.Errorf("generate questions: %w", err), nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"questions": questions, "count": len(questions)})
	}
}

// GetQuestionHandler returns one stored question by id.
func (s *Server) GetQuestionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		q, err := s.Questions.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

type matchRequest struct {
	Resume evaluation.ResumeProfile `json:"resume"`
	Job    evaluation.JobProfile    `json:"job"`
}

// MatchHandler compares a resume profile against a job profile.
func (s *Server) MatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req matchRequest
		if !decodeValidated(w, r, &req) {
			return
		}
		if len(req.Resume.Skills) == 0 && len(req.Job.Skills) == 0 {
			writeError(w, r, fmt.Errorf("%w: resume or job skills required", domain.ErrInvalidArgument), nil)
			return
		}
		res, err := s.Match.Analyze(r.Context(), req.Resume, req.Job)
		if err != nil {
			writeError(w, r, fmt.Errorf("match analyze: %w", err), nil)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

type resumeRequest struct {
	Text string `json:"text" validate:"required,max=50000"`
}

// AnalyzeResumeHandler extracts skills and an experience level from resume text.
func (s *Server) AnalyzeResumeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resumeRequest
		if !decodeValidated(w, r, &req) {
			return
		}
		res, err := s.Resume.Analyze(r.Context(), textx.CollapseSpaces(textx.SanitizeText(req.Text)))
		if err != nil {
			writeError(w, r, fmt.Errorf("analyze resume: %w", err), nil)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

type ttsRequest struct {
	Text string `json:"text" validate:"required,max=5000"`
}

// SpeakHandler returns synthesized speech for the given text as MP3 bytes.
func (s *Server) SpeakHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ttsRequest
		if !decodeValidated(w, r, &req) {
			return
		}
		audio, err := s.Speech.Speak(r.Context(), req.Text)
		if err != nil {
			writeError(w, r, fmt.Errorf("synthesize: %w", err), nil)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(audio)
	}
}

// HealthzHandler reports process liveness.
func HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler probes the DB, Redis, and any configured extra dependencies.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		probes := []struct {
			name string
			fn   func(ctx context.Context) error
		}{
			{"db", s.DBCheck},
			{"redis", s.RedisCheck},
		}
		extra := make([]string, 0, len(s.ExtraChecks))
		for name := range s.ExtraChecks {
			extra = append(extra, name)
		}
		sort.Strings(extra)
		for _, name := range extra {
			probes = append(probes, struct {
				name string
				fn   func(ctx context.Context) error
			}{name, s.ExtraChecks[name]})
		}
		checks := make([]check, 0, len(probes))
		for _, p := range probes {
			if p.fn == nil {
				continue
			}
			if err := p.fn(ctx); err != nil {
				checks = append(checks, check{Name: p.name, OK: false, Details: err.Error()})
			} else {
				checks = append(checks, check{Name: p.name, OK: true})
			}
		}
		ok := true
		for _, c := range checks {
			if !c.OK {
				ok = false
				break
			}
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
