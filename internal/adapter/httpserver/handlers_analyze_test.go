package httpserver_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpserver "github.com/voxprep/interview-evaluator/internal/adapter/httpserver"
	"github.com/voxprep/interview-evaluator/internal/domain"
	"github.com/voxprep/interview-evaluator/internal/usecase"
)

const analysisFixture = `The candidate directly addressed the question.

Key Points:
- Explained the architecture
- Covered trade-offs

Strengths:
- Clear and concise delivery

Weaknesses:
- Skipped failure modes

Improvements:
- Discuss monitoring next time`

func analyzeRouter(srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/interview/analyze-response", srv.AnalyzeResponseHandler())
	return r
}

func TestAnalyzeResponseHandlerSuccess(t *testing.T) {
	t.Parallel()
	sessions := &mockSessionRepo{}
	tr := &mockTranscriber{}
	ai := &mockAIClient{}

	transcript := domain.Transcript{
		Text: "I designed a queue based system for order processing. It scaled well under heavy production load.",
		Sentiments: []domain.SentimentSegment{
			{Text: "It scaled well.", Sentiment: domain.SentimentPositive, Confidence: 0.9},
		},
		Entities: []domain.Entity{{Type: "technology", Text: "queue"}},
	}
	sessions.On("UpdateStatus", mock.Anything, "sess-9", domain.SessionProcessing, (*string)(nil)).Return(nil)
	tr.On("Transcribe", mock.Anything, "https://cdn.example.com/a.webm").Return(transcript, nil)
	ai.On("Chat", mock.Anything, mock.Anything, mock.Anything, 0.5, 1000).Return(analysisFixture, nil)
	sessions.On("Complete", mock.Anything, "sess-9", transcript, mock.Anything, mock.Anything).Return(nil)

	srv := &httpserver.Server{Analyze: usecase.NewAnalyzeService(sessions, tr, ai)}
	body := `{"audio_url":"https://cdn.example.com/a.webm","question":"Describe a system you designed","session_id":"sess-9"}`
	r := httptest.NewRequest(http.MethodPost, "/v1/interview/analyze-response", strings.NewReader(body))
	w := httptest.NewRecorder()
	analyzeRouter(srv).ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Transcript string                    `json:"transcript"`
		Sentiment  []domain.SentimentSegment `json:"sentiment"`
		Entities   []domain.Entity           `json:"entities"`
		Analysis   struct {
			Content      string   `json:"content"`
			Score        float64  `json:"score"`
			KeyPoints    []string `json:"key_points"`
			Strengths    []string `json:"strengths"`
			Weaknesses   []string `json:"weaknesses"`
			Improvements []string `json:"improvements"`
		} `json:"analysis"`
		Metrics struct {
			Clarity           float64 `json:"clarity"`
			Relevance         float64 `json:"relevance"`
			TechnicalAccuracy float64 `json:"technical_accuracy"`
			Communication     float64 `json:"communication"`
		} `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, transcript.Text, resp.Transcript)
	assert.Len(t, resp.Sentiment, 1)
	assert.Len(t, resp.Entities, 1)
	assert.Equal(t, analysisFixture, resp.Analysis.Content)
	assert.InDelta(t, 83.0, resp.Analysis.Score, 1e-9)
	assert.Equal(t, []string{"Explained the architecture", "Covered trade-offs"}, resp.Analysis.KeyPoints)
	assert.InDelta(t, 95.0, resp.Metrics.Relevance, 1e-9)
	sessions.AssertExpectations(t)
}

func TestAnalyzeResponseHandlerExternalFailure(t *testing.T) {
	t.Parallel()
	sessions := &mockSessionRepo{}
	tr := &mockTranscriber{}
	ai := &mockAIClient{}

	sessions.On("UpdateStatus", mock.Anything, "sess-9", domain.SessionProcessing, (*string)(nil)).Return(nil)
	tr.On("Transcribe", mock.Anything, mock.Anything).Return(domain.Transcript{}, domain.ErrExternalService)
	sessions.On("UpdateStatus", mock.Anything, "sess-9", domain.SessionFailed, mock.AnythingOfType("*string")).Return(nil)

	srv := &httpserver.Server{Analyze: usecase.NewAnalyzeService(sessions, tr, ai)}
	body := `{"audio_url":"https://cdn.example.com/a.webm","question":"Q","session_id":"sess-9"}`
	r := httptest.NewRequest(http.MethodPost, "/v1/interview/analyze-response", strings.NewReader(body))
	w := httptest.NewRecorder()
	analyzeRouter(srv).ServeHTTP(w, r)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "EXTERNAL_SERVICE", env.Error.Code)
	assert.Equal(t, "external service error", env.Error.Message)
	ai.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyzeResponseHandlerValidation(t *testing.T) {
	t.Parallel()
	srv := &httpserver.Server{Analyze: usecase.NewAnalyzeService(&mockSessionRepo{}, &mockTranscriber{}, &mockAIClient{})}

	for name, body := range map[string]string{
		"missing audio_url": `{"question":"Q"}`,
		"bad url":           `{"audio_url":"not-a-url","question":"Q"}`,
		"missing question":  `{"audio_url":"https://cdn.example.com/a.webm"}`,
		"invalid json":      `{`,
	} {
		body := body
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodPost, "/v1/interview/analyze-response", strings.NewReader(body))
			w := httptest.NewRecorder()
			analyzeRouter(srv).ServeHTTP(w, r)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
