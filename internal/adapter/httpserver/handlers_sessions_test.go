package httpserver_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpserver "github.com/voxprep/interview-evaluator/internal/adapter/httpserver"
	"github.com/voxprep/interview-evaluator/internal/domain"
	"github.com/voxprep/interview-evaluator/internal/usecase"
)

func sessionRouter(srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/sessions", srv.CreateSessionHandler())
	r.Get("/v1/sessions", srv.ListSessionsHandler())
	r.Get("/v1/sessions/{id}", srv.GetSessionHandler())
	return r
}

func TestCreateSessionHandler(t *testing.T) {
	t.Parallel()
	repo := &mockSessionRepo{}
	repo.On("Create", mock.Anything, mock.MatchedBy(func(s domain.Session) bool {
		return s.UserID == "u1" && s.Question == "Tell me about Go" && s.Status == domain.SessionInProgress
	})).Return("sess-1", nil)

	srv := &httpserver.Server{Sessions: usecase.NewSessionService(repo, 5*time.Minute)}
	body := `{"user_id":"u1","question":"Tell me about Go"}`
	r := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(body))
	w := httptest.NewRecorder()
	sessionRouter(srv).ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "sess-1", resp["id"])
	assert.Equal(t, "in_progress", resp["status"])
	repo.AssertExpectations(t)
}

func TestCreateSessionHandlerCollapsesQuestionWhitespace(t *testing.T) {
	t.Parallel()
	repo := &mockSessionRepo{}
	repo.On("Create", mock.Anything, mock.MatchedBy(func(s domain.Session) bool {
		return s.Question == "Tell me about Go"
	})).Return("sess-2", nil)

	srv := &httpserver.Server{Sessions: usecase.NewSessionService(repo, 0)}
	body := `{"user_id":"u1","question":"Tell   me\tabout  Go"}`
	r := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(body))
	w := httptest.NewRecorder()
	sessionRouter(srv).ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	repo.AssertExpectations(t)
}

func TestCreateSessionHandlerMissingQuestion(t *testing.T) {
	t.Parallel()
	srv := &httpserver.Server{Sessions: usecase.NewSessionService(&mockSessionRepo{}, 0)}
	r := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(`{"user_id":"u1"}`))
	w := httptest.NewRecorder()
	sessionRouter(srv).ServeHTTP(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSessionHandlerNotFound(t *testing.T) {
	t.Parallel()
	repo := &mockSessionRepo{}
	repo.On("Get", mock.Anything, "nope").Return(domain.Session{}, domain.ErrNotFound)

	srv := &httpserver.Server{Sessions: usecase.NewSessionService(repo, 5*time.Minute)}
	r := httptest.NewRequest(http.MethodGet, "/v1/sessions/nope", nil)
	w := httptest.NewRecorder()
	sessionRouter(srv).ServeHTTP(w, r)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSessionHandlerCompleted(t *testing.T) {
	t.Parallel()
	repo := &mockSessionRepo{}
	repo.On("Get", mock.Anything, "sess-1").Return(domain.Session{
		ID:        "sess-1",
		Status:    domain.SessionCompleted,
		Analysis:  &domain.Analysis{Content: "good answer", Score: 81},
		UpdatedAt: time.Now().UTC(),
	}, nil)

	srv := &httpserver.Server{Sessions: usecase.NewSessionService(repo, 5*time.Minute)}
	r := httptest.NewRequest(http.MethodGet, "/v1/sessions/sess-1", nil)
	w := httptest.NewRecorder()
	sessionRouter(srv).ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var sess domain.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
	assert.Equal(t, domain.SessionCompleted, sess.Status)
	assert.InDelta(t, 81.0, sess.Analysis.Score, 1e-9)
}

func TestListSessionsHandlerFilters(t *testing.T) {
	t.Parallel()
	repo := &mockSessionRepo{}
	repo.On("List", mock.Anything, mock.MatchedBy(func(f domain.SessionFilter) bool {
		return f.UserID == "u1" && f.Status == domain.SessionCompleted && f.Limit == 10
	})).Return([]domain.Session{{ID: "a"}, {ID: "b"}}, nil)

	srv := &httpserver.Server{Sessions: usecase.NewSessionService(repo, 5*time.Minute)}
	r := httptest.NewRequest(http.MethodGet, "/v1/sessions?user_id=u1&status=completed&limit=10", nil)
	w := httptest.NewRecorder()
	sessionRouter(srv).ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Sessions []domain.Session `json:"sessions"`
		Count    int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	repo.AssertExpectations(t)
}

func TestListSessionsHandlerBadParams(t *testing.T) {
	t.Parallel()
	srv := &httpserver.Server{Sessions: usecase.NewSessionService(&mockSessionRepo{}, 0)}

	for name, query := range map[string]string{
		"bad from":  "?from=yesterday",
		"bad to":    "?to=tomorrow",
		"bad limit": "?limit=ten",
	} {
		query := query
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/v1/sessions"+query, nil)
			w := httptest.NewRecorder()
			sessionRouter(srv).ServeHTTP(w, r)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
