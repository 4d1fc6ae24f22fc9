// Package app wires the HTTP router and shared process-level plumbing.
package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpserver "github.com/voxprep/interview-evaluator/internal/adapter/httpserver"
	"github.com/voxprep/interview-evaluator/internal/adapter/observability"
	"github.com/voxprep/interview-evaluator/internal/config"
)

// ParseOrigins splits a comma-separated origin list into a slice, trimming
// spaces. An empty input allows all origins.
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// BuildRouter constructs the HTTP handler with all middlewares and routes.
func BuildRouter(cfg config.Config, srv *httpserver.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	r.Use(httpserver.TimeoutMiddleware(cfg.RequestTimeout))
	r.Use(httpserver.TraceMiddleware)
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Rate limit mutating endpoints
	r.Group(func(wr chi.Router) {
		wr.Use(httprate.LimitByIP(cfg.RateLimitPerMin, 1*time.Minute))
		wr.Post("/v1/interview/analyze-response", srv.AnalyzeResponseHandler())
		wr.Post("/v1/sessions", srv.CreateSessionHandler())
		wr.Post("/v1/evaluations", srv.EnqueueEvaluationHandler())
		wr.Post("/v1/audio/upload", srv.UploadAudioHandler())
		wr.Post("/v1/questions/generate", srv.GenerateQuestionsHandler())
		wr.Post("/v1/jobs/match", srv.MatchHandler())
		wr.Post("/v1/resume/analyze", srv.AnalyzeResumeHandler())
		wr.Post("/v1/tts", srv.SpeakHandler())
	})

	// Read-only endpoints
	r.Get("/v1/sessions/{id}", srv.GetSessionHandler())
	r.Get("/v1/evaluations/{id}", srv.EvaluationResultHandler())
	r.Get("/v1/questions/{id}", srv.GetQuestionHandler())

	// Cross-user history stays behind the admin guard when configured.
	r.Group(func(ar chi.Router) {
		if cfg.AdminEnabled() {
			ar.Use(httpserver.AdminAuth(cfg))
		}
		ar.Get("/v1/sessions", srv.ListSessionsHandler())
	})

	// Health and metrics
	r.Get("/healthz", httpserver.HealthzHandler())
	r.Get("/readyz", srv.ReadyzHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) { promhttp.Handler().ServeHTTP(w, r) })

	return httpserver.SecurityHeaders(r)
}
