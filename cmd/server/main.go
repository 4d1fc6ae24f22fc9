// Command server starts the interview evaluator HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/voxprep/interview-evaluator/internal/adapter/ai/gemini"
	"github.com/voxprep/interview-evaluator/internal/adapter/ai/openai"
	"github.com/voxprep/interview-evaluator/internal/adapter/cache"
	httpserver "github.com/voxprep/interview-evaluator/internal/adapter/httpserver"
	"github.com/voxprep/interview-evaluator/internal/adapter/observability"
	"github.com/voxprep/interview-evaluator/internal/adapter/queue/redpanda"
	"github.com/voxprep/interview-evaluator/internal/adapter/repo/postgres"
	"github.com/voxprep/interview-evaluator/internal/adapter/transcriber/assemblyai"
	ttsgoogle "github.com/voxprep/interview-evaluator/internal/adapter/tts/google"
	"github.com/voxprep/interview-evaluator/internal/app"
	"github.com/voxprep/interview-evaluator/internal/config"
	"github.com/voxprep/interview-evaluator/internal/usecase"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	sessionRepo := postgres.NewSessionRepo(pool)
	questionRepo := postgres.NewQuestionRepo(pool)

	producer, err := redpanda.NewProducer(cfg.KafkaBrokers)
	if err != nil {
		slog.Error("redpanda producer connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := producer.Close(); err != nil {
			slog.Error("failed to close queue producer", slog.Any("error", err))
		}
	}()

	transcriber := assemblyai.New(cfg.TranscriberBaseURL, cfg.TranscriberAPIKey,
		cfg.TranscribePollInitial, cfg.TranscribePollMax, cfg.TranscribeTimeout)
	chat := openai.New(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.ChatModel, cfg.MaxPromptTokens)
	synth := ttsgoogle.New(cfg.TTSBaseURL, cfg.TTSAPIKey, cfg.TTSVoice)
	audioCache := cache.NewAudioCache(cfg.RedisAddr, cfg.TTSCacheTTL)
	defer func() { _ = audioCache.Close() }()

	var resumeGen usecase.ContentGenerator
	if cfg.GeminiAPIKey != "" {
		gen, err := gemini.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			slog.Error("gemini client init failed", slog.Any("error", err))
		} else {
			resumeGen = gen
		}
	} else {
		slog.Warn("GEMINI_API_KEY not set, resume analysis disabled")
	}

	sessionSvc := usecase.NewSessionService(sessionRepo, cfg.StaleAfter)
	analyzeSvc := usecase.NewAnalyzeService(sessionRepo, transcriber, chat)
	evalSvc := usecase.NewEvaluationService(sessionSvc, producer)
	questionSvc := usecase.NewQuestionService(questionRepo, chat)
	matchSvc := usecase.NewMatchService(chat)
	resumeSvc := usecase.NewResumeService(resumeGen)
	speechSvc := usecase.NewSpeechService(synth, audioCache, cfg.TTSVoice)

	if cfg.QuestionSeedFile != "" {
		if err := seedQuestionsFromYAML(ctx, questionRepo, cfg.QuestionSeedFile); err != nil {
			slog.Error("question seeding failed", slog.String("file", cfg.QuestionSeedFile), slog.Any("error", err))
		}
	}

	dbCheck, redisCheck := app.BuildReadinessChecks(pool, audioCache)

	srv := &httpserver.Server{
		Cfg:         cfg,
		Sessions:    sessionSvc,
		Evaluations: evalSvc,
		Analyze:     analyzeSvc,
		Questions:   questionSvc,
		Match:       matchSvc,
		Resume:      resumeSvc,
		Speech:      speechSvc,
		Transcriber: transcriber,
		DBCheck:     dbCheck,
		RedisCheck:  redisCheck,
		ExtraChecks: app.ConfigPresenceChecks(cfg),
	}
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
