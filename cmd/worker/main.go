// Command worker consumes queued evaluation tasks and runs the pipeline.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voxprep/interview-evaluator/internal/adapter/ai/openai"
	"github.com/voxprep/interview-evaluator/internal/adapter/observability"
	"github.com/voxprep/interview-evaluator/internal/adapter/queue/redpanda"
	"github.com/voxprep/interview-evaluator/internal/adapter/repo/postgres"
	"github.com/voxprep/interview-evaluator/internal/adapter/transcriber/assemblyai"
	"github.com/voxprep/interview-evaluator/internal/config"
	"github.com/voxprep/interview-evaluator/internal/domain"
	"github.com/voxprep/interview-evaluator/internal/usecase"
)

// timeoutRunner caps one evaluation run so a hung external call cannot hold
// a worker slot forever.
type timeoutRunner struct {
	inner   *usecase.AnalyzeService
	timeout time.Duration
}

func (t timeoutRunner) Run(ctx context.Context, s domain.Session) (domain.Transcript, domain.Analysis, domain.Metrics, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	return t.inner.Run(ctx, s)
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	// Dedicated /metrics endpoint so Prometheus can scrape pipeline metrics
	// from the worker process.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(":9090", mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker metrics server error", slog.Any("error", err))
		}
	}()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	slog.Info("starting worker", slog.String("env", cfg.AppEnv))

	pool, err := postgres.NewPool(context.Background(), cfg.DBURL)
	if err != nil {
		slog.Error("database connection failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	sessionRepo := postgres.NewSessionRepo(pool)
	transcriber := assemblyai.New(cfg.TranscriberBaseURL, cfg.TranscriberAPIKey,
		cfg.TranscribePollInitial, cfg.TranscribePollMax, cfg.TranscribeTimeout)
	chat := openai.New(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.ChatModel, cfg.MaxPromptTokens)

	pipeline := timeoutRunner{
		inner:   usecase.NewAnalyzeService(sessionRepo, transcriber, chat),
		timeout: cfg.EvaluationTimeout,
	}

	consumer, err := redpanda.NewConsumer(cfg.KafkaBrokers, cfg.ConsumerGroup, pipeline, cfg.ConsumerConcurrency)
	if err != nil {
		slog.Error("redpanda consumer init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			slog.Error("failed to close consumer", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	slog.Info("worker started, waiting for tasks",
		slog.String("group", cfg.ConsumerGroup),
		slog.Int("concurrency", cfg.ConsumerConcurrency))
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("worker error", slog.Any("error", err))
	}
	slog.Info("worker stopped")
}
