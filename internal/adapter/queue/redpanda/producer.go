// Package redpanda provides Redpanda/Kafka queue integration for the async
// evaluation path. Messages are produced and consumed transactionally so an
// evaluation run is delivered exactly once to a worker.
package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/voxprep/interview-evaluator/internal/adapter/observability"
	"github.com/voxprep/interview-evaluator/internal/domain"
)

const (
	// TopicEvaluate is the Kafka topic for evaluation runs.
	TopicEvaluate = "evaluate-sessions"
)

// Producer wraps a Kafka producer and implements domain.Queue.
type Producer struct {
	client *kgo.Client
	// Serializes transactions; the kgo transactional producer allows one
	// open transaction at a time.
	transactionChan chan struct{}
}

// NewProducer constructs a transactional Producer.
func NewProducer(brokers []string) (*Producer, error) {
	return NewProducerWithTransactionalID(brokers, "interview-evaluator-producer")
}

// NewProducerWithTransactionalID constructs a Producer with a custom
// transactional ID. Tests use unique IDs to avoid fencing each other.
func NewProducerWithTransactionalID(brokers []string, transactionalID string) (*Producer, error) {
	slog.Info("creating redpanda producer", slog.Any("brokers", brokers), slog.String("transactional_id", transactionalID))

	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.TransactionalID(transactionalID),
		kgo.RequestRetries(10),
		kgo.ProducerBatchMaxBytes(1000000),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		slog.Error("failed to create redpanda client", slog.Any("error", err))
		return nil, fmt.Errorf("redpanda client: %w", err)
	}

	ctx := context.Background()
	if err := createTopicIfNotExists(ctx, client, TopicEvaluate, 1, 1); err != nil {
		// Don't fail if topic creation fails; it might already exist.
		slog.Warn("failed to create topic, it may already exist",
			slog.String("topic", TopicEvaluate),
			slog.Any("error", err))
	}

	return &Producer{
		client:          client,
		transactionChan: make(chan struct{}, 1),
	}, nil
}

// EnqueueEvaluate enqueues an evaluation run with exactly-once semantics and
// returns the session id as the task id.
func (p *Producer) EnqueueEvaluate(ctx domain.Context, payload domain.EvaluateTaskPayload) (string, error) {
	return p.EnqueueEvaluateToTopic(ctx, payload, TopicEvaluate)
}

// EnqueueEvaluateToTopic enqueues an evaluation run to a specific topic.
// Tests use unique topics for isolation.
func (p *Producer) EnqueueEvaluateToTopic(ctx domain.Context, payload domain.EvaluateTaskPayload, topic string) (string, error) {
	select {
	case p.transactionChan <- struct{}{}:
		defer func() { <-p.transactionChan }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if err := p.client.BeginTransaction(); err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}

	b, err := json.Marshal(payload)
	if err != nil {
		if abortErr := p.client.EndTransaction(ctx, kgo.TryAbort); abortErr != nil {
			slog.Error("failed to abort transaction", slog.Any("error", abortErr))
		}
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	record := &kgo.Record{
		Topic: topic,
		// Session id as key keeps runs for one session ordered.
		Key:   []byte(payload.SessionID),
		Value: b,
		Headers: []kgo.RecordHeader{
			{Key: "session_id", Value: []byte(payload.SessionID)},
			{Key: "question_id", Value: []byte(payload.QuestionID)},
		},
	}

	e := kgo.AbortingFirstErrPromise(p.client)
	p.client.Produce(ctx, record, e.Promise())
	if err := e.Err(); err != nil {
		if abortErr := p.client.EndTransaction(ctx, kgo.TryAbort); abortErr != nil {
			slog.Error("failed to abort transaction", slog.Any("error", abortErr))
		}
		return "", fmt.Errorf("produce: %w", err)
	}

	if err := p.client.EndTransaction(ctx, kgo.TryCommit); err != nil {
		return "", fmt.Errorf("commit transaction: %w", err)
	}

	observability.EnqueueJob("evaluate")
	slog.Info("redpanda enqueue successful",
		slog.String("topic", topic),
		slog.String("session_id", payload.SessionID))
	return payload.SessionID, nil
}

// Close closes the producer.
func (p *Producer) Close() error {
	if p.client != nil {
		p.client.Close()
	}
	return nil
}
