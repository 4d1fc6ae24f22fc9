package redpanda

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"

	"github.com/voxprep/interview-evaluator/internal/domain"
)

// Consumer wraps a Kafka group consumer with read-committed isolation and a
// fixed worker pool. Failed runs are not redelivered; the pipeline marks the
// session failed and the offset is committed.
type Consumer struct {
	session  *kgo.GroupTransactSession
	pipeline PipelineRunner

	groupID     string
	topic       string
	concurrency int

	recordQueue chan *kgo.Record
	shutdown    chan struct{}
}

// NewConsumer constructs a Consumer for the default evaluation topic.
func NewConsumer(brokers []string, groupID string, pipeline PipelineRunner, concurrency int) (*Consumer, error) {
	return NewConsumerWithTopic(brokers, groupID, "interview-evaluator-consumer", pipeline, concurrency, TopicEvaluate)
}

// NewConsumerWithTopic constructs a Consumer with a custom transactional ID
// and topic. Tests use unique values for isolation.
func NewConsumerWithTopic(brokers []string, groupID, transactionalID string, pipeline PipelineRunner, concurrency int, topic string) (*Consumer, error) {
	slog.Info("creating redpanda consumer",
		slog.Any("brokers", brokers),
		slog.String("group_id", groupID),
		slog.String("topic", topic))

	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}
	if groupID == "" {
		return nil, fmt.Errorf("missing required group ID")
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	ctx := context.Background()
	tempClient, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return nil, fmt.Errorf("temp client: %w", err)
	}
	defer tempClient.Close()
	if err := createTopicIfNotExists(ctx, tempClient, topic, 1, 1); err != nil {
		slog.Warn("failed to create topic, it may already exist",
			slog.String("topic", topic),
			slog.Any("error", err))
	}

	kotelTracer := kotel.NewTracer(
		kotel.TracerProvider(otel.GetTracerProvider()),
	)
	kotelService := kotel.NewKotel(
		kotel.WithTracer(kotelTracer),
	)

	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.TransactionalID(transactionalID),
		kgo.FetchIsolationLevel(kgo.ReadCommitted()),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topic),
		kgo.RequireStableFetchOffsets(),
		kgo.WithHooks(kotelService.Hooks()...),
		kgo.DialTimeout(10 * time.Second),
		kgo.SessionTimeout(30 * time.Second),
		kgo.HeartbeatInterval(3 * time.Second),
		kgo.AutoCommitMarks(),
		kgo.AutoCommitInterval(1 * time.Second),
	}

	session, err := kgo.NewGroupTransactSession(opts...)
	if err != nil {
		return nil, fmt.Errorf("redpanda transactional session: %w", err)
	}

	return &Consumer{
		session:     session,
		pipeline:    pipeline,
		groupID:     groupID,
		topic:       topic,
		concurrency: concurrency,
		recordQueue: make(chan *kgo.Record, concurrency*2),
		shutdown:    make(chan struct{}),
	}, nil
}

// Start begins consuming until the context is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	slog.Info("starting redpanda consumer",
		slog.String("group_id", c.groupID),
		slog.String("topic", c.topic),
		slog.Int("concurrency", c.concurrency))

	for i := 0; i < c.concurrency; i++ {
		go c.worker(ctx, i)
	}
	go c.fetchLoop(ctx)

	<-ctx.Done()
	close(c.shutdown)
	return ctx.Err()
}

func (c *Consumer) fetchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.shutdown:
			return
		default:
		}

		fetches := c.session.PollFetches(ctx)
		if errs := fetches.Errors(); len(errs) > 0 {
			fatal := false
			for _, fe := range errs {
				if fe.Err == context.Canceled {
					fatal = true
					continue
				}
				slog.Error("fetch error",
					slog.String("topic", fe.Topic),
					slog.Int("partition", int(fe.Partition)),
					slog.Any("error", fe.Err))
			}
			if fatal {
				return
			}
			time.Sleep(2 * time.Second)
			continue
		}

		fetches.EachRecord(func(record *kgo.Record) {
			select {
			case c.recordQueue <- record:
			case <-ctx.Done():
			}
		})
	}
}

func (c *Consumer) worker(ctx context.Context, workerID int) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.shutdown:
			return
		case record := <-c.recordQueue:
			if record == nil {
				return
			}
			if err := c.processRecord(ctx, record); err != nil {
				slog.Error("failed to process record",
					slog.Int("worker_id", workerID),
					slog.Int64("offset", record.Offset),
					slog.Any("error", err))
			}
			c.session.Client().MarkCommitRecords(record)
		}
	}
}

// processRecord unmarshals one evaluation task and runs the pipeline for it.
func (c *Consumer) processRecord(ctx context.Context, record *kgo.Record) error {
	tracer := otel.Tracer("queue.consumer")
	ctx, span := tracer.Start(ctx, "ProcessEvaluateTask")
	defer span.End()

	var payload domain.EvaluateTaskPayload
	if err := json.Unmarshal(record.Value, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	slog.Info("processing evaluate task",
		slog.String("session_id", payload.SessionID),
		slog.Int64("offset", record.Offset))
	return HandleEvaluate(ctx, c.pipeline, payload)
}

// Close closes the consumer session.
func (c *Consumer) Close() error {
	if c.session != nil {
		c.session.Close()
	}
	return nil
}
