package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"photomark/internal/metrics"
	"photomark/internal/models"
)

// Handler processes one dequeued job. A non-nil error triggers the retry
// policy; the job is re-published with a bumped attempt counter until the
// attempt bound is reached.
type Handler func(ctx context.Context, job models.Job) error

type Queue struct {
	writer      *kafka.Writer
	broker      string
	topic       string
	group       string
	maxAttempts int
	log         *zerolog.Logger
}

func New(cfg *models.Config, log *zerolog.Logger) *Queue {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  []string{cfg.KafkaBroker},
		Topic:    cfg.KafkaTopic,
		Balancer: &kafka.Hash{},
	})
	return &Queue{
		writer:      writer,
		broker:      cfg.KafkaBroker,
		topic:       cfg.KafkaTopic,
		group:       cfg.KafkaGroup,
		maxAttempts: cfg.MaxAttempts,
		log:         log,
	}
}

func (q *Queue) Close() error {
	return q.writer.Close()
}

// Enqueue assigns a job id, publishes the payload and returns the id.
// Messages are keyed by image id so jobs for one image stay on one
// partition (best-effort FIFO per image).
func (q *Queue) Enqueue(ctx context.Context, imageID uuid.UUID, originalKey, humanLabel string) (uuid.UUID, error) {
	job := models.Job{
		ID:          uuid.New(),
		ImageID:     imageID,
		OriginalKey: originalKey,
		HumanLabel:  humanLabel,
		Attempt:     1,
	}
	if err := q.publish(ctx, job); err != nil {
		return uuid.Nil, err
	}
	return job.ID, nil
}

func (q *Queue) publish(ctx context.Context, job models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshal job %s: %w", job.ID, err)
	}
	err = q.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(job.ImageID.String()),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("queue: publish job %s: %w", job.ID, err)
	}
	return nil
}

// Consume runs the delivery loop until ctx is canceled. A fetch loop feeds
// at most `workers` concurrent handler slots; each message is committed only
// after its handler returns, so an un-acked job is redelivered to the group
// (at-least-once).
func (q *Queue) Consume(ctx context.Context, workers int, h Handler) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{q.broker},
		Topic:   q.topic,
		GroupID: q.group,
	})
	defer reader.Close()

	slots := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				break
			}
			q.log.Error().Err(err).Msg("queue: fetch failed")
			continue
		}

		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return
		}

		wg.Add(1)
		go func(msg kafka.Message) {
			defer wg.Done()
			defer func() { <-slots }()
			q.handle(ctx, reader, msg, h)
		}(msg)
	}
	wg.Wait()
}

func (q *Queue) handle(ctx context.Context, reader *kafka.Reader, msg kafka.Message, h Handler) {
	var job models.Job
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		q.log.Error().Err(err).Msg("queue: dropping undecodable message")
		q.commit(ctx, reader, msg)
		return
	}

	if err := h(ctx, job); err != nil {
		if retryable(job.Attempt, q.maxAttempts) {
			retry := job
			retry.Attempt++
			if pubErr := q.publish(ctx, retry); pubErr != nil {
				q.log.Error().Err(pubErr).
					Str("job_id", job.ID.String()).
					Msg("queue: re-enqueue failed")
			} else {
				metrics.IncJobRetried()
				q.log.Warn().Err(err).
					Str("job_id", job.ID.String()).
					Int("attempt", retry.Attempt).
					Msg("queue: job re-enqueued")
			}
		} else {
			q.log.Error().Err(err).
				Str("job_id", job.ID.String()).
				Int("attempt", job.Attempt).
				Msg("queue: attempts exhausted, job permanently failed")
		}
	}

	q.commit(ctx, reader, msg)
}

func (q *Queue) commit(ctx context.Context, reader *kafka.Reader, msg kafka.Message) {
	if err := reader.CommitMessages(ctx, msg); err != nil {
		q.log.Error().Err(err).Msg("queue: commit failed")
	}
}

func retryable(attempt, maxAttempts int) bool {
	return attempt < maxAttempts
}
