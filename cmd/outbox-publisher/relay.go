package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sabjimart/sabji-backend/pkg/config"
	"github.com/sabjimart/sabji-backend/pkg/db/models"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	"github.com/sabjimart/sabji-backend/pkg/logger"
	"github.com/sabjimart/sabji-backend/pkg/outbox/registry"
)

const (
	publishTimeout = 15 * time.Second
	idleCeiling    = 10 * time.Second
	jitterWindow   = 250 * time.Millisecond
)

type outcome string

const (
	outcomePublished    outcome = "published"
	outcomeRetry        outcome = "retry"
	outcomeDeadLettered outcome = "dead_lettered"
)

type txRunner interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type topicSource interface {
	Ping(context.Context) error
	Publisher(topic string) *gcppubsub.Publisher
}

type outboxRows interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type deadLetters interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type resolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type publishRecorder interface {
	IncPublished(eventType, result string)
}

// sender publishes one message and blocks until the broker acks it.
type sender func(ctx context.Context, topic string, msg *gcppubsub.Message) error

type RelayParams struct {
	Config   config.OutboxConfig
	Logger   *logger.Logger
	DB       txRunner
	Topics   topicSource
	Rows     outboxRows
	DLQ      deadLetters
	Registry resolver
	Metrics  publishRecorder
	Send     sender
}

// Relay moves committed outbox rows onto Pub/Sub. Rows are locked for the
// duration of one batch so parallel relays never publish the same row twice.
type Relay struct {
	logg        *logger.Logger
	db          txRunner
	topics      topicSource
	rows        outboxRows
	dlq         deadLetters
	registry    resolver
	metrics     publishRecorder
	send        sender
	batchSize   int
	maxAttempts int
	interval    time.Duration
}

func NewRelay(p RelayParams) (*Relay, error) {
	switch {
	case p.Logger == nil:
		return nil, errors.New("logger is required")
	case p.DB == nil:
		return nil, errors.New("database client is required")
	case p.Topics == nil:
		return nil, errors.New("pubsub client is required")
	case p.Rows == nil || p.DLQ == nil:
		return nil, errors.New("outbox repositories are required")
	case p.Registry == nil:
		return nil, errors.New("event registry is required")
	}

	r := &Relay{
		logg:        p.Logger,
		db:          p.DB,
		topics:      p.Topics,
		rows:        p.Rows,
		dlq:         p.DLQ,
		registry:    p.Registry,
		metrics:     p.Metrics,
		send:        p.Send,
		batchSize:   positiveOr(p.Config.BatchSize, 50),
		maxAttempts: positiveOr(p.Config.MaxAttempts, 10),
		interval:    time.Duration(positiveOr(p.Config.PollIntervalMS, 500)) * time.Millisecond,
	}
	if r.send == nil {
		r.send = r.sendViaPubSub
	}
	return r, nil
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// Run polls until ctx is cancelled. A full batch is followed immediately by the
// next one; an empty batch waits one interval and failures back off exponentially.
func (r *Relay) Run(ctx context.Context) error {
	for name, ping := range map[string]func(context.Context) error{"database": r.db.Ping, "pubsub": r.topics.Ping} {
		if err := ping(ctx); err != nil {
			r.logg.Error(ctx, name+" ping failed", err)
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
	}

	wait := r.interval
	for {
		if err := ctx.Err(); err != nil {
			r.logg.Info(ctx, "outbox relay stopping")
			return err
		}

		n, err := r.drain(ctx)
		switch {
		case err != nil:
			r.logg.Error(ctx, "outbox relay batch failed", err)
			wait = min(wait*2, idleCeiling)
		case n > 0:
			wait = r.interval
			continue
		default:
			wait = r.interval
		}

		if err := sleepCtx(ctx, wait+time.Duration(rand.Int64N(int64(jitterWindow)))); err != nil {
			return err
		}
	}
}

// drain handles a single locked batch and reports how many rows it touched.
func (r *Relay) drain(ctx context.Context) (int, error) {
	var handled int
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := r.rows.FetchUnpublishedForPublish(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return err
		}
		for _, row := range rows {
			result, err := r.dispatch(ctx, tx, row)
			if err != nil {
				return err
			}
			r.record(row.EventType, result)
			handled++
		}
		return nil
	})
	return handled, err
}

func (r *Relay) dispatch(ctx context.Context, tx *gorm.DB, row models.OutboxEvent) (outcome, error) {
	ctx = r.logg.WithFields(ctx, map[string]any{
		"outbox_id":     row.ID.String(),
		"event_type":    row.EventType,
		"aggregate_id":  row.AggregateID.String(),
		"attempt_count": row.AttemptCount,
	})

	resolved, err := r.registry.Resolve(row)
	if err != nil {
		return outcomeDeadLettered, r.deadLetter(ctx, tx, row, enums.OutboxDLQReasonNonRetryable, err)
	}
	topic := resolved.Route.Topic
	ctx = r.logg.WithFields(ctx, map[string]any{"topic": topic, "event_id": resolved.Envelope.EventID})

	sendErr := r.send(ctx, topic, message(row, resolved.Envelope.EventID))
	if sendErr == nil {
		if err := r.rows.MarkPublishedTx(tx, row.ID); err != nil {
			return "", fmt.Errorf("mark published %s: %w", row.ID, err)
		}
		r.logg.Info(ctx, "outbox event published")
		return outcomePublished, nil
	}

	var permanent registry.NonRetryableError
	if errors.As(sendErr, &permanent) {
		return outcomeDeadLettered, r.deadLetter(ctx, tx, row, enums.OutboxDLQReasonNonRetryable, sendErr)
	}
	if row.AttemptCount+1 >= r.maxAttempts {
		return outcomeDeadLettered, r.deadLetter(ctx, tx, row, enums.OutboxDLQReasonMaxAttempts, fmt.Errorf("max publish attempts reached: %w", sendErr))
	}

	r.logg.Warn(r.logg.WithField(ctx, "error", sendErr.Error()), "outbox publish failed; will retry")
	if err := r.rows.MarkFailedTx(tx, row.ID, sendErr); err != nil {
		return "", fmt.Errorf("mark failed %s: %w", row.ID, err)
	}
	return outcomeRetry, nil
}

func (r *Relay) deadLetter(ctx context.Context, tx *gorm.DB, row models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error) error {
	r.logg.Warn(r.logg.WithFields(ctx, map[string]any{"error": cause.Error(), "error_reason": reason}), "outbox event dead-lettered")

	msg := cause.Error()
	entry := models.OutboxDLQ{
		EventID:       row.ID,
		EventType:     row.EventType,
		AggregateType: row.AggregateType,
		AggregateID:   row.AggregateID,
		Payload:       row.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &msg,
		AttemptCount:  row.AttemptCount,
		FailedAt:      time.Now().UTC(),
	}
	if err := r.dlq.InsertTx(tx, entry); err != nil {
		return fmt.Errorf("insert dlq %s: %w", row.ID, err)
	}
	if err := r.rows.MarkTerminalTx(tx, row.ID, cause, r.maxAttempts); err != nil {
		return fmt.Errorf("mark terminal %s: %w", row.ID, err)
	}
	return nil
}

// message carries the stored envelope verbatim; attributes let subscribers
// route without decoding the body.
func message(row models.OutboxEvent, eventID string) *gcppubsub.Message {
	return &gcppubsub.Message{
		Data: row.Payload,
		Attributes: map[string]string{
			"event_id":       eventID,
			"event_type":     string(row.EventType),
			"aggregate_type": string(row.AggregateType),
			"aggregate_id":   row.AggregateID.String(),
			"created_at":     row.CreatedAt.Format(time.RFC3339Nano),
		},
	}
}

func (r *Relay) sendViaPubSub(ctx context.Context, topic string, msg *gcppubsub.Message) error {
	pub := r.topics.Publisher(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	_, err := pub.Publish(ctx, msg).Get(ctx)
	return err
}

func (r *Relay) record(eventType enums.OutboxEventType, result outcome) {
	if r.metrics != nil {
		r.metrics.IncPublished(string(eventType), string(result))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
