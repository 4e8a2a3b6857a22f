// Package worker drains the analytics subscription into the warehouse router.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/sabjimart/sabji-backend/internal/analytics/router"
	"github.com/sabjimart/sabji-backend/internal/analytics/types"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	"github.com/sabjimart/sabji-backend/pkg/logger"
	"github.com/sabjimart/sabji-backend/pkg/outbox"
)

// ConsumerName scopes the processed-event claims of this worker.
const ConsumerName = "analytics"

type Handler interface {
	Handle(ctx context.Context, envelope types.Envelope) error
}

type HandlerFunc func(ctx context.Context, envelope types.Envelope) error

func (fn HandlerFunc) Handle(ctx context.Context, envelope types.Envelope) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, envelope)
}

type dedupe interface {
	CheckAndMark(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
}

type verdict int

const (
	ack verdict = iota
	// redeliver asks Pub/Sub for another attempt.
	redeliver
)

// Consumer acks malformed and duplicate messages, and nacks only when a retry
// could succeed.
type Consumer struct {
	sub     *gcppubsub.Subscriber
	handler Handler
	seen    dedupe
	logg    *logger.Logger
}

func NewConsumer(sub *gcppubsub.Subscriber, handler Handler, seen dedupe, logg *logger.Logger) (*Consumer, error) {
	switch {
	case sub == nil:
		return nil, errors.New("analytics subscription is required")
	case handler == nil:
		return nil, errors.New("analytics handler is required")
	case seen == nil:
		return nil, errors.New("processed-event store is required")
	}
	return &Consumer{sub: sub, handler: handler, seen: seen, logg: logg}, nil
}

// Run blocks until ctx is cancelled or the subscriber fails.
func (c *Consumer) Run(ctx context.Context) error {
	return c.sub.Receive(ctx, func(msgCtx context.Context, msg *gcppubsub.Message) {
		if c.consume(msgCtx, msg) == redeliver {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (c *Consumer) consume(ctx context.Context, msg *gcppubsub.Message) verdict {
	ctx = c.logg.WithField(ctx, "message_id", msg.ID)

	env, err := decode(msg)
	if err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "dropping malformed analytics message")
		return ack
	}
	ctx = c.logg.WithFields(ctx, map[string]any{
		"event_id":     env.EventID,
		"event_type":   env.EventType,
		"aggregate_id": env.AggregateID,
	})

	eventID, err := uuid.Parse(env.EventID)
	if err != nil {
		c.logg.Warn(ctx, "dropping analytics message with non-uuid event id")
		return ack
	}

	dup, err := c.seen.CheckAndMark(ctx, eventID.String())
	if err != nil {
		c.logg.Error(ctx, "processed-event lookup failed", err)
		return redeliver
	}
	if dup {
		c.logg.Debug(ctx, "duplicate analytics event skipped")
		return ack
	}

	err = c.handler.Handle(ctx, env)
	switch {
	case err == nil:
		c.logg.Debug(ctx, "analytics event stored")
		return ack
	case errors.Is(err, router.ErrUnsupportedEventType):
		c.logg.Warn(ctx, "analytics event has no handler")
		return ack
	}

	c.logg.Error(ctx, "analytics handler failed", err)
	// unmark so the redelivery is not treated as a duplicate
	if err := c.seen.Release(ctx, eventID.String()); err != nil {
		c.logg.Error(ctx, "failed to unmark analytics event", err)
	}
	return redeliver
}

// decode reads the outbox envelope and fills gaps from the message attributes
// the relay stamps on every publish.
func decode(msg *gcppubsub.Message) (types.Envelope, error) {
	stored, err := outbox.DecodeEnvelope(msg.Data)
	if err != nil {
		return types.Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	attr := func(key string) string { return strings.TrimSpace(msg.Attributes[key]) }
	either := func(primary, key string) string {
		if v := strings.TrimSpace(primary); v != "" {
			return v
		}
		return attr(key)
	}

	domainType, err := enums.ParseOutboxEventType(either(string(stored.EventType), "event_type"))
	if err != nil {
		return types.Envelope{}, fmt.Errorf("event_type: %w", err)
	}
	analyticsType, ok := enums.AnalyticsEventFor(domainType)
	if !ok {
		return types.Envelope{}, fmt.Errorf("event_type %s is not tracked", domainType)
	}
	aggregateType, err := enums.ParseOutboxAggregateType(either(string(stored.AggregateType), "aggregate_type"))
	if err != nil {
		return types.Envelope{}, fmt.Errorf("aggregate_type: %w", err)
	}

	var aggregateID string
	if stored.AggregateID != uuid.Nil {
		aggregateID = stored.AggregateID.String()
	}
	aggregateID = either(aggregateID, "aggregate_id")
	if aggregateID == "" {
		return types.Envelope{}, errors.New("aggregate_id missing")
	}
	eventID := either(stored.EventID, "event_id")
	if eventID == "" {
		return types.Envelope{}, errors.New("event_id missing")
	}

	occurredAt := stored.OccurredAt
	if occurredAt.IsZero() {
		occurredAt, _ = time.Parse(time.RFC3339Nano, attr("created_at"))
	}

	env := types.Envelope{
		EventID:       eventID,
		EventType:     analyticsType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		OccurredAt:    occurredAt.UTC(),
		Payload:       stored.Data,
	}
	if stored.Actor != nil {
		env.ActorRole = stored.Actor.Role
		env.ActorID = stored.Actor.UserID
	}
	return env, nil
}
