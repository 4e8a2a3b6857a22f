// Package registry knows which outbox event types the relay may publish, the
// topic each goes to and how to decode its payload.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sabjimart/sabji-backend/pkg/config"
	"github.com/sabjimart/sabji-backend/pkg/db/models"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	"github.com/sabjimart/sabji-backend/pkg/outbox"
	"github.com/sabjimart/sabji-backend/pkg/outbox/payloads"
)

// NonRetryableError marks a row that can never be published as stored.
type NonRetryableError struct {
	Err error
}

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable outbox error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error { return e.Err }

func permanent(format string, args ...any) error {
	return NewNonRetryableError(fmt.Errorf(format, args...))
}

type Route struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
	decode        func(json.RawMessage) (any, error)
}

// route binds an event type to the payload struct T it must decode into.
func route[T any](event enums.OutboxEventType, aggregate enums.OutboxAggregateType, topic string) Route {
	return Route{
		EventType:     event,
		AggregateType: aggregate,
		Topic:         topic,
		decode: func(raw json.RawMessage) (any, error) {
			payload := new(T)
			if err := json.Unmarshal(raw, payload); err != nil {
				return nil, err
			}
			return payload, nil
		},
	}
}

type ResolvedEvent struct {
	Route    Route
	Envelope outbox.PayloadEnvelope
	// Payload is a pointer to the typed struct from package payloads.
	Payload any
}

type EventRegistry struct {
	routes map[enums.OutboxEventType]Route
}

// NewEventRegistry routes every marketplace event to the domain topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	topic := cfg.DomainTopic
	if topic == "" {
		return nil, errors.New("domain topic is required")
	}
	routes := []Route{
		route[payloads.OrderCreatedEvent](enums.EventOrderCreated, enums.AggregateOrder, topic),
		route[payloads.OrderPaidEvent](enums.EventOrderPaid, enums.AggregateOrder, topic),
		route[payloads.OrderPaymentFailedEvent](enums.EventOrderPaymentFailed, enums.AggregateOrder, topic),
		route[payloads.OrderStatusChangedEvent](enums.EventOrderStatusChanged, enums.AggregateOrder, topic),
		route[payloads.ProductCreatedEvent](enums.EventProductCreated, enums.AggregateProduct, topic),
	}
	r := &EventRegistry{routes: make(map[enums.OutboxEventType]Route, len(routes))}
	for _, rt := range routes {
		r.routes[rt.EventType] = rt
	}
	return r, nil
}

func (r *EventRegistry) Route(event enums.OutboxEventType) (Route, bool) {
	rt, ok := r.routes[event]
	return rt, ok
}

// Resolve checks the row against its route and decodes the payload. Every
// error it returns is a NonRetryableError.
func (r *EventRegistry) Resolve(row models.OutboxEvent) (*ResolvedEvent, error) {
	rt, ok := r.routes[row.EventType]
	switch {
	case !ok:
		return nil, permanent("unsupported event type %q", row.EventType)
	case rt.AggregateType != row.AggregateType:
		return nil, permanent("%s belongs to aggregate %s, row says %s", row.EventType, rt.AggregateType, row.AggregateType)
	case row.AggregateID == uuid.Nil:
		return nil, permanent("%s row has no aggregate id", row.EventType)
	}

	env, err := outbox.DecodeEnvelope(row.Payload)
	if err != nil {
		return nil, permanent("decode envelope: %w", err)
	}
	if env.Version > outbox.EnvelopeVersion {
		return nil, permanent("envelope version %d is newer than supported %d", env.Version, outbox.EnvelopeVersion)
	}
	if data := bytes.TrimSpace(env.Data); len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, permanent("%s envelope has no data", row.EventType)
	}

	payload, err := rt.decode(env.Data)
	if err != nil {
		return nil, permanent("decode %s payload: %w", row.EventType, err)
	}
	return &ResolvedEvent{Route: rt, Envelope: env, Payload: payload}, nil
}
