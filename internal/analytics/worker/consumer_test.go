package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabjimart/sabji-backend/internal/analytics/router"
	"github.com/sabjimart/sabji-backend/internal/analytics/types"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	"github.com/sabjimart/sabji-backend/pkg/logger"
	"github.com/sabjimart/sabji-backend/pkg/outbox"
)

type seenSet struct {
	marked   map[uuid.UUID]bool
	unmarked []string
	err      error
}

func (s *seenSet) CheckAndMark(_ context.Context, raw string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	id := uuid.MustParse(raw)
	if s.marked == nil {
		s.marked = map[uuid.UUID]bool{}
	}
	dup := s.marked[id]
	s.marked[id] = true
	return dup, nil
}

func (s *seenSet) Release(_ context.Context, id string) error {
	s.unmarked = append(s.unmarked, id)
	delete(s.marked, uuid.MustParse(id))
	return nil
}

type recordingHandler struct {
	got []types.Envelope
	err error
}

func (h *recordingHandler) Handle(_ context.Context, env types.Envelope) error {
	h.got = append(h.got, env)
	return h.err
}

func testConsumer(h Handler, seen *seenSet) *Consumer {
	return &Consumer{
		handler: h,
		seen:    seen,
		logg:    logger.New(logger.Options{ServiceName: "analytics-consumer-test", Output: io.Discard}),
	}
}

func orderPlacedMessage(t *testing.T, attrs map[string]string) *gcppubsub.Message {
	t.Helper()
	customer := uuid.New()
	orderID := uuid.New()
	data, err := json.Marshal(outbox.PayloadEnvelope{
		Version:       outbox.EnvelopeVersion,
		EventID:       uuid.NewString(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		OccurredAt:    time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC),
		Actor:         &outbox.ActorRef{UserID: &customer, Role: enums.RoleCustomer},
		Data:          json.RawMessage(`{"order_id":"` + orderID.String() + `"}`),
	})
	require.NoError(t, err)
	return &gcppubsub.Message{ID: "m-1", Data: data, Attributes: attrs}
}

func TestDecodePrefersEnvelope(t *testing.T) {
	msg := orderPlacedMessage(t, map[string]string{"event_type": "product.created", "event_id": "ignored"})

	env, err := decode(msg)
	require.NoError(t, err)
	assert.Equal(t, enums.AnalyticsEventOrderCreated, env.EventType)
	assert.Equal(t, enums.AggregateOrder, env.AggregateType)
	assert.NotEqual(t, "ignored", env.EventID)
	assert.Equal(t, time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC), env.OccurredAt)
	assert.Equal(t, enums.RoleCustomer, env.ActorRole)
	require.NotNil(t, env.ActorID)
}

func TestDecodeFallsBackToAttributes(t *testing.T) {
	aggregate := uuid.NewString()
	created := time.Date(2026, 2, 15, 6, 0, 0, 0, time.UTC)
	data, err := json.Marshal(outbox.PayloadEnvelope{Data: json.RawMessage(`{}`)})
	require.NoError(t, err)

	env, err := decode(&gcppubsub.Message{Data: data, Attributes: map[string]string{
		"event_id":       "e-2",
		"event_type":     "product.created",
		"aggregate_type": "product",
		"aggregate_id":   aggregate,
		"created_at":     created.Format(time.RFC3339Nano),
	}})
	require.NoError(t, err)
	assert.Equal(t, enums.AnalyticsEventProductCreated, env.EventType)
	assert.Equal(t, aggregate, env.AggregateID)
	assert.Equal(t, "e-2", env.EventID)
	assert.True(t, env.OccurredAt.Equal(created))
}

func TestDecodeRejects(t *testing.T) {
	data, _ := json.Marshal(outbox.PayloadEnvelope{EventID: "e", Data: json.RawMessage(`{}`)})
	cases := map[string]*gcppubsub.Message{
		"garbage":       {Data: []byte("not json")},
		"unknown type":  {Data: data, Attributes: map[string]string{"event_type": "store.created", "aggregate_type": "order", "aggregate_id": "x"}},
		"missing aggr":  {Data: data, Attributes: map[string]string{"event_type": "order.created", "aggregate_type": "order"}},
		"bad aggregate": {Data: data, Attributes: map[string]string{"event_type": "order.created", "aggregate_type": "basket", "aggregate_id": "x"}},
	}
	for name, msg := range cases {
		_, err := decode(msg)
		assert.Error(t, err, name)
	}
}

func TestConsumeStoresOnceAndSkipsDuplicates(t *testing.T) {
	h := &recordingHandler{}
	c := testConsumer(h, &seenSet{})
	msg := orderPlacedMessage(t, nil)

	assert.Equal(t, ack, c.consume(context.Background(), msg))
	assert.Equal(t, ack, c.consume(context.Background(), msg))
	assert.Len(t, h.got, 1)
}

func TestConsumeRedeliversAndUnmarksOnHandlerFailure(t *testing.T) {
	seen := &seenSet{}
	h := &recordingHandler{err: errors.New("warehouse timeout")}
	c := testConsumer(h, seen)
	msg := orderPlacedMessage(t, nil)

	assert.Equal(t, redeliver, c.consume(context.Background(), msg))
	require.Len(t, seen.unmarked, 1)

	h.err = nil
	assert.Equal(t, ack, c.consume(context.Background(), msg))
	assert.Len(t, h.got, 2)
}

func TestConsumeRedeliversWhenDedupeStoreFails(t *testing.T) {
	h := &recordingHandler{}
	c := testConsumer(h, &seenSet{err: errors.New("redis down")})

	assert.Equal(t, redeliver, c.consume(context.Background(), orderPlacedMessage(t, nil)))
	assert.Empty(t, h.got)
}

func TestConsumeAcksUnroutableAndMalformed(t *testing.T) {
	seen := &seenSet{}
	h := &recordingHandler{err: fmt.Errorf("%w: order.created", router.ErrUnsupportedEventType)}
	c := testConsumer(h, seen)

	assert.Equal(t, ack, c.consume(context.Background(), orderPlacedMessage(t, nil)))
	assert.Empty(t, seen.unmarked)

	assert.Equal(t, ack, c.consume(context.Background(), &gcppubsub.Message{Data: []byte("{")}))
	assert.Len(t, h.got, 1)
}

func TestNewConsumerValidates(t *testing.T) {
	_, err := NewConsumer(nil, &recordingHandler{}, &seenSet{}, nil)
	assert.Error(t, err)
}
