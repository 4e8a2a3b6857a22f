// Package router projects domain events onto marketplace warehouse rows.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sabjimart/sabji-backend/internal/analytics/types"
	analyticswriter "github.com/sabjimart/sabji-backend/internal/analytics/writer"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	"github.com/sabjimart/sabji-backend/pkg/logger"
)

var ErrUnsupportedEventType = errors.New("unsupported analytics event type")

type Writer interface {
	InsertMarketplace(ctx context.Context, row types.MarketplaceEventRow) error
}

// projection turns one raw event payload into a row, including the
// re-encoded payload column.
type projection func(env types.Envelope) (types.MarketplaceEventRow, error)

// project binds a typed row builder to its payload type.
func project[T any](build func(types.Envelope, *T) (types.MarketplaceEventRow, error)) projection {
	return func(env types.Envelope) (types.MarketplaceEventRow, error) {
		if len(env.Payload) == 0 {
			return types.MarketplaceEventRow{}, fmt.Errorf("%s: empty payload", env.EventType)
		}
		event := new(T)
		if err := json.Unmarshal(env.Payload, event); err != nil {
			return types.MarketplaceEventRow{}, fmt.Errorf("%s: decode payload: %w", env.EventType, err)
		}
		row, err := build(env, event)
		if err != nil {
			return row, fmt.Errorf("%s: %w", env.EventType, err)
		}
		if row.Payload, err = analyticswriter.EncodeJSON(event); err != nil {
			return row, fmt.Errorf("%s: encode payload column: %w", env.EventType, err)
		}
		return row, nil
	}
}

var projections = map[enums.AnalyticsEventType]projection{
	enums.AnalyticsEventOrderCreated:       project(orderCreatedRow),
	enums.AnalyticsEventOrderPaid:          project(orderPaidRow),
	enums.AnalyticsEventOrderPaymentFailed: project(paymentFailedRow),
	enums.AnalyticsEventOrderStatusChanged: project(statusChangedRow),
	enums.AnalyticsEventProductCreated:     project(productCreatedRow),
}

// Router writes one warehouse row per supported event.
type Router struct {
	writer Writer
	logg   *logger.Logger
}

func NewRouter(writer Writer, logg *logger.Logger) (*Router, error) {
	if writer == nil {
		return nil, errors.New("writer is required")
	}
	return &Router{writer: writer, logg: logg}, nil
}

func (r *Router) Handle(ctx context.Context, env types.Envelope) error {
	toRow, ok := projections[env.EventType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedEventType, env.EventType)
	}
	row, err := toRow(env)
	if err != nil {
		return err
	}

	if row.OrderID != nil {
		ctx = r.logg.WithOrderID(ctx, *row.OrderID)
	}
	if err := r.writer.InsertMarketplace(ctx, row); err != nil {
		return fmt.Errorf("insert %s row: %w", env.EventType, err)
	}
	r.logg.Debug(r.logg.WithField(ctx, "event_type", env.EventType), "marketplace row written")
	return nil
}

func baseRow(env types.Envelope) types.MarketplaceEventRow {
	return types.MarketplaceEventRow{
		EventID:    env.EventID,
		EventType:  string(env.EventType),
		OccurredAt: env.OccurredAt.UTC(),
		ActorRole:  text(string(env.ActorRole)),
	}
}
