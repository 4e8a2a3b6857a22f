package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/sabjimart/sabji-backend/internal/orders"
	"github.com/sabjimart/sabji-backend/pkg/db/models"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
	"github.com/sabjimart/sabji-backend/pkg/logger"
)

const (
	defaultUnpaidTTL   = 24 * time.Hour
	unpaidExpiryBatch  = 200
	unpaidExpiryReason = "payment not received"
)

// UnpaidOrderJobParams configure the unpaid order expiry job.
type UnpaidOrderJobParams struct {
	Logger *logger.Logger
	Reader expiredOrderReader
	Orders orderCanceller
	TTL    time.Duration
}

type expiredOrderReader interface {
	FindExpiredUnpaid(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type orderCanceller interface {
	UpdateStatus(ctx context.Context, actor orders.Actor, orderID uuid.UUID, to enums.OrderStatus, reason string) (*orders.OrderDTO, error)
}

// NewUnpaidOrderJob builds the job that cancels online orders whose payment never arrived.
func NewUnpaidOrderJob(params UnpaidOrderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("expired order reader required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultUnpaidTTL
	}
	return &unpaidOrderJob{
		logg:   params.Logger,
		reader: params.Reader,
		orders: params.Orders,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

type unpaidOrderJob struct {
	logg   *logger.Logger
	reader expiredOrderReader
	orders orderCanceller
	ttl    time.Duration
	now    func() time.Time
}

func (j *unpaidOrderJob) Name() string { return "unpaid-order-expiry" }

func (j *unpaidOrderJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	expired, err := j.reader.FindExpiredUnpaid(ctx, cutoff, unpaidExpiryBatch)
	if err != nil {
		return fmt.Errorf("query unpaid orders: %w", err)
	}

	var errs error
	cancelled, skipped := 0, 0
	for _, order := range expired {
		_, err := j.orders.UpdateStatus(ctx, orders.SystemActor, order.ID, enums.OrderStatusCancelled, unpaidExpiryReason)
		switch {
		case err == nil:
			cancelled++
		case pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
			// paid or progressed since the query ran
			skipped++
		default:
			errs = multierr.Append(errs, fmt.Errorf("cancel order %s: %w", order.ID, err))
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":    cutoff,
		"found":     len(expired),
		"cancelled": cancelled,
		"skipped":   skipped,
	})
	j.logg.Info(logCtx, "unpaid order expiry complete")
	return errs
}
