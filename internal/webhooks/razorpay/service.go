package razorpaywebhook

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/sabjimart/sabji-backend/internal/orders"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
	"github.com/sabjimart/sabji-backend/pkg/logger"
	"github.com/sabjimart/sabji-backend/pkg/outbox"
	"github.com/sabjimart/sabji-backend/pkg/outbox/payloads"
	"github.com/sabjimart/sabji-backend/pkg/razorpay"
)

// Outcome labels what a webhook delivery did, for metrics and logs.
type Outcome string

const (
	OutcomePaid          Outcome = "paid"
	OutcomeAlreadyPaid   Outcome = "already_paid"
	OutcomeFailed        Outcome = "payment_failed"
	OutcomeUnknownOrder  Outcome = "unknown_order"
	OutcomeMissingOrder  Outcome = "missing_order_id"
	OutcomeIgnored       Outcome = "ignored"
	OutcomeDuplicate     Outcome = "duplicate"
	OutcomeProcessingErr Outcome = "error"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type ServiceParams struct {
	Orders            orders.Repository
	TransactionRunner txRunner
	Outbox            outboxPublisher
	Logger            *logger.Logger
	Now               func() time.Time
}

// Service reconciles verified gateway payment events with orders.
type Service struct {
	orders   orders.Repository
	txRunner txRunner
	outbox   outboxPublisher
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox publisher required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		orders:   params.Orders,
		txRunner: params.TransactionRunner,
		outbox:   params.Outbox,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event razorpay.WebhookEvent) (Outcome, error) {
	switch event.Event {
	case razorpay.EventPaymentCaptured:
		return s.handleCaptured(ctx, event.Payment())
	case razorpay.EventPaymentFailed:
		return s.handleFailed(ctx, event.Payment())
	default:
		return OutcomeIgnored, nil
	}
}

// handleCaptured marks the order paid. A capture never moves fulfillment backwards.
func (s *Service) handleCaptured(ctx context.Context, payment razorpay.PaymentEntity) (Outcome, error) {
	externalOrderID := strings.TrimSpace(payment.OrderID)
	if externalOrderID == "" {
		s.warn(ctx, payment, "payment captured without order id")
		return OutcomeMissingOrder, nil
	}

	outcome := OutcomePaid
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		order, err := repo.FindByExternalPaymentOrderIDForUpdate(ctx, externalOrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				outcome = OutcomeUnknownOrder
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order by gateway order id")
		}
		if order.PaymentStatus == enums.PaymentStatusPaid {
			outcome = OutcomeAlreadyPaid
			return nil
		}

		paidAt := s.now().UTC()
		updates := map[string]any{
			"payment_status": enums.PaymentStatusPaid,
			"paid_at":        paidAt,
		}
		if id := strings.TrimSpace(payment.ID); id != "" {
			updates["external_payment_id"] = id
		}
		if order.Status == enums.OrderStatusPending {
			updates["status"] = enums.OrderStatusPending
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark order paid")
		}

		err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{Role: enums.RoleSystem},
			Data: payloads.OrderPaidEvent{
				OrderID:                order.ID,
				ExternalPaymentOrderID: externalOrderID,
				ExternalPaymentID:      payment.ID,
				AmountPaise:            payment.Amount,
				PaidAt:                 paidAt,
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order paid")
		}
		if order.Status == enums.OrderStatusCancelled {
			s.warn(ctx, payment, "payment captured for cancelled order")
		}
		return nil
	})
	if err != nil {
		return OutcomeProcessingErr, err
	}
	if outcome == OutcomeUnknownOrder {
		s.warn(ctx, payment, "payment captured for unknown order")
	}
	return outcome, nil
}

// handleFailed leaves the order unpaid so the customer can retry and records the failure.
func (s *Service) handleFailed(ctx context.Context, payment razorpay.PaymentEntity) (Outcome, error) {
	externalOrderID := strings.TrimSpace(payment.OrderID)
	s.warn(ctx, payment, "payment failed")
	if externalOrderID == "" {
		return OutcomeMissingOrder, nil
	}

	outcome := OutcomeFailed
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.orders.WithTx(tx).FindByExternalPaymentOrderIDForUpdate(ctx, externalOrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				outcome = OutcomeUnknownOrder
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order by gateway order id")
		}
		err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaymentFailed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{Role: enums.RoleSystem},
			Data: payloads.OrderPaymentFailedEvent{
				OrderID:                order.ID,
				ExternalPaymentOrderID: externalOrderID,
				ExternalPaymentID:      payment.ID,
				ErrorCode:              payment.ErrorCode,
				ErrorDescription:       payment.ErrorDescription,
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit payment failed")
		}
		return nil
	})
	if err != nil {
		return OutcomeProcessingErr, err
	}
	return outcome, nil
}

func (s *Service) warn(ctx context.Context, payment razorpay.PaymentEntity, msg string) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"razorpay_order_id":   payment.OrderID,
		"razorpay_payment_id": payment.ID,
		"error_code":          payment.ErrorCode,
	})
	s.logg.Warn(ctx, msg)
}
