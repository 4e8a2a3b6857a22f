package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sabjimart/sabji-backend/pkg/db/models"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
	"github.com/sabjimart/sabji-backend/pkg/logger"
	"github.com/sabjimart/sabji-backend/pkg/outbox"
	"github.com/sabjimart/sabji-backend/pkg/outbox/payloads"
	"github.com/sabjimart/sabji-backend/pkg/pagination"
)

const adminDateLayout = "2006-01-02"

// Service drives fulfillment transitions and serves order reads for every role.
type Service interface {
	UpdateStatus(ctx context.Context, actor Actor, orderID uuid.UUID, to enums.OrderStatus, reason string) (*OrderDTO, error)
	AssignDeliveryAgent(ctx context.Context, actor Actor, orderID, agentID uuid.UUID) (*OrderDTO, error)
	GetForCustomer(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	ListForCustomer(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[OrderDTO], error)
	ListForSeller(ctx context.Context, sellerID uuid.UUID) ([]OrderDTO, error)
	DeliveryDashboard(ctx context.Context, agentID uuid.UUID) ([]OrderDTO, error)
	ListForAdmin(ctx context.Context, query AdminQuery) ([]OrderDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type agentLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.DeliveryAgent, error)
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type transitionRecorder interface {
	IncTransition(from, to, actor string)
}

type service struct {
	repo    Repository
	tx      txRunner
	agents  agentLoader
	outbox  outboxPublisher
	metrics transitionRecorder
	logg    *logger.Logger
}

// NewService wires the fulfillment service. metrics and logg may be nil.
func NewService(repo Repository, tx txRunner, agents agentLoader, publisher outboxPublisher, metrics transitionRecorder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if agents == nil {
		return nil, fmt.Errorf("delivery agent loader required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		agents:  agents,
		outbox:  publisher,
		metrics: metrics,
		logg:    logg,
	}, nil
}

func (s *service) UpdateStatus(ctx context.Context, actor Actor, orderID uuid.UUID, to enums.OrderStatus, reason string) (*OrderDTO, error) {
	if !to.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid order status %q", to)
	}
	if !roleMayTarget(actor.Role, to) {
		return nil, pkgerrors.Newf(pkgerrors.CodeForbidden, "%s cannot set status %s", actor.Role, to)
	}

	var from enums.OrderStatus
	changed := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadScoped(ctx, repo, actor, orderID)
		if err != nil {
			return err
		}
		from = order.Status
		if from == to {
			return nil
		}
		if err := CheckTransition(from, to); err != nil {
			return stateConflict(err)
		}
		if actor.Role == enums.RoleSystem && order.PaymentStatus != enums.PaymentStatusUnpaid {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "order payment is %s", order.PaymentStatus)
		}
		if to.RequiresDeliveryAgent() && order.DeliveryAgentID == nil {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "status %s requires an assigned delivery agent", to)
		}

		now := time.Now().UTC()
		updates := map[string]any{"status": to, "updated_at": now}
		switch to {
		case enums.OrderStatusCancelled:
			updates["cancelled_at"] = now
		case enums.OrderStatusDelivered:
			updates["delivered_at"] = now
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}
		if err := s.emitStatusChanged(ctx, tx, actor, order.ID, from, to, order.DeliveryAgentID, reason); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.recordTransition(ctx, actor, orderID, from, to)
	}
	return s.get(ctx, orderID)
}

func (s *service) AssignDeliveryAgent(ctx context.Context, actor Actor, orderID, agentID uuid.UUID) (*OrderDTO, error) {
	if !canAssign(actor.Role) {
		return nil, pkgerrors.Newf(pkgerrors.CodeForbidden, "%s cannot assign delivery agents", actor.Role)
	}

	agent, err := s.agents.FindByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery agent not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load delivery agent")
	}
	if !agent.IsApproved {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery agent is not approved")
	}

	var from enums.OrderStatus
	changed := false
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := s.loadScoped(ctx, repo, actor, orderID)
		if err != nil {
			return err
		}
		from = order.Status

		if from == enums.OrderStatusAssigned {
			if order.DeliveryAgentID != nil && *order.DeliveryAgentID == agent.ID {
				return nil
			}
		} else if err := CheckTransition(from, enums.OrderStatusAssigned); err != nil {
			return stateConflict(err)
		}

		updates := map[string]any{
			"status":            enums.OrderStatusAssigned,
			"delivery_agent_id": agent.ID,
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assign delivery agent")
		}
		reason := ""
		if from == enums.OrderStatusAssigned {
			reason = "delivery agent reassigned"
		}
		if err := s.emitStatusChanged(ctx, tx, actor, order.ID, from, enums.OrderStatusAssigned, &agent.ID, reason); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed && from != enums.OrderStatusAssigned {
		s.recordTransition(ctx, actor, orderID, from, enums.OrderStatusAssigned)
	}
	return s.get(ctx, orderID)
}

func (s *service) GetForCustomer(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapLoadError(err)
	}
	if order.UserID == nil || *order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	dto := NewOrderDTO(*order)
	return &dto, nil
}

func (s *service) ListForCustomer(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[OrderDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListByUser(ctx, userID, cursor, params.Limit)
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return pagination.Paginate(newOrderDTOs(rows), params.Limit, func(o OrderDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	}), nil
}

func (s *service) ListForSeller(ctx context.Context, sellerID uuid.UUID) ([]OrderDTO, error) {
	rows, err := s.repo.ListByVendor(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list seller orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, NewOrderDTO(row).VendorItems(sellerID))
	}
	return out, nil
}

func (s *service) DeliveryDashboard(ctx context.Context, agentID uuid.UUID) ([]OrderDTO, error) {
	rows, err := s.repo.ListByDeliveryAgent(ctx, agentID, enums.ActiveDeliveryStatuses())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list delivery orders")
	}
	return newOrderDTOs(rows), nil
}

func (s *service) ListForAdmin(ctx context.Context, query AdminQuery) ([]OrderDTO, error) {
	filters := AdminFilters{
		CustomerName: strings.TrimSpace(query.CustomerName),
		Limit:        query.Limit,
		Offset:       query.Offset,
	}

	if raw := strings.TrimSpace(query.Status); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(query.SellerID); raw != "" {
		sellerID, err := uuid.Parse(raw)
		if err != nil {
			return []OrderDTO{}, nil
		}
		filters.SellerID = &sellerID
	}
	var err error
	if filters.DateFrom, err = parseAdminDate(query.DateFrom, "dateFrom"); err != nil {
		return nil, err
	}
	if filters.DateTo, err = parseAdminDate(query.DateTo, "dateTo"); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListAdmin(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return newOrderDTOs(rows), nil
}

// loadScoped locks the order and hides it from actors outside their scope.
func (s *service) loadScoped(ctx context.Context, repo Repository, actor Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByIDForUpdate(ctx, orderID)
	if err != nil {
		return nil, mapLoadError(err)
	}

	switch actor.Role {
	case enums.RoleAdmin, enums.RoleSystem:
		return order, nil
	case enums.RoleSeller:
		owns, err := repo.HasVendorLineItem(ctx, order.ID, actor.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check order vendor")
		}
		if owns {
			return order, nil
		}
	case enums.RoleDelivery:
		if order.DeliveryAgentID != nil && *order.DeliveryAgentID == actor.ID {
			return order, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *service) emitStatusChanged(ctx context.Context, tx *gorm.DB, actor Actor, orderID uuid.UUID, from, to enums.OrderStatus, agentID *uuid.UUID, reason string) error {
	event := payloads.OrderStatusChangedEvent{
		OrderID:         orderID,
		From:            from,
		To:              to,
		ActorRole:       actor.Role,
		DeliveryAgentID: agentID,
		Reason:          strings.TrimSpace(reason),
	}
	ref := &outbox.ActorRef{Role: actor.Role}
	if actor.ID != uuid.Nil {
		id := actor.ID
		event.ActorID = &id
		ref.UserID = &id
	}

	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Actor:         ref,
		Data:          event,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order status event")
	}
	return nil
}

func (s *service) recordTransition(ctx context.Context, actor Actor, orderID uuid.UUID, from, to enums.OrderStatus) {
	if s.metrics != nil {
		s.metrics.IncTransition(from.String(), to.String(), actor.Role.String())
	}
	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, orderID.String())
		logCtx = s.logg.WithActorRole(logCtx, actor.Role.String())
		logCtx = s.logg.WithFields(logCtx, map[string]any{"from": from, "to": to})
		s.logg.Info(logCtx, "order status changed")
	}
}

func (s *service) get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapLoadError(err)
	}
	dto := NewOrderDTO(*order)
	return &dto, nil
}

func stateConflict(err error) error {
	var transition *TransitionError
	if errors.As(err, &transition) {
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, transition.Error()).
			WithDetails(map[string]any{"from": transition.From, "to": transition.To})
	}
	return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "invalid transition")
}

func mapLoadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
}

func parseAdminDate(raw, field string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(adminDateLayout, raw)
	if err != nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be YYYY-MM-DD", field).
			WithDetails(map[string]any{field: raw})
	}
	return &parsed, nil
}
