package sellers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sabjimart/sabji-backend/pkg/enums"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
	"github.com/sabjimart/sabji-backend/pkg/logger"
)

// Service moderates seller accounts.
type Service interface {
	List(ctx context.Context, status string) ([]SellerDTO, error)
	Approve(ctx context.Context, id uuid.UUID) error
	Reject(ctx context.Context, id uuid.UUID) error
	SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sellers repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) List(ctx context.Context, status string) ([]SellerDTO, error) {
	var filter *enums.SellerStatus
	if raw := strings.TrimSpace(status); raw != "" {
		parsed := enums.SellerStatus(raw)
		if !parsed.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid seller status").
				WithDetails(map[string]any{"status": raw})
		}
		filter = &parsed
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list sellers")
	}
	out := make([]SellerDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func (s *service) Approve(ctx context.Context, id uuid.UUID) error {
	return s.update(ctx, id, map[string]any{"status": enums.SellerStatusApproved}, "seller.approved")
}

func (s *service) Reject(ctx context.Context, id uuid.UUID) error {
	return s.update(ctx, id, map[string]any{"status": enums.SellerStatusRejected}, "seller.rejected")
}

func (s *service) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error {
	event := "seller.unblocked"
	if blocked {
		event = "seller.blocked"
	}
	return s.update(ctx, id, map[string]any{"is_blocked": blocked}, event)
}

func (s *service) update(ctx context.Context, id uuid.UUID, updates map[string]any, event string) error {
	found, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update seller")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "seller_id", id.String()), event)
	}
	return nil
}
