package agents

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
	"github.com/sabjimart/sabji-backend/pkg/logger"
)

// Service lists and approves delivery agents.
type Service interface {
	List(ctx context.Context, approved string) ([]AgentDTO, error)
	Approve(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("agents repository required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) List(ctx context.Context, approved string) ([]AgentDTO, error) {
	var filter *bool
	if raw := strings.TrimSpace(approved); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "approved must be true or false")
		}
		filter = &v
	}
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list delivery agents")
	}
	out := make([]AgentDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromModel(row))
	}
	return out, nil
}

func (s *service) Approve(ctx context.Context, id uuid.UUID) error {
	found, err := s.repo.Approve(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "approve delivery agent")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "delivery agent not found")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "agent_id", id.String()), "delivery_agent.approved")
	}
	return nil
}
