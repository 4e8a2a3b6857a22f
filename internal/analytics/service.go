package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/sabjimart/sabji-backend/internal/analytics/types"
	"github.com/sabjimart/sabji-backend/pkg/bigquery"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
)

// maxWindow caps how much warehouse history one dashboard request scans.
const maxWindow = 366 * 24 * time.Hour

// Service serves the BigQuery trend dashboard shared by sellers and admins.
type Service interface {
	Dashboard(ctx context.Context, req types.DashboardRequest) (*types.Dashboard, error)
}

type dashboardSource interface {
	Dashboard(ctx context.Context, req types.DashboardRequest) (*types.Dashboard, error)
}

type service struct {
	source dashboardSource
}

func NewService(client *bigquery.Client, project, dataset, table string) (Service, error) {
	if client == nil {
		return nil, errors.New("bigquery client required")
	}
	w, err := newWarehouse(bqQuerier{client: client}, project, dataset, table)
	if err != nil {
		return nil, err
	}
	return &service{source: w}, nil
}

// Unavailable answers every request with a dependency error. Used when no
// GCP project is configured.
func Unavailable() Service {
	return &service{}
}

func (s *service) Dashboard(ctx context.Context, req types.DashboardRequest) (*types.Dashboard, error) {
	if s.source == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "analytics warehouse not configured")
	}
	switch {
	case req.Start.IsZero() || req.End.IsZero():
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from and to are required")
	case req.End.Before(req.Start):
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "to must not be before from")
	case req.End.Sub(req.Start) > maxWindow:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date range may not exceed one year")
	}

	dash, err := s.source.Dashboard(ctx, req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query analytics warehouse")
	}
	return dash, nil
}
