package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabjimart/sabji-backend/internal/analytics/types"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
)

type stubSource struct {
	got   []types.DashboardRequest
	reply *types.Dashboard
	err   error
}

func (s *stubSource) Dashboard(_ context.Context, req types.DashboardRequest) (*types.Dashboard, error) {
	s.got = append(s.got, req)
	return s.reply, s.err
}

func TestDashboardForwardsSellerScope(t *testing.T) {
	src := &stubSource{reply: &types.Dashboard{PaymentFailures: 2}}
	seller := uuid.New()
	end := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	dash, err := (&service{source: src}).Dashboard(context.Background(), types.DashboardRequest{
		SellerID: &seller, Start: end.Add(-48 * time.Hour), End: end,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, dash.PaymentFailures)
	require.Len(t, src.got, 1)
	assert.Equal(t, seller, *src.got[0].SellerID)
}

func TestDashboardRejectsBadWindows(t *testing.T) {
	end := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for name, req := range map[string]types.DashboardRequest{
		"no bounds": {},
		"no end":    {Start: end},
		"inverted":  {Start: end, End: end.Add(-time.Hour)},
		"too wide":  {Start: end.Add(-400 * 24 * time.Hour), End: end},
	} {
		src := &stubSource{}
		_, err := (&service{source: src}).Dashboard(context.Background(), req)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), name)
		assert.Empty(t, src.got, name)
	}
}

func TestDashboardWarehouseFailureIsDependency(t *testing.T) {
	end := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	req := types.DashboardRequest{Start: end.Add(-time.Hour), End: end}

	_, err := (&service{source: &stubSource{err: errors.New("quota exceeded")}}).Dashboard(context.Background(), req)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	_, err = Unavailable().Dashboard(context.Background(), req)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}
