package analytics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabjimart/sabji-backend/api/middleware"
	"github.com/sabjimart/sabji-backend/internal/analytics/types"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	"github.com/sabjimart/sabji-backend/pkg/logger"
)

type stubDashboardService struct {
	req    types.DashboardRequest
	called bool
}

func (s *stubDashboardService) Dashboard(_ context.Context, req types.DashboardRequest) (*types.Dashboard, error) {
	s.req = req
	s.called = true
	return &types.Dashboard{}, nil
}

func dashboardRequest(target string, role enums.Role, id uuid.UUID) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return req.WithContext(middleware.WithPrincipal(req.Context(), middleware.Principal{ID: id, Role: role}))
}

func silentLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "analytics-controller-test", Output: io.Discard})
}

func TestDashboardScopesSeller(t *testing.T) {
	fixed := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	prev := clock
	clock = func() time.Time { return fixed }
	t.Cleanup(func() { clock = prev })

	svc := &stubDashboardService{}
	sellerID := uuid.New()
	rec := httptest.NewRecorder()
	Dashboard(svc, silentLogger()).ServeHTTP(rec, dashboardRequest("/api/v1/seller/analytics/dashboard?preset=7d", enums.RoleSeller, sellerID))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.req.SellerID)
	assert.Equal(t, sellerID, *svc.req.SellerID)
	assert.Equal(t, fixed, svc.req.End)
	assert.Equal(t, fixed.Add(-7*24*time.Hour), svc.req.Start)
}

func TestDashboardAdminUnscoped(t *testing.T) {
	svc := &stubDashboardService{}
	rec := httptest.NewRecorder()
	target := "/api/admin/analytics?from=2026-01-01T00:00:00Z&to=2026-01-31T00:00:00Z"
	Dashboard(svc, silentLogger()).ServeHTTP(rec, dashboardRequest(target, enums.RoleAdmin, uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, svc.req.SellerID)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), svc.req.Start)
}

func TestDashboardRejectsHalfRange(t *testing.T) {
	svc := &stubDashboardService{}
	rec := httptest.NewRecorder()
	Dashboard(svc, silentLogger()).ServeHTTP(rec, dashboardRequest("/api/admin/analytics?from=2026-01-01T00:00:00Z", enums.RoleAdmin, uuid.New()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, svc.called)
}

func TestDashboardRejectsCustomer(t *testing.T) {
	svc := &stubDashboardService{}
	rec := httptest.NewRecorder()
	Dashboard(svc, silentLogger()).ServeHTTP(rec, dashboardRequest("/api/admin/analytics", enums.RoleCustomer, uuid.New()))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, svc.called)
}

func TestDashboardRejectsUnknownPreset(t *testing.T) {
	rec := httptest.NewRecorder()
	Dashboard(&stubDashboardService{}, silentLogger()).ServeHTTP(rec, dashboardRequest("/api/admin/analytics?preset=1y", enums.RoleAdmin, uuid.New()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWindowFromQuery(t *testing.T) {
	now := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)

	span, err := windowFromQuery(url.Values{}, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-30*24*time.Hour), span.start)
	assert.Equal(t, now, span.end)

	span, err = windowFromQuery(url.Values{"preset": {"90D"}}, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-90*24*time.Hour), span.start)

	span, err = windowFromQuery(url.Values{"from": {"2026-05-01T10:00:00+05:30"}, "to": {"2026-05-02T00:00:00Z"}}, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 1, 4, 30, 0, 0, time.UTC), span.start)

	_, err = windowFromQuery(url.Values{"from": {"2026-05-02T00:00:00Z"}, "to": {"2026-05-01T00:00:00Z"}}, now)
	assert.Error(t, err)

	_, err = windowFromQuery(url.Values{"from": {"yesterday"}, "to": {"2026-05-01T00:00:00Z"}}, now)
	assert.Error(t, err)
}
