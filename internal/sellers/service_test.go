package sellers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sabjimart/sabji-backend/pkg/db/models"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
)

func TestModerationLifecycle(t *testing.T) {
	repo := NewRepository(setupSellersDB(t))
	svc, err := NewService(repo, nil)
	require.NoError(t, err)

	seller := &models.Seller{
		Name: "Kiran", Email: "kiran@farm.in", Phone: "9000000001", ShopName: "Kiran Farms",
		Address: "12 Market Road", City: "Pune", State: "MH", BusinessType: enums.BusinessTypeFarmer,
		PasswordHash: "x", Status: enums.SellerStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), seller))

	pending, err := svc.List(context.Background(), "Pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, svc.Approve(context.Background(), seller.ID))
	stored, err := repo.FindByID(context.Background(), seller.ID)
	require.NoError(t, err)
	require.True(t, stored.CanSell())

	require.NoError(t, svc.SetBlocked(context.Background(), seller.ID, true))
	stored, err = repo.FindByID(context.Background(), seller.ID)
	require.NoError(t, err)
	require.False(t, stored.CanSell())

	pending, err = svc.List(context.Background(), "Pending")
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestModerationErrors(t *testing.T) {
	svc, err := NewService(NewRepository(setupSellersDB(t)), nil)
	require.NoError(t, err)

	err = svc.Reject(context.Background(), uuid.New())
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	_, err = svc.List(context.Background(), "Dormant")
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func setupSellersDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, conn.Exec(`CREATE TABLE sellers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL,
		shop_name TEXT NOT NULL,
		address TEXT NOT NULL,
		city TEXT NOT NULL,
		state TEXT NOT NULL,
		business_type TEXT NOT NULL,
		id_proof_url TEXT,
		shop_photo_url TEXT,
		password_hash TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'Pending',
		is_blocked BOOLEAN NOT NULL DEFAULT false,
		created_at DATETIME,
		updated_at DATETIME
	)`).Error)
	return conn
}
