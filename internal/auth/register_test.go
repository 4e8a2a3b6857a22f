package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sabjimart/sabji-backend/internal/agents"
	"github.com/sabjimart/sabji-backend/internal/sellers"
	"github.com/sabjimart/sabji-backend/internal/users"
	"github.com/sabjimart/sabji-backend/pkg/config"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
	"github.com/sabjimart/sabji-backend/pkg/security"
)

func TestRegisterCustomerPersistsHashedPassword(t *testing.T) {
	conn, svc := newRegisterFixture(t)

	dto, err := svc.RegisterCustomer(context.Background(), CustomerRegisterRequest{
		Name:     "Meera",
		Email:    "Meera@Example.com",
		Password: "tomato123",
	})
	require.NoError(t, err)
	require.Equal(t, "meera@example.com", dto.Email)
	require.Equal(t, enums.RoleCustomer, dto.Role)

	stored, err := users.NewRepository(conn).FindByEmail(context.Background(), "meera@example.com")
	require.NoError(t, err)
	ok, err := security.VerifyPassword("tomato123", stored.PasswordHash)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = svc.RegisterCustomer(context.Background(), CustomerRegisterRequest{Name: "Again", Email: "meera@example.com", Password: "tomato123"})
	require.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
}

func TestRegisterCustomerShortPassword(t *testing.T) {
	_, svc := newRegisterFixture(t)

	_, err := svc.RegisterCustomer(context.Background(), CustomerRegisterRequest{Name: "Meera", Email: "m@example.com", Password: "abc"})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestRegisterSellerStartsPending(t *testing.T) {
	conn, svc := newRegisterFixture(t)

	dto, err := svc.RegisterSeller(context.Background(), SellerRegisterRequest{
		Name:         "Kiran",
		Email:        "kiran@farm.in",
		Password:     "carrots1",
		Phone:        "9000000001",
		ShopName:     "Kiran Farms",
		Address:      "12 Market Road",
		City:         "Pune",
		State:        "MH",
		BusinessType: "Farmer",
	})
	require.NoError(t, err)
	require.Equal(t, enums.SellerStatusPending, dto.Status)

	stored, err := sellers.NewRepository(conn).FindByID(context.Background(), dto.ID)
	require.NoError(t, err)
	require.False(t, stored.CanSell())

	_, err = svc.RegisterSeller(context.Background(), SellerRegisterRequest{
		Name: "X", Email: "x@farm.in", Password: "carrots1", Phone: "1", ShopName: "X", Address: "X", City: "X", State: "X",
		BusinessType: "Trader",
	})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestSignupDeliveryNormalizesMobile(t *testing.T) {
	conn, svc := newRegisterFixture(t)

	dto, err := svc.SignupDelivery(context.Background(), DeliverySignupRequest{
		Name:     "Ravi",
		Mobile:   "+91 98765 43210",
		Password: "bikes123",
	})
	require.NoError(t, err)
	require.Equal(t, "919876543210", dto.Mobile)
	require.False(t, dto.IsApproved)

	_, err = agents.NewRepository(conn).FindByMobile(context.Background(), "919876543210")
	require.NoError(t, err)

	_, err = svc.SignupDelivery(context.Background(), DeliverySignupRequest{Name: "Dup", Mobile: "919876543210", Password: "bikes123"})
	require.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
}

func TestAdminRegisterCreatesAdmin(t *testing.T) {
	conn, _ := newRegisterFixture(t)
	svc, err := NewAdminRegisterService(users.NewRepository(conn), config.PasswordConfig{})
	require.NoError(t, err)

	dto, err := svc.Register(context.Background(), AdminRegisterRequest{Name: "Ops", Email: "ops@sabji.in", Password: "supersecret"})
	require.NoError(t, err)
	require.Equal(t, enums.RoleAdmin, dto.Role)
}

func newRegisterFixture(t *testing.T) (*gorm.DB, RegisterService) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range accountsDDL {
		require.NoError(t, conn.Exec(stmt).Error)
	}

	svc, err := NewRegisterService(RegisterServiceParams{
		Users:   users.NewRepository(conn),
		Sellers: sellers.NewRepository(conn),
		Agents:  agents.NewRepository(conn),
	})
	require.NoError(t, err)
	return conn, svc
}

var accountsDDL = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		phone TEXT,
		role TEXT NOT NULL DEFAULT 'customer',
		is_blocked BOOLEAN NOT NULL DEFAULT false,
		last_login_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE sellers (
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
	)`,
	`CREATE TABLE delivery_agents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		mobile TEXT NOT NULL UNIQUE,
		email TEXT UNIQUE,
		password_hash TEXT NOT NULL,
		is_approved BOOLEAN NOT NULL DEFAULT false,
		created_at DATETIME,
		updated_at DATETIME
	)`,
}
