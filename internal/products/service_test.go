package product

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sabjimart/sabji-backend/pkg/db"
	"github.com/sabjimart/sabji-backend/pkg/db/models"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
	"github.com/sabjimart/sabji-backend/pkg/outbox"
)

type stubSellers struct {
	seller *models.Seller
	err    error
}

func (s stubSellers) FindByID(context.Context, uuid.UUID) (*models.Seller, error) {
	return s.seller, s.err
}

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	ddl := []string{`
CREATE TABLE sellers (
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
  is_blocked INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE products (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT,
  category TEXT NOT NULL,
  price_per_kg_paise INTEGER NOT NULL,
  available_qty TEXT NOT NULL DEFAULT '0',
  image_url TEXT,
  in_stock INTEGER NOT NULL DEFAULT 1,
  is_approved INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE reviews (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  user_id TEXT,
  name TEXT NOT NULL,
  rating INTEGER NOT NULL,
  review TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`}
	for _, stmt := range ddl {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func seedSeller(t *testing.T, conn *gorm.DB, status enums.SellerStatus) *models.Seller {
	t.Helper()
	seller := &models.Seller{
		ID:           uuid.New(),
		Name:         "Ramesh",
		Email:        uuid.NewString() + "@example.com",
		Phone:        "9876543210",
		ShopName:     "Ramesh Sabji Bhandar",
		Address:      "12 Market Road",
		City:         "Pune",
		State:        "MH",
		BusinessType: enums.BusinessTypeFarmer,
		PasswordHash: "hash",
		Status:       status,
	}
	require.NoError(t, conn.Create(seller).Error)
	return seller
}

func newTestService(t *testing.T, conn *gorm.DB, seller *models.Seller) Service {
	t.Helper()
	svc, err := NewService(
		NewRepository(conn),
		db.NewFromConn(conn),
		stubSellers{seller: seller},
		outbox.NewService(outbox.NewRepository(conn), nil),
	)
	require.NoError(t, err)
	return svc
}

func TestCreateProductAssignsSequentialSlugs(t *testing.T) {
	conn := setupCatalogTestDB(t)
	seller := seedSeller(t, conn, enums.SellerStatusApproved)
	svc := newTestService(t, conn, seller)
	ctx := context.Background()

	input := CreateProductInput{
		Name:            "Tomato",
		Category:        "vegetables",
		PricePerKgPaise: 4000,
		AvailableQty:    decimal.NewFromInt(25),
	}

	first, err := svc.CreateProduct(ctx, seller.ID, input)
	require.NoError(t, err)
	second, err := svc.CreateProduct(ctx, seller.ID, input)
	require.NoError(t, err)

	assert.Equal(t, "tomato", first.Slug)
	assert.Equal(t, "tomato-1", second.Slug)
	assert.True(t, first.InStock)

	var events []models.OutboxEvent
	require.NoError(t, conn.Where("event_type = ?", enums.EventProductCreated).Find(&events).Error)
	assert.Len(t, events, 2)
}

func TestCreateProductPrefersFreeBaseSlug(t *testing.T) {
	conn := setupCatalogTestDB(t)
	seller := seedSeller(t, conn, enums.SellerStatusApproved)
	svc := newTestService(t, conn, seller)
	ctx := context.Background()

	numbered, err := svc.CreateProduct(ctx, seller.ID, CreateProductInput{
		Name:            "Tomato 2",
		Category:        "vegetables",
		PricePerKgPaise: 4000,
	})
	require.NoError(t, err)
	plain, err := svc.CreateProduct(ctx, seller.ID, CreateProductInput{
		Name:            "Tomato",
		Category:        "vegetables",
		PricePerKgPaise: 4000,
	})
	require.NoError(t, err)
	again, err := svc.CreateProduct(ctx, seller.ID, CreateProductInput{
		Name:            "Tomato",
		Category:        "vegetables",
		PricePerKgPaise: 4000,
	})
	require.NoError(t, err)

	assert.Equal(t, "tomato-2", numbered.Slug)
	assert.Equal(t, "tomato", plain.Slug)
	assert.Equal(t, "tomato-1", again.Slug)
}

func TestCreateProductUsesExplicitSlug(t *testing.T) {
	conn := setupCatalogTestDB(t)
	seller := seedSeller(t, conn, enums.SellerStatusApproved)
	svc := newTestService(t, conn, seller)

	require.NoError(t, conn.Exec(
		"INSERT INTO products (id, seller_id, name, slug, category, price_per_kg_paise, available_qty, in_stock) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		uuid.NewString(), seller.ID.String(), "Okra", "okra", "vegetables", 6000, "1", 1,
	).Error)

	created, err := svc.CreateProduct(context.Background(), seller.ID, CreateProductInput{
		Name:            "Bhindi",
		Slug:            "Okra",
		Category:        "vegetables",
		PricePerKgPaise: 6000,
	})
	require.NoError(t, err)
	assert.Equal(t, "okra-1", created.Slug)
	assert.False(t, created.InStock)
}

func TestCreateProductRejectsUnapprovedSeller(t *testing.T) {
	conn := setupCatalogTestDB(t)
	seller := seedSeller(t, conn, enums.SellerStatusPending)
	svc := newTestService(t, conn, seller)

	_, err := svc.CreateProduct(context.Background(), seller.ID, CreateProductInput{
		Name:            "Carrot",
		Category:        "vegetables",
		PricePerKgPaise: 4000,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
}

func TestCreateProductValidation(t *testing.T) {
	conn := setupCatalogTestDB(t)
	seller := seedSeller(t, conn, enums.SellerStatusApproved)
	svc := newTestService(t, conn, seller)

	_, err := svc.CreateProduct(context.Background(), seller.ID, CreateProductInput{Name: "%%%", Category: "veg", PricePerKgPaise: 100})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = svc.CreateProduct(context.Background(), seller.ID, CreateProductInput{Name: "Beans", Category: "veg"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestUpdateProductKeepsSlugOnRename(t *testing.T) {
	conn := setupCatalogTestDB(t)
	seller := seedSeller(t, conn, enums.SellerStatusApproved)
	svc := newTestService(t, conn, seller)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, seller.ID, CreateProductInput{
		Name:            "Spinach",
		Category:        "leafy",
		PricePerKgPaise: 3000,
		AvailableQty:    decimal.NewFromInt(5),
	})
	require.NoError(t, err)

	newName := "Palak"
	zero := decimal.Zero
	updated, err := svc.UpdateProduct(ctx, seller.ID, created.ID, UpdateProductInput{Name: &newName, AvailableQty: &zero})
	require.NoError(t, err)
	assert.Equal(t, "spinach", updated.Slug)
	assert.Equal(t, "Palak", updated.Name)
	assert.False(t, updated.InStock)

	_, err = svc.UpdateProduct(ctx, uuid.New(), created.ID, UpdateProductInput{Name: &newName})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestDeleteProductScopedToSeller(t *testing.T) {
	conn := setupCatalogTestDB(t)
	seller := seedSeller(t, conn, enums.SellerStatusApproved)
	svc := newTestService(t, conn, seller)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, seller.ID, CreateProductInput{Name: "Peas", Category: "veg", PricePerKgPaise: 8000})
	require.NoError(t, err)

	err = svc.DeleteProduct(ctx, uuid.New(), created.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
	require.NoError(t, svc.DeleteProduct(ctx, seller.ID, created.ID))

	_, err = svc.GetBySlug(ctx, "peas")
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}

func TestListVendorsMatchesName(t *testing.T) {
	conn := setupCatalogTestDB(t)
	sellerA := seedSeller(t, conn, enums.SellerStatusApproved)
	sellerB := seedSeller(t, conn, enums.SellerStatusApproved)
	ctx := context.Background()

	svcA := newTestService(t, conn, sellerA)
	svcB := newTestService(t, conn, sellerB)

	_, err := svcA.CreateProduct(ctx, sellerA.ID, CreateProductInput{Name: "Onion", Category: "veg", PricePerKgPaise: 3500, AvailableQty: decimal.NewFromInt(10)})
	require.NoError(t, err)
	_, err = svcB.CreateProduct(ctx, sellerB.ID, CreateProductInput{Name: "onion", Category: "veg", PricePerKgPaise: 3000, AvailableQty: decimal.NewFromInt(10)})
	require.NoError(t, err)

	_, err = svcA.ListVendors(ctx, "onion")
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err), "unapproved listings stay hidden")
	require.NoError(t, conn.Model(&models.Product{}).Where("1 = 1").Update("is_approved", true).Error)

	vendors, err := svcA.ListVendors(ctx, "onion")
	require.NoError(t, err)
	require.Len(t, vendors, 2)
	assert.Equal(t, sellerB.ID, vendors[0].SellerID)
	require.NotNil(t, vendors[0].Vendor)
	assert.Equal(t, "Ramesh Sabji Bhandar", vendors[0].Vendor.ShopName)
}

func TestProductModeration(t *testing.T) {
	conn := setupCatalogTestDB(t)
	seller := seedSeller(t, conn, enums.SellerStatusApproved)
	svc := newTestService(t, conn, seller)
	ctx := context.Background()

	beans, err := svc.CreateProduct(ctx, seller.ID, CreateProductInput{Name: "Beans", Category: "veg", PricePerKgPaise: 5000, AvailableQty: decimal.NewFromInt(3)})
	require.NoError(t, err)
	gourd, err := svc.CreateProduct(ctx, seller.ID, CreateProductInput{Name: "Gourd", Category: "veg", PricePerKgPaise: 2000, AvailableQty: decimal.NewFromInt(3)})
	require.NoError(t, err)
	assert.False(t, beans.IsApproved)

	public, err := svc.ListPublic(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, public)
	_, err = svc.GetBySlug(ctx, "beans")
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	pending, err := svc.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.NotNil(t, pending[0].Vendor)

	require.NoError(t, svc.ApproveProduct(ctx, beans.ID))
	require.NoError(t, svc.RejectProduct(ctx, gourd.ID))

	public, err = svc.ListPublic(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, beans.ID, public[0].ID)
	assert.True(t, public[0].IsApproved)

	var remaining int64
	require.NoError(t, conn.Model(&models.Product{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)

	// approved listings cannot be rejected, and unknown ids are missing
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(svc.RejectProduct(ctx, beans.ID)))
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(svc.ApproveProduct(ctx, uuid.New())))
	pending, err = svc.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestStorefront(t *testing.T) {
	conn := setupCatalogTestDB(t)
	seller := seedSeller(t, conn, enums.SellerStatusApproved)
	svc := newTestService(t, conn, seller)
	ctx := context.Background()

	carrot, err := svc.CreateProduct(ctx, seller.ID, CreateProductInput{Name: "Carrot", Category: "veg", PricePerKgPaise: 4000, AvailableQty: decimal.NewFromInt(8)})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, seller.ID, CreateProductInput{Name: "Garlic", Category: "veg", PricePerKgPaise: 9000})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, seller.ID, CreateProductInput{Name: "Radish", Category: "veg", PricePerKgPaise: 3000, AvailableQty: decimal.NewFromInt(2)})
	require.NoError(t, err)
	require.NoError(t, svc.ApproveProduct(ctx, carrot.ID))
	require.NoError(t, conn.Model(&models.Product{}).Where("slug = ?", "garlic").Update("is_approved", true).Error)

	for _, rating := range []int{4, 5} {
		require.NoError(t, conn.Create(&models.Review{ID: uuid.New(), ProductID: carrot.ID, Name: "Asha", Rating: rating, Review: "fresh"}).Error)
	}

	front, err := svc.Storefront(ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ramesh Sabji Bhandar", front.Vendor.ShopName)
	assert.Equal(t, enums.BusinessTypeFarmer, front.Vendor.BusinessType)
	// garlic is out of stock and radish is still pending
	require.Len(t, front.Products, 1)
	assert.Equal(t, carrot.ID, front.Products[0].ID)
	require.NotNil(t, front.AverageRating)
	assert.InDelta(t, 4.5, *front.AverageRating, 0.001)
	assert.Equal(t, int64(2), front.ReviewCount)
}

func TestStorefrontHidesInactiveSellers(t *testing.T) {
	conn := setupCatalogTestDB(t)
	ctx := context.Background()

	pending := seedSeller(t, conn, enums.SellerStatusPending)
	_, err := newTestService(t, conn, pending).Storefront(ctx, pending.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	blocked := seedSeller(t, conn, enums.SellerStatusApproved)
	blocked.IsBlocked = true
	_, err = newTestService(t, conn, blocked).Storefront(ctx, blocked.ID)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	_, err = newTestService(t, conn, nil).Storefront(ctx, uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}
