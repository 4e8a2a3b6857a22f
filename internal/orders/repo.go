package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sabjimart/sabji-backend/pkg/db/models"
	"github.com/sabjimart/sabji-backend/pkg/enums"
	"github.com/sabjimart/sabji-backend/pkg/pagination"
)

// Repository persists orders and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByExternalPaymentOrderIDForUpdate(ctx context.Context, externalID string) (*models.Order, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	HasVendorLineItem(ctx context.Context, orderID, vendorID uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Order, error)
	ListByDeliveryAgent(ctx context.Context, agentID uuid.UUID, statuses []enums.OrderStatus) ([]models.Order, error)
	ListAdmin(ctx context.Context, filters AdminFilters) ([]models.Order, error)
	FindExpiredUnpaid(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order and its line items. IDs are assigned client side.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.LineItems {
		if order.LineItems[i].ID == uuid.Nil {
			order.LineItems[i].ID = uuid.New()
		}
		order.LineItems[i].OrderID = order.ID
	}
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("LineItems", orderLineItems).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDForUpdate locks the order row for the surrounding transaction.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByExternalPaymentOrderIDForUpdate(ctx context.Context, externalID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "external_payment_order_id = ?", externalID).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) HasVendorLineItem(ctx context.Context, orderID, vendorID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderLineItem{}).
		Where("order_id = ? AND vendor_id = ?", orderID, vendorID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByUser returns the customer's orders newest first, one row past the limit for cursor detection.
func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("LineItems", orderLineItems).
		Where("user_id = ?", userID)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("LineItems", orderLineItems).
		Where("EXISTS (SELECT 1 FROM order_line_items li WHERE li.order_id = orders.id AND li.vendor_id = ?)", vendorID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListByDeliveryAgent(ctx context.Context, agentID uuid.UUID, statuses []enums.OrderStatus) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("LineItems", orderLineItems).
		Where("delivery_agent_id = ?", agentID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var rows []models.Order
	err := query.Order("created_at DESC").Find(&rows).Error
	return rows, err
}

// ListAdmin applies the optional admin filters. DateTo covers the whole day it names.
func (r *repository) ListAdmin(ctx context.Context, filters AdminFilters) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Preload("LineItems", orderLineItems)

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.SellerID != nil {
		query = query.Where("EXISTS (SELECT 1 FROM order_line_items li WHERE li.order_id = orders.id AND li.vendor_id = ?)", *filters.SellerID)
	}
	if name := strings.TrimSpace(filters.CustomerName); name != "" {
		query = query.Where("LOWER(contact_name) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(name))+"%")
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at < ?", filters.DateTo.AddDate(0, 0, 1))
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var rows []models.Order
	err := query.Order("created_at DESC").Find(&rows).Error
	return rows, err
}

// FindExpiredUnpaid returns online orders that were never paid and never progressed.
func (r *repository) FindExpiredUnpaid(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Where("payment_method <> ?", enums.PaymentMethodCOD).
		Where("payment_status = ?", enums.PaymentStatusUnpaid).
		Where("status = ?", enums.OrderStatusPending).
		Where("created_at < ?", cutoff).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.Order
	err := query.Find(&rows).Error
	return rows, err
}

func orderLineItems(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("id ASC")
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
