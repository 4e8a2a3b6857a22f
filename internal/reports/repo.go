package reports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sabjimart/sabji-backend/internal/repo"
	"github.com/sabjimart/sabji-backend/pkg/enums"
)

// Repository runs the reporting aggregates over orders and line items.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

type productQtyRow struct {
	ProductID uuid.UUID
	Name      string
	TotalQty  int64
}

type sellerEarningsRow struct {
	SellerID      uuid.UUID
	ShopName      *string
	TotalEarnings int64
}

type sellerSummaryRow struct {
	TotalOrders     int64
	TotalEarnings   int64
	PendingOrders   int64
	CompletedOrders int64
}

type recentLineRow struct {
	OrderID       uuid.UUID
	CustomerName  string
	ProductName   string
	Qty           int
	PricePaise    int64
	SubtotalPaise int64
	Status        enums.OrderStatus
	CreatedAt     time.Time
}

// DeliveredSales sums order totals over delivered orders.
func (r *Repository) DeliveredSales(ctx context.Context) (int64, error) {
	var total int64
	err := r.DB(ctx).
		Table("orders").
		Select("COALESCE(SUM(total_paise), 0)").
		Where("status = ?", enums.OrderStatusDelivered).
		Scan(&total).Error
	return total, err
}

// TopProducts ranks products by quantity sold in delivered orders.
func (r *Repository) TopProducts(ctx context.Context, limit int) ([]productQtyRow, error) {
	var rows []productQtyRow
	err := r.DB(ctx).
		Table("order_line_items AS li").
		Select("li.product_id AS product_id, MAX(li.name) AS name, SUM(li.qty) AS total_qty").
		Joins("JOIN orders o ON o.id = li.order_id").
		Where("o.status = ?", enums.OrderStatusDelivered).
		Group("li.product_id").
		Order("total_qty DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// TopSellers ranks sellers by line-item subtotals in delivered orders.
func (r *Repository) TopSellers(ctx context.Context, limit int) ([]sellerEarningsRow, error) {
	var rows []sellerEarningsRow
	err := r.DB(ctx).
		Table("order_line_items AS li").
		Select("li.vendor_id AS seller_id, MAX(s.shop_name) AS shop_name, SUM(li.subtotal_paise) AS total_earnings").
		Joins("JOIN orders o ON o.id = li.order_id").
		Joins("LEFT JOIN sellers s ON s.id = li.vendor_id").
		Where("o.status = ?", enums.OrderStatusDelivered).
		Group("li.vendor_id").
		Order("total_earnings DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// SellerSummary aggregates every order containing at least one of the seller's line items.
func (r *Repository) SellerSummary(ctx context.Context, sellerID uuid.UUID) (sellerSummaryRow, error) {
	var row sellerSummaryRow
	err := r.DB(ctx).
		Table("order_line_items AS li").
		Select(`COUNT(DISTINCT o.id) AS total_orders,
			COALESCE(SUM(li.subtotal_paise), 0) AS total_earnings,
			COUNT(DISTINCT CASE WHEN o.status = ? THEN o.id END) AS pending_orders,
			COUNT(DISTINCT CASE WHEN o.status = ? THEN o.id END) AS completed_orders`,
			enums.OrderStatusPending, enums.OrderStatusDelivered).
		Joins("JOIN orders o ON o.id = li.order_id").
		Where("li.vendor_id = ?", sellerID).
		Scan(&row).Error
	return row, err
}

// RecentSellerLines lists the seller's most recent line items with their order context.
func (r *Repository) RecentSellerLines(ctx context.Context, sellerID uuid.UUID, limit int) ([]recentLineRow, error) {
	var rows []recentLineRow
	err := r.DB(ctx).
		Table("order_line_items AS li").
		Select(`o.id AS order_id, o.contact_name AS customer_name, li.name AS product_name, li.qty AS qty,
			li.unit_price_paise AS price_paise, li.subtotal_paise AS subtotal_paise, o.status AS status, o.created_at AS created_at`).
		Joins("JOIN orders o ON o.id = li.order_id").
		Where("li.vendor_id = ?", sellerID).
		Order("o.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
