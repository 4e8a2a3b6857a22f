package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sabjimart/sabji-backend/pkg/enums"
	pkgerrors "github.com/sabjimart/sabji-backend/pkg/errors"
)

const (
	topN          = 5
	recentN       = 5
	unknownLabel  = "Unknown"
	guestCustomer = "Guest User"
)

// AdminReport summarizes delivered sales across the marketplace.
type AdminReport struct {
	TotalSalesPaise int64           `json:"totalSalesPaise"`
	TotalSales      decimal.Decimal `json:"totalSales"`
	TopProducts     []TopProduct    `json:"topProducts"`
	TopSellers      []TopSeller     `json:"topSellers"`
}

type TopProduct struct {
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	TotalQty  int64     `json:"totalQty"`
}

type TopSeller struct {
	SellerID           uuid.UUID       `json:"sellerId"`
	ShopName           string          `json:"shopName"`
	TotalEarningsPaise int64           `json:"totalEarningsPaise"`
	TotalEarnings      decimal.Decimal `json:"totalEarnings"`
}

// SellerAnalytics is the seller dashboard summary plus their latest line items.
type SellerAnalytics struct {
	Summary      SellerSummary `json:"summary"`
	RecentOrders []RecentLine  `json:"recentOrders"`
}

type SellerSummary struct {
	TotalOrders        int64           `json:"totalOrders"`
	TotalEarningsPaise int64           `json:"totalEarningsPaise"`
	TotalEarnings      decimal.Decimal `json:"totalEarnings"`
	PendingOrders      int64           `json:"pendingOrders"`
	CompletedOrders    int64           `json:"completedOrders"`
}

type RecentLine struct {
	OrderID       uuid.UUID         `json:"orderId"`
	CustomerName  string            `json:"customerName"`
	ProductName   string            `json:"productName"`
	Qty           int               `json:"qty"`
	PricePaise    int64             `json:"pricePaise"`
	SubtotalPaise int64             `json:"subtotalPaise"`
	Status        enums.OrderStatus `json:"status"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// Service builds admin and seller reports.
type Service interface {
	AdminReport(ctx context.Context) (*AdminReport, error)
	SellerAnalytics(ctx context.Context, sellerID uuid.UUID) (*SellerAnalytics, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reports repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) AdminReport(ctx context.Context) (*AdminReport, error) {
	total, err := s.repo.DeliveredSales(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sum delivered sales")
	}
	products, err := s.repo.TopProducts(ctx, topN)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rank products")
	}
	sellers, err := s.repo.TopSellers(ctx, topN)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rank sellers")
	}

	report := &AdminReport{
		TotalSalesPaise: total,
		TotalSales:      paiseToRupees(total),
		TopProducts:     make([]TopProduct, 0, len(products)),
		TopSellers:      make([]TopSeller, 0, len(sellers)),
	}
	for _, p := range products {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			name = unknownLabel
		}
		report.TopProducts = append(report.TopProducts, TopProduct{ProductID: p.ProductID, Name: name, TotalQty: p.TotalQty})
	}
	for _, row := range sellers {
		shop := unknownLabel
		if row.ShopName != nil && strings.TrimSpace(*row.ShopName) != "" {
			shop = *row.ShopName
		}
		report.TopSellers = append(report.TopSellers, TopSeller{
			SellerID:           row.SellerID,
			ShopName:           shop,
			TotalEarningsPaise: row.TotalEarnings,
			TotalEarnings:      paiseToRupees(row.TotalEarnings),
		})
	}
	return report, nil
}

func (s *service) SellerAnalytics(ctx context.Context, sellerID uuid.UUID) (*SellerAnalytics, error) {
	summary, err := s.repo.SellerSummary(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "seller summary")
	}
	lines, err := s.repo.RecentSellerLines(ctx, sellerID, recentN)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recent seller orders")
	}

	out := &SellerAnalytics{
		Summary: SellerSummary{
			TotalOrders:        summary.TotalOrders,
			TotalEarningsPaise: summary.TotalEarnings,
			TotalEarnings:      paiseToRupees(summary.TotalEarnings),
			PendingOrders:      summary.PendingOrders,
			CompletedOrders:    summary.CompletedOrders,
		},
		RecentOrders: make([]RecentLine, 0, len(lines)),
	}
	for _, l := range lines {
		customer := strings.TrimSpace(l.CustomerName)
		if customer == "" {
			customer = guestCustomer
		}
		out.RecentOrders = append(out.RecentOrders, RecentLine{
			OrderID:       l.OrderID,
			CustomerName:  customer,
			ProductName:   l.ProductName,
			Qty:           l.Qty,
			PricePaise:    l.PricePaise,
			SubtotalPaise: l.SubtotalPaise,
			Status:        l.Status,
			CreatedAt:     l.CreatedAt,
		})
	}
	return out, nil
}

func paiseToRupees(p int64) decimal.Decimal {
	return decimal.New(p, -2)
}
