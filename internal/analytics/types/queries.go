package types

import (
	"time"

	"github.com/google/uuid"
)

// DashboardRequest scopes a warehouse query to a time window and optionally one seller.
type DashboardRequest struct {
	SellerID *uuid.UUID
	Start    time.Time
	End      time.Time
}

// TimeSeriesPoint describes a single date/value pair returned by the query service.
type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
}

// LabelValue represents a top-N entry such as a product or city.
type LabelValue struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// Dashboard wraps the marketplace trend KPIs.
type Dashboard struct {
	OrdersSeries      []TimeSeriesPoint `json:"orders"`
	BookedPaise       []TimeSeriesPoint `json:"bookedPaise"`
	CapturedPaise     []TimeSeriesPoint `json:"capturedPaise"`
	DeliveredSeries   []TimeSeriesPoint `json:"delivered"`
	TopProducts       []LabelValue      `json:"topProducts"`
	TopCities         []LabelValue      `json:"topCities"`
	PaymentFailures   int64             `json:"paymentFailures"`
	AverageOrderPaise float64           `json:"averageOrderPaise"`
}
