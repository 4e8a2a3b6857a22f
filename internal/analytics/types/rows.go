package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// MarketplaceEventRow mirrors the marketplace_events BigQuery schema.
type MarketplaceEventRow struct {
	EventID       string             `bigquery:"event_id"`
	EventType     string             `bigquery:"event_type"`
	OccurredAt    time.Time          `bigquery:"occurred_at"`
	ActorRole     *string            `bigquery:"actor_role"`
	OrderID       *string            `bigquery:"order_id"`
	ProductID     *string            `bigquery:"product_id"`
	UserID        *string            `bigquery:"user_id"`
	SellerIDs     []string           `bigquery:"seller_ids"`
	PaymentMethod *string            `bigquery:"payment_method"`
	AmountPaise   *int64             `bigquery:"amount_paise"`
	FromStatus    *string            `bigquery:"from_status"`
	Status        *string            `bigquery:"status"`
	City          *string            `bigquery:"city"`
	Pincode       *string            `bigquery:"pincode"`
	Items         cbigquery.NullJSON `bigquery:"items"`
	Payload       cbigquery.NullJSON `bigquery:"payload"`
}
