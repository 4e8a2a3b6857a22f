package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"

	cloudbigquery "cloud.google.com/go/bigquery"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"

	"github.com/sabjimart/sabji-backend/internal/analytics/types"
	"github.com/sabjimart/sabji-backend/pkg/bigquery"
)

// Placeholders expanded by render. {scope} keeps rows whose seller_ids contain
// @sellerID; {orderScope} does the same for event types that carry only order_id.
const (
	scopeFilter      = "(@sellerID = '' OR @sellerID IN UNNEST(seller_ids))"
	orderScopeFilter = "(@sellerID = '' OR order_id IN (SELECT order_id FROM {table} WHERE event_type = 'order_created' AND " + scopeFilter + "))"
	window           = "occurred_at BETWEEN @start AND @end"

	dailyOrdersSQL = `SELECT FORMAT_DATE('%F', DATE(occurred_at)) AS day, COUNT(*) AS value
FROM {table} WHERE event_type = 'order_created' AND {window} AND {scope}
GROUP BY day ORDER BY day`

	dailyBookedSQL = `SELECT FORMAT_DATE('%F', DATE(occurred_at)) AS day, SUM(IFNULL(amount_paise, 0)) AS value
FROM {table} WHERE event_type = 'order_created' AND {window} AND {scope}
GROUP BY day ORDER BY day`

	dailyCapturedSQL = `SELECT FORMAT_DATE('%F', DATE(occurred_at)) AS day, SUM(IFNULL(amount_paise, 0)) AS value
FROM {table} WHERE event_type = 'order_paid' AND {window} AND {orderScope}
GROUP BY day ORDER BY day`

	dailyDeliveredSQL = `SELECT FORMAT_DATE('%F', DATE(occurred_at)) AS day, COUNT(DISTINCT order_id) AS value
FROM {table} WHERE event_type = 'order_status_changed' AND status = 'Delivered' AND {window} AND {orderScope}
GROUP BY day ORDER BY day`

	// line items are stored as a JSON array; a seller only sees its own lines
	topProductsSQL = `SELECT label, SUM(qty) AS value FROM (
  SELECT JSON_VALUE(item, '$.name') AS label,
         SAFE_CAST(JSON_VALUE(item, '$.qty') AS INT64) AS qty,
         JSON_VALUE(item, '$.vendor_id') AS vendor
  FROM {table}, UNNEST(JSON_QUERY_ARRAY(items)) AS item
  WHERE event_type = 'order_created' AND {window}
)
WHERE label IS NOT NULL AND (@sellerID = '' OR vendor = @sellerID)
GROUP BY label ORDER BY value DESC LIMIT 5`

	topCitiesSQL = `SELECT city AS label, COUNT(*) AS value
FROM {table} WHERE event_type = 'order_created' AND city IS NOT NULL AND {window} AND {scope}
GROUP BY city ORDER BY value DESC LIMIT 5`

	paymentFailuresSQL = `SELECT COUNT(*) AS value
FROM {table} WHERE event_type = 'order_payment_failed' AND {window} AND {orderScope}`

	averageOrderSQL = `SELECT SAFE_DIVIDE(SUM(IFNULL(amount_paise, 0)), COUNT(DISTINCT order_id)) AS value
FROM {table} WHERE event_type = 'order_created' AND {window} AND {scope}`
)

// rows is the part of *bigquery.RowIterator the warehouse reads.
type rows interface {
	Next(dst any) error
}

type querier interface {
	Query(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (rows, error)
}

type bqQuerier struct{ client *bigquery.Client }

func (q bqQuerier) Query(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (rows, error) {
	it, err := q.client.Query(ctx, sql, params)
	if err != nil {
		return nil, err
	}
	return it, nil
}

// warehouse answers dashboard requests from the marketplace_events table.
type warehouse struct {
	q     querier
	table string
}

func newWarehouse(q querier, project, dataset, table string) (*warehouse, error) {
	if project == "" || dataset == "" || table == "" {
		return nil, errors.New("project, dataset and table are required")
	}
	return &warehouse{q: q, table: fmt.Sprintf("`%s.%s.%s`", project, dataset, table)}, nil
}

var expandFilters = strings.NewReplacer(
	"{orderScope}", orderScopeFilter,
	"{scope}", scopeFilter,
	"{window}", window,
)

// sql expands filters before {table}, since orderScope itself names the table.
func (w *warehouse) sql(tmpl string) string {
	return strings.ReplaceAll(expandFilters.Replace(tmpl), "{table}", w.table)
}

func (w *warehouse) Dashboard(ctx context.Context, req types.DashboardRequest) (*types.Dashboard, error) {
	seller := ""
	if req.SellerID != nil {
		seller = req.SellerID.String()
	}
	params := []cloudbigquery.QueryParameter{
		{Name: "sellerID", Value: seller},
		{Name: "start", Value: req.Start},
		{Name: "end", Value: req.End},
	}

	out := &types.Dashboard{}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	series := func(tmpl string, dst *[]types.TimeSeriesPoint) {
		g.Go(func() error {
			got, err := collect[seriesRow](ctx, w.q, w.sql(tmpl), params)
			for _, r := range got {
				*dst = append(*dst, types.TimeSeriesPoint{Date: r.Day, Value: r.Value})
			}
			return err
		})
	}
	top := func(tmpl string, dst *[]types.LabelValue) {
		g.Go(func() error {
			got, err := collect[labelRow](ctx, w.q, w.sql(tmpl), params)
			for _, r := range got {
				*dst = append(*dst, types.LabelValue{Label: r.Label, Value: r.Value})
			}
			return err
		})
	}

	series(dailyOrdersSQL, &out.OrdersSeries)
	series(dailyBookedSQL, &out.BookedPaise)
	series(dailyCapturedSQL, &out.CapturedPaise)
	series(dailyDeliveredSQL, &out.DeliveredSeries)
	top(topProductsSQL, &out.TopProducts)
	top(topCitiesSQL, &out.TopCities)
	g.Go(func() error {
		got, err := collect[countRow](ctx, w.q, w.sql(paymentFailuresSQL), params)
		if len(got) > 0 {
			out.PaymentFailures = got[0].Value
		}
		return err
	})
	g.Go(func() error {
		got, err := collect[averageRow](ctx, w.q, w.sql(averageOrderSQL), params)
		if len(got) > 0 && got[0].Value.Valid {
			out.AverageOrderPaise = got[0].Value.Float64
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, s := range []*[]types.TimeSeriesPoint{&out.OrdersSeries, &out.BookedPaise, &out.CapturedPaise, &out.DeliveredSeries} {
		if *s == nil {
			*s = []types.TimeSeriesPoint{}
		}
	}
	for _, l := range []*[]types.LabelValue{&out.TopProducts, &out.TopCities} {
		if *l == nil {
			*l = []types.LabelValue{}
		}
	}
	return out, nil
}

type seriesRow struct {
	Day   string `bigquery:"day"`
	Value int64  `bigquery:"value"`
}

type labelRow struct {
	Label string `bigquery:"label"`
	Value int64  `bigquery:"value"`
}

type countRow struct {
	Value int64 `bigquery:"value"`
}

type averageRow struct {
	Value cloudbigquery.NullFloat64 `bigquery:"value"`
}

func collect[T any](ctx context.Context, q querier, sql string, params []cloudbigquery.QueryParameter) ([]T, error) {
	it, err := q.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("run warehouse query: %w", err)
	}
	var out []T
	for {
		var row T
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read warehouse row: %w", err)
		}
		out = append(out, row)
	}
}
