package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/sabjimart/sabji-backend/pkg/config"
	"github.com/sabjimart/sabji-backend/pkg/logger"
)

const verifyTimeout = 10 * time.Second

var ErrNotInitialized = errors.New("bigquery client not initialized")

// Client wraps the BigQuery SDK around the single marketplace events table
// that the analytics worker writes and the dashboard reads.
type Client struct {
	sdk     *bigquery.Client
	dataset *bigquery.Dataset
	table   string
}

// NewClient connects to the configured project and fails fast when the dataset
// or events table is missing; neither is created at runtime.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.BigQueryConfig, logg *logger.Logger) (*Client, error) {
	project := strings.TrimSpace(gcp.ProjectID)
	dataset := strings.TrimSpace(cfg.Dataset)
	table := strings.TrimSpace(cfg.MarketplaceEventsTable)
	switch {
	case project == "":
		return nil, errors.New("gcp project id is required")
	case dataset == "":
		return nil, errors.New("bigquery dataset is required")
	case table == "":
		return nil, errors.New("bigquery marketplace table is required")
	}

	sdk, err := bigquery.NewClient(ctx, project, credentials(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating bigquery client: %w", err)
	}
	c := &Client{sdk: sdk, dataset: sdk.Dataset(dataset), table: table}
	if err := c.Ping(ctx); err != nil {
		_ = sdk.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"dataset": dataset, "table": table}), "bigquery client ready")
	}
	return c, nil
}

// credentials prefers inline JSON over a credentials file; with neither the
// SDK falls back to application default credentials.
func credentials(gcp config.GCPConfig) []option.ClientOption {
	if raw := strings.TrimSpace(gcp.CredentialsJSON); raw != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}
	}
	if path := strings.TrimSpace(gcp.ApplicationCredentials); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}

// Ping reads dataset and table metadata.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.dataset == nil {
		return ErrNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	if _, err := c.dataset.Metadata(ctx); err != nil {
		return describeMissing("dataset", c.dataset.DatasetID, err)
	}
	if _, err := c.dataset.Table(c.table).Metadata(ctx); err != nil {
		return describeMissing("table", c.table, err)
	}
	return nil
}

func describeMissing(kind, name string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return fmt.Errorf("%s %q does not exist", kind, name)
	}
	return fmt.Errorf("checking %s %q: %w", kind, name, err)
}

// MarketplaceEventsTable is the configured events table name.
func (c *Client) MarketplaceEventsTable() string {
	if c == nil {
		return ""
	}
	return c.table
}

// InsertRows streams rows into table. Rows must be ValueSavers or structs
// carrying bigquery tags.
func (c *Client) InsertRows(ctx context.Context, table string, rows []any) error {
	if c == nil || c.dataset == nil {
		return ErrNotInitialized
	}
	if len(rows) == 0 {
		return nil
	}
	name := strings.TrimSpace(table)
	if name == "" {
		name = c.table
	}
	return c.dataset.Table(name).Inserter().Put(ctx, rows)
}

// Query runs a parameterised SQL statement.
func (c *Client) Query(ctx context.Context, sql string, params []bigquery.QueryParameter) (*bigquery.RowIterator, error) {
	if c == nil || c.sdk == nil {
		return nil, ErrNotInitialized
	}
	if strings.TrimSpace(sql) == "" {
		return nil, errors.New("sql query is required")
	}
	q := c.sdk.Query(sql)
	q.Parameters = params
	return q.Read(ctx)
}

func (c *Client) Close() error {
	if c == nil || c.sdk == nil {
		return nil
	}
	return c.sdk.Close()
}
