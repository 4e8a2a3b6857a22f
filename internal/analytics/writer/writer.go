package writer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	cbigquery "cloud.google.com/go/bigquery"

	"github.com/sabjimart/sabji-backend/internal/analytics/types"
	pkgbigquery "github.com/sabjimart/sabji-backend/pkg/bigquery"
)

// Config controls batching and retries for marketplace event inserts.
type Config struct {
	MarketplaceTable string
	BatchSize        int
	MaxAttempts      int
	InitialBackoff   time.Duration
	MaxBackoff       time.Duration
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 1
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 250 * time.Millisecond
	}
	if c.MaxBackoff < c.InitialBackoff {
		c.MaxBackoff = max(2*time.Second, c.InitialBackoff)
	}
	return c
}

type inserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// BigQueryWriter buffers marketplace rows and streams them to BigQuery once a
// batch fills. A failed flush keeps the buffer so the next call retries it.
type BigQueryWriter struct {
	client inserter
	table  string
	cfg    Config

	mu      sync.Mutex
	pending []types.MarketplaceEventRow
}

func New(client *pkgbigquery.Client, cfg Config) (*BigQueryWriter, error) {
	if client == nil {
		return nil, errors.New("bigquery client required")
	}
	table := strings.TrimSpace(cfg.MarketplaceTable)
	if table == "" {
		return nil, errors.New("marketplace table is required")
	}
	return &BigQueryWriter{client: client, table: table, cfg: cfg.withDefaults()}, nil
}

// InsertMarketplace queues one row and flushes when the batch is full.
func (w *BigQueryWriter) InsertMarketplace(ctx context.Context, row types.MarketplaceEventRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append(w.pending, row)
	if len(w.pending) < w.cfg.BatchSize {
		return nil
	}
	return w.flush(ctx)
}

// Flush writes whatever is queued.
func (w *BigQueryWriter) Flush(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flush(ctx)
}

func (w *BigQueryWriter) flush(ctx context.Context) error {
	if len(w.pending) == 0 {
		return nil
	}
	rows := make([]any, 0, len(w.pending))
	for i := range w.pending {
		rows = append(rows, &w.pending[i])
	}

	wait := w.cfg.InitialBackoff
	for attempt := 1; ; attempt++ {
		err := w.client.InsertRows(ctx, w.table, rows)
		if err == nil {
			w.pending = w.pending[:0]
			return nil
		}
		if attempt >= w.cfg.MaxAttempts || !pkgbigquery.Retryable(err) {
			return fmt.Errorf("insert %d rows into %s: %w", len(rows), w.table, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait = min(wait*2, w.cfg.MaxBackoff)
	}
}

// EncodeJSON converts a payload into a BigQuery JSON column value; nil and
// empty input map to NULL.
func EncodeJSON(payload any) (cbigquery.NullJSON, error) {
	var raw []byte
	switch v := payload.(type) {
	case nil:
		return cbigquery.NullJSON{}, nil
	case cbigquery.NullJSON:
		return v, nil
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return cbigquery.NullJSON{}, fmt.Errorf("marshal json: %w", err)
		}
		raw = encoded
	}
	if len(raw) == 0 {
		return cbigquery.NullJSON{}, nil
	}
	return cbigquery.NullJSON{Valid: true, JSONVal: string(raw)}, nil
}
