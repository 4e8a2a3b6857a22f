// Command analytics-worker streams domain events from Pub/Sub into BigQuery.
package main

import (
	"context"
	"errors"

	"github.com/sabjimart/sabji-backend/internal/analytics/router"
	"github.com/sabjimart/sabji-backend/internal/analytics/worker"
	"github.com/sabjimart/sabji-backend/internal/analytics/writer"
	"github.com/sabjimart/sabji-backend/pkg/bigquery"
	"github.com/sabjimart/sabji-backend/pkg/bootstrap"
	"github.com/sabjimart/sabji-backend/pkg/outbox/idempotency"
	"github.com/sabjimart/sabji-backend/pkg/pubsub"
)

func main() {
	proc, err := bootstrap.Start("analytics-worker")
	if err == nil {
		err = run(proc)
	}
	proc.Exit(err)
}

func run(proc *bootstrap.Process) error {
	ctx, stop := proc.SignalContext()
	defer stop()
	cfg, logg := proc.Config, proc.Log

	cache, err := proc.Redis(ctx)
	if err != nil {
		return err
	}
	ps, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		return err
	}
	proc.OnShutdown("pubsub", ps.Close)
	bq, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
	if err != nil {
		return err
	}
	proc.OnShutdown("bigquery", bq.Close)

	sub := ps.AnalyticsSubscription()
	if sub == nil {
		return errors.New("analytics subscription is not configured")
	}
	seen, err := idempotency.NewGuard(cache, worker.ConsumerName, cfg.Eventing.OutboxIdempotencyTTL)
	if err != nil {
		return err
	}
	sink, err := writer.New(bq, writer.Config{MarketplaceTable: bq.MarketplaceEventsTable()})
	if err != nil {
		return err
	}
	// registered after the clients so it runs before they close
	proc.OnShutdown("analytics buffer", func() error { return sink.Flush(context.Background()) })

	projector, err := router.NewRouter(sink, logg)
	if err != nil {
		return err
	}
	consumer, err := worker.NewConsumer(sub, projector, seen, logg)
	if err != nil {
		return err
	}

	logg.Info(ctx, "analytics worker consuming")
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
