// Command outbox-publisher relays committed outbox rows to Pub/Sub.
package main

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sabjimart/sabji-backend/pkg/bootstrap"
	"github.com/sabjimart/sabji-backend/pkg/metrics"
	"github.com/sabjimart/sabji-backend/pkg/outbox"
	"github.com/sabjimart/sabji-backend/pkg/outbox/registry"
	"github.com/sabjimart/sabji-backend/pkg/pubsub"
)

func main() {
	proc, err := bootstrap.Start("outbox-publisher")
	if err == nil {
		err = run(proc)
	}
	proc.Exit(err)
}

func run(proc *bootstrap.Process) error {
	ctx, stop := proc.SignalContext()
	defer stop()

	database, err := proc.Database(ctx)
	if err != nil {
		return err
	}
	topics, err := pubsub.NewClient(ctx, proc.Config.GCP, proc.Config.PubSub, proc.Log)
	if err != nil {
		return err
	}
	proc.OnShutdown("pubsub", topics.Close)

	routes, err := registry.NewEventRegistry(proc.Config.PubSub)
	if err != nil {
		return err
	}
	relay, err := NewRelay(RelayParams{
		Config:   proc.Config.Outbox,
		Logger:   proc.Log,
		DB:       database,
		Topics:   topics,
		Rows:     outbox.NewRepository(database.DB()),
		DLQ:      outbox.NewDLQRepository(database.DB()),
		Registry: routes,
		Metrics:  metrics.NewMarketplaceMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		return err
	}

	proc.Log.Info(ctx, "outbox relay started")
	if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	proc.Log.Info(ctx, "outbox relay drained and stopped")
	return nil
}
