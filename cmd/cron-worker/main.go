// Command cron-worker runs the periodic maintenance jobs under a Redis lock.
package main

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sabjimart/sabji-backend/internal/agents"
	"github.com/sabjimart/sabji-backend/internal/cron"
	"github.com/sabjimart/sabji-backend/internal/orders"
	"github.com/sabjimart/sabji-backend/pkg/bootstrap"
	"github.com/sabjimart/sabji-backend/pkg/metrics"
	"github.com/sabjimart/sabji-backend/pkg/outbox"
)

func main() {
	proc, err := bootstrap.Start("cron-worker")
	if err == nil {
		err = run(proc)
	}
	proc.Exit(err)
}

func run(proc *bootstrap.Process) error {
	ctx, stop := proc.SignalContext()
	defer stop()
	cfg, logg := proc.Config, proc.Log

	database, err := proc.Database(ctx)
	if err != nil {
		return err
	}
	cache, err := proc.Redis(ctx)
	if err != nil {
		return err
	}

	outboxRepo := outbox.NewRepository(database.DB())
	ordersRepo := orders.NewRepository(database.DB())
	ordersService, err := orders.NewService(
		ordersRepo,
		database,
		agents.NewRepository(database.DB()),
		outbox.NewService(outboxRepo, logg),
		metrics.NewMarketplaceMetrics(prometheus.DefaultRegisterer),
		logg,
	)
	if err != nil {
		return err
	}

	expireUnpaid, err := cron.NewUnpaidOrderJob(cron.UnpaidOrderJobParams{
		Logger: logg,
		Reader: ordersRepo,
		Orders: ordersService,
		TTL:    cfg.Orders.UnpaidTTL,
	})
	if err != nil {
		return err
	}
	keep := func(days int) time.Duration { return time.Duration(days) * 24 * time.Hour }
	pruneOutbox, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:         logg,
		DB:             database,
		Outbox:         outboxRepo,
		DeadLetters:    outbox.NewDLQRepository(database.DB()),
		KeepPublished:  keep(cfg.Outbox.RetentionDays),
		KeepDeadLetter: keep(cfg.Outbox.DLQRetentionDays),
	})
	if err != nil {
		return err
	}

	lockScope := cfg.App.Env
	if lockScope == "" {
		lockScope = "local"
	}
	lock, err := cron.NewRedisLock(cache, cache.LockKey("cron-worker:"+lockScope), 0)
	if err != nil {
		return err
	}
	scheduler, err := cron.NewScheduler(cron.SchedulerParams{
		Logger:   logg,
		Jobs:     []cron.Job{expireUnpaid, pruneOutbox},
		Lock:     lock,
		Metrics:  metrics.NewCronMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		return err
	}

	logg.Info(ctx, "cron scheduler started")
	if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
