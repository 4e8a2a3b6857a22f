// Package bootstrap holds the startup and teardown steps every binary shares.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sabjimart/sabji-backend/pkg/config"
	"github.com/sabjimart/sabji-backend/pkg/db"
	"github.com/sabjimart/sabji-backend/pkg/instance"
	"github.com/sabjimart/sabji-backend/pkg/logger"
	"github.com/sabjimart/sabji-backend/pkg/migrate"
	"github.com/sabjimart/sabji-backend/pkg/redis"
)

type closer struct {
	name string
	fn   func() error
}

// Process is one running binary: its config, its logger and the resources
// to release on exit.
type Process struct {
	Name   string
	Config *config.Config
	Log    *logger.Logger

	closers []closer
}

// Start loads .env (when present) and the environment config, then builds the
// process logger at the configured level.
func Start(name string) (*Process, error) {
	boot := logger.New(logger.Options{ServiceName: name})
	if err := godotenv.Load(); err != nil {
		boot.Debug(context.Background(), "no .env file; using process environment")
	}
	cfg, err := config.Load()
	if err != nil {
		return &Process{Name: name, Log: boot}, fmt.Errorf("load config: %w", err)
	}
	cfg.Service.Kind = name

	return &Process{
		Name:   name,
		Config: cfg,
		Log: logger.New(logger.Options{
			ServiceName: name,
			Level:       logger.ParseLevel(cfg.App.LogLevel),
			WarnStack:   cfg.App.LogWarnStack,
		}),
	}, nil
}

// OnShutdown registers fn to run during Shutdown, in reverse order of registration.
func (p *Process) OnShutdown(name string, fn func() error) {
	p.closers = append(p.closers, closer{name: name, fn: fn})
}

func (p *Process) Shutdown() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		c := p.closers[i]
		if err := c.fn(); err != nil {
			p.Log.Error(p.Log.WithField(context.Background(), "resource", c.name), "close failed", err)
		}
	}
	p.closers = nil
}

// SignalContext is cancelled on SIGINT or SIGTERM and carries the process
// identity as log fields.
func (p *Process) SignalContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	fields := map[string]any{"serviceKind": p.Name, "instance": instance.GetID("local")}
	if p.Config != nil {
		fields["env"] = p.Config.App.Env
	}
	return p.Log.WithFields(ctx, fields), stop
}

// Database connects to Postgres and applies pending migrations in dev.
func (p *Process) Database(ctx context.Context) (*db.Client, error) {
	client, err := db.New(ctx, p.Config.DB, p.Log)
	if err != nil {
		return nil, err
	}
	p.OnShutdown("database", client.Close)
	if err := migrate.MaybeRunDev(ctx, p.Config, p.Log, client); err != nil {
		return nil, fmt.Errorf("dev migrations: %w", err)
	}
	return client, nil
}

func (p *Process) Redis(ctx context.Context) (*redis.Client, error) {
	client, err := redis.New(ctx, p.Config.Redis)
	if err != nil {
		return nil, err
	}
	p.OnShutdown("redis", client.Close)
	return client, nil
}

// Exit runs Shutdown and terminates with status 1 when err is non-nil.
func (p *Process) Exit(err error) {
	p.Shutdown()
	if err != nil {
		p.Log.Error(context.Background(), p.Name+" exited with error", err)
		os.Exit(1)
	}
}
