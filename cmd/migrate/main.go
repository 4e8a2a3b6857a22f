// Command migrate manages the Postgres schema.
//
//	migrate [-dir path] up | down | status | to <version> | create <name> | validate
//
// Database commands use the migrations embedded in the binary unless -dir is set.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sabjimart/sabji-backend/pkg/config"
	"github.com/sabjimart/sabji-backend/pkg/db"
	"github.com/sabjimart/sabji-backend/pkg/logger"
	"github.com/sabjimart/sabji-backend/pkg/migrate"
)

func main() {
	dir := flag.String("dir", "", "read migrations from this directory instead of the embedded set")
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		args = []string{"up"}
	}

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	ctx := logg.WithField(context.Background(), "cmd", args[0])
	if err := run(ctx, logg, *dir, args); err != nil {
		logg.Error(ctx, "migrate failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logg *logger.Logger, dir string, args []string) error {
	source := migrate.Embedded()
	if dir != "" {
		source = os.DirFS(dir)
	}

	switch args[0] {
	case "create":
		if len(args) < 2 {
			return errors.New("usage: migrate create <name>")
		}
		if dir == "" {
			dir = migrate.SourceDir
		}
		path, err := migrate.Create(dir, strings.Join(args[1:], " "), time.Now())
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	case "validate":
		latest, err := migrate.Validate(source)
		if err != nil {
			return err
		}
		logg.Info(logg.WithField(ctx, "latest", latest), "migrations valid")
		return nil
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer client.Close()
	sqlDB, err := client.DB().DB()
	if err != nil {
		return err
	}
	m, err := migrate.NewMigrator(sqlDB, source)
	if err != nil {
		return err
	}
	return apply(ctx, logg, m, args)
}

func apply(ctx context.Context, logg *logger.Logger, m *migrate.Migrator, args []string) error {
	switch args[0] {
	case "up":
		results, err := m.Up(ctx)
		logg.Info(logg.WithField(ctx, "applied", len(results)), "migrate up finished")
		return err
	case "down":
		result, err := m.Down(ctx)
		if err != nil {
			return err
		}
		logg.Info(logg.WithField(ctx, "version", result.Source.Version), "rolled back")
		return nil
	case "to":
		if len(args) < 2 {
			return errors.New("usage: migrate to <YYYYMMDDHHMMSS>")
		}
		target, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("version %q: %w", args[1], err)
		}
		results, err := m.To(ctx, target)
		logg.Info(logg.WithFields(ctx, map[string]any{"target": target, "steps": len(results)}), "migrate to finished")
		return err
	case "status":
		statuses, err := m.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			applied := "pending"
			if !s.AppliedAt.IsZero() {
				applied = s.AppliedAt.Format(time.RFC3339)
			}
			fmt.Printf("%d\t%-9s\t%s\n", s.Source.Version, applied, baseName(s.Source.Path))
		}
		return nil
	}
	return fmt.Errorf("unknown command %q", args[0])
}

func baseName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
