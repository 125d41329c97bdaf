package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"

	"github.com/joao-fontenele/campuseats/internal/config"
	"github.com/joao-fontenele/campuseats/migrations"
)

const usage = "usage: migrate <up|down|version|force N>"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	flag.Parse()

	if err := run(logger, flag.Args()); err != nil {
		logger.Error("migrate failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger, args []string) error {
	if len(args) < 1 {
		return errors.New(usage)
	}

	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	if err := cfg.RequirePostgres(); err != nil {
		return err
	}

	m, err := migrations.New(cfg.PostgresURL)
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	switch cmd := args[0]; cmd {
	case "up":
		return apply(logger, m.Up(), "migrations applied", "no pending migrations")
	case "down":
		return apply(logger, m.Steps(-1), "migration rolled back", "no migrations to roll back")
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("no migrations applied yet")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read version: %w", err)
		}
		logger.Info("current schema version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
		return nil
	case "force":
		if len(args) < 2 {
			return errors.New("usage: migrate force N")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		if err := m.Force(version); err != nil {
			return fmt.Errorf("force version %d: %w", version, err)
		}
		logger.Info("schema version forced", slog.Int("version", version))
		return nil
	default:
		return fmt.Errorf("unknown command %q; %s", cmd, usage)
	}
}

func apply(logger *slog.Logger, err error, done, noop string) error {
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info(noop)
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info(done)
	return nil
}
