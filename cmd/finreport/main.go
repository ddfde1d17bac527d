package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/finreport/internal/config"
	"github.com/mtlprog/finreport/internal/database"
	"github.com/mtlprog/finreport/internal/derive"
	"github.com/mtlprog/finreport/internal/logging"
	"github.com/mtlprog/finreport/internal/report"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		slog.Error("finreport failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	var cfg config.Config
	return &cli.App{
		Name:  "finreport",
		Usage: "derive, store and publish annual financial report series",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "optional file of KEY=value pairs loaded before the environment is read",
			},
		},
		Before: func(c *cli.Context) error {
			if err := config.LoadDotEnv(c.String("env-file")); err != nil {
				return err
			}
			cfg = config.Load()
			return logging.Setup(os.Stderr, cfg.LogFormat, cfg.LogLevel)
		},
		Commands: []*cli.Command{
			serveCommand(&cfg),
			deriveCommand(),
			importCommand(&cfg),
			exportCommand(&cfg),
		},
	}
}

// openReports connects to the database, applies migrations and returns the report service.
// The caller closes the pool.
func openReports(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, *report.Service, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	migrationsSub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("creating migrations sub-fs: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	return pool, report.NewService(report.NewPgRepository(pool), derive.NewProcessor()), nil
}
