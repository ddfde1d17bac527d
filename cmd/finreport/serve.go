package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/finreport/internal/api"
	"github.com/mtlprog/finreport/internal/config"
	"github.com/mtlprog/finreport/internal/export"
	"github.com/mtlprog/finreport/internal/worker"
)

func serveCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API and the scheduled rederivation worker",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "port", Usage: "listen port (default HTTP_PORT)"},
			&cli.BoolFlag{Name: "no-worker", Usage: "do not start the rederivation worker"},
		},
		Action: func(c *cli.Context) error {
			ctx := c.Context

			pool, reports, err := openReports(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			if !c.Bool("no-worker") {
				var hook worker.AfterRederiveHook
				if cfg.SheetsExportEnabled() {
					writer, err := export.NewSheetsWriter(ctx, cfg.GoogleSheetsID, cfg.GoogleCredentialsJSON)
					if err != nil {
						return err
					}
					hook = export.NewService(reports, writer)
				} else {
					slog.Info("Google Sheets export disabled, GOOGLE_SHEETS_ID or GOOGLE_CREDENTIALS_JSON not set")
				}

				rederiveWorker, err := worker.NewRederiveWorker(reports, cfg.RederiveSchedule, cfg.RederiveConcurrency, hook)
				if err != nil {
					return err
				}
				go rederiveWorker.Run(ctx)
			}

			if cfg.AdminAPIKey == "" {
				slog.Warn("ADMIN_API_KEY not set, mutating endpoints are unprotected")
			}

			port := c.String("port")
			if port == "" {
				port = cfg.HTTPPort
			}
			srv := api.NewServer(port, reports, cfg.AdminAPIKey)

			serveErr := make(chan error, 1)
			go func() {
				slog.Info("HTTP server listening", "port", port)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case err := <-serveErr:
				if err != nil {
					return err
				}
			case <-ctx.Done():
			}
			slog.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("HTTP server shutdown error", "error", err)
			}

			slog.Info("shutdown complete")
			return nil
		},
	}
}
