package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/finreport/internal/config"
	"github.com/mtlprog/finreport/internal/derive"
	"github.com/mtlprog/finreport/internal/domain"
	"github.com/mtlprog/finreport/internal/export"
	"github.com/mtlprog/finreport/internal/importer"
)

func deriveCommand() *cli.Command {
	return &cli.Command{
		Name:      "derive",
		Usage:     "derive a stock report series read as JSON and print the result",
		ArgsUsage: "[FILE]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write to `FILE` instead of stdout"},
		},
		Action: func(c *cli.Context) error {
			in := io.Reader(os.Stdin)
			if path := c.Args().First(); path != "" && path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			var sr domain.StockReport
			if err := json.NewDecoder(in).Decode(&sr); err != nil {
				return fmt.Errorf("decoding stock report: %w", err)
			}

			sr.Touch(time.Now())
			derive.NewProcessor().DeriveSeries(&sr)

			return writeOutput(c.String("output"), sr)
		},
	}
}

func importCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "read .csv or .xlsx report sheets, derive them and store the series",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "sheet", Usage: "worksheet name for .xlsx files (default first sheet)"},
			&cli.BoolFlag{Name: "dry-run", Usage: "print the derived series instead of storing it"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("import: at least one FILE is required", 2)
			}

			series := make([]domain.StockReport, 0, c.NArg())
			for _, path := range c.Args().Slice() {
				sr, err := importer.ReadFile(path, c.String("sheet"))
				if err != nil {
					return fmt.Errorf("importing %s: %w", path, err)
				}
				series = append(series, sr)
			}

			if c.Bool("dry-run") {
				processor := derive.NewProcessor()
				for i := range series {
					series[i].Touch(time.Now())
					processor.DeriveSeries(&series[i])
				}
				return writeOutput("", series)
			}

			pool, reports, err := openReports(c.Context, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			for _, sr := range series {
				stored, err := reports.Push(c.Context, sr)
				if err != nil {
					return fmt.Errorf("storing %s: %w", sr.Ticker, err)
				}
				slog.Info("imported", "ticker", stored.Ticker, "years", len(stored.Data))
			}
			return nil
		},
	}
}

func exportCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "write stored series to xlsx workbooks or Google Sheets",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "ticker", Aliases: []string{"t"}, Usage: "ticker to export (repeatable, default all)"},
			&cli.StringFlag{Name: "xlsx-dir", Usage: "write one workbook per ticker into `DIR` instead of Google Sheets"},
		},
		Action: func(c *cli.Context) error {
			ctx := c.Context

			var writer export.Writer
			switch {
			case c.String("xlsx-dir") != "":
				dir := c.String("xlsx-dir")
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("creating %s: %w", dir, err)
				}
				writer = export.NewXLSXWriter(dir)
			case cfg.SheetsExportEnabled():
				w, err := export.NewSheetsWriter(ctx, cfg.GoogleSheetsID, cfg.GoogleCredentialsJSON)
				if err != nil {
					return err
				}
				writer = w
			default:
				return cli.Exit("export: pass --xlsx-dir or set GOOGLE_SHEETS_ID and GOOGLE_CREDENTIALS_JSON", 2)
			}

			pool, reports, err := openReports(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			tickers := c.StringSlice("ticker")
			if len(tickers) == 0 {
				if tickers, err = reports.Tickers(ctx); err != nil {
					return err
				}
			}

			return export.NewService(reports, writer).Export(ctx, tickers)
		},
	}
}

// writeOutput writes v as indented JSON to path, or to stdout when path is empty or "-".
func writeOutput(path string, v any) error {
	out := io.Writer(os.Stdout)
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
