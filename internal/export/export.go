package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mtlprog/finreport/internal/domain"
)

// Writer writes the tabs of one ticker's series to a spreadsheet destination.
type Writer interface {
	Write(ctx context.Context, ticker string, tabs []Tab) error
}

// Source loads a stored series by ticker.
type Source interface {
	Get(ctx context.Context, ticker string) (*domain.StockReport, error)
}

// Service renders stored series and delegates writing to a Writer.
type Service struct {
	reports Source
	writer  Writer
}

// NewService creates a new export Service.
func NewService(reports Source, writer Writer) *Service {
	return &Service{reports: reports, writer: writer}
}

// ExportReport writes one series.
func (s *Service) ExportReport(ctx context.Context, sr domain.StockReport) error {
	if err := s.writer.Write(ctx, sr.Ticker, BuildTabs(sr)); err != nil {
		return fmt.Errorf("writing %s: %w", sr.Ticker, err)
	}
	return nil
}

// Export loads and writes each ticker. A failing ticker does not stop the others; all
// failures are returned joined. Implements worker.AfterRederiveHook.
func (s *Service) Export(ctx context.Context, tickers []string) error {
	var errs []error
	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return err
		}

		sr, err := s.reports.Get(ctx, ticker)
		if err != nil {
			slog.Warn("export: loading series failed", "ticker", ticker, "error", err)
			errs = append(errs, fmt.Errorf("loading %s: %w", ticker, err))
			continue
		}

		if err := s.ExportReport(ctx, *sr); err != nil {
			slog.Warn("export: writing series failed", "ticker", ticker, "error", err)
			errs = append(errs, err)
			continue
		}
		slog.Info("exported series", "ticker", ticker, "years", len(sr.Data))
	}
	return errors.Join(errs...)
}
