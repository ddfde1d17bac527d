// Package report stores derived report series and keeps them derived: every write runs the
// derivation engine first, so stored reports always carry their derived figures.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mtlprog/finreport/internal/derive"
	"github.com/mtlprog/finreport/internal/domain"
)

// ErrInvalidTicker is returned for an empty or malformed ticker.
var ErrInvalidTicker = errors.New("invalid ticker")

var tickerPattern = regexp.MustCompile(`^[A-Za-z0-9.\-]{1,16}$`)

// NormalizeTicker trims ticker and checks it is 1 to 16 letters, digits, dots or hyphens.
// Tickers end up in file names and sheet titles, so anything else is rejected.
func NormalizeTicker(ticker string) (string, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return "", fmt.Errorf("%w: ticker is required", ErrInvalidTicker)
	}
	if !tickerPattern.MatchString(ticker) || strings.Contains(ticker, "..") {
		return "", fmt.Errorf("%w: %q must be 1-16 letters, digits, dots or hyphens", ErrInvalidTicker, ticker)
	}
	return ticker, nil
}

// Service derives report series and persists them.
type Service struct {
	repo      Repository
	processor *derive.Processor
	now       func() time.Time
}

// NewService creates a new report Service.
func NewService(repo Repository, processor *derive.Processor) *Service {
	return &Service{repo: repo, processor: processor, now: time.Now}
}

// Push derives the whole series of sr and replaces whatever was stored for its ticker.
func (s *Service) Push(ctx context.Context, sr domain.StockReport) (domain.StockReport, error) {
	ticker, err := NormalizeTicker(sr.Ticker)
	if err != nil {
		return domain.StockReport{}, err
	}
	sr.Ticker = ticker

	sr.Touch(s.now())
	s.processor.DeriveSeries(&sr)

	if err := s.repo.Save(ctx, sr); err != nil {
		return domain.StockReport{}, fmt.Errorf("saving stock report: %w", err)
	}
	slog.Info("stock report pushed", "ticker", sr.Ticker, "reports", len(sr.Data), "version", sr.Version)
	return sr, nil
}

// Append derives r against the last stored report of ticker and stores it at the end of
// the series. An unknown ticker starts a new series with r as its first report. The lookup
// of the previous report and the insert happen under one lock, so concurrent appends to the
// same ticker each derive against the report stored immediately before them.
func (s *Service) Append(ctx context.Context, ticker string, r domain.Report) (domain.Report, error) {
	ticker, err := NormalizeTicker(ticker)
	if err != nil {
		return domain.Report{}, err
	}

	var hasPrevious bool
	stored, version, err := s.repo.AppendWith(ctx, ticker, s.now().Unix(), func(prev *domain.Report) domain.Report {
		hasPrevious = prev != nil
		rep := r
		s.processor.DeriveReport(&rep, prev)
		return rep
	})
	if err != nil {
		return domain.Report{}, fmt.Errorf("appending report: %w", err)
	}
	slog.Info("report appended", "ticker", ticker, "year", stored.Year, "version", version, "hasPrevious", hasPrevious)
	return stored, nil
}

// Get retrieves the stored series of ticker.
func (s *Service) Get(ctx context.Context, ticker string) (*domain.StockReport, error) {
	return s.repo.Get(ctx, ticker)
}

// List retrieves every stored series.
func (s *Service) List(ctx context.Context) ([]domain.StockReport, error) {
	return s.repo.List(ctx)
}

// Tickers lists the tickers with a stored series.
func (s *Service) Tickers(ctx context.Context) ([]string, error) {
	return s.repo.ListTickers(ctx)
}

// Delete removes the stored series of ticker.
func (s *Service) Delete(ctx context.Context, ticker string) error {
	return s.repo.Delete(ctx, ticker)
}

// Rederive re-runs the derivation over the stored base figures of ticker and stores the result.
func (s *Service) Rederive(ctx context.Context, ticker string) (*domain.StockReport, error) {
	sr, err := s.repo.Get(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("getting stock report: %w", err)
	}

	s.processor.DeriveSeries(sr)

	if err := s.repo.Save(ctx, *sr); err != nil {
		return nil, fmt.Errorf("saving stock report: %w", err)
	}
	return sr, nil
}

// RederiveAll re-derives every stored series. Series are independent and run concurrently,
// at most concurrency at a time; each series is still derived in order.
// Returns the tickers that were re-derived.
func (s *Service) RederiveAll(ctx context.Context, concurrency int) ([]string, error) {
	tickers, err := s.repo.ListTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tickers: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for _, ticker := range tickers {
		g.Go(func() error {
			if _, err := s.Rederive(ctx, ticker); err != nil {
				return fmt.Errorf("rederiving %s: %w", ticker, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Info("stock reports rederived", "tickers", len(tickers))
	return tickers, nil
}
