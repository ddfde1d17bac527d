package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/finreport/internal/domain"
)

// ErrNotFound indicates that the requested ticker has no stored reports.
var ErrNotFound = errors.New("stock report not found")

// BuildFunc produces the report to append from the last stored report of a series,
// or from nil when the series is empty.
type BuildFunc func(prev *domain.Report) domain.Report

// Repository defines persistent storage for derived report series.
type Repository interface {
	Save(ctx context.Context, s domain.StockReport) error
	AppendWith(ctx context.Context, ticker string, latestUpdate int64, build BuildFunc) (domain.Report, int, error)
	Get(ctx context.Context, ticker string) (*domain.StockReport, error)
	List(ctx context.Context) ([]domain.StockReport, error)
	ListTickers(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, ticker string) error
}

// PgRepository implements Repository with PostgreSQL. Each report is stored as a jsonb
// document; position keeps the order the series was supplied in.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL report repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Save replaces the stored series of s.Ticker with s.
func (r *PgRepository) Save(ctx context.Context, s domain.StockReport) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO stock_reports (ticker, version, latest_update, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (ticker)
		 DO UPDATE SET version = $2, latest_update = $3, updated_at = NOW()`,
		s.Ticker, s.Version, s.LatestUpdate)
	if err != nil {
		return fmt.Errorf("saving stock report %s: %w", s.Ticker, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM annual_reports WHERE ticker = $1`, s.Ticker); err != nil {
		return fmt.Errorf("clearing reports of %s: %w", s.Ticker, err)
	}

	batch := &pgx.Batch{}
	for i, rep := range s.Data {
		data, err := json.Marshal(rep)
		if err != nil {
			return fmt.Errorf("marshaling report %d of %s: %w", rep.Year, s.Ticker, err)
		}
		batch.Queue(
			`INSERT INTO annual_reports (ticker, position, year, data) VALUES ($1, $2, $3, $4::jsonb)`,
			s.Ticker, i, rep.Year, data)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting reports of %s: %w", s.Ticker, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing stock report %s: %w", s.Ticker, err)
	}
	return nil
}

// AppendWith stores the report returned by build after the last stored report of ticker,
// creating the ticker if needed. build receives that last report (nil for a new series) and
// runs while the ticker row is locked, so concurrent appends see each other in order.
// Returns the stored report and the new series version.
func (r *PgRepository) AppendWith(ctx context.Context, ticker string, latestUpdate int64, build BuildFunc) (domain.Report, int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Report{}, 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// The upsert takes the row lock on stock_reports before the previous report is read.
	var version int
	err = tx.QueryRow(ctx,
		`INSERT INTO stock_reports (ticker, version, latest_update, updated_at)
		 VALUES ($1, 1, $2, NOW())
		 ON CONFLICT (ticker)
		 DO UPDATE SET version = stock_reports.version + 1, latest_update = $2, updated_at = NOW()
		 RETURNING version`,
		ticker, latestUpdate).Scan(&version)
	if err != nil {
		return domain.Report{}, 0, fmt.Errorf("bumping version of %s: %w", ticker, err)
	}

	var prev *domain.Report
	row := tx.QueryRow(ctx,
		`SELECT data FROM annual_reports WHERE ticker = $1 ORDER BY position DESC LIMIT 1`, ticker)
	last, err := scanReport(row)
	switch {
	case err == nil:
		prev = &last
	case !errors.Is(err, pgx.ErrNoRows):
		return domain.Report{}, 0, fmt.Errorf("getting previous report of %s: %w", ticker, err)
	}

	rep := build(prev)
	data, err := json.Marshal(rep)
	if err != nil {
		return domain.Report{}, 0, fmt.Errorf("marshaling report %d of %s: %w", rep.Year, ticker, err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO annual_reports (ticker, position, year, data)
		 SELECT $1, COALESCE(MAX(position) + 1, 0), $2, $3::jsonb
		 FROM annual_reports WHERE ticker = $1`,
		ticker, rep.Year, data)
	if err != nil {
		return domain.Report{}, 0, fmt.Errorf("appending report %d of %s: %w", rep.Year, ticker, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Report{}, 0, fmt.Errorf("committing report %d of %s: %w", rep.Year, ticker, err)
	}
	return rep, version, nil
}

func (r *PgRepository) Get(ctx context.Context, ticker string) (*domain.StockReport, error) {
	var s domain.StockReport
	err := r.pool.QueryRow(ctx,
		`SELECT ticker, version, latest_update FROM stock_reports WHERE ticker = $1`,
		ticker).Scan(&s.Ticker, &s.Version, &s.LatestUpdate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting stock report %s: %w", ticker, err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT data FROM annual_reports WHERE ticker = $1 ORDER BY position`, ticker)
	if err != nil {
		return nil, fmt.Errorf("getting reports of %s: %w", ticker, err)
	}
	defer rows.Close()

	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		s.Data = append(s.Data, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reports of %s: %w", ticker, err)
	}
	return &s, nil
}

func (r *PgRepository) List(ctx context.Context) ([]domain.StockReport, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.ticker, s.version, s.latest_update, a.data
		 FROM stock_reports s
		 LEFT JOIN annual_reports a ON a.ticker = s.ticker
		 ORDER BY s.ticker, a.position`)
	if err != nil {
		return nil, fmt.Errorf("listing stock reports: %w", err)
	}
	defer rows.Close()

	var out []domain.StockReport
	for rows.Next() {
		var (
			s    domain.StockReport
			data []byte
		)
		if err := rows.Scan(&s.Ticker, &s.Version, &s.LatestUpdate, &data); err != nil {
			return nil, fmt.Errorf("scanning stock report: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].Ticker != s.Ticker {
			out = append(out, s)
		}
		if data == nil {
			continue
		}
		var rep domain.Report
		if err := json.Unmarshal(data, &rep); err != nil {
			return nil, fmt.Errorf("decoding report of %s: %w", s.Ticker, err)
		}
		last := &out[len(out)-1]
		last.Data = append(last.Data, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stock reports: %w", err)
	}
	return out, nil
}

func (r *PgRepository) ListTickers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT ticker FROM stock_reports ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("listing tickers: %w", err)
	}
	tickers, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collecting tickers: %w", err)
	}
	return tickers, nil
}

func (r *PgRepository) Delete(ctx context.Context, ticker string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM stock_reports WHERE ticker = $1`, ticker)
	if err != nil {
		return fmt.Errorf("deleting stock report %s: %w", ticker, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanReport(row pgx.Row) (domain.Report, error) {
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Report{}, err
		}
		return domain.Report{}, fmt.Errorf("scanning report: %w", err)
	}
	var rep domain.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return domain.Report{}, fmt.Errorf("decoding report: %w", err)
	}
	return rep, nil
}
