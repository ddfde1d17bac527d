// Package importer reads annual report spreadsheets into a StockReport.
//
// The layout has one column per fiscal year and one row per base field:
//
//	PEP,2019,2020,2021
//	revenue,67161,70372,79474
//	total-cogs,30132,31797,37075
//	...
//
// The first header cell is the ticker. Years become reports in column order.
package importer

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/finreport/internal/domain"
)

// ErrEmptySheet is returned when the sheet has no header row.
var ErrEmptySheet = errors.New("sheet has no header row")

// ParseRows builds a StockReport with base fields only from a grid of cells.
func ParseRows(rows [][]string) (domain.StockReport, error) {
	rows = lo.Filter(rows, func(row []string, _ int) bool { return !blankRow(row) })
	if len(rows) == 0 {
		return domain.StockReport{}, ErrEmptySheet
	}

	header := rows[0]
	ticker := strings.TrimSpace(header[0])
	if ticker == "" {
		return domain.StockReport{}, errors.New("header: ticker cell is empty")
	}

	years, err := parseYears(header[1:])
	if err != nil {
		return domain.StockReport{}, err
	}

	reports := lo.Map(years, func(y int, _ int) domain.Report { return domain.Report{Year: y} })
	seen := make(map[string]bool)

	for i, row := range rows[1:] {
		line := i + 2
		key := strings.TrimSpace(row[0])
		if _, ok := domain.BaseFieldBlock(key); !ok {
			return domain.StockReport{}, fmt.Errorf("row %d: unknown key %q", line, key)
		}
		if seen[key] {
			return domain.StockReport{}, fmt.Errorf("row %d: duplicate key %q", line, key)
		}
		seen[key] = true

		for col := range reports {
			cell := ""
			if col+1 < len(row) {
				cell = row[col+1]
			}
			v, err := parseValue(cell)
			if err != nil {
				return domain.StockReport{}, fmt.Errorf("row %d (%s), year %d: %w", line, key, years[col], err)
			}
			if err := reports[col].SetBaseField(key, v); err != nil {
				return domain.StockReport{}, fmt.Errorf("row %d: %w", line, err)
			}
		}
	}

	allKeys := lo.Flatten(lo.Values(domain.BaseFieldKeys()))
	if missing := lo.Filter(allKeys, func(k string, _ int) bool { return !seen[k] }); len(missing) > 0 {
		return domain.StockReport{}, fmt.Errorf("missing base fields: %s", strings.Join(lo.Uniq(sorted(missing)), ", "))
	}

	return domain.StockReport{Ticker: ticker, Data: reports}, nil
}

func parseYears(cells []string) ([]int, error) {
	cells = lo.DropRightWhile(cells, func(c string) bool { return strings.TrimSpace(c) == "" })
	if len(cells) == 0 {
		return nil, errors.New("header: no year columns")
	}
	years := make([]int, 0, len(cells))
	for i, c := range cells {
		y, err := strconv.Atoi(strings.TrimSpace(c))
		if err != nil {
			return nil, fmt.Errorf("header column %d: invalid year %q", i+2, c)
		}
		years = append(years, y)
	}
	return years, nil
}

// parseValue parses a cell exactly before converting to float64, so that "0,1" and "0.1"
// land on the same Amount.
func parseValue(cell string) (domain.Amount, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, fmt.Errorf("empty value")
	}
	d, err := decimal.NewFromString(normalizeEuropeanDecimal(strings.ReplaceAll(cell, " ", "")))
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", cell)
	}
	return domain.Amount(d.InexactFloat64()), nil
}

// normalizeEuropeanDecimal converts European decimal format to standard format.
// "0,8" → "0.8", "1.234,56" → "1234.56", "1.5" → "1.5"
func normalizeEuropeanDecimal(s string) string {
	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")

	if hasComma && hasDot {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else if hasComma {
		s = strings.Replace(s, ",", ".", 1)
	}
	return s
}

func blankRow(row []string) bool {
	return lo.EveryBy(row, func(c string) bool { return strings.TrimSpace(c) == "" })
}

func sorted(keys []string) []string {
	out := append([]string(nil), keys...)
	slices.Sort(out)
	return out
}
