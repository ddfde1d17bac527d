package export

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/finreport/internal/domain"
)

// cellPrecision is the number of decimal places kept in exported cells.
const cellPrecision = 6

// Tab is one worksheet of an exported series: a header row followed by one row per field.
type Tab struct {
	Name string
	Rows [][]any
}

// BuildTabs renders a series as one tab per block, in wire order.
// Columns follow the order of sr.Data.
func BuildTabs(sr domain.StockReport) []Tab {
	return lo.Map(domain.Blocks, func(b domain.Block, _ int) Tab {
		return buildTab(sr, b)
	})
}

func buildTab(sr domain.StockReport, b domain.Block) Tab {
	header := make([]any, 0, len(sr.Data)+1)
	header = append(header, sr.Ticker)
	for _, r := range sr.Data {
		header = append(header, r.Year)
	}

	keys := domain.BlockKeys(b)
	rows := make([][]any, 0, len(keys)+1)
	rows = append(rows, header)

	for i, key := range keys {
		row := make([]any, 0, len(sr.Data)+1)
		row = append(row, key)
		for j := range sr.Data {
			fields := sr.Data[j].Fields(b)
			if fields == nil {
				row = append(row, nil)
				continue
			}
			row = append(row, cellValue(fields[i].Value))
		}
		rows = append(rows, row)
	}

	return Tab{Name: string(b), Rows: rows}
}

// cellValue returns nil for unset values, the wire literal for non-finite values and the
// rounded float otherwise.
func cellValue(v *domain.Amount) any {
	if v == nil {
		return nil
	}
	if !v.IsFinite() {
		return v.String()
	}
	return decimal.NewFromFloat(float64(*v)).Round(cellPrecision).InexactFloat64()
}
