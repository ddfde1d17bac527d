package export

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXWriter implements Writer by saving one workbook per ticker into a directory.
type XLSXWriter struct {
	dir string
}

// NewXLSXWriter creates an XLSXWriter writing into dir.
func NewXLSXWriter(dir string) *XLSXWriter {
	return &XLSXWriter{dir: dir}
}

// Path returns the workbook path for ticker. A ticker that would name a file outside the
// directory is rejected.
func (w *XLSXWriter) Path(ticker string) (string, error) {
	name := ticker + ".xlsx"
	if ticker == "" || strings.ContainsAny(ticker, `/\`) || !filepath.IsLocal(name) || filepath.Base(name) != name {
		return "", fmt.Errorf("unsafe ticker for a file name: %q", ticker)
	}
	return filepath.Join(w.dir, name), nil
}

// Write replaces the ticker's workbook with one sheet per tab.
func (w *XLSXWriter) Write(ctx context.Context, ticker string, tabs []Tab) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := w.Path(ticker)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	for i, tab := range tabs {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), tab.Name); err != nil {
				return fmt.Errorf("renaming first sheet: %w", err)
			}
		} else if _, err := f.NewSheet(tab.Name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", tab.Name, err)
		}

		if err := writeRows(f, tab); err != nil {
			return err
		}
		if err := f.SetRowStyle(tab.Name, 1, 1, headerStyle); err != nil {
			return fmt.Errorf("styling sheet %s: %w", tab.Name, err)
		}
		if err := f.SetColWidth(tab.Name, "A", "A", 26); err != nil {
			return fmt.Errorf("sizing sheet %s: %w", tab.Name, err)
		}
		if err := f.SetPanes(tab.Name, &excelize.Panes{
			Freeze:      true,
			XSplit:      1,
			YSplit:      1,
			TopLeftCell: "B2",
			ActivePane:  "bottomRight",
		}); err != nil {
			return fmt.Errorf("freezing sheet %s: %w", tab.Name, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func writeRows(f *excelize.File, tab Tab) error {
	for i, row := range tab.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(tab.Name, cell, &row); err != nil {
			return fmt.Errorf("writing sheet %s row %d: %w", tab.Name, i+1, err)
		}
	}
	return nil
}
