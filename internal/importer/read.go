package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mtlprog/finreport/internal/domain"
)

// ReadCSV parses a comma separated sheet.
func ReadCSV(r io.Reader) (domain.StockReport, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return domain.StockReport{}, fmt.Errorf("reading csv: %w", err)
	}
	return ParseRows(rows)
}

// ReadXLSX parses a worksheet of an xlsx workbook. An empty sheet name selects the first sheet.
func ReadXLSX(r io.Reader, sheet string) (domain.StockReport, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return domain.StockReport{}, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return domain.StockReport{}, ErrEmptySheet
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return domain.StockReport{}, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	return ParseRows(rows)
}

// ReadFile parses a .csv or .xlsx file, choosing the format by extension.
func ReadFile(path, sheet string) (domain.StockReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.StockReport{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return ReadCSV(f)
	case ".xlsx", ".xlsm":
		return ReadXLSX(f, sheet)
	default:
		return domain.StockReport{}, fmt.Errorf("unsupported file type %q", ext)
	}
}
