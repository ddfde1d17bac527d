package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// SheetsWriter implements Writer using the Google Sheets API. Every ticker gets one sheet
// per tab inside a single spreadsheet, titled "<ticker> <tab>".
type SheetsWriter struct {
	spreadsheetID string
	svc           *sheets.Service
}

// NewSheetsWriter creates a SheetsWriter authenticated with a service account JSON.
func NewSheetsWriter(ctx context.Context, spreadsheetID, credentialsJSON string) (*SheetsWriter, error) {
	creds, err := google.CredentialsFromJSON(
		ctx,
		[]byte(credentialsJSON),
		sheets.SpreadsheetsScope,
	)
	if err != nil {
		return nil, fmt.Errorf("parsing google credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &SheetsWriter{spreadsheetID: spreadsheetID, svc: svc}, nil
}

// Write ensures the ticker's sheets exist, then clears and rewrites them.
func (w *SheetsWriter) Write(ctx context.Context, ticker string, tabs []Tab) error {
	titles := lo.Map(tabs, func(t Tab, _ int) string { return sheetTitle(ticker, t.Name) })
	if err := w.ensureSheets(ctx, titles...); err != nil {
		return err
	}

	_, err := w.svc.Spreadsheets.Values.BatchClear(
		w.spreadsheetID,
		&sheets.BatchClearValuesRequest{
			Ranges: lo.Map(titles, func(t string, _ int) string { return quoteTitle(t) }),
		},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clearing sheets: %w", err)
	}

	data := make([]*sheets.ValueRange, 0, len(tabs))
	for i, tab := range tabs {
		data = append(data, &sheets.ValueRange{
			Range:  quoteTitle(titles[i]) + "!A1",
			Values: blankNils(tab.Rows),
		})
	}

	_, err = w.svc.Spreadsheets.Values.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateValuesRequest{
			ValueInputOption: "RAW",
			Data:             data,
		},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("writing sheets: %w", err)
	}

	return nil
}

// ensureSheets creates any of the named sheets that do not already exist.
func (w *SheetsWriter) ensureSheets(ctx context.Context, names ...string) error {
	spreadsheet, err := w.svc.Spreadsheets.Get(w.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("getting spreadsheet metadata: %w", err)
	}

	existing := lo.SliceToMap(spreadsheet.Sheets, func(s *sheets.Sheet) (string, bool) {
		return s.Properties.Title, true
	})

	requests := lo.FilterMap(names, func(name string, _ int) (*sheets.Request, bool) {
		return &sheets.Request{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: name},
			},
		}, !existing[name]
	})

	if len(requests) == 0 {
		return nil
	}

	_, err = w.svc.Spreadsheets.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: requests},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("creating sheets: %w", err)
	}

	return nil
}

func sheetTitle(ticker, tab string) string {
	return ticker + " " + tab
}

// quoteTitle quotes a sheet title for use in A1 notation.
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// blankNils replaces unset cells with empty strings; the API rejects null values in a row.
func blankNils(rows [][]any) [][]any {
	return lo.Map(rows, func(row []any, _ int) []any {
		return lo.Map(row, func(c any, _ int) any {
			if c == nil {
				return ""
			}
			return c
		})
	})
}
