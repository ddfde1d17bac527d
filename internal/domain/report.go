package domain

import "time"

// Report is one fiscal year of a company's statements. The YoY blocks compare it with the
// report that preceded it in its series and are nil for the first report.
type Report struct {
	Year                 int                `json:"year"`
	IncomeStatement      IncomeStatement    `json:"income-statement"`
	IncomeStatementYoY   *IncomeStatement   `json:"income-statement-yoy"`
	BalanceSheet         BalanceSheet       `json:"balance-sheet"`
	BalanceSheetYoY      *BalanceSheet      `json:"balance-sheet-yoy"`
	CashFlowStatement    CashFlowStatement  `json:"cash-flow-statement"`
	CashFlowStatementYoY *CashFlowStatement `json:"cash-flow-statement-yoy"`
	FinancialRatios      FinancialRatios    `json:"financial-ratios"`
}

// StockReport is the series of annual reports of one ticker, oldest first.
type StockReport struct {
	LatestUpdate *int64   `json:"latest-update"`
	Ticker       string   `json:"ticker"`
	Version      int      `json:"version"`
	Data         []Report `json:"data"`
}

// Touch sets LatestUpdate to now when it is absent.
func (s *StockReport) Touch(now time.Time) {
	if s.LatestUpdate == nil {
		ts := now.Unix()
		s.LatestUpdate = &ts
	}
}

// Latest returns the last report of the series, or nil for an empty series.
func (s *StockReport) Latest() *Report {
	if len(s.Data) == 0 {
		return nil
	}
	return &s.Data[len(s.Data)-1]
}
