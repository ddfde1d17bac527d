package derive

import "github.com/mtlprog/finreport/internal/domain"

// testReport returns a report with every base field set; growth scales the figures so that
// consecutive test reports differ.
func testReport(year int, growth domain.Amount) domain.Report {
	return domain.Report{
		Year: year,
		IncomeStatement: domain.IncomeStatement{
			Revenue:                1000 * growth,
			TotalCOGS:              400 * growth,
			OperatingExpense:       200 * growth,
			InterestExpense:        20 * growth,
			NetIncome:              150 * growth,
			EPSBasic:               4 * growth,
			SharesOutstandingBasic: 50,
		},
		BalanceSheet: domain.BalanceSheet{
			CashAndEquivalents: 300 * growth,
			TotalAssets:        5000 * growth,
			ShortTermDebt:      100 * growth,
			LongTermDebt:       900 * growth,
			TotalLiabilities:   2000 * growth,
		},
		CashFlowStatement: domain.CashFlowStatement{
			OperatingCashFlow:  500 * growth,
			InvestingCashFlow:  -120 * growth,
			CapitalExpenditure: 150 * growth,
			FinancingCashFlow:  -80 * growth,
			DividendsPaid:      100 * growth,
			DividendsPerShare:  2 * growth,
		},
		FinancialRatios: domain.FinancialRatios{
			AvgSharePrice: 50 * growth,
		},
	}
}

func derivedReport(year int, growth domain.Amount) domain.Report {
	r := testReport(year, growth)
	NewProcessor().DeriveReport(&r, nil)
	return r
}
