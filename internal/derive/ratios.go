package derive

import "github.com/mtlprog/finreport/internal/domain"

// Statements are the already-derived statements of one report that the ratios read from.
type Statements struct {
	Income   *domain.IncomeStatement
	Balance  *domain.BalanceSheet
	CashFlow *domain.CashFlowStatement
}

// DeriveRatios fills the derived fields of ratios from cur. previous is the cash-flow
// statement of the preceding report, or nil for the first report of a series, in which
// case the dividend growth rate is cleared.
//
// Panics if a statement of cur was not derived first.
func DeriveRatios(ratios *domain.FinancialRatios, cur Statements, previous *domain.CashFlowStatement) {
	price := ratios.AvgSharePrice
	dps := cur.CashFlow.DividendsPerShare
	eps := cur.Income.EPSBasic
	fcf := mustDerived(cur.CashFlow.FreeCashFlow, "free-cash-flow")
	operatingIncome := mustDerived(cur.Income.OperatingIncome, "operating-income")
	totalEquity := mustDerived(cur.Balance.TotalEquity, "total-equity")

	ratios.AvgYield = (dps / price).Ptr()
	ratios.DividendGrowthRate = nil
	if previous != nil {
		ratios.DividendGrowthRate = (dps / previous.DividendsPerShare).Ptr()
	}
	ratios.EPSPayoutRatio = (dps / eps).Ptr()
	ratios.FCFPayoutRatio = (dps / fcf).Ptr()
	ratios.PERatio = (price / eps).Ptr()
	ratios.ReturnOnEquity = (cur.Income.NetIncome / totalEquity).Ptr()
	ratios.PriceToEBIT = (price / operatingIncome).Ptr()
	ratios.PriceToOPCF = (price / cur.CashFlow.OperatingCashFlow).Ptr()
	ratios.PriceToFCF = (price / fcf).Ptr()
}
