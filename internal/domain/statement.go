package domain

// IncomeStatement holds the reported income figures of one fiscal year.
// Pointer fields are derived and stay nil until the statement has been derived.
type IncomeStatement struct {
	Revenue                Amount  `json:"revenue"`
	TotalCOGS              Amount  `json:"total-cogs"`
	GrossProfit            *Amount `json:"gross-profit"`
	GrossProfitMargin      *Amount `json:"gross-profit-margin"`
	OperatingExpense       Amount  `json:"operating-expense"`
	OperatingIncome        *Amount `json:"operating-income"`
	OperatingProfitMargin  *Amount `json:"operating-profit-margin"`
	InterestExpense        Amount  `json:"interest-expense"`
	NetIncome              Amount  `json:"net-income"`
	NetProfitMargin        *Amount `json:"net-profit-margin"`
	EPSBasic               Amount  `json:"eps-basic"`
	SharesOutstandingBasic Amount  `json:"shares-outstanding-basic"`
}

// BalanceSheet holds the reported balance sheet figures of one fiscal year.
type BalanceSheet struct {
	CashAndEquivalents Amount  `json:"cash-and-equivalents"`
	TotalAssets        Amount  `json:"total-assets"`
	ShortTermDebt      Amount  `json:"short-term-debt"`
	LongTermDebt       Amount  `json:"long-term-debt"`
	TotalLiabilities   Amount  `json:"total-liabilities"`
	TotalDebt          *Amount `json:"total-debt"`
	TotalEquity        *Amount `json:"total-equity"`
	DebtToCapital      *Amount `json:"debt-to-capital"`
}

// CashFlowStatement holds the reported cash flows of one fiscal year.
type CashFlowStatement struct {
	OperatingCashFlow  Amount  `json:"operating-cash-flow"`
	InvestingCashFlow  Amount  `json:"investing-cash-flow"`
	CapitalExpenditure Amount  `json:"capital-expenditure"`
	FinancingCashFlow  Amount  `json:"financing-cash-flow"`
	DividendsPaid      Amount  `json:"dividends-paid"`
	DividendsPerShare  Amount  `json:"dividends-per-share"`
	FreeCashFlow       *Amount `json:"free-cash-flow"`
	FCFPerShare        *Amount `json:"fcf-per-share"`
}

// FinancialRatios holds market ratios. Only the average share price is reported;
// everything else is derived from the sibling statements.
type FinancialRatios struct {
	AvgSharePrice      Amount  `json:"avg-share-price"`
	AvgYield           *Amount `json:"avg-yield"`
	DividendGrowthRate *Amount `json:"dividend-growth-rate"`
	EPSPayoutRatio     *Amount `json:"eps-payout-ratio"`
	FCFPayoutRatio     *Amount `json:"fcf-payout-ratio"`
	PERatio            *Amount `json:"pe-ratio"`
	ReturnOnEquity     *Amount `json:"return-on-equity"`
	PriceToEBIT        *Amount `json:"price-to-ebit"`
	PriceToOPCF        *Amount `json:"price-to-opcf"`
	PriceToFCF         *Amount `json:"price-to-fcf"`
}
