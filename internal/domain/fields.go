package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
)

// Block names a statement block of a Report by its wire key.
type Block string

const (
	BlockIncomeStatement      Block = "income-statement"
	BlockIncomeStatementYoY   Block = "income-statement-yoy"
	BlockBalanceSheet         Block = "balance-sheet"
	BlockBalanceSheetYoY      Block = "balance-sheet-yoy"
	BlockCashFlowStatement    Block = "cash-flow-statement"
	BlockCashFlowStatementYoY Block = "cash-flow-statement-yoy"
	BlockFinancialRatios      Block = "financial-ratios"
)

// Blocks lists every block in wire order.
var Blocks = []Block{
	BlockIncomeStatement,
	BlockIncomeStatementYoY,
	BlockBalanceSheet,
	BlockBalanceSheetYoY,
	BlockCashFlowStatement,
	BlockCashFlowStatementYoY,
	BlockFinancialRatios,
}

// Field is one named figure of a block. Value points into the owning statement for base
// fields; for derived fields it is the statement's own pointer and nil until derived.
type Field struct {
	Key     string
	Value   *Amount
	Derived bool
}

// Fields returns the income statement fields in wire order.
func (s *IncomeStatement) Fields() []Field {
	return []Field{
		{Key: "revenue", Value: &s.Revenue},
		{Key: "total-cogs", Value: &s.TotalCOGS},
		{Key: "gross-profit", Value: s.GrossProfit, Derived: true},
		{Key: "gross-profit-margin", Value: s.GrossProfitMargin, Derived: true},
		{Key: "operating-expense", Value: &s.OperatingExpense},
		{Key: "operating-income", Value: s.OperatingIncome, Derived: true},
		{Key: "operating-profit-margin", Value: s.OperatingProfitMargin, Derived: true},
		{Key: "interest-expense", Value: &s.InterestExpense},
		{Key: "net-income", Value: &s.NetIncome},
		{Key: "net-profit-margin", Value: s.NetProfitMargin, Derived: true},
		{Key: "eps-basic", Value: &s.EPSBasic},
		{Key: "shares-outstanding-basic", Value: &s.SharesOutstandingBasic},
	}
}

// Fields returns the balance sheet fields in wire order.
func (s *BalanceSheet) Fields() []Field {
	return []Field{
		{Key: "cash-and-equivalents", Value: &s.CashAndEquivalents},
		{Key: "total-assets", Value: &s.TotalAssets},
		{Key: "short-term-debt", Value: &s.ShortTermDebt},
		{Key: "long-term-debt", Value: &s.LongTermDebt},
		{Key: "total-liabilities", Value: &s.TotalLiabilities},
		{Key: "total-debt", Value: s.TotalDebt, Derived: true},
		{Key: "total-equity", Value: s.TotalEquity, Derived: true},
		{Key: "debt-to-capital", Value: s.DebtToCapital, Derived: true},
	}
}

// Fields returns the cash-flow statement fields in wire order.
func (s *CashFlowStatement) Fields() []Field {
	return []Field{
		{Key: "operating-cash-flow", Value: &s.OperatingCashFlow},
		{Key: "investing-cash-flow", Value: &s.InvestingCashFlow},
		{Key: "capital-expenditure", Value: &s.CapitalExpenditure},
		{Key: "financing-cash-flow", Value: &s.FinancingCashFlow},
		{Key: "dividends-paid", Value: &s.DividendsPaid},
		{Key: "dividends-per-share", Value: &s.DividendsPerShare},
		{Key: "free-cash-flow", Value: s.FreeCashFlow, Derived: true},
		{Key: "fcf-per-share", Value: s.FCFPerShare, Derived: true},
	}
}

// Fields returns the financial ratio fields in wire order.
func (s *FinancialRatios) Fields() []Field {
	return []Field{
		{Key: "avg-share-price", Value: &s.AvgSharePrice},
		{Key: "avg-yield", Value: s.AvgYield, Derived: true},
		{Key: "dividend-growth-rate", Value: s.DividendGrowthRate, Derived: true},
		{Key: "eps-payout-ratio", Value: s.EPSPayoutRatio, Derived: true},
		{Key: "fcf-payout-ratio", Value: s.FCFPayoutRatio, Derived: true},
		{Key: "pe-ratio", Value: s.PERatio, Derived: true},
		{Key: "return-on-equity", Value: s.ReturnOnEquity, Derived: true},
		{Key: "price-to-ebit", Value: s.PriceToEBIT, Derived: true},
		{Key: "price-to-opcf", Value: s.PriceToOPCF, Derived: true},
		{Key: "price-to-fcf", Value: s.PriceToFCF, Derived: true},
	}
}

// NewIncomeStatement returns a zero income statement with its derived fields allocated,
// so every field can be written through Fields.
func NewIncomeStatement() *IncomeStatement {
	return &IncomeStatement{
		GrossProfit:           new(Amount),
		GrossProfitMargin:     new(Amount),
		OperatingIncome:       new(Amount),
		OperatingProfitMargin: new(Amount),
		NetProfitMargin:       new(Amount),
	}
}

// NewBalanceSheet returns a zero balance sheet with its derived fields allocated.
func NewBalanceSheet() *BalanceSheet {
	return &BalanceSheet{TotalDebt: new(Amount), TotalEquity: new(Amount), DebtToCapital: new(Amount)}
}

// NewCashFlowStatement returns a zero cash-flow statement with its derived fields allocated.
func NewCashFlowStatement() *CashFlowStatement {
	return &CashFlowStatement{FreeCashFlow: new(Amount), FCFPerShare: new(Amount)}
}

// Fields returns the fields of block b, or nil when r does not carry that block.
func (r *Report) Fields(b Block) []Field {
	switch b {
	case BlockIncomeStatement:
		return r.IncomeStatement.Fields()
	case BlockIncomeStatementYoY:
		if r.IncomeStatementYoY != nil {
			return r.IncomeStatementYoY.Fields()
		}
	case BlockBalanceSheet:
		return r.BalanceSheet.Fields()
	case BlockBalanceSheetYoY:
		if r.BalanceSheetYoY != nil {
			return r.BalanceSheetYoY.Fields()
		}
	case BlockCashFlowStatement:
		return r.CashFlowStatement.Fields()
	case BlockCashFlowStatementYoY:
		if r.CashFlowStatementYoY != nil {
			return r.CashFlowStatementYoY.Fields()
		}
	case BlockFinancialRatios:
		return r.FinancialRatios.Fields()
	}
	return nil
}

// BlockKeys returns the field keys of block b in wire order.
func BlockKeys(b Block) []string {
	var r Report
	r.IncomeStatementYoY = &IncomeStatement{}
	r.BalanceSheetYoY = &BalanceSheet{}
	r.CashFlowStatementYoY = &CashFlowStatement{}
	return lo.Map(r.Fields(b), func(f Field, _ int) string { return f.Key })
}

// baseBlocks are the blocks a caller supplies base fields for.
var baseBlocks = []Block{BlockIncomeStatement, BlockBalanceSheet, BlockCashFlowStatement, BlockFinancialRatios}

// BaseFieldKeys returns the base field keys grouped by block.
func BaseFieldKeys() map[Block][]string {
	var r Report
	return lo.SliceToMap(baseBlocks, func(b Block) (Block, []string) {
		return b, baseKeys(r.Fields(b))
	})
}

// BaseFieldBlock returns the block owning base field key.
func BaseFieldBlock(key string) (Block, bool) {
	for b, keys := range BaseFieldKeys() {
		if lo.Contains(keys, key) {
			return b, true
		}
	}
	return "", false
}

// SetBaseField assigns a base field of r by its wire key.
func (r *Report) SetBaseField(key string, v Amount) error {
	block, ok := BaseFieldBlock(key)
	if !ok {
		return fmt.Errorf("unknown base field %q", key)
	}
	field, _ := lo.Find(r.Fields(block), func(f Field) bool { return f.Key == key })
	*field.Value = v
	return nil
}

// MissingBaseFields lists the base fields absent from the JSON object of one report, each as
// "block.key". A null value counts as absent, and so does every field of a missing block.
func MissingBaseFields(data []byte) ([]string, error) {
	var blocks map[Block]json.RawMessage
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}

	var r Report
	var missing []string
	for _, b := range baseBlocks {
		var present map[string]json.RawMessage
		if raw, ok := blocks[b]; ok {
			if err := json.Unmarshal(raw, &present); err != nil {
				return nil, fmt.Errorf("decoding %s: %w", b, err)
			}
		}
		for _, key := range baseKeys(r.Fields(b)) {
			v, ok := present[key]
			if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
				missing = append(missing, string(b)+"."+key)
			}
		}
	}
	return missing, nil
}

func baseKeys(fields []Field) []string {
	return lo.FilterMap(fields, func(f Field, _ int) (string, bool) {
		return f.Key, !f.Derived
	})
}
