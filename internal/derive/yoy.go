package derive

import (
	"fmt"

	"github.com/mtlprog/finreport/internal/domain"
)

// growth is the fractional change used by the income statement and balance sheet.
func growth(cur, prev domain.Amount) domain.Amount {
	return cur/prev - 1.0
}

// ratio is the plain quotient used by the cash-flow statement. Unlike growth it has no
// -1 offset; stored cash-flow comparisons have always been quotients.
func ratio(cur, prev domain.Amount) domain.Amount {
	return cur / prev
}

// mustDerived dereferences a derived field. A nil value means the owning statement was
// never derived, which only happens when reports are processed out of order.
func mustDerived(v *domain.Amount, key string) domain.Amount {
	if v == nil {
		panic(fmt.Sprintf("derive: statement not derived: %s is unset", key))
	}
	return *v
}

// compareInto writes op of every field pair of cur and prev through the matching field of dst.
// All three must be fields of the same block with every value allocated on dst.
func compareInto(dst, cur, prev []domain.Field, op func(cur, prev domain.Amount) domain.Amount) {
	for i, f := range dst {
		c := mustDerived(cur[i].Value, "current "+cur[i].Key)
		p := mustDerived(prev[i].Value, "previous "+prev[i].Key)
		*f.Value = op(c, p)
	}
}

// IncomeStatementYoY returns the fractional change of every field from prev to cur.
// Both statements must be derived.
func IncomeStatementYoY(cur, prev *domain.IncomeStatement) *domain.IncomeStatement {
	out := domain.NewIncomeStatement()
	compareInto(out.Fields(), cur.Fields(), prev.Fields(), growth)
	return out
}

// BalanceSheetYoY returns the fractional change of every field from prev to cur.
// Both statements must be derived.
func BalanceSheetYoY(cur, prev *domain.BalanceSheet) *domain.BalanceSheet {
	out := domain.NewBalanceSheet()
	compareInto(out.Fields(), cur.Fields(), prev.Fields(), growth)
	return out
}

// CashFlowStatementYoY returns cur divided by prev for every field.
// Both statements must be derived.
func CashFlowStatementYoY(cur, prev *domain.CashFlowStatement) *domain.CashFlowStatement {
	out := domain.NewCashFlowStatement()
	compareInto(out.Fields(), cur.Fields(), prev.Fields(), ratio)
	return out
}
