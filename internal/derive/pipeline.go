package derive

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/mtlprog/finreport/internal/domain"
)

// Step derives one part of a report. prev is the fully derived preceding report of the
// series, or nil for the first report.
type Step interface {
	Name() string
	Dependencies() []string
	Apply(cur, prev *domain.Report)
}

// Pipeline runs steps in dependency order.
type Pipeline struct {
	steps []Step
	names map[string]bool
}

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{names: make(map[string]bool)}
}

// Register adds a step to the pipeline.
// Panics if a step with the same name is already registered (programming error).
func (p *Pipeline) Register(step Step) {
	if p.names[step.Name()] {
		panic(fmt.Sprintf("duplicate derivation step %q registered", step.Name()))
	}
	p.names[step.Name()] = true
	p.steps = append(p.steps, step)
}

// Order returns the registered steps sorted so that dependencies come first.
// Returns an error for a dependency cycle or a dependency on an unregistered step.
func (p *Pipeline) Order() ([]Step, error) {
	byName := lo.KeyBy(p.steps, func(s Step) string { return s.Name() })

	visited := make(map[string]bool)
	inProgress := make(map[string]bool)
	var ordered []Step

	var visit func(s Step) error
	visit = func(s Step) error {
		if visited[s.Name()] {
			return nil
		}
		if inProgress[s.Name()] {
			return fmt.Errorf("dependency cycle detected involving step %q", s.Name())
		}
		inProgress[s.Name()] = true

		for _, dep := range s.Dependencies() {
			depStep, ok := byName[dep]
			if !ok {
				return fmt.Errorf("step %q depends on unregistered step %q", s.Name(), dep)
			}
			if err := visit(depStep); err != nil {
				return err
			}
		}

		delete(inProgress, s.Name())
		visited[s.Name()] = true
		ordered = append(ordered, s)
		return nil
	}

	for _, s := range p.steps {
		if err := visit(s); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

type incomeStep struct{}

func (incomeStep) Name() string           { return "income-statement" }
func (incomeStep) Dependencies() []string { return nil }
func (incomeStep) Apply(cur, _ *domain.Report) {
	DeriveIncomeStatement(&cur.IncomeStatement)
}

type balanceStep struct{}

func (balanceStep) Name() string           { return "balance-sheet" }
func (balanceStep) Dependencies() []string { return nil }
func (balanceStep) Apply(cur, _ *domain.Report) {
	DeriveBalanceSheet(&cur.BalanceSheet)
}

type cashFlowStep struct{}

func (cashFlowStep) Name() string           { return "cash-flow-statement" }
func (cashFlowStep) Dependencies() []string { return []string{"income-statement"} }
func (cashFlowStep) Apply(cur, _ *domain.Report) {
	DeriveCashFlowStatement(&cur.CashFlowStatement, cur.IncomeStatement.SharesOutstandingBasic)
}

type ratiosStep struct{}

func (ratiosStep) Name() string { return "financial-ratios" }
func (ratiosStep) Dependencies() []string {
	return []string{"income-statement", "balance-sheet", "cash-flow-statement"}
}
func (ratiosStep) Apply(cur, prev *domain.Report) {
	var prevCashFlow *domain.CashFlowStatement
	if prev != nil {
		prevCashFlow = &prev.CashFlowStatement
	}
	DeriveRatios(&cur.FinancialRatios, Statements{
		Income:   &cur.IncomeStatement,
		Balance:  &cur.BalanceSheet,
		CashFlow: &cur.CashFlowStatement,
	}, prevCashFlow)
}

type yoyStep struct{}

func (yoyStep) Name() string { return "year-over-year" }
func (yoyStep) Dependencies() []string {
	return []string{"income-statement", "balance-sheet", "cash-flow-statement"}
}
func (yoyStep) Apply(cur, prev *domain.Report) {
	if prev == nil {
		cur.IncomeStatementYoY = nil
		cur.BalanceSheetYoY = nil
		cur.CashFlowStatementYoY = nil
		return
	}
	cur.IncomeStatementYoY = IncomeStatementYoY(&cur.IncomeStatement, &prev.IncomeStatement)
	cur.BalanceSheetYoY = BalanceSheetYoY(&cur.BalanceSheet, &prev.BalanceSheet)
	cur.CashFlowStatementYoY = CashFlowStatementYoY(&cur.CashFlowStatement, &prev.CashFlowStatement)
}
