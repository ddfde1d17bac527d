package derive

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/finreport/internal/domain"
)

type fakeStep struct {
	name string
	deps []string
	ran  *[]string
}

func (s fakeStep) Name() string           { return s.name }
func (s fakeStep) Dependencies() []string { return s.deps }
func (s fakeStep) Apply(_, _ *domain.Report) {
	*s.ran = append(*s.ran, s.name)
}

func TestPipelineOrdersDependenciesFirst(t *testing.T) {
	p := NewPipeline()
	p.Register(ratiosStep{})
	p.Register(yoyStep{})
	p.Register(cashFlowStep{})
	p.Register(balanceStep{})
	p.Register(incomeStep{})

	steps, err := p.Order()
	require.NoError(t, err)

	names := lo.Map(steps, func(s Step, _ int) string { return s.Name() })
	pos := func(name string) int { return lo.IndexOf(names, name) }
	assert.Less(t, pos("income-statement"), pos("cash-flow-statement"))
	assert.Less(t, pos("cash-flow-statement"), pos("financial-ratios"))
	assert.Less(t, pos("balance-sheet"), pos("financial-ratios"))
	assert.Less(t, pos("cash-flow-statement"), pos("year-over-year"))
	assert.Len(t, names, 5)
}

func TestPipelineCycle(t *testing.T) {
	var ran []string
	p := NewPipeline()
	p.Register(fakeStep{name: "a", deps: []string{"b"}, ran: &ran})
	p.Register(fakeStep{name: "b", deps: []string{"a"}, ran: &ran})

	_, err := p.Order()
	assert.ErrorContains(t, err, "dependency cycle")

	_, err = NewProcessorWithPipeline(p)
	assert.Error(t, err)
}

func TestPipelineUnknownDependency(t *testing.T) {
	var ran []string
	p := NewPipeline()
	p.Register(fakeStep{name: "a", deps: []string{"missing"}, ran: &ran})

	_, err := p.Order()
	assert.ErrorContains(t, err, `unregistered step "missing"`)
}

func TestPipelineDuplicatePanics(t *testing.T) {
	p := NewPipeline()
	p.Register(incomeStep{})

	assert.Panics(t, func() { p.Register(incomeStep{}) })
}

func TestProcessorRunsCustomPipeline(t *testing.T) {
	var ran []string
	p := NewPipeline()
	p.Register(fakeStep{name: "late", deps: []string{"early"}, ran: &ran})
	p.Register(fakeStep{name: "early", ran: &ran})

	proc, err := NewProcessorWithPipeline(p)
	require.NoError(t, err)

	s := domain.StockReport{Data: []domain.Report{{Year: 1}, {Year: 2}}}
	proc.DeriveSeries(&s)

	assert.Equal(t, []string{"early", "late", "early", "late"}, ran)
}
