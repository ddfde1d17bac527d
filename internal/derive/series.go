package derive

import (
	"fmt"

	"github.com/mtlprog/finreport/internal/domain"
)

// Processor derives every figure of the reports of a series.
// A Processor holds no per-series state and is safe for concurrent use across series.
type Processor struct {
	steps []Step
}

// NewProcessor creates a Processor running the statement, ratio and year-over-year steps.
func NewProcessor() *Processor {
	pipeline := NewPipeline()
	pipeline.Register(ratiosStep{})
	pipeline.Register(yoyStep{})
	pipeline.Register(cashFlowStep{})
	pipeline.Register(incomeStep{})
	pipeline.Register(balanceStep{})

	p, err := NewProcessorWithPipeline(pipeline)
	if err != nil {
		panic(fmt.Sprintf("derive: default pipeline: %v", err))
	}
	return p
}

// NewProcessorWithPipeline creates a Processor running the steps of pipeline.
func NewProcessorWithPipeline(pipeline *Pipeline) (*Processor, error) {
	steps, err := pipeline.Order()
	if err != nil {
		return nil, fmt.Errorf("ordering derivation steps: %w", err)
	}
	return &Processor{steps: steps}, nil
}

// DeriveReport derives cur in place against prev, the fully derived report preceding it,
// or nil when cur is the first report of its series. This is also the entry point for a
// report appended to an already stored series.
//
// Panics if prev is non-nil and was not derived.
func (p *Processor) DeriveReport(cur, prev *domain.Report) {
	for _, step := range p.steps {
		step.Apply(cur, prev)
	}
}

// DeriveSeries derives the reports of s in the order they are stored. The order is trusted
// as chronological; reports are not sorted by year.
func (p *Processor) DeriveSeries(s *domain.StockReport) {
	var prev *domain.Report
	for i := range s.Data {
		cur := &s.Data[i]
		p.DeriveReport(cur, prev)
		prev = cur
	}
}
