package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Rederiver re-derives every stored series.
type Rederiver interface {
	RederiveAll(ctx context.Context, concurrency int) ([]string, error)
}

// AfterRederiveHook is called after each successful re-derivation run with the tickers
// that were re-derived.
type AfterRederiveHook interface {
	Export(ctx context.Context, tickers []string) error
}

// RederiveWorker re-derives every stored series on a cron schedule.
type RederiveWorker struct {
	rederiver   Rederiver
	schedule    cron.Schedule
	expr        string
	concurrency int
	hook        AfterRederiveHook // optional
}

// NewRederiveWorker creates a RederiveWorker. expr is a standard five-field cron expression
// or a descriptor such as "@daily" or "@every 6h".
func NewRederiveWorker(rederiver Rederiver, expr string, concurrency int, hook AfterRederiveHook) (*RederiveWorker, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("parsing rederive schedule %q: %w", expr, err)
	}
	return &RederiveWorker{
		rederiver:   rederiver,
		schedule:    schedule,
		expr:        expr,
		concurrency: concurrency,
		hook:        hook,
	}, nil
}

// runOnce re-derives everything and calls the hook if one is configured.
func (w *RederiveWorker) runOnce(ctx context.Context) {
	tickers, err := w.rederiver.RederiveAll(ctx, w.concurrency)
	if err != nil {
		slog.Error("RederiveWorker: rederivation failed", "error", err)
		return
	}
	slog.Info("RederiveWorker: rederivation completed", "tickers", len(tickers))

	if w.hook == nil {
		return
	}
	if err := w.hook.Export(ctx, tickers); err != nil {
		slog.Error("RederiveWorker: export hook failed", "error", err)
	} else {
		slog.Info("RederiveWorker: export hook completed")
	}
}

// Run re-derives once on startup, then on every scheduled tick. Overlapping ticks are
// skipped. It blocks until the context is cancelled and the running job has finished.
func (w *RederiveWorker) Run(ctx context.Context) {
	slog.Info("RederiveWorker: starting", "schedule", w.expr)

	w.runOnce(ctx)

	logger := cronLogger{}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	c.Schedule(w.schedule, cron.FuncJob(func() { w.runOnce(ctx) }))
	c.Start()

	<-ctx.Done()
	slog.Info("RederiveWorker: shutting down")
	<-c.Stop().Done()
}

// cronLogger routes cron's own logging to slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
