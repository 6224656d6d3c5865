package roundtrip

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/FocuswithJustin/semroundtrip/core/evaluation"
	"github.com/FocuswithJustin/semroundtrip/internal/logging"
	"github.com/FocuswithJustin/semroundtrip/internal/resolve"
)

// Outcome is an evaluated unit.
type Outcome struct {
	*Result
	Record evaluation.Record
}

// Observer is notified of a batch's progress. Calls are made from the
// goroutine running the batch, in file and unit order.
type Observer interface {
	// UnitEvaluated is called once per unit, after its record is collected.
	UnitEvaluated(o *Outcome) error

	// FileFinished is called after the last unit of a file.
	FileFinished(file, format string, units int) error

	// RunFinished is called once with the aggregate, or with the error that
	// aborted the run and a nil aggregate.
	RunFinished(agg *evaluation.Scores, runErr error) error
}

// Batch runs every file matched by a list of patterns through a round trip
// and prints the aggregated scores.
type Batch struct {
	Converter *Converter
	Evaluator *Evaluator

	// Out receives progress lines and score reports.
	Out io.Writer

	// Verbosity 1 prints every unit's scores; 2 and above also enables the
	// evaluators' detailed output.
	Verbosity int

	// Jobs bounds the number of files converted concurrently. Values below
	// 2 run files one at a time.
	Jobs int

	Observers []Observer

	// Resolve expands a pattern. Nil uses resolve.Resolve.
	Resolve func(pattern string) ([]string, error)

	collector Collector
	files     int
}

// fileRun holds what one file produced, for in-order replay.
type fileRun struct {
	console  bytes.Buffer
	outcomes []*Outcome
	format   string
	err      error
}

// Run processes patterns in order and returns the aggregate it printed.
// Observers are told how the run finished before anything is reported;
// an observer failure fails the run. Any error aborts the run before the
// aggregate is printed.
func (b *Batch) Run(ctx context.Context, patterns []string) (*evaluation.Scores, error) {
	start := time.Now()
	b.collector = Collector{}
	b.files = 0

	agg, err := b.run(ctx, patterns)

	for _, o := range b.Observers {
		if obsErr := o.RunFinished(agg, err); obsErr != nil && err == nil {
			err = obsErr
			agg = nil
		}
	}
	if err == nil {
		if err = b.report(agg); err != nil {
			agg = nil
		}
	}
	logging.RunFinished(b.files, b.collector.Len(), time.Since(start), err)
	return agg, err
}

func (b *Batch) run(ctx context.Context, patterns []string) (*evaluation.Scores, error) {
	resolveFn := b.Resolve
	if resolveFn == nil {
		resolveFn = resolve.Resolve
	}

	for _, pattern := range patterns {
		files, err := resolveFn(pattern)
		if err != nil {
			return nil, err
		}
		if b.Jobs > 1 && len(files) > 1 {
			err = b.runParallel(ctx, files)
		} else {
			err = b.runSequential(ctx, files)
		}
		if err != nil {
			return nil, err
		}
	}
	return b.collector.Aggregate(), nil
}

// report prints a blank line, the header when several records were
// shown, and the aggregate.
func (b *Batch) report(agg *evaluation.Scores) error {
	if _, err := fmt.Fprintln(b.Out); err != nil {
		return err
	}
	if b.Verbosity >= 1 && b.collector.Len() > 1 {
		if _, err := fmt.Fprintln(b.Out, "Aggregated scores:"); err != nil {
			return err
		}
	}
	return agg.Print(b.Out)
}

func (b *Batch) runSequential(ctx context.Context, files []string) error {
	for _, file := range files {
		var units int
		format, err := b.processFile(ctx, file, b.Out, b.Evaluator, func(o *Outcome) error {
			units++
			return b.commit(o)
		})
		if err != nil {
			return err
		}
		if err := b.finishFile(file, format, units); err != nil {
			return err
		}
	}
	return nil
}

// runParallel converts files concurrently, buffering each file's console
// output and outcomes, then replays them in file order. The first failure
// in file order wins; files after it are cancelled and discarded.
func (b *Batch) runParallel(ctx context.Context, files []string) error {
	runs := make([]*fileRun, len(files))
	cancels := make([]context.CancelFunc, len(files))
	fileCtxs := make([]context.Context, len(files))
	for i := range files {
		runs[i] = &fileRun{}
		fileCtxs[i], cancels[i] = context.WithCancel(ctx)
	}
	defer func() {
		for _, cancel := range cancels {
			cancel()
		}
	}()

	cancelAfter := func(i int) {
		for _, cancel := range cancels[i+1:] {
			cancel()
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(b.Jobs)
	for i, file := range files {
		run := runs[i]
		fileCtx := fileCtxs[i]
		g.Go(func() error {
			ev := *b.Evaluator
			ev.Out = &run.console
			run.format, run.err = b.processFile(fileCtx, file, &run.console, &ev, func(o *Outcome) error {
				run.outcomes = append(run.outcomes, o)
				return nil
			})
			if run.err != nil {
				cancelAfter(i)
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, run := range runs {
		if _, err := b.Out.Write(run.console.Bytes()); err != nil {
			return err
		}
		if run.err != nil {
			return run.err
		}
		for _, o := range run.outcomes {
			if err := b.commit(o); err != nil {
				return err
			}
		}
		if err := b.finishFile(files[i], run.format, len(run.outcomes)); err != nil {
			return err
		}
	}
	return nil
}

// processFile converts and evaluates every unit of file. Console output
// goes to out; each outcome is handed to emit in unit order.
func (b *Batch) processFile(ctx context.Context, file string, out io.Writer, ev *Evaluator, emit func(*Outcome) error) (string, error) {
	format := FormatOf(file)
	_, convUsed, _ := b.Converter.Registry.Lookup(format)
	_, evalUsed, _ := ev.Registry.Lookup(format)
	logging.FileConverting(file, format, convUsed, evalUsed)

	if _, err := fmt.Fprintf(out, "\rConverting '%s'", file); err != nil {
		return format, err
	}
	if b.Verbosity >= 1 || b.Converter.WritesOutput() {
		if _, err := fmt.Fprintln(out); err != nil {
			return format, err
		}
	}

	for res, err := range b.Converter.Convert(ctx, file) {
		if err != nil {
			return format, err
		}
		rec, err := ev.Evaluate(file, format, res.Guessed, res.Reference, b.Verbosity > 1)
		if err != nil {
			return format, err
		}
		if b.Verbosity >= 1 {
			if _, err := fmt.Fprintln(out, res.UnitID); err != nil {
				return format, err
			}
			if err := rec.Print(out); err != nil {
				return format, err
			}
		}
		if err := emit(&Outcome{Result: res, Record: rec}); err != nil {
			return format, err
		}
	}
	return format, nil
}

func (b *Batch) commit(o *Outcome) error {
	b.collector.Add(o.Record)
	for _, obs := range b.Observers {
		if err := obs.UnitEvaluated(o); err != nil {
			return err
		}
	}
	return nil
}

func (b *Batch) finishFile(file, format string, units int) error {
	b.files++
	for _, obs := range b.Observers {
		if err := obs.FileFinished(file, format, units); err != nil {
			return err
		}
	}
	return nil
}

// Records returns the records collected by the last run.
func (b *Batch) Records() []evaluation.Record {
	return b.collector.Records()
}
