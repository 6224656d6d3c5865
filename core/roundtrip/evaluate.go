package roundtrip

import (
	"fmt"
	"io"

	rterrors "github.com/FocuswithJustin/semroundtrip/core/errors"
	"github.com/FocuswithJustin/semroundtrip/core/evaluation"
)

// Evaluator scores round-tripped units. Its registry is consulted
// independently of the converter registry.
type Evaluator struct {
	Registry *evaluation.Registry

	// Out receives detailed evaluator output in verbose mode.
	Out io.Writer
}

// NewEvaluator returns an Evaluator dispatching through registry.
func NewEvaluator(registry *evaluation.Registry, out io.Writer) *Evaluator {
	return &Evaluator{Registry: registry, Out: out}
}

// Evaluate scores guessed against reference with the evaluator registered
// for format. Failures are reported as EvaluationError naming file.
// verbose only controls detailed output, never the score.
func (e *Evaluator) Evaluate(file, format string, guessed, reference []string, verbose bool) (evaluation.Record, error) {
	ev, used, ok := e.Registry.Lookup(format)
	if !ok {
		return nil, rterrors.NewEvaluation(file,
			fmt.Errorf("no evaluator for %q and no default %q: %w", format, used, rterrors.ErrNotFound))
	}
	rec, err := evaluate(ev, guessed, reference, evaluation.Options{Verbose: verbose, Out: e.Out})
	if err != nil {
		return nil, rterrors.NewEvaluation(file, err)
	}
	if rec == nil {
		return nil, rterrors.NewEvaluation(file, fmt.Errorf("evaluator %q returned no scores", used))
	}
	return rec, nil
}

// evaluate runs an evaluator, reporting a panic as an error.
func evaluate(ev evaluation.Evaluator, guessed, reference []string, opts evaluation.Options) (rec evaluation.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return ev.Evaluate(guessed, reference, opts)
}

// Collector accumulates records in the order they were produced.
type Collector struct {
	records []evaluation.Record
}

// Add appends a record.
func (c *Collector) Add(r evaluation.Record) {
	c.records = append(c.records, r)
}

// Len returns the number of records.
func (c *Collector) Len() int {
	return len(c.records)
}

// Records returns the collected records in order.
func (c *Collector) Records() []evaluation.Record {
	return c.records
}

// Aggregate combines all records. It is valid on an empty collector.
func (c *Collector) Aggregate() *evaluation.Scores {
	return evaluation.Aggregate(c.records)
}
