package evaluation

import (
	"io"
	"sort"
)

// DefaultFormat is the format whose evaluator scores any identifier that
// has no evaluator of its own. It is looked up independently of the
// converter registry's default.
const DefaultFormat = "amr"

// Options configures a single evaluation.
type Options struct {
	// Verbose asks the evaluator to write per-item diagnostics to Out.
	// It never changes the returned scores.
	Verbose bool

	// Out receives diagnostics. Nil discards them.
	Out io.Writer
}

// Writer returns Out, or io.Discard when Out is nil or Verbose is off.
func (o Options) Writer() io.Writer {
	if !o.Verbose || o.Out == nil {
		return io.Discard
	}
	return o.Out
}

// Evaluator scores guessed lines against reference lines.
type Evaluator interface {
	Evaluate(guessed, reference []string, opts Options) (Record, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(guessed, reference []string, opts Options) (Record, error)

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(guessed, reference []string, opts Options) (Record, error) {
	return f(guessed, reference, opts)
}

// Registry maps format identifiers to evaluators.
type Registry struct {
	evaluators    map[string]Evaluator
	defaultFormat string
}

// NewRegistry creates an empty registry that falls back to defaultFormat.
func NewRegistry(defaultFormat string) *Registry {
	return &Registry{
		evaluators:    make(map[string]Evaluator),
		defaultFormat: defaultFormat,
	}
}

// Register binds format to e, replacing any previous binding.
func (r *Registry) Register(format string, e Evaluator) {
	r.evaluators[format] = e
}

// Lookup returns the evaluator for format, falling back to the default
// format. The second result is the identifier actually used; ok is false
// only when neither is registered.
func (r *Registry) Lookup(format string) (e Evaluator, used string, ok bool) {
	if e, found := r.evaluators[format]; found {
		return e, format, true
	}
	e, found := r.evaluators[r.defaultFormat]
	return e, r.defaultFormat, found
}

// Default returns the fallback format identifier.
func (r *Registry) Default() string {
	return r.defaultFormat
}

// Formats returns the registered identifiers, sorted.
func (r *Registry) Formats() []string {
	formats := make([]string, 0, len(r.evaluators))
	for f := range r.evaluators {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}
