// Package convert defines the contract between the round-trip harness and
// format converters, and the registry that dispatches on format identifiers.
package convert

import (
	"io"
	"iter"
	"sort"

	"github.com/FocuswithJustin/semroundtrip/core/passage"
)

// DefaultFormat is the format whose converters handle any identifier that
// has no registration of its own.
const DefaultFormat = "amr"

// Unit is one annotated unit produced by a forward converter.
type Unit struct {
	// Passage is the unified representation of the unit.
	Passage *passage.Passage

	// Original holds the unit's native lines exactly as read, when requested.
	Original []string

	// ID is the unit identifier, derived from the base identifier.
	ID string
}

// FromOptions configures forward conversion.
type FromOptions struct {
	// PassageID is the base identifier units derive their IDs from.
	PassageID string

	// ReturnOriginal requests that each Unit carries its original lines.
	ReturnOriginal bool
}

// ToOptions configures backward conversion.
type ToOptions struct {
	// Wikification asks the converter to add wiki links to named entities.
	Wikification bool

	// UseOriginal lets a converter copy original text it kept on the passage
	// instead of regenerating it. The harness always sets it to false.
	UseOriginal bool
}

// Forward converts native text into passages.
type Forward interface {
	// FromFormat yields units in order of appearance. The sequence is
	// single-pass; iteration stops at the first error.
	FromFormat(r io.Reader, opts FromOptions) iter.Seq2[*Unit, error]
}

// Backward converts a passage into native lines.
type Backward interface {
	ToFormat(p *passage.Passage, opts ToOptions) ([]string, error)
}

// ForwardFunc adapts a function to the Forward interface.
type ForwardFunc func(r io.Reader, opts FromOptions) iter.Seq2[*Unit, error]

// FromFormat calls f.
func (f ForwardFunc) FromFormat(r io.Reader, opts FromOptions) iter.Seq2[*Unit, error] {
	return f(r, opts)
}

// BackwardFunc adapts a function to the Backward interface.
type BackwardFunc func(p *passage.Passage, opts ToOptions) ([]string, error)

// ToFormat calls f.
func (f BackwardFunc) ToFormat(p *passage.Passage, opts ToOptions) ([]string, error) {
	return f(p, opts)
}

// Pair is the converter pair for one format.
type Pair struct {
	Forward  Forward
	Backward Backward
}

// Registry maps format identifiers to converter pairs.
type Registry struct {
	pairs         map[string]Pair
	defaultFormat string
}

// NewRegistry creates an empty registry that falls back to defaultFormat.
func NewRegistry(defaultFormat string) *Registry {
	return &Registry{
		pairs:         make(map[string]Pair),
		defaultFormat: defaultFormat,
	}
}

// Register binds format to pair, replacing any previous binding.
func (r *Registry) Register(format string, pair Pair) {
	r.pairs[format] = pair
}

// Lookup returns the pair for format, or the default format's pair when
// format is not registered. The second result is the identifier actually
// used; ok is false only when neither format nor the default is registered.
func (r *Registry) Lookup(format string) (pair Pair, used string, ok bool) {
	if p, found := r.pairs[format]; found {
		return p, format, true
	}
	p, found := r.pairs[r.defaultFormat]
	return p, r.defaultFormat, found
}

// Default returns the fallback format identifier.
func (r *Registry) Default() string {
	return r.defaultFormat
}

// Formats returns the registered identifiers, sorted.
func (r *Registry) Formats() []string {
	formats := make([]string, 0, len(r.pairs))
	for f := range r.pairs {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}
