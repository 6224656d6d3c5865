// Package roundtrip drives files through forward conversion, backward
// conversion and evaluation, and aggregates the resulting scores.
package roundtrip

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/FocuswithJustin/semroundtrip/core/convert"
	rterrors "github.com/FocuswithJustin/semroundtrip/core/errors"
	"github.com/FocuswithJustin/semroundtrip/core/passage"
)

// Injectable functions for testing
var osOpen = os.Open

// UnitWriter persists round-tripped units.
type UnitWriter interface {
	WritePassage(unitID string, p *passage.Passage) (string, error)
	WriteNative(unitID, ext string, lines []string) (string, error)
}

// Result is one unit after forward and backward conversion.
type Result struct {
	File    string
	Format  string
	UnitID  string
	Passage *passage.Passage

	// Guessed are the back-converted lines.
	Guessed []string

	// Reference are the original lines of the unit.
	Reference []string
}

// Exact reports whether the round trip reproduced the reference lines.
func (r *Result) Exact() bool {
	if len(r.Guessed) != len(r.Reference) {
		return false
	}
	for i := range r.Guessed {
		if r.Guessed[i] != r.Reference[i] {
			return false
		}
	}
	return true
}

// FormatOf returns the format identifier of path: its extension without
// the leading dot.
func FormatOf(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}

// Converter runs the forward and backward conversion of files.
type Converter struct {
	Registry *convert.Registry

	// Output receives unit files. Nil writes nothing.
	Output UnitWriter

	// Wikification is passed to every backward conversion.
	Wikification bool
}

// NewConverter returns a Converter dispatching through registry.
func NewConverter(registry *convert.Registry) *Converter {
	return &Converter{Registry: registry}
}

// WritesOutput reports whether units are persisted.
func (c *Converter) WritesOutput() bool {
	return c.Output != nil
}

// Convert yields the units of path one at a time. Each unit is written,
// back-converted and written again before the next one is read. The
// sequence stops at the first error; back-conversion failures are
// reported as BackConversionError.
func (c *Converter) Convert(ctx context.Context, path string) iter.Seq2[*Result, error] {
	return func(yield func(*Result, error) bool) {
		format := FormatOf(path)
		pair, used, ok := c.Registry.Lookup(format)
		if !ok {
			yield(nil, rterrors.NewValidation("format",
				fmt.Sprintf("no converter for %q and no default %q", format, used)))
			return
		}

		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return
		}

		f, err := osOpen(path)
		if err != nil {
			yield(nil, rterrors.NewIO("open", path, err))
			return
		}
		defer f.Close()

		opts := convert.FromOptions{PassageID: filepath.Base(path), ReturnOriginal: true}
		for unit, err := range pair.Forward.FromFormat(f, opts) {
			if err != nil {
				yield(nil, err)
				return
			}
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			res, err := c.roundTrip(path, format, pair.Backward, unit)
			if !yield(res, err) || err != nil {
				return
			}
		}
	}
}

func (c *Converter) roundTrip(path, format string, backward convert.Backward, unit *convert.Unit) (*Result, error) {
	unitID := unit.ID
	if unitID == "" && unit.Passage != nil {
		unitID = unit.Passage.ID
	}

	if c.Output != nil {
		if _, err := c.Output.WritePassage(unitID, unit.Passage); err != nil {
			return nil, err
		}
	}

	guessed, err := toFormat(backward, unit.Passage, convert.ToOptions{
		Wikification: c.Wikification,
		UseOriginal:  false,
	})
	if err != nil {
		return nil, rterrors.NewBackConversion(path, format, err)
	}

	if c.Output != nil {
		if _, err := c.Output.WriteNative(unitID, filepath.Ext(path), guessed); err != nil {
			return nil, err
		}
	}

	return &Result{
		File:      path,
		Format:    format,
		UnitID:    unitID,
		Passage:   unit.Passage,
		Guessed:   guessed,
		Reference: unit.Original,
	}, nil
}

// toFormat runs a backward conversion, reporting a panic as an error.
func toFormat(backward convert.Backward, p *passage.Passage, opts convert.ToOptions) (lines []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			lines, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return backward.ToFormat(p, opts)
}
