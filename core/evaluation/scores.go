// Package evaluation defines score records, their aggregation, and the
// evaluator registry used to score round-tripped units.
package evaluation

import (
	"fmt"
	"io"
	"reflect"
	"slices"
	"strings"
)

// Counts are the raw tallies behind precision, recall and F1.
type Counts struct {
	Matched   int `json:"matched"`
	Guessed   int `json:"guessed"`
	Reference int `json:"reference"`
}

// Add returns the field-wise sum of c and o.
func (c Counts) Add(o Counts) Counts {
	return Counts{
		Matched:   c.Matched + o.Matched,
		Guessed:   c.Guessed + o.Guessed,
		Reference: c.Reference + o.Reference,
	}
}

// empty reports whether there was nothing to score on either side. Empty
// counts score 1: nothing was lost.
func (c Counts) empty() bool {
	return c.Guessed == 0 && c.Reference == 0
}

// Precision is Matched/Guessed.
func (c Counts) Precision() float64 {
	if c.empty() {
		return 1
	}
	if c.Guessed == 0 {
		return 0
	}
	return float64(c.Matched) / float64(c.Guessed)
}

// Recall is Matched/Reference.
func (c Counts) Recall() float64 {
	if c.empty() {
		return 1
	}
	if c.Reference == 0 {
		return 0
	}
	return float64(c.Matched) / float64(c.Reference)
}

// F1 is the harmonic mean of precision and recall.
func (c Counts) F1() float64 {
	p, r := c.Precision(), c.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// Field is a named set of counts.
type Field struct {
	Name   string `json:"name"`
	Counts Counts `json:"counts"`
}

// Record is the result of evaluating one unit.
type Record interface {
	// Print writes a human-readable rendering.
	Print(w io.Writer) error

	// Fields returns the comparable fields in display order.
	Fields() []Field
}

// Scores is the standard Record: an evaluator name and its fields.
type Scores struct {
	Name  string  `json:"name"`
	Items []Field `json:"fields"`

	// summary, when set, renders Print in place of the field table.
	summary Record
}

// NewScores creates an empty Scores for the named evaluator.
func NewScores(name string) *Scores {
	return &Scores{Name: name}
}

// Fields returns the fields in display order.
func (s *Scores) Fields() []Field {
	return s.Items
}

// Add merges counts into the named field, appending it if new.
func (s *Scores) Add(name string, c Counts) {
	for i := range s.Items {
		if s.Items[i].Name == name {
			s.Items[i].Counts = s.Items[i].Counts.Add(c)
			return
		}
	}
	s.Items = append(s.Items, Field{Name: name, Counts: c})
}

// Field returns the counts of the named field.
func (s *Scores) Field(name string) (Counts, bool) {
	for _, f := range s.Items {
		if f.Name == name {
			return f.Counts, true
		}
	}
	return Counts{}, false
}

// Print writes the scores as a small table.
func (s *Scores) Print(w io.Writer) error {
	if s.summary != nil {
		return s.summary.Print(w)
	}
	name := s.Name
	if name == "" {
		name = "none"
	}
	if _, err := fmt.Fprintf(w, "Evaluation type: %s\n", name); err != nil {
		return err
	}
	if len(s.Items) == 0 {
		_, err := fmt.Fprintln(w, "  (no units evaluated)")
		return err
	}

	width := 0
	for _, f := range s.Items {
		width = max(width, len(f.Name))
	}
	for _, f := range s.Items {
		c := f.Counts
		if _, err := fmt.Fprintf(w, "  %-*s  precision %.3f  recall %.3f  f1 %.3f  (matched %d, guessed %d, reference %d)\n",
			width, f.Name, c.Precision(), c.Recall(), c.F1(), c.Matched, c.Guessed, c.Reference); err != nil {
			return err
		}
	}
	return nil
}

// String returns the Print rendering.
func (s *Scores) String() string {
	var b strings.Builder
	_ = s.Print(&b)
	return b.String()
}

// Combiner is implemented by records that merge records of their own
// type. Aggregate hands such records their whole sequence so the summary
// is computed and printed by the metric itself.
type Combiner interface {
	Record
	Combine(records []Record) (Record, error)
}

// Aggregate combines records into a single Scores. Fields are merged by
// name in first-seen order by summing their counts, so ratios are
// recomputed from the merged counts rather than averaged. The result is
// named after the records' evaluator, or the distinct names joined by "+"
// when records come from different evaluators. Aggregating no records
// yields an empty, printable Scores.
//
// A single record prints exactly as itself. Records that all share one
// Combiner type print as that type's combination.
func Aggregate(records []Record) *Scores {
	agg := &Scores{}
	var names []string
	for _, r := range records {
		name := recordName(r)
		if name != "" && !slices.Contains(names, name) {
			names = append(names, name)
		}
		for _, f := range r.Fields() {
			agg.Add(f.Name, f.Counts)
		}
	}
	agg.Name = strings.Join(names, "+")

	switch {
	case len(records) == 1:
		agg.summary = records[0]
	case len(records) > 1 && sameType(records):
		if c, ok := records[0].(Combiner); ok {
			if combined, err := c.Combine(records); err == nil && combined != nil {
				agg.summary = combined
			}
		}
	}
	return agg
}

func sameType(records []Record) bool {
	first := reflect.TypeOf(records[0])
	for _, r := range records[1:] {
		if reflect.TypeOf(r) != first {
			return false
		}
	}
	return true
}

func recordName(r Record) string {
	if n, ok := r.(interface{ EvaluatorName() string }); ok {
		return n.EvaluatorName()
	}
	return ""
}

// EvaluatorName returns the evaluator that produced s.
func (s *Scores) EvaluatorName() string {
	return s.Name
}
