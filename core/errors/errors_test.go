package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestPatternNotFoundError(t *testing.T) {
	err := NewPatternNotFound("*.none")
	if got, want := err.Error(), "not found: *.none"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("PatternNotFoundError should unwrap to ErrNotFound")
	}

	t.Run("with cause", func(t *testing.T) {
		cause := fmt.Errorf("syntax error in pattern")
		err := &PatternNotFoundError{Pattern: "[", Err: cause}
		if got, want := err.Error(), "not found: [: syntax error in pattern"; got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
		if err.Unwrap() != cause {
			t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
		}
	})
}

func TestBackConversionError(t *testing.T) {
	cause := fmt.Errorf("dangling edge")
	err := NewBackConversion("doc1.fmtA", "fmtA", cause)
	if got, want := err.Error(), "error converting doc1.fmtA back from fmtA: dangling edge"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("BackConversionError should unwrap to its cause")
	}
}

func TestEvaluationError(t *testing.T) {
	cause := fmt.Errorf("unbalanced parentheses")
	err := NewEvaluation("doc1.amr", cause)
	if got, want := err.Error(), "error evaluating conversion of doc1.amr: unbalanced parentheses"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("EvaluationError should unwrap to its cause")
	}
}

func TestIOError(t *testing.T) {
	tests := []struct {
		name    string
		err     *IOError
		wantMsg string
	}{
		{
			name:    "with path",
			err:     NewIO("write", "/tmp/out/a.xml", fs.ErrPermission),
			wantMsg: "failed to write /tmp/out/a.xml: permission denied",
		},
		{
			name:    "without path",
			err:     NewIO("read", "", fs.ErrClosed),
			wantMsg: "failed to read: file already closed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, tt.err.Err) {
				t.Error("IOError should unwrap to its cause")
			}
		})
	}
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name    string
		err     *ParseError
		wantMsg string
	}{
		{
			name:    "with line",
			err:     NewParse("conllu", "doc.conllu", 7, "expected 10 columns"),
			wantMsg: "failed to parse conllu at doc.conllu:7: expected 10 columns",
		},
		{
			name:    "path only",
			err:     NewParse("amr", "doc.amr", 0, "unexpected token"),
			wantMsg: "failed to parse amr at doc.amr: unexpected token",
		},
		{
			name:    "bare",
			err:     NewParse("xml", "", 0, "no root"),
			wantMsg: "failed to parse xml: no root",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrInvalidInput) {
				t.Error("ParseError without cause should unwrap to ErrInvalidInput")
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidation("jobs", "must be positive")
	if got, want := err.Error(), "validation failed for jobs: must be positive"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	bare := &ValidationError{Message: "empty"}
	if got, want := bare.Error(), "validation failed: empty"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestKindOf(t *testing.T) {
	parse := NewParse("amr", "x.amr", 1, "bad")
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", fmt.Errorf("boom"), KindUnknown},
		{"pattern", NewPatternNotFound("*.none"), KindPatternNotFound},
		{"back conversion", NewBackConversion("a", "b", parse), KindBackConversion},
		{"evaluation", NewEvaluation("a", parse), KindEvaluation},
		{"io", NewIO("read", "a", fs.ErrNotExist), KindIO},
		{"parse", parse, KindParse},
		{"validation", NewValidation("f", "m"), KindValidation},
		{"wrapped", Wrap(NewEvaluation("a", parse), "run"), KindEvaluation},
		{"wrapf", Wrapf(NewIO("write", "p", fs.ErrPermission), "unit %d", 3), KindIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	if got := KindBackConversion.String(); got != "back-conversion" {
		t.Errorf("String() = %q", got)
	}
	if got := Kind(99).String(); got != "kind(99)" {
		t.Errorf("String() = %q", got)
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	if Wrapf(nil, "ctx %d", 1) != nil {
		t.Error("Wrapf(nil) should be nil")
	}
}

func TestIsAs(t *testing.T) {
	err := Wrap(NewBackConversion("f", "amr", fs.ErrInvalid), "outer")
	if !Is(err, fs.ErrInvalid) {
		t.Error("Is() should find the cause")
	}
	var bce *BackConversionError
	if !As(err, &bce) || bce.Format != "amr" {
		t.Errorf("As() = %v, %+v", As(err, &bce), bce)
	}
}
