package roundtrip

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/FocuswithJustin/semroundtrip/core/convert"
	rterrors "github.com/FocuswithJustin/semroundtrip/core/errors"
	"github.com/FocuswithJustin/semroundtrip/core/evaluation"
	"github.com/FocuswithJustin/semroundtrip/core/passage"
	"github.com/FocuswithJustin/semroundtrip/internal/output"
)

// lineForward yields one unit per blank-line separated block, with one
// terminal per line.
func lineForward() convert.Forward {
	return convert.ForwardFunc(func(r io.Reader, opts convert.FromOptions) iter.Seq2[*convert.Unit, error] {
		return func(yield func(*convert.Unit, error) bool) {
			scanner := bufio.NewScanner(r)
			var block []string
			n := 0
			flush := func() bool {
				if len(block) == 0 {
					return true
				}
				id := fmt.Sprintf("%s#%d", opts.PassageID, n)
				n++
				p := passage.New(id)
				for _, line := range block {
					p.AddTerminal(line)
				}
				u := &convert.Unit{Passage: p, ID: id}
				if opts.ReturnOriginal {
					u.Original = block
				}
				block = nil
				return yield(u, nil)
			}
			for scanner.Scan() {
				if line := scanner.Text(); line != "" {
					block = append(block, line)
					continue
				}
				if !flush() {
					return
				}
			}
			if err := scanner.Err(); err != nil {
				yield(nil, err)
				return
			}
			flush()
		}
	})
}

// lineBackward emits the terminal texts, failing on a terminal "FAIL".
// With wikification every line gets a " [wiki]" suffix.
func lineBackward() convert.Backward {
	return convert.BackwardFunc(func(p *passage.Passage, opts convert.ToOptions) ([]string, error) {
		var lines []string
		for _, t := range p.Terminals {
			if t.Text == "FAIL" {
				return nil, errors.New("cannot render FAIL")
			}
			line := t.Text
			if opts.Wikification {
				line += " [wiki]"
			}
			lines = append(lines, line)
		}
		return lines, nil
	})
}

type evalCall struct {
	name    string
	guessed []string
	verbose bool
	hasOut  bool
}

type callLog struct {
	mu    sync.Mutex
	calls []evalCall
}

func (l *callLog) add(c evalCall) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, c)
}

// lineEvaluator matches lines and records its calls.
func lineEvaluator(name string, log *callLog) evaluation.Evaluator {
	return evaluation.EvaluatorFunc(func(guessed, reference []string, opts evaluation.Options) (evaluation.Record, error) {
		log.add(evalCall{name: name, guessed: guessed, verbose: opts.Verbose, hasOut: opts.Out != nil})
		for _, g := range guessed {
			if g == "EVALFAIL" {
				return nil, errors.New("unscorable line")
			}
		}
		c, missing, spurious := evaluation.Match(guessed, reference)
		evaluation.PrintDiff(opts.Writer(), "lines", missing, spurious)
		s := evaluation.NewScores(name)
		s.Add("lines", c)
		return s, nil
	})
}

type fixture struct {
	dir       string
	convs     *convert.Registry
	evals     *evaluation.Registry
	log       callLog
	out       bytes.Buffer
	converter *Converter
	evaluator *Evaluator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{dir: t.TempDir()}
	f.convs = convert.NewRegistry(convert.DefaultFormat)
	f.convs.Register("amr", convert.Pair{Forward: lineForward(), Backward: lineBackward()})
	f.convs.Register("fmtA", convert.Pair{Forward: lineForward(), Backward: lineBackward()})
	f.convs.Register("fmtB", convert.Pair{Forward: lineForward(), Backward: lineBackward()})
	f.evals = evaluation.NewRegistry(evaluation.DefaultFormat)
	f.evals.Register("amr", lineEvaluator("amr", &f.log))
	f.evals.Register("fmtA", lineEvaluator("fmtA", &f.log))
	f.converter = NewConverter(f.convs)
	f.evaluator = NewEvaluator(f.evals, &f.out)
	return f
}

func (f *fixture) write(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(f.dir, name)
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func (f *fixture) batch() *Batch {
	return &Batch{Converter: f.converter, Evaluator: f.evaluator, Out: &f.out}
}

func TestFormatOf(t *testing.T) {
	tests := map[string]string{
		"doc1.fmtA":        "fmtA",
		"a/b/c.amr":        "amr",
		"noext":            "",
		"x.tar.xz":         "xz",
		"dir.d/file.conll": "conll",
	}
	for in, want := range tests {
		if got := FormatOf(in); got != want {
			t.Errorf("FormatOf(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConvertYieldsUnitsLazily(t *testing.T) {
	f := newFixture(t)
	path := f.write(t, "doc1.fmtA", "a\nb\n\nc\n\nd\n")

	var ids []string
	for res, err := range f.converter.Convert(context.Background(), path) {
		if err != nil {
			t.Fatalf("Convert() error: %v", err)
		}
		ids = append(ids, res.UnitID)
		if res.File != path || res.Format != "fmtA" {
			t.Errorf("result file/format = %q/%q", res.File, res.Format)
		}
		if !res.Exact() {
			t.Errorf("unit %s guessed %v reference %v", res.UnitID, res.Guessed, res.Reference)
		}
		if len(ids) == 2 {
			break
		}
	}
	if !reflect.DeepEqual(ids, []string{"doc1.fmtA#0", "doc1.fmtA#1"}) {
		t.Errorf("ids = %v", ids)
	}
}

func TestConvertWikification(t *testing.T) {
	f := newFixture(t)
	f.converter.Wikification = true
	path := f.write(t, "w.amr", "x\n")
	for res, err := range f.converter.Convert(context.Background(), path) {
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(res.Guessed, []string{"x [wiki]"}) {
			t.Errorf("Guessed = %v", res.Guessed)
		}
		if res.Exact() {
			t.Error("wikified output should not be exact")
		}
	}
}

func TestConvertOpenError(t *testing.T) {
	f := newFixture(t)
	for _, err := range f.converter.Convert(context.Background(), filepath.Join(f.dir, "missing.amr")) {
		if rterrors.KindOf(err) != rterrors.KindIO {
			t.Errorf("error = %v, want io kind", err)
		}
		return
	}
	t.Fatal("expected an error")
}

func TestConvertCancelled(t *testing.T) {
	f := newFixture(t)
	path := f.write(t, "c.amr", "x\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, err := range f.converter.Convert(ctx, path) {
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
		return
	}
	t.Fatal("expected an error")
}

func TestConvertNoConverter(t *testing.T) {
	c := NewConverter(convert.NewRegistry("amr"))
	for _, err := range c.Convert(context.Background(), "x.fmtA") {
		if rterrors.KindOf(err) != rterrors.KindValidation {
			t.Errorf("error = %v, want validation kind", err)
		}
		return
	}
	t.Fatal("expected an error")
}

// panicBackward fails the way a buggy converter does at runtime.
func panicBackward() convert.Backward {
	return convert.BackwardFunc(func(p *passage.Passage, opts convert.ToOptions) ([]string, error) {
		var m map[string]int
		m[p.ID]++
		return nil, nil
	})
}

func TestConvertRecoversBackwardPanic(t *testing.T) {
	f := newFixture(t)
	f.convs.Register("fmtP", convert.Pair{Forward: lineForward(), Backward: panicBackward()})
	path := f.write(t, "doc1.fmtP", "x\n")
	for _, err := range f.converter.Convert(context.Background(), path) {
		var bce *rterrors.BackConversionError
		if !rterrors.As(err, &bce) || bce.File != path || bce.Format != "fmtP" {
			t.Fatalf("error = %v, want BackConversionError for %s", err, path)
		}
		if !strings.Contains(err.Error(), "panic: assignment to entry in nil map") {
			t.Errorf("message = %q", err.Error())
		}
		return
	}
	t.Fatal("expected an error")
}

func TestEvaluateRecoversPanic(t *testing.T) {
	evals := evaluation.NewRegistry("amr")
	evals.Register("amr", evaluation.EvaluatorFunc(func(guessed, reference []string, opts evaluation.Options) (evaluation.Record, error) {
		return nil, fmt.Errorf("unreachable %s", guessed[5])
	}))
	_, err := NewEvaluator(evals, nil).Evaluate("doc1.amr", "amr", nil, nil, false)
	var evalErr *rterrors.EvaluationError
	if !rterrors.As(err, &evalErr) || evalErr.File != "doc1.amr" {
		t.Fatalf("error = %v, want EvaluationError for doc1.amr", err)
	}
	if !strings.Contains(err.Error(), "panic: ") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestBatchParallelRecoversPanic(t *testing.T) {
	f := newFixture(t)
	f.convs.Register("fmtP", convert.Pair{Forward: lineForward(), Backward: panicBackward()})
	f.write(t, "a.fmtP", "a\n")
	f.write(t, "b.fmtP", "b\n")
	b := f.batch()
	b.Jobs = 2

	agg, err := b.Run(context.Background(), []string{filepath.Join(f.dir, "*.fmtP")})
	var bce *rterrors.BackConversionError
	if agg != nil || !rterrors.As(err, &bce) || filepath.Base(bce.File) != "a.fmtP" {
		t.Fatalf("Run() = %v, %v; want back-conversion failure of a.fmtP", agg, err)
	}
}

func TestEvaluateWrapsErrors(t *testing.T) {
	f := newFixture(t)
	_, err := f.evaluator.Evaluate("doc1.fmtA", "fmtA", []string{"EVALFAIL"}, nil, false)
	var evalErr *rterrors.EvaluationError
	if !rterrors.As(err, &evalErr) || evalErr.File != "doc1.fmtA" {
		t.Fatalf("error = %v, want EvaluationError for doc1.fmtA", err)
	}
	if !strings.Contains(err.Error(), "error evaluating conversion of doc1.fmtA") {
		t.Errorf("message = %q", err.Error())
	}

	empty := NewEvaluator(evaluation.NewRegistry("amr"), nil)
	if _, err := empty.Evaluate("f.x", "x", nil, nil, false); rterrors.KindOf(err) != rterrors.KindEvaluation {
		t.Errorf("missing evaluator error = %v", err)
	}
}

func TestEvaluateVerboseDoesNotChangeScores(t *testing.T) {
	f := newFixture(t)
	quiet, err := f.evaluator.Evaluate("f", "fmtA", []string{"a", "b"}, []string{"a", "c"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if f.out.Len() != 0 {
		t.Errorf("non-verbose evaluation wrote %q", f.out.String())
	}
	loud, err := f.evaluator.Evaluate("f", "fmtA", []string{"a", "b"}, []string{"a", "c"}, true)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(quiet.Fields(), loud.Fields()) {
		t.Errorf("verbose changed scores: %v vs %v", quiet.Fields(), loud.Fields())
	}
	if !strings.Contains(f.out.String(), "lines missing:  c") {
		t.Errorf("verbose output = %q", f.out.String())
	}
}

func TestBatchPatternNotFound(t *testing.T) {
	f := newFixture(t)
	pattern := filepath.Join(f.dir, "*.none")

	agg, err := f.batch().Run(context.Background(), []string{pattern})
	if agg != nil {
		t.Error("no aggregate expected on failure")
	}
	var pnf *rterrors.PatternNotFoundError
	if !rterrors.As(err, &pnf) || pnf.Pattern != pattern {
		t.Fatalf("error = %v, want PatternNotFoundError for %q", err, pattern)
	}
	if err.Error() != "not found: "+pattern {
		t.Errorf("message = %q", err.Error())
	}
	if strings.Contains(f.out.String(), "Evaluation type") {
		t.Errorf("aggregate printed on failure: %q", f.out.String())
	}
}

func TestBatchSingleUnit(t *testing.T) {
	f := newFixture(t)
	path := f.write(t, "doc1.fmtA", "a\nb\n")

	agg, err := f.batch().Run(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	want := "\rConverting '" + path + "'\n" + agg.String()
	if f.out.String() != want {
		t.Errorf("output =\n%q\nwant\n%q", f.out.String(), want)
	}
	c, _ := agg.Field("lines")
	if c != (evaluation.Counts{Matched: 2, Guessed: 2, Reference: 2}) {
		t.Errorf("counts = %+v", c)
	}
	if agg.Name != "fmtA" {
		t.Errorf("aggregate name = %q", agg.Name)
	}
}

func TestBatchBackConversionFailure(t *testing.T) {
	f := newFixture(t)
	path := f.write(t, "doc1.fmtA", "FAIL\n")

	agg, err := f.batch().Run(context.Background(), []string{path})
	if agg != nil {
		t.Error("no aggregate expected on failure")
	}
	var bce *rterrors.BackConversionError
	if !rterrors.As(err, &bce) {
		t.Fatalf("error = %v, want BackConversionError", err)
	}
	if bce.File != path || bce.Format != "fmtA" {
		t.Errorf("error names %q/%q", bce.File, bce.Format)
	}
	if !strings.Contains(err.Error(), "error converting "+path+" back from fmtA: cannot render FAIL") {
		t.Errorf("message = %q", err.Error())
	}
	if strings.Contains(f.out.String(), "Evaluation type") {
		t.Errorf("aggregate printed on failure: %q", f.out.String())
	}
	if len(f.log.calls) != 0 {
		t.Error("evaluator must not run after a failed back-conversion")
	}
}

func TestBatchEvaluationFailure(t *testing.T) {
	f := newFixture(t)
	path := f.write(t, "doc1.fmtA", "EVALFAIL\n")
	_, err := f.batch().Run(context.Background(), []string{path})
	if rterrors.KindOf(err) != rterrors.KindEvaluation {
		t.Errorf("error = %v, want evaluation kind", err)
	}
}

func TestBatchWritesOutput(t *testing.T) {
	f := newFixture(t)
	path := f.write(t, "doc1.fmtA", "a\nb\n")
	outDir := filepath.Join(t.TempDir(), "out")
	f.converter.Output = output.NewSink(outDir)

	if _, err := f.batch().Run(context.Background(), []string{path}); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	xmlData, err := os.ReadFile(filepath.Join(outDir, "doc1.fmtA#0.xml"))
	if err != nil {
		t.Fatalf("passage XML missing: %v", err)
	}
	p, err := passage.ReadXML(bytes.NewReader(xmlData))
	if err != nil || p.ID != "doc1.fmtA#0" || len(p.Terminals) != 2 {
		t.Errorf("passage XML = %+v, %v", p, err)
	}
	native, err := os.ReadFile(filepath.Join(outDir, "doc1.fmtA#0.fmtA"))
	if err != nil {
		t.Fatalf("native output missing: %v", err)
	}
	if string(native) != "a\nb\n" {
		t.Errorf("native output = %q", native)
	}
	if !strings.HasPrefix(f.out.String(), "\rConverting '"+path+"'\n") {
		t.Errorf("progress line without newline: %q", f.out.String())
	}
}

func TestBatchZeroUnits(t *testing.T) {
	f := newFixture(t)
	path := f.write(t, "empty.fmtA", "\n\n")

	agg, err := f.batch().Run(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(f.log.calls) != 0 {
		t.Errorf("evaluator invoked %d times", len(f.log.calls))
	}
	if len(agg.Fields()) != 0 {
		t.Errorf("aggregate fields = %v", agg.Fields())
	}
	if !strings.HasSuffix(f.out.String(), "\nEvaluation type: none\n  (no units evaluated)\n") {
		t.Errorf("output = %q", f.out.String())
	}
}

func TestBatchFallbackIsIndependent(t *testing.T) {
	f := newFixture(t)
	unknown := f.write(t, "x.zzz", "a\n")
	// fmtB has a converter but no evaluator.
	convOnly := f.write(t, "y.fmtB", "b\n")

	agg, err := f.batch().Run(context.Background(), []string{unknown, convOnly})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(f.log.calls) != 2 || f.log.calls[0].name != "amr" || f.log.calls[1].name != "amr" {
		t.Errorf("evaluator calls = %+v", f.log.calls)
	}
	if agg.Name != "amr" {
		t.Errorf("aggregate name = %q", agg.Name)
	}
}

func TestBatchVerbose(t *testing.T) {
	f := newFixture(t)
	path := f.write(t, "doc1.fmtA", "a\n\nb\n")
	b := f.batch()
	b.Verbosity = 1

	agg, err := b.Run(context.Background(), []string{path})
	if err != nil {
		t.Fatal(err)
	}
	rec := evaluation.NewScores("fmtA")
	rec.Add("lines", evaluation.Counts{Matched: 1, Guessed: 1, Reference: 1})
	want := "\rConverting '" + path + "'\n" +
		"doc1.fmtA#0\n" + rec.String() +
		"doc1.fmtA#1\n" + rec.String() +
		"\nAggregated scores:\n" + agg.String()
	if f.out.String() != want {
		t.Errorf("output =\n%q\nwant\n%q", f.out.String(), want)
	}
	for _, c := range f.log.calls {
		if c.verbose {
			t.Error("verbosity 1 must not enable evaluator detail")
		}
	}
}

func TestBatchVerboseSingleRecordHasNoHeader(t *testing.T) {
	f := newFixture(t)
	path := f.write(t, "doc1.fmtA", "a\n")
	b := f.batch()
	b.Verbosity = 1
	if _, err := b.Run(context.Background(), []string{path}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(f.out.String(), "Aggregated scores:") {
		t.Errorf("header printed for a single record: %q", f.out.String())
	}
}

func TestBatchVeryVerbose(t *testing.T) {
	f := newFixture(t)
	path := f.write(t, "doc1.fmtA", "a\n")
	f.converter.Wikification = true
	b := f.batch()
	b.Verbosity = 2
	if _, err := b.Run(context.Background(), []string{path}); err != nil {
		t.Fatal(err)
	}
	if len(f.log.calls) != 1 || !f.log.calls[0].verbose || !f.log.calls[0].hasOut {
		t.Errorf("evaluator calls = %+v", f.log.calls)
	}
	if !strings.Contains(f.out.String(), "lines spurious: a [wiki]") {
		t.Errorf("detail output missing: %q", f.out.String())
	}
}

func TestBatchStopsAtFirstFailingPattern(t *testing.T) {
	f := newFixture(t)
	good := f.write(t, "a.fmtA", "a\n")
	later := f.write(t, "b.fmtA", "b\n")

	_, err := f.batch().Run(context.Background(), []string{good, filepath.Join(f.dir, "*.none"), later})
	if rterrors.KindOf(err) != rterrors.KindPatternNotFound {
		t.Fatalf("error = %v", err)
	}
	if strings.Contains(f.out.String(), later) {
		t.Error("patterns after the failure must not be processed")
	}
}

type recordingObserver struct {
	events []string
	agg    *evaluation.Scores
	runErr error
}

func (r *recordingObserver) UnitEvaluated(o *Outcome) error {
	r.events = append(r.events, "unit "+o.UnitID)
	return nil
}

func (r *recordingObserver) FileFinished(file, format string, units int) error {
	r.events = append(r.events, fmt.Sprintf("file %s %s %d", filepath.Base(file), format, units))
	return nil
}

func (r *recordingObserver) RunFinished(agg *evaluation.Scores, runErr error) error {
	r.events = append(r.events, "done")
	r.agg, r.runErr = agg, runErr
	return nil
}

func TestBatchObservers(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.fmtA", "a\n\nb\n")
	f.write(t, "b.fmtA", "c\n")
	obs := &recordingObserver{}
	b := f.batch()
	b.Observers = []Observer{obs}

	agg, err := b.Run(context.Background(), []string{filepath.Join(f.dir, "*.fmtA")})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"unit a.fmtA#0", "unit a.fmtA#1", "file a.fmtA fmtA 2",
		"unit b.fmtA#0", "file b.fmtA fmtA 1",
		"done",
	}
	if !reflect.DeepEqual(obs.events, want) {
		t.Errorf("events = %v", obs.events)
	}
	if obs.agg != agg || obs.runErr != nil {
		t.Error("RunFinished should receive the aggregate")
	}
	if len(b.Records()) != 3 {
		t.Errorf("Records() = %d", len(b.Records()))
	}
}

func TestBatchObserverSeesFailure(t *testing.T) {
	f := newFixture(t)
	obs := &recordingObserver{}
	b := f.batch()
	b.Observers = []Observer{obs}
	_, err := b.Run(context.Background(), []string{filepath.Join(f.dir, "*.none")})
	if err == nil || obs.runErr != err || obs.agg != nil {
		t.Errorf("observer saw agg=%v err=%v", obs.agg, obs.runErr)
	}
}

type failingObserver struct{ recordingObserver }

func (failingObserver) RunFinished(*evaluation.Scores, error) error {
	return errors.New("history unavailable")
}

func TestBatchObserverFinishError(t *testing.T) {
	f := newFixture(t)
	path := f.write(t, "a.fmtA", "a\n")
	b := f.batch()
	b.Observers = []Observer{&failingObserver{}}
	agg, err := b.Run(context.Background(), []string{path})
	if err == nil || agg != nil {
		t.Errorf("Run() = %v, %v; want observer error", agg, err)
	}
	if strings.Contains(f.out.String(), "Evaluation type") {
		t.Errorf("aggregate printed despite failure: %q", f.out.String())
	}
}

func TestBatchParallelMatchesSequential(t *testing.T) {
	contents := map[string]string{
		"a.fmtA": "a\n\nb\n",
		"b.amr":  "c\nd\n",
		"c.fmtA": "e\n",
		"d.zzz":  "f\n\ng\n\nh\n",
		"e.fmtA": "i\n",
	}
	run := func(jobs, verbosity int) (string, *evaluation.Scores, []string) {
		f := newFixture(t)
		for name, content := range contents {
			f.write(t, name, content)
		}
		obs := &recordingObserver{}
		b := f.batch()
		b.Jobs = jobs
		b.Verbosity = verbosity
		b.Observers = []Observer{obs}
		agg, err := b.Run(context.Background(), []string{filepath.Join(f.dir, "*")})
		if err != nil {
			t.Fatalf("Run(jobs=%d) error: %v", jobs, err)
		}
		return strings.ReplaceAll(f.out.String(), f.dir, "DIR"), agg, obs.events
	}

	for _, verbosity := range []int{0, 2} {
		seqOut, seqAgg, seqEvents := run(1, verbosity)
		parOut, parAgg, parEvents := run(4, verbosity)
		if seqOut != parOut {
			t.Errorf("verbosity %d: parallel output differs:\n%q\n%q", verbosity, seqOut, parOut)
		}
		if seqAgg.String() != parAgg.String() {
			t.Errorf("verbosity %d: parallel aggregate differs", verbosity)
		}
		if !reflect.DeepEqual(seqEvents, parEvents) {
			t.Errorf("verbosity %d: parallel events differ:\n%v\n%v", verbosity, seqEvents, parEvents)
		}
	}
}

func TestBatchParallelReportsFirstFailure(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.fmtA", "a\n")
	f.write(t, "b.fmtA", "FAIL\n")
	f.write(t, "c.fmtA", "EVALFAIL\n")
	f.write(t, "d.fmtA", "d\n")
	b := f.batch()
	b.Jobs = 3

	agg, err := b.Run(context.Background(), []string{filepath.Join(f.dir, "*.fmtA")})
	if agg != nil {
		t.Error("no aggregate expected")
	}
	var bce *rterrors.BackConversionError
	if !rterrors.As(err, &bce) || filepath.Base(bce.File) != "b.fmtA" {
		t.Fatalf("error = %v, want back-conversion failure of b.fmtA", err)
	}
	out := f.out.String()
	if strings.Contains(out, "c.fmtA") || strings.Contains(out, "d.fmtA") {
		t.Errorf("output of later files replayed: %q", out)
	}
	if !strings.Contains(out, "a.fmtA") || !strings.Contains(out, "b.fmtA") {
		t.Errorf("output of earlier files missing: %q", out)
	}
}

func TestCollector(t *testing.T) {
	var c Collector
	if c.Len() != 0 || c.Aggregate().String() != "Evaluation type: none\n  (no units evaluated)\n" {
		t.Error("empty collector should aggregate to the empty score")
	}
	s := evaluation.NewScores("amr")
	s.Add("triples", evaluation.Counts{Matched: 1, Guessed: 2, Reference: 3})
	c.Add(s)
	if c.Len() != 1 || c.Aggregate().String() != s.String() {
		t.Error("singleton collector should aggregate to its record")
	}
}
