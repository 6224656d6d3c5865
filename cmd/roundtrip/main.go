// Command roundtrip converts annotated files to passages and back, and
// scores how much of each unit survived the round trip.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	rterrors "github.com/FocuswithJustin/semroundtrip/core/errors"
	"github.com/FocuswithJustin/semroundtrip/core/roundtrip"
	"github.com/FocuswithJustin/semroundtrip/core/sqlite"
	"github.com/FocuswithJustin/semroundtrip/internal/config"
	"github.com/FocuswithJustin/semroundtrip/internal/formats/builtin"
	"github.com/FocuswithJustin/semroundtrip/internal/history"
	"github.com/FocuswithJustin/semroundtrip/internal/logging"
	"github.com/FocuswithJustin/semroundtrip/internal/metrics"
	"github.com/FocuswithJustin/semroundtrip/internal/output"
)

const version = "0.1.0"

// CLI defines the command-line interface for roundtrip.
type CLI struct {
	// Global flags
	LogLevel  string          `name:"log-level" default:"warn" enum:"debug,info,warn,error" help:"Log level (${enum})"`
	LogFormat string          `name:"log-format" default:"auto" enum:"auto,json,text" help:"Log format (${enum})"`
	Config    kong.ConfigFlag `help:"TOML configuration file" type:"path"`

	Run     RunCmd     `cmd:"" default:"withargs" help:"Round-trip files and print their scores"`
	Formats FormatsCmd `cmd:"" help:"List the registered formats"`
	History HistoryCmd `cmd:"" help:"List recorded runs"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

func (c *CLI) setupLogging() error {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(c.LogFormat)
	if err != nil {
		return err
	}
	logging.InitLogger(level, format)
	return nil
}

func options() []kong.Option {
	return []kong.Option{
		kong.Name("roundtrip"),
		kong.Description("Round-trip annotated files through passages and score what survives"),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Configuration(config.TOML, config.DefaultFile),
	}
}

// RunCmd converts every file matched by its patterns.
type RunCmd struct {
	Patterns     []string `arg:"" name:"pattern" help:"Files or glob patterns; the extension selects the format"`
	OutDir       string   `name:"out-dir" short:"o" type:"path" help:"Write each unit's passage XML and converted text here"`
	Verbose      int      `short:"v" type:"counter" help:"Print every unit's scores; repeat for evaluator details"`
	Wikification bool     `help:"Add ':wiki -' to named instances when converting back"`
	Jobs         int      `short:"j" default:"1" help:"Files converted concurrently"`
	DB           string   `name:"db" type:"path" help:"SQLite database recording runs"`
	MetricsFile  string   `name:"metrics-file" type:"path" help:"Prometheus textfile written at the end of the run"`
	Archive      string   `type:"path" help:"Pack the output directory into this .tar.xz after a successful run"`
}

// Validate checks flag combinations.
func (c *RunCmd) Validate() error {
	if c.Archive != "" && c.OutDir == "" {
		return rterrors.NewValidation("archive", "requires --out-dir")
	}
	if c.Jobs < 1 {
		return rterrors.NewValidation("jobs", "must be at least 1")
	}
	return nil
}

func (c *RunCmd) Run(ctx *kong.Context) error {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	conv := roundtrip.NewConverter(builtin.NewConverters())
	conv.Wikification = c.Wikification
	if c.OutDir != "" {
		conv.Output = output.NewSink(c.OutDir)
	}
	batch := &roundtrip.Batch{
		Converter: conv,
		Evaluator: roundtrip.NewEvaluator(builtin.NewEvaluators(), ctx.Stdout),
		Out:       ctx.Stdout,
		Verbosity: c.Verbose,
		Jobs:      c.Jobs,
	}

	runID := uuid.NewString()
	if c.DB != "" {
		store, err := history.Open(runCtx, c.DB)
		if err != nil {
			return err
		}
		defer store.Close()
		rec, err := store.Begin(runCtx, c.Patterns)
		if err != nil {
			return err
		}
		runID = rec.RunID()
		batch.Observers = append(batch.Observers, rec)
	}
	if c.MetricsFile != "" {
		batch.Observers = append(batch.Observers, metrics.New(c.MetricsFile))
	}

	if _, err := batch.Run(runCtx, c.Patterns); err != nil {
		return err
	}

	if c.Archive != "" {
		manifest, err := output.Pack(c.OutDir, c.Archive, runID)
		if err != nil {
			return err
		}
		logging.Info("archive_written", "path", c.Archive, "files", len(manifest.Files), "run_id", runID)
	}
	return nil
}

// FormatsCmd lists the registered formats.
type FormatsCmd struct{}

func (c *FormatsCmd) Run(ctx *kong.Context) error {
	conv := builtin.NewConverters()
	ev := builtin.NewEvaluators()
	fmt.Fprintf(ctx.Stdout, "Converters: %s (default %s)\n", strings.Join(conv.Formats(), ", "), conv.Default())
	fmt.Fprintf(ctx.Stdout, "Evaluators: %s (default %s)\n", strings.Join(ev.Formats(), ", "), ev.Default())
	return nil
}

// HistoryCmd lists runs recorded in a history database.
type HistoryCmd struct {
	DB    string `name:"db" type:"existingfile" required:"" help:"SQLite database recording runs"`
	Limit int    `default:"10" help:"Maximum number of runs to list (0 for all)"`
	RunID string `name:"run" help:"List the units of this run instead"`
}

func (c *HistoryCmd) Run(ctx *kong.Context) error {
	runCtx := context.Background()
	store, err := history.OpenReadOnly(runCtx, c.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	tw := tabwriter.NewWriter(ctx.Stdout, 0, 4, 2, ' ', 0)
	if c.RunID != "" {
		units, err := store.Units(runCtx, c.RunID)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "SEQ\tUNIT\tFORMAT\tEXACT\tSCORES")
		for _, u := range units {
			var scores []string
			for _, f := range u.Fields {
				scores = append(scores, fmt.Sprintf("%s=%.3f", f.Name, f.Counts.F1()))
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%t\t%s\n", u.Seq, u.UnitID, u.Format, u.Exact, strings.Join(scores, " "))
		}
		return tw.Flush()
	}

	runs, err := store.ListRuns(runCtx, c.Limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tFILES\tUNITS\tRESULT")
	for _, r := range runs {
		result := r.Error
		if r.Aggregate != nil {
			var scores []string
			for _, f := range r.Aggregate.Fields() {
				scores = append(scores, fmt.Sprintf("%s=%.3f", f.Name, f.Counts.F1()))
			}
			result = strings.Join(scores, " ")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Status, r.Files, r.Units, result)
	}
	return tw.Flush()
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(ctx *kong.Context) error {
	info := sqlite.GetInfo()
	fmt.Fprintf(ctx.Stdout, "roundtrip version %s (sqlite driver %s, %s)\n", version, info.Package, info.DriverType)
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli, append(options(), kong.UsageOnError())...)
	ctx.FatalIfErrorf(cli.setupLogging())
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
