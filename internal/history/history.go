// Package history records batch runs and their units in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	rterrors "github.com/FocuswithJustin/semroundtrip/core/errors"
	"github.com/FocuswithJustin/semroundtrip/core/evaluation"
	"github.com/FocuswithJustin/semroundtrip/core/passage"
	"github.com/FocuswithJustin/semroundtrip/core/roundtrip"
	"github.com/FocuswithJustin/semroundtrip/core/sqlite"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Injectable functions for testing
var (
	timeNow         = time.Now
	newRunID        = func() string { return uuid.NewString() }
	sqlOpenDB       = sqlite.Open
	sqlOpenReadOnly = sqlite.OpenReadOnly
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		patterns TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		files INTEGER NOT NULL DEFAULT 0,
		units INTEGER NOT NULL DEFAULT 0,
		aggregate TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS units (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		file TEXT NOT NULL,
		format TEXT NOT NULL,
		unit_id TEXT NOT NULL,
		fields TEXT NOT NULL,
		guessed_blake3 TEXT NOT NULL,
		reference_blake3 TEXT NOT NULL,
		exact INTEGER NOT NULL,
		PRIMARY KEY (run_id, seq)
	)`,
	`CREATE INDEX IF NOT EXISTS runs_started ON runs(started_at)`,
}

// Run is one recorded batch run.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Patterns   []string
	Status     string
	Error      string
	Files      int
	Units      int
	Aggregate  *evaluation.Scores
}

// Unit is one recorded unit of a run.
type Unit struct {
	Seq             int
	File            string
	Format          string
	UnitID          string
	Fields          []evaluation.Field
	GuessedBLAKE3   string
	ReferenceBLAKE3 string
	Exact           bool
}

// Store is a run history database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqlOpenDB(ctx, path)
	if err != nil {
		return nil, err
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, rterrors.NewIO("migrate", path, err)
		}
	}
	return &Store{db: db, path: path}, nil
}

// OpenReadOnly opens an existing history database for listing. It never
// creates or migrates the schema.
func OpenReadOnly(ctx context.Context, path string) (*Store, error) {
	db, err := sqlOpenReadOnly(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Begin records the start of a run over patterns and returns an observer
// that records its units and outcome.
func (s *Store) Begin(ctx context.Context, patterns []string) (*Recorder, error) {
	r := &Recorder{store: s, ctx: ctx, runID: newRunID()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, patterns, status) VALUES (?, ?, ?, ?)`,
		r.runID, formatTime(timeNow()), strings.Join(patterns, "\n"), StatusRunning)
	if err != nil {
		return nil, rterrors.NewIO("record run", s.path, err)
	}
	return r, nil
}

// ListRuns returns up to limit runs, most recent first. A limit of 0 or
// less returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, started_at, finished_at, patterns, status, error, files, units, aggregate
		FROM runs ORDER BY started_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, rterrors.NewIO("query runs", s.path, err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run                     Run
			started, patterns       string
			finished, errMsg, aggJS sql.NullString
		)
		if err := rows.Scan(&run.ID, &started, &finished, &patterns, &run.Status, &errMsg, &run.Files, &run.Units, &aggJS); err != nil {
			return nil, rterrors.NewIO("scan run", s.path, err)
		}
		run.StartedAt = parseTime(started)
		if finished.Valid {
			run.FinishedAt = parseTime(finished.String)
		}
		if patterns != "" {
			run.Patterns = strings.Split(patterns, "\n")
		}
		run.Error = errMsg.String
		if aggJS.Valid && aggJS.String != "" {
			run.Aggregate = &evaluation.Scores{}
			if err := json.Unmarshal([]byte(aggJS.String), run.Aggregate); err != nil {
				return nil, rterrors.Wrapf(err, "failed to decode aggregate of run %s", run.ID)
			}
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, rterrors.NewIO("query runs", s.path, err)
	}
	return runs, nil
}

// Units returns the units recorded for runID in order.
func (s *Store) Units(ctx context.Context, runID string) ([]Unit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, file, format, unit_id, fields, guessed_blake3, reference_blake3, exact
		FROM units WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, rterrors.NewIO("query units", s.path, err)
	}
	defer rows.Close()

	var units []Unit
	for rows.Next() {
		var (
			u      Unit
			fields string
			exact  int
		)
		if err := rows.Scan(&u.Seq, &u.File, &u.Format, &u.UnitID, &fields, &u.GuessedBLAKE3, &u.ReferenceBLAKE3, &exact); err != nil {
			return nil, rterrors.NewIO("scan unit", s.path, err)
		}
		if err := json.Unmarshal([]byte(fields), &u.Fields); err != nil {
			return nil, rterrors.Wrapf(err, "failed to decode fields of unit %s", u.UnitID)
		}
		u.Exact = exact != 0
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, rterrors.NewIO("query units", s.path, err)
	}
	return units, nil
}

// Recorder records one run. It implements roundtrip.Observer.
type Recorder struct {
	store *Store
	ctx   context.Context
	runID string
	seq   int
	files int
}

var _ roundtrip.Observer = (*Recorder)(nil)

// RunID returns the identifier of the recorded run.
func (r *Recorder) RunID() string {
	return r.runID
}

// UnitEvaluated records a unit with its scores and text digests.
func (r *Recorder) UnitEvaluated(o *roundtrip.Outcome) error {
	fields, err := json.Marshal(o.Record.Fields())
	if err != nil {
		return rterrors.Wrapf(err, "failed to encode fields of unit %s", o.UnitID)
	}
	exact := 0
	if o.Exact() {
		exact = 1
	}
	_, err = r.store.db.ExecContext(r.ctx,
		`INSERT INTO units (run_id, seq, file, format, unit_id, fields, guessed_blake3, reference_blake3, exact)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.runID, r.seq, o.File, o.Format, o.UnitID, string(fields),
		passage.HashLines(o.Guessed), passage.HashLines(o.Reference), exact)
	if err != nil {
		return rterrors.NewIO("record unit", r.store.path, err)
	}
	r.seq++
	return nil
}

// FileFinished counts a completed file.
func (r *Recorder) FileFinished(file, format string, units int) error {
	r.files++
	return nil
}

// RunFinished records the outcome of the run.
func (r *Recorder) RunFinished(agg *evaluation.Scores, runErr error) error {
	status := StatusSucceeded
	var errMsg, aggJS sql.NullString
	if runErr != nil {
		status = StatusFailed
		errMsg = sql.NullString{String: runErr.Error(), Valid: true}
	}
	if agg != nil {
		data, err := json.Marshal(agg)
		if err != nil {
			return rterrors.Wrap(err, "failed to encode aggregate")
		}
		aggJS = sql.NullString{String: string(data), Valid: true}
	}
	// The run context may already be cancelled; the outcome is still recorded.
	ctx := context.WithoutCancel(r.ctx)
	_, err := r.store.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, error = ?, files = ?, units = ?, aggregate = ? WHERE id = ?`,
		formatTime(timeNow()), status, errMsg, r.files, r.seq, aggJS, r.runID)
	if err != nil {
		return rterrors.NewIO("record run outcome", r.store.path, err)
	}
	return nil
}

// timeLayout is fixed-width so stored times sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}
