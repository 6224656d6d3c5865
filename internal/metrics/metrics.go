// Package metrics exports the counters of a batch run as a Prometheus
// textfile, for node_exporter's textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	rterrors "github.com/FocuswithJustin/semroundtrip/core/errors"
	"github.com/FocuswithJustin/semroundtrip/core/evaluation"
	"github.com/FocuswithJustin/semroundtrip/core/roundtrip"
)

// Injectable functions for testing
var (
	timeNow         = time.Now
	writeToTextfile = prometheus.WriteToTextfile
)

// Run collects the metrics of one batch run and writes them to a textfile
// when the run finishes. It implements roundtrip.Observer.
type Run struct {
	path     string
	registry *prometheus.Registry
	started  time.Time

	files      prometheus.Counter
	units      *prometheus.CounterVec
	exactUnits *prometheus.CounterVec
	fieldF1    *prometheus.GaugeVec
	success    prometheus.Gauge
	duration   prometheus.Gauge
}

var _ roundtrip.Observer = (*Run)(nil)

// New returns a Run that writes to path.
func New(path string) *Run {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Run{
		path:     path,
		registry: reg,
		started:  timeNow(),

		files: factory.NewCounter(prometheus.CounterOpts{
			Name: "roundtrip_files_total",
			Help: "Number of files converted and evaluated.",
		}),
		units: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "roundtrip_units_total",
			Help: "Number of units evaluated, by format.",
		}, []string{"format"}),
		exactUnits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "roundtrip_exact_units_total",
			Help: "Number of units whose round trip reproduced the input exactly, by format.",
		}, []string{"format"}),
		fieldF1: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "roundtrip_field_f1",
			Help: "Aggregated F1 score, by score field.",
		}, []string{"field"}),
		success: factory.NewGauge(prometheus.GaugeOpts{
			Name: "roundtrip_run_success",
			Help: "1 if the last run succeeded, 0 otherwise.",
		}),
		duration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "roundtrip_run_duration_seconds",
			Help: "Wall time of the last run.",
		}),
	}
}

// Registry returns the registry holding the run's metrics.
func (r *Run) Registry() *prometheus.Registry {
	return r.registry
}

// UnitEvaluated counts a unit.
func (r *Run) UnitEvaluated(o *roundtrip.Outcome) error {
	r.units.WithLabelValues(o.Format).Inc()
	if o.Exact() {
		r.exactUnits.WithLabelValues(o.Format).Inc()
	}
	return nil
}

// FileFinished counts a file.
func (r *Run) FileFinished(file, format string, units int) error {
	r.files.Inc()
	return nil
}

// RunFinished sets the outcome gauges and writes the textfile. It writes
// on failure too, with roundtrip_run_success at 0.
func (r *Run) RunFinished(agg *evaluation.Scores, runErr error) error {
	if runErr == nil {
		r.success.Set(1)
	}
	if agg != nil {
		for _, f := range agg.Fields() {
			r.fieldF1.WithLabelValues(f.Name).Set(f.Counts.F1())
		}
	}
	r.duration.Set(timeNow().Sub(r.started).Seconds())

	if err := writeToTextfile(r.path, r.registry); err != nil {
		return rterrors.NewIO("write metrics", r.path, err)
	}
	return nil
}
