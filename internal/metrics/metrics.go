// Package metrics exposes run counters in the Prometheus text format, written
// to a file for the node_exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"FlowLogAnalyzer/internal/model"
)

const namespace = "flowlog_analyzer"

// Recorder holds the registry and the metrics of one run.
type Recorder struct {
	registry      *prometheus.Registry
	linesRead     prometheus.Counter
	accepted      prometheus.Counter
	skipped       *prometheus.CounterVec
	tagRecords    *prometheus.GaugeVec
	tableEntries  *prometheus.GaugeVec
	lastSuccessTS prometheus.Gauge
}

// NewRecorder creates and registers the run metrics on a private registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		linesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_read_total",
			Help:      "Flow-log lines read.",
		}),
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_accepted_total",
			Help:      "Flow-log records classified and counted.",
		}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_skipped_total",
			Help:      "Flow-log lines skipped, by reason.",
		}, []string{"reason"}),
		tagRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tag_records",
			Help:      "Records per tag in the last run.",
		}, []string{"tag"}),
		tableEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reference_table_entries",
			Help:      "Entries loaded into each reference table.",
		}, []string{"table"}),
		lastSuccessTS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}
	r.registry.MustRegister(r.linesRead, r.accepted, r.skipped, r.tagRecords, r.tableEntries, r.lastSuccessTS)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveTables records the sizes of the loaded reference tables.
func (r *Recorder) ObserveTables(protocols, lookups int) {
	r.tableEntries.WithLabelValues("protocols").Set(float64(protocols))
	r.tableEntries.WithLabelValues("lookup").Set(float64(lookups))
}

// ObserveSnapshot records the counters of a finished pass.
func (r *Recorder) ObserveSnapshot(snapshot *model.Snapshot) {
	r.linesRead.Add(float64(snapshot.Stats.LinesRead))
	r.accepted.Add(float64(snapshot.Stats.Accepted))
	for reason, n := range snapshot.Stats.Skipped {
		r.skipped.WithLabelValues(string(reason)).Add(float64(n))
	}
	for tag, n := range snapshot.TagCounts {
		r.tagRecords.WithLabelValues(tag).Set(float64(n))
	}
}

// MarkSuccess stamps the last-success gauge with the current time.
func (r *Recorder) MarkSuccess() {
	r.lastSuccessTS.SetToCurrentTime()
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	log.WithField("file", path).Info("Wrote metrics textfile")
	return nil
}
