package manager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"FlowLogAnalyzer/internal/config"
	"FlowLogAnalyzer/internal/engine/aggregator"
	"FlowLogAnalyzer/internal/factory"
	"FlowLogAnalyzer/internal/lookup"
	"FlowLogAnalyzer/internal/metrics"
	"FlowLogAnalyzer/internal/model"
	"FlowLogAnalyzer/internal/report"
	"FlowLogAnalyzer/pkg/flowlog"
)

// Manager runs one analysis pass: load the reference tables, classify the flow
// log, and hand the result to the report writers.
type Manager struct {
	cfg     *config.Config
	reports *report.CSVWriter
	writers []model.Writer
	metrics *metrics.Recorder
}

// NewManager creates a Manager from a validated config.
func NewManager(cfg *config.Config) (*Manager, error) {
	writers, err := factory.CreateWriters(cfg)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		cfg:     cfg,
		reports: report.NewCSVWriter(cfg.Output.TagCountFile, cfg.Output.PortProtocolFile),
		writers: writers,
	}
	if cfg.Metrics.Enabled {
		m.metrics = metrics.NewRecorder()
	}
	return m, nil
}

// Run executes the pipeline and returns the final snapshot. Failures to read an
// input or to create a report file abort the run; per-record problems do not.
func (m *Manager) Run(ctx context.Context) (*model.Snapshot, error) {
	defer m.closeWriters()

	if err := m.ensureOutputDirs(); err != nil {
		return nil, err
	}

	protocols, err := lookup.LoadProtocols(m.cfg.Input.ProtocolsFile)
	if err != nil {
		return nil, err
	}
	tags, err := lookup.LoadLookupTable(m.cfg.Input.LookupFile)
	if err != nil {
		return nil, err
	}

	agg := aggregator.New(protocols, tags, m.cfg.Policy())
	if err := m.processFlowLogs(agg); err != nil {
		return nil, err
	}
	snapshot := agg.Snapshot()

	if err := m.reports.Write(ctx, snapshot); err != nil {
		return nil, err
	}
	for _, w := range m.writers {
		if err := w.Write(ctx, snapshot); err != nil {
			log.WithError(err).WithField("writer", w.Name()).Error("Error writing report")
		}
	}

	if m.metrics != nil {
		m.metrics.ObserveTables(protocols.Len(), tags.Len())
		m.metrics.ObserveSnapshot(snapshot)
		m.metrics.MarkSuccess()
		if err := m.metrics.WriteTextfile(m.cfg.Metrics.TextfilePath); err != nil {
			log.WithError(err).Error("Error writing metrics")
		}
	}
	return snapshot, nil
}

func (m *Manager) processFlowLogs(agg *aggregator.Aggregator) error {
	log.WithField("file", m.cfg.Input.FlowLogFile).Info("Processing flow logs")
	reader, err := flowlog.NewReader(m.cfg.Input.FlowLogFile)
	if err != nil {
		return err
	}
	defer reader.Close()

	_, err = reader.ReadLines(func(line string, err error) {
		if err != nil {
			agg.Discard(model.SkipTooLong, err)
			return
		}
		agg.Ingest(line)
	})
	if err != nil {
		return err
	}

	stats := agg.Snapshot().Stats
	log.WithFields(log.Fields{
		"lines":    stats.LinesRead,
		"accepted": stats.Accepted,
		"skipped":  stats.TotalSkipped(),
	}).Info("Processed flow logs")
	return nil
}

func (m *Manager) ensureOutputDirs() error {
	dirs := []string{
		m.cfg.Output.Dir,
		filepath.Dir(m.cfg.Output.TagCountFile),
		filepath.Dir(m.cfg.Output.PortProtocolFile),
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); err == nil {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		log.WithField("dir", dir).Info("Created output directory")
	}
	return nil
}

func (m *Manager) closeWriters() {
	for _, w := range m.writers {
		if c, ok := w.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
