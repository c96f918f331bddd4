package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"FlowLogAnalyzer/internal/model"
)

// SummaryData is the run summary persisted alongside the reports.
type SummaryData struct {
	LinesRead             uint64            `json:"lines_read"`
	Accepted              uint64            `json:"accepted"`
	Skipped               uint64            `json:"skipped"`
	SkippedByReason       map[string]uint64 `json:"skipped_by_reason"`
	DistinctTags          int               `json:"distinct_tags"`
	DistinctPortProtocols int               `json:"distinct_port_protocols"`
	Untagged              uint64            `json:"untagged"`
	Timestamp             string            `json:"timestamp"`
}

// SummaryWriter writes a JSON summary of the run.
type SummaryWriter struct {
	path string
	now  func() time.Time
}

// NewSummaryWriter creates a summary writer for the given file.
func NewSummaryWriter(path string) *SummaryWriter {
	return &SummaryWriter{path: path, now: time.Now}
}

func (w *SummaryWriter) Name() string {
	return "summary"
}

// Summarize computes the summary of a snapshot at the given time.
func Summarize(snapshot *model.Snapshot, at time.Time) SummaryData {
	byReason := make(map[string]uint64, len(snapshot.Stats.Skipped))
	for reason, n := range snapshot.Stats.Skipped {
		byReason[string(reason)] = n
	}
	return SummaryData{
		LinesRead:             snapshot.Stats.LinesRead,
		Accepted:              snapshot.Stats.Accepted,
		Skipped:               snapshot.Stats.TotalSkipped(),
		SkippedByReason:       byReason,
		DistinctTags:          len(snapshot.TagCounts),
		DistinctPortProtocols: len(snapshot.PortProtocolCounts),
		Untagged:              snapshot.TagCounts[model.UntaggedTag],
		Timestamp:             at.UTC().Format(time.RFC3339),
	}
}

// Write encodes the summary as indented JSON, replacing any previous file.
func (w *SummaryWriter) Write(_ context.Context, snapshot *model.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("failed to create summary directory: %w", err)
	}
	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(Summarize(snapshot, w.now())); err != nil {
		return fmt.Errorf("failed to encode summary to json: %w", err)
	}
	log.WithField("file", w.path).Info("Wrote run summary")
	return nil
}
