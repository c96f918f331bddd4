package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FlowLogAnalyzer/internal/model"
)

func TestRecorder_ObserveSnapshot(t *testing.T) {
	r := NewRecorder()
	r.ObserveTables(3, 11)
	r.ObserveSnapshot(&model.Snapshot{
		TagCounts: map[string]uint64{"HTTPS": 4, "Untagged": 2},
		Stats: model.Stats{
			LinesRead: 9,
			Accepted:  6,
			Skipped:   map[model.SkipReason]uint64{model.SkipShort: 2, model.SkipNonNumeric: 1},
		},
	})

	assert.Equal(t, float64(9), testutil.ToFloat64(r.linesRead))
	assert.Equal(t, float64(6), testutil.ToFloat64(r.accepted))
	assert.Equal(t, float64(2), testutil.ToFloat64(r.skipped.WithLabelValues("short")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.skipped.WithLabelValues("non_numeric")))
	assert.Equal(t, float64(4), testutil.ToFloat64(r.tagRecords.WithLabelValues("HTTPS")))
	assert.Equal(t, float64(11), testutil.ToFloat64(r.tableEntries.WithLabelValues("lookup")))
}

func TestRecorder_RegistryExposition(t *testing.T) {
	r := NewRecorder()
	r.ObserveSnapshot(&model.Snapshot{
		Stats: model.Stats{
			LinesRead: 5,
			Accepted:  3,
			Skipped:   map[model.SkipReason]uint64{model.SkipShort: 1, model.SkipTooLong: 1},
		},
	})

	expected := `
# HELP flowlog_analyzer_lines_read_total Flow-log lines read.
# TYPE flowlog_analyzer_lines_read_total counter
flowlog_analyzer_lines_read_total 5
# HELP flowlog_analyzer_records_skipped_total Flow-log lines skipped, by reason.
# TYPE flowlog_analyzer_records_skipped_total counter
flowlog_analyzer_records_skipped_total{reason="short"} 1
flowlog_analyzer_records_skipped_total{reason="too_long"} 1
`
	err := testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected),
		"flowlog_analyzer_lines_read_total", "flowlog_analyzer_records_skipped_total")
	assert.NoError(t, err)
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveSnapshot(&model.Snapshot{Stats: model.Stats{LinesRead: 1, Accepted: 1}})
	r.MarkSuccess()

	path := filepath.Join(t.TempDir(), "flowlog_analyzer.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "flowlog_analyzer_lines_read_total 1")
	assert.Contains(t, string(data), "flowlog_analyzer_last_success_timestamp_seconds")
}
