package aggregator

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FlowLogAnalyzer/internal/lookup"
	"FlowLogAnalyzer/internal/model"
	"FlowLogAnalyzer/internal/validator"
)

// flowLine builds a version 2 record with the given destination port and protocol fields.
func flowLine(dstPort, protocol string) string {
	return fmt.Sprintf("2 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 49153 %s %s 25 20000 1620140761 1620140821 ACCEPT OK", dstPort, protocol)
}

func newTestAggregator(policy validator.Policy) *Aggregator {
	protocols := lookup.NewProtocolTable(map[int]string{6: "tcp", 17: "udp", 1: "icmp"})
	tags := lookup.NewLookupTable(map[model.PortProtocolKey]string{
		{Port: 443, Protocol: "tcp"}: "HTTPS",
		{Port: 25, Protocol: "tcp"}:  "sv_P1",
		{Port: 68, Protocol: "udp"}:  "sv_P2",
		{Port: 0, Protocol: "icmp"}:  "sv_P5",
	})
	return New(protocols, tags, policy)
}

func TestAggregator_TaggedRecord(t *testing.T) {
	agg := newTestAggregator(validator.PolicyStructural)
	require.True(t, agg.Ingest(flowLine("25", "6")))

	before := agg.Snapshot()
	require.True(t, agg.Ingest(flowLine("443", "6")))
	after := agg.Snapshot()

	assert.Equal(t, uint64(1), after.TagCounts["HTTPS"])
	assert.Equal(t, before.TagCounts["sv_P1"], after.TagCounts["sv_P1"], "other tags are untouched")
	assert.Len(t, after.TagCounts, 2)
	assert.Equal(t, uint64(1), after.PortProtocolCounts[model.PortProtocolKey{Port: 443, Protocol: "tcp"}])
}

func TestAggregator_Untagged(t *testing.T) {
	agg := newTestAggregator(validator.PolicyStructural)
	require.True(t, agg.Ingest(flowLine("9999", "6")))

	snap := agg.Snapshot()
	assert.Equal(t, map[string]uint64{model.UntaggedTag: 1}, snap.TagCounts)
	assert.Equal(t, map[model.PortProtocolKey]uint64{{Port: 9999, Protocol: "tcp"}: 1}, snap.PortProtocolCounts)
}

func TestAggregator_UnknownProtocol(t *testing.T) {
	agg := newTestAggregator(validator.PolicyStructural)
	require.True(t, agg.Ingest(flowLine("443", "254")))

	snap := agg.Snapshot()
	assert.Equal(t, uint64(1), snap.PortProtocolCounts[model.PortProtocolKey{Port: 443, Protocol: model.UnknownProtocol}])
	assert.Equal(t, uint64(1), snap.TagCounts[model.UntaggedTag])
}

func TestAggregator_SkippedRecords(t *testing.T) {
	cases := []struct {
		name   string
		line   string
		reason model.SkipReason
	}{
		{"short", "2 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 49153 443 6", model.SkipShort},
		{"blank", "   ", model.SkipShort},
		{"non numeric port", flowLine("https", "6"), model.SkipNonNumeric},
		{"non numeric protocol", flowLine("443", "tcp"), model.SkipNonNumeric},
		{"port out of range", flowLine("70000", "6"), model.SkipOutOfRange},
		{"negative port", flowLine("-1", "6"), model.SkipOutOfRange},
		{"protocol out of range", flowLine("443", "300"), model.SkipOutOfRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			agg := newTestAggregator(validator.PolicyStructural)
			assert.False(t, agg.Ingest(tc.line))

			snap := agg.Snapshot()
			assert.Empty(t, snap.TagCounts)
			assert.Empty(t, snap.PortProtocolCounts)
			assert.Equal(t, uint64(1), snap.Stats.LinesRead)
			assert.Equal(t, uint64(1), snap.Stats.Skipped[tc.reason])
			assert.Zero(t, snap.Stats.Accepted)
		})
	}
}

func TestAggregator_Discard(t *testing.T) {
	agg := newTestAggregator(validator.PolicyStructural)
	require.True(t, agg.Ingest(flowLine("443", "6")))
	agg.Discard(model.SkipTooLong, errors.New("line too long"))
	require.True(t, agg.Ingest(flowLine("443", "6")))

	snap := agg.Snapshot()
	assert.Equal(t, uint64(3), snap.Stats.LinesRead)
	assert.Equal(t, uint64(2), snap.Stats.Accepted)
	assert.Equal(t, uint64(1), snap.Stats.Skipped[model.SkipTooLong])
	assert.Equal(t, uint64(2), snap.TagCounts["HTTPS"])
}

func TestAggregator_StrictPolicy(t *testing.T) {
	nodata := "2 123456789012 eni-0a1b2c3d - - - 443 6 - - 1620140761 1620140821 - NODATA"

	structural := newTestAggregator(validator.PolicyStructural)
	assert.True(t, structural.Ingest(nodata))

	strict := newTestAggregator(validator.PolicyStrict)
	assert.False(t, strict.Ingest(nodata))
	assert.Equal(t, uint64(1), strict.Snapshot().Stats.Skipped[model.SkipMalformed])
	assert.True(t, strict.Ingest(flowLine("443", "6")))
}

func TestAggregator_SnapshotIsIndependent(t *testing.T) {
	agg := newTestAggregator(validator.PolicyStructural)
	agg.Ingest(flowLine("68", "17"))

	snap := agg.Snapshot()
	snap.TagCounts["sv_P2"] = 100
	snap.Stats.Skipped[model.SkipShort] = 5

	again := agg.Snapshot()
	assert.Equal(t, uint64(1), again.TagCounts["sv_P2"])
	assert.Zero(t, again.Stats.Skipped[model.SkipShort])
}

func TestAggregator_Reset(t *testing.T) {
	agg := newTestAggregator(validator.PolicyStructural)
	agg.Ingest(flowLine("0", "1"))
	agg.Ingest("short")
	agg.Reset()

	snap := agg.Snapshot()
	assert.Empty(t, snap.TagCounts)
	assert.Empty(t, snap.PortProtocolCounts)
	assert.Zero(t, snap.Stats.LinesRead)
	assert.Zero(t, snap.Stats.TotalSkipped())
}
