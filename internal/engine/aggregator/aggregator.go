package aggregator

import (
	"errors"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"FlowLogAnalyzer/internal/lookup"
	"FlowLogAnalyzer/internal/model"
	"FlowLogAnalyzer/internal/validator"
)

// Aggregator classifies flow-log records and keeps the tag and port/protocol
// counts for a single pass. It is not safe for concurrent use.
type Aggregator struct {
	protocols *lookup.ProtocolTable
	tags      *lookup.LookupTable
	policy    validator.Policy

	tagCounts          map[string]uint64
	portProtocolCounts map[model.PortProtocolKey]uint64
	stats              model.Stats
}

// New creates an empty aggregator over the loaded reference tables.
func New(protocols *lookup.ProtocolTable, tags *lookup.LookupTable, policy validator.Policy) *Aggregator {
	return &Aggregator{
		protocols:          protocols,
		tags:               tags,
		policy:             policy,
		tagCounts:          make(map[string]uint64),
		portProtocolCounts: make(map[model.PortProtocolKey]uint64),
		stats:              model.Stats{Skipped: make(map[model.SkipReason]uint64)},
	}
}

// Ingest processes one raw flow-log line and reports whether it was counted.
// Lines narrower than a flow-log record are dropped without logging; any other
// rejected record is logged and skipped.
func (a *Aggregator) Ingest(line string) bool {
	a.stats.LinesRead++
	fields := strings.Fields(line)
	if len(fields) < model.RecordFields {
		a.skip(model.SkipShort)
		return false
	}

	key, err := a.classify(fields)
	if err != nil {
		a.reject(line, err)
		return false
	}

	tag := a.tags.Tag(key)
	a.tagCounts[tag]++
	a.portProtocolCounts[key]++
	a.stats.Accepted++
	return true
}

// Discard counts a line the reader could not deliver, such as one over the
// line size limit, as read and skipped.
func (a *Aggregator) Discard(reason model.SkipReason, err error) {
	a.stats.LinesRead++
	a.skip(reason)
	log.WithError(err).WithField("line", a.stats.LinesRead).Warn("Skipping unreadable log entry")
}

// classify validates a split record and builds its port/protocol key.
func (a *Aggregator) classify(fields []string) (model.PortProtocolKey, error) {
	if err := a.policy.Record(fields); err != nil {
		return model.PortProtocolKey{}, err
	}

	port, err := strconv.Atoi(fields[model.IdxDstPort])
	if err != nil {
		return model.PortProtocolKey{}, err
	}
	protocolNum, err := strconv.Atoi(fields[model.IdxProtocol])
	if err != nil {
		return model.PortProtocolKey{}, err
	}

	if err := validator.ValidatePort(port); err != nil {
		return model.PortProtocolKey{}, err
	}
	if err := validator.ValidateProtocolNumber(protocolNum); err != nil {
		return model.PortProtocolKey{}, err
	}

	return model.PortProtocolKey{Port: port, Protocol: a.protocols.Name(protocolNum)}, nil
}

func (a *Aggregator) reject(line string, err error) {
	entry := log.WithField("entry", line).WithError(err)

	var numErr *strconv.NumError
	var rangeErr *validator.RangeError
	switch {
	case errors.As(err, &numErr):
		a.skip(model.SkipNonNumeric)
		entry.Error("Invalid numeric data in log entry")
	case errors.As(err, &rangeErr):
		a.skip(model.SkipOutOfRange)
		entry.Warn("Skipping invalid log entry")
	default:
		a.skip(model.SkipMalformed)
		entry.Warn("Skipping invalid log entry")
	}
}

func (a *Aggregator) skip(reason model.SkipReason) {
	a.stats.Skipped[reason]++
}

// Snapshot returns a deep copy of the current counts and statistics.
func (a *Aggregator) Snapshot() *model.Snapshot {
	tagCounts := make(map[string]uint64, len(a.tagCounts))
	for k, v := range a.tagCounts {
		tagCounts[k] = v
	}
	portProtocolCounts := make(map[model.PortProtocolKey]uint64, len(a.portProtocolCounts))
	for k, v := range a.portProtocolCounts {
		portProtocolCounts[k] = v
	}
	skipped := make(map[model.SkipReason]uint64, len(a.stats.Skipped))
	for k, v := range a.stats.Skipped {
		skipped[k] = v
	}

	return &model.Snapshot{
		TagCounts:          tagCounts,
		PortProtocolCounts: portProtocolCounts,
		Stats: model.Stats{
			LinesRead: a.stats.LinesRead,
			Accepted:  a.stats.Accepted,
			Skipped:   skipped,
		},
	}
}

// Reset clears all counts, keeping the reference tables.
func (a *Aggregator) Reset() {
	a.tagCounts = make(map[string]uint64)
	a.portProtocolCounts = make(map[model.PortProtocolKey]uint64)
	a.stats = model.Stats{Skipped: make(map[model.SkipReason]uint64)}
}
