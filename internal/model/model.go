package model

import (
	"cmp"
	"fmt"
	"slices"
)

// Field positions of a version 2 VPC flow-log record after splitting on whitespace.
const (
	IdxVersion = iota
	IdxAccountID
	IdxInterfaceID
	IdxSrcAddr
	IdxDstAddr
	IdxSrcPort
	IdxDstPort
	IdxProtocol
	IdxPackets
	IdxBytes
	IdxStart
	IdxEnd
	IdxAction
	IdxLogStatus

	// RecordFields is the fixed width of a flow-log record.
	RecordFields
)

const (
	// UnknownProtocol is the name given to protocol numbers missing from the protocol table.
	UnknownProtocol = "unknown"
	// UntaggedTag is the tag given to combinations missing from the lookup table.
	UntaggedTag = "Untagged"
)

// PortProtocolKey identifies a (destination port, protocol name) combination.
// Protocol must already be lowercased by the caller.
type PortProtocolKey struct {
	Port     int
	Protocol string
}

func (k PortProtocolKey) String() string {
	return fmt.Sprintf("Port: %d, Protocol: %s", k.Port, k.Protocol)
}

// Compare orders keys by port, then by protocol name.
func (k PortProtocolKey) Compare(other PortProtocolKey) int {
	if c := cmp.Compare(k.Port, other.Port); c != 0 {
		return c
	}
	return cmp.Compare(k.Protocol, other.Protocol)
}

// SkipReason labels why a flow-log line did not contribute to the counts.
type SkipReason string

const (
	SkipShort      SkipReason = "short"
	SkipMalformed  SkipReason = "malformed"
	SkipNonNumeric SkipReason = "non_numeric"
	SkipOutOfRange SkipReason = "out_of_range"
	SkipTooLong    SkipReason = "too_long"
)

// Stats holds per-run ingest counters.
type Stats struct {
	LinesRead uint64
	Accepted  uint64
	Skipped   map[SkipReason]uint64
}

// TotalSkipped sums all skip reasons.
func (s Stats) TotalSkipped() uint64 {
	var total uint64
	for _, n := range s.Skipped {
		total += n
	}
	return total
}

// Snapshot is an independent copy of the aggregation state at the end of a pass.
type Snapshot struct {
	TagCounts          map[string]uint64
	PortProtocolCounts map[PortProtocolKey]uint64
	Stats              Stats
}

// TagCount is one row of the tag report.
type TagCount struct {
	Tag   string
	Count uint64
}

// PortProtocolCount is one row of the port/protocol report.
type PortProtocolCount struct {
	Key   PortProtocolKey
	Count uint64
}

// SortedTags returns the tag counts ordered by tag.
func (s *Snapshot) SortedTags() []TagCount {
	rows := make([]TagCount, 0, len(s.TagCounts))
	for tag, n := range s.TagCounts {
		rows = append(rows, TagCount{Tag: tag, Count: n})
	}
	slices.SortFunc(rows, func(a, b TagCount) int {
		return cmp.Compare(a.Tag, b.Tag)
	})
	return rows
}

// SortedPortProtocols returns the combination counts ordered by port, then protocol.
func (s *Snapshot) SortedPortProtocols() []PortProtocolCount {
	rows := make([]PortProtocolCount, 0, len(s.PortProtocolCounts))
	for key, n := range s.PortProtocolCounts {
		rows = append(rows, PortProtocolCount{Key: key, Count: n})
	}
	slices.SortFunc(rows, func(a, b PortProtocolCount) int {
		return a.Key.Compare(b.Key)
	})
	return rows
}
