// Package report renders the end-of-run aggregation state to its destinations.
package report

import (
	"strconv"

	"FlowLogAnalyzer/internal/model"
)

// Header lines of the two CSV reports.
const (
	TagHeader          = "Tag,Count"
	PortProtocolHeader = "Port,Protocol,Count"
)

// TagReportRows renders the tag report body, sorted by tag.
func TagReportRows(snapshot *model.Snapshot) []string {
	sorted := snapshot.SortedTags()
	rows := make([]string, 0, len(sorted))
	for _, tc := range sorted {
		rows = append(rows, tc.Tag+","+strconv.FormatUint(tc.Count, 10))
	}
	return rows
}

// PortProtocolReportRows renders the port/protocol report body, sorted by port
// and then protocol.
func PortProtocolReportRows(snapshot *model.Snapshot) []string {
	sorted := snapshot.SortedPortProtocols()
	rows := make([]string, 0, len(sorted))
	for _, pc := range sorted {
		rows = append(rows, strconv.Itoa(pc.Key.Port)+","+pc.Key.Protocol+","+strconv.FormatUint(pc.Count, 10))
	}
	return rows
}
