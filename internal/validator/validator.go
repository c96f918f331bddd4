// Package validator holds the stateless checks applied to flow-log records and
// reference-table values.
package validator

import (
	"errors"
	"fmt"
	"net/netip"
	"strconv"

	"FlowLogAnalyzer/internal/model"
)

// Upper bounds of the numeric record fields; both ranges start at zero.
const (
	MaxPort     = 65535
	MaxProtocol = 255
)

// ErrMalformedRecord is returned for records that do not fit the flow-log layout.
var ErrMalformedRecord = errors.New("malformed flow log record")

// RangeError reports a numeric value outside its permitted range.
type RangeError struct {
	Field string
	Value int
	Min   int
	Max   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid %s: %d, must be between %d-%d", e.Field, e.Value, e.Min, e.Max)
}

// ValidateProtocolNumber checks that n is a valid IANA protocol number.
func ValidateProtocolNumber(n int) error {
	if n < 0 || n > MaxProtocol {
		return &RangeError{Field: "protocol number", Value: n, Min: 0, Max: MaxProtocol}
	}
	return nil
}

// ValidatePort checks that n is a valid transport port.
func ValidatePort(n int) error {
	if n < 0 || n > MaxPort {
		return &RangeError{Field: "port number", Value: n, Min: 0, Max: MaxPort}
	}
	return nil
}

// ValidateLogEntry checks the structural width of a split record.
func ValidateLogEntry(fields []string) error {
	if len(fields) < model.RecordFields {
		return fmt.Errorf("%w: expected %d fields, found %d", ErrMalformedRecord, model.RecordFields, len(fields))
	}
	return nil
}

// ValidateFields performs the field-level checks of the strict policy: IPv4
// addresses, numeric start/end with start not after end, and an ACCEPT or
// REJECT action. The record must already have passed ValidateLogEntry.
func ValidateFields(fields []string) error {
	if err := ValidateLogEntry(fields); err != nil {
		return err
	}
	for _, idx := range []int{model.IdxSrcAddr, model.IdxDstAddr} {
		addr, err := netip.ParseAddr(fields[idx])
		if err != nil || !addr.Is4() {
			return fmt.Errorf("%w: invalid IPv4 address %q", ErrMalformedRecord, fields[idx])
		}
	}
	start, err := strconv.ParseInt(fields[model.IdxStart], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid start time %q", ErrMalformedRecord, fields[model.IdxStart])
	}
	end, err := strconv.ParseInt(fields[model.IdxEnd], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid end time %q", ErrMalformedRecord, fields[model.IdxEnd])
	}
	if start > end {
		return fmt.Errorf("%w: start time %d after end time %d", ErrMalformedRecord, start, end)
	}
	switch fields[model.IdxAction] {
	case "ACCEPT", "REJECT":
	default:
		return fmt.Errorf("%w: invalid action %q", ErrMalformedRecord, fields[model.IdxAction])
	}
	return nil
}

// Policy selects how much of a record is checked before classification.
type Policy string

const (
	// PolicyStructural checks only the record width, plus port and protocol ranges.
	PolicyStructural Policy = "structural"
	// PolicyStrict adds the ValidateFields checks.
	PolicyStrict Policy = "strict"
)

// ParsePolicy maps a configured policy name to a Policy. Empty selects structural.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyStructural:
		return PolicyStructural, nil
	case PolicyStrict:
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("unknown validation policy %q: must be %s or %s", s, PolicyStructural, PolicyStrict)
	}
}

// Record applies the policy's record-level checks.
func (p Policy) Record(fields []string) error {
	if p == PolicyStrict {
		return ValidateFields(fields)
	}
	return ValidateLogEntry(fields)
}
