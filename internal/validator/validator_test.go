package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRecord = "2 123456789012 eni-0a1b2c3d 10.0.1.201 198.51.100.2 49153 443 6 25 20000 1620140761 1620140821 ACCEPT OK"

func TestValidateProtocolNumber(t *testing.T) {
	for _, n := range []int{0, 6, 17, 255} {
		assert.NoError(t, ValidateProtocolNumber(n), "protocol %d", n)
	}
	for _, n := range []int{-1, 256, 1000} {
		err := ValidateProtocolNumber(n)
		var rangeErr *RangeError
		require.True(t, errors.As(err, &rangeErr), "protocol %d", n)
		assert.Equal(t, n, rangeErr.Value)
		assert.Equal(t, MaxProtocol, rangeErr.Max)
	}
}

func TestValidatePort(t *testing.T) {
	for _, n := range []int{0, 443, 65535} {
		assert.NoError(t, ValidatePort(n), "port %d", n)
	}
	for _, n := range []int{-1, 65536} {
		err := ValidatePort(n)
		var rangeErr *RangeError
		require.ErrorAs(t, err, &rangeErr)
		assert.Contains(t, err.Error(), "port number")
	}
}

func TestValidateLogEntry(t *testing.T) {
	assert.NoError(t, ValidateLogEntry(strings.Fields(sampleRecord)))
	assert.NoError(t, ValidateLogEntry(strings.Fields(sampleRecord+" extra")))

	err := ValidateLogEntry(strings.Fields("2 123456789012 eni-0a1b2c3d"))
	require.ErrorIs(t, err, ErrMalformedRecord)
	assert.Contains(t, err.Error(), "found 3")

	assert.ErrorIs(t, ValidateLogEntry(nil), ErrMalformedRecord)
}

func TestValidateFields(t *testing.T) {
	require.NoError(t, ValidateFields(strings.Fields(sampleRecord)))

	cases := map[string]string{
		"bad src addr": strings.Replace(sampleRecord, "10.0.1.201", "10.0.1", 1),
		"ipv6 dst":     strings.Replace(sampleRecord, "198.51.100.2", "2001:db8::1", 1),
		"bad start":    strings.Replace(sampleRecord, "1620140761", "soon", 1),
		"reversed":     strings.Replace(sampleRecord, "1620140761 1620140821", "1620140821 1620140761", 1),
		"bad action":   strings.Replace(sampleRecord, "ACCEPT", "DROP", 1),
		"too short":    "2 123456789012",
	}
	for name, record := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateFields(strings.Fields(record)), ErrMalformedRecord)
		})
	}
}

func TestPolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyStructural, p)

	p, err = ParsePolicy("strict")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, p)

	_, err = ParsePolicy("lenient")
	assert.Error(t, err)

	nodata := strings.Fields("2 123456789012 eni-0a1b2c3d - - - - - - - 1620140761 1620140821 - NODATA")
	assert.NoError(t, PolicyStructural.Record(nodata))
	assert.ErrorIs(t, PolicyStrict.Record(nodata), ErrMalformedRecord)
}
