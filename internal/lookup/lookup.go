package lookup

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"FlowLogAnalyzer/internal/model"
	"FlowLogAnalyzer/internal/validator"
)

// LookupTable maps (port, protocol) combinations to tags.
type LookupTable struct {
	tags map[model.PortProtocolKey]string
}

// NewLookupTable builds a table from an existing mapping.
func NewLookupTable(tags map[model.PortProtocolKey]string) *LookupTable {
	t := &LookupTable{tags: make(map[model.PortProtocolKey]string, len(tags))}
	for k, tag := range tags {
		t.tags[k] = tag
	}
	return t
}

// Tag resolves a combination, returning "Untagged" when absent.
func (t *LookupTable) Tag(key model.PortProtocolKey) string {
	if tag, ok := t.tags[key]; ok {
		return tag
	}
	return model.UntaggedTag
}

// Len returns the number of loaded combinations.
func (t *LookupTable) Len() int {
	return len(t.tags)
}

// LoadLookupTable reads a `dstport,protocol,tag` CSV from disk.
func LoadLookupTable(path string) (*LookupTable, error) {
	log.WithField("file", path).Info("Loading lookup table")
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open lookup file: %w", err)
	}
	defer file.Close()

	table, err := ReadLookupTable(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read lookup file '%s': %w", path, err)
	}
	log.Infof("Loaded %d lookup entries", table.Len())
	return table, nil
}

// ReadLookupTable parses lookup rows after a header line. The protocol column is
// lowercased and the tag is kept as written. Rows that are blank, short, or carry
// an invalid port are logged and skipped. Later rows win on duplicate keys.
func ReadLookupTable(r io.Reader) (*LookupTable, error) {
	table := &LookupTable{tags: make(map[model.PortProtocolKey]string)}
	lineNo := 1
	err := scanRows(r, func(line string) {
		lineNo++
		if strings.TrimSpace(line) == "" {
			return
		}
		entry := log.WithFields(log.Fields{"line": lineNo, "entry": line})
		parts := strings.Split(line, ",")
		if len(parts) < 3 {
			entry.Warn("Skipping lookup entry with missing columns")
			return
		}
		port, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			entry.WithError(err).Warn("Skipping lookup entry with invalid port")
			return
		}
		if err := validator.ValidatePort(port); err != nil {
			entry.WithError(err).Warn("Skipping lookup entry with invalid port")
			return
		}
		key := model.PortProtocolKey{Port: port, Protocol: strings.ToLower(strings.TrimSpace(parts[1]))}
		table.tags[key] = parts[2]
	})
	return table, err
}
