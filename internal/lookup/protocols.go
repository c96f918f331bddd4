// Package lookup loads the reference tables used to classify flow-log records:
// protocol numbers to names, and (port, protocol) combinations to tags.
package lookup

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"FlowLogAnalyzer/internal/model"
)

// ProtocolTable maps protocol numbers to lowercase protocol names.
type ProtocolTable struct {
	names map[int]string
}

// NewProtocolTable builds a table from an existing mapping. Names are stored as given.
func NewProtocolTable(names map[int]string) *ProtocolTable {
	t := &ProtocolTable{names: make(map[int]string, len(names))}
	for n, name := range names {
		t.names[n] = name
	}
	return t
}

// Name resolves a protocol number, returning "unknown" when absent.
func (t *ProtocolTable) Name(number int) string {
	if name, ok := t.names[number]; ok {
		return name
	}
	return model.UnknownProtocol
}

// Len returns the number of loaded protocols.
func (t *ProtocolTable) Len() int {
	return len(t.names)
}

// LoadProtocols reads a protocols CSV from disk.
func LoadProtocols(path string) (*ProtocolTable, error) {
	log.WithField("file", path).Info("Loading protocols")
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open protocols file: %w", err)
	}
	defer file.Close()

	table, err := ReadProtocols(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read protocols file '%s': %w", path, err)
	}
	log.Infof("Loaded %d protocols", table.Len())
	return table, nil
}

// ReadProtocols parses `protocol_number,protocol_name,...` rows after a header
// line. Blank rows and rows with fewer than two columns are ignored; rows with a
// non-numeric protocol number are logged and skipped. Later rows win on
// duplicate numbers.
func ReadProtocols(r io.Reader) (*ProtocolTable, error) {
	table := &ProtocolTable{names: make(map[int]string)}
	lineNo := 1
	err := scanRows(r, func(line string) {
		lineNo++
		if strings.TrimSpace(line) == "" {
			return
		}
		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			return
		}
		number, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			log.WithFields(log.Fields{"line": lineNo, "entry": line}).Warn("Skipping invalid protocol entry")
			return
		}
		table.names[number] = strings.ToLower(strings.TrimSpace(parts[1]))
	})
	return table, err
}

// scanRows calls fn for each line after the header, with any trailing CR removed.
func scanRows(r io.Reader, fn func(line string)) error {
	scanner := bufio.NewScanner(r)
	header := true
	for scanner.Scan() {
		if header {
			header = false
			continue
		}
		fn(strings.TrimSuffix(scanner.Text(), "\r"))
	}
	return scanner.Err()
}
