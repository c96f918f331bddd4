// Package protocol builds protocol reference tables from gopacket's IANA
// protocol registry.
package protocol

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/gopacket/layers"
)

// unknownName is the placeholder gopacket assigns to unregistered protocol numbers.
const unknownName = "UnknownIPProtocol"

// Entry is one protocol number and its registry name.
type Entry struct {
	Number int
	Name   string
}

// Known returns the protocols gopacket can name, ordered by number.
func Known() []Entry {
	var entries []Entry
	for n := 0; n <= 255; n++ {
		name := layers.IPProtocol(n).String()
		if name == "" || name == unknownName {
			continue
		}
		entries = append(entries, Entry{Number: n, Name: name})
	}
	return entries
}

// WriteCSV writes entries in the protocols file format read by the analyzer.
func WriteCSV(w io.Writer, entries []Entry) error {
	var b strings.Builder
	b.WriteString("Decimal,Keyword\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%d,%s\n", e.Number, e.Name)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// GenerateFile writes the known protocols to path, replacing it.
func GenerateFile(path string) (int, error) {
	entries := Known()
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create protocols file: %w", err)
	}
	defer file.Close()

	if err := WriteCSV(file, entries); err != nil {
		return 0, fmt.Errorf("failed to write protocols file '%s': %w", path, err)
	}
	return len(entries), nil
}
