package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"FlowLogAnalyzer/internal/model"
)

// CSVWriter writes the tag and port/protocol reports as CSV files.
// It implements the model.Writer interface.
type CSVWriter struct {
	tagPath          string
	portProtocolPath string
}

// NewCSVWriter creates a writer for the two report files.
func NewCSVWriter(tagPath, portProtocolPath string) *CSVWriter {
	return &CSVWriter{tagPath: tagPath, portProtocolPath: portProtocolPath}
}

func (w *CSVWriter) Name() string {
	return "csv"
}

// Write replaces both report files. A report whose file cannot be created is
// reported as an error; the other report is still written.
func (w *CSVWriter) Write(_ context.Context, snapshot *model.Snapshot) error {
	log.WithField("file", w.tagPath).Info("Writing tag count output")
	tagErr := writeReportFile(w.tagPath, TagHeader, TagReportRows(snapshot))

	log.WithField("file", w.portProtocolPath).Info("Writing port protocol output")
	portErr := writeReportFile(w.portProtocolPath, PortProtocolHeader, PortProtocolReportRows(snapshot))

	return errors.Join(tagErr, portErr)
}

func writeReportFile(path, header string, rows []string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file '%s': %w", path, err)
	}
	written := writeRows(file, path, header, rows)
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close report file '%s': %w", path, err)
	}
	log.WithField("file", path).Debugf("Wrote %d rows", written)
	return nil
}

// writeRows writes the header and every row, logging rows that fail and
// continuing with the rest. It returns the number of rows written.
func writeRows(out io.Writer, dest, header string, rows []string) int {
	if _, err := io.WriteString(out, header+"\n"); err != nil {
		log.WithError(err).WithField("file", dest).Error("Error writing report header")
	}
	written := 0
	for _, row := range rows {
		if _, err := io.WriteString(out, row+"\n"); err != nil {
			log.WithError(err).WithFields(log.Fields{"file": dest, "row": row}).Error("Error writing report row")
			continue
		}
		written++
	}
	return written
}
