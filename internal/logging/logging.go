package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// SupportedLevels lists the accepted level names for help text.
const SupportedLevels = "debug, info, warn, error"

// Configure sets the level and formatter of the standard logrus logger. Output
// goes to stderr so reports written to stdout stay clean.
func Configure(level string) error {
	return ConfigureOutput(level, os.Stderr)
}

// ConfigureOutput is Configure with an explicit destination.
func ConfigureOutput(level string, out io.Writer) error {
	l, err := ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetOutput(out)
	log.SetLevel(l)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	return nil
}

// ParseLevel maps a configured level name to a logrus level.
func ParseLevel(level string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel, nil
	case "info", "":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("invalid log level %q: must be one of %s", level, SupportedLevels)
	}
}
