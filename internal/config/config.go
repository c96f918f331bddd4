package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"FlowLogAnalyzer/internal/logging"
	"FlowLogAnalyzer/internal/validator"
)

// ErrInvalidPath is returned when a configured input file does not exist.
var ErrInvalidPath = errors.New("file path is invalid")

// InputConfig holds the paths of the three input files.
type InputConfig struct {
	ProtocolsFile string `yaml:"protocols_file"`
	LookupFile    string `yaml:"lookup_file"`
	FlowLogFile   string `yaml:"flow_log_file"`
}

// OutputConfig holds the report destinations.
type OutputConfig struct {
	Dir              string `yaml:"dir"`
	TagCountFile     string `yaml:"tag_count_file"`
	PortProtocolFile string `yaml:"port_protocol_file"`
}

// ValidationConfig selects the record validation policy.
type ValidationConfig struct {
	Policy string `yaml:"policy"`
}

// LogConfig holds the logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}

// SummaryConfig holds the settings for the JSON summary writer.
type SummaryConfig struct {
	Path string `yaml:"path"`
}

// NATSConfig holds the settings for the NATS report publisher.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// WriterDef defines one additional report writer.
type WriterDef struct {
	Type    string        `yaml:"type"`
	Enabled bool          `yaml:"enabled"`
	Summary SummaryConfig `yaml:"summary"`
	NATS    NATSConfig    `yaml:"nats"`
}

// MetricsConfig holds the Prometheus textfile settings.
type MetricsConfig struct {
	Enabled      bool   `yaml:"enabled"`
	TextfilePath string `yaml:"textfile_path"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Input      InputConfig      `yaml:"input"`
	Output     OutputConfig     `yaml:"output"`
	Validation ValidationConfig `yaml:"validation"`
	Log        LogConfig        `yaml:"log"`
	Writers    []WriterDef      `yaml:"writers"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// Default returns the configuration used when no file is given. Report paths
// are left empty so Validate derives them from the output directory.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			ProtocolsFile: "input/protocols.csv",
			LookupFile:    "input/lookup.csv",
			FlowLogFile:   "input/flowlogs.txt",
		},
		Output:     OutputConfig{Dir: "output"},
		Validation: ValidationConfig{Policy: string(validator.PolicyStructural)},
		Log:        LogConfig{Level: "info"},
	}
}

// LoadConfig reads the configuration from a YAML file on top of the defaults.
// The result is not validated; call Validate once overrides are applied.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	return cfg, nil
}

// Policy returns the configured validation policy.
func (c *Config) Policy() validator.Policy {
	p, err := validator.ParsePolicy(c.Validation.Policy)
	if err != nil {
		return validator.PolicyStructural
	}
	return p
}

// Validate fills derived defaults and checks the configuration, including that
// every input file exists.
func (c *Config) Validate() error {
	if c.Output.Dir == "" {
		c.Output.Dir = "output"
	}
	if c.Output.TagCountFile == "" {
		c.Output.TagCountFile = filepath.Join(c.Output.Dir, "tagcount.csv")
	}
	if c.Output.PortProtocolFile == "" {
		c.Output.PortProtocolFile = filepath.Join(c.Output.Dir, "portprotocol.csv")
	}

	if _, err := validator.ParsePolicy(c.Validation.Policy); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}

	for i := range c.Writers {
		w := &c.Writers[i]
		if !w.Enabled {
			continue
		}
		switch w.Type {
		case "summary":
			if w.Summary.Path == "" {
				w.Summary.Path = filepath.Join(c.Output.Dir, "summary.json")
			}
		case "nats":
			if w.NATS.URL == "" || w.NATS.Subject == "" {
				return fmt.Errorf("nats writer requires url and subject")
			}
		}
	}
	if c.Metrics.Enabled && c.Metrics.TextfilePath == "" {
		c.Metrics.TextfilePath = filepath.Join(c.Output.Dir, "flowlog_analyzer.prom")
	}

	if err := validateFileExists(c.Input.ProtocolsFile, "Protocols"); err != nil {
		return err
	}
	if err := validateFileExists(c.Input.LookupFile, "Lookup"); err != nil {
		return err
	}
	return validateFileExists(c.Input.FlowLogFile, "Flow Log")
}

func validateFileExists(path, kind string) error {
	if path == "" {
		return fmt.Errorf("%s %w: %q", kind, ErrInvalidPath, path)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%s %w: %s", kind, ErrInvalidPath, path)
	}
	return nil
}
