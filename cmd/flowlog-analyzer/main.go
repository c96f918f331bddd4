package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"FlowLogAnalyzer/internal/config"
	"FlowLogAnalyzer/internal/engine/manager"
	"FlowLogAnalyzer/internal/logging"
	"FlowLogAnalyzer/internal/protocol"
)

const defaultConfigPath = "configs/config.yaml"

type runOptions struct {
	configPath       string
	protocolsFile    string
	lookupFile       string
	flowLogFile      string
	outputDir        string
	tagCountFile     string
	portProtocolFile string
	logLevel         string
	policy           string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "flowlog-analyzer",
		Short:         "Tag VPC flow-log records by destination port and protocol",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	run := newRunCommand()
	root.AddCommand(run, newGenProtocolsCommand())
	// Running with no subcommand behaves like "run".
	root.RunE = run.RunE
	root.Flags().AddFlagSet(run.Flags())
	return root
}

func newRunCommand() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Classify a flow-log file and write the tag and port/protocol reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
				return err
			}
			if err := logging.Configure(cfg.Log.Level); err != nil {
				fmt.Fprintf(os.Stderr, "invalid log level: %v\n", err)
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			m, err := manager.NewManager(cfg)
			if err != nil {
				log.WithError(err).Error("Failed to create manager")
				return err
			}
			if _, err := m.Run(ctx); err != nil {
				log.WithError(err).Error("Flow log records analyzer failed")
				return err
			}
			log.Info("Flow log records analyzer completed successfully")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "Path to the YAML config file")
	flags.StringVar(&opts.protocolsFile, "protocols", "", "Protocols CSV (overrides config)")
	flags.StringVar(&opts.lookupFile, "lookup", "", "Lookup CSV (overrides config)")
	flags.StringVar(&opts.flowLogFile, "flow-logs", "", "Flow-log file (overrides config)")
	flags.StringVar(&opts.outputDir, "output-dir", "", "Output directory (overrides config)")
	flags.StringVar(&opts.tagCountFile, "tag-output", "", "Tag count report path (overrides config)")
	flags.StringVar(&opts.portProtocolFile, "port-protocol-output", "", "Port/protocol report path (overrides config)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: "+logging.SupportedLevels)
	flags.StringVar(&opts.policy, "policy", "", "Validation policy: structural or strict")
	return cmd
}

// loadConfig reads the config file, falling back to defaults when the default
// path is absent, then applies flag overrides and validates the result.
func loadConfig(cmd *cobra.Command, opts *runOptions) (*config.Config, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		if cmd.Flags().Changed("config") || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = config.Default()
	}

	overrides := []struct {
		value  string
		target *string
	}{
		{opts.protocolsFile, &cfg.Input.ProtocolsFile},
		{opts.lookupFile, &cfg.Input.LookupFile},
		{opts.flowLogFile, &cfg.Input.FlowLogFile},
		{opts.outputDir, &cfg.Output.Dir},
		{opts.tagCountFile, &cfg.Output.TagCountFile},
		{opts.portProtocolFile, &cfg.Output.PortProtocolFile},
		{opts.logLevel, &cfg.Log.Level},
		{opts.policy, &cfg.Validation.Policy},
	}
	for _, o := range overrides {
		if o.value != "" {
			*o.target = o.value
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newGenProtocolsCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "gen-protocols",
		Short: "Write a protocols CSV from the IANA protocol registry",
		RunE: func(*cobra.Command, []string) error {
			n, err := protocol.GenerateFile(out)
			if err != nil {
				log.WithError(err).Error("Failed to generate protocols file")
				return err
			}
			log.WithField("file", out).Infof("Wrote %d protocols", n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "input/protocols.csv", "Destination file")
	return cmd
}
