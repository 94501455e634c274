package main

import (
	"FlowTagger/internal/config"
	"FlowTagger/internal/logger"
	"FlowTagger/internal/pipeline"
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "configs/config.yaml"

var log = logger.MustGetLogger("ft-report")

type options struct {
	configPath string
	protocols  string
	lookup     string
	flows      string
	tagOut     string
	portOut    string
	sanitize   string
	logLevel   string
	logFile    string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "ft-report",
		Short:         "Classify a flow log by port and protocol and write tag and port/protocol count reports",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := run(cmd, opts)
			if err != nil {
				log.Errorf("An error occurred: %v", err)
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "path to the YAML config file")
	flags.StringVar(&opts.protocols, "protocols", "", "protocol number table CSV (empty config value selects the builtin table)")
	flags.StringVar(&opts.lookup, "lookup", "", "lookup table CSV")
	flags.StringVar(&opts.flows, "flows", "", "flow log file")
	flags.StringVar(&opts.tagOut, "tag-out", "", "tag count report destination")
	flags.StringVar(&opts.portOut, "port-out", "", "port/protocol count report destination")
	flags.StringVar(&opts.sanitize, "sanitize", "", "input cleaning mode: stream, inplace or off")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (DEBUG, INFO, WARNING, ERROR)")
	flags.StringVar(&opts.logFile, "log-file", "", "rotating log file path")
	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(opts.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	applyFlags(cmd, opts, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logger.InitLog(cfg.Log); err != nil {
		return err
	}

	runner, err := pipeline.NewRunner(cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	_, err = runner.Run()
	return err
}

// loadConfig reads path. The default path is optional; an explicit one is not.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	if !explicit {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return config.Default(), nil
		}
	}
	return config.LoadConfig(path)
}

func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) {
	flags := cmd.Flags()
	set := func(name string, dst *string, value string) {
		if flags.Changed(name) {
			*dst = value
		}
	}
	set("protocols", &cfg.Inputs.ProtocolTable, opts.protocols)
	set("lookup", &cfg.Inputs.LookupTable, opts.lookup)
	set("flows", &cfg.Inputs.FlowLog, opts.flows)
	set("tag-out", &cfg.Reports.TagCounts, opts.tagOut)
	set("port-out", &cfg.Reports.PortProtocolCounts, opts.portOut)
	set("sanitize", &cfg.Sanitize, opts.sanitize)
	set("log-level", &cfg.Log.Level, opts.logLevel)
	set("log-file", &cfg.Log.File, opts.logFile)
}
