// Command leadsuite runs the lead-creation suite outside go test, serves the stub CRM and
// inspects or generates lead fixtures.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gate4ai/leadsuite/shared/config"
	"github.com/gate4ai/leadsuite/shared/logging"
)

var (
	version = "dev"
	commit  = "none"
)

type rootOptions struct {
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "leadsuite",
		Short:         "Data-driven lead creation suite for the CRM",
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to config.yaml (default: search . and testdata/)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the configured log level")

	root.AddCommand(newRunCmd(opts), newStubCmd(opts), newFixtureCmd())
	return root
}

// load reads the suite configuration and builds its logger.
func (o *rootOptions) load() (*config.Suite, *zap.Logger, error) {
	opts := config.DefaultOptions()
	opts.ConfigFile = o.configFile
	cfg, err := config.Load(opts)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.Log.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	logger, err := logging.New(level, cfg.Log.Development)
	if err != nil {
		return nil, nil, err
	}
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}
	return cfg, logger, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
