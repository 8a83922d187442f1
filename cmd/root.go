package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/agentic-research/quickdir/internal/config"
)

// version is set at build time with -ldflags "-X .../cmd.version=...".
var version = "dev"

var (
	cfgFile string
	cfg     = defaultConfig()
)

func defaultConfig() *config.Config {
	c := config.Default()
	return &c
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file (default .quickdir.yaml in . or $HOME)")
}

var rootCmd = &cobra.Command{
	Use:           "quickdir",
	Short:         "quickdir: expand directory layout declarations into trees",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded

		var logPath *string
		if cfg.Log.File != "" {
			logPath = &cfg.Log.File
		}
		commonlog.Configure(cfg.Log.Verbosity, logPath)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
