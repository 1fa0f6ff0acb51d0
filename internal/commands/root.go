package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hbc-dev/hbc/internal/buildinfo"
	"github.com/hbc-dev/hbc/internal/config"
	"github.com/hbc-dev/hbc/internal/logging"
)

// ConfigEnv names the environment variable holding the default config path.
const ConfigEnv = "HBC_CONFIG"

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func (o *globalOptions) logger(cmd *cobra.Command) (zerolog.Logger, error) {
	return logging.New(cmd.ErrOrStderr(), logging.Options{Level: o.logLevel, Format: o.logFormat})
}

func (o *globalOptions) load(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	log, err := o.logger(cmd)
	if err != nil {
		return nil, log, err
	}
	cfg, err := config.Load(o.configPath, log)
	if err != nil {
		return nil, log, fmt.Errorf("loading config: %w", err)
	}
	return cfg, log, nil
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "hbc",
		Short:   "Convert bank CSV exports into HomeBank imports",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", os.Getenv(ConfigEnv), "config file (default $HOME/.hbc/config.yaml)")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", logging.FormatConsole, "log format (console, json)")

	rootCmd.AddCommand(newConvertCommand(opts))
	rootCmd.AddCommand(newWatchCommand(opts))
	rootCmd.AddCommand(newInitCommand(opts))
	rootCmd.AddCommand(newConfigCommand(opts))

	return rootCmd
}
