// Package cli provides the command-line interface for pkgdesc.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/git-pkgs/pkgdesc/internal/config"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// configKey is used to store config in context.
type configKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "pkgdesc",
		Short: "Inspect, validate and resolve a Python package descriptor",
		Long: `pkgdesc works with the static descriptor of a Python distribution:
its name, version, description and pinned install requirements.

It validates the descriptor, discovers the packages it ships, renders
setup.py and core metadata, and checks every requirement against PyPI.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			logger, err := config.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			if cfg.File != "" {
				logger.Debug("using config file", "path", cfg.File)
			}

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			cmd.SetContext(config.WithLogger(ctx, logger))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./pkgdesc.yaml)")
	pf.StringP("descriptor", "d", "", "descriptor YAML file (default: built-in trainer descriptor)")
	pf.String("root", "", "source tree searched for packages")
	pf.StringSlice("exclude", nil, "package name patterns to leave out of discovery")
	pf.StringP("output", "o", "", "output format (text|json|yaml)")
	pf.String("log-level", "", "log level (debug|info|warn|error)")
	pf.String("log-format", "", "log format (text|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newShowCommand())
	rootCmd.AddCommand(newCheckCommand())
	rootCmd.AddCommand(newPackagesCommand())
	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newVerifyCommand())
	rootCmd.AddCommand(newDownloadCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// getConfig retrieves the config from the command context.
func getConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		Root:            ".",
		RegistryURL:     config.DefaultRegistryURL,
		Timeout:         config.DefaultTimeout,
		DownloadTimeout: config.DefaultDownloadTimeout,
		MaxRetries:      config.DefaultMaxRetries,
		Concurrency:     config.DefaultConcurrency,
		Output:          config.DefaultOutput,
		LogLevel:        config.DefaultLogLevel,
		LogFormat:       config.DefaultLogFormat,
		Dest:            config.DefaultDest,
	}
}

// addRegistryFlags registers the flags used by commands that talk to PyPI.
func addRegistryFlags(cmd *cobra.Command) {
	cmd.Flags().String("registry-url", "", "PyPI base URL")
	cmd.Flags().Duration("timeout", 0, "timeout per registry API request (default 30s)")
	cmd.Flags().Int("max-retries", 0, "retries on 429 and 5xx responses")
	cmd.Flags().Int("concurrency", 0, "parallel registry requests")
}
