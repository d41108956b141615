// Package cli provides the command-line interface for ifextract.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/ifextract/internal/cli/commands"
	"github.com/ccollicutt/ifextract/internal/cli/plugins"
	"github.com/ccollicutt/ifextract/pkg/config"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	rootCmd := NewRootCommand()

	// Check if the first argument might be a plugin command
	if len(os.Args) > 1 {
		potentialCommand := os.Args[1]
		// Skip flags (start with -)
		if len(potentialCommand) > 0 && potentialCommand[0] != '-' {
			if !isBuiltinCommand(rootCmd, potentialCommand) {
				if pluginPath, err := plugins.FindPlugin(potentialCommand); err == nil {
					pc, err := pluginContext(context.Background())
					if err != nil {
						_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
						return 2
					}
					return plugins.Execute(pluginPath, os.Args[2:], pc)
				}
				// Plugin not found - will fall through to Cobra which will show error
			}
		}
	}

	if err := rootCmd.Execute(); err != nil {
		if len(os.Args) > 1 {
			potentialCommand := os.Args[1]
			if len(potentialCommand) > 0 && potentialCommand[0] != '-' {
				if !isBuiltinCommand(rootCmd, potentialCommand) {
					_, _ = fmt.Fprintln(os.Stderr, plugins.FormatNotFoundError(potentialCommand))
					return 2
				}
			}
		}
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2 // Configuration or runtime error
	}
	return commands.ExitCode
}

// pluginContext loads the configuration named by IFEXTRACT_CONFIG (or the
// defaults) for a plugin run. Global flags are not parsed before a plugin
// name, so the environment is the only way to select a config.
func pluginContext(ctx context.Context) (plugins.Context, error) {
	path := os.Getenv(config.EnvConfigPath)
	cfg, err := config.LoadOrDefault(ctx, path)
	if err != nil {
		return plugins.Context{}, fmt.Errorf("loading config: %w", err)
	}
	return plugins.NewContext(path, cfg, commands.Version), nil
}

// isBuiltinCommand checks if a command name is a built-in cobra command.
func isBuiltinCommand(rootCmd *cobra.Command, name string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == name || cmd.HasAlias(name) {
			return true
		}
	}
	return name == "help" || name == "completion"
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ifextract",
		Short: "Extract interface tables from device session logs",
		Long: `ifextract reads a saved terminal session from a network device and builds
one table of per-interface metadata.

It merges two sections of the transcript by interface name:
  - display current-configuration (address, VLAN, VPN instance, description)
  - display interface (admin/link state, speed, optics, CRC errors)

Fields that could not be found are filled with a "not captured" marker
instead of failing the run.

PLUGINS:
  ifextract supports plugins for extended functionality. Plugins are standalone
  binaries named ifextract-<command> that are automatically discovered and invoked.

  Plugins run with IFEXTRACT_CONFIG, IFEXTRACT_SENTINEL, IFEXTRACT_LOG_LEVEL and
  the section markers set from the effective configuration.

  Plugin locations (searched in order):
    1. Same directory as the ifextract binary
    2. ~/.ifextract/plugins/
    3. Anywhere in PATH

  Available plugins:
    collect  Capture display output from devices over SSH`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&commands.Global.ConfigPath, "config", "c", os.Getenv(config.EnvConfigPath), "Configuration file (default $"+config.EnvConfigPath+"; defaults apply when unset)")
	rootCmd.PersistentFlags().StringVar(&commands.Global.LogLevel, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(commands.NewExtractCommand())
	rootCmd.AddCommand(commands.NewDetectCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(commands.NewHistoryCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
