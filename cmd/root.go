package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"snow/internal/commands"
	"snow/internal/config"
	"snow/internal/logger"
	"snow/internal/runner"
	"snow/internal/snowerr"
)

// version is overridden at build time with -ldflags "-X snow/cmd.version=...".
var version = "dev"

// verbose enables debug logging and shows the raw output of every tool.
// It can be toggled via the `--verbose` command-line flag.
var verbose bool

// configPath holds the path to the settings YAML file.
var configPath string

// app is the command layer shared by all subcommands. It is built in PersistentPreRunE,
// once flags are parsed.
var app *commands.Snow

// rootCmd is the base command for the CLI tool `snow`.
var rootCmd = &cobra.Command{
	Use:           "snow",
	Short:         "CLI wrapper for commonly used nix, git and agenix commands",
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,

	// PersistentPreRunE runs before any subcommand: it sets up logging and loads the
	// settings the subcommands work with.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Init(verbose)
		settings, err := config.LoadSettings(configPath)
		if err != nil {
			return err
		}
		app = commands.New(runner.New(verbose), settings)
		return nil
	},
}

// Execute registers flags, runs the selected subcommand and exits with a status derived
// from the kind of failure.
func Execute() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose debug logging, akin to --show-trace")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to the snow settings file")

	if err := rootCmd.Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(snowerr.ExitCode(err))
	}
}
