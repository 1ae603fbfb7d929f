package cmd

import (
	"github.com/spf13/cobra"

	"snow/internal/commands"
)

var rebuildOpts commands.RebuildOptions
var rebuildMode string

// rebuildCmd deploys a nixosConfiguration, defaulting to the current host.
var rebuildCmd = &cobra.Command{
	Use:   "rebuild [nixos-configuration]",
	Short: "Rebuild the config for a given host, defaulting to the current host",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := commands.ParseRebuildMode(rebuildMode)
		if err != nil {
			return err
		}
		rebuildOpts.Mode = mode
		return app.Rebuild(optionalArg(args), rebuildOpts)
	},
}

// homeCmd switches the HomeManager configuration.
var homeCmd = &cobra.Command{
	Use:   "home [user@host]",
	Short: "Rebuild only the HomeManager config for the current user and host",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Home(optionalArg(args))
	},
}

// optionalArg returns the first positional argument, or "" when none was given.
func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func init() {
	flags := rebuildCmd.Flags()
	flags.StringVarP(&rebuildMode, "mode", "m", string(commands.ModeSwitch), "Rebuild mode: switch, test, boot or build")
	flags.StringVarP(&rebuildOpts.TargetHost, "target-host", "t", "", "Target host. Defaults to the value in the nix config")
	flags.StringVarP(&rebuildOpts.BuildHost, "build-host", "b", "", "Build host. Defaults to the value in the nix config")
	flags.BoolVarP(&rebuildOpts.BuildOnTarget, "build-on-target", "r", false, "Build directly on the target instead of the local machine")
	flags.BoolVarP(&rebuildOpts.UseRemoteSudo, "use-remote-sudo", "s", false, "Whether deployment requires sudo authentication on the target side")
	rebuildCmd.MarkFlagsMutuallyExclusive("build-host", "build-on-target")

	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(homeCmd)
}
