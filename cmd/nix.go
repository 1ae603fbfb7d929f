package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cleanRebuild bool
	evalJSON     bool
	evalRaw      bool
)

var updateCmd = &cobra.Command{
	Use:   "update [input]",
	Short: "Update a flake input. If none given, update all flake inputs",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Update(optionalArg(args))
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Collect garbage for NixOS and HomeManager",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Clean(cleanRebuild)
	},
}

var fmtCmd = &cobra.Command{
	Use:   "fmt",
	Short: "Run nix fmt",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Fmt()
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run nix flake check",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Check()
	},
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Enter the nix repl, preloading the current flake including submodules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Repl()
	},
}

var evalCmd = &cobra.Command{
	Use:   "eval <expression>",
	Short: "Evaluate the given nix expression",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Eval(args[0], evalJSON, evalRaw)
	},
}

var shellCmd = &cobra.Command{
	Use:   "shell <package>...",
	Short: "Enter a nix shell with the given packages installed",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Shell(args)
	},
}

var developCmd = &cobra.Command{
	Use:   "develop [shell-name]",
	Short: "Enter the default shell specified in the current flake.nix, or the shell specified",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Develop(optionalArg(args))
	},
}

var buildCmd = &cobra.Command{
	Use:   "build [output]",
	Short: "Build a flake output, defaulting to `default`",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Build(optionalArg(args))
	},
}

var runCmd = &cobra.Command{
	Use:   "run [output]",
	Short: "Run a flake output, defaulting to `default`",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Run(optionalArg(args))
	},
}

var hashCmd = &cobra.Command{
	Use:   "hash <output>",
	Short: "Print the hash nix computes for a fixed-output derivation with a placeholder hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Hash(args[0])
	},
}

var bumpCmd = &cobra.Command{
	Use:   "bump",
	Short: "Bump versions referenced throughout the flake",
}

var bumpPythonCmd = &cobra.Command{
	Use:   "python <version>",
	Short: "Replace every python3XY reference with the given version, e.g. 3.12",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.BumpPython(args[0])
	},
}

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Query the nix store",
}

var storeReferrersCmd = &cobra.Command{
	Use:   "referrers <derivation>",
	Short: "List the referrers closure of a store path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.StoreReferrers(args[0])
	},
}

func init() {
	cleanCmd.Flags().BoolVarP(&cleanRebuild, "rebuild", "r", false, "Perform a rebuild afterwards")
	evalCmd.Flags().BoolVarP(&evalJSON, "json", "j", false, "Format output as JSON")
	evalCmd.Flags().BoolVarP(&evalRaw, "raw", "r", false, "Force output to only contain un-escaped strings")
	evalCmd.MarkFlagsMutuallyExclusive("json", "raw")

	bumpCmd.AddCommand(bumpPythonCmd)
	storeCmd.AddCommand(storeReferrersCmd)
	rootCmd.AddCommand(updateCmd, cleanCmd, fmtCmd, checkCmd, replCmd, evalCmd, shellCmd,
		developCmd, buildCmd, runCmd, hashCmd, bumpCmd, storeCmd)
}
