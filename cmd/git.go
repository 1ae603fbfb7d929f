package cmd

import (
	"github.com/spf13/cobra"
)

// submodulesOnly restricts git subcommands to the submodules.
var submodulesOnly bool

// gitCmd groups the git helpers. Every subcommand runs in all submodules first.
var gitCmd = &cobra.Command{
	Use:   "git",
	Short: "Interact with Git and Git submodules",
}

var gitPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull new changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.GitPull(submodulesOnly)
	},
}

var gitAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Stage all files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.GitAdd(submodulesOnly)
	},
}

var gitCommitCmd = &cobra.Command{
	Use:   "commit [message]",
	Short: "Stage and commit changes. Without a message, changes are amended to the previous commit",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.GitCommit(optionalArg(args), submodulesOnly)
	},
}

var gitPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push to remote. Uses --force-with-lease",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.GitPush(submodulesOnly)
	},
}

var gitAllCmd = &cobra.Command{
	Use:   "all [message]",
	Short: "Add, commit, push",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.GitAll(optionalArg(args), submodulesOnly)
	},
}

var gitInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize and check out all submodules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.GitInit()
	},
}

func init() {
	gitCmd.PersistentFlags().BoolVar(&submodulesOnly, "submodules-only", false, "Only act on the submodules")

	gitCmd.AddCommand(gitPullCmd, gitAddCmd, gitCommitCmd, gitPushCmd, gitAllCmd, gitInitCmd)
	rootCmd.AddCommand(gitCmd)
}
