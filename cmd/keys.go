package cmd

import (
	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage SSH host keys stored in the flake",
}

// keysImportCmd copies host keys out of an archive into the keys directory.
var keysImportCmd = &cobra.Command{
	Use:   "import <archive>",
	Short: "Import ssh_host_*_ed25519_key.pub files from a .zip, .7z or .tar.* archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.ImportKeys(args[0])
	},
}

func init() {
	keysCmd.AddCommand(keysImportCmd)
	rootCmd.AddCommand(keysCmd)
}
