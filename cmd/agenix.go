package cmd

import (
	"github.com/spf13/cobra"
)

var rekeyForce, rekeyDummy bool

// agenixCmd groups secrets management.
var agenixCmd = &cobra.Command{
	Use:   "agenix",
	Short: "Secrets management",
}

var agenixUpdateMasterkeysCmd = &cobra.Command{
	Use:   "update-masterkeys",
	Short: "Update all secrets with a new set of masterkeys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.AgenixUpdateMasterkeys()
	},
}

var agenixEditCmd = &cobra.Command{
	Use:   "edit <file>",
	Short: "Edit the given secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.AgenixEdit(args[0])
	},
}

var agenixRekeyCmd = &cobra.Command{
	Use:   "rekey",
	Short: "Rekey all secrets for the hosts requiring them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.AgenixRekey(rekeyForce, rekeyDummy)
	},
}

func init() {
	agenixRekeyCmd.Flags().BoolVarP(&rekeyForce, "force", "f", false, "Rekey secrets even if the applicable keys have not changed")
	agenixRekeyCmd.Flags().BoolVarP(&rekeyDummy, "dummy", "d", false, "Use a dummy key if no public key exists for a host")
	agenixRekeyCmd.MarkFlagsMutuallyExclusive("force", "dummy")

	agenixCmd.AddCommand(agenixUpdateMasterkeysCmd, agenixEditCmd, agenixRekeyCmd)
	rootCmd.AddCommand(agenixCmd)
}
