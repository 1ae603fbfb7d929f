package cmd

import (
	"github.com/spf13/cobra"

	"snow/internal/commands"
)

var provisionOpts commands.ProvisionOptions

// provisionCmd creates a new virtual machine and imports it into Proxmox.
var provisionCmd = &cobra.Command{
	Use:   "provision <vm-configuration>",
	Short: "Create a new virtual machine and import it in Proxmox",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Provision(args[0], provisionOpts)
	},
}

// vmsCmd lists the VMs provisioned so far.
var vmsCmd = &cobra.Command{
	Use:   "vms",
	Short: "List the VMs provisioned by snow",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.VMs()
	},
}

func init() {
	provisionCmd.Flags().BoolVarP(&provisionOpts.LoginAfter, "login-after-setup", "l", false, "SSH into the newly created VM after setup is complete")
	provisionCmd.Flags().BoolVarP(&provisionOpts.RebuildLocal, "rebuild-host-machine", "r", false, "Rebuild the current host afterwards, making the VM's SSH handle available")

	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(vmsCmd)
}
