package main

import (
	"snow/cmd" // Import the cmd package which contains the CLI commands and execution logic
)

// main is the program entry point.
// It delegates to cmd.Execute() which handles command line argument parsing and execution.
//
// snow is a CLI wrapper around the nix, git and agenix commands used to manage a NixOS
// flake with git submodules:
//   - Rebuilds local and remote hosts, reading deployment defaults from each host's
//     `config.snow` attribute set
//   - Provisions Proxmox VMs from the flake and wires their host keys into the secrets
//   - Shows long-running builds as a single live progress bar instead of the raw nix log
//
// Errors are logged once and mapped to the process exit status by cmd.Execute.
func main() {
	cmd.Execute()
}
