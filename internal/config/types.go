package config

import "time"

// Settings holds the user's snow settings, read from config.yaml.
//   - Flake: flake reference every attribute is resolved against (usually ".").
//   - Submodules: whether git submodules are part of the flake (`?submodules=1`).
//   - KeysDir: where host public keys live inside the flake.
//   - StateFile: JSON file recording provisioned VMs.
//   - KeyscanInterval: how long to wait between ssh-keyscan attempts while a VM boots.
type Settings struct {
	Flake           string        `yaml:"flake"`
	Submodules      bool          `yaml:"submodules"`
	KeysDir         string        `yaml:"keys_dir"`
	StateFile       string        `yaml:"state_file"`
	KeyscanInterval time.Duration `yaml:"keyscan_interval"`
}

// SnowConfig is the `config.snow` attribute set of a nixosConfiguration. It is produced by
// `nix eval --json`, so field names are camelCase.
type SnowConfig struct {
	Tags            []string  `yaml:"tags"`
	UseRemoteSudo   bool      `yaml:"useRemoteSudo"`
	AskSudoPassword bool      `yaml:"askSudoPassword"`
	BuildOnTarget   bool      `yaml:"buildOnTarget"`
	UseSubstitutes  bool      `yaml:"useSubstitutes"`
	TargetHost      string    `yaml:"targetHost"` // empty when not set
	BuildHost       string    `yaml:"buildHost"`  // empty when not set
	VM              *VMConfig `yaml:"vm"`
}

// VMConfig describes a Proxmox VM as declared in the snow config. Every field is optional
// in nix; Resolve checks that all of them are present.
type VMConfig struct {
	ID                *int    `yaml:"id"`
	IP                *string `yaml:"ip"`
	ProxmoxHost       *string `yaml:"proxmoxHost"`
	ProxmoxImageStore *string `yaml:"proxmoxImageStore"`
	ResizeDiskTo      *string `yaml:"resizeDiskTo"`
}

// VM is a fully specified VMConfig.
type VM struct {
	ID                int
	IP                string
	ProxmoxHost       string
	ProxmoxImageStore string
	ResizeDiskTo      string
}
