package state

import (
	"encoding/json" // For JSON encoding and decoding of the state file
	"os"            // For file system operations like reading and writing files
	"path/filepath"
	"sort"
	"time"

	"snow/internal/logger"
	"snow/internal/snowerr"
)

// VMState records a VM created by `snow provision`.
type VMState struct {
	ID            int       `json:"id"`             // Proxmox VM id
	IP            string    `json:"ip"`             // Address the host key was scanned from
	ProxmoxHost   string    `json:"proxmox_host"`   // SSH handle of the Proxmox node
	PublicKey     string    `json:"public_key"`     // ssh-ed25519 host key as written to the keys dir
	ProvisionedAt time.Time `json:"provisioned_at"` // When provisioning finished
}

// State holds everything snow remembers between runs, keyed by nixosConfiguration name.
type State struct {
	VMs map[string]VMState `json:"vms"`
}

// LoadState loads the saved state from a JSON file at the given path.
// If the file does not exist or cannot be parsed, it returns an empty state.
func LoadState(path string) *State {
	file, err := os.ReadFile(path)
	if err != nil {
		return &State{VMs: make(map[string]VMState)}
	}

	var st State
	if err := json.Unmarshal(file, &st); err != nil {
		logger.Warn("Ignoring unreadable state file %s: %v", path, err)
	}

	// Ensure the map is initialized if JSON contained null
	if st.VMs == nil {
		st.VMs = make(map[string]VMState)
	}
	return &st
}

// SaveState writes the state to path, creating its directory if necessary.
func SaveState(path string, st *State) error {
	file, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return snowerr.IO(err)
	}

	logger.Debug("Writing state to %s", path)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return snowerr.IO(err)
	}
	if err := os.WriteFile(path, file, 0o644); err != nil {
		return snowerr.IO(err)
	}
	return nil
}

// Record stores vm under name, replacing an earlier entry.
func (st *State) Record(name string, vm VMState) {
	st.VMs[name] = vm
}

// Names returns the recorded VM names in sorted order.
func (st *State) Names() []string {
	names := make([]string, 0, len(st.VMs))
	for name := range st.VMs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
