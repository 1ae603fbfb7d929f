package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadState_MissingFile(t *testing.T) {
	st := LoadState(filepath.Join(t.TempDir(), "state.json"))
	require.NotNil(t, st.VMs)
	assert.Empty(t, st.VMs)
}

func TestLoadState_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	st := LoadState(path)
	require.NotNil(t, st.VMs)
	assert.Empty(t, st.VMs)
}

func TestSaveState_RoundTripCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "snow", "state.json")
	at := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	st := LoadState(path)
	st.Record("web", VMState{ID: 120, IP: "10.0.0.20", ProxmoxHost: "pve", PublicKey: "ssh-ed25519 AAAA web", ProvisionedAt: at})
	st.Record("db", VMState{ID: 121, IP: "10.0.0.21", ProxmoxHost: "pve"})
	require.NoError(t, SaveState(path, st))

	loaded := LoadState(path)
	assert.Equal(t, []string{"db", "web"}, loaded.Names())
	assert.Equal(t, st.VMs["web"], loaded.VMs["web"])
}
