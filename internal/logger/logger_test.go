package logger

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestLeveledOutput(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	defer SetOutput(prev)

	Info("built %d hosts", 2)
	Warn("careful")
	assert.Equal(t, "[❄ INFO] - built 2 hosts\n[❄ WARN] - careful\n", buf.String())
}

func TestInitTogglesDebug(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	defer SetOutput(prev)
	defer Init(false)

	Debug("hidden")
	assert.Empty(t, buf.String())

	Init(true)
	Debug("Running command: %s", "nix fmt")
	assert.Equal(t, "[❄ DEBUG] - Running command: nix fmt\n", buf.String())
}
