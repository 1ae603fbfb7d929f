package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"snow/internal/logger"
	"snow/internal/snowerr"
)

// DefaultPath returns $XDG_CONFIG_HOME/snow/config.yaml, falling back to ~/.config.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".config", "snow", "config.yaml")
	}
	return filepath.Join(dir, "snow", "config.yaml")
}

// defaultStateFile returns $XDG_STATE_HOME/snow/state.json, falling back to ~/.local/state.
func defaultStateFile() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "snow", "state.json")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "snow-state.json"
	}
	return filepath.Join(home, ".local", "state", "snow", "state.json")
}

// Defaults returns the settings used when no config file exists.
func Defaults() Settings {
	return Settings{
		Flake:           ".",
		Submodules:      true,
		KeysDir:         filepath.Join("vms", "keys"),
		StateFile:       defaultStateFile(),
		KeyscanInterval: 5 * time.Second,
	}
}

// LoadSettings reads the settings file at path. Fields missing from the file keep their
// defaults, and a missing file yields Defaults().
func LoadSettings(path string) (Settings, error) {
	settings := Defaults()

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("No settings file at %s, using defaults", path)
		return settings, nil
	}
	if err != nil {
		return settings, snowerr.Wrap(snowerr.KindConfig, err, "failed to read "+path)
	}
	if err := yaml.Unmarshal(raw, &settings); err != nil {
		return settings, snowerr.Wrap(snowerr.KindConfig, err, "failed to unmarshal "+path)
	}
	if err := settings.validate(); err != nil {
		return settings, err
	}
	logger.Debug("Loaded settings from %s", path)
	return settings, nil
}

func (s Settings) validate() error {
	switch {
	case s.Flake == "":
		return snowerr.Config("flake must not be empty")
	case s.KeysDir == "":
		return snowerr.Config("keys_dir must not be empty")
	case s.StateFile == "":
		return snowerr.Config("state_file must not be empty")
	case s.KeyscanInterval <= 0:
		return snowerr.Configf("keyscan_interval must be positive, got %s", s.KeyscanInterval)
	}
	return nil
}

// Ref returns the flake reference for attr, e.g. `.?submodules=1#nixosConfigurations.vm`.
func (s Settings) Ref(attr string) string {
	if s.Submodules {
		return s.Flake + "?submodules=1#" + attr
	}
	return s.Flake + "#" + attr
}
