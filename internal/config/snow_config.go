package config

import (
	"strings"

	"gopkg.in/yaml.v3"

	"snow/internal/snowerr"
)

// SnowConfigAttr returns the attribute path of a host's snow config.
func SnowConfigAttr(host string) string {
	return "nixosConfigurations." + host + ".config.snow"
}

// ParseSnowConfig decodes the JSON printed by `nix eval --json`. JSON is valid YAML, so
// the same decoder as for the settings file is used.
func ParseSnowConfig(raw string) (SnowConfig, error) {
	var cfg SnowConfig
	if strings.TrimSpace(raw) == "" {
		return cfg, snowerr.Config("empty snow config")
	}
	if err := yaml.Unmarshal([]byte(raw), &cfg); err != nil {
		return cfg, snowerr.Config(err.Error())
	}
	return cfg, nil
}

// Resolve checks that every VM field is set.
func (v *VMConfig) Resolve() (VM, error) {
	if v == nil {
		return VM{}, snowerr.Config("missing vm")
	}
	missing := func(field string) (VM, error) {
		return VM{}, snowerr.Config("missing " + field)
	}
	switch {
	case v.ID == nil:
		return missing("id")
	case v.IP == nil:
		return missing("ip")
	case v.ProxmoxHost == nil:
		return missing("proxmoxHost")
	case v.ProxmoxImageStore == nil:
		return missing("proxmoxImageStore")
	case v.ResizeDiskTo == nil:
		return missing("resizeDiskTo")
	}
	return VM{
		ID:                *v.ID,
		IP:                *v.IP,
		ProxmoxHost:       *v.ProxmoxHost,
		ProxmoxImageStore: *v.ProxmoxImageStore,
		ResizeDiskTo:      *v.ResizeDiskTo,
	}, nil
}
