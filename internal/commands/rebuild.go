package commands

import (
	"fmt"

	"snow/internal/config"
	"snow/internal/logger"
	"snow/internal/runner"
	"snow/internal/snowerr"
)

// RebuildMode is the nixos-rebuild action.
type RebuildMode string

const (
	ModeSwitch RebuildMode = "switch"
	ModeTest   RebuildMode = "test"
	ModeBoot   RebuildMode = "boot"
	ModeBuild  RebuildMode = "build"
)

// ParseRebuildMode validates a mode given on the command line.
func ParseRebuildMode(v string) (RebuildMode, error) {
	switch m := RebuildMode(v); m {
	case ModeSwitch, ModeTest, ModeBoot, ModeBuild:
		return m, nil
	}
	return "", snowerr.Configf("invalid rebuild mode %q (want switch, test, boot or build)", v)
}

// RebuildOptions are the command-line overrides for a rebuild. Empty strings and false
// values fall back to the host's snow config.
type RebuildOptions struct {
	Mode          RebuildMode
	TargetHost    string
	BuildHost     string
	BuildOnTarget bool
	UseRemoteSudo bool

	sshOpts string // NIX_SSHOPTS for the deployment, set while provisioning
}

// SnowConfig reads the snow config of host through `nix eval --json`.
func (s *Snow) SnowConfig(host string) (config.SnowConfig, error) {
	raw, err := s.exec.Capture(runner.Nix("nix", []string{"eval", s.settings.Ref(config.SnowConfigAttr(host)), "--json"}, false))
	if err != nil {
		return config.SnowConfig{}, snowerr.Wrap(snowerr.KindTool, err, "could not read snow config for host "+host)
	}
	return config.ParseSnowConfig(raw)
}

// checkUntracked offers to stage untracked files, which a flake build would not see.
func (s *Snow) checkUntracked() error {
	untracked, err := s.hasUntracked()
	if err != nil || !untracked {
		return err
	}
	add, err := s.prompt.Confirm("Files exist which are untracked by git. If this rebuild depends on such a file, it will fail. Do you want to add them before proceeding?", true)
	if err != nil {
		return snowerr.Wrap(snowerr.KindIO, err, "failed to read answer")
	}
	if add {
		return s.GitAdd(false)
	}
	return nil
}

// Rebuild deploys the nixosConfiguration host. An empty host rebuilds the local machine
// with elevated privileges.
func (s *Snow) Rebuild(host string, opts RebuildOptions) error {
	if opts.Mode == "" {
		opts.Mode = ModeSwitch
	}
	if err := s.checkUntracked(); err != nil {
		return err
	}
	local, err := s.localHost()
	if err != nil {
		return err
	}

	var cmd runner.Command
	label := host
	if host == "" {
		label = local
		cmd = runner.Nix("nixos-rebuild", []string{string(opts.Mode), "--flake", s.settings.Ref(local)}, true)
	} else {
		args, err := s.remoteRebuildArgs(host, local, opts)
		if err != nil {
			return err
		}
		cmd = runner.Nix("nixos-rebuild", args, false)
	}
	if opts.sshOpts != "" {
		cmd = cmd.WithEnv("NIX_SSHOPTS", opts.sshOpts)
	}

	if s.exec.Debug() {
		return s.exec.Verbose(cmd.WithArg("--show-trace"))
	}
	return s.exec.Progress(cmd, label)
}

// remoteRebuildArgs merges opts over the host's snow config and builds the nixos-rebuild
// arguments. Deploying anywhere but the configured target needs confirmation.
func (s *Snow) remoteRebuildArgs(host, local string, opts RebuildOptions) ([]string, error) {
	defaults, err := s.SnowConfig(host)
	if err != nil {
		return nil, err
	}
	target := firstNonEmpty(opts.TargetHost, defaults.TargetHost)
	build := firstNonEmpty(opts.BuildHost, defaults.BuildHost)
	buildOnTarget := opts.BuildOnTarget || defaults.BuildOnTarget
	remoteSudo := opts.UseRemoteSudo || defaults.UseRemoteSudo

	if (target == "" && host != local) || target != defaults.TargetHost {
		if err := s.confirmTarget(host, local, target, defaults.TargetHost); err != nil {
			return nil, err
		}
	}

	args := []string{string(opts.Mode), "--flake", s.settings.Ref(host)}
	if target != "" {
		args = append(args, "--target-host", target)
	}
	switch {
	case build != "":
		args = append(args, "--build-host", build)
	case buildOnTarget && target != "":
		args = append(args, "--build-host", target)
	case buildOnTarget:
		return nil, snowerr.Config(`"build on target" is specified, but no target host is given`)
	}
	if remoteSudo {
		args = append(args, "--sudo")
	}
	if defaults.AskSudoPassword {
		args = append(args, "--ask-sudo-password")
	}
	if defaults.UseSubstitutes {
		args = append(args, "--use-substitutes")
	}
	return args, nil
}

func (s *Snow) confirmTarget(host, local, target, configured string) error {
	shown, erased := target, target
	if target == "" {
		shown = local
		erased = fmt.Sprintf("your local machine, %q", local)
	}
	if configured == "" {
		configured = "[not specified]"
	}
	logger.Warn("!!! This will erase the configuration currently deployed to %s !!!", erased)
	return s.confirm(fmt.Sprintf(
		"You are about to deploy the nixosConfiguration %q to the target host %q, overwriting the default target location %q for this host. Are you absolutely certain that this is what you meant to do?",
		host, shown, configured), false)
}

// Home switches the HomeManager configuration target, defaulting to user@host.
func (s *Snow) Home(target string) error {
	if target == "" {
		user, uerr := s.username()
		host, herr := s.hostname()
		if uerr != nil || herr != nil || user == "" || host == "" {
			return snowerr.Env("failed to read username/hostname")
		}
		target = user + "@" + host
	}

	cmd := runner.Nix("home-manager", []string{"switch", "--flake", s.settings.Ref(target)}, false)
	if s.exec.Debug() {
		return s.exec.Verbose(cmd.WithArg("--show-trace"))
	}
	return s.exec.Progress(cmd, target)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
