package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"snow/internal/logger"
	"snow/internal/runner"
)

// Update updates one flake input, or all of them when input is empty.
func (s *Snow) Update(input string) error {
	args := []string{"flake", "update"}
	if input != "" {
		args = append(args, input)
	}
	return s.exec.Verbose(runner.Nix("nix", args, false))
}

// Clean collects garbage for the system and the current user, then optionally rebuilds
// the local host so the boot menu drops the deleted generations.
func (s *Snow) Clean(rebuildAfter bool) error {
	cmd := runner.Nix("nix-collect-garbage", []string{"-d"}, true)
	if err := s.exec.Verbose(cmd); err != nil {
		return err
	}
	if err := s.exec.Verbose(cmd.WithElevation(false)); err != nil {
		return err
	}
	if rebuildAfter {
		return s.Rebuild("", RebuildOptions{Mode: ModeBoot})
	}
	return nil
}

// Fmt runs the flake's formatter.
func (s *Snow) Fmt() error {
	return s.exec.Progress(runner.Nix("nix", []string{"fmt"}, false), "fmt")
}

// Check runs the flake checks.
func (s *Snow) Check() error {
	return s.exec.Progress(runner.Nix("nix", []string{"flake", "check"}, false), "check")
}

// Repl opens the nix repl with the flake, including submodules, preloaded.
func (s *Snow) Repl() error {
	expr := "builtins.getFlake (toString ./.)"
	if s.settings.Flake != "." {
		expr = fmt.Sprintf("builtins.getFlake (toString %s)", s.settings.Flake)
	}
	return s.exec.Interactive(runner.Nix("nix", []string{"repl", "--expr", expr}, false))
}

// Eval evaluates expression relative to the flake and prints the result.
func (s *Snow) Eval(expression string, json, raw bool) error {
	args := []string{"eval", s.settings.Ref(expression)}
	if json {
		args = append(args, "--json")
	}
	if raw {
		args = append(args, "--raw")
	}
	result, err := s.exec.Capture(runner.Nix("nix", args, false))
	if err != nil {
		return err
	}
	logger.Info("Result:")
	return s.print(result)
}

// interactiveShell wraps a nix invocation in nix-your-shell when it is installed, so the
// spawned shell is the user's shell instead of bash.
func (s *Snow) interactiveShell(args []string) runner.Command {
	if _, err := s.lookPath("nix-your-shell"); err != nil {
		return runner.Nix("nix", args, false)
	}
	return runner.Nix("nix-your-shell", append([]string{detectShell(), "nix"}, args...), false)
}

// detectShell figures out which shell the current user is using by reading the SHELL
// environment variable, defaulting to fish.
func detectShell() string {
	shell := filepath.Base(os.Getenv("SHELL"))
	logger.Debug("Detected shell environment: %s", shell)
	switch shell {
	case "zsh", "bash", "nu", "fish":
		return shell
	default:
		return "fish"
	}
}

// Shell enters a nix shell with packages. Packages without a `#` are taken from nixpkgs,
// and unfree packages are allowed.
func (s *Snow) Shell(packages []string) error {
	args := []string{"shell", "--impure"}
	for _, p := range packages {
		if !strings.Contains(p, "#") {
			p = "nixpkgs#" + p
		}
		args = append(args, p)
	}
	cmd := s.interactiveShell(args).WithEnv("NIXPKGS_ALLOW_UNFREE", "1")
	return s.exec.Interactive(cmd)
}

// Develop enters the default development shell of the flake, or the one named.
func (s *Snow) Develop(name string) error {
	args := []string{"develop"}
	if name != "" {
		args = append(args, s.settings.Ref(name))
	}
	return s.exec.Verbose(s.interactiveShell(args))
}

func outputOrDefault(output string) string {
	if output == "" {
		return "default"
	}
	return output
}

// Build builds a flake output, `default` when none is given.
func (s *Snow) Build(output string) error {
	return s.exec.Verbose(runner.Nix("nix", []string{"build", s.settings.Ref(outputOrDefault(output))}, false))
}

// Run runs a flake output, `default` when none is given.
func (s *Snow) Run(output string) error {
	return s.exec.Interactive(runner.Nix("nix", []string{"run", s.settings.Ref(outputOrDefault(output))}, false))
}

// Hash builds output, which is expected to fail on a fixed-output hash mismatch, and
// prints the hash nix actually got.
func (s *Snow) Hash(output string) error {
	hash, err := s.exec.CaptureHash(runner.Nix("nix", []string{"build", s.settings.Ref(outputOrDefault(output))}, false))
	if err != nil {
		return err
	}
	return s.print(hash)
}

// BumpPython rewrites every python3XY reference in the flake to version, e.g. "3.12".
func (s *Snow) BumpPython(version string) error {
	return s.bump(fmt.Sprintf(`s/python3[1-9][1-9]\+/python%s/g`, strings.ReplaceAll(version, ".", "")))
}

func (s *Snow) bump(sed string) error {
	return s.exec.Verbose(runner.NewCommand("find", []string{".", "-type", "f", "-not", "-path", "*/.git/*", "-exec", "sed", "-i", sed, "{}", "+"}, false))
}

// StoreReferrers lists the referrers closure of a store path.
func (s *Snow) StoreReferrers(derivation string) error {
	return s.exec.Verbose(runner.Nix("nix-store", []string{"-q", "--referrers-closure", derivation}, false))
}

func (s *Snow) print(result string) error {
	if !strings.HasSuffix(result, "\n") {
		result += "\n"
	}
	_, err := fmt.Fprint(s.out, result)
	return err
}
