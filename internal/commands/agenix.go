package commands

import "snow/internal/runner"

func agenix(args ...string) runner.Command {
	return runner.Agenix(append([]string{"--extra-flake-params", "?submodules=1"}, args...)...)
}

// AgenixUpdateMasterkeys re-encrypts all secrets for a new set of masterkeys.
func (s *Snow) AgenixUpdateMasterkeys() error {
	return s.exec.Interactive(agenix("update-masterkeys"))
}

// AgenixEdit opens the given secret in an editor.
func (s *Snow) AgenixEdit(file string) error {
	return s.exec.Interactive(agenix("edit", file))
}

// AgenixRekey rekeys all secrets for the hosts requiring them. force rekeys even when
// keys did not change, dummy uses a placeholder for hosts without a public key.
func (s *Snow) AgenixRekey(force, dummy bool) error {
	args := []string{"rekey"}
	if force {
		args = append(args, "--force")
	}
	if dummy {
		args = append(args, "--dummy")
	}
	return s.exec.Interactive(agenix(args...))
}
