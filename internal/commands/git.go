package commands

import (
	"strings"

	"snow/internal/runner"
)

// foreach wraps a git invocation so it runs in every submodule. Git hands the command
// to a shell, so arguments must already be quoted.
func foreach(args ...string) runner.Command {
	return runner.Git(append([]string{"submodule", "foreach", "git"}, args...)...)
}

// inSubmodulesThenRepo runs args in every submodule and, unless submodulesOnly is set,
// in the top-level repository. Output is discarded.
func (s *Snow) inSubmodulesThenRepo(submodulesOnly bool, args ...string) error {
	if err := s.exec.Silent(foreach(args...)); err != nil {
		return err
	}
	if submodulesOnly {
		return nil
	}
	return s.exec.Silent(runner.Git(args...))
}

// hasUntracked reports whether the repository or one of its submodules has untracked
// files.
func (s *Snow) hasUntracked() (bool, error) {
	status := []string{"status", "--porcelain=v1", "--untracked-files=all"}
	out, err := s.exec.Capture(runner.Git(status...))
	if err != nil {
		return false, err
	}
	if strings.Contains(out, "??") {
		return true, nil
	}
	out, err = s.exec.Capture(foreach(status...))
	if err != nil {
		return false, err
	}
	return strings.Contains(out, "??"), nil
}

// GitAdd stages all files.
func (s *Snow) GitAdd(submodulesOnly bool) error {
	return s.inSubmodulesThenRepo(submodulesOnly, "add", ".")
}

// GitPull pulls new changes.
func (s *Snow) GitPull(submodulesOnly bool) error {
	return s.inSubmodulesThenRepo(submodulesOnly, "pull")
}

// GitPush pushes to the remote with --force-with-lease.
func (s *Snow) GitPush(submodulesOnly bool) error {
	return s.inSubmodulesThenRepo(submodulesOnly, "push", "--force-with-lease")
}

// GitCommit stages and commits everything. Without a message the changes are amended to
// the previous commit.
func (s *Snow) GitCommit(message string, submodulesOnly bool) error {
	if err := s.GitAdd(submodulesOnly); err != nil {
		return err
	}
	extra, quoted := []string{"--amend", "-C", "HEAD"}, []string{"--amend", "-C", "HEAD"}
	if message != "" {
		extra = []string{"-m", message}
		quoted = []string{"-m", shellQuote(message)}
	}
	if err := s.exec.Silent(foreach(append([]string{"commit"}, quoted...)...)); err != nil {
		return err
	}
	if submodulesOnly {
		return nil
	}
	if err := s.GitAdd(false); err != nil {
		return err
	}
	return s.exec.Silent(runner.Git(append([]string{"commit"}, extra...)...))
}

// GitAll adds, commits and pushes.
func (s *Snow) GitAll(message string, submodulesOnly bool) error {
	if err := s.GitCommit(message, submodulesOnly); err != nil {
		return err
	}
	return s.GitPush(submodulesOnly)
}

// GitInit initializes and checks out all submodules.
func (s *Snow) GitInit() error {
	if err := s.exec.Silent(runner.Git("submodule", "init")); err != nil {
		return err
	}
	return s.exec.Silent(runner.Git("submodule", "update"))
}

// shellQuote single-quotes v for the shell git submodule foreach runs.
func shellQuote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", `'\''`) + "'"
}
