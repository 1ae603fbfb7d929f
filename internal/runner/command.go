// Package runner spawns the external tools snow wraps (nix, git, agenix, ssh) and
// supervises them in one of several execution modes.
//
// Most modes block synchronously on the child. The progress modes additionally run two
// goroutines per invocation: a producer that classifies output lines and a ticker that
// redraws a live progress bar and detects process exit. Both share one Progress model
// guarded by a mutex.
package runner

import (
	"strings"
)

// Elevator is the privilege-escalation program used for commands that require root.
const Elevator = "sudo"

// Command describes one external invocation. It is immutable once built; WithArg
// returns a modified copy.
type Command struct {
	program string
	args    []string
	elevate bool
	env     []string // extra KEY=value pairs on top of the inherited environment
}

// NewCommand builds a command descriptor. The argument slice is copied so later changes
// by the caller do not leak into the descriptor.
func NewCommand(program string, args []string, elevate bool) Command {
	return Command{
		program: program,
		args:    append([]string(nil), args...),
		elevate: elevate,
	}
}

// Nix builds a descriptor for one of the nix tools (nix, nixos-rebuild, home-manager, ...).
func Nix(program string, args []string, elevate bool) Command {
	return NewCommand(program, args, elevate)
}

// Git builds an unelevated git descriptor.
func Git(args ...string) Command {
	return NewCommand("git", args, false)
}

// Agenix builds an unelevated agenix descriptor.
func Agenix(args ...string) Command {
	return NewCommand("agenix", args, false)
}

// Program returns the program as given by the caller, before elevation.
func (c Command) Program() string { return c.program }

// Args returns a copy of the argument list, before elevation.
func (c Command) Args() []string { return append([]string(nil), c.args...) }

// Elevated reports whether the command runs through Elevator.
func (c Command) Elevated() bool { return c.elevate }

// Env returns the extra environment entries, as KEY=value pairs.
func (c Command) Env() []string { return append([]string(nil), c.env...) }

// WithArg returns a copy of the command with arg appended.
func (c Command) WithArg(arg string) Command {
	out := NewCommand(c.program, append(c.Args(), arg), c.elevate)
	out.env = c.Env()
	return out
}

// WithElevation returns a copy of the command with the elevation flag replaced.
func (c Command) WithElevation(elevate bool) Command {
	out := NewCommand(c.program, c.args, elevate)
	out.env = c.Env()
	return out
}

// WithEnv returns a copy of the command that sets key to value in the child's
// environment. The variable is not shown in String.
func (c Command) WithEnv(key, value string) Command {
	out := NewCommand(c.program, c.args, c.elevate)
	out.env = append(c.Env(), key+"="+value)
	return out
}

// Resolve returns the program and arguments that are actually executed. Elevated
// commands run as `sudo <program> <args...>`.
func (c Command) Resolve() (string, []string) {
	if !c.elevate {
		return c.program, c.Args()
	}
	args := make([]string, 0, len(c.args)+1)
	args = append(args, c.program)
	args = append(args, c.args...)
	return Elevator, args
}

// String renders the command line the way it is logged.
func (c Command) String() string {
	var b strings.Builder
	if c.elevate {
		b.WriteString(Elevator)
		b.WriteByte(' ')
	}
	b.WriteString(c.program)
	if len(c.args) > 0 {
		b.WriteByte(' ')
		b.WriteString(strings.Join(c.args, " "))
	}
	return b.String()
}
