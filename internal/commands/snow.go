// Package commands implements the snow subcommands on top of the execution modes of the
// runner package.
package commands

import (
	"io"
	"os"
	"os/exec"
	"os/user"
	"time"

	"snow/internal/config"
	"snow/internal/runner"
	"snow/internal/snowerr"
)

// Executor runs command descriptors in one of the supervised execution modes.
// *runner.Runner implements it.
type Executor interface {
	Verbose(c runner.Command) error
	Silent(c runner.Command) error
	Interactive(c runner.Command) error
	Capture(c runner.Command) (string, error)
	CaptureHash(c runner.Command) (string, error)
	Progress(c runner.Command, label string) error
	ProgressImport(c runner.Command) error
	Debug() bool
}

var _ Executor = (*runner.Runner)(nil)

// ErrAborted is returned when the user declines a confirmation prompt.
var ErrAborted = &snowerr.Error{Kind: snowerr.KindIO, Message: "aborted by user"}

// Snow carries everything the subcommands need: the executor, the user settings and
// the few pieces of the environment they consult.
type Snow struct {
	exec     Executor
	settings config.Settings
	prompt   Prompter
	out      io.Writer // results printed by eval, hash and vms

	hostname   func() (string, error)
	username   func() (string, error)
	lookPath   func(file string) (string, error)
	sleep      func(time.Duration)
	resultPath string // nix build output link
}

// Option customizes a Snow.
type Option func(*Snow)

// WithPrompter replaces the terminal prompter.
func WithPrompter(p Prompter) Option {
	return func(s *Snow) { s.prompt = p }
}

// WithOutput sets where command results are printed.
func WithOutput(w io.Writer) Option {
	return func(s *Snow) { s.out = w }
}

// WithHostname overrides how the local hostname is determined.
func WithHostname(fn func() (string, error)) Option {
	return func(s *Snow) { s.hostname = fn }
}

// WithUsername overrides how the current user is determined.
func WithUsername(fn func() (string, error)) Option {
	return func(s *Snow) { s.username = fn }
}

// WithLookPath overrides the PATH lookup used to find optional helpers.
func WithLookPath(fn func(file string) (string, error)) Option {
	return func(s *Snow) { s.lookPath = fn }
}

// WithSleep overrides the wait between ssh-keyscan attempts.
func WithSleep(fn func(time.Duration)) Option {
	return func(s *Snow) { s.sleep = fn }
}

// WithResultPath overrides the location of the `nix build` result link.
func WithResultPath(path string) Option {
	return func(s *Snow) { s.resultPath = path }
}

// New creates a Snow around exec.
func New(exec Executor, settings config.Settings, opts ...Option) *Snow {
	s := &Snow{
		exec:       exec,
		settings:   settings,
		prompt:     NewTerminalPrompter(os.Stdin, os.Stderr),
		out:        os.Stdout,
		hostname:   os.Hostname,
		username:   currentUsername,
		lookPath:   lookPath,
		sleep:      time.Sleep,
		resultPath: "result",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func currentUsername() (string, error) {
	u, err := user.Current()
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

func lookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// confirm asks question and turns a refusal or a prompt failure into ErrAborted.
func (s *Snow) confirm(question string, def bool) error {
	ok, err := s.prompt.Confirm(question, def)
	if err != nil {
		return snowerr.Wrap(snowerr.KindIO, err, "failed to read answer")
	}
	if !ok {
		return ErrAborted
	}
	return nil
}

// localHost returns the hostname, as an environment failure when it cannot be read.
func (s *Snow) localHost() (string, error) {
	host, err := s.hostname()
	if err != nil || host == "" {
		return "", snowerr.Env("failed to read hostname")
	}
	return host, nil
}
