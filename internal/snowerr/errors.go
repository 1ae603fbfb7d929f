// Package snowerr provides the structured failure type returned by every snow operation.
package snowerr

import (
	"errors"
	"fmt"
)

// Exit codes used by the root command.
const (
	ExitSuccess          = 0
	ExitRuntimeError     = 1 // external tool or shell interaction failed
	ExitConfigError      = 2 // malformed configuration or tool output
	ExitEnvironmentError = 3 // missing user, host or other environment information
)

// Kind identifies the failure category.
type Kind int

const (
	KindTool Kind = iota
	KindEnv
	KindConfig
	KindParse
	KindIO
)

// Error is a tagged failure value. It is returned, never panicked.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	switch e.Kind {
	case KindTool:
		return "Nix command failed with error: " + msg
	case KindEnv:
		return "Environment error: " + msg
	case KindConfig:
		return "Error parsing snow config: " + msg
	case KindParse:
		return "Error parsing tool output: " + msg
	default:
		return "Error in interaction with shell: " + msg
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on identity for sentinels and on kind+message otherwise.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e == t || (e.Kind == t.Kind && e.Message == t.Message && t.Cause == nil)
}

// ErrNoHash is returned by capture-hash mode when the tool never reports a `got:` hash.
var ErrNoHash = &Error{Kind: KindTool, Message: "no hash found in command output"}

// Tool creates an external-tool failure.
func Tool(message string) *Error {
	return &Error{Kind: KindTool, Message: message}
}

// Toolf creates an external-tool failure with formatting.
func Toolf(format string, args ...any) *Error {
	return Tool(fmt.Sprintf(format, args...))
}

// Env creates an environment failure.
func Env(message string) *Error {
	return &Error{Kind: KindEnv, Message: message}
}

// Config creates a configuration failure.
func Config(message string) *Error {
	return &Error{Kind: KindConfig, Message: message}
}

// Configf creates a configuration failure with formatting.
func Configf(format string, args ...any) *Error {
	return Config(fmt.Sprintf(format, args...))
}

// Parsef creates a failure for tool output that does not have the expected shape.
func Parsef(format string, args ...any) *Error {
	return &Error{Kind: KindParse, Message: fmt.Sprintf(format, args...)}
}

// IO wraps an OS-level failure spawning or reading from a process.
// Callers must only pass a non-nil error.
func IO(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindIO, Cause: err}
}

// Wrap attaches a message to a cause while keeping the given kind.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message + ": " + err.Error(), Cause: err}
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var e *Error
	if !errors.As(err, &e) {
		return ExitRuntimeError
	}
	switch e.Kind {
	case KindConfig, KindParse:
		return ExitConfigError
	case KindEnv:
		return ExitEnvironmentError
	default:
		return ExitRuntimeError
	}
}
