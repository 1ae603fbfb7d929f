package runner

import (
	"bytes"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"snow/internal/logger"
	"snow/internal/snowerr"
)

const (
	// sudoGrace gives sudo time to ask for a password before the bar takes over the line.
	sudoGrace = 750 * time.Millisecond

	// tickInterval is how often the progress bar is redrawn.
	tickInterval = 50 * time.Millisecond

	// importTotal is the number of progress lines qmrestore prints for a full import.
	importTotal = 99

	importLabel = "import vm"
)

// errHashFound stops the stderr scan of CaptureHash at the first `got:` line.
var errHashFound = errors.New("hash found")

// Runner executes commands. The debug flag is fixed at construction; in debug mode the
// quiet modes fall back to Verbose so the user sees raw tool output.
type Runner struct {
	debug bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	grace    time.Duration
	interval time.Duration
}

// New creates a Runner wired to the process's standard streams.
func New(debug bool) *Runner {
	return &Runner{
		debug:    debug,
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		grace:    sudoGrace,
		interval: tickInterval,
	}
}

// Debug reports whether the runner was created in debug mode.
func (r *Runner) Debug() bool {
	return r.debug
}

// prepare logs the command line and builds the exec.Cmd for it.
func (r *Runner) prepare(c Command) *exec.Cmd {
	logger.Debug("Running command: %s", logger.Cyan(c.String()))
	program, args := c.Resolve()
	cmd := exec.Command(program, args...)
	if env := c.Env(); len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	return cmd
}

// start launches cmd, converting spawn failures into IO failures.
func start(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return snowerr.IO(err)
	}
	return nil
}

// wait waits for cmd. A non-zero exit is not a failure for the caller: it is only
// logged, since failure detection relies on the tool's own error output.
func wait(cmd *exec.Cmd) error {
	err := cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		logger.Debug("%s exited with status %d", cmd.Path, exitErr.ExitCode())
		return nil
	}
	if err != nil {
		return snowerr.IO(err)
	}
	return nil
}

// Verbose runs the command attached to the terminal and waits for it. Output is not
// inspected.
func (r *Runner) Verbose(c Command) error {
	cmd := r.prepare(c)
	cmd.Stdin = r.stdin
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr
	if err := start(cmd); err != nil {
		return err
	}
	return wait(cmd)
}

// Silent runs the command with its output discarded.
func (r *Runner) Silent(c Command) error {
	if r.debug {
		return r.Verbose(c)
	}
	cmd := r.prepare(c)
	if err := start(cmd); err != nil {
		return err
	}
	return wait(cmd)
}

// Interactive runs the command with stdin and stdout on the terminal. Stderr is shown
// too, but also captured, and fails the run once two error lines were seen.
func (r *Runner) Interactive(c Command) error {
	if r.debug {
		return r.Verbose(c)
	}
	cmd := r.prepare(c)
	var stderr bytes.Buffer
	cmd.Stdin = r.stdin
	cmd.Stdout = r.stdout
	cmd.Stderr = io.MultiWriter(r.stderr, &stderr)
	if err := start(cmd); err != nil {
		return err
	}
	if err := wait(cmd); err != nil {
		return err
	}
	return scanErrors(&stderr)
}

// Capture runs the command and returns its stdout once it exits. Stderr is checked for
// errors first, using the same two-line threshold as Interactive.
func (r *Runner) Capture(c Command) (string, error) {
	cmd := r.prepare(c)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := start(cmd); err != nil {
		return "", err
	}
	if err := wait(cmd); err != nil {
		return "", err
	}
	if err := scanErrors(&stderr); err != nil {
		return "", err
	}
	out, err := decodeText(stdout.Bytes())
	if err != nil {
		return "", err
	}
	return out, nil
}

// CaptureHash runs a build that is expected to fail with a hash mismatch and returns
// the hash nix reports on its `got:` line.
func (r *Runner) CaptureHash(c Command) (string, error) {
	cmd := r.prepare(c)
	pr, pw, err := os.Pipe()
	if err != nil {
		return "", snowerr.IO(err)
	}
	cmd.Stderr = pw
	if err := start(cmd); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return "", err
	}
	_ = pw.Close()
	defer pr.Close()

	hash := ""
	err = eachLine(pr, func(raw []byte) error {
		line, err := decodeText(raw)
		if err != nil {
			return err
		}
		if !strings.Contains(line, "got:") {
			return nil
		}
		if fields := strings.Fields(line); len(fields) > 0 {
			hash = fields[len(fields)-1]
		}
		return errHashFound
	})
	_, _ = io.Copy(io.Discard, pr)
	if waitErr := wait(cmd); waitErr != nil {
		return "", waitErr
	}
	if err != nil && !errors.Is(err, errHashFound) {
		return "", err
	}
	if hash == "" {
		return "", snowerr.ErrNoHash
	}
	return hash, nil
}

// Progress runs a build with a live progress bar labelled label. The build's stderr is
// classified line by line; the run fails as soon as two error lines were seen.
func (r *Runner) Progress(c Command, label string) error {
	if r.debug {
		return r.Verbose(c)
	}
	_, err := r.track(c, trackOptions{
		label: label,
		total: 0,
		grace: r.grace,
		apply: applyBuildLine,
	})
	return err
}

// ProgressImport runs a VM import with a progress bar over a fixed total of 99 steps,
// driven by the `progress` lines on the importer's stdout.
//
// Unlike Progress it does not look for errors in the output, and the importer's exit
// status does not make the call fail. Callers that need strict success detection must
// verify the result themselves.
func (r *Runner) ProgressImport(c Command) error {
	if r.debug {
		return r.Verbose(c)
	}
	_, err := r.track(c, trackOptions{
		label:     importLabel,
		total:     importTotal,
		useStdout: true,
		apply:     applyImportLine,
	})
	return err
}
