package commands

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"snow/internal/config"
	"snow/internal/runner"
)

var errNotFound = errors.New("not found")

// call is one recorded execution.
type call struct {
	mode  string
	line  string
	label string
	env   []string
}

// recorder is an Executor that records every command instead of running it. Capture
// output is looked up by command line prefix.
type recorder struct {
	debug    bool
	calls    []call
	captures map[string][]string // command line prefix -> successive outputs
	failOn   map[string]error    // command line prefix -> failure
	hash     string
}

func newRecorder() *recorder {
	return &recorder{captures: map[string][]string{}, failOn: map[string]error{}}
}

func (r *recorder) record(mode string, c runner.Command, label string) error {
	r.calls = append(r.calls, call{mode: mode, line: c.String(), label: label, env: c.Env()})
	for prefix, err := range r.failOn {
		if strings.HasPrefix(c.String(), prefix) {
			return err
		}
	}
	return nil
}

func (r *recorder) Verbose(c runner.Command) error     { return r.record("verbose", c, "") }
func (r *recorder) Silent(c runner.Command) error      { return r.record("silent", c, "") }
func (r *recorder) Interactive(c runner.Command) error { return r.record("interactive", c, "") }
func (r *recorder) ProgressImport(c runner.Command) error {
	return r.record("progress-import", c, "")
}
func (r *recorder) Progress(c runner.Command, label string) error {
	return r.record("progress", c, label)
}
func (r *recorder) Debug() bool { return r.debug }

func (r *recorder) Capture(c runner.Command) (string, error) {
	if err := r.record("capture", c, ""); err != nil {
		return "", err
	}
	for prefix, outs := range r.captures {
		if !strings.HasPrefix(c.String(), prefix) || len(outs) == 0 {
			continue
		}
		out := outs[0]
		if len(outs) > 1 {
			r.captures[prefix] = outs[1:]
		}
		return out, nil
	}
	return "", nil
}

func (r *recorder) CaptureHash(c runner.Command) (string, error) {
	if err := r.record("capture-hash", c, ""); err != nil {
		return "", err
	}
	return r.hash, nil
}

func (r *recorder) lines() []string {
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.line
	}
	return out
}

func (r *recorder) find(line string) (call, bool) {
	for _, c := range r.calls {
		if c.line == line {
			return c, true
		}
	}
	return call{}, false
}

// answers is a Prompter replaying fixed answers and recording the questions.
type answers struct {
	replies   []bool
	questions []string
}

func (a *answers) Confirm(question string, def bool) (bool, error) {
	a.questions = append(a.questions, question)
	if len(a.replies) == 0 {
		return def, nil
	}
	reply := a.replies[0]
	a.replies = a.replies[1:]
	return reply, nil
}

func testSettings(t *testing.T) config.Settings {
	t.Helper()
	s := config.Defaults()
	dir := t.TempDir()
	s.KeysDir = dir + "/vms/keys"
	s.StateFile = dir + "/state/state.json"
	s.KeyscanInterval = time.Millisecond
	return s
}

func newTestSnow(t *testing.T, rec *recorder, prompt *answers) (*Snow, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	s := New(rec, testSettings(t),
		WithPrompter(prompt),
		WithOutput(&out),
		WithHostname(func() (string, error) { return "laptop", nil }),
		WithUsername(func() (string, error) { return "alice", nil }),
		WithLookPath(func(string) (string, error) { return "", errNotFound }),
		WithSleep(func(time.Duration) {}),
		WithResultPath(t.TempDir()+"/result"),
	)
	return s, &out
}
