package runner

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snow/internal/logger"
	"snow/internal/snowerr"
)

func newTestRunner(debug bool) (*Runner, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &Runner{
		debug:    debug,
		stdout:   &stdout,
		stderr:   &stderr,
		interval: 5 * time.Millisecond,
	}, &stdout, &stderr
}

func sh(script string) Command {
	return NewCommand("sh", []string{"-c", script}, false)
}

func buildOptions(label string) trackOptions {
	return trackOptions{label: label, apply: applyBuildLine}
}

func TestTrack_BuildSucceeds(t *testing.T) {
	r, _, stderr := newTestRunner(false)

	model, err := r.track(sh(`
		echo "0 derivations will be built:" >&2
		echo "building foo" >&2
		echo "building bar" >&2
	`), buildOptions("host"))

	require.NoError(t, err)
	assert.Equal(t, 1, model.TasksDone())
	assert.Equal(t, 0, model.Derivations())
	assert.Equal(t, successGlyph, model.Glyph())
	assert.Contains(t, stderr.String(), successGlyph+" host")
}

func TestTrack_AccumulatesBuildOutput(t *testing.T) {
	r, _, _ := newTestRunner(false)

	model, err := r.track(sh(`
		echo "these 2 derivations will be built:" >&2
		echo "  /nix/store/aaa-foo.drv" >&2
		echo "  /nix/store/bbb-bar.drv" >&2
		echo "these 3 paths will be fetched (1.5 MiB download, 6 MiB unpacked):" >&2
		echo "copying path '/nix/store/ccc-baz' from 'https://cache.nixos.org'..." >&2
		echo "building '/nix/store/aaa-foo.drv'..." >&2
		echo "not classified" >&2
		echo "this goes to stdout and is ignored: building"
	`), buildOptions("host"))

	require.NoError(t, err)
	assert.Equal(t, 2, model.Derivations())
	assert.Equal(t, 2, model.TasksTotal())
	assert.Equal(t, 1, model.TasksDone())
	assert.InDelta(t, 1.5, model.Downloaded(), 1e-9)
	assert.InDelta(t, 6.0, model.DiskSpace(), 1e-9)
}

func TestTrack_ToleratesOneErrorLine(t *testing.T) {
	r, _, _ := newTestRunner(false)

	_, err := r.track(sh(`echo "error: cached failure" >&2; echo "building foo" >&2`), buildOptions("host"))
	assert.NoError(t, err)
}

func TestTrack_FailsOnSecondErrorLine(t *testing.T) {
	r, _, _ := newTestRunner(false)

	_, err := r.track(sh(`
		echo "error: first" >&2
		echo "error: attribute 'vm' missing" >&2
		echo "error: never reported" >&2
	`), buildOptions("host"))

	var se *snowerr.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, snowerr.KindTool, se.Kind)
	assert.Equal(t, "attribute 'vm' missing", se.Message)
}

func TestTrack_ChildOutlivesEarlyFailure(t *testing.T) {
	r, _, _ := newTestRunner(false)
	marker := filepath.Join(t.TempDir(), "finished")

	_, err := r.track(sh(`
		echo "error: one" >&2
		echo "error: two" >&2
		for i in $(seq 1 2000); do echo "building filler $i" >&2; done
		sleep 0.2
		touch "`+marker+`"
	`), buildOptions("host"))

	require.Error(t, err)
	_, statErr := os.Stat(marker)
	assert.NoError(t, statErr, "the child runs to completion and is not killed")
}

func TestTrack_MalformedFetchLineFails(t *testing.T) {
	r, _, _ := newTestRunner(false)

	_, err := r.track(sh(`echo "these 3 paths will be fetched (1.5 MiB download):" >&2`), buildOptions("host"))

	var se *snowerr.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, snowerr.KindParse, se.Kind)
}

func TestTrack_NonZeroExitMarksBarFailed(t *testing.T) {
	r, _, stderr := newTestRunner(false)

	model, err := r.track(sh(`echo "building foo" >&2; exit 3`), buildOptions("host"))

	assert.NoError(t, err, "exit status alone is not a failure")
	assert.Equal(t, failureGlyph, model.Glyph())
	assert.Contains(t, stderr.String(), failureGlyph)
}

func TestTrack_SpawnFailure(t *testing.T) {
	r, _, _ := newTestRunner(false)

	_, err := r.track(NewCommand("snow-test-no-such-binary", nil, false), buildOptions("host"))

	var se *snowerr.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, snowerr.KindIO, se.Kind)
}

func TestTrack_ImportReadsStdoutOnly(t *testing.T) {
	r, _, _ := newTestRunner(false)

	model, err := r.track(sh(`
		echo "progress 1%"
		echo "progress 2%"
		echo "error: ignored"
		echo "error: also ignored"
		echo "progress on stderr" >&2
	`), trackOptions{label: importLabel, total: importTotal, useStdout: true, apply: applyImportLine})

	require.NoError(t, err)
	assert.Equal(t, 1, model.TasksDone())
	assert.Equal(t, importTotal, model.TasksTotal())
}

func TestProgressImport_IgnoresExitStatus(t *testing.T) {
	r, _, _ := newTestRunner(false)

	assert.NoError(t, r.ProgressImport(sh(`echo "progress 1%"; exit 1`)))
}

func TestProgress_GracePeriod(t *testing.T) {
	r, _, _ := newTestRunner(false)
	r.grace = 20 * time.Millisecond

	assert.NoError(t, r.Progress(sh(`echo "building foo" >&2; sleep 0.05`), "host"))
}

func TestCapture(t *testing.T) {
	r, _, _ := newTestRunner(false)

	out, err := r.Capture(sh(`echo '{"tags":[]}'; echo "error: only one" >&2`))
	require.NoError(t, err)
	assert.Equal(t, "{\"tags\":[]}\n", out)

	_, err = r.Capture(sh(`echo out; echo "error: one" >&2; echo "error: two" >&2`))
	var se *snowerr.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "two", se.Message)
}

func TestCapture_RejectsInvalidUTF8(t *testing.T) {
	r, _, _ := newTestRunner(false)

	_, err := r.Capture(sh(`printf '\377\376'`))
	var se *snowerr.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, snowerr.KindIO, se.Kind)
}

func TestCaptureHash(t *testing.T) {
	r, _, _ := newTestRunner(false)

	hash, err := r.CaptureHash(sh(`
		echo "stdout is discarded got: nope"
		echo "error: hash mismatch in fixed-output derivation '/nix/store/x.drv':" >&2
		echo "         specified: sha256-AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=" >&2
		echo "            got:    sha256-4EivPUgZIcOrYQKy1XZ2yT1Jm3YBtKdgOOT8Y3JvbyM=" >&2
		echo "error: 1 dependencies of derivation failed to build" >&2
	`))

	require.NoError(t, err)
	assert.Equal(t, "sha256-4EivPUgZIcOrYQKy1XZ2yT1Jm3YBtKdgOOT8Y3JvbyM=", hash)
}

func TestCaptureHash_NoHash(t *testing.T) {
	r, _, _ := newTestRunner(false)

	_, err := r.CaptureHash(sh(`echo "error: something else" >&2`))
	assert.ErrorIs(t, err, snowerr.ErrNoHash)
}

func TestInteractive(t *testing.T) {
	r, stdout, stderr := newTestRunner(false)

	require.NoError(t, r.Interactive(sh(`echo hello; echo "error: one" >&2`)))
	assert.Equal(t, "hello\n", stdout.String())
	assert.Contains(t, stderr.String(), "error: one", "stderr is still shown")

	err := r.Interactive(sh(`echo "error: one" >&2; echo "error: Definition values: two" >&2`))
	var se *snowerr.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "two", se.Message)
}

func TestInteractive_DebugDelegatesToVerbose(t *testing.T) {
	r, _, _ := newTestRunner(true)

	assert.NoError(t, r.Interactive(sh(`echo "error: one" >&2; echo "error: two" >&2`)))
}

func TestSilent(t *testing.T) {
	r, stdout, stderr := newTestRunner(false)

	require.NoError(t, r.Silent(sh(`echo out; echo err >&2; exit 4`)))
	assert.Empty(t, stdout.String())
	assert.Empty(t, stderr.String())
}

func TestVerbose(t *testing.T) {
	r, stdout, stderr := newTestRunner(false)

	require.NoError(t, r.Verbose(sh(`echo out; echo err >&2`)))
	assert.Equal(t, "out\n", stdout.String())
	assert.Equal(t, "err\n", stderr.String())
}

func TestRunner_LogsCommandLineAtDebug(t *testing.T) {
	var logs bytes.Buffer
	prev := logger.SetOutput(&logs)
	logger.Init(true)
	t.Cleanup(func() {
		logger.SetOutput(prev)
		logger.Init(false)
	})

	r, _, _ := newTestRunner(true)
	require.NoError(t, r.Silent(sh("true")))

	assert.Contains(t, logs.String(), "Running command: ")
	assert.Contains(t, logs.String(), "sh -c true")
}

func TestCapture_PassesExtraEnvironment(t *testing.T) {
	r, _, _ := newTestRunner(false)

	out, err := r.Capture(sh(`printf '%s' "$SNOW_TEST_VALUE"`).WithEnv("SNOW_TEST_VALUE", "flake"))
	require.NoError(t, err)
	assert.Equal(t, "flake", out)
}

func TestTrack_LongOutputLineDoesNotFail(t *testing.T) {
	r, _, _ := newTestRunner(false)

	model, err := r.track(sh(`
		head -c 2000000 /dev/zero | tr '\0' 'x' >&2
		echo >&2
		echo "building foo" >&2
	`), buildOptions("host"))

	require.NoError(t, err)
	assert.Equal(t, 0, model.TasksDone())
}
