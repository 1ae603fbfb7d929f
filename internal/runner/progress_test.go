package runner

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snow/internal/snowerr"
)

func newTestProgress(t *testing.T, total int) (*Progress, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	p, err := NewProgress("host", total, &out)
	require.NoError(t, err)
	return p, &out
}

func TestNewProgress_InitialState(t *testing.T) {
	p, out := newTestProgress(t, 99)

	assert.Equal(t, -1, p.TasksDone())
	assert.Equal(t, 99, p.TasksTotal())
	assert.Equal(t, 100, p.bar.total, "one extra step is reserved for the final tick")
	assert.Empty(t, out.String(), "nothing is drawn outside a terminal")
}

func TestProgress_AddDerivations(t *testing.T) {
	p, _ := newTestProgress(t, 0)

	p.AddDerivations("5 derivations will be built:")
	p.AddDerivations("3 derivations will be built:")
	assert.Equal(t, 8, p.Derivations())

	p.AddDerivations("some derivations will be built:")
	assert.Equal(t, 8, p.Derivations(), "a line without a number adds nothing")
}

func TestProgress_AddFetched(t *testing.T) {
	p, _ := newTestProgress(t, 0)

	require.NoError(t, p.AddFetched("12.5 MiB will be fetched (3.25 MiB)"))
	assert.InDelta(t, 12.5, p.Downloaded(), 1e-9)
	assert.InDelta(t, 3.25, p.DiskSpace(), 1e-9)

	require.NoError(t, p.AddFetched("these 2 paths will be fetched (512 KiB download, 1 GiB unpacked):"))
	assert.InDelta(t, 13.0, p.Downloaded(), 1e-9)
	assert.InDelta(t, 1027.25, p.DiskSpace(), 1e-9)
}

func TestProgress_AddFetched_RequiresTwoSizes(t *testing.T) {
	p, _ := newTestProgress(t, 0)

	err := p.AddFetched("these 2 paths will be fetched (12.5 MiB download):")
	var se *snowerr.Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, snowerr.KindParse, se.Kind)
	assert.Zero(t, p.Downloaded(), "a rejected line changes nothing")
}

func TestProgress_AddTask(t *testing.T) {
	p, _ := newTestProgress(t, 0)

	p.AddTask()
	p.AddTask()
	assert.Equal(t, 2, p.TasksTotal())
	assert.Equal(t, 2, p.bar.total)
}

func TestProgress_FinishSuccessWithoutTasks(t *testing.T) {
	p, out := newTestProgress(t, 0)

	require.NoError(t, p.Finish(true))

	assert.Equal(t, 1, p.TasksTotal(), "never displayed as 0/0")
	assert.Equal(t, successGlyph, p.Glyph())
	assert.Contains(t, out.String(), successGlyph+" host")
	assert.Contains(t, out.String(), "0/1")
}

func TestProgress_FinishFailure(t *testing.T) {
	p, out := newTestProgress(t, 3)

	require.NoError(t, p.Finish(false))

	assert.Equal(t, failureGlyph, p.Glyph())
	assert.Contains(t, out.String(), failureGlyph)
	assert.Equal(t, 3, p.TasksTotal())
}

func TestProgress_RenderAdvancesOneStepAtATime(t *testing.T) {
	p, _ := newTestProgress(t, 10)

	require.NoError(t, p.Render())
	assert.Equal(t, 0, p.Displayed(), "the start sentinel never moves the bar")

	// Five ticks: the first one moves the counter off the -1 sentinel.
	for i := 0; i < 5; i++ {
		p.Tick()
	}
	done := p.TasksDone()
	require.Equal(t, 4, done)

	for i := 1; i <= 20; i++ {
		require.NoError(t, p.Render())
		assert.LessOrEqual(t, p.Displayed(), done)
		if i >= done {
			assert.Equal(t, done, p.Displayed())
		}
	}
}

func TestProgress_DisplayClampsToTotal(t *testing.T) {
	p, _ := newTestProgress(t, 1)

	for i := 0; i < 10; i++ {
		p.Tick()
	}
	for i := 0; i < 20; i++ {
		require.NoError(t, p.Render())
	}
	assert.Equal(t, 2, p.Displayed())
}

func TestProgress_SpinnerAdvancesWithoutWork(t *testing.T) {
	p, _ := newTestProgress(t, 0)

	first := p.Glyph()
	require.NoError(t, p.Render())
	assert.NotEqual(t, first, p.Glyph())
	assert.Equal(t, 0, p.Displayed())
}
