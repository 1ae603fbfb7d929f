package runner

import (
	"io"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"

	"snow/internal/snowerr"
)

var (
	firstIntRe = regexp.MustCompile(`\d+`)
	sizeRe     = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(KiB|MiB|GiB)`)
)

// bar is the displayed state, trailing the counters by at most one step per render.
type bar struct {
	position int
	total    int
	columns  int
}

// Progress accumulates the state of one long-running build or import and renders it as
// a single-line progress bar on a terminal.
//
// Progress is not safe for concurrent use; the coordinator guards it with a mutex.
type Progress struct {
	label string

	tasksDone   int // -1 until the first unit of work starts
	tasksTotal  int
	derivations int
	mbDownload  float64
	mbDiskSpace float64

	bar bar

	out      io.Writer
	tty      bool
	started  time.Time
	frame    int
	finished bool
	success  bool
}

// NewProgress creates a model for label with initialTotal expected tasks. The bar gets
// one extra step for the final "done" tick.
//
// When out is a terminal the cursor is hidden until Finish. Otherwise the model renders
// nothing while running and prints a single summary line when finished.
func NewProgress(label string, initialTotal int, out io.Writer) (*Progress, error) {
	return newProgress(label, initialTotal, out, isTerminal(out))
}

func newProgress(label string, initialTotal int, out io.Writer, tty bool) (*Progress, error) {
	p := &Progress{
		label:      label,
		tasksDone:  -1,
		tasksTotal: initialTotal,
		bar: bar{
			total:   initialTotal + 1,
			columns: defaultColumns,
		},
		out:     out,
		tty:     tty,
		started: time.Now(),
	}
	if p.tty {
		if _, err := io.WriteString(out, ansi.HideCursor); err != nil {
			return nil, snowerr.IO(err)
		}
	}
	return p, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Tick records that a unit of work started. Over-ticking is clamped when rendering.
func (p *Progress) Tick() {
	p.tasksDone++
}

// AddTask records a newly discovered unit of work.
func (p *Progress) AddTask() {
	p.tasksTotal++
	p.bar.total = p.tasksTotal
}

// AddDerivations adds the first number found in a "will be built" line. Lines without a
// parsable number count as zero.
func (p *Progress) AddDerivations(line string) {
	count, err := strconv.Atoi(firstIntRe.FindString(line))
	if err != nil {
		count = 0
	}
	p.derivations += count
}

// AddFetched adds the download and unpacked sizes reported by a "will be fetched" line.
// The line must carry at least two sizes.
func (p *Progress) AddFetched(line string) error {
	matches := sizeRe.FindAllStringSubmatch(line, -1)
	if len(matches) < 2 {
		return snowerr.Parsef("expected download and unpacked size in %q", line)
	}
	download, err := toMiB(matches[0][1], matches[0][2])
	if err != nil {
		return err
	}
	disk, err := toMiB(matches[1][1], matches[1][2])
	if err != nil {
		return err
	}
	p.mbDownload += download
	p.mbDiskSpace += disk
	return nil
}

func toMiB(amount, unit string) (float64, error) {
	v, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return 0, snowerr.Parsef("invalid size %q", amount)
	}
	switch unit {
	case "KiB":
		return v / 1024, nil
	case "GiB":
		return v * 1024, nil
	default:
		return v, nil
	}
}

// Render advances the displayed counter by at most one step towards the number of
// started tasks and redraws. Calling it without new work keeps the spinner and elapsed
// time moving.
func (p *Progress) Render() error {
	if p.bar.position < max(p.tasksDone, 0) {
		p.bar.position++
	}
	p.frame++
	if !p.tty {
		return nil
	}
	return p.draw("")
}

// Finish restores the cursor, replaces the spinner with a success or failure marker and
// draws the final state.
func (p *Progress) Finish(success bool) error {
	p.finished = true
	p.success = success
	if p.tasksTotal == 0 {
		p.tasksTotal = 1
	}
	if p.tty {
		if _, err := io.WriteString(p.out, ansi.ShowCursor); err != nil {
			return snowerr.IO(err)
		}
	}
	return p.draw("\n")
}

// Glyph returns the leading marker of the bar: a spinner frame while running, ✔ or ✖
// once finished.
func (p *Progress) Glyph() string {
	switch {
	case !p.finished:
		return spinnerFrames[p.frame%len(spinnerFrames)]
	case p.success:
		return successGlyph
	default:
		return failureGlyph
	}
}

// TasksDone returns the number of started tasks, -1 before the first one.
func (p *Progress) TasksDone() int { return p.tasksDone }

// TasksTotal returns the number of known tasks.
func (p *Progress) TasksTotal() int { return p.tasksTotal }

// Derivations returns the number of derivations announced so far.
func (p *Progress) Derivations() int { return p.derivations }

// Downloaded returns the announced download size in MiB.
func (p *Progress) Downloaded() float64 { return p.mbDownload }

// DiskSpace returns the announced unpacked size in MiB.
func (p *Progress) DiskSpace() float64 { return p.mbDiskSpace }

// Displayed returns the counter currently shown by the bar.
func (p *Progress) Displayed() int { return min(p.bar.position, p.bar.total) }
