package runner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"
)

const (
	defaultColumns = 100
	minMeterWidth  = 10
	maxMeterWidth  = 40
)

var (
	spinnerFrames = spinner.MiniDot.Frames

	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	labelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	drvStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	fetchStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	diskStyle    = lipgloss.NewStyle().Bold(true)

	successGlyph = "✔"
	failureGlyph = "✖"
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	failureStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
)

// columns returns the current terminal width, falling back to defaultColumns.
func (p *Progress) columns() int {
	if f, ok := p.out.(*os.File); ok && p.tty {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			return w
		}
	}
	return defaultColumns
}

// line renders the bar:
//
//	⠹ host ━━━━━━━━━━━━━━━━━━━━  40% • 2/5 • [ 12 drv / 3.5 MiB / 20.1 MiB ] • 14s
func (p *Progress) line() string {
	p.bar.columns = p.columns()

	glyph := p.Glyph()
	switch {
	case !p.finished:
		glyph = spinnerStyle.Render(glyph)
	case p.success:
		glyph = successStyle.Render(glyph)
	default:
		glyph = failureStyle.Render(glyph)
	}

	shown := p.Displayed()
	ratio := 0.0
	if p.bar.total > 0 {
		ratio = float64(shown) / float64(p.bar.total)
	}

	stats := fmt.Sprintf("%3.0f%% • %d/%d • [ %s drv / %s MiB / %s MiB ] • %s",
		ratio*100,
		shown, p.bar.total,
		drvStyle.Render(fmt.Sprint(p.derivations)),
		fetchStyle.Render(formatMiB(p.mbDownload)),
		diskStyle.Render(formatMiB(p.mbDiskSpace)),
		time.Since(p.started).Truncate(time.Second),
	)
	head := glyph + " " + labelStyle.Render(p.label) + " "

	width := p.bar.columns - lipgloss.Width(head) - lipgloss.Width(stats) - 1
	width = max(minMeterWidth, min(width, maxMeterWidth))
	meter := progress.New(
		progress.WithDefaultGradient(),
		progress.WithoutPercentage(),
		progress.WithWidth(width),
	)

	return head + meter.ViewAs(ratio) + " " + stats
}

// draw writes the bar, overwriting the current line on a terminal. Outside a terminal it
// only writes the final state, as a plain line.
func (p *Progress) draw(suffix string) error {
	line := p.line()
	if !p.tty {
		if !p.finished {
			return nil
		}
		_, err := io.WriteString(p.out, ansi.Strip(line)+suffix)
		return err
	}
	var b strings.Builder
	b.WriteString("\r")
	b.WriteString(ansi.EraseEntireLine)
	b.WriteString(line)
	b.WriteString(suffix)
	_, err := io.WriteString(p.out, b.String())
	return err
}

func formatMiB(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
