package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks the user yes/no questions.
type Prompter interface {
	Confirm(question string, def bool) (bool, error)
}

// ErrNotInteractive is returned by TerminalPrompter when there is no terminal to ask on.
var ErrNotInteractive = errors.New("cannot prompt: stdin is not a terminal")

// TerminalPrompter reads answers from a terminal. When the input is not a terminal it
// refuses to answer instead of guessing, so nothing is staged or deployed unattended.
type TerminalPrompter struct {
	in  io.Reader
	out io.Writer
	tty bool
}

// NewTerminalPrompter creates a prompter that writes questions to out and reads answers
// from in.
func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	f, ok := in.(*os.File)
	return &TerminalPrompter{
		in:  in,
		out: out,
		tty: ok && term.IsTerminal(int(f.Fd())),
	}
}

// Confirm prints question followed by the choices and reads one line. An empty answer
// selects def.
func (p *TerminalPrompter) Confirm(question string, def bool) (bool, error) {
	if !p.tty {
		return false, ErrNotInteractive
	}
	choices := "[y/N]"
	if def {
		choices = "[Y/n]"
	}
	if _, err := fmt.Fprintf(p.out, "? %s %s ", question, choices); err != nil {
		return false, err
	}
	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	return parseAnswer(line, def), nil
}

func parseAnswer(line string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return def
	}
}
