package runner

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"snow/internal/snowerr"
)

const (
	errorMarker = "error:"

	// noisyFragment is stripped from reported errors; nix prefixes option conflicts with it.
	noisyFragment = "Definition values:"

	// errorThreshold is the number of error lines that fail a stream. Nix regularly emits a
	// single non-fatal `error:` line, so the first one is tolerated.
	errorThreshold = 2

	builtMarker   = " will be built:"
	fetchedMarker = " will be fetched ("
	storePrefix   = "/nix/store"
	importPrefix  = "progress"
)

var errInvalidUTF8 = errors.New("process output is not valid UTF-8")

// Outcome is the classification of a single output line.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeError
	OutcomeDerivations
	OutcomeFetched
	OutcomeTick
	OutcomeTask
)

func (o Outcome) String() string {
	switch o {
	case OutcomeError:
		return "error"
	case OutcomeDerivations:
		return "derivations"
	case OutcomeFetched:
		return "fetched"
	case OutcomeTick:
		return "tick"
	case OutcomeTask:
		return "task"
	default:
		return "none"
	}
}

// Classify decides what a line of build output means. Rules are evaluated in order and
// the first match wins.
func Classify(line string) Outcome {
	switch {
	case strings.Contains(line, errorMarker):
		return OutcomeError
	case strings.Contains(line, builtMarker):
		return OutcomeDerivations
	case strings.Contains(line, fetchedMarker):
		return OutcomeFetched
	case strings.HasPrefix(line, "building"), strings.HasPrefix(line, "copying"):
		return OutcomeTick
	case strings.HasPrefix(strings.TrimLeft(line, " \t"), storePrefix):
		return OutcomeTask
	default:
		return OutcomeNone
	}
}

// ClassifyImport is the classifier used while importing a VM image: only `progress`
// lines count, nothing is treated as an error.
func ClassifyImport(line string) Outcome {
	if strings.HasPrefix(line, importPrefix) {
		return OutcomeTick
	}
	return OutcomeNone
}

// cleanError strips the marker and the known noisy fragment from an error line.
func cleanError(line string) string {
	line = strings.ReplaceAll(line, errorMarker, "")
	line = strings.ReplaceAll(line, noisyFragment, "")
	return strings.TrimSpace(line)
}

// errorTracker counts error lines and keeps the latest one.
type errorTracker struct {
	count int
	last  string
}

// observe records an error line and returns a failure once the threshold is reached.
func (t *errorTracker) observe(line string) error {
	t.count++
	t.last = line
	if t.count == errorThreshold {
		return snowerr.Tool(cleanError(t.last))
	}
	return nil
}

// eachLine calls fn with every line of r, without the line terminator. Lines have no
// length limit. A failure returned by fn stops reading and is returned as is.
func eachLine(r io.Reader, fn func(line []byte) error) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			line = bytes.TrimSuffix(line, []byte("\n"))
			line = bytes.TrimSuffix(line, []byte("\r"))
			if ferr := fn(line); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return snowerr.IO(err)
		}
	}
}

// decodeText rejects output that is not valid UTF-8.
func decodeText(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", snowerr.IO(errInvalidUTF8)
	}
	return string(raw), nil
}

// scanErrors reads r to the end and fails on the second error line.
func scanErrors(r io.Reader) error {
	var tracker errorTracker
	return eachLine(r, func(raw []byte) error {
		line, err := decodeText(raw)
		if err != nil {
			return err
		}
		if !strings.Contains(line, errorMarker) {
			return nil
		}
		return tracker.observe(line)
	})
}
