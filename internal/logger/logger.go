package logger

import (
	"fmt"
	"io"

	"github.com/fatih/color" // Import the fatih/color package for colored console output
)

// output is where every log line goes. It defaults to color.Error (stderr) so that
// stdout stays clean for results such as `snow eval`.
var output io.Writer = color.Error

// Info logs informational messages in green color.
var Info = leveled(color.New(color.FgGreen, color.Bold), "INFO")

// Warn logs warning messages in bright magenta color.
// Magenta is bright and stands out, signaling caution without being too alarming.
var Warn = leveled(color.New(color.FgHiMagenta, color.Bold), "WARN")

// Error logs error messages in red color.
var Error = leveled(color.New(color.FgRed, color.Bold), "ERROR")

// Debug logs debug messages in cyan color if enabled, otherwise is a no-op.
// It is swapped during Init based on the verbose flag.
var Debug = func(format string, a ...any) {}

// Cyan highlights a fragment (command lines, hosts) inside a log message.
var Cyan = color.New(color.FgCyan).SprintFunc()

// leveled returns a printf-like function that prefixes every message with
// the colored `[❄ LEVEL]` tag and terminates it with a newline.
func leveled(c *color.Color, level string) func(format string, a ...any) {
	return func(format string, a ...any) {
		_, _ = c.Fprintf(output, "[❄ %s]", level)
		_, _ = fmt.Fprintf(output, " - "+format+"\n", a...)
	}
}

// Init enables or disables debug logging.
// When disabled, Debug stays a no-op function that silently ignores debug logs.
func Init(enableDebug bool) {
	if enableDebug {
		Debug = leveled(color.New(color.FgBlue, color.Bold), "DEBUG")
	} else {
		Debug = func(format string, a ...any) {}
	}
}

// SetOutput redirects all log output, returning the previous writer.
func SetOutput(w io.Writer) io.Writer {
	prev := output
	output = w
	return prev
}
