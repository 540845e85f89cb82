// Package elmlog is a minimal leveled logger threaded through the solver,
// fetcher, builder and driver as a collaborator (never a global), in the
// style of the teacher's log package.
package elmlog

import (
	"fmt"
	"io"
)

// Logger is a minimal wrapper around an io.Writer.
type Logger struct {
	io.Writer
	Verbose bool
}

// New returns a new logger which writes to w.
func New(w io.Writer) *Logger {
	return &Logger{Writer: w}
}

// Logln logs a line unconditionally. A nil *Logger is a valid no-op
// logger, so every collaborator can carry an optional Log field without
// every call site needing a nil check.
func (l *Logger) Logln(args ...interface{}) {
	if l == nil {
		return
	}
	fmt.Fprintln(l, args...)
}

// Logf logs a formatted string unconditionally.
func (l *Logger) Logf(f string, args ...interface{}) {
	if l == nil {
		return
	}
	fmt.Fprintf(l, f, args...)
}

// Debugf logs only when Verbose is set, prefixed with "debug: ".
func (l *Logger) Debugf(f string, args ...interface{}) {
	if l == nil || !l.Verbose {
		return
	}
	fmt.Fprintf(l, "debug: "+f+"\n", args...)
}
