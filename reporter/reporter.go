// Package reporter provides the pluggable text sink the harness emits
// progress and failure lines through: an interface that allows external
// integration with logging frameworks while still providing a
// low-overhead built-in implementation for basic usage, matching the
// line formats of ARMmbed/utest's default_handlers.cpp.
package reporter

import (
	"fmt"
	"io"
	"os"
)

// Sink is the pluggable output surface the harness writes reporter lines
// through.
type Sink interface {
	// Line writes formatted text. Callers may build one output line over
	// several calls and supply the newlines themselves.
	Line(format string, args ...any)
}

// StdoutSink is the default Sink: writes to an io.Writer (os.Stdout by
// default) exactly the formatted text of each call, adding no newline,
// matching the ">>> ..." line family default_handlers.cpp writes for
// test progress.
type StdoutSink struct {
	w io.Writer
}

// NewStdoutSink builds a StdoutSink writing to w. A nil w defaults to os.Stdout.
func NewStdoutSink(w io.Writer) *StdoutSink {
	if w == nil {
		w = os.Stdout
	}
	return &StdoutSink{w: w}
}

// Line implements Sink.
func (s *StdoutSink) Line(format string, args ...any) {
	fmt.Fprintf(s.w, format, args...)
}

// HostSink wraps another Sink and additionally prints the host-test
// coordination sentinel ({{failure}}\n{{end}}\n) on fatal test-level
// classifications, matching test/greentea/main.cpp and
// default_handlers.cpp's selftest/greentea failure handlers.
type HostSink struct {
	Sink
}

// NewHostSink wraps inner with host-test coordination output.
func NewHostSink(inner Sink) *HostSink {
	return &HostSink{Sink: inner}
}

// Fatal emits the {{failure}}/{{end}} sentinel pair used by host-side
// test runners to detect a fatal-at-test-level failure.
func (s *HostSink) Fatal() {
	s.Line("{{failure}}\n{{end}}\n")
}
