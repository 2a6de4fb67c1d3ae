package reporter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/joeycumines/logiface"
)

// lineEvent is a minimal logiface.Event implementation that accumulates
// fields as "key=value" pairs, grounded on logiface's Event contract
// (Level + AddField are the only mandatory methods; UnimplementedEvent
// supplies the rest as unsupported, per logiface.go's documentation of
// how to add a new backend).
type lineEvent struct {
	logiface.UnimplementedEvent
	level  logiface.Level
	fields []string
}

func (e *lineEvent) Level() logiface.Level { return e.level }

func (e *lineEvent) AddField(key string, val any) {
	e.fields = append(e.fields, fmt.Sprintf("%s=%v", key, val))
}

// lineWriter implements logiface.Writer and logiface.EventFactory,
// writing one line per event to an io.Writer.
type lineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lineWriter) NewEvent(level logiface.Level) *lineEvent {
	return &lineEvent{level: level}
}

func (lw *lineWriter) Write(event *lineEvent) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	_, err := fmt.Fprintf(lw.w, "level=%s %s\n", event.level, strings.Join(event.fields, " "))
	return err
}

// LogifaceSink adapts a github.com/joeycumines/logiface Logger into a
// reporter.Sink, so hosts that already use logiface for structured
// output can route the harness's reporter lines into their logging
// pipeline.
//
// Line accepts the same printf-style format+args as every other Sink.
// The text is not parsed into separate fields: the formatted text of
// each call becomes one event's "msg" field, keeping this adapter a
// drop-in alternative to StdoutSink rather than a bespoke structured
// encoder.
type LogifaceSink struct {
	logger *logiface.Logger[*lineEvent]
}

// NewLogifaceSink builds a LogifaceSink writing to w (os.Stderr if nil),
// grounded on logiface/stumpy's WithWriter/WithStumpy construction
// pattern, generalized to this package's minimal line-based Event.
func NewLogifaceSink(w io.Writer) *LogifaceSink {
	if w == nil {
		w = os.Stderr
	}
	lw := &lineWriter{w: w}
	logger := logiface.New[*lineEvent](
		logiface.WithEventFactory[*lineEvent](lw),
		logiface.WithWriter[*lineEvent](lw),
		logiface.WithLevel[*lineEvent](logiface.LevelInformational),
	)
	return &LogifaceSink{logger: logger}
}

// Line implements Sink by logging the formatted line as a single
// structured "msg" field at informational level.
func (s *LogifaceSink) Line(format string, args ...any) {
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	if msg == "" {
		return
	}
	s.logger.Info().Str("msg", msg).Log("")
}
