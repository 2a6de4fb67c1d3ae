package reporter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStdoutSink_LineWritesFormatted(t *testing.T) {
	var buf bytes.Buffer
	s := NewStdoutSink(&buf)
	s.Line(">>> Running %d test cases...\n", 3)
	require.Equal(t, ">>> Running 3 test cases...\n", buf.String())
}

func TestStdoutSink_NilWriterDefaultsToStdout(t *testing.T) {
	s := NewStdoutSink(nil)
	require.NotNil(t, s.w)
}

func TestHostSink_FatalEmitsSentinel(t *testing.T) {
	var buf bytes.Buffer
	host := NewHostSink(NewStdoutSink(&buf))
	host.Fatal()
	require.Equal(t, "{{failure}}\n{{end}}\n", buf.String())
}

func TestHostSink_LineDelegatesToInner(t *testing.T) {
	var buf bytes.Buffer
	host := NewHostSink(NewStdoutSink(&buf))
	host.Line(">>> %s\n", "hello")
	require.Equal(t, ">>> hello\n", buf.String())
}
