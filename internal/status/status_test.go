package status

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "neutral", Neutral.String())
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "error", Error.String())
	assert.Equal(t, "Severity(9)", Severity(9).String())
}

func TestFunc(t *testing.T) {
	var got []string
	var sink Sink = Func(func(s Severity, m string) { got = append(got, s.String()+":"+m) })
	sink.Report(Success, "done")
	assert.Equal(t, []string{"success:done"}, got)

	Discard.Report(Error, "ignored")
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewTextHandler(&buf, nil)))

	sink.Report(Neutral, "Processing: 50%")
	sink.Report(Error, "Not enough points")

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, `msg="Processing: 50%"`)
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "severity=error")
}

func TestPrinterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewPrinterSink(&buf, language.English)

	sink.Report(Neutral, "Applying correction")
	sink.Printf(Success, "Corrected %d pixels", 12500)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Applying correction", lines[0])
	assert.Equal(t, "[success] Corrected 12,500 pixels", lines[1])
}

func TestRecorder(t *testing.T) {
	var r Recorder
	assert.Equal(t, Message{}, r.Last())

	r.Report(Neutral, "a")
	r.Report(Error, "b")
	assert.Equal(t, Message{Severity: Error, Text: "b"}, r.Last())
	assert.Len(t, r.Snapshot(), 2)
}
