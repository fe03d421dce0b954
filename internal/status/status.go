// Package status carries short user-facing progress and outcome messages from
// the rectifier to whatever is displaying them.
package status

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Severity classifies a status message.
type Severity int

const (
	Neutral Severity = iota
	Success
	Error
)

func (s Severity) String() string {
	switch s {
	case Neutral:
		return "neutral"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Sink receives status messages. Implementations must not block for long;
// the pixel loop reports progress synchronously.
type Sink interface {
	Report(severity Severity, message string)
}

// Func adapts a plain function to Sink.
type Func func(severity Severity, message string)

// Report calls f.
func (f Func) Report(severity Severity, message string) { f(severity, message) }

// Discard drops every message.
var Discard Sink = Func(func(Severity, string) {})

// LogSink forwards messages to a slog.Logger. Errors log at error level,
// everything else at info.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a sink writing to logger, or slog.Default() if nil.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Report(severity Severity, msg string) {
	level := slog.LevelInfo
	if severity == Error {
		level = slog.LevelError
	}
	s.logger.Log(context.Background(), level, msg, "severity", severity.String())
}

// PrinterSink writes one line per message to w, prefixing non-neutral
// messages with their severity.
type PrinterSink struct {
	mu sync.Mutex
	w  io.Writer
	p  *message.Printer
}

// NewPrinterSink returns a sink writing to w with numbers in messages
// formatted for lang.
func NewPrinterSink(w io.Writer, lang language.Tag) *PrinterSink {
	return &PrinterSink{w: w, p: message.NewPrinter(lang)}
}

func (s *PrinterSink) Report(severity Severity, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch severity {
	case Neutral:
		s.p.Fprintf(s.w, "%s\n", msg)
	default:
		s.p.Fprintf(s.w, "[%s] %s\n", severity, msg)
	}
}

// Printf formats with the sink's locale, so that counts like 12500 come out
// as "12,500" in English.
func (s *PrinterSink) Printf(severity Severity, format string, args ...any) {
	s.Report(severity, s.p.Sprintf(format, args...))
}

// Recorder keeps every message it receives. It is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	Messages []Message
}

// Message is one recorded report.
type Message struct {
	Severity Severity
	Text     string
}

func (r *Recorder) Report(severity Severity, msg string) {
	r.mu.Lock()
	r.Messages = append(r.Messages, Message{Severity: severity, Text: msg})
	r.mu.Unlock()
}

// Last returns the most recent message, or the zero Message.
func (r *Recorder) Last() Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Messages) == 0 {
		return Message{}
	}
	return r.Messages[len(r.Messages)-1]
}

// Snapshot returns a copy of the recorded messages.
func (r *Recorder) Snapshot() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.Messages...)
}
