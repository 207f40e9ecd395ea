package physics

import (
	"fmt"
	"log"
	"os"
)

// Logger is the diagnostic sink Space uses for joint-breakage notices and
// for debug notes on body wake-up, body retyping and new contact manifolds.
// Scene loading does not log. Grounded on
// Gekko3D-gekko/logging.go's Logger interface, simplified because the
// stepper is single-threaded and non-reentrant (spec §5) so no locking is
// needed around the level flag the way DefaultLogger guards it.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

// noopLogger discards everything; it is the default so library consumers
// who don't register a logger pay nothing.
type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}
func (noopLogger) Warnf(string, ...any)  {}

// StdLogger writes to os.Stderr via the standard library's log.Logger,
// following Gekko3D-gekko's DefaultLogger prefixing convention.
type StdLogger struct {
	prefix string
	debug  bool
	out    *log.Logger
}

// NewStdLogger creates a logger that prefixes every line with prefix.
// Debug lines are only emitted when debug is true.
func NewStdLogger(prefix string, debug bool) *StdLogger {
	return &StdLogger{
		prefix: prefix,
		debug:  debug,
		out:    log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds),
	}
}

func (l *StdLogger) line(level, format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	if l.prefix != "" {
		return fmt.Sprintf("[%s] %s: %s", l.prefix, level, msg)
	}
	return fmt.Sprintf("%s: %s", level, msg)
}

func (l *StdLogger) Debugf(format string, args ...any) {
	if !l.debug {
		return
	}
	l.out.Println(l.line("DEBUG", format, args...))
}

func (l *StdLogger) Warnf(format string, args ...any) {
	l.out.Println(l.line("WARN", format, args...))
}
