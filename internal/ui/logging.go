package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the leveled logger handed to every component. It writes to
// stderr only; stdout belongs to the JSON result.
type Logger struct {
	Debug bool
	zl    zerolog.Logger
}

func NewLogger(debug bool) *Logger {
	return NewLoggerTo(os.Stderr, debug)
}

func NewLoggerTo(w io.Writer, debug bool) *Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	out := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.DateTime,
		NoColor:    true,
	}

	return &Logger{
		Debug: debug,
		zl:    zerolog.New(out).Level(level).With().Timestamp().Logger(),
	}
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// With returns a child logger tagged with a component name.
func (l *Logger) With(component string) *Logger {
	return &Logger{
		Debug: l.Debug,
		zl:    l.zl.With().Str("component", component).Logger(),
	}
}

func (l *Logger) Debugf(format string, args ...any) {
	l.zl.Debug().Msg(trim(format, args))
}

func (l *Logger) Infof(format string, args ...any) {
	l.zl.Info().Msg(trim(format, args))
}

func (l *Logger) Warnf(format string, args ...any) {
	l.zl.Warn().Msg(trim(format, args))
}

func (l *Logger) Errorf(format string, args ...any) {
	l.zl.Error().Msg(trim(format, args))
}

func trim(format string, args []any) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
