// README: Logger interface shared by services, with zerolog as the implementation.
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger exposes logging methods for common severity levels.
type Logger interface {
	Debugf(format string, args ...any)
	// Debugw logs a message with structured fields.
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Nop discards everything. Used by tests and optional collaborators.
type Nop struct{}

func (Nop) Debugf(string, ...any)         {}
func (Nop) Debugw(string, map[string]any) {}
func (Nop) Infof(string, ...any)          {}
func (Nop) Warnf(string, ...any)          {}
func (Nop) Errorf(string, ...any)         {}

// SetLevel sets the global zerolog level. Unknown names fall back to info.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// New returns a Logger for the given component. KWENDA_ENV=dev switches to a
// human-readable console writer.
func New(component string) Logger {
	var z zerolog.Logger
	if strings.ToLower(os.Getenv("KWENDA_ENV")) == "dev" {
		writer := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		z = zerolog.New(writer).With().Timestamp().Str("component", component).Logger()
	} else {
		z = zerolog.New(os.Stdout).With().Timestamp().Str("component", component).Logger()
	}
	return &zerologLogger{log: z}
}

// FromZerolog wraps an existing zerolog logger, e.g. one writing to a test buffer.
func FromZerolog(z zerolog.Logger) Logger {
	return &zerologLogger{log: z}
}

type zerologLogger struct {
	log zerolog.Logger
}

func (l *zerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *zerologLogger) Debugw(msg string, fields map[string]any) {
	ev := l.log.Debug()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func (l *zerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *zerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *zerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
