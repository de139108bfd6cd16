// Package util provides low-level helpers shared by all other packages.
package util

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// LogLevel controls output verbosity.
type LogLevel int

const (
	LogQuiet   LogLevel = 0
	LogNormal  LogLevel = 1
	LogVerbose LogLevel = 2
	LogDebug   LogLevel = 3
)

// levelTags maps zerolog level names onto the console's bracketed tags.
// Verbose and Debug ride on zerolog's debug and trace levels.
var levelTags = map[string]string{ //nolint:gochecknoglobals
	zerolog.LevelErrorValue: "[ERR]",
	zerolog.LevelWarnValue:  "[WRN]",
	zerolog.LevelInfoValue:  "[INF]",
	zerolog.LevelDebugValue: "[VRB]",
	zerolog.LevelTraceValue: "[DBG]",
}

type field struct{ key, value string }

// Logger writes levelled messages to stderr with optional timestamps
// and level prefixes.  It is safe for concurrent use once configured.
type Logger struct {
	level      LogLevel
	output     io.Writer
	timestamps bool
	fields     []field
	zl         zerolog.Logger
}

// NewLogger returns a Logger that prints messages at or below the given
// verbosity (0 = quiet, 1 = normal, 2 = verbose, 3 = debug).
func NewLogger(verbosity int) *Logger {
	l := &Logger{
		level:      LogLevel(verbosity),
		output:     os.Stderr,
		timestamps: verbosity >= 3, // auto-enable timestamps in debug mode
	}
	l.rebuild()
	return l
}

// SetTimestamps enables or disables timestamp prefixes.
func (l *Logger) SetTimestamps(on bool) {
	l.timestamps = on
	l.rebuild()
}

// SetOutput overrides the output writer (default: os.Stderr).
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
	l.rebuild()
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel { return l.level }

// With returns a child logger that appends key=value to every line.
func (l *Logger) With(key, value string) *Logger {
	child := &Logger{
		level:      l.level,
		output:     l.output,
		timestamps: l.timestamps,
		fields:     append(append([]field(nil), l.fields...), field{key, value}),
	}
	child.rebuild()
	return child
}

// Info prints when verbosity ≥ 1.  Prefixed with [INF].
func (l *Logger) Info(format string, args ...interface{}) {
	l.zl.Info().Msgf(format, args...)
}

// Warn prints when verbosity ≥ 1.  Prefixed with [WRN].
func (l *Logger) Warn(format string, args ...interface{}) {
	l.zl.Warn().Msgf(format, args...)
}

// Verbose prints when verbosity ≥ 2.  Prefixed with [VRB].
func (l *Logger) Verbose(format string, args ...interface{}) {
	l.zl.Debug().Msgf(format, args...)
}

// Debug prints when verbosity ≥ 3.  Prefixed with [DBG].
func (l *Logger) Debug(format string, args ...interface{}) {
	l.zl.Trace().Msgf(format, args...)
}

// Error always prints regardless of verbosity.  Prefixed with [ERR].
func (l *Logger) Error(format string, args ...interface{}) {
	l.zl.Error().Msgf(format, args...)
}

func (l *Logger) rebuild() {
	parts := []string{zerolog.LevelFieldName, zerolog.MessageFieldName}
	if l.timestamps {
		parts = append([]string{zerolog.TimestampFieldName}, parts...)
	}

	cw := zerolog.ConsoleWriter{
		Out:        zerolog.SyncWriter(l.output),
		NoColor:    true,
		TimeFormat: "15:04:05.000",
		PartsOrder: parts,
		FormatLevel: func(i interface{}) string {
			if s, ok := i.(string); ok {
				if tag, ok := levelTags[s]; ok {
					return tag
				}
			}
			return "[???]"
		},
	}

	ctx := zerolog.New(cw).Level(zerologLevel(l.level)).With()
	if l.timestamps {
		ctx = ctx.Timestamp()
	}
	for _, f := range l.fields {
		ctx = ctx.Str(f.key, f.value)
	}
	l.zl = ctx.Logger()
}

func zerologLevel(level LogLevel) zerolog.Level {
	switch {
	case level <= LogQuiet:
		return zerolog.ErrorLevel
	case level == LogNormal:
		return zerolog.InfoLevel
	case level == LogVerbose:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}
