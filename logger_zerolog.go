package auth

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ZerologLogger adapts a zerolog.Logger to Logger.
type ZerologLogger struct {
	logger zerolog.Logger
}

var _ Logger = ZerologLogger{}

// NewZerologLogger wraps logger, tagging every entry with component=auth.
func NewZerologLogger(logger zerolog.Logger) ZerologLogger {
	return ZerologLogger{logger: logger.With().Str("component", "auth").Logger()}
}

// SetupZerolog builds the process logger. Console output is used in
// dev mode, JSON otherwise.
func SetupZerolog(out io.Writer, dev bool) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}

	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
			Level(level).With().Caller().Logger()
	}
	return logger
}

// Zerolog returns the wrapped logger
func (l ZerologLogger) Zerolog() zerolog.Logger { return l.logger }

func (l ZerologLogger) Debug(format string, args ...any) {
	l.logger.Debug().Msgf(format, args...)
}

func (l ZerologLogger) Info(format string, args ...any) {
	l.logger.Info().Msgf(format, args...)
}

func (l ZerologLogger) Warn(format string, args ...any) {
	l.logger.Warn().Msgf(format, args...)
}

func (l ZerologLogger) Error(format string, args ...any) {
	l.logger.Error().Msgf(format, args...)
}
