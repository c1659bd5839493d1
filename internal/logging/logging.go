package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures zerolog for the process.
func Setup(environment string) zerolog.Logger {
	return SetupWithWriter(environment, os.Stdout)
}

// SetupWithWriter is Setup writing to w. Production output is JSON, development
// output goes through the console writer.
func SetupWithWriter(environment string, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level := zerolog.InfoLevel
	out := w
	if environment == "development" {
		level = zerolog.DebugLevel
		out = zerolog.ConsoleWriter{Out: w}
	}

	logger := zerolog.New(out).With().Timestamp().Str("service", "parkinglot").Logger().Level(level)
	log.Logger = logger
	return logger
}

// Writer adapts a logger to io.Writer for libraries that only take a writer,
// such as the HTTP access log.
func Writer(logger zerolog.Logger, level zerolog.Level) io.Writer {
	return levelWriter{logger: logger, level: level}
}

type levelWriter struct {
	logger zerolog.Logger
	level  zerolog.Level
}

func (w levelWriter) Write(p []byte) (int, error) {
	msg := string(p)
	if n := len(msg); n > 0 && msg[n-1] == '\n' {
		msg = msg[:n-1]
	}
	w.logger.WithLevel(w.level).Msg(msg)
	return len(p), nil
}
