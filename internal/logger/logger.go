package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. Development gets a human readable console
// writer, every other environment logs JSON lines.
func New(env string) zerolog.Logger {
	return newWithWriter(env, os.Stderr)
}

func newWithWriter(env string, out io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	var writer io.Writer = out

	switch env {
	case "development", "local":
		level = zerolog.DebugLevel
		writer = zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime, NoColor: true}
	case "test":
		level = zerolog.WarnLevel
	}

	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}
