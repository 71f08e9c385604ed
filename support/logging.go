package support

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger builds the process logger. Unknown levels fall back to info.
func Logger(cfg Config) zerolog.Logger {
	return LoggerTo(os.Stderr, cfg)
}

func LoggerTo(w io.Writer, cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.LogPretty {
		w = zerolog.ConsoleWriter{Out: w}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Str("service", cfg.ServiceName).Logger()
}
