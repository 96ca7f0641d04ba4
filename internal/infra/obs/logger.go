package obs

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger uses tint for dev/local/test and JSON elsewhere. LOG_LEVEL
// overrides the default info level.
func NewLogger(env string) *slog.Logger {
	return newLogger(env, os.Stdout, ParseLevel(os.Getenv("LOG_LEVEL")))
}

func newLogger(env string, writer io.Writer, level slog.Level) *slog.Logger {
	switch strings.ToLower(env) {
	case "dev", "local", "test":
		return slog.New(tint.NewHandler(writer, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
			AddSource:  true,
		}))
	default:
		return slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		}))
	}
}

func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard is a logger for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
