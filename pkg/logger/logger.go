package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Raimguhinov/linkal/pkg/logger/slogpretty"
)

const (
	envDev  = "dev"
	envProd = "prod"
)

// Logger -.
type Logger struct {
	*slog.Logger
}

// New builds the logger for env: local gets the coloured handler, dev and
// prod write JSON. prod never logs below info.
func New(level, env string) *Logger {
	lev := ParseLevel(level)

	var h slog.Handler
	switch env {
	case envDev:
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lev})
	case envProd:
		h = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: max(lev, slog.LevelInfo)})
	default:
		return &Logger{setupPrettySlog(lev)}
	}

	return &Logger{slog.New(h)}
}

// ParseLevel reads debug, info, warn or error; anything else is info.
func ParseLevel(level string) slog.Level {
	var lev slog.Level
	if err := lev.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return lev
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func setupPrettySlog(level slog.Level) *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: level,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

// With returns a child logger carrying the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{l.Logger.With(args...)}
}

func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

func Calendar(segment string) slog.Attr {
	return slog.String("calendar", segment)
}

func Query(q string) slog.Attr {
	return slog.Attr{
		Key:   "query",
		Value: slog.StringValue(slogpretty.PrettySQL(q)),
	}
}
