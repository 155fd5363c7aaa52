package logger

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/tracelog"
)

const queryLog = "Query"

// NewTracer routes pgx query tracing into l at debug level.
func NewTracer(l *Logger) pgx.QueryTracer {
	return &tracelog.TraceLog{
		Logger:   l,
		LogLevel: tracelog.LogLevelTrace,
	}
}

func (l *Logger) Log(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	if msg != queryLog {
		return
	}
	attrs := make([]slog.Attr, 0, len(data))
	for k, v := range data {
		switch k {
		case "sql":
			if q, ok := v.(string); ok {
				attrs = append(attrs, Query(q))
			}
		case "time", "rowCount":
			attrs = append(attrs, slog.Any(k, v))
		case "err":
			if err, ok := v.(error); ok {
				attrs = append(attrs, Err(err))
			}
		}
	}
	l.LogAttrs(ctx, translateLevel(level), "pgx."+msg, attrs...)
}

func translateLevel(level tracelog.LogLevel) slog.Level {
	switch level {
	case tracelog.LogLevelTrace, tracelog.LogLevelDebug, tracelog.LogLevelInfo:
		return slog.LevelDebug
	case tracelog.LogLevelWarn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
