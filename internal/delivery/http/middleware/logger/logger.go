package logger

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Raimguhinov/linkal/pkg/logger"
)

func New(log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		log := log.With(
			slog.String("component", "middleware/logger"),
		)

		log.Info("logger middleware enabled")

		fn := func(w http.ResponseWriter, r *http.Request) {
			entry := log.With(
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			t1 := time.Now()
			defer func() {
				scheme := "http"
				if r.TLS != nil {
					scheme = "https"
				}

				entry.Info(fmt.Sprintf("%s %s://%s%s - %s", r.Method, scheme, r.Host, r.RequestURI, statusColor(ww.Status())),
					slog.String("depth", r.Header.Get("Depth")),
					slog.String("size", humanize.IBytes(uint64(ww.BytesWritten()))),
					slog.String("duration", time.Since(t1).String()),
				)
			}()

			next.ServeHTTP(ww, r)
		}

		return http.HandlerFunc(fn)
	}
}

func statusColor(status int) string {
	if status == 0 {
		status = http.StatusOK
	}

	var fg color.Attribute
	switch {
	case status < 200:
		fg = color.FgBlue
	case status < 300:
		fg = color.FgGreen
	case status < 400:
		fg = color.FgCyan
	case status < 500:
		fg = color.FgYellow
	default:
		fg = color.FgRed
	}
	return color.New(fg).Sprintf("%03d", status)
}
