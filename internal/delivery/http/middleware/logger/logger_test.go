package logger

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fatih/color"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"

	"github.com/Raimguhinov/linkal/pkg/logger"
)

func TestNew_LogsRequest(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	l := &logger.Logger{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	h := middleware.RequestID(New(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMultiStatus)
		_, _ = w.Write(make([]byte, 2048))
	})))

	req := httptest.NewRequest("PROPFIND", "/cals/", nil)
	req.Header.Set("Depth", "1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, "PROPFIND http://example.com/cals/ - 207")
	assert.Contains(t, out, "size=\"2.0 KiB\"")
	assert.Contains(t, out, "depth=1")
	assert.Contains(t, out, "request_id=")
}

func TestStatusColor(t *testing.T) {
	color.NoColor = true

	assert.Equal(t, "200", statusColor(0))
	assert.Equal(t, "404", statusColor(http.StatusNotFound))
	assert.Equal(t, "502", statusColor(http.StatusBadGateway))
}
