// Package upstream forwards WebDAV requests to the remote calendar servers.
package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/Raimguhinov/linkal/internal/apperr"
	"github.com/Raimguhinov/linkal/internal/dav"
	"github.com/Raimguhinov/linkal/internal/metrics"
	"github.com/Raimguhinov/linkal/pkg/logger"
)

const (
	_defaultTimeout          = 15 * time.Second
	_defaultMaxResponseBytes = 16 * humanize.MiByte
	_defaultUserAgent        = "linkal"

	headerRequestID = "X-Request-Id"
)

// Request is one call to an upstream calendar.
type Request struct {
	Method string
	URL    string
	Depth  dav.Depth
	Body   []byte
	// Calendar is the registry segment, used for errors, logs and metrics.
	Calendar string
	// Relocation maps hrefs in Body from the virtual namespace to the upstream.
	Relocation dav.Relocation
}

// Client is safe for concurrent use.
type Client struct {
	http             *http.Client
	l                *logger.Logger
	timeout          time.Duration
	maxResponseBytes int64
	userAgent        string
}

func New(l *logger.Logger, opts ...Option) *Client {
	c := &Client{
		http:             &http.Client{Transport: http.DefaultTransport},
		l:                l.With(slog.String("component", "upstream")),
		timeout:          _defaultTimeout,
		maxResponseBytes: _defaultMaxResponseBytes,
		userAgent:        _defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Forward sends the request and returns the raw upstream body. A transport
// failure or a non-2xx status is returned as an apperr.Error; nothing is
// retried.
func (c *Client) Forward(ctx context.Context, req Request) ([]byte, error) {
	const op = "upstream - Forward"

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body := dav.RelocateRequestBody(req.Body, req.Relocation)
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(body))
	if err != nil {
		return nil, apperr.FromTransport(op, req.Calendar, err)
	}

	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		httpReq.Header.Set("Depth", req.Depth.String())
	}
	if len(body) > 0 {
		httpReq.Header.Set("Content-Type", "application/xml; charset=utf-8")
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set(headerRequestID, requestID(ctx))

	log := c.l.With(
		logger.Calendar(req.Calendar),
		slog.String("method", req.Method),
		slog.String("url", req.URL),
		slog.String("depth", req.Depth.String()),
	)
	log.Debug("forwarding request", slog.Int("body_bytes", len(body)))

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.ObserveUpstream(req.Calendar, req.Method, metrics.OutcomeTransport, start)
		log.Debug("request failed", logger.Err(err))
		return nil, apperr.FromTransport(op, req.Calendar, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseBytes+1))
	if err != nil {
		metrics.ObserveUpstream(req.Calendar, req.Method, metrics.OutcomeTransport, start)
		return nil, apperr.FromTransport(op, req.Calendar, fmt.Errorf("read body: %w", err))
	}
	if int64(len(data)) > c.maxResponseBytes {
		metrics.ObserveUpstream(req.Calendar, req.Method, metrics.OutcomeTransport, start)
		return nil, apperr.FromTransport(op, req.Calendar,
			fmt.Errorf("response larger than %s", humanize.IBytes(uint64(c.maxResponseBytes))))
	}

	log.Debug("received response",
		slog.String("status", resp.Status),
		slog.String("size", humanize.IBytes(uint64(len(data)))),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.ObserveUpstream(req.Calendar, req.Method, metrics.OutcomeStatus, start)
		return nil, apperr.FromStatus(op, req.Calendar, resp.Status, data)
	}
	metrics.ObserveUpstream(req.Calendar, req.Method, metrics.OutcomeOK, start)

	return data, nil
}

// requestID reuses the inbound request id so upstream logs can be correlated.
func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
