// Package aggregator drives the upstream client across the registry and
// merges the rewritten answers into one multistatus document.
package aggregator

import (
	"context"
	"log/slog"

	"github.com/Raimguhinov/linkal/internal/dav"
	"github.com/Raimguhinov/linkal/internal/registry"
	"github.com/Raimguhinov/linkal/internal/upstream"
	"github.com/Raimguhinov/linkal/pkg/logger"
)

const (
	_defaultMaxParallel = 8
	_defaultExportQuery = "export"
)

// Forwarder sends one request to an upstream calendar.
type Forwarder interface {
	Forward(ctx context.Context, req upstream.Request) ([]byte, error)
}

type Aggregator struct {
	registry    *registry.Registry
	upstream    Forwarder
	l           *logger.Logger
	catalog     *dav.Catalog
	maxParallel int
	exportQuery string
}

func New(reg *registry.Registry, up Forwarder, catalog *dav.Catalog, l *logger.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{
		registry:    reg,
		upstream:    up,
		catalog:     catalog,
		l:           l.With(slog.String("component", "aggregator")),
		maxParallel: _defaultMaxParallel,
		exportQuery: _defaultExportQuery,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Option -.
type Option func(*Aggregator)

// MaxParallel bounds the number of concurrent upstream calls per request.
func MaxParallel(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxParallel = n
		}
	}
}

// ExportQuery is the query string appended to a calendar URL to download it
// as iCalendar.
func ExportQuery(q string) Option {
	return func(a *Aggregator) {
		a.exportQuery = q
	}
}

func (a *Aggregator) rewriteContext(c registry.Calendar) dav.RewriteContext {
	return dav.RewriteContext{
		Segment:       c.Segment,
		Name:          c.Name,
		Color:         c.Color,
		UpstreamPath:  c.UpstreamPath(),
		PrincipalHref: a.catalog.PrincipalHref(),
		PrincipalName: a.catalog.Principal(),
	}
}

func relocation(rc dav.RewriteContext) dav.Relocation {
	return dav.Relocation{VirtualPath: rc.VirtualPath(), UpstreamPath: rc.UpstreamPath}
}

// Calendar looks up a registry calendar by path segment.
func (a *Aggregator) Calendar(segment string) (registry.Calendar, bool) {
	return a.registry.Lookup(segment)
}
