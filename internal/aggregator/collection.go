package aggregator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/beevik/etree"
	"github.com/samber/mo"
	"golang.org/x/sync/errgroup"

	"github.com/Raimguhinov/linkal/internal/dav"
	"github.com/Raimguhinov/linkal/internal/registry"
	"github.com/Raimguhinov/linkal/internal/upstream"
	"github.com/Raimguhinov/linkal/pkg/logger"
)

// Collection answers a PROPFIND or REPORT on the calendar home. Every
// calendar is queried concurrently; the result keeps registry order and the
// whole request fails if any single calendar fails.
func (a *Aggregator) Collection(ctx context.Context, method string, depth dav.Depth, body []byte) ([]byte, error) {
	calendars := a.registry.All()
	results := make([]mo.Result[[]*etree.Element], len(calendars))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxParallel)

	for i, c := range calendars {
		g.Go(func() error {
			results[i] = a.fetchCollection(ctx, c, method, depth, body)
			return results[i].Error()
		})
	}
	if err := g.Wait(); err != nil {
		a.l.Warn("collection request failed", slog.String("method", method), logger.Err(err))
		return nil, fmt.Errorf("aggregator - Collection: %w", err)
	}

	ms := dav.NewMultistatus()
	ms.Add(dav.CollectionResponse(dav.CollectionPath))
	for _, r := range results {
		ms.Add(r.MustGet()...)
	}
	// some owner fields only become reachable once fragments are spliced
	dav.RewriteOwner(ms.Root(), a.catalog.PrincipalHref(), a.catalog.Principal())

	return ms.Bytes(), nil
}

// fetchCollection returns the rewritten fragments one calendar contributes.
// A PROPFIND contributes the calendar collection itself; a REPORT
// contributes every response the upstream produced.
func (a *Aggregator) fetchCollection(ctx context.Context, c registry.Calendar, method string, depth dav.Depth, body []byte) mo.Result[[]*etree.Element] {
	rc := a.rewriteContext(c)

	upstreamDepth := depth
	if method == "PROPFIND" {
		upstreamDepth = dav.DepthZero
	}
	raw, err := a.upstream.Forward(ctx, upstream.Request{
		Method:     method,
		URL:        c.URL,
		Depth:      upstreamDepth,
		Body:       body,
		Calendar:   c.Segment,
		Relocation: relocation(rc),
	})
	if err != nil {
		return mo.Err[[]*etree.Element](err)
	}

	doc, err := dav.ParseMultistatus(c.Segment, raw)
	if err != nil {
		return mo.Err[[]*etree.Element](err)
	}
	rc.Apply(doc.Root())

	if method == "PROPFIND" {
		resp, err := rc.ExtractCollectionResponse(doc.Root())
		if err != nil {
			return mo.Err[[]*etree.Element](err)
		}
		return mo.Ok([]*etree.Element{resp})
	}

	responses := dav.Responses(doc.Root())
	out := make([]*etree.Element, 0, len(responses))
	for _, r := range responses {
		out = append(out, r.Copy())
	}
	return mo.Ok(out)
}
