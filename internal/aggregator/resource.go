package aggregator

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Raimguhinov/linkal/internal/apperr"
	"github.com/Raimguhinov/linkal/internal/dav"
	"github.com/Raimguhinov/linkal/internal/registry"
	"github.com/Raimguhinov/linkal/internal/upstream"
)

// eventsQuery is sent for a REPORT without a body.
const eventsQuery = `<?xml version="1.0" encoding="utf-8" ?>
<c:calendar-query xmlns:d="DAV:" xmlns:c="urn:ietf:params:xml:ns:caldav">
    <d:prop>
        <d:getetag />
        <c:calendar-data />
    </d:prop>
    <c:filter>
        <c:comp-filter name="VCALENDAR">
            <c:comp-filter name="VEVENT" />
        </c:comp-filter>
    </c:filter>
</c:calendar-query>`

// Resource forwards a PROPFIND or REPORT for one calendar, or an object
// below it when object is not empty, and returns the rewritten multistatus.
func (a *Aggregator) Resource(ctx context.Context, segment, object, method string, depth dav.Depth, body []byte) ([]byte, error) {
	const op = "aggregator - Resource"

	c, target, err := a.resolve(op, segment, object)
	if err != nil {
		return nil, err
	}

	if method == "REPORT" && len(bytes.TrimSpace(body)) == 0 {
		body = []byte(eventsQuery)
		depth = dav.DepthOne
	}

	rc := a.rewriteContext(c)
	raw, err := a.upstream.Forward(ctx, upstream.Request{
		Method:     method,
		URL:        target,
		Depth:      depth,
		Body:       body,
		Calendar:   c.Segment,
		Relocation: relocation(rc),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	doc, err := dav.ParseMultistatus(c.Segment, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rc.Apply(doc.Root())

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, apperr.Rewrite(op, c.Segment, err)
	}
	return out, nil
}

// Object fetches a calendar object as-is.
func (a *Aggregator) Object(ctx context.Context, segment, object string) ([]byte, error) {
	const op = "aggregator - Object"

	c, target, err := a.resolve(op, segment, object)
	if err != nil {
		return nil, err
	}
	raw, err := a.upstream.Forward(ctx, upstream.Request{
		Method:   "GET",
		URL:      target,
		Calendar: c.Segment,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return raw, nil
}

// resolve finds the calendar and the upstream URL of object inside it.
func (a *Aggregator) resolve(op, segment, object string) (registry.Calendar, string, error) {
	c, ok := a.registry.Lookup(segment)
	if !ok {
		return registry.Calendar{}, "", apperr.UnknownCalendar(op, segment)
	}

	object = strings.Trim(object, "/")
	if object == "" {
		return c, c.URL, nil
	}
	for _, part := range strings.Split(object, "/") {
		if part == "." || part == ".." {
			return registry.Calendar{}, "", apperr.Malformedf(op, "invalid object path %q", object)
		}
	}

	u, err := url.Parse(c.URL)
	if err != nil {
		return registry.Calendar{}, "", apperr.FromTransport(op, c.Segment, err)
	}
	return c, u.JoinPath(object).String(), nil
}
