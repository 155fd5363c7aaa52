package aggregator

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/emersion/go-ical"

	"github.com/Raimguhinov/linkal/internal/apperr"
	"github.com/Raimguhinov/linkal/internal/upstream"
	"github.com/Raimguhinov/linkal/internal/usecase/etag"
)

// Export is a calendar downloaded as iCalendar.
type Export struct {
	Data []byte
	ETag string
}

// Export downloads the whole calendar from its upstream and stamps the
// configured name and colour on it.
func (a *Aggregator) Export(ctx context.Context, segment string) (*Export, error) {
	const op = "aggregator - Export"

	c, ok := a.registry.Lookup(segment)
	if !ok {
		return nil, apperr.UnknownCalendar(op, segment)
	}

	u, err := url.Parse(c.URL)
	if err != nil {
		return nil, apperr.FromTransport(op, c.Segment, err)
	}
	if a.exportQuery != "" {
		u.RawQuery = a.exportQuery
	}

	raw, err := a.upstream.Forward(ctx, upstream.Request{
		Method:   "GET",
		URL:      u.String(),
		Calendar: c.Segment,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cal, err := ical.NewDecoder(bytes.NewReader(raw)).Decode()
	if err != nil {
		return nil, apperr.Rewrite(op, c.Segment, fmt.Errorf("decode iCalendar: %w", err))
	}

	cal.Props.SetText("NAME", c.Name)
	cal.Props.SetText("X-WR-CALNAME", c.Name)
	if color, ok := c.Color.Get(); ok {
		cal.Props.SetText("COLOR", color)
		cal.Props.SetText("X-APPLE-CALENDAR-COLOR", color)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, apperr.Rewrite(op, c.Segment, fmt.Errorf("encode iCalendar: %w", err))
	}

	// the tag covers what the output is derived from, not the re-encoded bytes
	tag, err := etag.FromData(bytes.Join([][]byte{raw, []byte(c.Name), []byte(c.Color.OrEmpty())}, []byte{0}))
	if err != nil {
		return nil, apperr.Rewrite(op, c.Segment, err)
	}
	return &Export{Data: buf.Bytes(), ETag: tag}, nil
}
