// Package registry holds the calendars the gateway aggregates. A Registry is
// built once at startup and only read afterwards.
package registry

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/samber/mo"
)

// Calendar is one upstream calendar exposed as /cals/{Segment}/.
type Calendar struct {
	Name    string
	URL     string
	Segment string
	Color   mo.Option[string]
}

// UpstreamPath returns the path component of the upstream URL.
func (c Calendar) UpstreamPath() string {
	u, err := url.Parse(c.URL)
	if err != nil {
		return ""
	}
	if u.Path == "" {
		return "/"
	}
	return u.Path
}

// SegmentFromURL derives the path segment from the last non-empty element of
// the URL path.
func SegmentFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("registry - SegmentFromURL - url.Parse: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("registry - SegmentFromURL: %q is not an absolute URL", raw)
	}
	seg := path.Base(strings.TrimSuffix(u.Path, "/"))
	if seg == "." || seg == "/" || seg == "" {
		return "", fmt.Errorf("registry - SegmentFromURL: %q has no path segment", raw)
	}
	return seg, nil
}

// Registry is an ordered, immutable set of calendars keyed by segment.
type Registry struct {
	calendars []Calendar
	index     map[string]int
}

// New validates calendars and keeps their order. Segments must be unique and
// safe to use as a single path element.
func New(calendars []Calendar) (*Registry, error) {
	r := &Registry{
		calendars: make([]Calendar, 0, len(calendars)),
		index:     make(map[string]int, len(calendars)),
	}
	for _, c := range calendars {
		if c.Segment == "" || strings.ContainsAny(c.Segment, "/?#") {
			return nil, fmt.Errorf("registry - New: invalid segment %q for %s", c.Segment, c.URL)
		}
		if _, dup := r.index[c.Segment]; dup {
			return nil, fmt.Errorf("registry - New: duplicate segment %q", c.Segment)
		}
		if c.Name == "" {
			c.Name = c.Segment
		}
		r.index[c.Segment] = len(r.calendars)
		r.calendars = append(r.calendars, c)
	}
	return r, nil
}

// All returns the calendars in registry order.
func (r *Registry) All() []Calendar {
	return append([]Calendar(nil), r.calendars...)
}

func (r *Registry) Lookup(segment string) (Calendar, bool) {
	i, ok := r.index[segment]
	if !ok {
		return Calendar{}, false
	}
	return r.calendars[i], true
}

func (r *Registry) Len() int {
	return len(r.calendars)
}
