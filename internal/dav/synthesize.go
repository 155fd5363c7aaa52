package dav

import (
	"fmt"

	"github.com/beevik/etree"
)

const (
	StatusOK       = "HTTP/1.1 200 OK"
	StatusNotFound = "HTTP/1.1 404 Not Found"
)

// UnknownPolicy decides what happens to requested properties the catalog
// does not know.
type UnknownPolicy int

const (
	// OmitUnknown drops them silently.
	OmitUnknown UnknownPolicy = iota
	// ReportUnknown lists them in a 404 propstat.
	ReportUnknown
)

func ParseUnknownPolicy(s string) (UnknownPolicy, error) {
	switch s {
	case "", "omit":
		return OmitUnknown, nil
	case "not-found":
		return ReportUnknown, nil
	default:
		return OmitUnknown, fmt.Errorf("dav - ParseUnknownPolicy: unknown policy %q", s)
	}
}

// Synthesizer answers PROPFIND requests for resources the gateway itself
// represents.
type Synthesizer struct {
	catalog *Catalog
	policy  UnknownPolicy
}

func NewSynthesizer(c *Catalog, policy UnknownPolicy) *Synthesizer {
	return &Synthesizer{catalog: c, policy: policy}
}

func (s *Synthesizer) Catalog() *Catalog {
	return s.catalog
}

// Response builds one <d:response> for href. Each catalog fragment appears
// at most once, whatever the request order or repetition.
func (s *Synthesizer) Response(req *PropfindRequest, href string, includeResourceType bool) *etree.Element {
	names := req.Props
	if req.AllProp {
		names = s.catalog.Names()
	}

	resp := newElement(nameResponse)
	createChild(resp, nameHref).SetText(href)

	ok := createChild(resp, namePropstat)
	prop := createChild(ok, nameProp)

	seen := make(map[PropName]struct{}, len(names))
	var missing []PropName
	for _, n := range names {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}

		if includeResourceType && n == PropResourceType {
			continue
		}
		frag, found := s.catalog.Lookup(n)
		if !found {
			missing = append(missing, n)
			continue
		}
		prop.AddChild(frag)
	}

	if includeResourceType {
		rt := createChild(prop, PropResourceType)
		createChild(rt, nameCollection)
		createChild(rt, namePrincipal)
	}
	createChild(ok, nameStatus).SetText(StatusOK)

	if s.policy == ReportUnknown && len(missing) > 0 {
		nf := createChild(resp, namePropstat)
		nfProp := createChild(nf, nameProp)
		for _, n := range missing {
			createChild(nfProp, n)
		}
		createChild(nf, nameStatus).SetText(StatusNotFound)
	}
	return resp
}

// Synthesize returns a complete multistatus document with a single response.
func (s *Synthesizer) Synthesize(req *PropfindRequest, href string, includeResourceType bool) []byte {
	ms := NewMultistatus()
	ms.Add(s.Response(req, href, includeResourceType))
	return ms.Bytes()
}
