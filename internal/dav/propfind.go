package dav

import (
	"bytes"
	"errors"
	"unicode/utf8"

	"github.com/beevik/etree"

	"github.com/Raimguhinov/linkal/internal/apperr"
)

// PropfindRequest is the parsed body of a PROPFIND request.
type PropfindRequest struct {
	// Props keeps request order. It is empty for allprop/propname requests.
	Props []PropName
	// AllProp is set for an empty body, <allprop/> or <propname/>.
	AllProp bool
}

// ParsePropfind parses a PROPFIND body. The body must be UTF-8, well-formed
// XML, and its root's first child must be <prop> (or <allprop/>/<propname/>).
// Properties without a namespace are read as DAV: properties.
func ParsePropfind(body []byte) (*PropfindRequest, error) {
	const op = "dav - ParsePropfind"

	if len(bytes.TrimSpace(body)) == 0 {
		return &PropfindRequest{AllProp: true}, nil
	}
	if !utf8.Valid(body) {
		return nil, apperr.Malformedf(op, "body is not valid UTF-8")
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, apperr.Malformed(op, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, apperr.Malformedf(op, "no root element")
	}

	elems := root.ChildElements()
	if len(elems) == 0 {
		return nil, apperr.Malformed(op, errors.New("missing <prop>"))
	}
	first := elems[0]

	switch {
	case first.Tag == "allprop" || first.Tag == "propname":
		return &PropfindRequest{AllProp: true}, nil
	case first.Tag != nameProp.Local:
		return nil, apperr.Malformedf(op, "expected <prop>, got <%s>", first.FullTag())
	}

	req := &PropfindRequest{Props: make([]PropName, 0, len(first.ChildElements()))}
	for _, c := range first.ChildElements() {
		n := NameOf(c)
		if n.Space == "" {
			n.Space = NSDAV
		}
		req.Props = append(req.Props, n)
	}
	return req, nil
}

// ParseReportProps reads the properties a REPORT asks for: the children of
// the root's own <prop>, else of the first <prop> found deeper. A body
// without <prop> asks for every property.
func ParseReportProps(body []byte) (*PropfindRequest, error) {
	const op = "dav - ParseReportProps"

	if len(bytes.TrimSpace(body)) == 0 {
		return &PropfindRequest{AllProp: true}, nil
	}
	if !utf8.Valid(body) {
		return nil, apperr.Malformedf(op, "body is not valid UTF-8")
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, apperr.Malformed(op, err)
	}
	if doc.Root() == nil {
		return nil, apperr.Malformedf(op, "no root element")
	}

	prop := firstChild(doc.Root(), nameProp)
	if prop == nil {
		found := findAll(doc.Root(), nameProp)
		if len(found) == 0 {
			return &PropfindRequest{AllProp: true}, nil
		}
		prop = found[0]
	}
	req := &PropfindRequest{}
	for _, c := range prop.ChildElements() {
		n := NameOf(c)
		if n.Space == "" {
			n.Space = NSDAV
		}
		req.Props = append(req.Props, n)
	}
	return req, nil
}
