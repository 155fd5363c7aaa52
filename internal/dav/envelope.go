package dav

import (
	"bytes"
	"errors"

	"github.com/beevik/etree"

	"github.com/Raimguhinov/linkal/internal/apperr"
)

// Multistatus is the aggregate document under construction. It is only
// serialized once complete.
type Multistatus struct {
	doc  *etree.Document
	root *etree.Element
}

func NewMultistatus() *Multistatus {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	root := newElement(nameMultistatus)
	declareCanonical(root)
	doc.SetRoot(root)
	return &Multistatus{doc: doc, root: root}
}

// Add appends response elements in order.
func (m *Multistatus) Add(responses ...*etree.Element) {
	for _, r := range responses {
		m.root.AddChild(r)
	}
}

// Len returns the number of <d:response> entries.
func (m *Multistatus) Len() int {
	return len(children(m.root, nameResponse))
}

func (m *Multistatus) Root() *etree.Element {
	return m.root
}

func (m *Multistatus) Bytes() []byte {
	var buf bytes.Buffer
	if _, err := m.doc.WriteTo(&buf); err != nil {
		// writing into a bytes.Buffer does not fail
		panic(err)
	}
	return buf.Bytes()
}

// CollectionResponse is the fixed entry describing the calendar home itself.
func CollectionResponse(href string) *etree.Element {
	resp := newElement(nameResponse)
	createChild(resp, nameHref).SetText(href)

	ok := createChild(resp, namePropstat)
	rt := createChild(createChild(ok, nameProp), PropResourceType)
	createChild(rt, nameCollection)
	createChild(ok, nameStatus).SetText(StatusOK)

	nf := createChild(resp, namePropstat)
	nfProp := createChild(nf, nameProp)
	createChild(nfProp, PropDisplayName)
	createChild(nfProp, PropSupportedCalendarCompSet)
	createChild(nf, nameStatus).SetText(StatusNotFound)
	return resp
}

// ParseMultistatus parses an upstream answer and canonicalizes its prefixes.
// Anything that is not a DAV multistatus document is an InternalRewrite error.
func ParseMultistatus(calendar string, body []byte) (*etree.Document, error) {
	const op = "dav - ParseMultistatus"

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, apperr.Rewrite(op, calendar, err)
	}
	root := doc.Root()
	if root == nil || !nameMultistatus.matches(root) {
		return nil, apperr.Rewrite(op, calendar, errors.New("upstream body is not a DAV multistatus"))
	}
	Canonicalize(root)
	return doc, nil
}

// Responses returns the <d:response> children of a multistatus root.
func Responses(root *etree.Element) []*etree.Element {
	return children(root, nameResponse)
}

// Href returns the trimmed href of a response element.
func Href(resp *etree.Element) string {
	h := firstChild(resp, nameHref)
	if h == nil {
		return ""
	}
	return trimmedText(h)
}
