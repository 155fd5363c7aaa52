package dav

import (
	"bytes"
	"unicode/utf8"

	"github.com/beevik/etree"

	"github.com/Raimguhinov/linkal/internal/apperr"
)

// AcknowledgePropPatch answers a PROPPATCH without applying it: every
// property named under <set> or <remove> is reported with 200 OK.
func AcknowledgePropPatch(body []byte, href string) ([]byte, error) {
	const op = "dav - AcknowledgePropPatch"

	var names []PropName
	if len(bytes.TrimSpace(body)) > 0 {
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
		for _, action := range doc.Root().ChildElements() {
			if action.Tag != "set" && action.Tag != "remove" {
				continue
			}
			for _, prop := range action.SelectElements("prop") {
				for _, p := range prop.ChildElements() {
					n := NameOf(p)
					if n.Space == "" {
						n.Space = NSDAV
					}
					names = append(names, n)
				}
			}
		}
	}

	resp := newElement(nameResponse)
	createChild(resp, nameHref).SetText(href)
	ps := createChild(resp, namePropstat)
	prop := createChild(ps, nameProp)
	for _, n := range names {
		createChild(prop, n)
	}
	createChild(ps, nameStatus).SetText(StatusOK)

	ms := NewMultistatus()
	ms.Add(resp)
	return ms.Bytes(), nil
}
