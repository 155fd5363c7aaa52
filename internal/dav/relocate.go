package dav

import (
	"bytes"

	"github.com/beevik/etree"
)

// Relocation maps the virtual calendar namespace back onto an upstream path.
type Relocation struct {
	VirtualPath  string
	UpstreamPath string
}

// RelocateRequestBody rewrites hrefs in an outgoing request body that point
// into the virtual namespace so they resolve on the upstream. Bodies that are
// empty, not XML or contain nothing to relocate are returned unchanged.
func RelocateRequestBody(body []byte, r Relocation) []byte {
	if len(bytes.TrimSpace(body)) == 0 || r.VirtualPath == "" || r.UpstreamPath == "" {
		return body
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil || doc.Root() == nil {
		return body
	}

	changed := false
	for _, h := range findAll(doc.Root(), nameHref) {
		if moved, ok := relocate(trimmedText(h), r.VirtualPath, r.UpstreamPath); ok {
			setText(h, moved)
			changed = true
		}
	}
	if !changed {
		return body
	}

	out, err := doc.WriteToBytes()
	if err != nil {
		return body
	}
	return out
}
