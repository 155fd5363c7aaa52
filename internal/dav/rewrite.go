package dav

import (
	"errors"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/samber/mo"

	"github.com/Raimguhinov/linkal/internal/apperr"
)

// RewriteContext holds what is needed to rewrite one upstream response. It is
// derived per request from a registry calendar.
type RewriteContext struct {
	Segment string
	Name    string
	Color   mo.Option[string]
	// UpstreamPath is the path component of the calendar's upstream URL.
	UpstreamPath  string
	PrincipalHref string
	PrincipalName string
}

// VirtualPath is the collection path the calendar is exposed under.
func (rc RewriteContext) VirtualPath() string {
	return CollectionPath + rc.Segment + "/"
}

// Apply runs the whole pipeline over a canonicalized multistatus root:
// URL relocation, owner rewrite, display name and colour overrides and the
// publish URL rewrite, in that order.
func (rc RewriteContext) Apply(root *etree.Element) {
	RelocateURLs(root, rc.UpstreamPath, rc.VirtualPath())
	RewriteOwner(root, rc.PrincipalHref, rc.PrincipalName)
	rc.overrideDisplayName(root)
	rc.overrideColor(root)
	rc.rewritePublishURL(root)
}

// RelocateURLs moves every href pointing below upstreamPath under
// virtualPath. Absolute URLs lose their scheme and authority. Hrefs already
// under virtualPath or pointing elsewhere are left alone, so applying it twice
// changes nothing.
func RelocateURLs(root *etree.Element, upstreamPath, virtualPath string) {
	for _, h := range findAll(root, nameHref) {
		if moved, ok := relocate(trimmedText(h), upstreamPath, virtualPath); ok {
			setText(h, moved)
		}
	}
}

func relocate(href, from, to string) (string, bool) {
	if href == "" || from == "" {
		return "", false
	}
	p := href
	if u, err := url.Parse(href); err == nil && u.IsAbs() {
		p = u.EscapedPath()
		if u.RawQuery != "" {
			p += "?" + u.RawQuery
		}
	}

	from = strings.TrimSuffix(from, "/")
	to = strings.TrimSuffix(to, "/")
	for _, prefix := range prefixForms(from) {
		if rest, ok := cutSegmentPrefix(p, prefix); ok {
			return to + rest, true
		}
	}
	return "", false
}

// prefixForms returns the raw and escaped spellings of an upstream path.
func prefixForms(p string) []string {
	forms := []string{p}
	if esc := (&url.URL{Path: p}).EscapedPath(); esc != p {
		forms = append(forms, esc)
	}
	if unesc, err := url.PathUnescape(p); err == nil && unesc != p {
		forms = append(forms, unesc)
	}
	return forms
}

// cutSegmentPrefix strips prefix from p only on a path segment boundary.
func cutSegmentPrefix(p, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(p, prefix)
	if !ok {
		return "", false
	}
	if rest == "" || rest[0] == '/' || rest[0] == '?' {
		if rest == "" {
			rest = "/"
		}
		return rest, true
	}
	return "", false
}

// RewriteOwner replaces every owner reference with the gateway principal.
func RewriteOwner(root *etree.Element, principalHref, principalName string) {
	for _, e := range findAll(root, PropOwner) {
		if inFoundPropstat(e) {
			setHref(e, principalHref)
		}
	}
	for _, e := range findAll(root, PropOwnerPrincipal) {
		if inFoundPropstat(e) {
			setText(e, principalHref)
		}
	}
	for _, e := range findAll(root, PropOwnerDisplayName) {
		if inFoundPropstat(e) {
			setText(e, principalName)
		}
	}
}

func (rc RewriteContext) overrideDisplayName(root *etree.Element) {
	for _, e := range findAll(root, PropDisplayName) {
		if inFoundPropstat(e) {
			setText(e, rc.Name)
		}
	}
	rc.promote(root, PropDisplayName, rc.Name)
}

// overrideColor leaves upstream colours untouched when none is configured.
func (rc RewriteContext) overrideColor(root *etree.Element) {
	color, ok := rc.Color.Get()
	if !ok {
		return
	}
	for _, e := range findAll(root, PropCalendarColor) {
		if inFoundPropstat(e) {
			setText(e, color)
		}
	}
	rc.promote(root, PropCalendarColor, color)
}

func (rc RewriteContext) rewritePublishURL(root *etree.Element) {
	for _, n := range []PropName{PropPublishURL, PropPrePublishURL} {
		for _, e := range findAll(root, n) {
			if inFoundPropstat(e) {
				setHref(e, rc.VirtualPath())
			}
		}
	}
}

// promote moves a property the upstream reported as missing on the
// calendar collection itself into a 200 propstat carrying value.
func (rc RewriteContext) promote(root *etree.Element, n PropName, value string) {
	for _, resp := range children(root, nameResponse) {
		if !samePath(Href(resp), rc.VirtualPath()) {
			continue
		}
		for _, ps := range children(resp, namePropstat) {
			if isFound(ps) {
				continue
			}
			prop := firstChild(ps, nameProp)
			if prop == nil {
				continue
			}
			e := firstChild(prop, n)
			if e == nil {
				continue
			}
			prop.RemoveChild(e)
			if len(prop.ChildElements()) == 0 {
				resp.RemoveChild(ps)
			}
			target := foundProp(resp)
			setText(createChild(target, n), value)
		}
	}
}

// foundProp returns the <prop> of the response's 200 propstat, creating the
// propstat when the upstream sent none.
func foundProp(resp *etree.Element) *etree.Element {
	for _, ps := range children(resp, namePropstat) {
		if isFound(ps) {
			if prop := firstChild(ps, nameProp); prop != nil {
				return prop
			}
		}
	}
	ps := newElement(namePropstat)
	prop := createChild(ps, nameProp)
	createChild(ps, nameStatus).SetText(StatusOK)

	if first := firstChild(resp, namePropstat); first != nil {
		resp.InsertChildAt(first.Index(), ps)
	} else {
		resp.AddChild(ps)
	}
	return prop
}

func isFound(propstat *etree.Element) bool {
	st := firstChild(propstat, nameStatus)
	if st == nil {
		return true
	}
	fields := strings.Fields(trimmedText(st))
	return len(fields) >= 2 && strings.HasPrefix(fields[1], "2")
}

// inFoundPropstat reports whether e sits in a 2xx propstat, or in no
// propstat at all.
func inFoundPropstat(e *etree.Element) bool {
	for p := e.Parent(); p != nil; p = p.Parent() {
		if namePropstat.matches(p) {
			return isFound(p)
		}
	}
	return true
}

func samePath(a, b string) bool {
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}

// ExtractCollectionResponse returns a copy of the response describing the
// calendar collection itself, or the first response when none matches.
func (rc RewriteContext) ExtractCollectionResponse(root *etree.Element) (*etree.Element, error) {
	responses := children(root, nameResponse)
	if len(responses) == 0 {
		return nil, apperr.Rewrite("dav - ExtractCollectionResponse", rc.Segment, errors.New("no <response> in upstream multistatus"))
	}
	for _, r := range responses {
		if samePath(Href(r), rc.VirtualPath()) {
			return r.Copy(), nil
		}
	}
	return responses[0].Copy(), nil
}
