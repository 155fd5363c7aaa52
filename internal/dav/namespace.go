package dav

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Namespace URIs seen in CalDAV traffic.
const (
	NSDAV       = "DAV:"
	NSCalDAV    = "urn:ietf:params:xml:ns:caldav"
	NSCalServer = "http://calendarserver.org/ns/"
	NSCardDAV   = "urn:ietf:params:xml:ns:carddav"
	NSAppleICal = "http://apple.com/ns/ical/"
	NSSabre     = "http://sabredav.org/ns"
	NSOwnCloud  = "http://owncloud.org/ns"
	NSNextcloud = "http://nextcloud.org/ns"
)

type namespace struct {
	prefix string
	uri    string
}

// canonical is the prefix set every document produced by the gateway uses.
var canonical = []namespace{
	{"d", NSDAV},
	{"s", NSSabre},
	{"cal", NSCalDAV},
	{"cs", NSCalServer},
	{"card", NSCardDAV},
	{"x1", NSAppleICal},
	{"oc", NSOwnCloud},
	{"nc", NSNextcloud},
}

var (
	prefixByURI = make(map[string]string, len(canonical))
	uriByPrefix = make(map[string]string, len(canonical))
)

func init() {
	for _, ns := range canonical {
		prefixByURI[ns.uri] = ns.prefix
		uriByPrefix[ns.prefix] = ns.uri
	}
}

// PrefixFor returns the canonical prefix of a namespace URI.
func PrefixFor(uri string) (string, bool) {
	p, ok := prefixByURI[uri]
	return p, ok
}

// PropName is a qualified property name. Space holds the namespace URI.
type PropName struct {
	Space string
	Local string
}

var (
	PropCurrentUserPrincipal     = PropName{NSDAV, "current-user-principal"}
	PropPrincipalURL             = PropName{NSDAV, "principal-URL"}
	PropPrincipalCollectionSet   = PropName{NSDAV, "principal-collection-set"}
	PropOwner                    = PropName{NSDAV, "owner"}
	PropDisplayName              = PropName{NSDAV, "displayname"}
	PropResourceType             = PropName{NSDAV, "resourcetype"}
	PropAlternateURISet          = PropName{NSDAV, "alternate-URI-set"}
	PropGroupMembership          = PropName{NSDAV, "group-membership"}
	PropGroupMemberSet           = PropName{NSDAV, "group-member-set"}
	PropCurrentUserPrivilegeSet  = PropName{NSDAV, "current-user-privilege-set"}
	PropSupportedReportSet       = PropName{NSDAV, "supported-report-set"}
	PropCalendarHomeSet          = PropName{NSCalDAV, "calendar-home-set"}
	PropCalendarUserAddressSet   = PropName{NSCalDAV, "calendar-user-address-set"}
	PropCalendarUserType         = PropName{NSCalDAV, "calendar-user-type"}
	PropSupportedCalendarCompSet = PropName{NSCalDAV, "supported-calendar-component-set"}
	PropCalendarColor            = PropName{NSAppleICal, "calendar-color"}
	PropPublishURL               = PropName{NSCalServer, "publish-url"}
	PropPrePublishURL            = PropName{NSCalServer, "pre-publish-url"}
	PropOwnerPrincipal           = PropName{NSOwnCloud, "owner-principal"}
	PropOwnerDisplayName         = PropName{NSNextcloud, "owner-displayname"}
)

// String renders the name the way it is keyed in logs: bare local name for
// DAV: and namespace-less properties, prefix:local for the other well-known
// namespaces and Clark notation otherwise.
func (n PropName) String() string {
	if n.Space == "" || n.Space == NSDAV {
		return n.Local
	}
	if p, ok := prefixByURI[n.Space]; ok {
		return p + ":" + n.Local
	}
	return "{" + n.Space + "}" + n.Local
}

// NameOf returns the qualified name of an element, resolving its prefix.
func NameOf(e *etree.Element) PropName {
	return PropName{Space: e.NamespaceURI(), Local: e.Tag}
}

func (n PropName) matches(e *etree.Element) bool {
	return e.Tag == n.Local && e.NamespaceURI() == n.Space
}

// newElement creates a detached element for n using canonical prefixes. An
// unknown namespace gets a local declaration.
func newElement(n PropName) *etree.Element {
	if n.Space == "" {
		return etree.NewElement(n.Local)
	}
	if p, ok := prefixByURI[n.Space]; ok {
		return etree.NewElement(p + ":" + n.Local)
	}
	e := etree.NewElement("x:" + n.Local)
	e.CreateAttr("xmlns:x", n.Space)
	return e
}

func createChild(parent *etree.Element, n PropName) *etree.Element {
	e := newElement(n)
	parent.AddChild(e)
	return e
}

func declareCanonical(root *etree.Element) {
	for _, ns := range canonical {
		root.CreateAttr("xmlns:"+ns.prefix, ns.uri)
	}
}

func isNamespaceDecl(a etree.Attr) bool {
	return a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns")
}

// Canonicalize re-prefixes every element and attribute below root so that
// well-known namespaces use the gateway's canonical prefixes, declared once on
// root. Elements in unknown namespaces keep a generated prefix declared on the
// element itself, so any subtree can later be moved into another document.
func Canonicalize(root *etree.Element) {
	type attrNS struct {
		index int
		uri   string
	}
	type binding struct {
		el    *etree.Element
		uri   string
		attrs []attrNS
	}

	var bindings []binding
	walk(root, func(e *etree.Element) {
		b := binding{el: e, uri: e.NamespaceURI()}
		for i := range e.Attr {
			a := &e.Attr[i]
			if isNamespaceDecl(*a) || a.Space == "" || a.Space == "xml" {
				continue
			}
			b.attrs = append(b.attrs, attrNS{index: i, uri: a.NamespaceURI()})
		}
		bindings = append(bindings, b)
	})

	generated := make(map[string]string)
	prefixOf := func(uri string) (string, bool) {
		if p, ok := prefixByURI[uri]; ok {
			return p, false
		}
		p, ok := generated[uri]
		if !ok {
			p = fmt.Sprintf("ns%d", len(generated))
			generated[uri] = p
		}
		return p, true
	}

	for _, b := range bindings {
		var decls []namespace
		for _, a := range b.attrs {
			if a.uri == "" {
				b.el.Attr[a.index].Space = ""
				continue
			}
			p, local := prefixOf(a.uri)
			b.el.Attr[a.index].Space = p
			if local {
				decls = append(decls, namespace{p, a.uri})
			}
		}

		kept := b.el.Attr[:0]
		for _, a := range b.el.Attr {
			if !isNamespaceDecl(a) {
				kept = append(kept, a)
			}
		}
		b.el.Attr = kept

		switch {
		case b.uri == "":
			b.el.Space = ""
		default:
			p, local := prefixOf(b.uri)
			b.el.Space = p
			if local {
				decls = append(decls, namespace{p, b.uri})
			}
		}
		for _, d := range decls {
			b.el.CreateAttr("xmlns:"+d.prefix, d.uri)
		}
	}

	declareCanonical(root)
}

// walk visits e and all its descendants in document order.
func walk(e *etree.Element, fn func(*etree.Element)) {
	fn(e)
	for _, c := range e.ChildElements() {
		walk(c, fn)
	}
}

// findAll returns every element below (and including) root named n.
func findAll(root *etree.Element, n PropName) []*etree.Element {
	var out []*etree.Element
	walk(root, func(e *etree.Element) {
		if n.matches(e) {
			out = append(out, e)
		}
	})
	return out
}

func firstChild(e *etree.Element, n PropName) *etree.Element {
	for _, c := range e.ChildElements() {
		if n.matches(c) {
			return c
		}
	}
	return nil
}

func children(e *etree.Element, n PropName) []*etree.Element {
	var out []*etree.Element
	for _, c := range e.ChildElements() {
		if n.matches(c) {
			out = append(out, c)
		}
	}
	return out
}

// replaceContent drops every child token of e.
func replaceContent(e *etree.Element) {
	for len(e.Child) > 0 {
		e.RemoveChildAt(0)
	}
}

func setText(e *etree.Element, text string) {
	replaceContent(e)
	e.SetText(text)
}

func setHref(e *etree.Element, href string) {
	replaceContent(e)
	createChild(e, nameHref).SetText(href)
}

var (
	nameMultistatus = PropName{NSDAV, "multistatus"}
	nameResponse    = PropName{NSDAV, "response"}
	nameHref        = PropName{NSDAV, "href"}
	namePropstat    = PropName{NSDAV, "propstat"}
	nameProp        = PropName{NSDAV, "prop"}
	nameStatus      = PropName{NSDAV, "status"}
	nameCollection  = PropName{NSDAV, "collection"}
	namePrincipal   = PropName{NSDAV, "principal"}
	nameCalendar    = PropName{NSCalDAV, "calendar"}
)

func trimmedText(e *etree.Element) string {
	return strings.TrimSpace(e.Text())
}
