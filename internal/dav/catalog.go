package dav

import (
	"path"
	"sort"

	"github.com/beevik/etree"
)

const (
	// CollectionPath is the virtual calendar home every registry calendar lives under.
	CollectionPath = "/cals/"
	// PrincipalsPath is the principal collection.
	PrincipalsPath = "/principals/"
)

// PrincipalHref returns the href of the impersonated principal.
func PrincipalHref(principal string) string {
	return path.Join(PrincipalsPath, principal) + "/"
}

// Catalog maps property names to the fragment answering them for the
// gateway's own principal. It is built once and never mutated.
type Catalog struct {
	principal string
	props     map[PropName]*etree.Element
	names     []PropName
}

// NewCatalog builds the catalog for the given principal name.
func NewCatalog(principal string) *Catalog {
	c := &Catalog{
		principal: principal,
		props:     make(map[PropName]*etree.Element),
	}
	href := PrincipalHref(principal)

	c.href(PropCurrentUserPrincipal, href)
	c.href(PropPrincipalURL, href)
	c.href(PropOwner, href)
	c.href(PropPrincipalCollectionSet, PrincipalsPath)
	c.href(PropCalendarHomeSet, CollectionPath)
	c.href(PropCalendarUserAddressSet, href)
	c.text(PropDisplayName, principal)
	c.text(PropCalendarUserType, "INDIVIDUAL")
	c.empty(PropAlternateURISet)
	c.empty(PropGroupMembership)
	c.empty(PropGroupMemberSet)

	rt := newElement(PropResourceType)
	createChild(rt, nameCollection)
	c.add(PropResourceType, rt)

	privs := newElement(PropCurrentUserPrivilegeSet)
	for _, p := range []string{"read", "read-current-user-privilege-set"} {
		priv := createChild(privs, PropName{NSDAV, "privilege"})
		createChild(priv, PropName{NSDAV, p})
	}
	c.add(PropCurrentUserPrivilegeSet, privs)

	reports := newElement(PropSupportedReportSet)
	for _, r := range []string{"expand-property", "principal-property-search", "principal-search-property-set"} {
		sr := createChild(reports, PropName{NSDAV, "supported-report"})
		rep := createChild(sr, PropName{NSDAV, "report"})
		createChild(rep, PropName{NSDAV, r})
	}
	c.add(PropSupportedReportSet, reports)

	sort.Slice(c.names, func(i, j int) bool {
		return c.names[i].String() < c.names[j].String()
	})
	return c
}

func (c *Catalog) add(n PropName, e *etree.Element) {
	c.props[n] = e
	c.names = append(c.names, n)
}

func (c *Catalog) href(n PropName, href string) {
	e := newElement(n)
	createChild(e, nameHref).SetText(href)
	c.add(n, e)
}

func (c *Catalog) text(n PropName, text string) {
	e := newElement(n)
	e.SetText(text)
	c.add(n, e)
}

func (c *Catalog) empty(n PropName) {
	c.add(n, newElement(n))
}

// Lookup returns a copy of the fragment for n.
func (c *Catalog) Lookup(n PropName) (*etree.Element, bool) {
	e, ok := c.props[n]
	if !ok {
		return nil, false
	}
	return e.Copy(), true
}

// Names lists every property in the catalog, sorted.
func (c *Catalog) Names() []PropName {
	return append([]PropName(nil), c.names...)
}

func (c *Catalog) Principal() string {
	return c.principal
}

func (c *Catalog) PrincipalHref() string {
	return PrincipalHref(c.principal)
}
