package dav

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/samber/mo"
	"github.com/stretchr/testify/require"
)

const upstreamCalendar = `<?xml version="1.0"?>
<d:multistatus xmlns:d="DAV:" xmlns:s="http://sabredav.org/ns" xmlns:cal="urn:ietf:params:xml:ns:caldav" xmlns:cs="http://calendarserver.org/ns/" xmlns:oc="http://owncloud.org/ns" xmlns:nc="http://nextcloud.org/ns" xmlns:x1="http://apple.com/ns/ical/">
 <d:response>
  <d:href>/remote.php/dav/public-calendars/AAA/</d:href>
  <d:propstat>
   <d:prop>
    <d:displayname>Upstream Name</d:displayname>
    <d:owner><d:href>/remote.php/dav/principals/users/alice/</d:href></d:owner>
    <oc:owner-principal>principals/users/alice</oc:owner-principal>
    <nc:owner-displayname>Alice</nc:owner-displayname>
    <x1:calendar-color>#0082C9</x1:calendar-color>
    <cs:publish-url><d:href>https://host/remote.php/dav/public-calendars/AAA?export</d:href></cs:publish-url>
    <d:resourcetype><d:collection/><cal:calendar/></d:resourcetype>
   </d:prop>
   <d:status>HTTP/1.1 200 OK</d:status>
  </d:propstat>
 </d:response>
 <d:response>
  <d:href>https://host/remote.php/dav/public-calendars/AAA/event-1.ics</d:href>
  <d:propstat>
   <d:prop>
    <d:getetag>"abc"</d:getetag>
   </d:prop>
   <d:status>HTTP/1.1 200 OK</d:status>
  </d:propstat>
 </d:response>
</d:multistatus>`

// upstreamNotFound reports displayname and colour as missing, using an
// uppercase prefix and a default namespace.
const upstreamNotFound = `<?xml version="1.0" encoding="utf-8"?>
<D:multistatus xmlns:D="DAV:">
 <D:response>
  <D:href>/remote.php/dav/public-calendars/AAA/</D:href>
  <D:propstat>
   <D:prop><D:resourcetype><D:collection/></D:resourcetype></D:prop>
   <D:status>HTTP/1.1 200 OK</D:status>
  </D:propstat>
  <D:propstat>
   <D:prop>
    <D:displayname/>
    <calendar-color xmlns="http://apple.com/ns/ical/"/>
    <D:owner/>
   </D:prop>
   <D:status>HTTP/1.1 404 Not Found</D:status>
  </D:propstat>
 </D:response>
</D:multistatus>`

func personal(color mo.Option[string]) RewriteContext {
	return RewriteContext{
		Segment:       "personal",
		Name:          "Personal",
		Color:         color,
		UpstreamPath:  "/remote.php/dav/public-calendars/AAA/",
		PrincipalHref: "/principals/linkal/",
		PrincipalName: "linkal",
	}
}

func parseRoot(t *testing.T, b []byte) *etree.Element {
	t.Helper()

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(b))
	require.NotNil(t, doc.Root())
	return doc.Root()
}

func parseUpstream(t *testing.T, body string) *etree.Element {
	t.Helper()

	doc, err := ParseMultistatus("personal", []byte(body))
	require.NoError(t, err)
	return doc.Root()
}

func textsOf(root *etree.Element, n PropName) []string {
	var out []string
	for _, e := range findAll(root, n) {
		out = append(out, trimmedText(e))
	}
	return out
}

func hrefsIn(root *etree.Element, n PropName) []string {
	var out []string
	for _, e := range findAll(root, n) {
		for _, h := range findAll(e, nameHref) {
			out = append(out, trimmedText(h))
		}
	}
	return out
}

// serialize round-trips an element through its own document so that
// namespace resolution works on the result.
func serialize(t *testing.T, root *etree.Element) *etree.Element {
	t.Helper()

	doc := etree.NewDocument()
	doc.SetRoot(root.Copy())
	b, err := doc.WriteToBytes()
	require.NoError(t, err)
	return parseRoot(t, b)
}
