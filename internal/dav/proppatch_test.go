package dav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raimguhinov/linkal/internal/apperr"
)

func TestAcknowledgePropPatch(t *testing.T) {
	body := `<d:propertyupdate xmlns:d="DAV:" xmlns:x1="http://apple.com/ns/ical/">
		<d:set><d:prop><x1:calendar-color>#123456</x1:calendar-color></d:prop></d:set>
		<d:remove><d:prop><d:displayname/></d:prop></d:remove>
	</d:propertyupdate>`

	out, err := AcknowledgePropPatch([]byte(body), "/cals/")
	require.NoError(t, err)

	root := parseRoot(t, out)
	require.Len(t, Responses(root), 1)
	assert.Equal(t, "/cals/", Href(Responses(root)[0]))
	assert.Equal(t, []string{StatusOK}, textsOf(root, nameStatus))
	assert.Len(t, findAll(root, PropCalendarColor), 1)
	assert.Len(t, findAll(root, PropDisplayName), 1)
	assert.Empty(t, textsOf(root, PropCalendarColor)[0], "values are not echoed")
}

func TestAcknowledgePropPatch_Empty(t *testing.T) {
	out, err := AcknowledgePropPatch(nil, "/cals/")
	require.NoError(t, err)

	assert.Equal(t, []string{StatusOK}, textsOf(parseRoot(t, out), nameStatus))
}

func TestAcknowledgePropPatch_Malformed(t *testing.T) {
	_, err := AcknowledgePropPatch([]byte("<d:propertyupdate"), "/cals/")
	assert.True(t, apperr.Is(err, apperr.KindMalformedRequest))
}

func TestRelocateRequestBody(t *testing.T) {
	r := Relocation{VirtualPath: "/cals/personal/", UpstreamPath: "/remote.php/dav/public-calendars/AAA/"}

	body := []byte(`<cal:calendar-multiget xmlns:d="DAV:" xmlns:cal="urn:ietf:params:xml:ns:caldav">
		<d:prop><d:getetag/></d:prop>
		<d:href>/cals/personal/event-1.ics</d:href>
		<d:href>/elsewhere/event-2.ics</d:href>
	</cal:calendar-multiget>`)

	root := parseRoot(t, RelocateRequestBody(body, r))
	assert.Equal(t, []string{
		"/remote.php/dav/public-calendars/AAA/event-1.ics",
		"/elsewhere/event-2.ics",
	}, textsOf(root, nameHref))

	untouched := []byte(`<d:propfind xmlns:d="DAV:"><d:prop><d:getetag/></d:prop></d:propfind>`)
	assert.Equal(t, untouched, RelocateRequestBody(untouched, r))
	assert.Equal(t, []byte("not xml"), RelocateRequestBody([]byte("not xml"), r))
}
