package dav

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func propfindBody(names []PropName) []byte {
	var b strings.Builder
	b.WriteString(`<d:propfind xmlns:d="DAV:"><d:prop>`)
	for i, n := range names {
		fmt.Fprintf(&b, `<p%d:%s xmlns:p%d=%q/>`, i, n.Local, i, n.Space)
	}
	b.WriteString(`</d:prop></d:propfind>`)
	return []byte(b.String())
}

func TestSynthesize_RoundTrip(t *testing.T) {
	c := NewCatalog("linkal")
	s := NewSynthesizer(c, OmitUnknown)

	for seed := int64(0); seed < 5; seed++ {
		names := c.Names()
		rand.New(rand.NewSource(seed)).Shuffle(len(names), func(i, j int) {
			names[i], names[j] = names[j], names[i]
		})

		req, err := ParsePropfind(propfindBody(names))
		require.NoError(t, err)

		root := parseRoot(t, s.Synthesize(req, "/", false))
		require.Len(t, Responses(root), 1)

		prop := findAll(root, nameProp)
		require.Len(t, prop, 1)
		for _, n := range c.Names() {
			assert.Len(t, children(prop[0], n), 1, "seed %d: %s", seed, n)
		}
		assert.Len(t, prop[0].ChildElements(), len(c.Names()))
	}
}

func TestSynthesize_DuplicateRequestedOnce(t *testing.T) {
	s := NewSynthesizer(NewCatalog("linkal"), OmitUnknown)

	req := &PropfindRequest{Props: []PropName{PropDisplayName, PropDisplayName}}
	root := parseRoot(t, s.Synthesize(req, "/", false))

	assert.Equal(t, []string{"linkal"}, textsOf(root, PropDisplayName))
}

func TestSynthesize_UnknownPropertyOmitted(t *testing.T) {
	s := NewSynthesizer(NewCatalog("linkal"), OmitUnknown)

	req, err := ParsePropfind([]byte(`<d:propfind xmlns:d="DAV:" xmlns:z="urn:example">
		<d:prop><z:shoe-size/><d:current-user-principal/></d:prop></d:propfind>`))
	require.NoError(t, err)

	root := parseRoot(t, s.Synthesize(req, "/", false))

	assert.Empty(t, findAll(root, PropName{"urn:example", "shoe-size"}))
	assert.Equal(t, []string{"/principals/linkal/"}, hrefsIn(root, PropCurrentUserPrincipal))
	assert.Equal(t, []string{StatusOK}, textsOf(root, nameStatus))
}

func TestSynthesize_UnknownPropertyReported(t *testing.T) {
	s := NewSynthesizer(NewCatalog("linkal"), ReportUnknown)

	req := &PropfindRequest{Props: []PropName{{"urn:example", "shoe-size"}, PropDisplayName}}
	root := parseRoot(t, s.Synthesize(req, "/", false))

	assert.Equal(t, []string{StatusOK, StatusNotFound}, textsOf(root, nameStatus))
	assert.Len(t, findAll(root, PropName{"urn:example", "shoe-size"}), 1)
}

func TestSynthesize_EmptyPropAnswersNothing(t *testing.T) {
	s := NewSynthesizer(NewCatalog("linkal"), OmitUnknown)

	root := parseRoot(t, s.Synthesize(&PropfindRequest{Props: []PropName{}}, "/", false))

	prop := findAll(root, nameProp)
	require.Len(t, prop, 1)
	assert.Empty(t, prop[0].ChildElements())
}

func TestSynthesize_IncludeResourceType(t *testing.T) {
	s := NewSynthesizer(NewCatalog("linkal"), OmitUnknown)

	req := &PropfindRequest{Props: []PropName{PropResourceType, PropCalendarHomeSet}}
	root := parseRoot(t, s.Synthesize(req, "/principals/linkal/", true))

	rts := findAll(root, PropResourceType)
	require.Len(t, rts, 1)
	assert.Len(t, children(rts[0], nameCollection), 1)
	assert.Len(t, children(rts[0], namePrincipal), 1)
	assert.Equal(t, []string{"/cals/"}, hrefsIn(root, PropCalendarHomeSet))
	assert.Equal(t, "/principals/linkal/", Href(Responses(root)[0]))
}

func TestSynthesize_AllProp(t *testing.T) {
	c := NewCatalog("linkal")
	s := NewSynthesizer(c, OmitUnknown)

	root := parseRoot(t, s.Synthesize(&PropfindRequest{AllProp: true}, "/", false))

	assert.Len(t, findAll(root, nameProp)[0].ChildElements(), len(c.Names()))
}

func TestParseUnknownPolicy(t *testing.T) {
	p, err := ParseUnknownPolicy("not-found")
	require.NoError(t, err)
	assert.Equal(t, ReportUnknown, p)

	_, err = ParseUnknownPolicy("explode")
	assert.Error(t, err)
}
