package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raimguhinov/linkal/pkg/logger"
)

const calendarsFile = `{
	"calendars": {
		"https://cloud.example.org/remote.php/dav/public-calendars/ZZZ/": {"name": "Work", "color": "#FF0000"},
		"https://host/remote.php/dav/public-calendars/AAA/": {"name": "Personal"},
		"https://other.example.net/dav/cal/family": {"name": "Family", "segment": "fam", "color": ""}
	}
}`

func TestParse_KeepsFileOrder(t *testing.T) {
	r, err := Parse([]byte(calendarsFile))
	require.NoError(t, err)

	var segments []string
	for _, c := range r.All() {
		segments = append(segments, c.Segment)
	}
	assert.Equal(t, []string{"ZZZ", "AAA", "fam"}, segments)

	work, ok := r.Lookup("ZZZ")
	require.True(t, ok)
	assert.Equal(t, "Work", work.Name)
	assert.Equal(t, mo.Some("#FF0000"), work.Color)
	assert.Equal(t, "/remote.php/dav/public-calendars/ZZZ/", work.UpstreamPath())

	fam, ok := r.Lookup("fam")
	require.True(t, ok)
	assert.True(t, fam.Color.IsAbsent())

	_, ok = r.Lookup("nope")
	assert.False(t, ok)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `calendars:`},
		{"calendars not object", `{"calendars": []}`},
		{"relative url", `{"calendars": {"/just/a/path": {"name": "x"}}}`},
		{"no segment", `{"calendars": {"https://host/": {"name": "x"}}}`},
		{"duplicate segment", `{"calendars": {"https://a/x/cal": {"name": "a"}, "https://b/y/cal/": {"name": "b"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestParse_IgnoresOtherKeys(t *testing.T) {
	r, err := Parse([]byte(`{"version": 2, "calendars": {"https://h/c/one": {"name": "One"}}, "extra": {"a": [1]}}`))
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
}

func TestNew_DefaultsNameToSegment(t *testing.T) {
	r, err := New([]Calendar{{URL: "https://h/c/one", Segment: "one"}})
	require.NoError(t, err)

	c, _ := r.Lookup("one")
	assert.Equal(t, "one", c.Name)

	_, err = New([]Calendar{{URL: "https://h/c/one", Segment: "a/b"}})
	assert.Error(t, err)
}

func TestAll_ReturnsCopy(t *testing.T) {
	r, err := New([]Calendar{{Name: "One", URL: "https://h/c/one", Segment: "one"}})
	require.NoError(t, err)

	all := r.All()
	all[0].Name = "changed"

	c, _ := r.Lookup("one")
	assert.Equal(t, "One", c.Name)
}

func TestNewFromURL_File(t *testing.T) {
	name := filepath.Join(t.TempDir(), "calendars.json")
	require.NoError(t, os.WriteFile(name, []byte(calendarsFile), 0o600))

	for _, u := range []string{name, "file://" + name} {
		r, err := NewFromURL(context.Background(), logger.Discard(), u)
		require.NoError(t, err, u)
		assert.Equal(t, 3, r.Len())
	}

	_, err := NewFromURL(context.Background(), logger.Discard(), "s3://bucket/calendars.json")
	assert.Error(t, err)
}
