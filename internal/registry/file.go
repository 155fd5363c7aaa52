package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/samber/mo"
)

type fileEntry struct {
	Name    string  `json:"name"`
	Color   *string `json:"color"`
	Segment string  `json:"segment"`
}

// LoadFile reads a registry file of the form
//
//	{"calendars": {"<upstream-url>": {"name": "...", "color": "#hex"}}}
//
// keeping the order in which calendars appear in the file.
func LoadFile(name string) (*Registry, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("registry - LoadFile - os.ReadFile: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Registry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	var calendars []Calendar
	for dec.More() {
		key, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("registry - Parse: %w", err)
		}
		if key != "calendars" {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("registry - Parse: %w", err)
			}
			continue
		}
		if calendars, err = parseCalendars(dec); err != nil {
			return nil, err
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return New(calendars)
}

func parseCalendars(dec *json.Decoder) ([]Calendar, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	var out []Calendar
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("registry - parseCalendars: %w", err)
		}
		u, _ := tok.(string)

		var e fileEntry
		if err := dec.Decode(&e); err != nil {
			return nil, fmt.Errorf("registry - parseCalendars - %s: %w", u, err)
		}
		c, err := e.calendar(u)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, expectDelim(dec, '}')
}

func (e fileEntry) calendar(u string) (Calendar, error) {
	seg := e.Segment
	if seg == "" {
		var err error
		if seg, err = SegmentFromURL(u); err != nil {
			return Calendar{}, err
		}
	}
	c := Calendar{Name: e.Name, URL: u, Segment: seg}
	if e.Color != nil && *e.Color != "" {
		c.Color = mo.Some(*e.Color)
	}
	return c, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err == io.EOF {
		return fmt.Errorf("registry - Parse: unexpected end of file, want %q", want)
	}
	if err != nil {
		return fmt.Errorf("registry - Parse: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("registry - Parse: unexpected token %v, want %q", tok, want)
	}
	return nil
}
