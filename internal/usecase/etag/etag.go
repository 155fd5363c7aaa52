package etag

import (
	"bytes"
	"crypto/sha1"
	"encoding/base64"
	"io"
	"strconv"
	"strings"
)

// FromData returns a strong, quoted entity tag for data.
func FromData(data []byte) (string, error) {
	h := sha1.New()
	if _, err := io.Copy(h, bytes.NewReader(data)); err != nil {
		return "", err
	}
	csum := h.Sum(nil)
	return strconv.Quote(base64.StdEncoding.EncodeToString(csum)), nil
}

// Match reports whether an If-None-Match header value matches tag.
func Match(header, tag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == tag {
			return true
		}
	}
	return false
}
