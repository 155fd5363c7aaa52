package dav

import (
	"strconv"
	"strings"

	"github.com/Raimguhinov/linkal/internal/apperr"
)

// Depth is the value of the WebDAV Depth header.
type Depth int

const (
	DepthInfinity Depth = -1
	DepthZero     Depth = 0
	DepthOne      Depth = 1
)

func (d Depth) String() string {
	if d == DepthInfinity {
		return "infinity"
	}
	return strconv.Itoa(int(d))
}

// ParseDepth parses a Depth header. An empty value yields def, or a
// MalformedRequest error when the header is required.
func ParseDepth(v string, required bool, def Depth) (Depth, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "" && required:
		return 0, apperr.Malformedf("dav - ParseDepth", "Depth header is required")
	case v == "":
		return def, nil
	case strings.EqualFold(v, "infinity"):
		return DepthInfinity, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || (n != 0 && n != 1) {
		return 0, apperr.Malformedf("dav - ParseDepth", "invalid Depth %q", v)
	}
	return Depth(n), nil
}
