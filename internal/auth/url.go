package auth

import (
	"fmt"
	"net/http"
	"net/url"
)

// None lets every request through.
type None struct{}

func (None) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return next }
}

// NewFromURL picks the provider named by authURL's scheme. An empty URL
// disables authentication.
func NewFromURL(authURL, realm, user, passwordHash string) (Provider, error) {
	if authURL == "" {
		return None{}, nil
	}
	u, err := url.Parse(authURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing auth URL: %s", err.Error())
	}

	switch u.Scheme {
	case "none":
		return None{}, nil
	case "basic":
		return NewBasicAuth(realm, user, passwordHash)
	default:
		return nil, fmt.Errorf("no auth provider found for %s:// URL", u.Scheme)
	}
}
