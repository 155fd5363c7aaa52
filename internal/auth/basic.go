package auth

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

type BasicAuth struct {
	realm        string
	clientID     string
	passwordHash []byte
}

// NewBasicAuth checks clients against a username and a bcrypt password hash.
func NewBasicAuth(realm, username, passwordHash string) (Provider, error) {
	if username == "" {
		return nil, fmt.Errorf("missing username")
	}
	if passwordHash == "" {
		return nil, fmt.Errorf("missing password hash")
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, fmt.Errorf("invalid password hash: %w", err)
	}
	return &BasicAuth{realm: realm, clientID: username, passwordHash: []byte(passwordHash)}, nil
}

func (b *BasicAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b.basicAuth(next, w, r)
		})
	}
}

func (b *BasicAuth) basicAuth(next http.Handler, w http.ResponseWriter, r *http.Request) {
	user, password, ok := r.BasicAuth()
	if !ok || !b.valid(user, password) {
		w.Header().Add("WWW-Authenticate", fmt.Sprintf(`Basic realm=%q, charset="UTF-8"`, b.realm))
		http.Error(w, "HTTP Basic auth is required", http.StatusUnauthorized)
		return
	}
	ctx := WithIdentity(r.Context(), Identity{Method: "basic", User: user})
	next.ServeHTTP(w, r.WithContext(ctx))
}

func (b *BasicAuth) valid(user, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(b.clientID)) == 1
	passOK := bcrypt.CompareHashAndPassword(b.passwordHash, []byte(password)) == nil
	return userOK && passOK
}
