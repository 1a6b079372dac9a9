package middleware

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gomarten/spur"
	"golang.org/x/crypto/bcrypt"
)

// User holds the name of the authenticated user.
var User = spur.NewKey[string]("user")

// BasicAuthConfig configures basic authentication.
type BasicAuthConfig struct {
	Realm    string
	Validate func(user, pass string) bool
}

// BasicAuth returns an action that authenticates the request and stores
// the user name under User.
func BasicAuth(cfg BasicAuthConfig) spur.Action {
	if cfg.Realm == "" {
		cfg.Realm = "Restricted"
	}
	challenge := `Basic realm="` + cfg.Realm + `"`

	return spur.State(User, func(c *spur.Ctx) (string, *spur.Response) {
		auth := c.Request.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Basic ") {
			return "", unauthorized(c, challenge)
		}
		payload, err := base64.StdEncoding.DecodeString(auth[6:])
		if err != nil {
			return "", unauthorized(c, challenge)
		}
		user, pass, ok := strings.Cut(string(payload), ":")
		if !ok || !cfg.Validate(user, pass) {
			return "", unauthorized(c, challenge)
		}
		return user, nil
	})
}

// BasicAuthSimple authenticates a single user with a plain password.
func BasicAuthSimple(user, pass string) spur.Action {
	return BasicAuth(BasicAuthConfig{
		Validate: func(u, p string) bool {
			return subtle.ConstantTimeCompare([]byte(u), []byte(user)) == 1 &&
				subtle.ConstantTimeCompare([]byte(p), []byte(pass)) == 1
		},
	})
}

// BasicAuthHashed authenticates against bcrypt hashes keyed by user name.
func BasicAuthHashed(realm string, users map[string]string) spur.Action {
	hashes := make(map[string][]byte, len(users))
	for u, h := range users {
		hashes[u] = []byte(h)
	}
	return BasicAuth(BasicAuthConfig{
		Realm: realm,
		Validate: func(u, p string) bool {
			h, ok := hashes[u]
			if !ok {
				return false
			}
			return bcrypt.CompareHashAndPassword(h, []byte(p)) == nil
		},
	})
}

func unauthorized(c *spur.Ctx, challenge string) *spur.Response {
	res := c.JSON(http.StatusUnauthorized, spur.E("unauthorized"))
	res.Header.Set("WWW-Authenticate", challenge)
	return res
}
