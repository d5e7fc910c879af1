// Package guard decides whether a view renders or redirects, from nothing
// but the session value at request time.
package guard

import (
	"net/url"
	"strings"

	"github.com/lucaspires-source/authdash/internal/session"
)

const (
	LoginPath = "/login"
	HomePath  = "/"
	// FromParam carries the originally requested location through login.
	FromParam = "from"
)

// Decision is either render (Redirect == "") or a redirect target.
type Decision struct {
	Redirect string
}

func (d Decision) Render() bool {
	return d.Redirect == ""
}

// Protected guards views that need a session. Anonymous visitors go to the
// login page with the requested location remembered.
func Protected(s session.Session, requested string) Decision {
	if s.Authenticated() {
		return Decision{}
	}
	q := url.Values{}
	q.Set(FromParam, ReturnTo(requested))
	return Decision{Redirect: LoginPath + "?" + q.Encode()}
}

// AuthOnly guards the login and register views, which make no sense with a
// session in place.
func AuthOnly(s session.Session) Decision {
	if s.Authenticated() {
		return Decision{Redirect: HomePath}
	}
	return Decision{}
}

// ReturnTo sanitises a remembered location. Only local absolute paths are
// replayed; anything else falls back to home.
func ReturnTo(from string) string {
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") {
		return HomePath
	}
	u, err := url.Parse(from)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return HomePath
	}
	if u.Path == LoginPath || u.Path == "/register" {
		return HomePath
	}
	return from
}
