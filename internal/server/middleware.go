package server

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/lucaspires-source/authdash/internal/auth"
	"github.com/lucaspires-source/authdash/internal/guard"
	"github.com/lucaspires-source/authdash/internal/logger"
	"github.com/lucaspires-source/authdash/internal/session"
)

type ctxKey string

const (
	ctxProfile ctxKey = "profile"
	ctxManager ctxKey = "manager"
)

// withProfile resolves the browser profile from its cookie and loads that
// profile's session manager into the request context. A missing or invalid
// cookie mints a new profile whose manager is only retained once the browser
// sends the cookie back.
func (a *App) withProfile(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			m   *session.Manager
			err error
		)
		id := a.readProfile(r)
		if id == "" {
			id = auth.NewProfileID()
			tok, serr := auth.SignHS256(a.secret, id, auth.ProfileTTL)
			if serr != nil {
				logger.Error("Signing profile cookie failed: %v", serr)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			a.issueCookie(w, tok)
			m, err = a.sessions.Transient(r.Context(), id)
		} else {
			m, err = a.sessions.Get(r.Context(), id)
		}
		if err != nil {
			logger.Error("Loading session for profile %s failed: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		ctx := context.WithValue(r.Context(), ctxProfile, id)
		ctx = context.WithValue(ctx, ctxManager, m)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *App) readProfile(r *http.Request) string {
	// Prefer cookie.
	if c, err := r.Cookie(a.cookieName); err == nil && c.Value != "" {
		if cl, err := auth.ParseHS256(a.secret, c.Value); err == nil {
			return cl.ProfileID
		}
	}
	// Fallback: Authorization: Bearer <token>
	authz := r.Header.Get("Authorization")
	if authz != "" {
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			if cl, err := auth.ParseHS256(a.secret, strings.TrimSpace(parts[1])); err == nil {
				return cl.ProfileID
			}
		}
	}
	return ""
}

func profileFrom(r *http.Request) string {
	if v, ok := r.Context().Value(ctxProfile).(string); ok {
		return v
	}
	return ""
}

func managerFrom(r *http.Request) *session.Manager {
	m, _ := r.Context().Value(ctxManager).(*session.Manager)
	return m
}

// requireAuth sends anonymous visitors to the login page, remembering where
// they were going. Non-GET requests remember the home page instead.
func (a *App) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested := r.URL.RequestURI()
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			requested = guard.HomePath
		}
		if d := guard.Protected(managerFrom(r).Current(), requested); !d.Render() {
			http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authOnly keeps signed-in visitors away from the login and register pages.
func (a *App) authOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d := guard.AuthOnly(managerFrom(r).Current()); !d.Render() {
			http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
