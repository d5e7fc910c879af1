package server

import (
	"encoding/json"
	"net/http"

	"github.com/lucaspires-source/authdash/internal/directory"
)

type sessionResponse struct {
	Authenticated bool                   `json:"authenticated"`
	User          *directory.UserProfile `json:"user,omitempty"`
	Theme         string                 `json:"theme"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *App) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleAPISession reports the profile's session without exposing the token.
func (a *App) handleAPISession(w http.ResponseWriter, r *http.Request) {
	m := managerFrom(r)
	s := m.Current()
	if !s.Authenticated() {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not signed in"})
		return
	}
	theme, _ := m.Store().Theme(r.Context())
	writeJSON(w, http.StatusOK, sessionResponse{Authenticated: true, User: s.User, Theme: string(theme)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
