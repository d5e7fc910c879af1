package server

import (
	"net/http"
	"strings"

	"github.com/lucaspires-source/authdash/internal/apperr"
	"github.com/lucaspires-source/authdash/internal/directory"
	"github.com/lucaspires-source/authdash/internal/forms"
	"github.com/lucaspires-source/authdash/internal/guard"
	"github.com/lucaspires-source/authdash/internal/logger"
	"github.com/lucaspires-source/authdash/internal/session"
)

const (
	registerPath = "/register"
	avatarURL    = "https://i.pravatar.cc/150?u="
)

func (a *App) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	a.renderPage(w, r, "login", &ViewData{HideNav: true, From: r.URL.Query().Get(guard.FromParam)})
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	f := forms.SignIn{
		Email:    strings.TrimSpace(r.Form.Get("email")),
		Password: r.Form.Get("password"),
	}
	from := r.Form.Get(guard.FromParam)
	data := &ViewData{HideNav: true, From: from, Email: f.Email}
	fail := func(msg string) {
		data.Flash = msg
		data.FlashKind = "err"
		a.renderPage(w, r, "login", data)
	}

	if err := f.Validate(); err != nil {
		fail(apperr.Message(err, "Login failed"))
		return
	}
	token, err := a.dir.VerifyCredentials(r.Context(), f.Email, f.Password)
	if err != nil {
		logger.Info("Failed login attempt for %s from %s: %v", f.Email, remoteIP(r), err)
		fail(apperr.Message(err, "Login failed"))
		return
	}
	user, err := a.dir.FindUserByEmail(r.Context(), f.Email)
	if err != nil {
		logger.Warn("Profile lookup for %s failed: %v", f.Email, err)
		fail(apperr.Message(err, "Failed to fetch user data"))
		return
	}
	if err := managerFrom(r).Login(r.Context(), token, &user); err != nil {
		logger.Error("Saving session for %s failed: %v", f.Email, err)
		fail("Failed to create session.")
		return
	}
	logger.Info("User %s logged in from %s", f.Email, remoteIP(r))
	http.Redirect(w, r, guard.ReturnTo(from), http.StatusSeeOther)
}

func (a *App) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	a.renderPage(w, r, "register", &ViewData{HideNav: true})
}

func (a *App) handleRegister(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	f := forms.SignUp{
		FirstName:       strings.TrimSpace(r.Form.Get("first_name")),
		LastName:        strings.TrimSpace(r.Form.Get("last_name")),
		Email:           strings.TrimSpace(r.Form.Get("email")),
		Password:        r.Form.Get("password"),
		ConfirmPassword: r.Form.Get("confirm_password"),
	}
	data := &ViewData{HideNav: true, FirstName: f.FirstName, LastName: f.LastName, Email: f.Email}
	fail := func(msg string) {
		data.Flash = msg
		data.FlashKind = "err"
		a.renderPage(w, r, "register", data)
	}

	if err := f.Validate(); err != nil {
		fail(apperr.Message(err, "Registration failed"))
		return
	}
	res, err := a.dir.Register(r.Context(), f.Email, f.Password)
	if err != nil {
		logger.Info("Failed registration for %s from %s: %v", f.Email, remoteIP(r), err)
		fail(apperr.Message(err, "Registration failed"))
		return
	}
	user := &directory.UserProfile{
		ID:        res.ID,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Email:     f.Email,
		Avatar:    avatarURL + f.Email,
	}
	if err := managerFrom(r).Login(r.Context(), res.Token, user); err != nil {
		logger.Error("Saving session for %s failed: %v", f.Email, err)
		fail("Failed to create session.")
		return
	}
	logger.Info("User %s registered from %s", f.Email, remoteIP(r))
	http.Redirect(w, r, guard.HomePath, http.StatusSeeOther)
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	m := managerFrom(r)
	email := ""
	if u := m.Current().User; u != nil {
		email = u.Email
	}
	if err := m.Logout(r.Context()); err != nil {
		logger.Error("Clearing session for %s failed: %v", email, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	logger.Info("User %s logged out from %s", email, remoteIP(r))
	http.Redirect(w, r, guard.LoginPath, http.StatusSeeOther)
}

func (a *App) handleThemeToggle(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	if _, err := managerFrom(r).Store().ToggleTheme(r.Context()); err != nil {
		logger.Warn("Theme toggle for profile %s failed: %v", profileFrom(r), err)
	}
	back := r.Form.Get("return")
	if back != guard.LoginPath && back != registerPath {
		back = guard.ReturnTo(back)
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func greeting(s session.Session) string {
	if s.User != nil && s.User.FirstName != "" {
		return "Hello " + s.User.FirstName
	}
	return "User Management Dashboard"
}

func (a *App) baseData(r *http.Request) *ViewData {
	s := managerFrom(r).Current()
	return &ViewData{
		Authed:   s.Authenticated(),
		Greeting: greeting(s),
		User:     s.User,
	}
}

func (a *App) renderPage(w http.ResponseWriter, r *http.Request, page string, data *ViewData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	t := a.pages[page]
	if t == nil {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	data.Notice = a.notice
	data.Path = r.URL.Path
	data.Theme = string(session.ThemeLight)
	if m := managerFrom(r); m != nil {
		if th, err := m.Store().Theme(r.Context()); err == nil {
			data.Theme = string(th)
		}
	}
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		logger.Error("renderPage template execution failed for %s: %v", page, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
