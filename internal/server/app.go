package server

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/lucaspires-source/authdash/internal/auth"
	"github.com/lucaspires-source/authdash/internal/directory"
	"github.com/lucaspires-source/authdash/internal/kvstore"
	"github.com/lucaspires-source/authdash/internal/listing"
	"github.com/lucaspires-source/authdash/internal/session"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Directory is everything the dashboard asks of the remote user directory.
type Directory interface {
	listing.Directory
	VerifyCredentials(ctx context.Context, email, password string) (string, error)
	FindUserByEmail(ctx context.Context, email string) (directory.UserProfile, error)
	Register(ctx context.Context, email, password string) (directory.RegisterResult, error)
}

type App struct {
	secret      []byte
	cookieName  string
	pages       map[string]*template.Template
	dir         Directory
	sessions    *session.Registry
	perPage     int
	notice      template.HTML
	corsOrigins []string

	mu    sync.Mutex
	views map[string]*listing.View
}

type ViewData struct {
	Authed    bool
	HideNav   bool
	Flash     string
	FlashKind string // ok|err|""
	Theme     string
	Notice    template.HTML
	Path      string

	// header
	Greeting string
	User     *directory.UserProfile

	// login/register
	From      string
	FirstName string
	LastName  string
	Email     string

	// dashboard
	Listing  listing.Snapshot
	Pages    []int
	PrevPage int
	NextPage int
}

func newApp(cfg Config, store kvstore.Store, dir Directory) (*App, error) {
	secret, err := auth.DecodeSecret(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	base := template.New("layout.html").Funcs(template.FuncMap{
		"initial": func(s string) string {
			for _, r := range s {
				return string(r)
			}
			return "?"
		},
	})

	pages := map[string]*template.Template{}
	for _, page := range []string{"login", "register", "dashboard"} {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		// Each page file defines the same block names (title/content).
		if _, err := t.ParseFS(templatesFS, "templates/layout.html", "templates/"+page+".html"); err != nil {
			return nil, err
		}
		pages[page] = t
	}

	a := &App{
		secret:      secret,
		cookieName:  auth.DefaultCookieName,
		pages:       pages,
		dir:         dir,
		sessions:    session.NewRegistry(store),
		perPage:     cfg.PerPage,
		notice:      RenderMarkdown(cfg.Notice),
		corsOrigins: cfg.CORSOrigins,
		views:       map[string]*listing.View{},
	}
	a.sessions.OnCreate = func(profileID string, m *session.Manager) {
		m.Subscribe(func(s session.Session) {
			if !s.Authenticated() {
				a.dropView(profileID)
			}
		})
	}
	return a, nil
}

// view returns the listing of one profile, creating it on first use.
func (a *App) view(profileID string) *listing.View {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.views[profileID]
	if !ok {
		v = listing.New(a.dir, listing.Options{PerPage: a.perPage})
		a.views[profileID] = v
	}
	return v
}

// dropView forgets the listing of a signed-out profile.
func (a *App) dropView(profileID string) {
	a.mu.Lock()
	v, ok := a.views[profileID]
	delete(a.views, profileID)
	a.mu.Unlock()
	if ok {
		v.Reset()
	}
}

func (a *App) routes() http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   a.corsOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: len(a.corsOrigins) > 0,
			MaxAge:           300,
		}))
		r.Get("/healthz", a.handleHealthz)
		r.With(a.withProfile).Get("/session", a.handleAPISession)
	})

	r.Group(func(r chi.Router) {
		r.Use(a.withProfile)

		r.With(a.authOnly).Get("/login", a.handleLoginPage)
		r.With(a.authOnly).Post("/login", a.handleLogin)
		r.With(a.authOnly).Get("/register", a.handleRegisterPage)
		r.With(a.authOnly).Post("/register", a.handleRegister)
		r.Post("/theme/toggle", a.handleThemeToggle)
		r.Get("/ws/session", a.handleSessionFeed)

		r.Group(func(r chi.Router) {
			r.Use(a.requireAuth)
			r.Get("/", a.handleDashboard)
			r.Post("/logout", a.handleLogout)
			r.Post("/users", a.handleUserCreate)
			r.Post("/users/{id}", a.handleUserUpdate)
			r.Post("/users/{id}/delete", a.handleUserDelete)
			r.Post("/dialog/close", a.handleDialogClose)
		})
	})

	return r
}

func (a *App) issueCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   false,
		MaxAge:   int(auth.ProfileTTL.Seconds()),
	})
}
