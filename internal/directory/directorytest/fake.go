// Package directorytest provides an in-process stand-in for the reqres.in
// directory API.
package directorytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/lucaspires-source/authdash/internal/directory"
)

// Fake serves the subset of the directory API the client uses.
type Fake struct {
	*httptest.Server

	mu       sync.Mutex
	users    []directory.UserProfile
	perPage  int
	accounts map[string]string // email -> password
	token    string
	missing  map[int]bool
	fail     map[string]int // "METHOD /path" -> status
	hits     map[string]int
	apiKey   string
}

// New starts a fake holding users with the given default page size.
func New(users []directory.UserProfile, perPage int) *Fake {
	f := &Fake{
		users:    users,
		perPage:  perPage,
		accounts: map[string]string{},
		token:    "QpwL5tke4Pnpja7X4",
		missing:  map[int]bool{},
		fail:     map[string]int{},
		hits:     map[string]int{},
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	return f
}

// SeedUsers returns n reqres-style profiles with ids 1..n.
func SeedUsers(n int) []directory.UserProfile {
	out := make([]directory.UserProfile, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, directory.UserProfile{
			ID:        i,
			FirstName: fmt.Sprintf("First%d", i),
			LastName:  fmt.Sprintf("Last%d", i),
			Email:     fmt.Sprintf("user%d@reqres.in", i),
			Avatar:    fmt.Sprintf("https://reqres.in/img/faces/%d-image.jpg", i),
		})
	}
	return out
}

func (f *Fake) AddAccount(email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[email] = password
}

// Missing makes PUT/DELETE for id answer 404.
func (f *Fake) Missing(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.missing[id] = true
}

// Fail makes every request to method+path answer status with an error body.
func (f *Fake) Fail(method, path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[method+" "+path] = status
}

// RequireAPIKey rejects requests without this x-api-key.
func (f *Fake) RequireAPIKey(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apiKey = key
}

// Hits reports how many requests reached method+path.
func (f *Fake) Hits(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[method+" "+path]
}

// TotalHits reports every request the fake has seen.
func (f *Fake) TotalHits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.hits {
		n += v
	}
	return n
}

func (f *Fake) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := r.Method + " " + r.URL.Path
	f.hits[key]++

	if f.apiKey != "" && r.Header.Get("x-api-key") != f.apiKey {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Missing API key"})
		return
	}
	if status, ok := f.fail[key]; ok {
		writeJSON(w, status, map[string]string{"error": "injected failure"})
		return
	}

	switch {
	case r.URL.Path == "/api/login" && r.Method == http.MethodPost:
		f.login(w, r)
	case r.URL.Path == "/api/register" && r.Method == http.MethodPost:
		f.register(w, r)
	case r.URL.Path == "/api/users" && r.Method == http.MethodGet:
		f.list(w, r)
	case r.URL.Path == "/api/users" && r.Method == http.MethodPost:
		f.create(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/users/"):
		f.item(w, r)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{})
	}
}

func (f *Fake) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	switch {
	case req.Email == "":
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing email or username"})
	case req.Password == "":
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing password"})
	default:
		pw, ok := f.accounts[req.Email]
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user not found"})
			return
		}
		if pw != req.Password {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Wrong Password"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": f.token})
	}
}

func (f *Fake) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	for _, u := range f.users {
		if u.Email == req.Email && req.Password != "" {
			writeJSON(w, http.StatusOK, map[string]any{"id": u.ID, "token": f.token})
			return
		}
	}
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Note: Only defined users succeed registration"})
}

func (f *Fake) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	per, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if per < 1 {
		per = f.perPage
	}
	total := len(f.users)
	totalPages := (total + per - 1) / per
	start := (page - 1) * per
	end := start + per
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"page":        page,
		"per_page":    per,
		"total":       total,
		"total_pages": totalPages,
		"data":        f.users[start:end],
	})
}

func (f *Fake) create(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body == nil {
		body = map[string]any{}
	}
	body["id"] = "123"
	body["createdAt"] = "2026-10-15T10:00:00.000Z"
	writeJSON(w, http.StatusCreated, body)
}

func (f *Fake) item(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/api/users/"))
	if err != nil || f.missing[id] {
		writeJSON(w, http.StatusNotFound, map[string]string{})
		return
	}
	switch r.Method {
	case http.MethodPut:
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body == nil {
			body = map[string]any{}
		}
		body["updatedAt"] = "2026-10-15T10:00:00.000Z"
		writeJSON(w, http.StatusOK, body)
	case http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
