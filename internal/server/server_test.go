package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucaspires-source/authdash/internal/directory"
	"github.com/lucaspires-source/authdash/internal/directory/directorytest"
	"github.com/lucaspires-source/authdash/internal/kvstore"
	"github.com/lucaspires-source/authdash/internal/logger"
	"github.com/lucaspires-source/authdash/internal/server"
)

const (
	testSecret   = "test-secret-value-for-profiles"
	testEmail    = "user1@reqres.in"
	testPassword = "cityslicka"
)

type harness struct {
	t     *testing.T
	fake  *directorytest.Fake
	store kvstore.Store
	srv   *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Cleanup(logger.SetOutput(io.Discard))

	fake := directorytest.New(directorytest.SeedUsers(12), 6)
	t.Cleanup(fake.Close)
	fake.AddAccount(testEmail, testPassword)

	store, err := kvstore.NewFileStore(filepath.Join(t.TempDir(), "storage.json"))
	require.NoError(t, err)

	h := &harness{t: t, fake: fake, store: store}
	h.start()
	return h
}

// start serves a fresh server over the harness store, as after a restart.
func (h *harness) start() {
	h.t.Helper()
	dir, err := directory.New(h.fake.URL, directory.Options{})
	require.NoError(h.t, err)
	s, err := server.New(server.Config{JWTSecret: testSecret, Notice: "**Demo** data"}, h.store, dir)
	require.NoError(h.t, err)
	h.srv = httptest.NewServer(s.Handler())
	h.t.Cleanup(h.srv.Close)
}

func (h *harness) browser() *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(h.t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (h *harness) get(c *http.Client, path string) (*http.Response, string) {
	h.t.Helper()
	resp, err := c.Get(h.srv.URL + path)
	require.NoError(h.t, err)
	return resp, readBody(h.t, resp)
}

func (h *harness) post(c *http.Client, path string, form url.Values) (*http.Response, string) {
	h.t.Helper()
	resp, err := c.PostForm(h.srv.URL+path, form)
	require.NoError(h.t, err)
	return resp, readBody(h.t, resp)
}

func (h *harness) login(c *http.Client) {
	h.t.Helper()
	resp, _ := h.post(c, "/login", url.Values{"email": {testEmail}, "password": {testPassword}})
	require.Equal(h.t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(h.t, "/", resp.Header.Get("Location"))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestDashboard_AnonymousRedirectsToLogin(t *testing.T) {
	h := newHarness(t)
	c := h.browser()

	resp, _ := h.get(c, "/")

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?from=%2F", resp.Header.Get("Location"))
	assert.NotEmpty(t, resp.Cookies())
}

func TestLogin_ReturnsToRememberedLocation(t *testing.T) {
	h := newHarness(t)
	c := h.browser()

	resp, _ := h.get(c, "/?page=2")
	require.Equal(t, "/login?from=%2F%3Fpage%3D2", resp.Header.Get("Location"))

	resp, body := h.get(c, resp.Header.Get("Location"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `value="/?page=2"`)
	assert.Contains(t, body, "<strong>Demo</strong>")

	resp, _ = h.post(c, "/login", url.Values{"email": {testEmail}, "password": {testPassword}, "from": {"/?page=2"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/?page=2", resp.Header.Get("Location"))

	resp, body = h.get(c, "/?page=2")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "user7@reqres.in")
	assert.Contains(t, body, "Hello First1")
}

func TestLogin_OffSiteReturnIsIgnored(t *testing.T) {
	h := newHarness(t)
	c := h.browser()

	resp, _ := h.post(c, "/login", url.Values{"email": {testEmail}, "password": {testPassword}, "from": {"//evil.example"}})

	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestLogin_AuthenticatedVisitorGoesHome(t *testing.T) {
	h := newHarness(t)
	c := h.browser()
	h.login(c)

	for _, p := range []string{"/login", "/register"} {
		resp, _ := h.get(c, p)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, p)
		assert.Equal(t, "/", resp.Header.Get("Location"), p)
	}
}

func TestLogin_Failures(t *testing.T) {
	h := newHarness(t)
	h.fake.AddAccount("ghost@reqres.in", "boo")

	tests := []struct {
		name     string
		form     url.Values
		want     string
		noRemote bool
	}{
		{name: "empty", form: url.Values{"email": {testEmail}}, want: "Please fill in all fields", noRemote: true},
		{name: "wrong password", form: url.Values{"email": {testEmail}, "password": {"nope"}}, want: "Invalid password"},
		{name: "unknown account", form: url.Values{"email": {"nobody@reqres.in"}, "password": {"x"}}, want: "user not found"},
		{name: "no directory profile", form: url.Values{"email": {"ghost@reqres.in"}, "password": {"boo"}}, want: "User not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := h.fake.TotalHits()
			c := h.browser()

			resp, body := h.post(c, "/login", tt.form)

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, body, tt.want)
			if tt.noRemote {
				assert.Equal(t, before, h.fake.TotalHits())
			}
			resp, _ = h.get(c, "/")
			assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
		})
	}
}

func signUpForm(email, password, confirm string) url.Values {
	return url.Values{
		"first_name":       {"John"},
		"last_name":        {"Doe"},
		"email":            {email},
		"password":         {password},
		"confirm_password": {confirm},
	}
}

func TestRegister_ShortPasswordMakesNoRemoteCall(t *testing.T) {
	h := newHarness(t)
	c := h.browser()

	resp, body := h.post(c, "/register", signUpForm("john.doe@example.com", "abc12", "abc12"))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Password must be at least 6 characters")
	assert.Contains(t, body, `value="john.doe@example.com"`)
	assert.Zero(t, h.fake.TotalHits())
}

func TestRegister_Success(t *testing.T) {
	h := newHarness(t)
	c := h.browser()

	resp, _ := h.post(c, "/register", signUpForm(testEmail, "pistol", "pistol"))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	resp, body := h.get(c, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Hello John")
	assert.Contains(t, body, "https://i.pravatar.cc/150?u=user1@reqres.in")
}

func TestRegister_RemoteFailure(t *testing.T) {
	h := newHarness(t)
	c := h.browser()

	_, body := h.post(c, "/register", signUpForm("john.doe@example.com", "password123", "password123"))

	assert.Contains(t, body, "Note: Only defined users succeed registration")
	assert.Equal(t, 1, h.fake.Hits(http.MethodPost, "/api/register"))
}

func TestDashboard_CreateUser(t *testing.T) {
	h := newHarness(t)
	c := h.browser()
	h.login(c)

	_, body := h.get(c, "/")
	require.Contains(t, body, "user1@reqres.in")

	resp, _ := h.post(c, "/users", url.Values{"first_name": {"Jane"}, "last_name": {"Roe"}, "email": {"jane@x.com"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	_, body = h.get(c, "/")
	assert.Contains(t, body, "jane@x.com")
	assert.Contains(t, body, "User created successfully")
	assert.Equal(t, 1, h.fake.Hits(http.MethodPost, "/api/users"))

	_, body = h.get(c, "/")
	assert.NotContains(t, body, "User created successfully")
}

func TestDashboard_CreateValidationKeepsDialogOpen(t *testing.T) {
	h := newHarness(t)
	c := h.browser()
	h.login(c)
	h.get(c, "/?dialog=create")

	h.post(c, "/users", url.Values{"first_name": {"Jane"}, "email": {"jane.x.com"}})

	_, body := h.get(c, "/")
	assert.Contains(t, body, "Last name is required")
	assert.Contains(t, body, "Invalid email format")
	assert.Contains(t, body, `value="jane.x.com"`)
	assert.Zero(t, h.fake.Hits(http.MethodPost, "/api/users"))

	h.post(c, "/dialog/close", nil)
	_, body = h.get(c, "/")
	assert.NotContains(t, body, "Last name is required")
}

func TestDashboard_DeleteUser(t *testing.T) {
	h := newHarness(t)
	c := h.browser()
	h.login(c)
	h.get(c, "/")
	h.fake.Missing(2)

	h.post(c, "/users/2/delete", nil)
	_, body := h.get(c, "/")
	assert.Contains(t, body, "Failed to delete user")
	assert.Contains(t, body, "user2@reqres.in")

	h.post(c, "/users/3/delete", nil)
	_, body = h.get(c, "/")
	assert.Contains(t, body, "User deleted successfully")
	assert.NotContains(t, body, "user3@reqres.in")
}

func TestDashboard_UpdateWithoutRollback(t *testing.T) {
	h := newHarness(t)
	c := h.browser()
	h.login(c)
	h.get(c, "/")
	h.fake.Missing(4)

	_, body := h.get(c, "/?edit=4")
	require.Contains(t, body, `value="First4"`)

	h.post(c, "/users/4", url.Values{"first_name": {"Renamed"}, "last_name": {"Last4"}, "email": {"user4@reqres.in"}})
	_, body = h.get(c, "/")
	assert.Contains(t, body, "Failed to update user")
	assert.Contains(t, body, "Renamed")
}

func TestDashboard_BadUserID(t *testing.T) {
	h := newHarness(t)
	c := h.browser()
	h.login(c)

	resp, _ := h.post(c, "/users/abc/delete", nil)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDashboard_FetchFailureShowsBanner(t *testing.T) {
	h := newHarness(t)
	c := h.browser()
	h.login(c)
	h.fake.Fail(http.MethodGet, "/api/users", http.StatusInternalServerError)

	_, body := h.get(c, "/")

	assert.Contains(t, body, "Failed to fetch users. Please try again later.")
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	c := h.browser()
	h.login(c)
	h.get(c, "/")

	resp, _ := h.post(c, "/logout", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp, _ = h.get(c, "/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestSession_SurvivesRestart(t *testing.T) {
	h := newHarness(t)
	c := h.browser()
	h.login(c)

	h.start()

	resp, body := h.get(c, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Hello First1")
}

func TestProfiles_AreIsolated(t *testing.T) {
	h := newHarness(t)
	alice, bob := h.browser(), h.browser()
	h.login(alice)

	resp, _ := h.get(bob, "/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = h.get(alice, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestThemeToggle(t *testing.T) {
	h := newHarness(t)
	c := h.browser()

	resp, _ := h.post(c, "/theme/toggle", url.Values{"return": {"/login"}})
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	_, body := h.get(c, "/login")
	assert.Contains(t, body, `data-theme="dark"`)

	h.post(c, "/theme/toggle", url.Values{"return": {"https://evil.example"}})
	_, body = h.get(c, "/login")
	assert.Contains(t, body, `data-theme="light"`)
}

func TestAPI(t *testing.T) {
	h := newHarness(t)
	c := h.browser()

	resp, body := h.get(c, "/api/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, body)

	resp, _ = h.get(c, "/api/session")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	h.login(c)
	resp, body = h.get(c, "/api/session")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got struct {
		Authenticated bool                  `json:"authenticated"`
		User          directory.UserProfile `json:"user"`
		Theme         string                `json:"theme"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.True(t, got.Authenticated)
	assert.Equal(t, testEmail, got.User.Email)
	assert.Equal(t, "light", got.Theme)
	assert.NotContains(t, body, "QpwL5tke4Pnpja7X4")
}

func TestSessionFeed_PushesLogin(t *testing.T) {
	h := newHarness(t)
	c := h.browser()
	h.get(c, "/login")

	base, err := url.Parse(h.srv.URL)
	require.NoError(t, err)
	header := http.Header{}
	for _, ck := range c.Jar.Cookies(base) {
		header.Add("Cookie", ck.String())
	}
	wsURL := "ws" + strings.TrimPrefix(h.srv.URL, "http") + "/ws/session"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()

	type event struct {
		Authenticated bool `json:"authenticated"`
	}
	read := func() event {
		var ev event
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		require.NoError(t, conn.ReadJSON(&ev))
		return ev
	}

	assert.False(t, read().Authenticated)
	h.login(c)
	assert.True(t, read().Authenticated)
	h.post(c, "/logout", nil)
	assert.False(t, read().Authenticated)
}
