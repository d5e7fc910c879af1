// Package directory is a stateless client for the remote user directory
// (the reqres.in demo API). Every call is a single attempt.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/lucaspires-source/authdash/internal/apperr"
	"github.com/lucaspires-source/authdash/internal/logger"
)

const DefaultBaseURL = "https://reqres.in"

// Client talks to the directory API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	apiKey     string
}

// Options overrides client dependencies.
type Options struct {
	HTTPClient *http.Client
	// APIKey is sent as x-api-key when set.
	APIKey string
}

func New(baseURL string, opts Options) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("baseURL is empty")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse baseURL: %w", err)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{baseURL: parsed, httpClient: hc, apiKey: opts.APIKey}, nil
}

// VerifyCredentials exchanges an email and password for a token.
func (c *Client) VerifyCredentials(ctx context.Context, email, password string) (string, error) {
	const op = "VerifyCredentials"
	resp, err := c.doJSON(ctx, http.MethodPost, "/api/login", credentialsRequest{Email: email, Password: password})
	if err != nil {
		return "", apperr.Remote(op, 0, loginMessage(""), err)
	}
	defer resp.Body.Close()

	if !ok2xx(resp.StatusCode) {
		msg := loginMessage(readRemoteError(resp.Body))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return "", apperr.Auth(op, resp.StatusCode, msg)
		}
		return "", apperr.Remote(op, resp.StatusCode, msg, nil)
	}
	var body loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", apperr.Remote(op, resp.StatusCode, loginMessage(""), err)
	}
	if strings.TrimSpace(body.Token) == "" {
		return "", apperr.Remote(op, resp.StatusCode, loginMessage(""), errors.New("empty token"))
	}
	return body.Token, nil
}

// FindUserByEmail walks the listing page by page, using the page count the
// API reports, until a record with exactly this email turns up.
func (c *Client) FindUserByEmail(ctx context.Context, email string) (UserProfile, error) {
	const op = "FindUserByEmail"
	for page := 1; ; page++ {
		body, err := c.list(ctx, op, page, 0, "Failed to fetch user data")
		if err != nil {
			return UserProfile{}, err
		}
		for _, u := range body.Data {
			if u.Email == email {
				return u, nil
			}
		}
		if page >= body.TotalPages {
			return UserProfile{}, apperr.NotFound(op, "User not found")
		}
	}
}

// Register creates an account and returns its id and token.
func (c *Client) Register(ctx context.Context, email, password string) (RegisterResult, error) {
	const op = "Register"
	const fallback = "Registration failed"
	resp, err := c.doJSON(ctx, http.MethodPost, "/api/register", credentialsRequest{Email: email, Password: password})
	if err != nil {
		return RegisterResult{}, apperr.Remote(op, 0, fallback, err)
	}
	defer resp.Body.Close()

	if !ok2xx(resp.StatusCode) {
		return RegisterResult{}, apperr.Remote(op, resp.StatusCode, orDefault(readRemoteError(resp.Body), fallback), nil)
	}
	var body registerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return RegisterResult{}, apperr.Remote(op, resp.StatusCode, fallback, err)
	}
	if body.Token == "" {
		return RegisterResult{}, apperr.Remote(op, resp.StatusCode, fallback, errors.New("empty token"))
	}
	return RegisterResult{ID: body.ID, Token: body.Token}, nil
}

// ListUsers fetches one page of perPage records.
func (c *Client) ListUsers(ctx context.Context, page, perPage int) (Page, error) {
	body, err := c.list(ctx, "ListUsers", page, perPage, "Failed to fetch users")
	if err != nil {
		return Page{}, err
	}
	return Page{Items: body.Data, Page: body.Page, TotalPages: body.TotalPages}, nil
}

// CreateUser posts a new record. The returned profile carries the echoed
// fields; its ID is left zero because the API does not persist writes.
func (c *Client) CreateUser(ctx context.Context, in UserFormInput) (UserProfile, error) {
	const op = "CreateUser"
	const fallback = "Failed to create user"
	resp, err := c.doJSON(ctx, http.MethodPost, "/api/users", in)
	if err != nil {
		return UserProfile{}, apperr.Remote(op, 0, fallback, err)
	}
	defer resp.Body.Close()

	if !ok2xx(resp.StatusCode) {
		return UserProfile{}, apperr.Remote(op, resp.StatusCode, orDefault(readRemoteError(resp.Body), fallback), nil)
	}
	var body createResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return UserProfile{}, apperr.Remote(op, resp.StatusCode, fallback, err)
	}
	return body.profile(in), nil
}

func (c *Client) UpdateUser(ctx context.Context, id int, in UserFormInput) error {
	return c.write(ctx, "UpdateUser", http.MethodPut, id, in, "Failed to update user")
}

func (c *Client) DeleteUser(ctx context.Context, id int) error {
	return c.write(ctx, "DeleteUser", http.MethodDelete, id, nil, "Failed to delete user")
}

func (c *Client) write(ctx context.Context, op, method string, id int, payload any, fallback string) error {
	resp, err := c.doJSON(ctx, method, "/api/users/"+strconv.Itoa(id), payload)
	if err != nil {
		return apperr.Remote(op, 0, fallback, err)
	}
	defer resp.Body.Close()
	if !ok2xx(resp.StatusCode) {
		return apperr.Remote(op, resp.StatusCode, orDefault(readRemoteError(resp.Body), fallback), nil)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) list(ctx context.Context, op string, page, perPage int, fallback string) (listResponse, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if perPage > 0 {
		q.Set("per_page", strconv.Itoa(perPage))
	}
	resp, err := c.do(ctx, http.MethodGet, "/api/users?"+q.Encode(), nil)
	if err != nil {
		return listResponse{}, apperr.Remote(op, 0, fallback, err)
	}
	defer resp.Body.Close()
	if !ok2xx(resp.StatusCode) {
		msg := orDefault(readRemoteError(resp.Body), fallback)
		return listResponse{}, apperr.Remote(op, resp.StatusCode, msg, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	var body listResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return listResponse{}, apperr.Remote(op, resp.StatusCode, fallback, err)
	}
	if body.Page == 0 {
		body.Page = page
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	rel, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	// Keep any path prefix of the base URL, e.g. https://host/mock.
	full := *c.baseURL
	full.Path = strings.TrimRight(c.baseURL.Path, "/") + rel.Path
	full.RawPath = ""
	full.RawQuery = rel.RawQuery
	full.Fragment = ""
	req, err := http.NewRequestWithContext(ctx, method, full.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}
	logger.Debug("directory %s %s", method, full.String())
	return c.httpClient.Do(req)
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(payload); err != nil {
			return nil, err
		}
		body = buf
	}
	return c.do(ctx, method, path, body)
}

func readRemoteError(r io.Reader) string {
	var body errorBody
	if err := json.NewDecoder(io.LimitReader(r, 64<<10)).Decode(&body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.Error)
}

func ok2xx(status int) bool {
	return status >= 200 && status < 300
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
