package directory

import "strings"

// UserProfile is a directory record. Identity is ID; uniqueness is assumed.
type UserProfile struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar,omitempty"`
}

// UserFormInput is what the create and edit dialogs submit.
type UserFormInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// Page is one page of the remote listing.
type Page struct {
	Items      []UserProfile
	Page       int
	TotalPages int
}

type RegisterResult struct {
	ID    int
	Token string
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type registerResponse struct {
	ID    int    `json:"id"`
	Token string `json:"token"`
}

type listResponse struct {
	Page       int           `json:"page"`
	PerPage    int           `json:"per_page"`
	Total      int           `json:"total"`
	TotalPages int           `json:"total_pages"`
	Data       []UserProfile `json:"data"`
}

// createResponse is the echo the demo API returns for POST /api/users. Its
// id is a string and is never persisted, so it is not decoded.
type createResponse struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar"`
}

func (r createResponse) profile(in UserFormInput) UserProfile {
	p := UserProfile{FirstName: r.FirstName, LastName: r.LastName, Email: r.Email, Avatar: r.Avatar}
	if p.FirstName == "" {
		p.FirstName = in.FirstName
	}
	if p.LastName == "" {
		p.LastName = in.LastName
	}
	if p.Email == "" {
		p.Email = in.Email
	}
	return p
}

type errorBody struct {
	Error string `json:"error"`
}

// loginMessage turns a failed login body into the user-visible text. Any
// mention of "password" collapses to one normalized message.
func loginMessage(remote string) string {
	msg := remote
	if msg == "" {
		msg = "Login failed"
	}
	if strings.Contains(strings.ToLower(msg), "password") {
		msg = "Invalid password"
	}
	return msg
}
